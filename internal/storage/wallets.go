package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
)

// LoadWallet reads the wallet of login, or returns an empty wallet when none was saved.
func (s *SQLiteStorage) LoadWallet(ctx context.Context, login string) (*model.Wallet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(login, "login"); err != nil {
		return nil, err
	}

	wallet := model.NewWallet()

	if err := s.loadCategories(ctx, login, wallet); err != nil {
		return nil, err
	}
	if err := s.loadBudgets(ctx, login, wallet); err != nil {
		return nil, err
	}
	if err := s.loadOperations(ctx, login, wallet); err != nil {
		return nil, err
	}

	return wallet, nil
}

func (s *SQLiteStorage) loadCategories(ctx context.Context, login string, wallet *model.Wallet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM wallet_categories
		WHERE login = ?
		ORDER BY position
	`, login)
	if err != nil {
		return fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan category: %w", err)
		}
		wallet.Categories = append(wallet.Categories, name)
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadBudgets(ctx context.Context, login string, wallet *model.Wallet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, limit_amount FROM wallet_budgets
		WHERE login = ?
	`, login)
	if err != nil {
		return fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var category string
		var limit float64
		if err := rows.Scan(&category, &limit); err != nil {
			return fmt.Errorf("failed to scan budget: %w", err)
		}
		wallet.Budgets[category] = limit
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadOperations(ctx context.Context, login string, wallet *model.Wallet) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, category, amount, created_at, note
		FROM wallet_operations
		WHERE login = ?
		ORDER BY seq
	`, login)
	if err != nil {
		return fmt.Errorf("failed to query operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var op model.Operation
		var opType, createdAt string
		if err := rows.Scan(&op.ID, &opType, &op.Category, &op.Amount, &createdAt, &op.Note); err != nil {
			return fmt.Errorf("failed to scan operation: %w", err)
		}
		op.Type = model.OperationType(opType)
		if op.CreatedAt, err = parseTime(createdAt); err != nil {
			return fmt.Errorf("failed to parse operation %s created_at: %w", op.ID, err)
		}
		wallet.Operations = append(wallet.Operations, op)
	}
	return rows.Err()
}

// SaveWallet overwrites the stored wallet of login.
func (s *SQLiteStorage) SaveWallet(ctx context.Context, login string, wallet *model.Wallet) error {
	return s.SaveWallets(ctx, service.WalletSnapshot{Login: login, Wallet: wallet})
}

// SaveWallets overwrites several wallets in one transaction.
func (s *SQLiteStorage) SaveWallets(ctx context.Context, snapshots ...service.WalletSnapshot) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSnapshots(snapshots); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Rollback is a no-op if tx has been committed
	}()

	now := formatTime(time.Now())
	for _, snap := range snapshots {
		if err := s.saveWalletTx(ctx, tx, snap.Login, snap.Wallet, now); err != nil {
			return fmt.Errorf("failed to save wallet %s: %w", snap.Login, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit wallets: %w", err)
	}

	slog.Debug("Saved wallets", "count", len(snapshots))
	return nil
}

func (s *SQLiteStorage) saveWalletTx(ctx context.Context, tx *sql.Tx, login string, wallet *model.Wallet, now string) error {
	for _, table := range []string{"wallet_operations", "wallet_budgets", "wallet_categories"} {
		// Table names come from the fixed list above.
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE login = ?", login); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (login, updated_at) VALUES (?, ?)
		ON CONFLICT(login) DO UPDATE SET updated_at = excluded.updated_at
	`, login, now)
	if err != nil {
		return fmt.Errorf("failed to upsert wallet: %w", err)
	}

	catStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO wallet_categories (login, position, name) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare category statement: %w", err)
	}
	defer func() { _ = catStmt.Close() }()

	for i, name := range wallet.Categories {
		if _, err := catStmt.ExecContext(ctx, login, i, name); err != nil {
			return fmt.Errorf("failed to insert category %s: %w", name, err)
		}
	}

	budgetStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO wallet_budgets (login, category, limit_amount) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare budget statement: %w", err)
	}
	defer func() { _ = budgetStmt.Close() }()

	for category, limit := range wallet.Budgets {
		if _, err := budgetStmt.ExecContext(ctx, login, category, limit); err != nil {
			return fmt.Errorf("failed to insert budget %s: %w", category, err)
		}
	}

	opStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO wallet_operations (login, seq, id, type, category, amount, created_at, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare operation statement: %w", err)
	}
	defer func() { _ = opStmt.Close() }()

	for i, op := range wallet.Operations {
		_, err := opStmt.ExecContext(ctx, login, i, op.ID, string(op.Type), op.Category, op.Amount, formatTime(op.CreatedAt), op.Note)
		if err != nil {
			return fmt.Errorf("failed to insert operation %s: %w", op.ID, err)
		}
	}

	return nil
}
