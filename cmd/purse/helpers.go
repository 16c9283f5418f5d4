package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/purse/internal/auth"
	"github.com/Veraticus/purse/internal/cli"
	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/metrics"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/Veraticus/purse/internal/storage"
	"github.com/Veraticus/purse/internal/transfer"
	"github.com/Veraticus/purse/internal/walletlock"
	"github.com/spf13/cobra"
)

// services is the wired application graph over one open database.
type services struct {
	store     *storage.SQLiteStorage
	auth      *auth.Service
	ledger    *ledger.Service
	transfers *transfer.Service
	locks     *walletlock.Manager
	metrics   *metrics.Metrics

	// onSaved runs after withSession has saved the session wallet.
	onSaved []func()
}

// afterSave defers fn until the session wallet has been saved.
func (s *services) afterSave(fn func()) {
	s.onSaved = append(s.onSaved, fn)
}

func (s *services) Close() error {
	return s.store.Close()
}

// initStorage opens the configured database and applies pending migrations.
func (a *app) initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openServices wires the auth, ledger and transfer services over a fresh storage.
func (a *app) openServices(ctx context.Context) (*services, error) {
	store, err := a.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	locks := walletlock.NewManager()
	ledgerSvc := ledger.NewService(ledger.WithRecorder(m))
	transfers := transfer.NewService(store, store, ledgerSvc, locks)
	transfers.SetObserver(m)

	return &services{
		store:     store,
		auth:      auth.NewService(store, store),
		ledger:    ledgerSvc,
		transfers: transfers,
		locks:     locks,
		metrics:   m,
	}, nil
}

// withServices runs fn against freshly wired services and closes them afterwards.
func (a *app) withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *services) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := a.openServices(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svc.Close(); closeErr != nil {
			slog.Warn("Failed to close storage", "error", closeErr)
		}
	}()

	return fn(ctx, svc)
}

// withSession logs in with the configured credentials and runs fn. When mutates
// is set the session wallet is saved afterwards. The wallet is not saved when fn fails.
func (a *app) withSession(cmd *cobra.Command, mutates bool, fn func(ctx context.Context, svc *services, sess *model.Session) error) error {
	return a.withServices(cmd, func(ctx context.Context, svc *services) error {
		creds := a.cfg.Session
		if creds.Login == "" {
			return common.NewUserError("no login given: use --login and --password or PURSE_SESSION_LOGIN", common.ErrNoSession)
		}

		sess, err := svc.auth.Login(ctx, creds.Login, creds.Password)
		if err != nil {
			if errors.Is(err, common.ErrUnauthorized) {
				return common.NewUserError("login failed", err)
			}
			return err
		}

		if err := fn(ctx, svc, sess); err != nil {
			return err
		}
		if !mutates {
			return nil
		}
		if err := svc.auth.Logout(ctx, sess); err != nil {
			return err
		}
		for _, saved := range svc.onSaved {
			saved()
		}
		return nil
	})
}

// buildReport returns the all-time report when both dates are empty and the
// period report otherwise.
func buildReport(l *ledger.Service, w *model.Wallet, from, to string) (service.Report, error) {
	if from == "" && to == "" {
		return l.BuildStatsReport(w), nil
	}

	fromDate, err := cli.ParseDate(from)
	if err != nil {
		return service.Report{}, err
	}
	toDate, err := cli.ParseDate(to)
	if err != nil {
		return service.Report{}, err
	}
	return l.BuildPeriodReport(w, fromDate, toDate)
}
