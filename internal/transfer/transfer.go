// Package transfer moves money between two wallets as a paired expense and income.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/ledger"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"github.com/Veraticus/purse/internal/walletlock"
)

// Transfer outcomes reported to an Observer.
const (
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Observer is notified once per transfer attempt.
type Observer interface {
	TransferFinished(outcome string)
}

// Receipt describes a completed transfer.
type Receipt struct {
	Expense model.Operation
	Income  model.Operation
	// Alerts are the sender-side alerts raised by the expense.
	Alerts []service.Alert
}

// Service performs transfers using the user and wallet ports.
type Service struct {
	users    service.UserRepository
	wallets  service.WalletStore
	ledger   *ledger.Service
	locks    *walletlock.Manager
	observer Observer
}

// NewService creates a transfer service. A nil lock manager gets a private one.
func NewService(users service.UserRepository, wallets service.WalletStore, ledgerSvc *ledger.Service, locks *walletlock.Manager) *Service {
	if locks == nil {
		locks = walletlock.NewManager()
	}
	return &Service{
		users:   users,
		wallets: wallets,
		ledger:  ledgerSvc,
		locks:   locks,
	}
}

// SetObserver attaches an observer for transfer outcomes.
func (s *Service) SetObserver(o Observer) {
	s.observer = o
}

// Transfer sends amount from the session wallet to toLogin. The session wallet
// is only updated once the sender side has been persisted.
func (s *Service) Transfer(ctx context.Context, sess *model.Session, toLogin string, amount float64, note string) (*Receipt, error) {
	if sess == nil || sess.Wallet == nil {
		return nil, &common.StateError{Reason: "login required"}
	}

	toLogin = strings.TrimSpace(toLogin)
	if err := validate(sess.Login, toLogin, amount); err != nil {
		s.finish(OutcomeRejected)
		return nil, err
	}

	unlock := s.locks.LockPair(sess.Login, toLogin)
	defer unlock()

	return s.run(ctx, sess.Login, sess.Wallet, toLogin, amount, note, func(sender *model.Wallet) {
		*sess.Wallet = *sender
	})
}

// TransferBetween loads the sender wallet from storage and transfers to toLogin.
func (s *Service) TransferBetween(ctx context.Context, fromLogin, toLogin string, amount float64, note string) (*Receipt, error) {
	toLogin = strings.TrimSpace(toLogin)
	if err := validate(fromLogin, toLogin, amount); err != nil {
		s.finish(OutcomeRejected)
		return nil, err
	}

	unlock := s.locks.LockPair(fromLogin, toLogin)
	defer unlock()

	sender, err := s.wallets.LoadWallet(ctx, fromLogin)
	if err != nil {
		s.finish(OutcomeFailed)
		return nil, fmt.Errorf("failed to load sender wallet: %w", err)
	}

	return s.run(ctx, fromLogin, sender, toLogin, amount, note, func(*model.Wallet) {})
}

func validate(fromLogin, toLogin string, amount float64) error {
	if toLogin == "" {
		return common.NewValidationError("recipient", "recipient login is empty")
	}
	if toLogin == fromLogin {
		return common.NewValidationError("", "cannot transfer to self")
	}
	if !model.ValidAmount(amount) {
		return common.NewValidationError("amount", "amount must be a finite number greater than zero")
	}
	return nil
}

func (s *Service) run(ctx context.Context, fromLogin string, fromWallet *model.Wallet, toLogin string, amount float64, note string, commit func(*model.Wallet)) (*Receipt, error) {
	if _, err := s.users.GetUser(ctx, toLogin); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.finish(OutcomeRejected)
			return nil, &common.NotFoundError{Kind: "user", Key: toLogin}
		}
		s.finish(OutcomeFailed)
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}

	recipient, err := s.wallets.LoadWallet(ctx, toLogin)
	if err != nil {
		s.finish(OutcomeFailed)
		return nil, fmt.Errorf("failed to load recipient wallet: %w", err)
	}

	sender := fromWallet.Clone()
	receipt, err := s.apply(sender, recipient, fromLogin, toLogin, amount, note)
	if err != nil {
		s.finish(OutcomeRejected)
		return nil, err
	}

	if err := s.persist(ctx, fromLogin, sender, toLogin, recipient, commit); err != nil {
		s.finish(OutcomeFailed)
		return nil, err
	}

	s.ledger.Committed(receipt.Expense, receipt.Alerts)
	s.ledger.Committed(receipt.Income, nil)
	s.finish(OutcomeCompleted)
	slog.Info("Transfer completed",
		"from", fromLogin,
		"to", toLogin,
		"amount", amount,
		"alerts", len(receipt.Alerts))

	return receipt, nil
}

func (s *Service) apply(sender, recipient *model.Wallet, fromLogin, toLogin string, amount float64, note string) (*Receipt, error) {
	for _, w := range []*model.Wallet{sender, recipient} {
		if err := s.ledger.AddCategory(w, model.TransferCategory); err != nil {
			return nil, err
		}
	}

	expense, alerts, err := s.ledger.AddExpense(sender, model.TransferCategory, amount, transferNote("to", toLogin, note))
	if err != nil {
		return nil, fmt.Errorf("failed to record transfer expense: %w", err)
	}
	income, _, err := s.ledger.AddIncome(recipient, model.TransferCategory, amount, transferNote("from", fromLogin, note))
	if err != nil {
		return nil, fmt.Errorf("failed to record transfer income: %w", err)
	}

	return &Receipt{Expense: expense, Income: income, Alerts: alerts}, nil
}

// persist writes sender then recipient, in one transaction when the store supports it.
func (s *Service) persist(ctx context.Context, fromLogin string, sender *model.Wallet, toLogin string, recipient *model.Wallet, commit func(*model.Wallet)) error {
	if atomic, ok := s.wallets.(service.AtomicWalletStore); ok {
		err := atomic.SaveWallets(ctx,
			service.WalletSnapshot{Login: fromLogin, Wallet: sender},
			service.WalletSnapshot{Login: toLogin, Wallet: recipient},
		)
		if err != nil {
			return fmt.Errorf("failed to save transfer: %w", err)
		}
		commit(sender)
		return nil
	}

	if err := s.wallets.SaveWallet(ctx, fromLogin, sender); err != nil {
		return fmt.Errorf("failed to save sender wallet: %w", err)
	}
	commit(sender)

	if err := s.wallets.SaveWallet(ctx, toLogin, recipient); err != nil {
		slog.Error("Transfer left wallets inconsistent", "from", fromLogin, "to", toLogin, "error", err)
		return fmt.Errorf("failed to save recipient wallet: %w", errors.Join(common.ErrPartialTransfer, err))
	}
	return nil
}

func transferNote(direction, login, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return direction + " " + login
	}
	return direction + " " + login + ": " + note
}

func (s *Service) finish(outcome string) {
	if s.observer != nil {
		s.observer.TransferFinished(outcome)
	}
}
