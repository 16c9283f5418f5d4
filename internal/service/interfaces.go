// Package service defines the ports and shared value types used by the ledger services.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/purse/internal/model"
	"github.com/shopspring/decimal"
)

// UserRepository resolves and stores user records.
type UserRepository interface {
	GetUser(ctx context.Context, login string) (*model.User, error)
	UserExists(ctx context.Context, login string) (bool, error)
	CreateUser(ctx context.Context, user *model.User) error
}

// WalletStore loads and saves whole wallets keyed by login.
type WalletStore interface {
	// LoadWallet returns an empty wallet when none has been saved yet.
	LoadWallet(ctx context.Context, login string) (*model.Wallet, error)
	// SaveWallet overwrites the stored wallet.
	SaveWallet(ctx context.Context, login string, wallet *model.Wallet) error
}

// WalletSnapshot is one wallet to persist as part of a multi-wallet write.
type WalletSnapshot struct {
	Wallet *model.Wallet
	Login  string
}

// AtomicWalletStore can persist several wallets so that either all or none are written.
type AtomicWalletStore interface {
	WalletStore
	SaveWallets(ctx context.Context, snapshots ...WalletSnapshot) error
}

// Storage is everything the application needs from a backing store.
type Storage interface {
	UserRepository
	AtomicWalletStore
	Migrate(ctx context.Context) error
	Close() error
}

// DateRange represents a half-open time window [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Report is the structured form of a stats report.
type Report struct {
	// Period is nil for the all-time report.
	Period            *ReportPeriod
	IncomeByCategory  []model.CategoryAmount
	ExpenseByCategory []model.CategoryAmount
	Budgets           []model.BudgetLine
	TotalIncome       float64
	TotalExpense      float64
}

// ReportPeriod records the requested days and the window derived from them.
type ReportPeriod struct {
	From   time.Time
	To     time.Time
	Window DateRange
}

// AlertKind identifies the condition an alert reports.
type AlertKind string

const (
	// AlertBudgetExceeded fires when spending in a category passes its limit.
	AlertBudgetExceeded AlertKind = "budget_exceeded"
	// AlertExpenseExceedsIncome fires when total expense is above total income.
	AlertExpenseExceedsIncome AlertKind = "expense_exceeds_income"
)

// Alert is a warning computed after a mutating call.
type Alert struct {
	Kind     AlertKind `json:"kind"`
	Category string    `json:"category,omitempty"`
	// Amount is the overage for budget alerts and the deficit for income alerts.
	Amount float64 `json:"amount"`
}

// Message renders the alert for display.
func (a Alert) Message() string {
	amount := decimal.NewFromFloat(a.Amount).String()
	switch a.Kind {
	case AlertBudgetExceeded:
		return fmt.Sprintf("budget exceeded for category %q by %s", a.Category, amount)
	case AlertExpenseExceedsIncome:
		return fmt.Sprintf("total expense exceeds total income by %s", amount)
	default:
		return string(a.Kind)
	}
}

func (a Alert) String() string {
	return a.Message()
}
