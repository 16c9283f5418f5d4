package testutil

import (
	"fmt"
	"time"

	"github.com/Veraticus/purse/internal/model"
)

// WalletBuilder assembles wallets directly, without the ledger's validation,
// so tests can start from any state.
type WalletBuilder struct {
	wallet *model.Wallet
	now    time.Time
}

// NewWalletBuilder starts an empty wallet. Operations without an explicit
// time are stamped one minute apart from 2026-01-01 00:00 UTC.
func NewWalletBuilder() *WalletBuilder {
	return &WalletBuilder{
		wallet: model.NewWallet(),
		now:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// WithCategories appends categories that are not present yet.
func (b *WalletBuilder) WithCategories(names ...string) *WalletBuilder {
	for _, name := range names {
		if !b.wallet.HasCategory(name) {
			b.wallet.Categories = append(b.wallet.Categories, name)
		}
	}
	return b
}

// WithBudget sets a limit, adding the category if needed.
func (b *WalletBuilder) WithBudget(category string, limit float64) *WalletBuilder {
	b.WithCategories(category)
	b.wallet.Budgets[category] = limit
	return b
}

// WithIncome appends an income operation.
func (b *WalletBuilder) WithIncome(category string, amount float64) *WalletBuilder {
	return b.WithOperation(model.OperationIncome, category, amount, time.Time{})
}

// WithExpense appends an expense operation.
func (b *WalletBuilder) WithExpense(category string, amount float64) *WalletBuilder {
	return b.WithOperation(model.OperationExpense, category, amount, time.Time{})
}

// WithOperation appends an operation at the given time, adding the category if needed.
func (b *WalletBuilder) WithOperation(typ model.OperationType, category string, amount float64, at time.Time) *WalletBuilder {
	if at.IsZero() {
		at = b.now
		b.now = b.now.Add(time.Minute)
	}
	b.WithCategories(category)
	b.wallet.Operations = append(b.wallet.Operations, model.Operation{
		ID:        fmt.Sprintf("op-%d", len(b.wallet.Operations)+1),
		CreatedAt: at,
		Type:      typ,
		Category:  category,
		Amount:    amount,
	})
	return b
}

// Build returns a copy of the assembled wallet.
func (b *WalletBuilder) Build() *model.Wallet {
	return b.wallet.Clone()
}
