package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/purse/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestWalletBuilder(t *testing.T) {
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	w := NewWalletBuilder().
		WithCategories("Food", "Food").
		WithBudget("Rent", 900).
		WithIncome("Salary", 1000).
		WithExpense("Food", 20).
		WithOperation(model.OperationExpense, "Rent", 900, at).
		Build()

	assert.Equal(t, []string{"Food", "Rent", "Salary"}, w.Categories)
	assert.InDelta(t, 900.0, w.Budgets["Rent"], 0)
	require.Len(t, w.Operations, 3)
	assert.Equal(t, "op-1", w.Operations[0].ID)
	assert.True(t, w.Operations[1].CreatedAt.After(w.Operations[0].CreatedAt))
	assert.Equal(t, at, w.Operations[2].CreatedAt)
}

func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t,
		UserSeed{Login: "alice", Password: "secret", Wallet: NewWalletBuilder().WithIncome("Salary", 10).Build()},
		UserSeed{Login: "bob", Password: "hunter2"},
	)

	user, err := db.Storage.GetUser(context.Background(), "bob")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2")))

	alice := db.MustLoadWallet("alice")
	assert.Equal(t, []string{"Salary"}, alice.Categories)
	assert.Len(t, alice.Operations, 1)

	assert.Empty(t, db.MustLoadWallet("bob").Operations)
}
