// Package testutil provides test databases and wallet fixtures for purse tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// UserSeed is a user created by SetupTestDB. A nil Wallet leaves the user
// without a stored wallet.
type UserSeed struct {
	Wallet   *model.Wallet
	Login    string
	Password string
}

// TestDB represents a migrated in-memory database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database and seeds the given users.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.UserSeed{Login: "alice", Password: "secret"},
//		testutil.UserSeed{Login: "bob", Password: "secret", Wallet: testutil.NewWalletBuilder().WithCategories("Food").Build()},
//	)
func SetupTestDB(t *testing.T, users ...UserSeed) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{Storage: store, t: t}
	for _, u := range users {
		db.SeedUser(u)
	}
	return db
}

// SeedUser stores a user with a low-cost bcrypt hash and its wallet.
func (db *TestDB) SeedUser(u UserSeed) {
	db.t.Helper()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
	if err != nil {
		db.t.Fatalf("failed to hash password for %q: %v", u.Login, err)
	}
	user := &model.User{Login: u.Login, PasswordHash: string(hash), CreatedAt: time.Now()}
	if err := db.Storage.CreateUser(ctx, user); err != nil {
		db.t.Fatalf("failed to seed user %q: %v", u.Login, err)
	}

	if u.Wallet != nil {
		if err := db.Storage.SaveWallet(ctx, u.Login, u.Wallet); err != nil {
			db.t.Fatalf("failed to seed wallet for %q: %v", u.Login, err)
		}
	}
}

// MustLoadWallet returns the stored wallet of login or fails the test.
func (db *TestDB) MustLoadWallet(login string) *model.Wallet {
	db.t.Helper()
	w, err := db.Storage.LoadWallet(context.Background(), login)
	if err != nil {
		db.t.Fatalf("failed to load wallet for %q: %v", login, err)
	}
	return w
}
