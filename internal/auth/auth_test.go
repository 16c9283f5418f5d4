package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func createTestService(t *testing.T) (*Service, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	return NewService(store, store).WithCost(bcrypt.MinCost), store
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc, store := createTestService(t)

	user, err := svc.Register(ctx, "  alice ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Login)
	assert.NotEqual(t, "secret", user.PasswordHash)

	stored, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.PasswordHash, stored.PasswordHash)

	tests := []struct {
		name     string
		login    string
		password string
	}{
		{"short login", "al", "secret"},
		{"short password", "bob", "pw"},
		{"password over bcrypt limit", "bob", strings.Repeat("x", MaxPasswordLength+1)},
		{"taken login", "alice", "another"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.login, tt.password)
			assert.True(t, common.IsValidation(err))
		})
	}
}

func TestService_LoginLogout(t *testing.T) {
	ctx := context.Background()
	svc, store := createTestService(t)
	_, err := svc.Register(ctx, "alice", "secret")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "nope")
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("unknown login", func(t *testing.T) {
		_, err := svc.Login(ctx, "ghost", "secret")
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("blank login", func(t *testing.T) {
		_, err := svc.Login(ctx, "  ", "secret")
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	})

	t.Run("session round trip", func(t *testing.T) {
		sess, err := svc.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		assert.Equal(t, "alice", sess.Login)
		assert.Empty(t, sess.Wallet.Operations)

		sess.Wallet.Categories = append(sess.Wallet.Categories, "Food")
		require.NoError(t, svc.Logout(ctx, sess))

		w, err := store.LoadWallet(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"Food"}, w.Categories)

		again, err := svc.Login(ctx, "alice", "secret")
		require.NoError(t, err)
		assert.True(t, again.Wallet.HasCategory("Food"))
	})

	t.Run("logout without session", func(t *testing.T) {
		assert.ErrorIs(t, svc.Logout(ctx, nil), common.ErrNoSession)
		assert.ErrorIs(t, svc.Logout(ctx, &model.Session{Login: "alice"}), common.ErrNoSession)
	})
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, err := issuer.Issue("alice")
		require.NoError(t, err)

		login, err := issuer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", login)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := issuer.Verify("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenIssuer("other-secret", time.Hour).Issue("alice")
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenIssuer("test-secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.Issue("alice")
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
