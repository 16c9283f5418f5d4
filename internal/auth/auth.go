// Package auth registers users, verifies credentials and opens wallet sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// MinCredentialLength applies to both logins and passwords.
const MinCredentialLength = 3

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

// Service manages users and sessions on top of the storage ports.
type Service struct {
	users   service.UserRepository
	wallets service.WalletStore
	now     func() time.Time
	cost    int
}

// NewService creates an auth service using bcrypt's default cost.
func NewService(users service.UserRepository, wallets service.WalletStore) *Service {
	return &Service{
		users:   users,
		wallets: wallets,
		now:     time.Now,
		cost:    bcrypt.DefaultCost,
	}
}

// WithCost returns a copy of the service hashing with the given bcrypt cost.
func (s *Service) WithCost(cost int) *Service {
	c := *s
	c.cost = cost
	return &c
}

// Register creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, login, password string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if err := validateCredentials(login, password); err != nil {
		return nil, err
	}

	exists, err := s.users.UserExists(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to check login: %w", err)
	}
	if exists {
		return nil, common.NewValidationError("login", "login already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Login:        login,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return nil, common.NewValidationError("login", "login already taken")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("Registered user", "login", login)
	return user, nil
}

// Authenticate checks the credentials without loading the wallet.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, common.ErrUnauthorized
	}

	user, err := s.users.GetUser(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrUnauthorized
	}
	return user, nil
}

// Login authenticates and loads the user's wallet into a new session.
func (s *Service) Login(ctx context.Context, login, password string) (*model.Session, error) {
	user, err := s.Authenticate(ctx, login, password)
	if err != nil {
		return nil, err
	}

	wallet, err := s.wallets.LoadWallet(ctx, user.Login)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	slog.Debug("Opened session", "login", user.Login, "operations", len(wallet.Operations))
	return &model.Session{Login: user.Login, Wallet: wallet}, nil
}

// Logout persists the session wallet.
func (s *Service) Logout(ctx context.Context, sess *model.Session) error {
	if sess == nil || sess.Wallet == nil {
		return &common.StateError{Reason: "login required"}
	}
	if err := s.wallets.SaveWallet(ctx, sess.Login, sess.Wallet); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	return nil
}

func validateCredentials(login, password string) error {
	if len(login) < MinCredentialLength {
		return common.NewValidationError("login", fmt.Sprintf("login must be at least %d characters", MinCredentialLength))
	}
	if len(password) < MinCredentialLength {
		return common.NewValidationError("password", fmt.Sprintf("password must be at least %d characters", MinCredentialLength))
	}
	if len(password) > MaxPasswordLength {
		return common.NewValidationError("password", fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}
	return nil
}
