package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/purse/internal/model"
	"github.com/Veraticus/purse/internal/service"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateUser validates a user before insert.
func validateUser(user *model.User) error {
	if user == nil {
		return fmt.Errorf("%w: user", ErrNilParameter)
	}
	if err := validateString(user.Login, "login"); err != nil {
		return err
	}
	return validateString(user.PasswordHash, "passwordHash")
}

// validateSnapshots validates wallets passed to a multi-wallet save.
func validateSnapshots(snapshots []service.WalletSnapshot) error {
	if len(snapshots) == 0 {
		return fmt.Errorf("%w: snapshots", ErrEmptySlice)
	}
	for i, snap := range snapshots {
		if err := validateString(snap.Login, "login"); err != nil {
			return fmt.Errorf("snapshot at index %d: %w", i, err)
		}
		if snap.Wallet == nil {
			return fmt.Errorf("snapshot at index %d: %w: wallet", i, ErrNilParameter)
		}
	}
	return nil
}
