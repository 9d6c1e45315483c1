// Package seed bootstraps the default local account so a fresh install
// can generate documents immediately.
package seed

import (
	"context"
	"errors"

	creditdomain "github.com/theronnieguidry/teachers-assistant-sub004/internal/credit/domain"
)

// DefaultUserID is the single local account used when no identity
// provider is configured.
const DefaultUserID = "local-user"

// EnsureStarterAccount creates the default credit account with the
// configured starter grant. It is idempotent: an account that already
// exists is left alone, whatever its balance.
func EnsureStarterAccount(ctx context.Context, credits creditdomain.Service, starterCredits int64) error {
	if credits == nil {
		return errors.New("seed credit service is required")
	}
	if starterCredits <= 0 {
		return nil
	}

	_, err := credits.GetBalance(ctx, DefaultUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, creditdomain.ErrAccountNotFound) {
		return err
	}
	return credits.Grant(ctx, DefaultUserID, starterCredits, "starter credits")
}
