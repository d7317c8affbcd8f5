// Package directory stores local accounts keyed by email.
//
// Backends report a missing account with ErrNotFound and every storage
// or network fault with an error wrapping auth.ErrUnavailable, so callers
// can never mistake one for the other.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus-auth/internal/auth"
)

//go:generate mockgen -destination=mocks/mock_directory.go -package=mocks -source=directory.go Directory

var (
	ErrNotFound       = errors.New("account not found")
	ErrInvalidAccount = errors.New("invalid account")
)

// NewAccount is the input for Create.
type NewAccount struct {
	Email     string
	FullName  string
	AvatarURL string
	Role      auth.Role
	Status    auth.Status
}

// Directory looks up and provisions accounts.
type Directory interface {
	// FindByEmail returns the account stored under email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (auth.Account, error)

	// Create provisions an account. When the email already exists, for
	// example after a concurrent Create, the stored account is returned
	// and no second account is made.
	Create(ctx context.Context, in NewAccount) (auth.Account, error)
}

func (n NewAccount) validate() error {
	if strings.TrimSpace(n.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidAccount)
	}
	if !n.Role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidAccount, n.Role)
	}
	if !n.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidAccount, n.Status)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, auth.ErrUnavailable, err)
}

func toAccount(id, email, fullName, avatarURL, role, status string) (auth.Account, error) {
	r, err := auth.ParseRole(role)
	if err != nil {
		return auth.Account{}, err
	}
	s, err := auth.ParseStatus(status)
	if err != nil {
		return auth.Account{}, err
	}
	return auth.Account{
		ID:        id,
		Email:     email,
		FullName:  fullName,
		AvatarURL: avatarURL,
		Role:      r,
		Status:    s,
	}, nil
}
