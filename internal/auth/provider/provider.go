package provider

import (
	"context"
	"errors"

	"campus-auth/internal/auth"
)

//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=provider.go IdentityVerifier,OAuthProvider

var (
	// ErrAuthRejected means the provider refused the token (invalid or expired).
	ErrAuthRejected = errors.New("provider rejected access token")
	// ErrProviderFailure means the provider answered with a non-auth error
	// or a payload that could not be used.
	ErrProviderFailure = errors.New("provider request failed")
)

// IdentityVerifier exchanges an opaque access token for a verified
// identity. Implementations return identity facts only and must not
// perform user lookup, creation, or policy checks.
//
// Errors: ErrAuthRejected, ErrProviderFailure, or an error wrapping
// auth.ErrUnavailable for I/O-level faults.
type IdentityVerifier interface {
	VerifyAccessToken(ctx context.Context, accessToken string) (*auth.Identity, error)
}

// OAuthProvider drives the browser authorization-code flow that ends
// with an access token for an IdentityVerifier.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "google").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code and returns the
	// access token. No auth decisions are made here.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (accessToken string, err error)
}
