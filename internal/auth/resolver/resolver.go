package resolver

import (
	"context"
	"errors"

	"campus-auth/internal/auth"
	"campus-auth/internal/auth/directory"
	"campus-auth/internal/auth/policy"
	"campus-auth/internal/auth/provider"
	"campus-auth/internal/logger"
)

//go:generate mockgen -destination=mocks/mock_resolver.go -package=mocks -source=resolver.go Resolver,Policy

// Resolver turns a provider access token into a login outcome.
// It is the ONLY place where identity-to-account mapping logic lives.
type Resolver interface {
	Resolve(ctx context.Context, accessToken string) Outcome
}

// Policy decides whether an email that has no account may be provisioned,
// and with which role.
type Policy interface {
	Evaluate(email string) (policy.Verdict, error)
}

// LoginResolver verifies the token, then returns the existing account
// or provisions a new one when the email policy allows it.
//
// Precedence is strict: verification, lookup, policy, create. A fault
// at any step stops the chain. Existing accounts bypass the policy.
type LoginResolver struct {
	verifier  provider.IdentityVerifier
	directory directory.Directory
	policy    Policy
}

func NewLoginResolver(
	verifier provider.IdentityVerifier,
	dir directory.Directory,
	p Policy,
) *LoginResolver {
	return &LoginResolver{
		verifier:  verifier,
		directory: dir,
		policy:    p,
	}
}

func (r *LoginResolver) Resolve(ctx context.Context, accessToken string) Outcome {
	out := r.resolve(ctx, accessToken)
	logOutcome(out)
	return out
}

func (r *LoginResolver) resolve(ctx context.Context, accessToken string) Outcome {
	// 1. Verify token with the provider
	identity, err := r.verifier.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, provider.ErrAuthRejected) {
			return failureOutcome(AuthError, err)
		}
		return failureOutcome(GeneralError, err)
	}
	if identity == nil {
		return failureOutcome(GeneralError, errors.New("verifier returned no identity"))
	}

	// 2. Existing account wins regardless of policy
	acc, err := r.directory.FindByEmail(ctx, identity.Email)
	if err == nil {
		return successOutcome(acc)
	}
	if !errors.Is(err, directory.ErrNotFound) {
		return failureOutcome(GeneralError, err)
	}

	// 3. Policy gate for new accounts
	verdict, err := r.policy.Evaluate(identity.Email)
	if err != nil {
		if errors.Is(err, policy.ErrMalformedEmail) {
			return failureOutcome(NotAllowed, err)
		}
		return failureOutcome(GeneralError, err)
	}
	if !verdict.Allowed {
		return failureOutcome(NotAllowed, nil)
	}

	// 4. Provision
	created, err := r.directory.Create(ctx, directory.NewAccount{
		Email:     identity.Email,
		FullName:  identity.FullName(),
		AvatarURL: identity.Picture,
		Role:      verdict.Role,
		Status:    auth.StatusActive,
	})
	if err != nil {
		return failureOutcome(GeneralError, err)
	}
	return successOutcome(created)
}

func logOutcome(out Outcome) {
	fields := map[string]any{"outcome": out.Kind.String()}

	switch out.Kind {
	case Success:
		fields["account_id"] = out.Account.ID
		fields["role"] = string(out.Account.Role)
		logger.Info("login resolved", fields)
	case NotAllowed:
		if out.Cause != nil {
			fields["error"] = out.Cause
		}
		logger.Info("login refused by email policy", fields)
	case AuthError:
		fields["error"] = out.Cause
		logger.Warn("login rejected by provider", fields)
	case GeneralError:
		fields["error"] = out.Cause
		fields["unavailable"] = errors.Is(out.Cause, auth.ErrUnavailable)
		logger.Error("login failed", fields)
	}
}
