package resolver

import "campus-auth/internal/auth"

// OutcomeKind is the closed set of login results.
type OutcomeKind int

const (
	// Success carries the found or newly provisioned account.
	Success OutcomeKind = iota + 1
	// NotAllowed: the verified email is outside the allowed domains and
	// no account exists for it.
	NotAllowed
	// AuthError: the provider rejected the token. The user should sign in again.
	AuthError
	// GeneralError: a provider or directory fault. The user may retry later.
	GeneralError
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case NotAllowed:
		return "not_allowed"
	case AuthError:
		return "auth_error"
	case GeneralError:
		return "general_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one Resolve call. Account is set only for
// Success. Cause holds the collaborator error behind a failure and is
// meant for logging, not for display.
type Outcome struct {
	Kind    OutcomeKind
	Account auth.Account
	Cause   error
}

func successOutcome(acc auth.Account) Outcome {
	return Outcome{Kind: Success, Account: acc}
}

func failureOutcome(kind OutcomeKind, cause error) Outcome {
	return Outcome{Kind: kind, Cause: cause}
}
