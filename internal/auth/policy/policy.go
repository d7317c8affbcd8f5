// Package policy decides whether a verified email may be provisioned
// a new account, and with which role.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"campus-auth/internal/auth"
)

// DefaultStudentDigitThreshold is the digit count at which an address
// is treated as a student-ID based mailbox.
const DefaultStudentDigitThreshold = 4

// DefaultAllowedDomains are the organizational domains accepted for
// auto-provisioning.
var DefaultAllowedDomains = []string{"fpt.edu.vn", "fe.edu.vn"}

var (
	ErrMalformedEmail = errors.New("email has no @")
	ErrInvalidOptions = errors.New("invalid policy options")
)

// Verdict is the result of evaluating an email.
// Role is only set when Allowed is true.
type Verdict struct {
	Allowed bool
	Role    auth.Role
}

// Options configures an Evaluator.
type Options struct {
	AllowedDomains        []string
	StudentDigitThreshold int
	// FoldDomainCase compares domains case-insensitively. Off by default.
	FoldDomainCase bool
}

// Evaluator is a pure email policy. Safe for concurrent use.
type Evaluator struct {
	domains        map[string]struct{}
	threshold      int
	foldDomainCase bool
}

// New validates opts and builds an Evaluator.
func New(opts Options) (*Evaluator, error) {
	if len(opts.AllowedDomains) == 0 {
		return nil, fmt.Errorf("%w: at least one allowed domain is required", ErrInvalidOptions)
	}
	if opts.StudentDigitThreshold < 1 {
		return nil, fmt.Errorf("%w: student digit threshold must be positive", ErrInvalidOptions)
	}

	domains := make(map[string]struct{}, len(opts.AllowedDomains))
	for _, d := range opts.AllowedDomains {
		d = strings.TrimSpace(d)
		if d == "" || strings.Contains(d, "@") {
			return nil, fmt.Errorf("%w: bad domain %q", ErrInvalidOptions, d)
		}
		if opts.FoldDomainCase {
			d = strings.ToLower(d)
		}
		domains[d] = struct{}{}
	}

	return &Evaluator{
		domains:        domains,
		threshold:      opts.StudentDigitThreshold,
		foldDomainCase: opts.FoldDomainCase,
	}, nil
}

// NewDefault returns the reference policy.
func NewDefault() *Evaluator {
	e, err := New(Options{
		AllowedDomains:        DefaultAllowedDomains,
		StudentDigitThreshold: DefaultStudentDigitThreshold,
	})
	if err != nil {
		panic(err)
	}
	return e
}

// Evaluate checks the domain after the first "@" against the allow-list
// and assigns STUDENT or GUEST from the digit count of the whole address.
func (e *Evaluator) Evaluate(email string) (Verdict, error) {
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return Verdict{}, fmt.Errorf("%w: %q", ErrMalformedEmail, email)
	}

	domain := email[at+1:]
	if e.foldDomainCase {
		domain = strings.ToLower(domain)
	}
	if _, ok := e.domains[domain]; !ok {
		return Verdict{Allowed: false}, nil
	}

	if countDigits(email) >= e.threshold {
		return Verdict{Allowed: true, Role: auth.RoleStudent}, nil
	}
	return Verdict{Allowed: true, Role: auth.RoleGuest}, nil
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
