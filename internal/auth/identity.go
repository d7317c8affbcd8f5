package auth

import "strings"

// Identity represents a normalized external authentication identity
// returned by an identity provider. It contains facts only, no decisions.
type Identity struct {
	Provider       string // e.g. "google"
	ProviderUserID string // provider-scoped unique user identifier (sub)
	Email          string // email returned by provider
	EmailVerified  bool   // whether provider asserts email ownership
	Name           string // display name as the provider formats it
	GivenName      string
	FamilyName     string
	Picture        string // avatar URL
}

// FullName assembles the account display name as "family given".
// Falls back to Name when the provider returned neither part.
func (i Identity) FullName() string {
	full := strings.TrimSpace(strings.TrimSpace(i.FamilyName) + " " + strings.TrimSpace(i.GivenName))
	if full == "" {
		return strings.TrimSpace(i.Name)
	}
	return full
}
