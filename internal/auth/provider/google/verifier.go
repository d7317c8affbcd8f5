package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"campus-auth/internal/auth"
	"campus-auth/internal/auth/provider"

	"golang.org/x/oauth2"
)

// DefaultUserInfoURL is Google's OIDC userinfo endpoint.
const DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

const maxUserInfoBytes = 1 << 20

// Verifier resolves an access token into an identity by calling the
// userinfo endpoint with the token as a bearer credential.
type Verifier struct {
	client      *http.Client
	userInfoURL string
}

// NewVerifier returns a Verifier using client for transport. The
// client's Timeout bounds each verification.
func NewVerifier(client *http.Client, userInfoURL string) *Verifier {
	if client == nil {
		client = http.DefaultClient
	}
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	return &Verifier{client: client, userInfoURL: userInfoURL}
}

// userInfo accepts both the OIDC claim names and the legacy
// oauth2/v2 field names Google still serves.
type userInfo struct {
	Subject       string   `json:"sub"`
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	VerifiedEmail flexBool `json:"verified_email"`
	Name          string   `json:"name"`
	GivenName     string   `json:"given_name"`
	FamilyName    string   `json:"family_name"`
	Picture       string   `json:"picture"`
}

// VerifyAccessToken implements provider.IdentityVerifier.
func (v *Verifier) VerifyAccessToken(ctx context.Context, accessToken string) (*auth.Identity, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("%w: empty access token", provider.ErrAuthRejected)
	}

	if v.client.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.client.Timeout)
		defer cancel()
	}

	client := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, v.client),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build userinfo request: %v", provider.ErrProviderFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request: %w: %w", auth.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: userinfo returned %d", provider.ErrAuthRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: userinfo returned %d", provider.ErrProviderFailure, resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %v", provider.ErrProviderFailure, err)
	}

	subject := info.Subject
	if subject == "" {
		subject = info.ID
	}
	if subject == "" || info.Email == "" {
		return nil, fmt.Errorf("%w: userinfo missing subject or email", provider.ErrProviderFailure)
	}

	return &auth.Identity{
		Provider:       providerName,
		ProviderUserID: subject,
		Email:          info.Email,
		EmailVerified:  bool(info.EmailVerified) || bool(info.VerifiedEmail),
		Name:           info.Name,
		GivenName:      info.GivenName,
		FamilyName:     info.FamilyName,
		Picture:        info.Picture,
	}, nil
}

// flexBool decodes either a JSON boolean or a quoted boolean.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean %s", data)
	}
	*b = flexBool(v)
	return nil
}
