package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"campus-auth/internal/auth"
	"campus-auth/internal/auth/provider"
	"campus-auth/internal/logger"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	providerName = "google"

	// DefaultIssuer is Google's OIDC issuer used for discovery.
	DefaultIssuer = "https://accounts.google.com"
)

// Config holds the OAuth client settings for the redirect flow.
type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// UserInfoURL overrides the endpoint found by discovery.
	UserInfoURL string
	HTTPClient  *http.Client
}

// Provider implements the Google authorization-code flow and, through the
// embedded Verifier, access token verification.
type Provider struct {
	*Verifier

	oauthConfig *oauth2.Config
	idTokens    *oidc.IDTokenVerifier
	client      *http.Client
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	oidcProvider, err := oidc.NewProvider(oidc.ClientContext(ctx, client), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = oidcProvider.UserInfoEndpoint()
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes: []string{
			oidc.ScopeOpenID,
			"profile",
			"email",
		},
	}

	return &Provider{
		Verifier:    NewVerifier(client, userInfoURL),
		oauthConfig: oauthCfg,
		idTokens:    oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		client:      client,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode trades the authorization code for tokens, checks the
// id_token, and returns the access token for identity verification.
func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (string, error) {
	ctx = oidc.ClientContext(ctx, p.client)

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return "", classifyExchangeError(err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", fmt.Errorf("%w: google did not return id_token", provider.ErrProviderFailure)
	}

	idToken, err := p.idTokens.Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("%w: google id_token verification failed: %v", provider.ErrAuthRejected, err)
	}

	logger.Info("google oidc verified", map[string]any{
		"issuer":          idToken.Issuer,
		"subject_present": idToken.Subject != "",
		"audience":        idToken.Audience,
		"expiry_unix":     idToken.Expiry.Unix(),
	})

	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: google did not return access_token", provider.ErrProviderFailure)
	}
	return token.AccessToken, nil
}

// classifyExchangeError maps token endpoint failures: a refused grant or
// client is a rejection, other HTTP statuses are provider failures, and
// transport faults are unavailability.
func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: google token exchange failed: %v", provider.ErrAuthRejected, err)
		default:
			return fmt.Errorf("%w: google token exchange returned %d: %v", provider.ErrProviderFailure, status, err)
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("google token exchange failed: %w: %w", auth.ErrUnavailable, err)
	}

	// malformed token response, e.g. missing access_token
	return fmt.Errorf("%w: google token exchange failed: %v", provider.ErrProviderFailure, err)
}
