package app

import (
	"context"
	"fmt"
	"net/http"

	"campus-auth/internal/auth/handler"
	"campus-auth/internal/auth/policy"
	"campus-auth/internal/auth/provider"
	"campus-auth/internal/auth/provider/google"
	"campus-auth/internal/auth/resolver"
	"campus-auth/internal/config"
	"campus-auth/internal/logger"
	"campus-auth/internal/middleware"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	router, err := newRouter(ctx, cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	return router, infra.Close, nil
}

func newRouter(ctx context.Context, cfg config.Config, infra *Infra) (*gin.Engine, error) {
	// ----------------------------
	// Dependencies
	// ----------------------------

	emailPolicy, err := policy.New(policy.Options{
		AllowedDomains:        cfg.AllowedDomains,
		StudentDigitThreshold: cfg.StudentDigitThreshold,
		FoldDomainCase:        cfg.FoldDomainCase,
	})
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	var (
		verifier provider.IdentityVerifier
		oauth    provider.OAuthProvider
	)
	if cfg.OAuthEnabled() {
		googleProvider, err := google.New(ctx, google.Config{
			Issuer:       cfg.GoogleIssuer,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			UserInfoURL:  cfg.GoogleUserInfoURL,
			HTTPClient:   httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("google provider: %w", err)
		}
		verifier, oauth = googleProvider, googleProvider
	} else {
		verifier = google.NewVerifier(httpClient, cfg.GoogleUserInfoURL)
		logger.Info("oauth redirect flow disabled", nil)
	}

	loginResolver := resolver.NewLoginResolver(verifier, infra.Directory, emailPolicy)
	authHandler := handler.NewHandler(oauth, loginResolver)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	for _, route := range router.Routes() {
		logger.Debug("route registered", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}

	return router, nil
}
