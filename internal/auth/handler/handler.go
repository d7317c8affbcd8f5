package handler

import (
	"errors"
	"net/http"

	"campus-auth/internal/auth"
	"campus-auth/internal/auth/provider"
	"campus-auth/internal/auth/resolver"
	"campus-auth/internal/logger"
	"campus-auth/internal/middleware"

	"github.com/gin-gonic/gin"
)

const (
	msgNotAuthorized = "this account is not authorized"
	msgSignInAgain   = "please sign in again"
	msgUnavailable   = "temporarily unavailable, try again later"
)

type Handler struct {
	oauth    provider.OAuthProvider
	resolver resolver.Resolver
}

// NewHandler builds the login handlers. oauth may be nil, in which case
// the browser redirect routes are not registered.
func NewHandler(
	oauth provider.OAuthProvider,
	resolver resolver.Resolver,
) *Handler {
	return &Handler{
		oauth:    oauth,
		resolver: resolver,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/auth/google", h.tokenLogin)

	if h.oauth != nil {
		r.GET("/oauth/login", h.login)
		r.GET("/oauth/callback", h.callback)
	}
}

type tokenLoginRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

func (h *Handler) tokenLogin(c *gin.Context) {
	var req tokenLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	out := h.resolver.Resolve(c.Request.Context(), req.AccessToken)
	renderOutcome(c, out)
}

func (h *Handler) login(c *gin.Context) {
	state, err := generateState(c)
	if err != nil {
		logger.Error("failed to generate oauth state", map[string]any{
			"error":      err,
			"request_id": middleware.RequestID(c),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnavailable})
		return
	}
	_, codeChallenge, err := generatePKCE(c)
	if err != nil {
		logger.Error("failed to generate pkce verifier", map[string]any{
			"error":      err,
			"request_id": middleware.RequestID(c),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnavailable})
		return
	}

	c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(state, codeChallenge))
}

func (h *Handler) callback(c *gin.Context) {
	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid state"})
		return
	}

	// CASE 1: provider returned an error (user cancelled, consent denied)
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oidc callback returned error", map[string]any{
			"provider":   h.oauth.Name(),
			"error":      errParam,
			"desc":       c.Query("error_description"),
			"request_id": middleware.RequestID(c),
		})
		clearFlowCookies(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgSignInAgain})
		return
	}

	// CASE 2: normal callback
	code := c.Query("code")
	if code == "" {
		logger.Error("oidc callback missing code and error", map[string]any{
			"request_id": middleware.RequestID(c),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing pkce verifier"})
		return
	}
	clearFlowCookies(c)

	accessToken, err := h.oauth.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		fields := map[string]any{
			"provider":   h.oauth.Name(),
			"error":      err,
			"request_id": middleware.RequestID(c),
		}
		if errors.Is(err, provider.ErrAuthRejected) {
			logger.Warn("oauth code exchange rejected", fields)
			c.JSON(http.StatusUnauthorized, gin.H{"error": msgSignInAgain})
			return
		}
		logger.Error("oauth code exchange failed", fields)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
		return
	}

	out := h.resolver.Resolve(c.Request.Context(), accessToken)
	renderOutcome(c, out)
}

type accountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
	Role      string `json:"role"`
	Status    string `json:"status"`
}

func newAccountResponse(a auth.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		FullName:  a.FullName,
		AvatarURL: a.AvatarURL,
		Role:      string(a.Role),
		Status:    string(a.Status),
	}
}

// renderOutcome maps each outcome kind to one status code and body.
// Causes are logged by the resolver and never echoed to the client.
func renderOutcome(c *gin.Context, out resolver.Outcome) {
	switch out.Kind {
	case resolver.Success:
		c.JSON(http.StatusOK, gin.H{
			"status":  "authenticated",
			"account": newAccountResponse(out.Account),
		})
	case resolver.NotAllowed:
		c.JSON(http.StatusForbidden, gin.H{"error": msgNotAuthorized})
	case resolver.AuthError:
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgSignInAgain})
	case resolver.GeneralError:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msgUnavailable})
	default:
		logger.Error("unknown login outcome", map[string]any{
			"kind":       int(out.Kind),
			"request_id": middleware.RequestID(c),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgUnavailable})
	}
}
