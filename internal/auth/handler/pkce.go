package handler

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"campus-auth/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	pkceCookieName = "__oauth_pkce"
	pkceTTL        = 5 * time.Minute
)

func generatePKCE(c *gin.Context) (verifier string, challenge string, err error) {
	verifier, err = utils.RandomString(32)
	if err != nil {
		return "", "", err
	}

	challenge = pkceChallenge(verifier)
	setFlowCookie(c, pkceCookieName, verifier, pkceTTL)

	return verifier, challenge, nil
}

// pkceChallenge is the S256 transform of verifier.
func pkceChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func getPKCEVerifier(c *gin.Context) string {
	cookie, err := c.Request.Cookie(pkceCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
