package middleware

import (
	stderrors "errors"
	"strings"

	"command-bot/backend/pkg/errors"
	"command-bot/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding validated bridge claims
const ClaimsKey = "claims"

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*jwt.BridgeClaims, error)
}

// BridgeAuth requires a valid bridge token in the Authorization header. The
// token query parameter is accepted too since browsers cannot set headers on
// websocket upgrades.
func BridgeAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			_ = c.Error(errors.NewUnauthorizedError(errors.CodeAuthRequired, "Authentication required"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			msg := "Invalid token"
			if stderrors.Is(err, jwt.ErrExpiredToken) {
				msg = "Token has expired"
			}
			_ = c.Error(errors.NewUnauthorizedError(errors.CodeInvalidToken, msg))
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by BridgeAuth
func ClaimsFromContext(c *gin.Context) (*jwt.BridgeClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.BridgeClaims)
	return claims, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Query("token")
}
