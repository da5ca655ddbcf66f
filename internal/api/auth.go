package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"command-bot/backend/internal/models"
	"command-bot/backend/pkg/errors"
	"command-bot/backend/pkg/jwt"
	"command-bot/backend/pkg/logger"
)

// AuthHandler exchanges bridge credentials for tokens
type AuthHandler struct {
	clientID   string
	secretHash string
	jwtService *jwt.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(clientID, secretHash string, jwtService *jwt.Service) *AuthHandler {
	return &AuthHandler{
		clientID:   clientID,
		secretHash: secretHash,
		jwtService: jwtService,
	}
}

// IssueToken checks the client credentials and returns a signed token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	log := logger.FromContext(c)

	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Error binding JSON for token request", "error", err.Error())
		_ = c.Error(errors.NewBadRequestError(errors.CodeInvalidEvent, "Invalid request format"))
		return
	}

	idMatches := subtle.ConstantTimeCompare([]byte(req.ClientID), []byte(h.clientID)) == 1
	if !idMatches || !models.CheckSecret(h.secretHash, req.ClientSecret) {
		log.Warn("Rejected bridge credentials", "client_id", req.ClientID)
		_ = c.Error(errors.NewUnauthorizedError(errors.CodeBadCredentials, "Invalid client id or secret"))
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(req.ClientID)
	if err != nil {
		log.LogError(err, "Failed to sign token")
		_ = c.Error(errors.NewInternalServerError(errors.CodeInternal, "Failed to issue token").Wrap(err))
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}

// RegisterRoutes registers the public auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/auth/token", h.IssueToken)
}
