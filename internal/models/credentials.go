package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// TokenRequest is the body a bridge sends to obtain a token
type TokenRequest struct {
	ClientID     string `json:"client_id" binding:"required"`
	ClientSecret string `json:"client_secret" binding:"required"`
}

// TokenResponse carries a signed bridge token
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HashSecret hashes a bridge secret for BRIDGE_SECRET_HASH
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckSecret reports whether secret matches hash
func CheckSecret(hash, secret string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}
