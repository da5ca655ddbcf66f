package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// DefaultIssuer is stamped on every bridge token
const DefaultIssuer = "command-bot"

// devSecret is used when no secret is configured outside production
const devSecret = "devJwtSecretDoNotUseInProduction"

// BridgeClaims are the claims carried by a bridge token
type BridgeClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// Service issues and validates bridge tokens
type Service struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
}

// NewService creates a new JWT service
func NewService(secretKey string, expiry time.Duration) *Service {
	if secretKey == "" {
		secretKey = devSecret
	}

	if expiry == 0 {
		expiry = 24 * time.Hour // Default to 24 hours
	}

	return &Service{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		now:       time.Now,
	}
}

// GenerateToken signs a token for clientID and returns it with its expiry
func (s *Service) GenerateToken(clientID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)

	claims := &BridgeClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a token and returns its claims
func (s *Service) ValidateToken(tokenString string) (*BridgeClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&BridgeClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secretKey, nil
		},
		jwt.WithIssuer(DefaultIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*BridgeClaims)
	if !ok || !token.Valid || claims.ClientID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
