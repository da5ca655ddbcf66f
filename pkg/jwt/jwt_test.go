package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, expiresAt, err := svc.GenerateToken("bridge")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bridge", claims.ClientID)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	token, _, err := NewService("one", time.Hour).GenerateToken("bridge")
	require.NoError(t, err)

	_, err = NewService("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	svc := NewService("test-secret", time.Minute)
	past := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return past }

	token, _, err := svc.GenerateToken("bridge")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateGarbage(t *testing.T) {
	_, err := NewService("", 0).ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
