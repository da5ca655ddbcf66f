package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"command-bot/backend/pkg/config"
)

func TestEnvironmentFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	m, err := NewVaultManager(VaultConfig{}, nil)
	require.NoError(t, err)

	v, err := m.GetSecret(context.Background(), "jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = m.GetSecret(context.Background(), "missing_key")
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.Equal(t, "fallback", m.GetSecretWithDefault(context.Background(), "missing_key", "fallback"))
}

func TestEnabledRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(VaultConfig{Enabled: true}, nil)
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(VaultConfig{Enabled: true, Address: "http://127.0.0.1:8200"}, nil)
	assert.ErrorIs(t, err, ErrNoVaultToken)
}

func vaultServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/command-bot" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"data": {"jwt_secret": "from-vault"},
				"metadata": {"version": 1, "created_time": "2026-01-01T00:00:00Z", "deletion_time": "", "destroyed": false}
			}
		}`))
	}))
}

func TestVaultLookupAndFallback(t *testing.T) {
	srv := vaultServer(t)
	defer srv.Close()
	t.Setenv("REDIS_PASSWORD", "redis-from-env")

	m, err := NewVaultManager(VaultConfig{Enabled: true, Address: srv.URL, Token: "root"}, nil)
	require.NoError(t, err)

	v, err := m.GetSecret(context.Background(), "jwt_secret")
	require.NoError(t, err)
	assert.Equal(t, "from-vault", v)

	v, err = m.GetSecret(context.Background(), "redis_password")
	require.NoError(t, err)
	assert.Equal(t, "redis-from-env", v)
}

type staticManager map[string]string

func (s staticManager) GetSecret(_ context.Context, key string) (string, error) {
	if v, ok := s[key]; ok {
		return v, nil
	}
	return "", ErrSecretNotFound
}

func (s staticManager) GetSecretWithDefault(ctx context.Context, key, def string) string {
	if v, err := s.GetSecret(ctx, key); err == nil {
		return v
	}
	return def
}

func TestApply(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "env-secret"
	cfg.Database.Password = "env-db"

	Apply(context.Background(), staticManager{"jwt_secret": "vault-secret", "bridge_secret_hash": "$2a$hash"}, cfg, nil)

	assert.Equal(t, "vault-secret", cfg.JWT.Secret)
	assert.Equal(t, "$2a$hash", cfg.Bridge.SecretHash)
	assert.Equal(t, "env-db", cfg.Database.Password)
}
