package secrets

import (
	"context"
	"errors"

	"command-bot/backend/pkg/config"
	"command-bot/backend/pkg/logger"
)

// Manager provides access to secrets from various sources
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)

	// GetSecretWithDefault retrieves a secret with a default value if not found
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

// Common errors
var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// Apply replaces the secret fields of cfg with values from m. Fields keep
// their environment value when the manager has nothing for them.
func Apply(ctx context.Context, m Manager, cfg *config.Config, log *logger.Logger) {
	fields := []struct {
		key  string
		dest *string
	}{
		{"jwt_secret", &cfg.JWT.Secret},
		{"bridge_secret_hash", &cfg.Bridge.SecretHash},
		{"redis_password", &cfg.Redis.Password},
		{"db_password", &cfg.Database.Password},
	}

	for _, f := range fields {
		value := m.GetSecretWithDefault(ctx, f.key, *f.dest)
		if value != *f.dest && log != nil {
			log.Debug("Secret resolved", "key", f.key)
		}
		*f.dest = value
	}
}
