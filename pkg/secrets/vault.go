package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"command-bot/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
	cache "github.com/patrickmn/go-cache"
)

// VaultConfig holds configuration for Vault client
type VaultConfig struct {
	Enabled     bool
	Address     string
	Token       string
	Namespace   string
	Mount       string
	SecretsPath string
	Timeout     time.Duration
	MaxRetries  int
	CacheTTL    time.Duration
}

// VaultManager reads secrets from a Vault KV v2 engine and falls back to the
// environment
type VaultManager struct {
	client *vault.Client
	config VaultConfig
	cache  *cache.Cache
	log    *logger.Logger
}

// NewVaultManager creates a new Vault manager instance. A disabled config
// yields a manager that only reads the environment.
func NewVaultManager(config VaultConfig, log *logger.Logger) (*VaultManager, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 5 * time.Minute
	}
	if config.Mount == "" {
		config.Mount = "secret"
	}
	if config.SecretsPath == "" {
		config.SecretsPath = "command-bot"
	}

	manager := &VaultManager{
		config: config,
		cache:  cache.New(config.CacheTTL, 2*config.CacheTTL),
		log:    log.WithComponent("secrets"),
	}
	if !config.Enabled {
		return manager, nil
	}

	if config.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if config.Token == "" {
		return nil, ErrNoVaultToken
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = config.Address
	if config.Timeout > 0 {
		vaultConfig.Timeout = config.Timeout
	}
	vaultConfig.MaxRetries = config.MaxRetries

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(config.Token)
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	manager.client = client
	return manager, nil
}

// GetSecret retrieves a secret from Vault, with fallback to environment variable
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	if cached, found := m.cache.Get(key); found {
		return cached.(string), nil
	}

	if m.client == nil {
		return m.getFromEnvironment(key)
	}

	value, err := m.getFromVault(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			m.log.Warn("Secret not found in Vault, falling back to environment", "key", key)
			return m.getFromEnvironment(key)
		}
		return "", err
	}

	m.cache.Set(key, value, cache.DefaultExpiration)
	return value, nil
}

// GetSecretWithDefault retrieves a secret with a default value if not found
func (m *VaultManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrSecretNotFound) {
			m.log.Warn("Failed to get secret, using default value",
				"key", key,
				"error", err.Error(),
			)
		}
		return defaultValue
	}
	return value
}

func (m *VaultManager) getFromVault(ctx context.Context, key string) (string, error) {
	secret, err := m.client.KVv2(m.config.Mount).Get(ctx, m.config.SecretsPath)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", ErrSecretNotFound
		}
		m.log.Error("Failed to read secret from Vault",
			"path", m.config.SecretsPath,
			"error", err.Error(),
		)
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	value, ok := secret.Data[key].(string)
	if !ok || value == "" {
		return "", ErrSecretNotFound
	}

	return value, nil
}

// getFromEnvironment maps keys like "jwt-secret" or "jwt.secret" to JWT_SECRET
func (m *VaultManager) getFromEnvironment(key string) (string, error) {
	envKey := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))

	value := os.Getenv(envKey)
	if value == "" {
		return "", ErrSecretNotFound
	}

	m.cache.Set(key, value, cache.DefaultExpiration)
	return value, nil
}
