package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port     string
		GRPCPort string
		Env      string
		Timeout  time.Duration
	}

	// Database configuration, used by the deletion audit log
	Database struct {
		Enabled  bool
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// JWT configuration for bridge authentication
	JWT struct {
		Secret string
		Expiry time.Duration
	}

	// Bridge credentials exchanged for a JWT
	Bridge struct {
		ClientID   string
		SecretHash string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Bot behaviour
	Bot struct {
		Prefix       string
		OwnerID      string
		CommandRate  float64
		CommandBurst int
		AlertChannel string
	}

	// Riddle provider
	Riddle struct {
		APIURL  string
		Timeout time.Duration
		Retries int
	}

	// Redis settings for alert fan-out
	Redis struct {
		URL      string
		Password string
		DB       int
	}

	// NATS settings for alert fan-out
	NATS struct {
		URL     string
		Subject string
	}

	// Vault settings for secrets
	Vault struct {
		Enabled     bool
		Address     string
		Token       string
		Namespace   string
		SecretsPath string
	}

	// Observability settings
	Observability struct {
		TracingEnabled bool
		ServiceName    string
	}

	// Cache settings
	Cache struct {
		MaxSize int
	}

	// Maintenance job settings
	Maintenance struct {
		Interval time.Duration
	}

	// OpenAPI document used to validate inbound events
	OpenAPI struct {
		Enabled bool
	}
}

// DefaultCacheSize is the recency cache bound used when none is configured
const DefaultCacheSize = 100

var (
	instance *Config
	once     sync.Once
)

// New returns the process-wide Config, reading the environment on first use
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		_ = godotenv.Load()
		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load builds a fresh Config from the current environment.
// Tests use it directly to avoid the singleton.
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.GRPCPort = getEnvString("GRPC_PORT", "9094")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

	// Database config
	cfg.Database.Enabled = getEnvBool("AUDIT_ENABLED", false)
	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "command-bot")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

	// JWT config
	cfg.JWT.Secret = getEnvString("JWT_SECRET", "")
	cfg.JWT.Expiry = getEnvDuration("JWT_EXPIRY", 24*time.Hour)

	// Bridge config
	cfg.Bridge.ClientID = getEnvString("BRIDGE_CLIENT_ID", "bridge")
	cfg.Bridge.SecretHash = getEnvString("BRIDGE_SECRET_HASH", "")

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// Bot config
	cfg.Bot.Prefix = getEnvString("BOT_PREFIX", "!")
	cfg.Bot.OwnerID = getEnvString("BOT_OWNER_ID", "")
	cfg.Bot.CommandRate = getEnvFloat("BOT_COMMAND_RATE", 1)
	cfg.Bot.CommandBurst = getEnvInt("BOT_COMMAND_BURST", 5)
	cfg.Bot.AlertChannel = getEnvString("BOT_ALERT_CHANNEL", "bot:deletions")

	// Riddle config
	cfg.Riddle.APIURL = getEnvString("RIDDLE_API_URL", "https://riddles-api.vercel.app/random")
	cfg.Riddle.Timeout = getEnvDuration("RIDDLE_TIMEOUT", 10*time.Second)
	cfg.Riddle.Retries = getEnvInt("RIDDLE_RETRIES", 2)

	// Redis config
	cfg.Redis.URL = getEnvString("REDIS_URL", "")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// NATS config
	cfg.NATS.URL = getEnvString("NATS_URL", "")
	cfg.NATS.Subject = getEnvString("NATS_ALERT_SUBJECT", "bot.deletions")

	// Vault config
	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Namespace = getEnvString("VAULT_NAMESPACE", "")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "command-bot")

	// Observability config
	cfg.Observability.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Observability.ServiceName = getEnvString("SERVICE_NAME", "command-bot")

	// Cache settings
	cfg.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", DefaultCacheSize)
	if cfg.Cache.MaxSize <= 0 {
		cfg.Cache.MaxSize = DefaultCacheSize
	}

	cfg.Maintenance.Interval = getEnvDuration("MAINTENANCE_INTERVAL", time.Minute)

	cfg.OpenAPI.Enabled = getEnvBool("OPENAPI_VALIDATION", true)

	return cfg
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
