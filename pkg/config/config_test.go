package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CACHE_MAX_SIZE", "")
	t.Setenv("BOT_PREFIX", "")

	cfg := Load()

	assert.Equal(t, DefaultCacheSize, cfg.Cache.MaxSize)
	assert.Equal(t, "!", cfg.Bot.Prefix)
	assert.Equal(t, "https://riddles-api.vercel.app/random", cfg.Riddle.APIURL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "bot.deletions", cfg.NATS.Subject)
	assert.Equal(t, time.Minute, cfg.Maintenance.Interval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_MAX_SIZE", "25")
	t.Setenv("BOT_OWNER_ID", "owner@s.whatsapp.net")
	t.Setenv("BOT_COMMAND_RATE", "0.5")
	t.Setenv("RIDDLE_TIMEOUT", "3s")
	t.Setenv("AUDIT_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, 25, cfg.Cache.MaxSize)
	assert.Equal(t, "owner@s.whatsapp.net", cfg.Bot.OwnerID)
	assert.Equal(t, 0.5, cfg.Bot.CommandRate)
	assert.Equal(t, 3*time.Second, cfg.Riddle.Timeout)
	assert.True(t, cfg.Database.Enabled)
}

func TestLoadRejectsNonPositiveCacheSize(t *testing.T) {
	t.Setenv("CACHE_MAX_SIZE", "-4")

	assert.Equal(t, DefaultCacheSize, Load().Cache.MaxSize)
}

func TestDSN(t *testing.T) {
	cfg := Load()
	cfg.Database.Host = "db"
	cfg.Database.Name = "audit"
	cfg.Database.Timeout = 5 * time.Second

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "dbname=audit")
	assert.Contains(t, dsn, "connect_timeout=5")
}
