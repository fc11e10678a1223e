package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "reconciliation-engine", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*time.Second, cfg.Collaborators.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Cache.StatsTTL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RECON_DATABASE_HOST", "db.internal")
	t.Setenv("RECON_APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "9090", cfg.App.Port)
}

func TestValidateRejectsBadPool(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Database.MaxIdleConns = 50 // exceeds MaxOpenConns of 25

	err := cfg.validate()
	assert.Error(t, err)
}

func TestValidateProductionRequiresPassword(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.App.Env = "production"
	cfg.Database.SSLMode = "require"

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestDSNEscapesCredentials(t *testing.T) {
	d := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "recon",
		Password: "p@ss:word/1",
		DBName:   "reconciliation",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "p%40ss%3Aword%2F1")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestRedisAddr(t *testing.T) {
	r := &RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}
