package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "MDEyMzQ1Njc4OWFiY2RlZg==" // 16 bytes

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DEV_CARD_ENCRYPTION_KEY", testKey)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 10*time.Second, cfg.Database.TxTimeout)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, time.Hour, cfg.JWT.CleanupInterval)
	assert.Equal(t, 5, cfg.App.MaxSessionsPerUser)
	assert.Len(t, cfg.Card.IV, 16)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, "bankcards.events", cfg.RabbitMQ.Exchange)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 20, cfg.RateLimit.AuthMax)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_CARD_ENCRYPTION_KEY", testKey)
	t.Setenv("PROD_JWT_ACCESS_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_ACCESS_EXPIRATION", "900000")
	t.Setenv("JWT_CLEANUP_INTERVAL", "30m")
	t.Setenv("APP_MAX_SESSIONS_PER_USER", "3")
	t.Setenv("CARD_ENCRYPTION_IV", "ZmVkY2JhOTg3NjU0MzIxMA==")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "s3cret", cfg.JWT.AccessSecret)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 30*time.Minute, cfg.JWT.CleanupInterval)
	assert.Equal(t, 3, cfg.App.MaxSessionsPerUser)
	assert.Equal(t, []byte("fedcba9876543210"), cfg.Card.IV)
}

func TestLoad_SetsGlobal(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DEV_CARD_ENCRYPTION_KEY", testKey)
	t.Cleanup(func() { Global = nil })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, Global)
	assert.Equal(t, 5, Global.App.MaxSessionsPerUser)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad mode", env: map[string]string{"APP_MODE": "staging"}},
		{name: "missing key", env: map[string]string{"APP_MODE": "dev"}},
		{name: "short key", env: map[string]string{"DEV_CARD_ENCRYPTION_KEY": "c2hvcnQ="}},
		{name: "bad iv", env: map[string]string{"DEV_CARD_ENCRYPTION_KEY": testKey, "CARD_ENCRYPTION_IV": "c2hvcnQ="}},
		{name: "bad driver", env: map[string]string{"DEV_CARD_ENCRYPTION_KEY": testKey, "DB_DRIVER": "oracle"}},
		{name: "bad duration", env: map[string]string{"DEV_CARD_ENCRYPTION_KEY": testKey, "JWT_REFRESH_EXPIRATION": "soon"}},
		{name: "zero sessions", env: map[string]string{"DEV_CARD_ENCRYPTION_KEY": testKey, "APP_MAX_SESSIONS_PER_USER": "0"}},
		{name: "prod without secret", env: map[string]string{"APP_MODE": "prod", "PROD_CARD_ENCRYPTION_KEY": testKey}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_MODE", "dev")
			t.Setenv("DEV_CARD_ENCRYPTION_KEY", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
