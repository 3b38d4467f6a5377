package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("test-signing-key"))

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig("localhost:8000", "host=localhost dbname=social", testSecret, []string{"https://app.example.com"}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8000", cfg.ServerAddr)
	assert.Equal(t, "host=localhost dbname=social", cfg.DatabaseDSN)
	assert.Equal(t, []byte("test-signing-key"), cfg.SigningKey)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestNewConfig_Validation(t *testing.T) {
	t.Run("empty server address", func(t *testing.T) {
		_, err := NewConfig("", "dsn", testSecret, nil, time.Hour)
		assert.Error(t, err)
	})

	t.Run("empty dsn", func(t *testing.T) {
		_, err := NewConfig("localhost:8000", "", testSecret, nil, time.Hour)
		assert.Error(t, err)
	})

	t.Run("empty signing secret", func(t *testing.T) {
		_, err := NewConfig("localhost:8000", "dsn", "", nil, time.Hour)
		assert.Error(t, err)
	})

	t.Run("invalid base64 secret", func(t *testing.T) {
		_, err := NewConfig("localhost:8000", "dsn", "not base64!!", nil, time.Hour)
		assert.Error(t, err)
	})

	t.Run("non-positive cleanup interval falls back to hourly", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "dsn", testSecret, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, cfg.CleanupInterval)
	})
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GOSOCIAL_ADDR", "0.0.0.0:9000")
	t.Setenv("GOSOCIAL_DSN", "host=db dbname=social")
	t.Setenv("GOSOCIAL_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("GOSOCIAL_CLEANUP_INTERVAL", "30m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddr)
	assert.Equal(t, "host=db dbname=social", cfg.DatabaseDSN)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.CleanupInterval)
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8000", cfg.ServerAddr)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
