package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ServerAddr      string        `env:"GOSOCIAL_ADDR" envDefault:"localhost:8000"`
	DatabaseDSN     string        `env:"GOSOCIAL_DSN"`
	SigningSecret   string        `env:"GOSOCIAL_SIGNING_KEY"`
	AllowedOrigins  []string      `env:"GOSOCIAL_ALLOWED_ORIGINS" envSeparator:","`
	CleanupInterval time.Duration `env:"GOSOCIAL_CLEANUP_INTERVAL" envDefault:"1h"`
	SigningKey      []byte        `env:"-"`
}

// FromEnv reads the raw, unvalidated configuration from the process
// environment. Flag values layered on top are validated by NewConfig.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string, cleanupInterval time.Duration) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}

	return &Config{
		ServerAddr:      serverAddr,
		DatabaseDSN:     databaseDSN,
		AllowedOrigins:  allowedOrigins,
		CleanupInterval: cleanupInterval,
		SigningKey:      signingKey,
	}, nil
}
