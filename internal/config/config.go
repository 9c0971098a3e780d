package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	ServerPort   string `envconfig:"PORT" default:"8080"`
	DatabaseType string `envconfig:"DATABASE_TYPE" default:"sqlite"`
	DatabasePath string `envconfig:"DB_PATH" default:"./kidsvideohub.db"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`

	// JWTSecret verifies the bearer tokens that carry the caller's account id
	JWTSecret string `envconfig:"JWT_SECRET"`

	// MasterUserID is the account whose folders are published as global
	// playlists. Empty disables global playlists.
	MasterUserID string `envconfig:"GLOBAL_MASTER_USER_ID"`

	RedisURL        string        `envconfig:"REDIS_URL"`
	ResolverTimeout time.Duration `envconfig:"RESOLVER_TIMEOUT" default:"5s"`

	AWSRegion    string `envconfig:"AWS_REGION" default:"us-east-1"`
	SESFromEmail string `envconfig:"SES_FROM_EMAIL"`
	SESFromName  string `envconfig:"SES_FROM_NAME" default:"Kids Video Hub"`
	AppBaseURL   string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`

	PublicRateLimit  int           `envconfig:"PUBLIC_RATE_LIMIT" default:"120"`
	PublicRateWindow time.Duration `envconfig:"PUBLIC_RATE_WINDOW" default:"1m"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
