// Package config loads the relay's runtime configuration from the
// environment. A .env file, when present, is folded in before processing.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	DatabaseDSN string `envconfig:"DATABASE_DSN" required:"true"`
	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass   string `envconfig:"REDIS_PASSWORD"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// UploadDir is where attachment uploads land; PublicBaseURL is the
	// externally reachable base used to build their download URLs.
	UploadDir     string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
}

func Load() (Config, error) {
	// Missing .env is fine: production sets real environment variables.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
