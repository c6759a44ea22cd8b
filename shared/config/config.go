// Package config loads service configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Redis holds the optional Redis settings shared by the services. An empty
// Addr disables caching and event streaming.
type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// JWT holds the token settings shared by the issuer and the verifiers.
type JWT struct {
	Secret string        `envconfig:"JWT_SECRET" required:"true"`
	Issuer string        `envconfig:"JWT_ISSUER" default:"eaglebank"`
	Expiry time.Duration `envconfig:"JWT_EXPIRY" default:"15m"`
}

// Load reads the given .env files (or ./.env when none are given) and decodes
// the environment into cfg, which must be a pointer to a struct.
func Load(cfg any, envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("No .env file loaded, relying on process environment")
	}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Mask hides most of a secret for logging.
func Mask(value string) string {
	if len(value) <= 6 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-4:]
}
