// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Config holds every setting the application reads at startup.
type Config struct {
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	Port        string        `mapstructure:"PORT"`
	SecretKey   string        `mapstructure:"SECRET_KEY"`
	BcryptCost  int           `mapstructure:"BCRYPT_COST"`
	RedisURL    string        `mapstructure:"REDIS_URL"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`
	LogFile     string        `mapstructure:"LOG_FILE"`
}

var keys = []string{
	"DATABASE_URL", "PORT", "SECRET_KEY", "BCRYPT_COST",
	"REDIS_URL", "CACHE_TTL", "LOG_LEVEL", "LOG_FILE",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for _, k := range keys {
		// Unmarshal only sees keys viper knows about.
		_ = v.BindEnv(k)
	}

	v.SetDefault("DATABASE_URL", "postgres:///warbler")
	v.SetDefault("PORT", "5000")
	v.SetDefault("SECRET_KEY", "it's a secret")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the application cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	return nil
}
