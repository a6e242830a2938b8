// Package config loads service configuration from the environment.
// A local .env file is honored when present so development setups do not
// need to export variables by hand.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service.
type Config struct {
	Server  ServerConfig
	Ninja   NinjaConfig
	Redis   RedisConfig
	Session SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    string
	Timeout time.Duration
}

// NinjaConfig holds the OAuth client identity and upstream endpoints.
type NinjaConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

// RedisConfig holds token store connection settings.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// SessionConfig holds cookie session settings for the authorization flow.
type SessionConfig struct {
	Secret string
}

// Load reads configuration from the environment, applying defaults where a
// variable is unset, and validates required values.
func Load() (Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			Timeout: getDuration("HTTP_TIMEOUT", 30*time.Second),
		},
		Ninja: NinjaConfig{
			ClientID:     os.Getenv("NINJA_CLIENT_ID"),
			ClientSecret: os.Getenv("NINJA_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("NINJA_REDIRECT_URI"),
			Scopes:       strings.Fields(getEnv("NINJA_SCOPES", "monitoring management offline_access")),
			AuthURL:      getEnv("NINJA_AUTH_URL", "https://app.ninjarmm.com/ws/oauth/authorize"),
			TokenURL:     getEnv("NINJA_TOKEN_URL", "https://app.ninjarmm.com/ws/oauth/token"),
			APIBaseURL:   getEnv("NINJA_API_BASE_URL", "https://app.ninjarmm.com"),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        getInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "ninja"),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Ninja.ClientID == "" {
		return fmt.Errorf("NINJA_CLIENT_ID is required")
	}
	if c.Ninja.ClientSecret == "" {
		return fmt.Errorf("NINJA_CLIENT_SECRET is required")
	}
	if c.Ninja.RedirectURI == "" {
		return fmt.Errorf("NINJA_REDIRECT_URI is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
