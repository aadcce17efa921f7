// Package config loads runtime settings from an optional config file, the
// environment and a .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey means no Gemini credential was configured. It is fatal at
// startup.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable is required")

// Config holds every runtime setting.
type Config struct {
	Port int

	APIKey            string
	Model             string
	RelayModel        string
	Temperature       float32
	RequestsPerMinute int
	RequestTimeout    time.Duration

	OutputLanguage string
	SessionTTL     time.Duration

	LogLevel       string
	LogDevelopment bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.relay_model", "gemini-1.5-pro-latest")
	v.SetDefault("gemini.temperature", 0.6)
	v.SetDefault("gemini.requests_per_minute", 30)
	v.SetDefault("gemini.timeout", 60*time.Second)
	v.SetDefault("research.output_language", "Spanish")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads configuration with precedence: environment > config file >
// defaults. A .env file in the working directory is loaded into the
// environment first, without overriding variables that are already set.
// path may be empty.
func Load(path string) (Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NICHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names kept for existing deployments.
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY", "API_KEY")
	_ = v.BindEnv("server.port", "PORT")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:              v.GetInt("server.port"),
		APIKey:            strings.TrimSpace(v.GetString("gemini.api_key")),
		Model:             v.GetString("gemini.model"),
		RelayModel:        v.GetString("gemini.relay_model"),
		Temperature:       float32(v.GetFloat64("gemini.temperature")),
		RequestsPerMinute: v.GetInt("gemini.requests_per_minute"),
		RequestTimeout:    v.GetDuration("gemini.timeout"),
		OutputLanguage:    v.GetString("research.output_language"),
		SessionTTL:        v.GetDuration("session.ttl"),
		LogLevel:          v.GetString("log.level"),
		LogDevelopment:    v.GetBool("log.development"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Model == "" {
		return errors.New("gemini.model must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("gemini.temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("gemini.requests_per_minute must be positive, got %d", c.RequestsPerMinute)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}
