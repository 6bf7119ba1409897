package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables use the
// TASKHUB_ prefix with underscores for nesting (e.g. TASKHUB_DATABASE_URL)
// and take precedence over file values.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TASKHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; env vars alone are a valid setup.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for settings that have a sensible value
// outside production. Secrets and connection URLs deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.service_name", "taskhub-api")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_version", "/api/v1")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.production", false)
	v.SetDefault("auth.token_ttl_seconds", 3600)
	v.SetDefault("cache.ttl_seconds", 60)

	// Viper only unmarshals keys it has seen; binding here keeps the
	// env-only path working without a config file.
	for _, key := range []string{
		"server.service_name", "server.port", "server.api_version",
		"server.log_level", "server.production",
		"database.url", "database.username", "database.password",
		"auth.secret", "auth.token_ttl_seconds",
		"queue.url", "users.url",
		"cache.addr", "cache.ttl_seconds",
	} {
		_ = v.BindEnv(key)
	}
}
