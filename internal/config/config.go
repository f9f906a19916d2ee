package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the service configuration.
type Config struct {
	HTTPAddr       string   `mapstructure:"http_addr"`
	DatabaseURL    string   `mapstructure:"database_url"`
	RedisAddr      string   `mapstructure:"redis_addr"`
	RedisPassword  string   `mapstructure:"redis_password"`
	RedisDB        int      `mapstructure:"redis_db"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
	LogLevel       string   `mapstructure:"log_level"`
	ThresholdsFile string   `mapstructure:"thresholds_file"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
}

var keys = []string{
	"http_addr",
	"database_url",
	"redis_addr",
	"redis_password",
	"redis_db",
	"jwt_secret",
	"log_level",
	"thresholds_file",
	"cors_origins",
}

// Load reads an optional YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("redis_db", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", []string{"*"})

	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	cfg.CORSOrigins = splitOrigins(cfg.CORSOrigins)
	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: http_addr is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: jwt_secret is required")
	}
	if c.RedisDB < 0 {
		return errors.New("config: redis_db must be non-negative")
	}
	return nil
}

// CORS_ORIGINS arrives from the environment as one comma separated value.
func splitOrigins(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
