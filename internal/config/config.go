package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// TTLs holds the per-route cache lifetimes.
type TTLs struct {
	Bootstrap time.Duration
	Fixtures  time.Duration
	Player    time.Duration
	Live      time.Duration
	Entry     time.Duration
}

// DefaultTTLs returns the stock per-route lifetimes. Live data turns over
// during matches, so it gets the shortest window.
func DefaultTTLs() TTLs {
	return TTLs{
		Bootstrap: 300 * time.Second,
		Fixtures:  600 * time.Second,
		Player:    600 * time.Second,
		Live:      60 * time.Second,
		Entry:     300 * time.Second,
	}
}

// Config holds application configuration loaded from environment
// variables, optionally layered with a YAML file.
type Config struct {
	Port     int        // listen port, PORT env
	LogLevel slog.Level // FPLPROXY_LOG_LEVEL env
	TTLs     TTLs       // per-route cache lifetimes
}

// fileConfig is the YAML file structure. Zero values mean "not set".
type fileConfig struct {
	Port            int    `yaml:"port"`
	LogLevel        string `yaml:"log_level"`
	CacheTTLSeconds struct {
		Bootstrap int `yaml:"bootstrap"`
		Fixtures  int `yaml:"fixtures"`
		Player    int `yaml:"player"`
		Live      int `yaml:"live"`
		Entry     int `yaml:"entry"`
	} `yaml:"cache_ttl_seconds"`
}

// Load builds the config from environment variables, then applies the
// YAML file named by FPLPROXY_CONFIG if it exists.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     3001,
		LogLevel: parseLogLevel(envOr("FPLPROXY_LOG_LEVEL", "info")),
		TTLs:     DefaultTTLs(),
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if path := os.Getenv("FPLPROXY_CONFIG"); path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := applyFile(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port %d out of range", cfg.Port)
	}
	return cfg, nil
}

// applyFile reads and parses a YAML config file and overlays any set
// values onto cfg.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return apply(cfg, data)
}

func apply(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}

	for _, o := range []struct {
		name    string
		seconds int
		dst     *time.Duration
	}{
		{"bootstrap", fc.CacheTTLSeconds.Bootstrap, &cfg.TTLs.Bootstrap},
		{"fixtures", fc.CacheTTLSeconds.Fixtures, &cfg.TTLs.Fixtures},
		{"player", fc.CacheTTLSeconds.Player, &cfg.TTLs.Player},
		{"live", fc.CacheTTLSeconds.Live, &cfg.TTLs.Live},
		{"entry", fc.CacheTTLSeconds.Entry, &cfg.TTLs.Entry},
	} {
		if o.seconds < 0 {
			return fmt.Errorf("cache_ttl_seconds.%s must not be negative", o.name)
		}
		if o.seconds > 0 {
			*o.dst = time.Duration(o.seconds) * time.Second
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
