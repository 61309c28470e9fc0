package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"nexus.yaml",
	"nexus.yml",
}

const (
	// ConfigPathEnvVar names an explicit config file.
	ConfigPathEnvVar = "NEXUS_CONFIG"

	// EnvPrefix scopes environment overrides, e.g. NEXUS_API_URL -> api.url.
	EnvPrefix = "NEXUS_"
)

// Config is the runtime configuration of the client.
type Config struct {
	API     APIConfig     `koanf:"api"`
	Window  WindowConfig  `koanf:"window"`
	Store   StoreConfig   `koanf:"store"`
	Logging LoggingConfig `koanf:"logging"`
	Audio   AudioConfig   `koanf:"audio"`
	Health  HealthConfig  `koanf:"health"`
}

// APIConfig describes the remote recommendation service.
type APIConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	TopK    int           `koanf:"top_k"`
	Model   string        `koanf:"model"`

	// RateLimit is requests per second, Burst the bucket size.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`

	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
}

type WindowConfig struct {
	Width  int    `koanf:"width"`
	Height int    `koanf:"height"`
	Title  string `koanf:"title"`
}

type StoreConfig struct {
	// Path is the badger directory. Empty keeps everything in memory.
	Path string `koanf:"path"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
	// File receives log output instead of stderr when set.
	File string `koanf:"file"`
}

type AudioConfig struct {
	Enabled bool    `koanf:"enabled"`
	Volume  float64 `koanf:"volume"`
}

type HealthConfig struct {
	Interval time.Duration `koanf:"interval"`
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:             "https://nexus-neural-search.onrender.com",
			Timeout:         30 * time.Second, // free-tier hosts cold start slowly
			TopK:            DefaultTopK,
			Model:           DefaultModel,
			RateLimit:       5,
			Burst:           10,
			BreakerTimeout:  30 * time.Second,
			BreakerFailures: 5,
		},
		Window: WindowConfig{
			Width:  WindowWidth,
			Height: WindowHeight,
			Title:  WindowTitle,
		},
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  -2,
		},
		Health: HealthConfig{
			Interval: time.Minute,
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir + string(os.PathSeparator) + "neural-nexus"
}

// Load builds the configuration from defaults, an optional YAML file and
// NEXUS_* environment variables, in increasing priority. An empty path
// falls back to NEXUS_CONFIG and then DefaultConfigPaths.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envSections lists the top-level keys; everything after the first
// underscore belongs to the field name.
var envSections = []string{"api", "window", "store", "logging", "audio", "health"}

// envTransformFunc maps NEXUS_API_RATE_LIMIT to api.rate_limit.
// Unknown sections map to an empty key, which koanf ignores.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	for _, section := range envSections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return ""
}
