// Package config loads the application configuration. Values are layered:
// built-in defaults, then an optional YAML file, then environment variables,
// with later layers taking precedence. A .env file in the working directory is
// loaded into the environment first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "CONFIG_PATH"

// DefaultPath is the config file read when PathEnvVar is unset.
const DefaultPath = "concertscout.yaml"

// Worker pool bounds.
const (
	MinWorkers = 1
	MaxWorkers = 10
)

// Config is the complete application configuration.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Spotify      SpotifyConfig      `koanf:"spotify"`
	Ticketmaster TicketmasterConfig `koanf:"ticketmaster"`
	Pipeline     PipelineConfig     `koanf:"pipeline"`
	Cache        CacheConfig        `koanf:"cache"`
	Database     DatabaseConfig     `koanf:"database"`
	Log          LogConfig          `koanf:"log"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// SpotifyConfig holds client credentials. Without them playlist input and
// related-artist discovery are unavailable.
type SpotifyConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
}

// Enabled reports whether both credentials are set.
func (s SpotifyConfig) Enabled() bool { return s.ClientID != "" && s.ClientSecret != "" }

type TicketmasterConfig struct {
	APIKey        string        `koanf:"api_key"`
	BaseURL       string        `koanf:"base_url"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
}

type PipelineConfig struct {
	TopArtists int           `koanf:"top_artists"`
	Workers    int           `koanf:"workers"`
	MaxRelated int           `koanf:"max_related"`
	RunTimeout time.Duration `koanf:"run_timeout"`
}

type CacheConfig struct {
	AttractionSize int           `koanf:"attraction_size"`
	AttractionTTL  time.Duration `koanf:"attraction_ttl"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":4000"},
		Ticketmaster: TicketmasterConfig{
			BaseURL:       "https://app.ticketmaster.com/discovery/v2",
			Timeout:       30 * time.Second,
			RatePerSecond: 5,
		},
		Pipeline: PipelineConfig{
			TopArtists: 5,
			Workers:    5,
			MaxRelated: 10,
			RunTimeout: 90 * time.Second,
		},
		Cache: CacheConfig{
			AttractionSize: 512,
			AttractionTTL:  time.Hour,
		},
		Database: DatabaseConfig{Path: "concertscout.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// envKeys maps the supported environment variables to config paths. Other
// variables are ignored.
var envKeys = map[string]string{
	"LISTEN_ADDR":           "server.addr",
	"SPOTIFY_CLIENT_ID":     "spotify.client_id",
	"SPOTIFY_CLIENT_SECRET": "spotify.client_secret",
	"TM_KEY":                "ticketmaster.api_key",
	"TICKETMASTER_BASE_URL": "ticketmaster.base_url",
	"TICKETMASTER_TIMEOUT":  "ticketmaster.timeout",
	"TICKETMASTER_RATE":     "ticketmaster.rate_per_second",
	"PIPELINE_TOP_ARTISTS":  "pipeline.top_artists",
	"PIPELINE_WORKERS":      "pipeline.workers",
	"PIPELINE_MAX_RELATED":  "pipeline.max_related",
	"PIPELINE_RUN_TIMEOUT":  "pipeline.run_timeout",
	"ATTRACTION_CACHE_SIZE": "cache.attraction_size",
	"ATTRACTION_CACHE_TTL":  "cache.attraction_ttl",
	"DATABASE_PATH":         "database.path",
	"LOG_LEVEL":             "log.level",
	"LOG_FORMAT":            "log.format",
}

func envKey(s string) string {
	return envKeys[strings.ToUpper(s)]
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path, explicit := os.Getenv(PathEnvVar), true
	if path == "" {
		path, explicit = DefaultPath, false
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values every command depends on and clamps the
// tunables into range. Credentials needed only to run the pipeline are
// checked by RequireTicketmaster.
func (c *Config) Validate() error {
	c.Pipeline.Workers = min(max(c.Pipeline.Workers, MinWorkers), MaxWorkers)
	if c.Pipeline.TopArtists < 1 {
		return fmt.Errorf("pipeline.top_artists must be at least 1, got %d", c.Pipeline.TopArtists)
	}
	if c.Pipeline.MaxRelated < 1 {
		return fmt.Errorf("pipeline.max_related must be at least 1, got %d", c.Pipeline.MaxRelated)
	}
	if c.Pipeline.RunTimeout < 0 {
		return fmt.Errorf("pipeline.run_timeout must not be negative, got %v", c.Pipeline.RunTimeout)
	}
	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		return errors.New("spotify client id and secret must be set together")
	}
	return nil
}

// RequireTicketmaster reports an error when the event vendor cannot be
// reached for lack of an API key.
func (c *Config) RequireTicketmaster() error {
	if c.Ticketmaster.APIKey == "" {
		return errors.New("ticketmaster api key is required (TM_KEY)")
	}
	return nil
}
