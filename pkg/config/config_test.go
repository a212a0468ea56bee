package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate runs the test in an empty directory with no config variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for env := range envKeys {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	t.Setenv(PathEnvVar, "")
	os.Unsetenv(PathEnvVar)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("TM_KEY", "k")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ticketmaster.APIKey != "k" {
		t.Errorf("api key = %q", cfg.Ticketmaster.APIKey)
	}
	if cfg.Server.Addr != ":4000" || cfg.Pipeline.Workers != 5 || cfg.Pipeline.RunTimeout != 90*time.Second {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Cache.AttractionTTL != time.Hour || cfg.Database.Path != "concertscout.db" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Spotify.Enabled() {
		t.Error("spotify should be disabled without credentials")
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	yaml := "ticketmaster:\n  api_key: from-file\npipeline:\n  workers: 3\n  top_artists: 7\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(PathEnvVar, path)
	t.Setenv("PIPELINE_WORKERS", "8")
	t.Setenv("PIPELINE_RUN_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ticketmaster.APIKey != "from-file" || cfg.Pipeline.TopArtists != 7 || cfg.Log.Level != "debug" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Pipeline.Workers != 8 {
		t.Errorf("environment should override file, workers=%d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.RunTimeout != 45*time.Second {
		t.Errorf("run timeout = %v", cfg.Pipeline.RunTimeout)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TM_KEY=from-dotenv\nLOG_FORMAT=json\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("TM_KEY")
		os.Unsetenv("LOG_FORMAT")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Ticketmaster.APIKey != "from-dotenv" || cfg.Log.Format != "json" {
		t.Errorf("dotenv values not applied: %+v", cfg)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	t.Setenv("TM_KEY", "k")
	t.Setenv(PathEnvVar, "does-not-exist.yaml")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.Workers = 50
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pipeline.Workers != MaxWorkers {
		t.Errorf("workers not clamped: %d", cfg.Pipeline.Workers)
	}
	cfg.Pipeline.Workers = 0
	_ = cfg.Validate()
	if cfg.Pipeline.Workers != MinWorkers {
		t.Errorf("workers not clamped: %d", cfg.Pipeline.Workers)
	}

	cfg.Pipeline.TopArtists = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for top_artists < 1")
	}

	cfg = Default()
	cfg.Pipeline.MaxRelated = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for max_related < 1")
	}

	cfg = Default()
	cfg.Spotify.ClientID = "id"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for half-configured spotify credentials")
	}
}

func TestRequireTicketmaster(t *testing.T) {
	cfg := Default()
	if err := cfg.RequireTicketmaster(); err == nil || !strings.Contains(err.Error(), "TM_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	cfg.Ticketmaster.APIKey = "k"
	if err := cfg.RequireTicketmaster(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadWithoutAPIKey(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_PATH", "history.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("history commands must load without TM_KEY: %v", err)
	}
	if cfg.Database.Path != "history.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
}
