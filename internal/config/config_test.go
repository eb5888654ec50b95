package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Endpoint.Timeout != 15*time.Second {
		t.Errorf("Endpoint.Timeout = %v, want 15s", cfg.Endpoint.Timeout)
	}
	if cfg.Cache.Driver != "sqlite3" {
		t.Errorf("Cache.Driver = %q, want sqlite3", cfg.Cache.Driver)
	}
	if cfg.Cache.Freshness != 5*time.Minute {
		t.Errorf("Cache.Freshness = %v, want 5m", cfg.Cache.Freshness)
	}
	if cfg.Status.SuccessClear != 2*time.Second || cfg.Status.ErrorClear != 5*time.Second {
		t.Errorf("Status = %+v, want 2s/5s", cfg.Status)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("UI.Theme = %q, want auto", cfg.UI.Theme)
	}
	if !strings.HasSuffix(cfg.Cache.Path, filepath.Join(Dir, "cache.db")) {
		t.Errorf("Cache.Path = %q, want it under %s", cfg.Cache.Path, Dir)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want empty when no config file exists", cfg.File)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[endpoint]
url = "https://script.example.com/exec"
timeout = "30s"

[cache]
driver = "libsql"

[daemon]
interval = "1m"

[ui]
theme = "plain"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) error = %v", path, err)
	}

	if cfg.Endpoint.URL != "https://script.example.com/exec" {
		t.Errorf("Endpoint.URL = %q, want the file value", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.Timeout != 30*time.Second {
		t.Errorf("Endpoint.Timeout = %v, want 30s", cfg.Endpoint.Timeout)
	}
	if cfg.Cache.Driver != "libsql" {
		t.Errorf("Cache.Driver = %q, want libsql", cfg.Cache.Driver)
	}
	if cfg.Daemon.Interval != time.Minute {
		t.Errorf("Daemon.Interval = %v, want 1m", cfg.Daemon.Interval)
	}
	if cfg.UI.Theme != "plain" {
		t.Errorf("UI.Theme = %q, want plain", cfg.UI.Theme)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
	// Keys the file does not set keep their defaults.
	if cfg.Status.SuccessClear != 2*time.Second {
		t.Errorf("Status.SuccessClear = %v, want default 2s", cfg.Status.SuccessClear)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() with missing explicit file: error = nil, want error")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FW_ENDPOINT_URL", "https://env.example.com/exec")
	t.Setenv("FW_UI_THEME", "dark")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Endpoint.URL != "https://env.example.com/exec" {
		t.Errorf("Endpoint.URL = %q, want the env value", cfg.Endpoint.URL)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("UI.Theme = %q, want dark", cfg.UI.Theme)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	base := func(t *testing.T) *Config {
		t.Helper()
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(*Config) {}, false},
		{"https endpoint", func(c *Config) { c.Endpoint.URL = "https://x.example.com" }, false},
		{"ftp endpoint", func(c *Config) { c.Endpoint.URL = "ftp://x.example.com" }, true},
		{"negative freshness", func(c *Config) { c.Cache.Freshness = -time.Second }, true},
		{"sub-second daemon interval", func(c *Config) { c.Daemon.Interval = 100 * time.Millisecond }, true},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireEndpoint(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.RequireEndpoint(); err == nil {
		t.Error("RequireEndpoint() with empty URL: error = nil, want guidance error")
	}

	cfg.Endpoint.URL = "https://script.example.com/exec"
	if err := cfg.RequireEndpoint(); err != nil {
		t.Errorf("RequireEndpoint() error = %v, want nil", err)
	}
}
