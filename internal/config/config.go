// Package config loads firewatch configuration from a config file,
// environment variables, and built-in defaults, in that order of
// precedence (highest first: env, file, defaults).
//
// # Sources
//
// The config file is TOML. Without an explicit path the loader looks
// for config.toml in ~/.firewatch and then the working directory; a
// missing file is not an error, the defaults simply apply. Environment
// variables use the FW_ prefix with dots replaced by underscores, so
// endpoint.url becomes FW_ENDPOINT_URL.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := remote.New(remote.Config{URL: cfg.Endpoint.URL})
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dir is the directory under the user's home that holds the config
// file, the cache database, logs, and the daemon inbox.
const Dir = ".firewatch"

// Endpoint configures the remote sheet endpoint.
type Endpoint struct {
	// URL is the deployed web-app endpoint. Required for any command
	// that talks to the network.
	URL string `mapstructure:"url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Cache configures the local snapshot database.
type Cache struct {
	Path   string `mapstructure:"path"`
	Driver string `mapstructure:"driver"`

	// Freshness is how long a snapshot counts as fresh.
	Freshness time.Duration `mapstructure:"freshness"`
}

// Status configures the sync status auto-clear delays.
type Status struct {
	SuccessClear time.Duration `mapstructure:"success_clear"`
	ErrorClear   time.Duration `mapstructure:"error_clear"`
}

// Log configures file logging and rotation.
type Log struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`

	// Verbose mirrors log lines to stderr in addition to the file.
	Verbose bool `mapstructure:"verbose"`
}

// Dashboard configures the live dashboard server.
type Dashboard struct {
	Addr string `mapstructure:"addr"`
}

// Daemon configures the background import daemon.
type Daemon struct {
	Inbox    string        `mapstructure:"inbox"`
	Interval time.Duration `mapstructure:"interval"`
	PIDFile  string        `mapstructure:"pid_file"`
}

// Report configures report generation.
type Report struct {
	// Template is a path to a TOML report template. Empty means the
	// built-in template.
	Template string `mapstructure:"template"`
}

// AI configures optional report summarization.
type AI struct {
	// APIKey enables the --summarize flag on fw report. Empty
	// disables summarization; the ANTHROPIC_API_KEY environment
	// variable also works.
	APIKey string `mapstructure:"api_key"`
}

// UI configures terminal output.
type UI struct {
	// Theme is auto, dark, light, or plain.
	Theme string `mapstructure:"theme"`
}

// Config is the fully resolved firewatch configuration.
type Config struct {
	Endpoint  Endpoint  `mapstructure:"endpoint"`
	Cache     Cache     `mapstructure:"cache"`
	Status    Status    `mapstructure:"status"`
	Log       Log       `mapstructure:"log"`
	Dashboard Dashboard `mapstructure:"dashboard"`
	Daemon    Daemon    `mapstructure:"daemon"`
	Report    Report    `mapstructure:"report"`
	AI        AI        `mapstructure:"ai"`
	UI        UI        `mapstructure:"ui"`

	// File is the config file actually read, empty when only
	// defaults and environment applied.
	File string `mapstructure:"-"`
}

// HomeDir returns the firewatch directory under the user's home,
// falling back to the working directory when home is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return Dir
	}
	return filepath.Join(home, Dir)
}

// Load resolves the configuration. explicit, when non-empty, names a
// config file that must exist; otherwise the standard locations are
// searched and a missing file is fine.
func Load(explicit string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	base := HomeDir()
	setDefaults(v, base)

	v.SetEnvPrefix("FW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", explicit, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(base)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, base string) {
	v.SetDefault("endpoint.url", "")
	v.SetDefault("endpoint.timeout", "15s")

	v.SetDefault("cache.path", filepath.Join(base, "cache.db"))
	v.SetDefault("cache.driver", "sqlite3")
	v.SetDefault("cache.freshness", "5m")

	v.SetDefault("status.success_clear", "2s")
	v.SetDefault("status.error_clear", "5s")

	v.SetDefault("log.file", filepath.Join(base, "firewatch.log"))
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.verbose", false)

	v.SetDefault("dashboard.addr", "127.0.0.1:8337")

	v.SetDefault("daemon.inbox", filepath.Join(base, "inbox"))
	v.SetDefault("daemon.interval", "5m")
	v.SetDefault("daemon.pid_file", filepath.Join(base, "daemon.pid"))

	v.SetDefault("report.template", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ui.theme", "auto")
}

// Validate rejects values that no command could use. The endpoint URL
// may be empty here; commands that need the network check for it.
func (c *Config) Validate() error {
	if c.Endpoint.URL != "" {
		u, err := url.Parse(c.Endpoint.URL)
		if err != nil {
			return fmt.Errorf("invalid endpoint.url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid endpoint.url: scheme must be http or https, got %q", u.Scheme)
		}
	}
	if c.Endpoint.Timeout < 0 {
		return fmt.Errorf("endpoint.timeout must not be negative")
	}
	if c.Cache.Freshness < 0 {
		return fmt.Errorf("cache.freshness must not be negative")
	}
	if c.Daemon.Interval < time.Second {
		return fmt.Errorf("daemon.interval must be at least 1s, got %s", c.Daemon.Interval)
	}
	switch c.UI.Theme {
	case "auto", "dark", "light", "plain":
	default:
		return fmt.Errorf("ui.theme must be auto, dark, light, or plain, got %q", c.UI.Theme)
	}
	return nil
}

// RequireEndpoint returns an error telling the operator how to set
// the endpoint when none is configured.
func (c *Config) RequireEndpoint() error {
	if c.Endpoint.URL == "" {
		return fmt.Errorf("no endpoint configured: set endpoint.url in %s or FW_ENDPOINT_URL", filepath.Join(HomeDir(), "config.toml"))
	}
	return nil
}
