// Package config loads the dashboard's settings from command-line flags,
// the environment, and an optional YAML config file, in that order of
// precedence. Durations accept Go syntax ("45s", "2m") or bare seconds
// ("30"). Invalid values fall back to documented defaults and are reported
// through Config.Warnings instead of failing startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roeyazroel/linear-dash/internal/linearapi"
)

// LinearAPIKeyEnv is the environment variable holding the API key. It wins
// over the config file, matching how most deployments inject the secret.
const LinearAPIKeyEnv = "LINEAR_API_KEY"

// EnvPrefix is the prefix for all other environment overrides, e.g.
// LINEAR_DASH_REFRESH_INTERVAL.
const EnvPrefix = "LINEAR_DASH"

// Defaults applied when a key is absent or invalid.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultRefreshInterval = 30 * time.Second
	DefaultBackoffBase     = 5 * time.Second
	DefaultBackoffCap      = 2 * time.Minute
	DefaultLogLevel        = "warning"
	DefaultTheme           = "dark"
)

// ErrMissingAPIKey is returned when no credential is configured anywhere.
var ErrMissingAPIKey = errors.New("missing Linear API key")

// Config holds everything the dashboard needs to start.
type Config struct {
	LinearAPIKey    string
	APIEndpoint     string
	Timeout         time.Duration
	RefreshInterval time.Duration
	BackoffBase     time.Duration
	BackoffCap      time.Duration
	PageSize        int
	DefaultTeamID   string
	Theme           string
	LogLevel        string
	LogFile         string

	// Warnings lists non-fatal problems found while loading, for the
	// caller to log once the logger is up.
	Warnings []string
}

// LoadOptions alter where Load looks for settings.
type LoadOptions struct {
	// ConfigFile overrides the default config file path
	// (~/.config/linear-dash/config.yaml).
	ConfigFile string
	// Flags, when non-nil, is bound so explicitly set flags win over the
	// environment and the file.
	Flags *pflag.FlagSet
}

// Load resolves the full configuration. A missing config file is seeded
// with defaults; a missing API key is an error.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	v.SetDefault("endpoint", linearapi.DefaultEndpoint)
	v.SetDefault("timeout", "30s")
	v.SetDefault("refresh_interval", "30s")
	v.SetDefault("backoff_base", "5s")
	v.SetDefault("backoff_cap", "2m")
	v.SetDefault("page_size", linearapi.DefaultPageSize)
	v.SetDefault("default_team_id", "")
	v.SetDefault("theme", DefaultTheme)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// The key is also read from the unprefixed variable the Linear CLI
	// ecosystem already uses.
	_ = v.BindEnv("apikey", LinearAPIKeyEnv, EnvPrefix+"_APIKEY")

	if opts.Flags != nil {
		bindFlag(v, opts.Flags, "apikey", "apikey")
		bindFlag(v, opts.Flags, "endpoint", "endpoint")
		bindFlag(v, opts.Flags, "refresh_interval", "refresh")
		bindFlag(v, opts.Flags, "theme", "theme")
		bindFlag(v, opts.Flags, "log_level", "log-level")
		bindFlag(v, opts.Flags, "log_file", "log-file")
	}

	var warnings []string
	if err := readConfigFile(v, opts.ConfigFile, &warnings); err != nil {
		return nil, err
	}

	cfg := &Config{
		LinearAPIKey:  strings.TrimSpace(v.GetString("apikey")),
		APIEndpoint:   v.GetString("endpoint"),
		PageSize:      v.GetInt("page_size"),
		DefaultTeamID: v.GetString("default_team_id"),
		Theme:         v.GetString("theme"),
		LogLevel:      v.GetString("log_level"),
		LogFile:       v.GetString("log_file"),
		Warnings:      warnings,
	}

	cfg.Timeout = cfg.duration(v, "timeout", DefaultTimeout)
	cfg.RefreshInterval = cfg.duration(v, "refresh_interval", DefaultRefreshInterval)
	cfg.BackoffBase = cfg.duration(v, "backoff_base", DefaultBackoffBase)
	cfg.BackoffCap = cfg.duration(v, "backoff_cap", DefaultBackoffCap)

	if cfg.BackoffCap < cfg.BackoffBase {
		cfg.warn("backoff_cap %s is below backoff_base %s, raising it", cfg.BackoffCap, cfg.BackoffBase)
		cfg.BackoffCap = cfg.BackoffBase
	}
	if cfg.PageSize <= 0 {
		cfg.warn("invalid page_size %d, using %d", cfg.PageSize, linearapi.DefaultPageSize)
		cfg.PageSize = linearapi.DefaultPageSize
	}
	switch cfg.Theme {
	case "dark", "light":
	default:
		cfg.warn("unknown theme %q, using %q", cfg.Theme, DefaultTheme)
		cfg.Theme = DefaultTheme
	}

	if cfg.LinearAPIKey == "" {
		return nil, fmt.Errorf("%w: set %s, pass --apikey, or add apikey to %s",
			ErrMissingAPIKey, LinearAPIKeyEnv, "~/.config/linear-dash/config.yaml")
	}

	return cfg, nil
}

func bindFlag(v *viper.Viper, flags *pflag.FlagSet, key, name string) {
	if f := flags.Lookup(name); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

// readConfigFile loads the YAML file into v. A missing file is seeded with
// a commented template; any other read problem is fatal so a broken file
// cannot silently run on defaults.
func readConfigFile(v *viper.Viper, explicit string, warnings *[]string) error {
	path := explicit
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			*warnings = append(*warnings, fmt.Sprintf("no home directory, skipping config file: %v", err))
			return nil
		}
		path = filepath.Join(home, ".config", "linear-dash", "config.yaml")
	}

	switch _, err := os.Stat(path); {
	case err == nil:
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		if werr := writeDefaultConfig(path); werr != nil {
			*warnings = append(*warnings, fmt.Sprintf("could not write default config to %s: %v", path, werr))
		}
		return nil
	default:
		return fmt.Errorf("stat config file %s: %w", path, err)
	}
}

// writeDefaultConfig seeds a config file so the operator has something to
// edit. Mode 0600 since the file may end up holding the API key.
func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	content := fmt.Sprintf(`# linear-dash configuration.
# The API key can also come from the %s environment variable,
# which takes precedence over this file.
#apikey: lin_api_...

# Durations accept Go syntax ("45s", "2m") or bare seconds ("30").
refresh_interval: "30s"
timeout: "30s"

# Selected automatically at startup when present in your workspace.
#default_team_id: ""

theme: %s
log_level: %s
#log_file: ~/.local/state/linear-dash/linear-dash.log
`, LinearAPIKeyEnv, DefaultTheme, DefaultLogLevel)
	return os.WriteFile(path, []byte(content), 0o600)
}

func (c *Config) warn(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// duration reads a duration key, falling back when it fails to parse or is
// not positive.
func (c *Config) duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := parseInterval(raw)
	if err != nil {
		c.warn("invalid %s %q, using %s", key, raw, fallback)
		return fallback
	}
	if d <= 0 {
		c.warn("%s must be positive, got %q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

// parseInterval reads a duration written either as a Go duration string
// ("45s", "2m") or as a bare number of seconds ("30").
func parseInterval(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, errors.New("empty duration")
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	return d, nil
}
