package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/roeyazroel/linear-dash/internal/linearapi"
)

// configPath returns a path for a config file inside a fresh temp dir.
func configPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
}

// TestDefaults verifies every knob falls back to its documented default and
// a missing config file is seeded.
func TestDefaults(t *testing.T) {
	t.Setenv(LinearAPIKeyEnv, "lin_api_test")
	path := configPath(t)

	cfg, err := Load(LoadOptions{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIEndpoint != linearapi.DefaultEndpoint {
		t.Errorf("APIEndpoint = %q, want %q", cfg.APIEndpoint, linearapi.DefaultEndpoint)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, DefaultRefreshInterval)
	}
	if cfg.BackoffBase != DefaultBackoffBase || cfg.BackoffCap != DefaultBackoffCap {
		t.Errorf("backoff = %v/%v, want %v/%v", cfg.BackoffBase, cfg.BackoffCap, DefaultBackoffBase, DefaultBackoffCap)
	}
	if cfg.PageSize != linearapi.DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", cfg.PageSize, linearapi.DefaultPageSize)
	}
	if cfg.Theme != "dark" || cfg.LogLevel != "warning" || cfg.LogFile != "" {
		t.Errorf("Theme/LogLevel/LogFile = %q/%q/%q, want dark/warning/empty", cfg.Theme, cfg.LogLevel, cfg.LogFile)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", cfg.Warnings)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not seeded: %v", err)
	}
}

// TestSeededFileLoadsBack verifies the template written on first run parses
// cleanly on the second.
func TestSeededFileLoadsBack(t *testing.T) {
	t.Setenv(LinearAPIKeyEnv, "lin_api_test")
	path := configPath(t)

	if _, err := Load(LoadOptions{ConfigFile: path}); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	cfg, err := Load(LoadOptions{ConfigFile: path})
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("RefreshInterval from seeded file = %v, want %v", cfg.RefreshInterval, DefaultRefreshInterval)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", cfg.Warnings)
	}
}

// TestMissingAPIKey verifies startup refuses to run without a credential.
func TestMissingAPIKey(t *testing.T) {
	t.Setenv(LinearAPIKeyEnv, "")
	t.Setenv(EnvPrefix+"_APIKEY", "")

	_, err := Load(LoadOptions{ConfigFile: configPath(t)})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Load() error = %v, want ErrMissingAPIKey", err)
	}
	if !strings.Contains(err.Error(), LinearAPIKeyEnv) {
		t.Errorf("error %q does not tell the operator about %s", err, LinearAPIKeyEnv)
	}
}

// TestFileValues verifies the YAML file is honored, including bare-second
// durations the original config format used.
func TestFileValues(t *testing.T) {
	t.Setenv(LinearAPIKeyEnv, "")
	t.Setenv(EnvPrefix+"_APIKEY", "")
	path := configPath(t)
	writeConfig(t, path, `
apikey: lin_api_from_file
refresh_interval: 45
timeout: "10s"
default_team_id: team-2
theme: light
page_size: 100
log_level: debug
`)

	cfg, err := Load(LoadOptions{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LinearAPIKey != "lin_api_from_file" {
		t.Errorf("LinearAPIKey = %q, want lin_api_from_file", cfg.LinearAPIKey)
	}
	if cfg.RefreshInterval != 45*time.Second {
		t.Errorf("RefreshInterval = %v, want 45s", cfg.RefreshInterval)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
	}
	if cfg.DefaultTeamID != "team-2" {
		t.Errorf("DefaultTeamID = %q, want team-2", cfg.DefaultTeamID)
	}
	if cfg.Theme != "light" {
		t.Errorf("Theme = %q, want light", cfg.Theme)
	}
	if cfg.PageSize != 100 {
		t.Errorf("PageSize = %d, want 100", cfg.PageSize)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", cfg.Warnings)
	}
}

// TestEnvOverridesFile verifies environment variables beat the file.
func TestEnvOverridesFile(t *testing.T) {
	path := configPath(t)
	writeConfig(t, path, `
apikey: lin_api_from_file
theme: light
`)
	t.Setenv(LinearAPIKeyEnv, "lin_api_from_env")
	t.Setenv(EnvPrefix+"_THEME", "dark")

	cfg, err := Load(LoadOptions{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LinearAPIKey != "lin_api_from_env" {
		t.Errorf("LinearAPIKey = %q, want the environment value", cfg.LinearAPIKey)
	}
	if cfg.Theme != "dark" {
		t.Errorf("Theme = %q, want dark from environment", cfg.Theme)
	}
}

// TestFlagOverridesEnv verifies an explicitly set flag beats everything,
// while a flag left at its default does not.
func TestFlagOverridesEnv(t *testing.T) {
	t.Setenv(LinearAPIKeyEnv, "lin_api_from_env")
	t.Setenv(EnvPrefix+"_REFRESH_INTERVAL", "60s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("apikey", "", "")
	flags.String("refresh", "", "")
	if err := flags.Set("apikey", "lin_api_from_flag"); err != nil {
		t.Fatal(err)
	}
	if err := flags.Set("refresh", "90s"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(LoadOptions{ConfigFile: configPath(t), Flags: flags})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LinearAPIKey != "lin_api_from_flag" {
		t.Errorf("LinearAPIKey = %q, want the flag value", cfg.LinearAPIKey)
	}
	if cfg.RefreshInterval != 90*time.Second {
		t.Errorf("RefreshInterval = %v, want 90s from flag", cfg.RefreshInterval)
	}

	// Same flags defined but never set: the environment wins again.
	unset := pflag.NewFlagSet("test", pflag.ContinueOnError)
	unset.String("apikey", "", "")
	unset.String("refresh", "", "")

	cfg, err = Load(LoadOptions{ConfigFile: configPath(t), Flags: unset})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LinearAPIKey != "lin_api_from_env" {
		t.Errorf("LinearAPIKey = %q, want the environment value", cfg.LinearAPIKey)
	}
	if cfg.RefreshInterval != 60*time.Second {
		t.Errorf("RefreshInterval = %v, want 60s from environment", cfg.RefreshInterval)
	}
}

// TestInvalidDurationsFallBack verifies bad durations keep their defaults
// and surface warnings instead of failing startup.
func TestInvalidDurationsFallBack(t *testing.T) {
	t.Setenv(LinearAPIKeyEnv, "lin_api_test")
	path := configPath(t)
	writeConfig(t, path, `
refresh_interval: soon
timeout: "-5s"
`)

	cfg, err := Load(LoadOptions{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want default %v", cfg.RefreshInterval, DefaultRefreshInterval)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want default %v", cfg.Timeout, DefaultTimeout)
	}
	if len(cfg.Warnings) != 2 {
		t.Fatalf("Warnings = %v, want 2 entries", cfg.Warnings)
	}
	joined := strings.Join(cfg.Warnings, "; ")
	if !strings.Contains(joined, "refresh_interval") || !strings.Contains(joined, "timeout") {
		t.Errorf("Warnings = %v, want both bad keys named", cfg.Warnings)
	}
}

// TestBackoffCapRaisedToBase verifies an inverted backoff range is fixed
// up rather than honored.
func TestBackoffCapRaisedToBase(t *testing.T) {
	t.Setenv(LinearAPIKeyEnv, "lin_api_test")
	path := configPath(t)
	writeConfig(t, path, `
backoff_base: "30s"
backoff_cap: "10s"
`)

	cfg, err := Load(LoadOptions{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BackoffBase != 30*time.Second || cfg.BackoffCap != 30*time.Second {
		t.Errorf("backoff = %v/%v, want 30s/30s", cfg.BackoffBase, cfg.BackoffCap)
	}
	if len(cfg.Warnings) != 1 {
		t.Errorf("Warnings = %v, want 1 entry", cfg.Warnings)
	}
}

// TestUnknownThemeFallsBack verifies a typo in theme cannot break startup.
func TestUnknownThemeFallsBack(t *testing.T) {
	t.Setenv(LinearAPIKeyEnv, "lin_api_test")
	t.Setenv(EnvPrefix+"_THEME", "solarized")

	cfg, err := Load(LoadOptions{ConfigFile: configPath(t)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Theme != DefaultTheme {
		t.Errorf("Theme = %q, want %q", cfg.Theme, DefaultTheme)
	}
	if len(cfg.Warnings) != 1 {
		t.Errorf("Warnings = %v, want 1 entry", cfg.Warnings)
	}
}

// TestBrokenFileFails verifies a malformed file is an error rather than a
// silent fall-through to defaults.
func TestBrokenFileFails(t *testing.T) {
	t.Setenv(LinearAPIKeyEnv, "lin_api_test")
	path := configPath(t)
	writeConfig(t, path, "theme: [unclosed\n")

	_, err := Load(LoadOptions{ConfigFile: path})
	if err == nil {
		t.Fatal("Load() = nil error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "read config file") {
		t.Errorf("error = %v, want it to mention the config file", err)
	}
}

// TestParseInterval covers the two accepted duration spellings.
func TestParseInterval(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "30", want: 30 * time.Second},
		{raw: "45s", want: 45 * time.Second},
		{raw: "2m", want: 2 * time.Minute},
		{raw: "1h30m", want: 90 * time.Minute},
		{raw: "0", want: 0},
		{raw: "", wantErr: true},
		{raw: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseInterval(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseInterval(%q) = %v, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseInterval(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("parseInterval(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
