// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv unsets every override for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"INSIGHTS_API_BASE_URL", "INSIGHTS_TOKEN", "INSIGHTS_TOKEN_COMMAND",
		"INSIGHTS_USER_ID", "INSIGHTS_WATCH_DIR", "INSIGHTS_LOG_LEVEL", "INSIGHTS_THEME",
	} {
		t.Setenv(k, "")
	}
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Timeout().Seconds() != 60 {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	if cfg.PollInterval() != 0 {
		t.Error("polling should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, "", false},
		{"https url", func(c *Config) { c.API.BaseURL = "https://insights.example.com" }, "", false},
		{"url without scheme", func(c *Config) { c.API.BaseURL = "localhost:8000" }, "api.base_url", true},
		{"ftp url", func(c *Config) { c.API.BaseURL = "ftp://host" }, "api.base_url", true},
		{"negative timeout", func(c *Config) { c.API.TimeoutSecs = -1 }, "api.timeout_secs", true},
		{"negative poll", func(c *Config) { c.Sync.PollIntervalSecs = -5 }, "sync.poll_interval_secs", true},
		{"invalid theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme", true},
		{"tiny wrap", func(c *Config) { c.UI.WordWrap = 5 }, "ui.word_wrap", true},
		{"no wrap", func(c *Config) { c.UI.WordWrap = 0 }, "", false},
		{"invalid level", func(c *Config) { c.Log.Level = "trace" }, "log.level", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) || len(verrs) != 1 || verrs[0].Field != tt.field {
				t.Errorf("errors = %v, want one for %s", err, tt.field)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != Default().API.BaseURL {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
}

func TestLoad_FileFillsAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[api]
base_url = "https://insights.example.com/"

[auth]
token_command = "az account get-access-token"

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("INSIGHTS_THEME", "dark")
	t.Setenv("INSIGHTS_USER_ID", "alice")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://insights.example.com" {
		t.Errorf("BaseURL = %q, trailing slash should be trimmed", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSecs != 60 || cfg.Auth.TokenTTLSecs != 300 {
		t.Errorf("missing values not filled: %+v %+v", cfg.API, cfg.Auth)
	}
	if cfg.UI.Theme != "dark" || cfg.Auth.UserID != "alice" {
		t.Errorf("env overrides not applied: theme=%q user=%q", cfg.UI.Theme, cfg.Auth.UserID)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if os.PathSeparator == '/' && info.Mode().Perm() != 0600 {
		t.Errorf("config permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "ui.theme") {
		t.Errorf("expected ui.theme error, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	os.WriteFile(envFile, []byte("INSIGHTS_USER_ID=from-dotenv\nINSIGHTS_THEME=light\n"), 0600)
	t.Setenv("INSIGHTS_THEME", "dark")
	os.Unsetenv("INSIGHTS_USER_ID")

	if err := LoadDotEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("INSIGHTS_USER_ID"); got != "from-dotenv" {
		t.Errorf("INSIGHTS_USER_ID = %q", got)
	}
	if got := os.Getenv("INSIGHTS_THEME"); got != "dark" {
		t.Errorf(".env must not replace a set variable, got %q", got)
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := Default()
	cfg.Upload.WatchDir = "/scans"
	cfg.Sync.PollIntervalSecs = 30

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Upload.WatchDir != "/scans" || loaded.Sync.PollIntervalSecs != 30 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("api.base_url")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != "http://localhost:8000" {
		t.Errorf("Get('api.base_url') = %v", val)
	}

	if err := cfg.Set("sync.poll_interval_secs", "15"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.Sync.PollIntervalSecs != 15 {
		t.Errorf("PollIntervalSecs = %d", cfg.Sync.PollIntervalSecs)
	}
	if err := cfg.Set("auth.token_ttl_secs", "abc"); err == nil {
		t.Error("Set() with non-integer should fail")
	}

	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q): %v", key, err)
		}
	}
	if _, err := cfg.Get("invalid.key"); err == nil {
		t.Error("Get() with invalid key should return error")
	}
	if _, err := cfg.Get("api"); err == nil {
		t.Error("Get() of a section should return error")
	}
}

func TestConfig_StringRedactsToken(t *testing.T) {
	cfg := Default()
	cfg.Auth.Token = "eyJsecret"
	s := cfg.String()
	if strings.Contains(s, "eyJsecret") || !strings.Contains(s, "[REDACTED]") {
		t.Errorf("token not redacted: %s", s)
	}
	if cfg.Auth.Token != "eyJsecret" {
		t.Error("String() modified the original")
	}
}
