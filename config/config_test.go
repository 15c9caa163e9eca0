package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug log level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info log level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Query         struct {
		KeepUnusedFor string `mapstructure:"keep_unused_for"`
	} `mapstructure:"query"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
name: statekitd
environment: staging
query:
  keep_unused_for: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("statekitd", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "statekitd" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config: %+v", cfg.ServiceConfig)
	}
	if cfg.Query.KeepUnusedFor != "30s" {
		t.Errorf("keep_unused_for = %q", cfg.Query.KeepUnusedFor)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte("name: statekitd\nquery:\n  keep_unused_for: 30s\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUERY_KEEP_UNUSED_FOR", "5s")

	var cfg testConfig
	if err := LoadConfig("statekitd", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Query.KeepUnusedFor != "5s" {
		t.Errorf("env should override file, got %q", cfg.Query.KeepUnusedFor)
	}
}

func TestLoadConfigDefaultsAndMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent", &cfg,
		WithConfigFile("/nonexistent/config.yml"),
		WithEnvFile("/nonexistent/.env"),
		WithDefault("name", "fallback"),
	)
	if err != nil {
		t.Fatalf("expected success with missing files, got %v", err)
	}
	if cfg.Name != "fallback" {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestFindFiles(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/statekitd/config.yml": true,
		"./config/.env":              true,
	}}
	if got := FindConfigFile(fs, "statekitd"); got != "./cmd/statekitd/config.yml" {
		t.Errorf("FindConfigFile = %q", got)
	}
	if got := FindEnvFile(fs, "statekitd"); got != "./config/.env" {
		t.Errorf("FindEnvFile = %q", got)
	}
	if got := FindConfigFile(&mockFS{}, "statekitd"); got != "" {
		t.Errorf("expected no config file, got %q", got)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("QUERY_KEEP_UNUSED_FOR")
	for _, want := range []string{"query_keep_unused_for", "query.keep.unused.for", "query.keep_unused_for"} {
		if !slices.Contains(got, want) {
			t.Errorf("variants %v missing %q", got, want)
		}
	}
	if got := envKeyVariants("DEBUG"); len(got) != 1 || got[0] != "debug" {
		t.Errorf("single part key variants = %v", got)
	}
}
