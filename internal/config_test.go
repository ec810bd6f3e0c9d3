package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/jstrack/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil || !cfg.AuthEnabled() {
		t.Fatalf("token mode with token: err=%v enabled=%v", err, cfg.AuthEnabled())
	}
	cfg.Token = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("empty token err = %v", err)
	}
	if err := (&AuthConfig{Mode: "magic"}).Validate(); err == nil {
		t.Error("invalid mode should fail validation")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Data.Path() != filepath.Join(".js-knowledge-data", "knowledge-base.json") {
		t.Errorf("data path = %q", cfg.Data.Path())
	}
	if cfg.App.LogLevel != slog.LevelWarn {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
}

func TestDataConfig_Files(t *testing.T) {
	c := DataConfig{File: "kb.json", BackupFiles: []string{"", "kb.json", "old.json"}}
	got := c.Files()
	if len(got) != 2 || got[0] != "kb.json" || got[1] != "old.json" {
		t.Errorf("Files = %v", got)
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.App.HTTP.Port = 70000 }},
		{"data dir", func(c *Config) { c.Data.Dir = "" }},
		{"api url", func(c *Config) { c.GitHub.APIURL = "ftp://example" }},
		{"github user", func(c *Config) { c.GitHub.User = "" }},
		{"timeout", func(c *Config) { c.GitHub.Timeout = -time.Second }},
		{"journal path", func(c *Config) { c.Journal.Path = "" }},
		{"auth", func(c *Config) { c.Auth.Mode = AuthModeToken }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := NewDefaultConfig()
	cfg.Journal = JournalConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled journal without path should pass: %v", err)
	}
}

func TestLoadYAMLOverDefaults(t *testing.T) {
	t.Setenv("JSTRACK_TEST_TOKEN", "ghp_test")
	p := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  log_level: debug
  http:
    port: 9090
data:
  dir: /tmp/kb
  backup_files: [knowledge-base.old.json]
github:
  token: ${JSTRACK_TEST_TOKEN}
  timeout: 5s
  validate: false
journal:
  enabled: false
`
	if err := os.WriteFile(p, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := config.LoadIfExists(p, cfg); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9090 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Data.Dir != "/tmp/kb" || cfg.Data.File != "knowledge-base.json" || len(cfg.Data.Files()) != 2 {
		t.Errorf("data = %+v", cfg.Data)
	}
	if cfg.GitHub.Token != "ghp_test" || cfg.GitHub.Timeout != 5*time.Second || cfg.GitHub.User != DefaultUser {
		t.Errorf("github = %+v", cfg.GitHub)
	}
	if cfg.GitHub.Check {
		t.Error("github validate: false should turn commit checks off")
	}
	if !NewDefaultConfig().GitHub.Check {
		t.Error("commit checks should be on by default")
	}
	if cfg.Journal.Enabled {
		t.Error("journal should be disabled")
	}
}
