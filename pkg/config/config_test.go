package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (s *sample) Validate() error {
	s.valid = true
	if s.Port < 0 {
		return errors.New("port must not be negative")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "jstrack")
	p := writeFile(t, "name: ${SAMPLE_NAME}\nport: 9000\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "jstrack" || s.Port != 9000 || !s.valid {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeFile(t, "port: -1\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadIfExists_MissingKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 1}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "missing.yaml"), &s); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if s.Name != "default" || !s.valid {
		t.Errorf("got %+v", s)
	}
	if err := LoadIfExists("", &s); err != nil {
		t.Errorf("empty name: %v", err)
	}
}

func TestLoadIfExists_OverridesDefaults(t *testing.T) {
	p := writeFile(t, "port: 7000\n")
	s := sample{Name: "default", Port: 1}
	if err := LoadIfExists(p, &s); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if s.Name != "default" || s.Port != 7000 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv("SAMPLE_SET", "from-env")
	t.Setenv("SAMPLE_EMPTY", "")
	p := writeFile(t, "name: ${SAMPLE_EMPTY:-fallback}-${SAMPLE_SET:-unused}\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "fallback-from-env" {
		t.Errorf("name = %q", s.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var s sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not exist", err)
	}
}
