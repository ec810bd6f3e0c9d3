// Package config loads YAML configuration files with environment variable
// expansion.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that check themselves
// after loading.
type Validator interface {
	Validate() error
}

// Load decodes filename into target and validates the result.
//
// References of the form $VAR or ${VAR} are replaced from the environment
// before decoding; ${VAR:-fallback} uses fallback when VAR is unset or
// empty.
func Load[T any](filename string, target *T) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", filename, err)
	}
	if err := yaml.Unmarshal([]byte(os.Expand(string(raw), lookupEnv)), target); err != nil {
		return fmt.Errorf("config: parse %s: %w", filename, err)
	}
	return validate(target)
}

// LoadIfExists is Load for an optional file: an empty name or a missing
// file leaves target as it is and only validates it.
func LoadIfExists[T any](filename string, target *T) error {
	if filename == "" {
		return validate(target)
	}
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return validate(target)
	}
	return Load(filename, target)
}

func lookupEnv(ref string) string {
	name, fallback, hasFallback := strings.Cut(ref, ":-")
	if v := os.Getenv(name); v != "" || !hasFallback {
		return v
	}
	return fallback
}

func validate[T any](target *T) error {
	v, ok := any(target).(Validator)
	if !ok {
		return nil
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}
