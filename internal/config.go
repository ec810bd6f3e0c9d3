package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/jstrack/internal/github"
	"github.com/starford/jstrack/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

const (
	DefaultDataDir = ".js-knowledge-data"
	DefaultRemote  = "https://github.com/ione-chebkn/js-knowledge-data"
	DefaultUser    = "ione-chebkn"
)

var httpURL = regexp.MustCompile(`^https?://`)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Data    DataConfig        `yaml:"data"`
	GitHub  GitHubConfig      `yaml:"github"`
	Journal JournalConfig     `yaml:"journal"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Data.Validate(); err != nil {
		return err
	}
	if err := c.GitHub.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig locates the knowledge base and its git remote.
type DataConfig struct {
	Dir         string   `yaml:"dir"`
	File        string   `yaml:"file"`
	BackupFiles []string `yaml:"backup_files"`
	Remote      string   `yaml:"remote"`
	Sync        bool     `yaml:"sync"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.File, validation.Required),
	)
}

// Files returns the candidate document files, primary first.
func (c *DataConfig) Files() []string {
	files := []string{c.File}
	for _, f := range c.BackupFiles {
		if f != "" && f != c.File {
			files = append(files, f)
		}
	}
	return files
}

// Path returns the primary document path.
func (c *DataConfig) Path() string {
	return filepath.Join(c.Dir, c.File)
}

// GitHubConfig configures project and commit validation.
type GitHubConfig struct {
	APIURL   string        `yaml:"api_url"`
	WebURL   string        `yaml:"web_url"`
	User     string        `yaml:"user"`
	Token    string        `yaml:"token"`
	Check    bool          `yaml:"validate"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the GitHub configuration.
func (c *GitHubConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required, validation.Match(httpURL)),
		validation.Field(&c.WebURL, validation.Required, validation.Match(httpURL)),
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// Client returns the client config for package github.
func (c *GitHubConfig) Client() github.Config {
	return github.Config{
		APIURL:  c.APIURL,
		WebURL:  c.WebURL,
		User:    c.User,
		Token:   c.Token,
		Timeout: c.Timeout,
	}
}

// JournalConfig configures the SQLite activity journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelWarn,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Data: DataConfig{
			Dir:    DefaultDataDir,
			File:   storage.DefaultFile,
			Remote: DefaultRemote,
			Sync:   true,
		},
		GitHub: GitHubConfig{
			APIURL:   github.DefaultAPIURL,
			WebURL:   github.DefaultWebURL,
			User:     DefaultUser,
			Check:    true,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    defaultJournalPath(),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

func defaultJournalPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".jstrack", "journal.db")
	}
	return filepath.Join(dir, "jstrack", "journal.db")
}
