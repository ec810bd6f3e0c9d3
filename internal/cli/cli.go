// Package cli is the jstrack command surface built on urfave/cli.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/starford/jstrack/internal"
	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/prompt"
	"github.com/starford/jstrack/internal/registry"
	"github.com/starford/jstrack/internal/tracker"
	pkgconfig "github.com/starford/jstrack/pkg/config"
)

// DefaultConfigFile is read when present; a missing file means defaults.
const DefaultConfigFile = "jstrack.yaml"

var (
	errCancelled   = errors.New("cancelled")
	// errNothingToDo ends a command quietly after it explained why.
	errNothingToDo = errors.New("nothing to do")
)

// CLI runs jstrack commands against one set of streams.
type CLI struct {
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	version string
	workDir string
	appOpts []internal.Option
	prompt  *prompt.Prompter
}

// Option configures a CLI.
type Option func(*CLI)

// WithIO replaces the standard streams.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(c *CLI) {
		c.in = in
		c.out = out
		c.errOut = errOut
	}
}

// WithWorkDir sets the directory used to guess the current project.
func WithWorkDir(dir string) Option {
	return func(c *CLI) { c.workDir = dir }
}

// WithAppOptions adds options to every application the commands open.
func WithAppOptions(opts ...internal.Option) Option {
	return func(c *CLI) { c.appOpts = append(c.appOpts, opts...) }
}

// New creates a CLI reporting version.
func New(version string, opts ...Option) *CLI {
	c := &CLI{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, version: version, workDir: "."}
	for _, opt := range opts {
		opt(c)
	}
	c.prompt = prompt.New(c.in, c.out)
	return c
}

// Run parses args (program name first) and runs the selected command.
func (c *CLI) Run(ctx context.Context, args []string) error {
	return c.Command().Run(ctx, args)
}

// Command builds the root command.
func (c *CLI) Command() *cli.Command {
	return &cli.Command{
		Name:      "jstrack",
		Usage:     "Track which JavaScript topics you have applied in real projects",
		Version:   c.version,
		Reader:    c.in,
		Writer:    c.out,
		ErrWriter: c.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   DefaultConfigFile,
				Sources: cli.EnvVars("JSTRACK_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output to stderr",
			},
		},
		Commands: []*cli.Command{
			c.searchCommand(),
			c.listCommand(),
			c.viewCommand(),
			c.applyCommand(),
			c.unapplyCommand(),
			c.projectCommand(),
			c.statsCommand(),
			c.suggestCommand(),
			c.historyCommand(),
			c.workflowCommand(),
			c.serveCommand(),
			c.mcpCommand(),
		},
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}
	return cfg, nil
}

// openApp wires the application for a one-shot command. Logs go to stderr
// as text so they never mix with command output.
func (c *CLI) openApp(ctx context.Context, cmd *cli.Command) (*internal.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(c.errOut, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithLogger(logger),
		internal.WithVersion(c.version),
	}
	return internal.New(ctx, append(opts, c.appOpts...)...)
}

// withApp opens the app, runs fn and closes the app.
func (c *CLI) withApp(ctx context.Context, cmd *cli.Command, fn func(*internal.App) error) error {
	app, err := c.openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}()
	err = fn(app)
	switch {
	case errors.Is(err, errCancelled):
		c.dim("Cancelled")
		return nil
	case errors.Is(err, errNothingToDo):
		return nil
	}
	return err
}

// Explain turns an error into a single line for the terminal.
func Explain(err error) string {
	switch {
	case errors.Is(err, tracker.ErrProjectNotFound):
		return "Project not found on GitHub. Check the repository name."
	case errors.Is(err, tracker.ErrCommitNotFound):
		return "Commit not found in the project. Check the commit hash."
	case errors.Is(err, registry.ErrArticleNotFound):
		return "Article not found. Use \"jstrack list\" to see all articles."
	case errors.Is(err, registry.ErrSectionNotFound):
		return "Subtopic not found. Use \"jstrack view <id>\" to see its subtopics."
	case errors.Is(err, registry.ErrDuplicateApplication):
		return "This application already exists: a commit can be linked to a subtopic only once."
	case errors.Is(err, tracker.ErrJournalDisabled):
		return "History is disabled. Enable the journal in the config file."
	case errors.Is(err, apperr.ErrUnreadable):
		return "Could not read the knowledge base. Check that the file is valid JSON."
	case errors.Is(err, apperr.ErrStorage):
		return "Could not save the knowledge base."
	case errors.Is(err, apperr.ErrNotFound):
		return "Not found: " + err.Error()
	case errors.Is(err, apperr.ErrInvalid):
		return "Invalid input: " + err.Error()
	default:
		return err.Error()
	}
}
