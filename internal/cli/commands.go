package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/jstrack/internal"
	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/gitsync"
	"github.com/starford/jstrack/internal/guide"
	"github.com/starford/jstrack/internal/journal"
	"github.com/starford/jstrack/internal/progress"
	"github.com/starford/jstrack/internal/search"
	"github.com/starford/jstrack/internal/tracker"
)

const defaultNumber = 5

func (c *CLI) searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search articles",
		ArgsUsage: "<query>",
		Flags:     []cli.Flag{&cli.IntFlag{Name: "number", Aliases: []string{"n"}, Usage: "Number of results", Value: defaultNumber}},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return fmt.Errorf("search: query is required: %w", apperr.ErrInvalid)
			}
			return c.withApp(ctx, cmd, func(app *internal.App) error {
				c.info("Searching %q", query)
				c.blank()
				hits := app.Tracker.Search(ctx, query, int(cmd.Int("number")))
				if len(hits) == 0 {
					c.dim("No results")
					return nil
				}
				for i, h := range hits {
					percent := 0
					if h.Applications > 0 {
						percent = 100
					}
					successColor.Fprintf(c.out, "%d. %s %s\n", i+1, statusIcon(percent), h.Article.Title)
					c.dim("   %s | apps:%d", h.Article.ID, h.Applications)
					var titles []string
					for _, s := range search.MatchingSections(h.Article, query, 2) {
						titles = append(titles, s.Title)
					}
					if len(titles) > 0 {
						infoColor.Fprintf(c.out, "   %s\n", strings.Join(titles, " • "))
					}
					c.blank()
				}
				return nil
			})
		},
	}
}

func (c *CLI) listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List articles with filters",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "unused", Aliases: []string{"u"}, Usage: "Show only articles that are not finished"},
			&cli.StringFlag{Name: "level", Aliases: []string{"l"}, Usage: "Filter by level"},
			&cli.IntFlag{Name: "number", Aliases: []string{"n"}, Usage: "Number of articles to show", Value: defaultNumber},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return c.withApp(ctx, cmd, func(app *internal.App) error {
				filter := tracker.ListFilter{
					Unused: cmd.Bool("unused"),
					Level:  cmd.String("level"),
					Limit:  int(cmd.Int("number")),
				}
				c.title("Articles")
				switch {
				case filter.Unused:
					c.warn("Not finished yet:")
					c.blank()
				case filter.Level != "":
					infoColor.Fprintf(c.out, "%s articles:\n\n", strings.ToUpper(filter.Level))
				}

				res := app.Tracker.List(ctx, filter)
				for _, a := range res.Articles {
					c.line("  %s %s", statusIcon(a.Progress), a.Title)
					c.line("    ID: %s | Progress: %d%%", a.ID, a.Progress)
					c.line("    %s", link(a.URL))
					if len(a.Sections) > 0 {
						c.line("    Subtopics: %d", len(a.Sections))
					}
					c.blank()
				}
				c.accent("Showing %d of %d articles", len(res.Articles), res.Total)
				return nil
			})
		},
	}
}

func (c *CLI) viewCommand() *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "Show an article with its subtopics and applications",
		ArgsUsage: "<articleId>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("view: article id is required: %w", apperr.ErrInvalid)
			}
			return c.withApp(ctx, cmd, func(app *internal.App) error {
				a, err := app.Tracker.Article(ctx, id)
				if err != nil {
					return err
				}
				headingColor.Fprintf(c.out, "\n%s\n", a.Title)
				c.dim("ID: %s | Level: %s", a.ID, a.Level)
				c.line("%s", link(a.URL))
				if a.Description != "" {
					c.line("%s", a.Description)
				}
				c.line("Progress: %s", progressLine(progress.Calculate(a)))

				if len(a.Sections) > 0 {
					c.blank()
					c.info("Subtopics:")
					for i, s := range a.Sections {
						c.line("  %s %s", sectionIcon(s), s.Title)
						c.line("    ID: %s", s.ID)
						c.line("    %s", link(s.URL))
						if s.Applied() {
							c.line("    Applications: %d", len(s.Applications))
							for j, rec := range s.Applications {
								c.line("      %d. %s - %s (%s)", j+1, rec.Project, rec.Commit, formatDate(rec))
							}
						}
						if i < len(a.Sections)-1 {
							c.blank()
						}
					}
				}
				if len(a.Applications) > 0 {
					c.blank()
					c.info("Earlier applications:")
					for j, rec := range a.Applications {
						c.line("  %d. %s - %s", j+1, rec.Project, rec.Commit)
					}
				}

				c.blank()
				c.accent("Commands:")
				c.dim("  jstrack apply %s --section <id> --commit <hash>", a.ID)
				c.dim("  jstrack unapply --article %s --commit <hash>", a.ID)
				return nil
			})
		},
	}
}

func (c *CLI) projectCommand() *cli.Command {
	return &cli.Command{
		Name:      "project",
		Usage:     "Show articles applied in a project",
		ArgsUsage: "[name]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				name = gitsync.CurrentProject(ctx, c.workDir)
			}
			return c.withApp(ctx, cmd, func(app *internal.App) error {
				c.title("Articles in project %q:", name)
				articles := app.Tracker.ProjectArticles(ctx, name)
				if len(articles) == 0 {
					c.warn("  No applied articles in project %q", name)
					c.dim("  Use \"jstrack apply --project %s\" to add some", name)
					return nil
				}
				for _, pa := range articles {
					successColor.Fprintf(c.out, "• %s\n", pa.Article.Title)
					c.line("  ID: %s", warnColor.Sprint(pa.Article.ID))
					c.line("  %s", link(pa.Article.URL))
					c.line("  Level: %s", pa.Article.Level)
					for i, u := range pa.Usages {
						sub := ""
						if u.SectionTitle != "" {
							sub = " (subtopic: " + u.SectionTitle + ")"
						}
						c.line("  %d. Commit: %s%s", i+1, dimColor.Sprint(u.Commit), sub)
					}
					c.line("  Total applications: %s", accentColor.Sprint(len(pa.Usages)))
					c.blank()
				}
				c.accent("Total: %s", plural(len(articles), "article"))
				return nil
			})
		},
	}
}

func (c *CLI) statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show learning statistics",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return c.withApp(ctx, cmd, func(app *internal.App) error {
				s := app.Tracker.Stats(ctx)
				c.title("Learning statistics")
				c.line("%s Completed:   %d/%d", statusIcon(100), s.Completed, s.Total)
				c.line("%s In progress: %d/%d", statusIcon(50), s.InProgress, s.Total)
				c.line("%s Not started: %d/%d", statusIcon(0), s.NotStarted, s.Total)
				c.blank()
				c.info("Total applications: %d", s.Applications)
				c.accent("Overall progress: %d%%", s.Overall)
				c.dim("   %s", progressLine(s.Overall))
				c.blank()
				switch {
				case s.Completed > 0:
					c.success("Great progress! Keep going.")
				case s.InProgress > 0:
					c.warn("You are on the right track. Keep learning JavaScript!")
				default:
					c.info("Start your JavaScript journey. Pick a first article: jstrack list")
				}
				return nil
			})
		},
	}
}

func (c *CLI) suggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Suggest articles to study for a feature",
		ArgsUsage: "<feature>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			feature := strings.Join(cmd.Args().Slice(), " ")
			if strings.TrimSpace(feature) == "" {
				return fmt.Errorf("suggest: feature is required: %w", apperr.ErrInvalid)
			}
			return c.withApp(ctx, cmd, func(app *internal.App) error {
				plan := app.Tracker.Suggest(ctx, feature)
				c.title("Suggestions for %q", feature)
				if plan.Empty() {
					c.warn("No matching articles left to study")
					return nil
				}
				if plan.Detailed {
					c.info("Plan: %s", plan.Title)
					c.blank()
					for i, step := range plan.Steps {
						successColor.Fprintf(c.out, "%d. %s\n", i+1, step.Description)
						if len(step.Articles) == 0 {
							c.dim("   nothing left to study for this step")
						}
						for _, a := range step.Articles {
							c.line("   • %s (%s)", a.Title, a.ID)
							c.line("     %s", link(a.URL))
						}
						c.blank()
					}
				} else {
					c.info("Recommended articles:")
					c.blank()
					for i, a := range plan.Articles {
						successColor.Fprintf(c.out, "%d. %s\n", i+1, a.Title)
						c.dim("   ID: %s | Level: %s", a.ID, a.Level)
						c.line("   %s", link(a.URL))
						for j, s := range a.Sections {
							if j == 3 {
								break
							}
							c.dim("      • %s", s.Title)
						}
						c.blank()
					}
				}
				c.accent("Next:")
				c.dim("   1. Study the suggested articles")
				c.dim("   2. Build them into your project")
				c.dim("   3. Record progress: jstrack apply <id> --section <id> --commit <hash>")
				return nil
			})
		},
	}
}

func (c *CLI) historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent apply and unapply operations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Only this project"},
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Full-text search over the journal"},
			&cli.IntFlag{Name: "number", Aliases: []string{"n"}, Usage: "Number of events to show", Value: 10},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return c.withApp(ctx, cmd, func(app *internal.App) error {
				limit := int(cmd.Int("number"))
				var (
					events []journal.Event
					err    error
				)
				if q := cmd.String("query"); q != "" {
					events, err = app.Tracker.SearchHistory(ctx, q, limit)
				} else {
					events, err = app.Tracker.History(ctx, cmd.String("project"), limit)
				}
				if err != nil {
					return err
				}
				c.title("History")
				if len(events) == 0 {
					c.dim("No operations recorded yet")
					return nil
				}
				for _, e := range events {
					kind := successColor.Sprint("+ apply  ")
					if e.Kind == journal.KindUnapply {
						kind = errorColor.Sprint("- unapply")
					}
					c.line("%s %s %s", dimColor.Sprint(e.CreatedAt.Local().Format("2006-01-02 15:04")), kind, e.Message)
					c.dim("    %s --section %s | %s @ %s", e.ArticleID, e.SectionID, e.Project, e.Commit)
				}
				return nil
			})
		},
	}
}

func (c *CLI) workflowCommand() *cli.Command {
	return &cli.Command{
		Name:  "workflow",
		Usage: "Show the usage guide",
		Action: func(context.Context, *cli.Command) error {
			c.title("Usage guide")
			for i, sec := range guide.Workflow {
				if i > 0 {
					c.blank()
				}
				c.success("%s:", sec.Title)
				for _, e := range sec.Entries {
					if e.Summary == "" {
						c.dim("  %s", e.Command)
						continue
					}
					c.line("  %-32s - %s", e.Command, e.Summary)
				}
			}
			return nil
		},
	}
}

func (c *CLI) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read-only HTTP API and change feed",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			level := min(cfg.App.LogLevel, slog.LevelInfo)
			logger := slog.New(slog.NewJSONHandler(c.out, &slog.HandlerOptions{Level: level}))
			opts := []internal.Option{
				internal.WithConfig(cfg),
				internal.WithLogger(logger),
				internal.WithVersion(c.version),
			}
			if err := internal.Run(ctx, append(opts, c.appOpts...)...); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func (c *CLI) mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(c.errOut, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
			opts := []internal.Option{
				internal.WithConfig(cfg),
				internal.WithLogger(logger),
				internal.WithVersion(c.version),
			}
			err = internal.RunMCP(ctx, append(opts, c.appOpts...)...)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp: %w", err)
			}
			return nil
		},
	}
}
