package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/jstrack/internal"
	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/progress"
	"github.com/starford/jstrack/internal/registry"
	"github.com/starford/jstrack/internal/tracker"
)

const allApplications = "all applications"

func (c *CLI) unapplyCommand() *cli.Command {
	return &cli.Command{
		Name:  "unapply",
		Usage: "Remove commits linked to subtopics",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "commit", Usage: "Commit hash to remove"},
			&cli.StringFlag{Name: "article", Aliases: []string{"a"}, Usage: "Only this article"},
			&cli.StringFlag{Name: "section", Aliases: []string{"s"}, Usage: "Only this subtopic"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			crit := registry.Criteria{
				Commit:  cmd.String("commit"),
				Article: cmd.String("article"),
				Section: cmd.String("section"),
			}
			yes := cmd.Bool("yes")
			return c.withApp(ctx, cmd, func(app *internal.App) error {
				c.title("Remove applications")
				sess, err := app.Tracker.Open(ctx)
				if err != nil {
					return err
				}
				if crit.Commit == "" && crit.Article == "" {
					return c.interactiveUnapply(ctx, sess, yes)
				}
				return c.directUnapply(ctx, sess, crit, yes)
			})
		},
	}
}

func (c *CLI) interactiveUnapply(ctx context.Context, sess *tracker.Session, yes bool) error {
	apps := sess.Applications()
	if len(apps) == 0 {
		c.warn("No applications to remove")
		return nil
	}

	c.info("Found %s", plural(len(apps), "application"))
	c.blank()
	for i, u := range apps {
		c.usageLines(i+1, u)
		c.blank()
	}

	choice, err := c.prompt.Ask(fmt.Sprintf("Choose an application to remove (1-%d) or \"all\": ", len(apps)))
	if err != nil {
		return err
	}

	var (
		targets []registry.Usage
		label   string
	)
	if strings.EqualFold(choice, "all") {
		c.fail("You are about to remove ALL applications!")
		targets, label = apps, allApplications
	} else if i := pickIndex(choice, len(apps)); i >= 0 {
		sel := apps[i]
		c.warn("Removing:")
		c.dim("   Subtopic: %s", sel.SectionTitle)
		c.dim("   Commit: %s", sel.Commit)
		targets, label = []registry.Usage{sel}, sel.SectionTitle
	} else {
		return fmt.Errorf("unapply: invalid choice %q: %w", choice, apperr.ErrInvalid)
	}

	if err := c.confirm(yes, "Continue? (y/N) "); err != nil {
		return err
	}
	return c.removeTargets(ctx, sess, targets, label)
}

func (c *CLI) directUnapply(ctx context.Context, sess *tracker.Session, crit registry.Criteria, yes bool) error {
	if crit.Commit == "" {
		return fmt.Errorf("unapply: --commit is required to remove directly: %w", apperr.ErrInvalid)
	}

	apps := sess.FindApplications(crit)
	if len(apps) == 0 {
		c.warn("No applications found")
		c.dim("Criteria:")
		c.dim("   Commit: %s", crit.Commit)
		if crit.Article != "" {
			c.dim("   Article: %s", crit.Article)
		}
		if crit.Section != "" {
			c.dim("   Subtopic: %s", crit.Section)
		}
		return nil
	}

	c.info("Found %s", plural(len(apps), "application"))
	c.blank()
	for i, u := range apps {
		c.usageLines(i+1, u)
		c.blank()
	}

	if err := c.confirm(yes, fmt.Sprintf("Remove %s? (y/N) ", plural(len(apps), "application"))); err != nil {
		return err
	}
	return c.removeTargets(ctx, sess, apps, "")
}

func (c *CLI) confirm(yes bool, question string) error {
	if yes {
		return nil
	}
	ok, err := c.prompt.Confirm(question)
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}
	return nil
}

func (c *CLI) removeTargets(ctx context.Context, sess *tracker.Session, targets []registry.Usage, label string) error {
	out, err := sess.Unapply(ctx, targets, label)
	if err != nil {
		return err
	}
	if out.Removed == 0 {
		c.fail("Nothing was removed")
		return nil
	}
	c.success("Removed applications: %d", out.Removed)
	c.progressChanges(out.Progress)
	return nil
}

func (c *CLI) progressChanges(changes []progress.Change) {
	for _, ch := range changes {
		if ch.Changed() {
			c.dim("   %s: %d%% → %d%%", ch.ArticleID, ch.Before, ch.After)
		}
	}
}
