package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/jstrack/internal"
	"github.com/starford/jstrack/internal/apperr"
	"github.com/starford/jstrack/internal/github"
	"github.com/starford/jstrack/internal/gitsync"
	"github.com/starford/jstrack/internal/models"
	"github.com/starford/jstrack/internal/registry"
	"github.com/starford/jstrack/internal/search"
	"github.com/starford/jstrack/internal/tracker"
)

const directExample = "jstrack apply keyboard-events --section keydown --commit abc123"

func (c *CLI) applyCommand() *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Link a commit to the subtopic it implements",
		ArgsUsage: "[articleId]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project where the subtopic was applied"},
			&cli.StringFlag{Name: "commit", Usage: "Commit hash"},
			&cli.StringFlag{Name: "section", Aliases: []string{"s"}, Usage: "Subtopic id (required in direct mode)"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req := tracker.ApplyRequest{
				ArticleID: cmd.Args().First(),
				SectionID: cmd.String("section"),
				Project:   cmd.String("project"),
				Commit:    cmd.String("commit"),
			}
			return c.withApp(ctx, cmd, func(app *internal.App) error {
				sess, err := app.Tracker.Open(ctx)
				if err != nil {
					return err
				}
				if req.ArticleID == "" {
					if err := c.chooseSubtopic(ctx, sess, &req); err != nil {
						return err
					}
				} else if req.SectionID == "" || req.Commit == "" {
					c.dim("Example: %s", directExample)
					return fmt.Errorf("apply: --section and --commit are required with an article id: %w", apperr.ErrInvalid)
				}
				if req.Project == "" {
					req.Project = gitsync.CurrentProject(ctx, c.workDir)
				}
				return c.executeApply(ctx, sess, req, cmd.Bool("yes"))
			})
		},
	}
}

// chooseSubtopic fills req from a free-text subtopic search followed by
// prompts for the commit and the project.
func (c *CLI) chooseSubtopic(ctx context.Context, sess *tracker.Session, req *tracker.ApplyRequest) error {
	c.title("Apply a subtopic")
	query, err := c.prompt.Ask("Which subtopic did you implement? (e.g. 'keydown', 'form validation'): ")
	if err != nil {
		return err
	}
	if query == "" {
		return fmt.Errorf("apply: query is required: %w", apperr.ErrInvalid)
	}

	c.info("Searching subtopics for %q...", query)
	hits := sess.SearchSections(query, search.DefaultSectionLimit)
	if len(hits) == 0 {
		c.warn("No matching subtopics")
		c.dim("Try:")
		c.dim("  • other keywords")
		c.dim("  • all articles: jstrack list")
		c.dim("  • a wider search: jstrack search <query>")
		return errNothingToDo
	}

	c.blank()
	c.info("Matching subtopics:")
	for i, h := range hits {
		infoColor.Fprintf(c.out, "%d. %s %s%s\n", i+1, sectionIcon(h.Section), h.Section.Title, appliedSuffix(h.Section))
		c.dim("   Article: %s", h.Article.Title)
		c.dim("   ID: %s --section %s", h.Article.ID, h.Section.ID)
		c.line("   %s", link(h.Section.URL))
		c.blank()
	}

	choice, err := c.prompt.Ask(fmt.Sprintf("Choose a subtopic (1-%d) or enter an ID: ", len(hits)))
	if err != nil {
		return err
	}
	switch {
	case choice == "":
		return fmt.Errorf("apply: no subtopic chosen: %w", apperr.ErrInvalid)
	case pickIndex(choice, len(hits)) >= 0:
		h := hits[pickIndex(choice, len(hits))]
		req.ArticleID, req.SectionID = h.Article.ID, h.Section.ID
		if err := c.confirmReapply(h.Section); err != nil {
			return err
		}
	case strings.Contains(choice, "--section"):
		parts := strings.SplitN(choice, "--section", 2)
		req.ArticleID = strings.TrimSpace(parts[0])
		req.SectionID = strings.TrimSpace(parts[1])
		if req.ArticleID == "" || req.SectionID == "" {
			return fmt.Errorf("apply: expected <articleId> --section <sectionId>: %w", apperr.ErrInvalid)
		}
	default:
		if err := c.pickSection(sess, choice, req); err != nil {
			return err
		}
	}

	if req.Commit == "" {
		commit, err := c.prompt.Ask("Commit hash (required): ")
		if err != nil {
			return err
		}
		if commit == "" {
			return fmt.Errorf("apply: commit is required: %w", apperr.ErrInvalid)
		}
		req.Commit = commit
	}
	if req.Project == "" {
		def := gitsync.CurrentProject(ctx, c.workDir)
		project, err := c.prompt.AskDefault(fmt.Sprintf("Project name [%s]: ", def), def)
		if err != nil {
			return err
		}
		req.Project = project
	}
	return nil
}

// pickSection lists the subtopics of articleID and asks for one.
func (c *CLI) pickSection(sess *tracker.Session, articleID string, req *tracker.ApplyRequest) error {
	a, err := sess.Article(articleID)
	if err != nil {
		return err
	}
	if len(a.Sections) == 0 {
		c.dim("Example: %s", directExample)
		return fmt.Errorf("apply: %q has no subtopics: %w", articleID, apperr.ErrInvalid)
	}

	c.blank()
	c.warn("Choose a subtopic of the article:")
	c.info("   Article: %s", a.Title)
	for i, s := range a.Sections {
		infoColor.Fprintf(c.out, "   %d. %s %s%s\n", i+1, sectionIcon(s), s.Title, appliedSuffix(s))
		c.dim("      ID: %s", s.ID)
	}
	choice, err := c.prompt.Ask(fmt.Sprintf("\nChoose a subtopic (1-%d): ", len(a.Sections)))
	if err != nil {
		return err
	}
	i := pickIndex(choice, len(a.Sections))
	if i < 0 {
		return fmt.Errorf("apply: choose a subtopic from the list: %w", apperr.ErrInvalid)
	}
	req.ArticleID, req.SectionID = a.ID, a.Sections[i].ID
	return c.confirmReapply(a.Sections[i])
}

func (c *CLI) confirmReapply(s *models.Section) error {
	if !s.Applied() {
		return nil
	}
	c.warn("This subtopic already has applications!")
	ok, err := c.prompt.Confirm("Add another application anyway? (y/N) ")
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}
	return nil
}

// pickIndex parses a 1-based menu choice, returning -1 when it is not one.
func pickIndex(choice string, n int) int {
	i, err := strconv.Atoi(choice)
	if err != nil || i < 1 || i > n {
		return -1
	}
	return i - 1
}

// executeApply checks for duplicates, validates on GitHub, confirms and
// records the application, all against the document sess loaded.
func (c *CLI) executeApply(ctx context.Context, sess *tracker.Session, req tracker.ApplyRequest, yes bool) error {
	c.info("Checking for duplicates...")
	if sess.Linked(req) {
		c.fail("This application already exists!")
		c.warn("Existing applications of this commit:")
		for _, e := range sess.CommitUsages(req.Commit, req.Project) {
			sub := ""
			if e.SectionTitle != "" {
				sub = " (subtopic: " + e.SectionTitle + ")"
			}
			c.dim("   • %s%s", e.ArticleTitle, sub)
		}
		return fmt.Errorf("cli: %s --section %s: %w", req.ArticleID, req.SectionID, registry.ErrDuplicateApplication)
	}

	pv, cv, err := sess.Validate(ctx, req.Project, req.Commit)
	c.reportValidation(req, pv, cv)
	if err != nil {
		return err
	}

	a, err := sess.Article(req.ArticleID)
	if err != nil {
		return err
	}
	c.success("Found article: %s", a.Title)
	s, ok := a.Section(req.SectionID)
	if !ok {
		return fmt.Errorf("cli: %q: %w", req.SectionID, registry.ErrSectionNotFound)
	}
	c.success("Found subtopic: %s", s.Title)

	if !yes {
		c.blank()
		c.warn("Confirm:")
		c.line("   Article: %s", a.Title)
		c.line("   %s", link(a.URL))
		c.line("   Subtopic: %s", s.Title)
		c.line("   %s", link(s.URL))
		c.line("   Project: %s", req.Project)
		c.line("   Commit: %s", req.Commit)
		ok, err := c.prompt.Confirm("\nAdd this application? (y/N) ")
		if err != nil {
			return err
		}
		if !ok {
			return errCancelled
		}
	}

	req.Validated = true
	out, err := sess.Apply(ctx, req)
	if err != nil {
		return err
	}

	headingColor.Fprintln(c.out, "\nApplied!")
	c.dim("   Subtopic: %s", out.Section.Title)
	c.line("   %s", link(out.Section.URL))
	c.dim("   Article: %s", out.Article.Title)
	c.line("   %s", link(out.Article.URL))
	c.dim("   Project: %s", req.Project)
	c.dim("   Commit: %s", req.Commit)
	if out.Application.CommitURL != "" {
		c.line("   %s", link(out.Application.CommitURL))
	}
	c.dim("   Article progress: %d%% → %d%%", out.Progress.Before, out.Progress.After)
	return nil
}

func (c *CLI) reportValidation(req tracker.ApplyRequest, pv, cv *github.Validation) {
	if pv == nil {
		c.dim("GitHub validation is off")
		return
	}
	c.info("Checking the project on GitHub...")
	switch {
	case pv.Skipped:
		c.warn("Could not reach GitHub, skipping checks")
		return
	case !pv.Exists:
		c.fail("Project %q not found on GitHub", req.Project)
		return
	}
	c.success("Project found on GitHub")
	if cv == nil {
		return
	}
	c.info("Checking the commit on GitHub...")
	switch {
	case cv.Skipped:
		c.warn("Commit check skipped")
	case !cv.Exists:
		c.fail("Commit %q not found in project %q", req.Commit, req.Project)
	default:
		c.success("Commit found")
		if cv.Message != "" {
			c.dim("   %s", firstLine(cv.Message))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
