package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/starford/jstrack/internal/models"
	"github.com/starford/jstrack/internal/progress"
	"github.com/starford/jstrack/internal/registry"
)

const barWidth = 20

var (
	titleColor   = color.New(color.FgHiCyan, color.Bold)
	successColor = color.New(color.FgHiGreen)
	headingColor = color.New(color.FgHiGreen, color.Bold)
	infoColor    = color.New(color.FgHiBlue)
	warnColor    = color.New(color.FgHiYellow)
	errorColor   = color.New(color.FgHiRed)
	dimColor     = color.New(color.FgHiBlack)
	accentColor  = color.New(color.FgHiMagenta)
	linkColor    = color.New(color.FgBlue, color.Underline)
)

func (c *CLI) line(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *CLI) blank() {
	fmt.Fprintln(c.out)
}

func (c *CLI) title(format string, args ...any) {
	titleColor.Fprintf(c.out, "\n"+format+"\n\n", args...)
}

func (c *CLI) success(format string, args ...any) {
	successColor.Fprintf(c.out, format+"\n", args...)
}

func (c *CLI) info(format string, args ...any) {
	infoColor.Fprintf(c.out, format+"\n", args...)
}

func (c *CLI) warn(format string, args ...any) {
	warnColor.Fprintf(c.out, format+"\n", args...)
}

func (c *CLI) fail(format string, args ...any) {
	errorColor.Fprintf(c.out, format+"\n", args...)
}

func (c *CLI) dim(format string, args ...any) {
	dimColor.Fprintf(c.out, format+"\n", args...)
}

func (c *CLI) accent(format string, args ...any) {
	accentColor.Fprintf(c.out, format+"\n", args...)
}

func link(url string) string {
	return linkColor.Sprint(url)
}

// statusIcon marks finished, started and untouched items.
func statusIcon(percent int) string {
	switch {
	case percent >= 100:
		return successColor.Sprint("●")
	case percent > 0:
		return warnColor.Sprint("◐")
	default:
		return dimColor.Sprint("○")
	}
}

func sectionIcon(s *models.Section) string {
	if s.Applied() {
		return statusIcon(100)
	}
	return statusIcon(0)
}

func appliedSuffix(s *models.Section) string {
	if !s.Applied() {
		return ""
	}
	return dimColor.Sprintf(" (applied %d times)", len(s.Applications))
}

func progressLine(percent int) string {
	return fmt.Sprintf("%s %d%%", progress.Bar(percent, barWidth), percent)
}

func formatDate(app models.Application) string {
	if app.Date.IsZero() {
		return "unknown date"
	}
	return app.Date.Local().Format("2006-01-02")
}

// usageLines prints one application record the way apply and unapply list them.
func (c *CLI) usageLines(n int, u registry.Usage) {
	heading := u.SectionTitle
	if heading == "" {
		heading = u.ArticleTitle
	}
	infoColor.Fprintf(c.out, "%d. %s\n", n, heading)
	c.dim("   Article: %s", u.ArticleTitle)
	if u.SectionID != "" {
		c.dim("   ID: %s --section %s", u.ArticleID, u.SectionID)
	} else {
		c.dim("   ID: %s", u.ArticleID)
	}
	c.dim("   Commit: %s | Project: %s", u.Commit, u.Project)
	if !u.Date.IsZero() {
		c.dim("   Date: %s", u.Date.Local().Format("2006-01-02"))
	}
	if u.SectionURL != "" {
		c.line("   %s", link(u.SectionURL))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
