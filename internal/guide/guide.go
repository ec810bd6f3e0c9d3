// Package guide holds the usage walkthrough shown by the workflow command
// and published as an MCP resource.
package guide

import "strings"

// Entry is one line of a guide section: a command and what it does.
type Entry struct {
	Command string
	Summary string
}

// Section groups related entries under a heading.
type Section struct {
	Title   string
	Entries []Entry
}

// Workflow is the day-to-day loop: find a topic, build it, link the commit.
var Workflow = []Section{
	{
		Title: "Core commands",
		Entries: []Entry{
			{"jstrack apply", "interactive application of a subtopic"},
			{"jstrack search <query>", "find articles"},
			{"jstrack list --unused", "articles not finished yet"},
			{"jstrack view <id>", "article details with subtopics"},
			{"jstrack stats", "overall progress"},
		},
	},
	{
		Title: "Tracking work",
		Entries: []Entry{
			{"jstrack project [name]", "what a project has used"},
			{"jstrack unapply", "remove a linked commit"},
			{"jstrack history", "recent apply and unapply operations"},
			{"jstrack suggest <feature>", "articles to study for a feature"},
		},
	},
	{
		Title: "Examples",
		Entries: []Entry{
			{"$ jstrack apply", ""},
			{"$ jstrack search 'keyboard events'", ""},
			{"$ jstrack apply keyboard-events --section keydown --commit abc123", ""},
			{"$ jstrack list --unused", ""},
		},
	},
}

// Markdown renders sections as a Markdown document.
func Markdown(title string, sections []Section) string {
	var b strings.Builder
	b.WriteString("# " + title + "\n")
	for _, s := range sections {
		b.WriteString("\n## " + s.Title + "\n\n")
		for _, e := range s.Entries {
			b.WriteString("- `" + e.Command + "`")
			if e.Summary != "" {
				b.WriteString(": " + e.Summary)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
