// Package mcpserver exposes the knowledge base as read-only MCP tools over
// stdio, so an assistant can look up articles and progress while coding.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/jstrack/internal/guide"
	"github.com/starford/jstrack/internal/journal"
	"github.com/starford/jstrack/internal/registry"
	"github.com/starford/jstrack/internal/tracker"
)

const workflowURI = "jstrack://workflow"

// Server wraps the MCP server with jstrack tools.
type Server struct {
	mcp *server.MCPServer
	svc *tracker.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *tracker.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"jstrack",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_articles",
		mcp.WithDescription("Rank knowledge base articles against a free-text query. Articles already applied somewhere come first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 10)")),
	), s.searchArticles)

	s.mcp.AddTool(mcp.NewTool("get_article",
		mcp.WithDescription("Read one article with its subtopics and the commits that applied them."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Article id, e.g. closures")),
	), s.getArticle)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List articles in catalogue order. Syntax-level articles are hidden unless level asks for them."),
		mcp.WithBoolean("unused", mcp.Description("Only articles below 100% progress")),
		mcp.WithString("level", mcp.Description("Only articles of this level")),
		mcp.WithNumber("limit", mcp.Description("Max articles (default 20)")),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("list_applications",
		mcp.WithDescription("List subtopic applications, newest first. With commit, narrow to that commit and optionally one article and subtopic."),
		mcp.WithString("commit", mcp.Description("Commit hash")),
		mcp.WithString("article", mcp.Description("Article id (used with commit)")),
		mcp.WithString("section", mcp.Description("Subtopic id (used with commit)")),
	), s.listApplications)

	s.mcp.AddTool(mcp.NewTool("project_articles",
		mcp.WithDescription("Articles applied in a project, with the commits and subtopics involved."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project (repository) name")),
	), s.projectArticles)

	s.mcp.AddTool(mcp.NewTool("stats",
		mcp.WithDescription("Completed, in-progress and not-started article counts and overall progress."),
	), s.stats)

	s.mcp.AddTool(mcp.NewTool("suggest",
		mcp.WithDescription("Suggest unfinished articles to study before building a feature."),
		mcp.WithString("feature", mcp.Required(), mcp.Description("Feature description, e.g. 'todo list with drag and drop'")),
	), s.suggest)

	s.mcp.AddTool(mcp.NewTool("history",
		mcp.WithDescription("Recent apply and unapply operations from the journal."),
		mcp.WithString("project", mcp.Description("Only this project")),
		mcp.WithString("query", mcp.Description("Full-text filter")),
		mcp.WithNumber("limit", mcp.Description("Max events (default 20)")),
	), s.history)

	s.mcp.AddResource(
		mcp.NewResource(workflowURI, "Workflow Guide",
			mcp.WithResourceDescription("How the knowledge base is used day to day."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readWorkflowResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits := s.svc.Search(ctx, query, req.GetInt("limit", 10))
	if len(hits) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no articles match %q", query)), nil
	}
	return jsonResult(hits)
}

func (s *Server) getArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.svc.Article(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(a)
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.svc.List(ctx, tracker.ListFilter{
		Unused: req.GetBool("unused", false),
		Level:  req.GetString("level", ""),
		Limit:  req.GetInt("limit", 20),
	})
	return jsonResult(res)
}

func (s *Server) listApplications(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var usages []registry.Usage
	if commit := req.GetString("commit", ""); commit != "" {
		usages = s.svc.FindApplications(ctx, registry.Criteria{
			Article: req.GetString("article", ""),
			Section: req.GetString("section", ""),
			Commit:  commit,
		})
	} else {
		usages = s.svc.Applications(ctx)
	}
	if len(usages) == 0 {
		return mcp.NewToolResultText("no applications found"), nil
	}
	return jsonResult(usages)
}

func (s *Server) projectArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	articles := s.svc.ProjectArticles(ctx, project)
	if len(articles) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no articles applied in %s", project)), nil
	}
	return jsonResult(articles)
}

func (s *Server) stats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Stats(ctx))
}

func (s *Server) suggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feature, err := req.RequireString("feature")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	plan := s.svc.Suggest(ctx, feature)
	if plan.Empty() {
		return mcp.NewToolResultText("no suitable unfinished articles found"), nil
	}
	return jsonResult(plan)
}

func (s *Server) history(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	var (
		events []journal.Event
		err    error
	)
	if q := req.GetString("query", ""); q != "" {
		events, err = s.svc.SearchHistory(ctx, q, limit)
	} else {
		events, err = s.svc.History(ctx, req.GetString("project", ""), limit)
	}
	switch {
	case errors.Is(err, tracker.ErrJournalDisabled):
		return mcp.NewToolResultError("journal is disabled"), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	case len(events) == 0:
		return mcp.NewToolResultText("no history yet"), nil
	}
	return jsonResult(events)
}

func (s *Server) readWorkflowResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      workflowURI,
			MIMEType: "text/markdown",
			Text:     guide.Markdown("jstrack workflow", guide.Workflow),
		},
	}, nil
}
