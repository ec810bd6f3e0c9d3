// Package github checks projects and commits against the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIURL = "https://api.github.com"
	DefaultWebURL = "https://github.com"
	userAgent     = "jstrack"
)

// Validation is the outcome of an existence check. Skipped is set when the
// API could not be asked; Exists is then true so callers carry on.
type Validation struct {
	Exists   bool      `json:"exists"`
	Skipped  bool      `json:"skipped,omitempty"`
	FullName string    `json:"full_name,omitempty"`
	Message  string    `json:"message,omitempty"`
	Author   string    `json:"author,omitempty"`
	Date     time.Time `json:"date,omitzero"`
}

// Config configures a Client.
type Config struct {
	APIURL  string
	WebURL  string
	User    string
	Token   string
	Timeout time.Duration
}

// Client talks to GitHub.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a client. A zero Timeout leaves the HTTP client default.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.WebURL == "" {
		cfg.WebURL = DefaultWebURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.WebURL = strings.TrimRight(cfg.WebURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Resolve splits a project name into owner and repository. Names without
// an owner belong to the configured user.
func (c *Client) Resolve(project string) (owner, repo string) {
	if o, r, ok := strings.Cut(project, "/"); ok && o != "" && r != "" {
		return o, r
	}
	return c.cfg.User, project
}

// CommitURL returns the browsable URL of commit in project.
func (c *Client) CommitURL(project, commit string) string {
	owner, repo := c.Resolve(project)
	return fmt.Sprintf("%s/%s/%s/commit/%s", c.cfg.WebURL, owner, repo, commit)
}

// ProjectExists checks GET /repos/{owner}/{repo}.
func (c *Client) ProjectExists(ctx context.Context, project string) Validation {
	owner, repo := c.Resolve(project)
	var body struct {
		FullName string `json:"full_name"`
	}
	v := c.get(ctx, repoPath(owner, repo), &body)
	if v.Exists && !v.Skipped {
		v.FullName = body.FullName
		if v.FullName == "" {
			v.FullName = owner + "/" + repo
		}
	}
	return v
}

// CommitExists checks GET /repos/{owner}/{repo}/commits/{sha} and returns
// the commit's message, author and date when found.
func (c *Client) CommitExists(ctx context.Context, project, commit string) Validation {
	owner, repo := c.Resolve(project)
	var body struct {
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string    `json:"name"`
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}
	v := c.get(ctx, repoPath(owner, repo)+"/commits/"+url.PathEscape(commit), &body)
	if v.Exists && !v.Skipped {
		v.FullName = owner + "/" + repo
		v.Message = body.Commit.Message
		v.Author = body.Commit.Author.Name
		v.Date = body.Commit.Author.Date
	}
	return v
}

func repoPath(owner, repo string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
}

// get performs one API request. 200 decodes into out, 404 means missing and
// anything else, including transport errors, degrades to skipped.
func (c *Client) get(ctx context.Context, path string, out any) Validation {
	skipped := Validation{Exists: true, Skipped: true}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+path, nil)
	if err != nil {
		c.logger.Warn("github request", slog.String("error", err.Error()))
		return skipped
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("github unreachable, skipping validation", slog.String("error", err.Error()))
		return skipped
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.logger.Debug("github response decode", slog.String("error", err.Error()))
		}
		return Validation{Exists: true}
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return Validation{Exists: false}
	default:
		c.logger.Warn("github validation skipped",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return skipped
	}
}
