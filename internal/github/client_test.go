package github

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{APIURL: srv.URL + "/", User: "ione", Token: "secret"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProjectExists(t *testing.T) {
	var gotPath, gotAuth, gotAccept string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth, gotAccept = r.URL.Path, r.Header.Get("Authorization"), r.Header.Get("Accept")
		switch r.URL.Path {
		case "/repos/ione/demo":
			_, _ = io.WriteString(w, `{"full_name":"ione/demo"}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	v := c.ProjectExists(ctx, "demo")
	if !v.Exists || v.Skipped || v.FullName != "ione/demo" {
		t.Errorf("demo = %+v", v)
	}
	if gotAuth != "Bearer secret" || gotAccept != "application/vnd.github+json" {
		t.Errorf("headers auth=%q accept=%q", gotAuth, gotAccept)
	}

	v = c.ProjectExists(ctx, "someone/else")
	if v.Exists || v.Skipped {
		t.Errorf("missing = %+v", v)
	}
	if gotPath != "/repos/someone/else" {
		t.Errorf("owner/repo path = %q", gotPath)
	}
}

func TestCommitExists(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/ione/demo/commits/abc123":
			_, _ = io.WriteString(w, `{"sha":"abc123","commit":{"message":"add closures","author":{"name":"Ione","date":"2024-05-01T10:00:00Z"}}}`)
		case "/repos/ione/demo/commits/bad":
			w.WriteHeader(http.StatusUnprocessableEntity)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	v := c.CommitExists(ctx, "demo", "abc123")
	if !v.Exists || v.Message != "add closures" || v.Author != "Ione" {
		t.Errorf("found = %+v", v)
	}
	if !v.Date.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", v.Date)
	}
	if v := c.CommitExists(ctx, "demo", "bad"); v.Exists || v.Skipped {
		t.Errorf("bad sha = %+v", v)
	}
	if v := c.CommitExists(ctx, "demo", "fff"); v.Exists {
		t.Errorf("missing = %+v", v)
	}
}

func TestDegradesToSkipped(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	if v := c.ProjectExists(context.Background(), "demo"); !v.Exists || !v.Skipped {
		t.Errorf("rate limited = %+v, want skipped", v)
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	offline := New(Config{APIURL: srv.URL, User: "ione"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if v := offline.CommitExists(context.Background(), "demo", "abc"); !v.Exists || !v.Skipped {
		t.Errorf("offline = %+v, want skipped", v)
	}
}

func TestCommitURL(t *testing.T) {
	c := New(Config{User: "ione"}, nil)
	if got := c.CommitURL("demo", "abc123"); got != "https://github.com/ione/demo/commit/abc123" {
		t.Errorf("CommitURL = %q", got)
	}
	if got := c.CommitURL("other/app", "f00"); got != "https://github.com/other/app/commit/f00" {
		t.Errorf("CommitURL = %q", got)
	}
}
