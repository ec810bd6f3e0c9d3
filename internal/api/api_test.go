package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/jstrack/internal/progress"
	"github.com/starford/jstrack/internal/testutil"
	"github.com/starford/jstrack/internal/tracker"
)

// testEnv builds a router over the shared fixture with a journal attached.
// A non-empty authToken switches the router to token mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	svc := tracker.New(testutil.Store(t, testutil.KnowledgeBase),
		tracker.WithJournal(testutil.Journal(t)),
		tracker.WithLogger(testutil.Logger()))
	return NewRouter(svc, authToken != "", authToken, nil)
}

func get(t *testing.T, router http.Handler, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v (body %s)", target, err, w.Body.String())
		}
	}
	return w.Code
}

func TestListArticles(t *testing.T) {
	router := testEnv(t, "")

	cases := []struct {
		target string
		ids    []string
		total  int
	}{
		{"/articles", []string{"closures", "keyboard-events"}, 2},
		{"/articles?unused=true", []string{"closures"}, 1},
		{"/articles?level=syntax", []string{"let-const"}, 1},
		{"/articles?limit=1", []string{"closures"}, 2},
	}
	for _, tc := range cases {
		var resp struct {
			Articles []struct {
				ID string `json:"id"`
			} `json:"articles"`
			Total int `json:"total"`
			Shown int `json:"shown"`
		}
		if code := get(t, router, tc.target, &resp); code != http.StatusOK {
			t.Fatalf("%s status = %d", tc.target, code)
		}
		if resp.Total != tc.total || resp.Shown != len(tc.ids) {
			t.Errorf("%s total/shown = %d/%d, want %d/%d", tc.target, resp.Total, resp.Shown, tc.total, len(tc.ids))
		}
		for i, id := range tc.ids {
			if i >= len(resp.Articles) || resp.Articles[i].ID != id {
				t.Errorf("%s articles = %+v, want %v", tc.target, resp.Articles, tc.ids)
				break
			}
		}
	}
}

func TestGetArticle(t *testing.T) {
	router := testEnv(t, "")

	var a struct {
		Title    string `json:"title"`
		Sections []struct {
			ID string `json:"id"`
		} `json:"sections"`
	}
	if code := get(t, router, "/articles/closures", &a); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if a.Title != "Closures" || len(a.Sections) != 2 {
		t.Errorf("article = %+v", a)
	}
	if code := get(t, router, "/articles/nope", nil); code != http.StatusNotFound {
		t.Errorf("missing article = %d, want 404", code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var resp struct {
		Results []struct {
			Article struct {
				ID string `json:"id"`
			} `json:"article"`
			Score int `json:"score"`
		} `json:"results"`
	}
	if code := get(t, router, "/search?q=keydown", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.Results) == 0 || resp.Results[0].Article.ID != "keyboard-events" {
		t.Errorf("results = %+v", resp.Results)
	}
	if code := get(t, router, "/search", nil); code != http.StatusBadRequest {
		t.Errorf("missing q = %d, want 400", code)
	}
}

func TestSearchSectionsEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var resp struct {
		Results []struct {
			Section struct {
				ID string `json:"id"`
			} `json:"section"`
		} `json:"results"`
	}
	if code := get(t, router, "/sections?q=counter", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.Results) == 0 || resp.Results[0].Section.ID != "counter" {
		t.Errorf("results = %+v", resp.Results)
	}
	if code := get(t, router, "/sections?q=", nil); code != http.StatusBadRequest {
		t.Errorf("empty q = %d, want 400", code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var s progress.Summary
	if code := get(t, router, "/stats", &s); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	want := progress.Summary{Total: 3, Completed: 2, NotStarted: 1, Applications: 1, Overall: 67}
	if s != want {
		t.Errorf("stats = %+v, want %+v", s, want)
	}
}

func TestApplicationsEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var resp ApplicationsResponse
	if code := get(t, router, "/applications", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(resp.Applications) != 1 || resp.Applications[0].Commit != "fff000" || resp.Applications[0].SectionID != "keydown" {
		t.Errorf("applications = %+v", resp.Applications)
	}

	resp = ApplicationsResponse{}
	get(t, router, "/applications?commit=fff000&article=closures", &resp)
	if len(resp.Applications) != 0 {
		t.Errorf("narrowed applications = %+v", resp.Applications)
	}
}

func TestProjectEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var resp ProjectResponse
	if code := get(t, router, "/projects/site", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Project != "site" || len(resp.Articles) != 1 || resp.Articles[0].Article.ID != "keyboard-events" {
		t.Errorf("project = %+v", resp)
	}

	resp = ProjectResponse{}
	get(t, router, "/projects/unknown", &resp)
	if resp.Articles == nil || len(resp.Articles) != 0 {
		t.Errorf("unknown project articles = %+v", resp.Articles)
	}
}

func TestSuggestEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var plan struct {
		Feature string `json:"feature"`
	}
	if code := get(t, router, "/suggest?feature=todo+list", &plan); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if plan.Feature != "todo list" {
		t.Errorf("feature = %q", plan.Feature)
	}
	if code := get(t, router, "/suggest", nil); code != http.StatusBadRequest {
		t.Errorf("missing feature = %d, want 400", code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	router := testEnv(t, "")

	var resp HistoryResponse
	if code := get(t, router, "/history", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Events == nil || len(resp.Events) != 0 {
		t.Errorf("events = %+v", resp.Events)
	}

	noJournal := NewRouter(tracker.New(testutil.Store(t, testutil.KnowledgeBase)), false, "", nil)
	if code := get(t, noJournal, "/history", nil); code != http.StatusNotFound {
		t.Errorf("history without journal = %d, want 404", code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := testEnv(t, "secret123")

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer secret123", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer wrong", http.StatusUnauthorized},
		{"scheme", "Basic secret123", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
	}

	if code := get(t, testEnv(t, ""), "/stats", nil); code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", code)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

// testEnvWithSSE mounts a stub SSE handler that blocks until the request
// context is done.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc := tracker.New(testutil.Store(t, testutil.KnowledgeBase))
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
	return NewRouter(svc, authEnabled, token, sseHandler)
}
