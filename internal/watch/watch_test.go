package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/jstrack/internal/storage"
	"github.com/starford/jstrack/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu    sync.Mutex
	names []string
}

func (r *recorder) cb(name, _ string) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

func start(t *testing.T, fs *storage.FS, rec *recorder) {
	t.Helper()
	w := New(fs, []string{storage.DefaultFile}, testutil.Logger())
	w.debounce = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx, rec.cb)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_ReportsContentChange(t *testing.T) {
	_, fs := testutil.DataDir(t, "{}")
	rec := &recorder{}
	start(t, fs, rec)

	if err := fs.Write(storage.DefaultFile, []byte(testutil.KnowledgeBase)); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.count() == 1
	}, "expected one change callback")
}

func TestWatcher_IgnoresIdenticalRewrite(t *testing.T) {
	dir, fs := testutil.DataDir(t, "{}")
	rec := &recorder{}
	start(t, fs, rec)

	if err := os.WriteFile(filepath.Join(dir, storage.DefaultFile), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("callbacks = %d, want 0 for identical content", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir, fs := testutil.DataDir(t, "{}")
	rec := &recorder{}
	start(t, fs, rec)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("callbacks = %d, want 0 for unrelated file", n)
	}
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	_, fs := testutil.DataDir(t, "{}")
	rec := &recorder{}
	start(t, fs, rec)

	for _, body := range []string{`{"a":{}}`, `{"b":{}}`, `{"c":{}}`} {
		if err := fs.Write(storage.DefaultFile, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.count() >= 1
	}, "expected a change callback")
	time.Sleep(200 * time.Millisecond)
	if n := rec.count(); n > 3 {
		t.Errorf("callbacks = %d, want at most one per write", n)
	}
}
