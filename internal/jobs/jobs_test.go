package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"doctrans/internal/registry"
	"doctrans/internal/statuscache"
	"doctrans/internal/task"
)

// scriptedHandler replays a fixed snapshot sequence.
type scriptedHandler struct {
	script func(tk *task.Task, ch chan<- task.Snapshot)
}

func (h scriptedHandler) TranslateStream(_ context.Context, t *task.Task, _ registry.Options) <-chan task.Snapshot {
	ch := make(chan task.Snapshot, 1)
	go func() {
		defer close(ch)
		h.script(t, ch)
	}()
	return ch
}

// failingCache rejects every write but keeps counting them.
type failingCache struct {
	*statuscache.MemoryCache
	writes int
}

func (c *failingCache) Set(_ context.Context, _ string, _ task.Snapshot) error {
	c.writes++
	return fmt.Errorf("redis is down")
}

func tempInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	if err := os.WriteFile(path, []byte("zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunPersistsEverySnapshot(t *testing.T) {
	cache := statuscache.NewMemoryCache()
	runner := NewRunner(cache)
	input := tempInput(t)

	tk := task.New("1_deck.pptx", "English➡︎Japanese", input)
	handler := scriptedHandler{script: func(tk *task.Task, ch chan<- task.Snapshot) {
		tk.AdvanceProgress(0.5)
		ch <- tk.Snapshot()
		tk.MarkCompleted("/out/deck.pptx", 2*time.Second)
		ch <- tk.Snapshot()
	}}

	var seen []task.Snapshot
	final := runner.Run(context.Background(), "u@example.com", tk, handler, registry.Options{}, func(s task.Snapshot) {
		seen = append(seen, s)
	})

	if final.Status != task.StatusCompleted {
		t.Fatalf("final status %q", final.Status)
	}
	if len(seen) != 2 || seen[0].Progress != 0.5 || seen[1].Status != task.StatusCompleted {
		t.Errorf("sink saw %+v", seen)
	}

	cached, ok, err := cache.Get(context.Background(), "u@example.com", "1_deck.pptx")
	if err != nil || !ok {
		t.Fatalf("snapshot not persisted: ok=%v err=%v", ok, err)
	}
	if cached.Status != task.StatusCompleted || cached.OutputFilePath != "/out/deck.pptx" {
		t.Errorf("cache holds %+v", cached)
	}

	if _, err := os.Stat(input); !os.IsNotExist(err) {
		t.Error("input file must be removed after a terminal snapshot")
	}
}

func TestRunSurvivesCacheFailures(t *testing.T) {
	cache := &failingCache{MemoryCache: statuscache.NewMemoryCache()}
	runner := NewRunner(cache)

	tk := task.New("1_deck.pptx", "n", tempInput(t))
	handler := scriptedHandler{script: func(tk *task.Task, ch chan<- task.Snapshot) {
		tk.AdvanceProgress(0.5)
		ch <- tk.Snapshot()
		tk.MarkCompleted("/out/deck.pptx", time.Second)
		ch <- tk.Snapshot()
	}}

	final := runner.Run(context.Background(), "u", tk, handler, registry.Options{}, nil)
	if final.Status != task.StatusCompleted {
		t.Errorf("job must finish despite cache failures, got %q", final.Status)
	}
	if cache.writes != 2 {
		t.Errorf("expected 2 attempted writes, got %d", cache.writes)
	}
}

func TestRunRecoversAbandonedStream(t *testing.T) {
	cache := statuscache.NewMemoryCache()
	runner := NewRunner(cache)

	tk := task.New("1_deck.pptx", "n", tempInput(t))
	handler := scriptedHandler{script: func(tk *task.Task, ch chan<- task.Snapshot) {
		tk.AdvanceProgress(0.3)
		ch <- tk.Snapshot() // stream ends without a terminal snapshot
	}}

	final := runner.Run(context.Background(), "u", tk, handler, registry.Options{}, nil)
	if final.Status != task.StatusError {
		t.Fatalf("abandoned stream must become ERROR, got %q", final.Status)
	}
	if final.Error == "" || final.Duration == 0 {
		t.Errorf("terminal snapshot incomplete: %+v", final)
	}

	cached, ok, _ := cache.Get(context.Background(), "u", "1_deck.pptx")
	if !ok || cached.Status != task.StatusError {
		t.Errorf("synthesized terminal snapshot not persisted: %+v", cached)
	}
}
