package statuscache

import (
	"context"
	"sync"
	"testing"
	"time"

	"doctrans/internal/task"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	tk := task.New("1_deck.pptx", "English➡︎Japanese", "/tmp/deck.pptx")
	if err := c.Set(ctx, "a@example.com", tk.Snapshot()); err != nil {
		t.Fatal(err)
	}

	got, ok, err := c.Get(ctx, "a@example.com", "1_deck.pptx")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Status != task.StatusProcessing || got.TaskName != "English➡︎Japanese" {
		t.Errorf("unexpected snapshot: %+v", got)
	}

	// Later writes overwrite the same field.
	tk.MarkCompleted("/tmp/out.pptx", time.Second)
	if err := c.Set(ctx, "a@example.com", tk.Snapshot()); err != nil {
		t.Fatal(err)
	}
	got, _, _ = c.Get(ctx, "a@example.com", "1_deck.pptx")
	if got.Status != task.StatusCompleted {
		t.Errorf("overwrite lost: %+v", got)
	}
}

func TestMemoryCacheUserIsolation(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	tk := task.New("1_deck.pptx", "n", "p")
	if err := c.Set(ctx, "a@example.com", tk.Snapshot()); err != nil {
		t.Fatal(err)
	}

	if ok, _ := c.Exists(ctx, "b@example.com", "1_deck.pptx"); ok {
		t.Error("task leaked across users")
	}
	snaps, err := c.GetAll(ctx, "b@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 0 {
		t.Errorf("expected empty list for other user, got %d", len(snaps))
	}
}

func TestMemoryCacheGetAllAndDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	for _, id := range []string{"1_a.pptx", "2_b.pptx", "3_c.pptx"} {
		if err := c.Set(ctx, "u", task.New(id, "n", "p").Snapshot()); err != nil {
			t.Fatal(err)
		}
	}
	snaps, err := c.GetAll(ctx, "u")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 3 {
		t.Fatalf("GetAll returned %d snapshots", len(snaps))
	}

	if err := c.Delete(ctx, "u", "2_b.pptx"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := c.Exists(ctx, "u", "2_b.pptx"); ok {
		t.Error("deleted entry still present")
	}
	// Deleting an absent id is a no-op.
	if err := c.Delete(ctx, "u", "nope"); err != nil {
		t.Errorf("delete of absent id: %v", err)
	}

	_, ok, err := c.Get(ctx, "u", "nope")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Get of absent id reported ok")
	}
}

func TestMemoryCacheConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tk := task.New(task.NewID(time.Unix(int64(n), 0), "deck.pptx"), "n", "p")
			for p := 0.0; p <= 1.0; p += 0.1 {
				tk.AdvanceProgress(p)
				_ = c.Set(ctx, "u", tk.Snapshot())
			}
		}(i)
	}
	wg.Wait()

	snaps, err := c.GetAll(ctx, "u")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 16 {
		t.Errorf("expected 16 tasks, got %d", len(snaps))
	}
}
