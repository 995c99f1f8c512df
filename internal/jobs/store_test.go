package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStorePutGetUpdate(t *testing.T) {
	t.Parallel()
	store, err := NewMemoryStore("")
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	ctx := context.Background()

	rec := &Record{ID: "job-1", Type: "txt2img", Status: StatusPending, Text: "a cat"}
	if err := store.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Fatal("Put must stamp timestamps")
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusPending || got.Text != "a cat" {
		t.Fatalf("record = %+v", got)
	}

	updated, err := store.Update(ctx, "job-1", func(r *Record) {
		r.Status = StatusCompleted
		r.Images = append(r.Images, "civitai_x.png")
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != StatusCompleted || len(updated.Images) != 1 {
		t.Fatalf("updated = %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) && !updated.UpdatedAt.Equal(updated.CreatedAt) {
		t.Fatal("Update must bump UpdatedAt")
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := store.Update(ctx, "missing", func(r *Record) {}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreFileMirror(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewMemoryStore(dir)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	if err := store.Put(ctx, &Record{ID: "job-2", Type: "txt2img", Status: StatusPending}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "job-2.json")); err != nil {
		t.Fatalf("mirror file missing: %v", err)
	}

	// A fresh store over the same directory finds the record on disk.
	reopened, err := NewMemoryStore(dir)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	got, err := reopened.Get(ctx, "job-2")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("record = %+v", got)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	t.Parallel()
	store, err := NewMemoryStore("")
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, &Record{ID: "job-3", Images: []string{"a.png"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	first, _ := store.Get(ctx, "job-3")
	first.Status = "mutated"
	first.Images[0] = "mutated.png"

	second, _ := store.Get(ctx, "job-3")
	if second.Status == "mutated" || second.Images[0] == "mutated.png" {
		t.Fatal("Get must return an independent copy")
	}
}
