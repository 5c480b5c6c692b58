package progress_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/p-n-ai/weblearn/internal/progress"
)

// flakyBackend wraps a MemoryBackend with switchable failures.
type flakyBackend struct {
	*progress.MemoryBackend
	mu        sync.Mutex
	readErr   error
	writeErr  error
	deleteErr error
	writes    int
}

func newFlakyBackend() *flakyBackend {
	return &flakyBackend{MemoryBackend: progress.NewMemoryBackend()}
}

func (b *flakyBackend) set(read, write error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readErr, b.writeErr = read, write
}

func (b *flakyBackend) Read(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	err := b.readErr
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return b.MemoryBackend.Read(ctx)
}

func (b *flakyBackend) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	err := b.writeErr
	b.writes++
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.MemoryBackend.Write(ctx, data)
}

func (b *flakyBackend) Delete(ctx context.Context) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	return b.MemoryBackend.Delete(ctx)
}

var errQuota = errors.New("quota exceeded")

func TestStore_LoadEmpty(t *testing.T) {
	store := progress.NewStore(nil)

	rec := store.Load(context.Background())
	if rec.CompletedLessons == nil || len(rec.CompletedLessons) != 0 {
		t.Errorf("Load() = %#v, want empty non-nil list", rec.CompletedLessons)
	}
}

func TestStore_LoadCorruptRecord(t *testing.T) {
	ctx := context.Background()
	backend := progress.NewMemoryBackend()
	_ = backend.Write(ctx, []byte(`{"completedLessons": [`))

	store := progress.NewStore(backend)
	rec := store.Load(ctx)
	if len(rec.CompletedLessons) != 0 {
		t.Errorf("Load() on corrupt record = %v, want empty", rec.CompletedLessons)
	}

	// A corrupt record counts as no progress, so the next completion replaces it.
	store.MarkLessonComplete(ctx, "c/l1")
	data, _ := backend.Read(ctx)
	if string(data) != `{"completedLessons":["c/l1"]}` {
		t.Errorf("persisted = %s, want fresh record", data)
	}
}

func TestStore_MarkLessonComplete_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := progress.NewStore(nil)

	store.MarkLessonComplete(ctx, "c/l1")
	if got := store.CompletedCount(ctx); got != 1 {
		t.Fatalf("CompletedCount() = %d, want 1", got)
	}

	store.MarkLessonComplete(ctx, "c/l1")
	if got := store.CompletedCount(ctx); got != 1 {
		t.Errorf("CompletedCount() after second mark = %d, want 1", got)
	}

	rec := store.Load(ctx)
	n := 0
	for _, k := range rec.CompletedLessons {
		if k == "c/l1" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("c/l1 appears %d times, want exactly once", n)
	}
}

func TestStore_IsLessonComplete(t *testing.T) {
	ctx := context.Background()
	store := progress.NewStore(nil)

	if store.IsLessonComplete(ctx, "c/l1") {
		t.Error("IsLessonComplete() should be false before marking")
	}
	store.MarkLessonComplete(ctx, "c/l1")
	if !store.IsLessonComplete(ctx, "c/l1") {
		t.Error("IsLessonComplete() should be true after marking")
	}
	if store.IsLessonComplete(ctx, "c/l2") {
		t.Error("IsLessonComplete() should be false for another lesson")
	}
}

func TestStore_MonotonicUntilClear(t *testing.T) {
	ctx := context.Background()
	store := progress.NewStore(nil)

	store.MarkLessonComplete(ctx, "c/l1")
	store.MarkLessonComplete(ctx, "c/l2")
	store.MarkLessonComplete(ctx, "c/l1")
	_ = store.Load(ctx)

	if !store.IsLessonComplete(ctx, "c/l1") || !store.IsLessonComplete(ctx, "c/l2") {
		t.Fatal("completions must never be revoked by other operations")
	}

	store.Clear(ctx)
	if got := store.CompletedCount(ctx); got != 0 {
		t.Errorf("CompletedCount() after Clear = %d, want 0", got)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := progress.NewStore(nil)

	store.MarkLessonComplete(ctx, "c/l1")
	store.Save(ctx, progress.Record{CompletedLessons: []string{"c/l2", "c/l3"}})

	set := store.Completed(ctx)
	if set.Has("c/l1") || !set.Has("c/l2") || !set.Has("c/l3") {
		t.Errorf("Completed() = %v, want exactly c/l2 and c/l3", set)
	}
}

func TestStore_WriteFailureKeepsCompletionInMemory(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	store := progress.NewStore(backend)

	store.MarkLessonComplete(ctx, "c/l1")
	backend.set(nil, errQuota)

	store.MarkLessonComplete(ctx, "c/l2")
	if !store.IsLessonComplete(ctx, "c/l2") {
		t.Fatal("completion must survive a failed write for the session")
	}
	if got := store.CompletedCount(ctx); got != 2 {
		t.Errorf("CompletedCount() = %d, want 2", got)
	}

	// Next successful write resynchronises the slot.
	backend.set(nil, nil)
	store.MarkLessonComplete(ctx, "c/l3")

	data, _ := backend.MemoryBackend.Read(ctx)
	rec, err := progress.DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}
	set := rec.Set()
	for _, k := range []string{"c/l1", "c/l2", "c/l3"} {
		if !set.Has(k) {
			t.Errorf("persisted record missing %s after resync: %v", k, rec.CompletedLessons)
		}
	}
}

func TestStore_ReadFailureDoesNotTruncate(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	store := progress.NewStore(backend)

	store.MarkLessonComplete(ctx, "c/l1")
	store.MarkLessonComplete(ctx, "c/l2")
	writesBefore := backend.writes

	backend.set(errors.New("connection reset"), nil)
	store.MarkLessonComplete(ctx, "c/l3")
	if backend.writes != writesBefore {
		t.Fatal("store must not write while the existing record is unreadable")
	}
	if !store.IsLessonComplete(ctx, "c/l3") {
		t.Error("completion should be held in memory while the backend is unreadable")
	}

	backend.set(nil, nil)
	if got := store.CompletedCount(ctx); got != 3 {
		t.Errorf("CompletedCount() after recovery = %d, want 3", got)
	}
}

func TestStore_ClearFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	backend := newFlakyBackend()
	backend.deleteErr = errors.New("permission denied")
	store := progress.NewStore(backend)

	store.MarkLessonComplete(ctx, "c/l1")
	store.Clear(ctx) // must not panic or surface the error

	if !store.IsLessonComplete(ctx, "c/l1") {
		t.Error("record should still be readable when delete failed")
	}
}

func TestStore_ConcurrentCompletionsAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := progress.NewStore(nil)

	keys := []string{"c/l1", "c/l2", "c/l3", "c/l4", "c/l5", "c/l6", "c/l7", "c/l8"}
	var wg sync.WaitGroup
	for _, k := range keys {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			store.MarkLessonComplete(ctx, k)
		}(k)
	}
	wg.Wait()

	if got := store.CompletedCount(ctx); got != len(keys) {
		t.Errorf("CompletedCount() = %d, want %d", got, len(keys))
	}
}
