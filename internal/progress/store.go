package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNoRecord is returned by Backend.Read when the slot is empty.
var ErrNoRecord = errors.New("progress: no record")

const backendTimeout = 5 * time.Second

// Backend is a single durable key-value slot holding the serialized record.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
}

// Store owns the completion set. None of its methods fail: a corrupt or
// missing record reads as empty, and failed writes are logged while the
// completion is held in memory until the next successful write.
type Store struct {
	backend Backend
	mu      sync.Mutex
	pending []string // completions the backend has not accepted yet
}

// NewStore creates a store over backend. A nil backend selects an in-memory
// slot.
func NewStore(backend Backend) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Store{backend: backend}
}

// Load returns the current record.
func (s *Store) Load(ctx context.Context) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _ := s.load(ctx)
	return rec
}

// Save overwrites the persisted record.
func (s *Store) Save(ctx context.Context, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(ctx, rec)
}

// MarkLessonComplete adds key to the record if it is absent.
func (s *Store) MarkLessonComplete(ctx context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, readOK := s.load(ctx)
	if rec.Contains(key) {
		return
	}
	rec.CompletedLessons = append(rec.CompletedLessons, key)

	if !readOK {
		// Writing now would replace the durable record with a partial one.
		s.pending = append(s.pending, key)
		slog.Warn("progress record unreadable, holding completion in memory", "key", key)
		return
	}
	s.save(ctx, rec)
}

// IsLessonComplete reports whether key has been completed.
func (s *Store) IsLessonComplete(ctx context.Context, key string) bool {
	return s.Load(ctx).Contains(key)
}

// CompletedCount returns the number of completed keys.
func (s *Store) CompletedCount(ctx context.Context) int {
	return len(s.Load(ctx).CompletedLessons)
}

// Completed returns the current completion set.
func (s *Store) Completed(ctx context.Context) CompletionSet {
	return s.Load(ctx).Set()
}

// Clear deletes the persisted record and anything held in memory.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	if err := s.backend.Delete(ctx); err != nil {
		slog.Error("failed to clear progress record", "error", err)
		return
	}
	slog.Info("progress cleared")
}

// load reads the backend and merges pending completions. readOK is false when
// the backend itself failed, as opposed to holding no or corrupt data.
func (s *Store) load(ctx context.Context) (rec Record, readOK bool) {
	data, err := s.backend.Read(ctx)
	switch {
	case errors.Is(err, ErrNoRecord):
		rec = EmptyRecord()
	case err != nil:
		slog.Error("failed to read progress record", "error", err)
		return EmptyRecord().merge(s.pending), false
	default:
		rec, err = DecodeRecord(data)
		if err != nil {
			slog.Warn("discarding corrupt progress record", "error", err)
			rec = EmptyRecord()
		}
	}
	return rec.merge(s.pending), true
}

func (s *Store) save(ctx context.Context, rec Record) {
	data, err := EncodeRecord(rec)
	if err == nil {
		err = s.backend.Write(ctx, data)
	}
	if err != nil {
		s.pending = EmptyRecord().merge(s.pending).merge(rec.CompletedLessons).CompletedLessons
		slog.Error("failed to save progress record",
			"error", err,
			"pending", len(s.pending),
		)
		return
	}
	s.pending = nil
}
