// Package events records learner actions such as a passed exercise. It is an
// observability hook: nothing in the core reads events back.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// Event types.
const (
	LessonCompleted = "lesson_completed"
	ExercisePassed  = "exercise_passed"
	ProgressCleared = "progress_cleared"
)

// Event is one learner action.
type Event struct {
	Type      string
	CourseID  string
	LessonID  string
	Data      map[string]any
	CreatedAt time.Time
}

// Logger defines event logging behavior.
type Logger interface {
	LogEvent(ctx context.Context, event Event) error
}

// SlogLogger writes events to the default slog logger.
type SlogLogger struct{}

func (SlogLogger) LogEvent(_ context.Context, event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	slog.Info(eventMessage(event.Type),
		"event", event.Type,
		"course_id", event.CourseID,
		"lesson_id", event.LessonID,
	)
	return nil
}

func eventMessage(t string) string {
	switch t {
	case LessonCompleted:
		return "lesson completed"
	case ExercisePassed:
		return "exercise passed"
	case ProgressCleared:
		return "progress cleared"
	default:
		return "learner event"
	}
}

// Multi fans an event out to several loggers. Every logger is called; the
// first error is returned.
type Multi []Logger

func (m Multi) LogEvent(ctx context.Context, event Event) error {
	var first error
	for _, l := range m {
		if err := l.LogEvent(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MemoryLogger stores events in memory for tests.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{
		events: []Event{},
	}
}

func (l *MemoryLogger) LogEvent(_ context.Context, event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

const createEventsTable = `CREATE TABLE IF NOT EXISTS learning_events (
	id         BIGSERIAL PRIMARY KEY,
	event_type TEXT NOT NULL,
	course_id  TEXT NOT NULL DEFAULT '',
	lesson_id  TEXT NOT NULL DEFAULT '',
	data       JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresLogger inserts events into the learning_events table.
type PostgresLogger struct {
	pool *pgxpool.Pool
}

// NewPostgresLogger creates the learning_events table if needed.
func NewPostgresLogger(ctx context.Context, pool *pgxpool.Pool) (*PostgresLogger, error) {
	if pool == nil {
		return nil, fmt.Errorf("event logger pool is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := pool.Exec(ctx, createEventsTable); err != nil {
		return nil, fmt.Errorf("create learning_events: %w", err)
	}
	return &PostgresLogger{pool: pool}, nil
}

func (l *PostgresLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO learning_events (event_type, course_id, lesson_id, data, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		event.Type,
		event.CourseID,
		event.LessonID,
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.Type,
		"course_id", event.CourseID,
		"lesson_id", event.LessonID,
	)
	return nil
}
