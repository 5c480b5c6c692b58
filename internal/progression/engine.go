package progression

import (
	"context"
	"log/slog"

	"github.com/p-n-ai/weblearn/internal/content"
	"github.com/p-n-ai/weblearn/internal/progress"
)

// CompletionStore is the part of the progress store the engine needs.
type CompletionStore interface {
	MarkLessonComplete(ctx context.Context, key string)
	IsLessonComplete(ctx context.Context, key string) bool
	Completed(ctx context.Context) progress.CompletionSet
}

// EngineConfig holds dependencies for the progression engine.
type EngineConfig struct {
	Store CompletionStore
}

// Engine answers completion and navigation queries against the store. It
// keeps no completion state of its own; every query reads the store.
type Engine struct {
	store CompletionStore
}

// NewEngine creates a new progression engine.
func NewEngine(cfg EngineConfig) *Engine {
	store := cfg.Store
	if store == nil {
		store = progress.NewStore(nil)
	}
	return &Engine{store: store}
}

// Navigation is everything the lesson page needs to render its controls.
// Previous and Next are nil at the ends of the sequence.
type Navigation struct {
	CourseID  string             `json:"courseId"`
	Current   content.LessonRef  `json:"current"`
	Position  int                `json:"position"` // 1-based index in the flattened sequence
	Total     int                `json:"total"`
	Previous  *content.LessonRef `json:"previous"`
	Next      *content.LessonRef `json:"next"`
	Completed bool               `json:"completed"`
	Progress  Progress           `json:"progress"`
}

// MarkComplete records lessonID of courseID as completed. Repeated calls are
// no-ops.
func (e *Engine) MarkComplete(ctx context.Context, courseID, lessonID string) {
	e.store.MarkLessonComplete(ctx, progress.Key(courseID, lessonID))
	slog.Debug("lesson marked complete", "course_id", courseID, "lesson_id", lessonID)
}

// IsLessonComplete reports whether lessonID of courseID is completed.
func (e *Engine) IsLessonComplete(ctx context.Context, courseID, lessonID string) bool {
	return e.store.IsLessonComplete(ctx, progress.Key(courseID, lessonID))
}

// View returns the completion view of course as the store sees it now.
func (e *Engine) View(ctx context.Context, course content.Course) CourseView {
	return WithProgress(course, e.store.Completed(ctx))
}

// Navigate resolves the neighbours of currentID. ok is false when currentID
// is not part of the course; Progress is still filled in that case.
func (e *Engine) Navigate(ctx context.Context, course content.Course, currentID string) (nav Navigation, ok bool) {
	view := e.View(ctx, course)
	flat := FlattenView(view)

	nav = Navigation{
		CourseID: course.ID,
		Total:    len(flat),
		Progress: ComputeProgress(view.Sections),
	}

	i := Locate(flat, currentID)
	if i == NotFound {
		return nav, false
	}

	nav.Current = flat[i].LessonRef
	nav.Position = i + 1
	nav.Completed = flat[i].Completed
	if prev, ok := ResolveAdjacent(flat, currentID, Previous); ok {
		nav.Previous = &prev
	}
	if next, ok := ResolveAdjacent(flat, currentID, Next); ok {
		nav.Next = &next
	}
	return nav, true
}
