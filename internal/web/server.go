// Package web serves the course catalog and the learner-facing progression
// API over HTTP and WebSocket.
package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/p-n-ai/weblearn/internal/content"
	"github.com/p-n-ai/weblearn/internal/events"
	"github.com/p-n-ai/weblearn/internal/progress"
	"github.com/p-n-ai/weblearn/internal/progression"
)

// ContentSource is the read-only catalog the server exposes.
type ContentSource interface {
	Courses() []content.Course
	Course(id string) (content.Course, bool)
	Lesson(courseID, lessonID string) (content.Lesson, bool)
	LessonByID(lessonID string) (content.Lesson, error)
}

// Config holds the server's collaborators.
type Config struct {
	Content ContentSource
	Store   *progress.Store
	Events  events.Logger
	// Ready reports whether backing services are reachable. Nil means always
	// ready.
	Ready func(ctx context.Context) error
}

// Server wires the catalog, progress store and progression engine to HTTP.
type Server struct {
	content ContentSource
	store   *progress.Store
	engine  *progression.Engine
	events  events.Logger
	ready   func(ctx context.Context) error
}

// New creates a server. Content is required; a nil Store selects an in-memory
// one and nil Events logs through slog.
func New(cfg Config) (*Server, error) {
	if cfg.Content == nil {
		return nil, fmt.Errorf("content source is required")
	}
	store := cfg.Store
	if store == nil {
		store = progress.NewStore(nil)
	}
	ev := cfg.Events
	if ev == nil {
		ev = events.SlogLogger{}
	}
	return &Server{
		content: cfg.Content,
		store:   store,
		engine:  progression.NewEngine(progression.EngineConfig{Store: store}),
		events:  ev,
		ready:   cfg.Ready,
	}, nil
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/courses", s.handleCourses)
	mux.HandleFunc("GET /api/courses/{courseID}", s.handleCourse)
	mux.HandleFunc("GET /api/courses/{courseID}/lessons/{lessonID}", s.handleLesson)
	mux.HandleFunc("GET /api/lessons/{lessonID}", s.handleLessonByID)

	mux.HandleFunc("GET /api/courses/{courseID}/progress", s.handleCourseProgress)
	mux.HandleFunc("GET /api/courses/{courseID}/progress.xlsx", s.handleProgressExport)
	mux.HandleFunc("GET /api/courses/{courseID}/lessons/{lessonID}/navigation", s.handleNavigation)
	mux.HandleFunc("POST /api/courses/{courseID}/lessons/{lessonID}/complete", s.handleComplete)
	mux.HandleFunc("POST /api/courses/{courseID}/lessons/{lessonID}/grade", s.handleGrade)
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("DELETE /api/progress", s.handleClearProgress)

	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
