package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/p-n-ai/weblearn/internal/content"
	"github.com/p-n-ai/weblearn/internal/events"
)

const maxAnswerBytes = 64 << 10

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	courses := s.content.Courses()
	if courses == nil {
		courses = []content.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.course(r.PathValue("courseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	lesson, ok := s.content.Lesson(r.PathValue("courseID"), r.PathValue("lessonID"))
	if !ok {
		writeError(w, errLessonNotFound)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (s *Server) handleLessonByID(w http.ResponseWriter, r *http.Request) {
	lesson, err := s.content.LessonByID(r.PathValue("lessonID"))
	switch {
	case errors.Is(err, content.ErrAmbiguous):
		writeError(w, errAmbiguous)
	case errors.Is(err, content.ErrNotFound):
		writeError(w, errLessonNotFound)
	case err != nil:
		writeError(w, err)
	default:
		writeJSON(w, http.StatusOK, lesson)
	}
}

func (s *Server) handleCourseProgress(w http.ResponseWriter, r *http.Request) {
	cp, err := s.courseProgress(r.Context(), r.PathValue("courseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	nav, err := s.navigate(r.Context(), r.PathValue("courseID"), r.PathValue("lessonID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nav)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	nav, err := s.complete(r.Context(), r.PathValue("courseID"), r.PathValue("lessonID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nav)
}

type gradeRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnswerBytes)).Decode(&req); err != nil {
		writeError(w, &apiError{http.StatusBadRequest, "Invalid request body"})
		return
	}

	result, err := s.grade(r.Context(), r.PathValue("courseID"), r.PathValue("lessonID"), req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type progressResponse struct {
	CompletedLessons []string `json:"completedLessons"`
	CompletedCount   int      `json:"completedCount"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	rec := s.store.Load(r.Context())
	writeJSON(w, http.StatusOK, progressResponse{
		CompletedLessons: rec.CompletedLessons,
		CompletedCount:   len(rec.CompletedLessons),
	})
}

func (s *Server) handleClearProgress(w http.ResponseWriter, r *http.Request) {
	s.store.Clear(r.Context())
	s.logEvent(r.Context(), events.Event{Type: events.ProgressCleared})
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
