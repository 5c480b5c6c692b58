package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// apiError is an error with the HTTP status it maps to.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string { return e.Message }

var (
	errCourseNotFound = &apiError{http.StatusNotFound, "Course not found"}
	errLessonNotFound = &apiError{http.StatusNotFound, "Lesson not found"}
	errNoExercise     = &apiError{http.StatusNotFound, "Lesson has no exercise"}
	errAmbiguous      = &apiError{http.StatusConflict, "Lesson id is shared by several courses; use /api/courses/{courseID}/lessons/{lessonID}"}
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		slog.Error("request failed", "error", err)
		apiErr = &apiError{http.StatusInternalServerError, "Internal server error"}
	}
	writeJSON(w, apiErr.Status, map[string]string{"error": apiErr.Message})
}
