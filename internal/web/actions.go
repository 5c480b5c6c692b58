package web

import (
	"context"
	"log/slog"

	"github.com/p-n-ai/weblearn/internal/content"
	"github.com/p-n-ai/weblearn/internal/events"
	"github.com/p-n-ai/weblearn/internal/grader"
	"github.com/p-n-ai/weblearn/internal/progression"
)

// The actions below back both the HTTP handlers and the WebSocket commands.

// CourseProgress is the completion view of one course.
type CourseProgress struct {
	CourseID    string                    `json:"courseId"`
	Title       string                    `json:"title"`
	Sections    []progression.SectionView `json:"sections"`
	Progress    progression.Progress      `json:"progress"`
	FirstLesson *content.LessonRef        `json:"firstLesson"`
}

func (s *Server) course(courseID string) (content.Course, error) {
	course, ok := s.content.Course(courseID)
	if !ok {
		return content.Course{}, errCourseNotFound
	}
	return course, nil
}

func (s *Server) courseProgress(ctx context.Context, courseID string) (CourseProgress, error) {
	course, err := s.course(courseID)
	if err != nil {
		return CourseProgress{}, err
	}
	view := s.engine.View(ctx, course)
	out := CourseProgress{
		CourseID: course.ID,
		Title:    course.Title,
		Sections: view.Sections,
		Progress: progression.ComputeProgress(view.Sections),
	}
	if first, ok := progression.FirstLesson(course); ok {
		out.FirstLesson = &first
	}
	return out, nil
}

func (s *Server) navigate(ctx context.Context, courseID, lessonID string) (progression.Navigation, error) {
	course, err := s.course(courseID)
	if err != nil {
		return progression.Navigation{}, err
	}
	nav, ok := s.engine.Navigate(ctx, course, lessonID)
	if !ok {
		return progression.Navigation{}, errLessonNotFound
	}
	return nav, nil
}

// complete marks a lesson of the course outline complete and returns the
// updated navigation state. It does not require the exercise to be passed.
func (s *Server) complete(ctx context.Context, courseID, lessonID string) (progression.Navigation, error) {
	course, err := s.course(courseID)
	if err != nil {
		return progression.Navigation{}, err
	}
	if progression.Locate(progression.Flatten(course), lessonID) == progression.NotFound {
		return progression.Navigation{}, errLessonNotFound
	}

	alreadyDone := s.engine.IsLessonComplete(ctx, courseID, lessonID)
	s.engine.MarkComplete(ctx, courseID, lessonID)
	if !alreadyDone {
		s.logEvent(ctx, events.Event{Type: events.LessonCompleted, CourseID: courseID, LessonID: lessonID})
	}

	nav, _ := s.engine.Navigate(ctx, course, lessonID)
	return nav, nil
}

// grade checks answer against the lesson's exercise. It never records
// completion.
func (s *Server) grade(ctx context.Context, courseID, lessonID, answer string) (grader.Result, error) {
	if _, err := s.course(courseID); err != nil {
		return grader.Result{}, err
	}
	lesson, ok := s.content.Lesson(courseID, lessonID)
	if !ok {
		return grader.Result{}, errLessonNotFound
	}
	if lesson.Exercise == nil {
		return grader.Result{}, errNoExercise
	}

	result := grader.Check(answer, lesson.Exercise.Solution)
	if result.Correct {
		s.logEvent(ctx, events.Event{
			Type:     events.ExercisePassed,
			CourseID: courseID,
			LessonID: lessonID,
			Data:     map[string]any{"exercise": lesson.Exercise.Title},
		})
	}
	return result, nil
}

func (s *Server) logEvent(ctx context.Context, event events.Event) {
	if err := s.events.LogEvent(ctx, event); err != nil {
		slog.Warn("failed to log event", "type", event.Type, "error", err)
	}
}
