// Package content serves the read-only course catalog: courses, their ordered
// sections and the full lesson bodies.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when a course or lesson id is unknown.
	ErrNotFound = errors.New("content: not found")
	// ErrAmbiguous is returned by LessonByID when the bare id exists in more
	// than one course.
	ErrAmbiguous = errors.New("content: lesson id is ambiguous across courses")
)

type lessonKey struct {
	courseID string
	lessonID string
}

// Loader loads the catalog once and serves it read-only.
type Loader struct {
	courses map[string]Course
	lessons map[lessonKey]Lesson
	owners  map[string][]string // lesson id -> course ids that define it
	mu      sync.RWMutex
}

// NewLoader loads every *.course.yaml, *.lesson.yaml and *.lessons.yaml file
// found under fsys.
func NewLoader(fsys fs.FS) (*Loader, error) {
	l := &Loader{
		courses: make(map[string]Course),
		lessons: make(map[lessonKey]Lesson),
		owners:  make(map[string][]string),
	}

	if err := l.loadAll(fsys); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	l.checkConsistency()

	slog.Info("catalog loaded", "courses", len(l.courses), "lessons", len(l.lessons))
	return l, nil
}

// NewDirLoader loads the catalog from a directory on disk.
func NewDirLoader(rootDir string) (*Loader, error) {
	if _, err := os.Stat(rootDir); err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	return NewLoader(os.DirFS(rootDir))
}

// Course returns a course by id.
func (l *Loader) Course(id string) (Course, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.courses[id]
	return c, ok
}

// Courses returns all courses ordered by their declared order, then id.
func (l *Loader) Courses() []Course {
	l.mu.RLock()
	defer l.mu.RUnlock()
	courses := make([]Course, 0, len(l.courses))
	for _, c := range l.courses {
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Order != courses[j].Order {
			return courses[i].Order < courses[j].Order
		}
		return courses[i].ID < courses[j].ID
	})
	return courses
}

// Lesson returns the body of lessonID within courseID.
func (l *Loader) Lesson(courseID, lessonID string) (Lesson, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lesson, ok := l.lessons[lessonKey{courseID, lessonID}]
	return lesson, ok
}

// LessonByID resolves a bare lesson id. It fails with ErrAmbiguous instead of
// guessing when two courses reuse the id.
func (l *Loader) LessonByID(lessonID string) (Lesson, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	owners := l.owners[lessonID]
	switch len(owners) {
	case 0:
		return Lesson{}, ErrNotFound
	case 1:
		return l.lessons[lessonKey{owners[0], lessonID}], nil
	default:
		return Lesson{}, fmt.Errorf("%w: %s defined by %s", ErrAmbiguous, lessonID, strings.Join(owners, ", "))
	}
}

func (l *Loader) loadAll(fsys fs.FS) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			slog.Warn("skipping unreadable catalog entry", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		name := path.Base(p)
		switch {
		case hasYAMLSuffix(name, ".course"):
			return l.loadCourse(fsys, p)
		case hasYAMLSuffix(name, ".lesson"):
			return l.loadLesson(fsys, p)
		case hasYAMLSuffix(name, ".lessons"):
			return l.loadLessonBundle(fsys, p)
		}
		return nil
	})
}

func (l *Loader) loadCourse(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var course Course
	if err := yaml.Unmarshal(data, &course); err != nil {
		slog.Warn("skipping invalid course YAML", "path", p, "error", err)
		return nil
	}
	if course.ID == "" {
		return nil
	}

	level, err := ParseLevel(string(course.Level))
	if err != nil {
		slog.Warn("skipping course with invalid level", "path", p, "course_id", course.ID, "error", err)
		return nil
	}
	course.Level = level

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.courses[course.ID]; dup {
		slog.Warn("duplicate course id, keeping first", "path", p, "course_id", course.ID)
		return nil
	}
	l.courses[course.ID] = course
	return nil
}

func (l *Loader) loadLesson(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var lesson Lesson
	if err := yaml.Unmarshal(data, &lesson); err != nil {
		slog.Warn("skipping invalid lesson YAML", "path", p, "error", err)
		return nil
	}
	l.addLesson(p, lesson)
	return nil
}

func (l *Loader) loadLessonBundle(fsys fs.FS, p string) error {
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}

	var bundle struct {
		CourseID string   `yaml:"course_id"`
		Lessons  []Lesson `yaml:"lessons"`
	}
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		slog.Warn("skipping invalid lesson bundle YAML", "path", p, "error", err)
		return nil
	}
	for _, lesson := range bundle.Lessons {
		if lesson.CourseID == "" {
			lesson.CourseID = bundle.CourseID
		}
		l.addLesson(p, lesson)
	}
	return nil
}

func (l *Loader) addLesson(p string, lesson Lesson) {
	if lesson.ID == "" {
		return
	}
	if lesson.CourseID == "" {
		slog.Warn("skipping lesson without course_id", "path", p, "lesson_id", lesson.ID)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	key := lessonKey{lesson.CourseID, lesson.ID}
	if _, dup := l.lessons[key]; dup {
		slog.Warn("duplicate lesson id in course, keeping first",
			"path", p,
			"course_id", lesson.CourseID,
			"lesson_id", lesson.ID,
		)
		return
	}
	l.lessons[key] = lesson
	l.owners[lesson.ID] = append(l.owners[lesson.ID], lesson.CourseID)
	sort.Strings(l.owners[lesson.ID])
}

// checkConsistency logs data hazards in the catalog. None of them is fatal.
func (l *Loader) checkConsistency() {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, c := range l.courses {
		if actual := c.ActualLessonCount(); actual != c.LessonCount {
			slog.Warn("declared lesson count differs from outline",
				"course_id", c.ID,
				"declared", c.LessonCount,
				"actual", actual,
			)
		}
		seen := make(map[string]bool)
		var missing []string
		for _, s := range c.Sections {
			for _, ref := range s.Lessons {
				if seen[ref.ID] {
					slog.Warn("lesson listed twice in outline", "course_id", c.ID, "lesson_id", ref.ID)
				}
				seen[ref.ID] = true
				if _, ok := l.lessons[lessonKey{c.ID, ref.ID}]; !ok {
					missing = append(missing, ref.ID)
				}
			}
		}
		if len(missing) > 0 {
			slog.Warn("outline references lessons without body",
				"course_id", c.ID,
				"count", len(missing),
				"lesson_ids", missing,
			)
		}
	}

	for key := range l.lessons {
		if _, ok := l.courses[key.courseID]; !ok {
			slog.Warn("lesson belongs to unknown course", "course_id", key.courseID, "lesson_id", key.lessonID)
		}
	}
}

func hasYAMLSuffix(name, kind string) bool {
	return strings.HasSuffix(name, kind+".yaml") || strings.HasSuffix(name, kind+".yml")
}
