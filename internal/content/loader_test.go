package content_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/p-n-ai/weblearn/internal/content"
)

func TestLoader_LoadCourses(t *testing.T) {
	dir := setupTestCatalog(t)

	loader, err := content.NewDirLoader(dir)
	if err != nil {
		t.Fatalf("NewDirLoader() error = %v", err)
	}

	courses := loader.Courses()
	if len(courses) != 2 {
		t.Fatalf("Courses() = %d courses, want 2", len(courses))
	}
	if courses[0].ID != "html-basics" || courses[1].ID != "css-styling" {
		t.Errorf("Courses() order = [%s %s], want [html-basics css-styling]", courses[0].ID, courses[1].ID)
	}
}

func TestLoader_Course(t *testing.T) {
	loader := newTestLoader(t)

	course, found := loader.Course("html-basics")
	if !found {
		t.Fatal("Course(html-basics) not found")
	}
	if course.Title != "HTML Fundamentals" {
		t.Errorf("Title = %q, want HTML Fundamentals", course.Title)
	}
	if course.Level != content.LevelBeginner {
		t.Errorf("Level = %q, want Beginner (canonicalised from lowercase)", course.Level)
	}
	if len(course.Sections) != 2 {
		t.Fatalf("Sections = %d, want 2", len(course.Sections))
	}
	if got := course.Sections[0].Lessons[1].ID; got != "lesson-1-2" {
		t.Errorf("Sections[0].Lessons[1].ID = %q, want lesson-1-2", got)
	}
}

func TestLoader_Course_NotFound(t *testing.T) {
	loader := newTestLoader(t)

	_, found := loader.Course("rust-basics")
	if found {
		t.Error("Course(rust-basics) should not be found")
	}
}

func TestLoader_DeclaredLessonCountIsNotEnforced(t *testing.T) {
	loader := newTestLoader(t)

	course, _ := loader.Course("html-basics")
	if course.LessonCount != 12 {
		t.Errorf("LessonCount = %d, want declared 12", course.LessonCount)
	}
	if course.ActualLessonCount() != 3 {
		t.Errorf("ActualLessonCount() = %d, want 3", course.ActualLessonCount())
	}
}

func TestLoader_Lesson_IsScopedByCourse(t *testing.T) {
	loader := newTestLoader(t)

	html, found := loader.Lesson("html-basics", "lesson-1-1")
	if !found {
		t.Fatal("Lesson(html-basics, lesson-1-1) not found")
	}
	css, found := loader.Lesson("css-styling", "lesson-1-1")
	if !found {
		t.Fatal("Lesson(css-styling, lesson-1-1) not found")
	}
	if html.Title == css.Title {
		t.Errorf("lessons sharing an id across courses resolved to the same body %q", html.Title)
	}
	if html.Exercise == nil || html.Exercise.Solution == "" {
		t.Error("html lesson-1-1 should carry an exercise with a solution")
	}

	if _, found := loader.Lesson("html-basics", "lesson-9-9"); found {
		t.Error("Lesson(html-basics, lesson-9-9) should not be found")
	}
}

func TestLoader_LessonByID(t *testing.T) {
	loader := newTestLoader(t)

	tests := []struct {
		name      string
		id        string
		wantErr   error
		wantTitle string
	}{
		{"unique", "lesson-2-1", nil, "Headings and Paragraphs"},
		{"ambiguous", "lesson-1-1", content.ErrAmbiguous, ""},
		{"unknown", "lesson-7-7", content.ErrNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lesson, err := loader.LessonByID(tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LessonByID(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
			if lesson.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", lesson.Title, tt.wantTitle)
			}
		})
	}
}

func TestLoader_LessonBundleInheritsCourseID(t *testing.T) {
	loader := newTestLoader(t)

	lesson, found := loader.Lesson("css-styling", "lesson-1-2")
	if !found {
		t.Fatal("bundled lesson css-styling/lesson-1-2 not found")
	}
	if lesson.CourseID != "css-styling" {
		t.Errorf("CourseID = %q, want css-styling", lesson.CourseID)
	}
}

func TestLoader_SkipsInvalidFiles(t *testing.T) {
	dir := setupTestCatalog(t)

	write(t, filepath.Join(dir, "broken.course.yaml"), "id: [unterminated")
	write(t, filepath.Join(dir, "nolevel.course.yaml"), "id: odd\ntitle: Odd\nlevel: expert\n")
	write(t, filepath.Join(dir, "orphan.lesson.yaml"), "id: lesson-x\ntitle: No course\n")
	write(t, filepath.Join(dir, "notes.yaml"), "id: not-a-course\n")

	loader, err := content.NewDirLoader(dir)
	if err != nil {
		t.Fatalf("NewDirLoader() error = %v", err)
	}

	if got := len(loader.Courses()); got != 2 {
		t.Errorf("Courses() = %d, want 2 (invalid files skipped)", got)
	}
	if _, err := loader.LessonByID("lesson-x"); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("lesson without course_id should be skipped, got err = %v", err)
	}
}

func TestLoader_EmptyDir(t *testing.T) {
	loader, err := content.NewDirLoader(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirLoader() error = %v", err)
	}
	if got := len(loader.Courses()); got != 0 {
		t.Errorf("Courses() = %d, want 0 for empty dir", got)
	}
}

func TestLoader_MissingDir(t *testing.T) {
	_, err := content.NewDirLoader(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("NewDirLoader() should error for a missing directory")
	}
}

func TestLoader_FromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"a/solo.course.yaml": {Data: []byte(`
id: solo
title: Solo
level: Intermediate
lesson_count: 1
sections:
  - id: s1
    title: Only
    lessons:
      - id: l1
        title: One
`)},
		"a/solo.lesson.yaml": {Data: []byte("id: l1\ncourse_id: solo\ntitle: One\ncontent: hello\n")},
	}

	loader, err := content.NewLoader(fsys)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	lesson, err := loader.LessonByID("l1")
	if err != nil {
		t.Fatalf("LessonByID(l1) error = %v", err)
	}
	if lesson.Content != "hello" {
		t.Errorf("Content = %q, want hello", lesson.Content)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    content.Level
		wantErr bool
	}{
		{"Beginner", content.LevelBeginner, false},
		{"beginner", content.LevelBeginner, false},
		{" INTERMEDIATE ", content.LevelIntermediate, false},
		{"advanced", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := content.ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func newTestLoader(t *testing.T) *content.Loader {
	t.Helper()
	loader, err := content.NewDirLoader(setupTestCatalog(t))
	if err != nil {
		t.Fatalf("NewDirLoader() error = %v", err)
	}
	return loader
}

func write(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func setupTestCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	htmlDir := filepath.Join(dir, "html")
	cssDir := filepath.Join(dir, "css")
	if err := os.MkdirAll(htmlDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(cssDir, 0o755); err != nil {
		t.Fatal(err)
	}

	write(t, filepath.Join(htmlDir, "html-basics.course.yaml"), `
id: html-basics
title: "HTML Fundamentals"
level: beginner
topic: "Learn the Building Blocks of the Web"
lesson_count: 12
estimated_hours: 6
order: 1
learning_outcomes:
  - "Understand HTML structure and syntax"
sections:
  - id: section-1
    title: "Getting Started"
    lessons:
      - id: lesson-1-1
        title: "What is HTML?"
      - id: lesson-1-2
        title: "HTML Document Structure"
  - id: section-2
    title: "Text and Formatting"
    lessons:
      - id: lesson-2-1
        title: "Headings and Paragraphs"
`)

	write(t, filepath.Join(htmlDir, "lesson-1-1.lesson.yaml"), `
id: lesson-1-1
course_id: html-basics
title: "What is HTML?"
content: "HTML is the standard language for creating web pages."
key_points:
  - "HTML stands for HyperText Markup Language"
exercise:
  title: "Create a Simple HTML Page"
  description: "Write a heading that says Welcome."
  solution: "<h1>Welcome</h1>"
  language: html
`)

	write(t, filepath.Join(htmlDir, "lesson-1-2.lesson.yaml"), `
id: lesson-1-2
course_id: html-basics
title: "HTML Document Structure"
content: "Every HTML document has a head and a body."
`)

	write(t, filepath.Join(htmlDir, "lesson-2-1.lesson.yml"), `
id: lesson-2-1
course_id: html-basics
title: "Headings and Paragraphs"
content: "HTML provides six levels of headings."
`)

	write(t, filepath.Join(cssDir, "css-styling.course.yaml"), `
id: css-styling
title: "CSS Styling"
level: Intermediate
lesson_count: 2
order: 2
sections:
  - id: section-1
    title: "CSS Fundamentals"
    lessons:
      - id: lesson-1-1
        title: "What is CSS?"
      - id: lesson-1-2
        title: "Selectors and Specificity"
`)

	write(t, filepath.Join(cssDir, "css-styling.lessons.yaml"), `
course_id: css-styling
lessons:
  - id: lesson-1-1
    title: "What is CSS?"
    content: "CSS describes how HTML elements are displayed."
  - id: lesson-1-2
    title: "Selectors and Specificity"
    content: "Selectors target elements."
`)

	return dir
}
