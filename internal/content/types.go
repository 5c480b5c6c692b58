package content

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Level is the difficulty label of a course.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
)

// ParseLevel canonicalises a level label, so "beginner" and "BEGINNER" both
// become LevelBeginner.
func ParseLevel(s string) (Level, error) {
	l := Level(cases.Title(language.English).String(strings.TrimSpace(s)))
	switch l {
	case LevelBeginner, LevelIntermediate:
		return l, nil
	}
	return "", fmt.Errorf("unknown course level %q", s)
}

// Course is the top-level content unit.
type Course struct {
	ID               string    `yaml:"id" json:"id"`
	Title            string    `yaml:"title" json:"title"`
	Level            Level     `yaml:"level" json:"level"`
	Topic            string    `yaml:"topic" json:"topic"`
	Description      string    `yaml:"description" json:"description"`
	LessonCount      int       `yaml:"lesson_count" json:"lessonCount"` // editorial, not derived from Sections
	EstimatedHours   int       `yaml:"estimated_hours" json:"estimatedHours"`
	LearningOutcomes []string  `yaml:"learning_outcomes" json:"learningOutcomes"`
	Sections         []Section `yaml:"sections" json:"sections"`
	Order            int       `yaml:"order" json:"-"`
}

// ActualLessonCount returns the number of lesson refs across all sections.
func (c Course) ActualLessonCount() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Lessons)
	}
	return n
}

// Section groups lessons within a course. Lesson order is navigation order.
type Section struct {
	ID      string      `yaml:"id" json:"id"`
	Title   string      `yaml:"title" json:"title"`
	Lessons []LessonRef `yaml:"lessons" json:"lessons"`
}

// LessonRef is the lightweight projection of a lesson used in outlines.
type LessonRef struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

// Lesson is the full lesson body.
type Lesson struct {
	ID          string       `yaml:"id" json:"id"`
	CourseID    string       `yaml:"course_id" json:"courseId"`
	Title       string       `yaml:"title" json:"title"`
	Content     string       `yaml:"content" json:"content"`
	KeyPoints   []string     `yaml:"key_points" json:"keyPoints,omitempty"`
	CodeExample *CodeExample `yaml:"code_example" json:"codeExample,omitempty"`
	Exercise    *Exercise    `yaml:"exercise" json:"exercise,omitempty"`
}

// CodeExample is an illustrative snippet attached to a lesson.
type CodeExample struct {
	Code     string `yaml:"code" json:"code"`
	Language string `yaml:"language" json:"language"`
}

// Exercise is a free-form practice task graded against Solution.
type Exercise struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	StarterCode string   `yaml:"starter_code" json:"starterCode,omitempty"`
	Hints       []string `yaml:"hints" json:"hints,omitempty"`
	Solution    string   `yaml:"solution" json:"solution"`
	Language    string   `yaml:"language" json:"language"`
}
