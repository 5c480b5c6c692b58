// Package progression turns a course outline and a completion set into the
// navigable lesson sequence, completion view and progress counts.
package progression

import (
	"math"

	"github.com/p-n-ai/weblearn/internal/content"
	"github.com/p-n-ai/weblearn/internal/progress"
)

// NotFound is returned by Locate when the id is not in the sequence.
const NotFound = -1

// Direction selects the neighbour resolved by ResolveAdjacent.
type Direction int

const (
	Previous Direction = iota
	Next
)

func (d Direction) String() string {
	switch d {
	case Previous:
		return "previous"
	case Next:
		return "next"
	default:
		return "unknown"
	}
}

// FlattenedLesson is one position in the linear lesson sequence of a course.
type FlattenedLesson struct {
	content.LessonRef
	SectionIndex int  `json:"sectionIndex"`
	LessonIndex  int  `json:"lessonIndex"`
	Completed    bool `json:"completed"`
}

// LessonView is a lesson ref annotated with its completion state.
type LessonView struct {
	content.LessonRef
	Completed bool `json:"completed"`
}

// SectionView is a section whose lessons carry completion state.
type SectionView struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Lessons []LessonView `json:"lessons"`
}

// CourseView is the completion-annotated copy of a course outline.
type CourseView struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Sections []SectionView `json:"sections"`
}

// Progress summarises completion over a set of sections.
type Progress struct {
	CompletedCount int `json:"completedCount"`
	TotalCount     int `json:"totalCount"`
	Percentage     int `json:"percentage"`
}

// Flatten lists every lesson of the course in section order, then lesson
// order. It never looks at completion state.
func Flatten(course content.Course) []FlattenedLesson {
	flat := make([]FlattenedLesson, 0, course.ActualLessonCount())
	for si, s := range course.Sections {
		for li, ref := range s.Lessons {
			flat = append(flat, FlattenedLesson{LessonRef: ref, SectionIndex: si, LessonIndex: li})
		}
	}
	return flat
}

// FlattenView is Flatten over a CourseView, carrying completion flags along.
func FlattenView(view CourseView) []FlattenedLesson {
	var flat []FlattenedLesson
	for si, s := range view.Sections {
		for li, l := range s.Lessons {
			flat = append(flat, FlattenedLesson{
				LessonRef:    l.LessonRef,
				SectionIndex: si,
				LessonIndex:  li,
				Completed:    l.Completed,
			})
		}
	}
	return flat
}

// WithProgress derives the completion view of course. The course itself is
// not modified.
func WithProgress(course content.Course, completed progress.CompletionSet) CourseView {
	view := CourseView{
		ID:       course.ID,
		Title:    course.Title,
		Sections: make([]SectionView, len(course.Sections)),
	}
	for i, s := range course.Sections {
		lessons := make([]LessonView, len(s.Lessons))
		for j, ref := range s.Lessons {
			lessons[j] = LessonView{
				LessonRef: ref,
				Completed: completed.Has(progress.Key(course.ID, ref.ID)),
			}
		}
		view.Sections[i] = SectionView{ID: s.ID, Title: s.Title, Lessons: lessons}
	}
	return view
}

// ComputeProgress counts lessons across sections. With no lessons at all the
// percentage is 0.
func ComputeProgress(sections []SectionView) Progress {
	var p Progress
	for _, s := range sections {
		p.TotalCount += len(s.Lessons)
		for _, l := range s.Lessons {
			if l.Completed {
				p.CompletedCount++
			}
		}
	}
	if p.TotalCount > 0 {
		p.Percentage = int(math.Round(100 * float64(p.CompletedCount) / float64(p.TotalCount)))
	}
	return p
}

// Locate returns the first index of id in flat, or NotFound.
func Locate(flat []FlattenedLesson, id string) int {
	for i, l := range flat {
		if l.ID == id {
			return i
		}
	}
	return NotFound
}

// ResolveAdjacent returns the lesson before or after id. There is no
// wraparound, and an id missing from flat has no neighbours.
func ResolveAdjacent(flat []FlattenedLesson, id string, dir Direction) (content.LessonRef, bool) {
	i := Locate(flat, id)
	if i == NotFound {
		return content.LessonRef{}, false
	}
	switch dir {
	case Previous:
		i--
	case Next:
		i++
	default:
		return content.LessonRef{}, false
	}
	if i < 0 || i >= len(flat) {
		return content.LessonRef{}, false
	}
	return flat[i].LessonRef, true
}

// FirstLesson returns the lesson a learner lands on when opening course.
func FirstLesson(course content.Course) (content.LessonRef, bool) {
	for _, s := range course.Sections {
		if len(s.Lessons) > 0 {
			return s.Lessons[0], true
		}
	}
	return content.LessonRef{}, false
}
