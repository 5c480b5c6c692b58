// Package grader judges exercise answers by whitespace-normalised string
// equality. It is purely syntactic: attribute quoting, tag case and comments
// all count.
package grader

import "strings"

// tagSpace removes the single space left next to a tag delimiter once runs
// have been collapsed, so "<p> x </p>" and "<p>x</p>" compare equal.
var tagSpace = strings.NewReplacer("> ", ">", " <", "<")

// Result is the verdict returned to the learner. It carries no diff.
type Result struct {
	Correct bool `json:"correct"`
}

// Normalize trims s, collapses every whitespace run to a single space and
// drops whitespace touching '<' or '>'.
func Normalize(s string) string {
	return tagSpace.Replace(strings.Join(strings.Fields(s), " "))
}

// Grade reports whether submitted matches solution after normalisation.
// Comparison is case-sensitive.
func Grade(submitted, solution string) bool {
	return Normalize(submitted) == Normalize(solution)
}

// Check wraps Grade in a Result.
func Check(submitted, solution string) Result {
	return Result{Correct: Grade(submitted, solution)}
}
