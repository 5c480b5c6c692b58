// Package progress persists the set of completed lessons for the whole
// installation in a single key-value slot.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrCorruptRecord is returned by DecodeRecord for payloads that are not a
// valid progress record.
var ErrCorruptRecord = errors.New("progress: corrupt record")

const recordSchemaJSON = `{
  "type": "object",
  "required": ["completedLessons"],
  "properties": {
    "completedLessons": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var recordSchema = mustSchema(recordSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("progress: compile record schema: %v", err))
	}
	return s
}

// Record is the persisted form of the completion set. CompletedLessons is a
// set stored as a list; its order carries no meaning.
type Record struct {
	CompletedLessons []string `json:"completedLessons"`
}

// EmptyRecord returns a record with no completions.
func EmptyRecord() Record {
	return Record{CompletedLessons: []string{}}
}

// Contains reports whether key is in the record.
func (r Record) Contains(key string) bool {
	for _, k := range r.CompletedLessons {
		if k == key {
			return true
		}
	}
	return false
}

// Set returns the record as a CompletionSet.
func (r Record) Set() CompletionSet {
	return NewCompletionSet(r.CompletedLessons...)
}

// merge returns r with every key of extra that r lacks appended.
func (r Record) merge(extra []string) Record {
	out := Record{CompletedLessons: make([]string, 0, len(r.CompletedLessons)+len(extra))}
	seen := make(map[string]bool, len(r.CompletedLessons)+len(extra))
	for _, list := range [][]string{r.CompletedLessons, extra} {
		for _, k := range list {
			if seen[k] {
				continue
			}
			seen[k] = true
			out.CompletedLessons = append(out.CompletedLessons, k)
		}
	}
	return out
}

// DecodeRecord parses and validates a serialized record. Duplicate entries
// are dropped.
func DecodeRecord(data []byte) (Record, error) {
	result, err := recordSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Record{}, fmt.Errorf("%w: %s", ErrCorruptRecord, strings.Join(msgs, "; "))
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return EmptyRecord().merge(rec.CompletedLessons), nil
}

// EncodeRecord serializes a record as {"completedLessons": [...]}.
func EncodeRecord(r Record) ([]byte, error) {
	if r.CompletedLessons == nil {
		r.CompletedLessons = []string{}
	}
	return json.Marshal(r)
}

// CompletionSet is the set of completion keys.
type CompletionSet map[string]struct{}

// NewCompletionSet builds a set from keys.
func NewCompletionSet(keys ...string) CompletionSet {
	s := make(CompletionSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s CompletionSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys.
func (s CompletionSet) Len() int {
	return len(s)
}

// Key composes the completion key for a lesson. Lesson ids are only unique
// within a course, so the course id is part of the key; an empty courseID
// yields the bare lesson id.
func Key(courseID, lessonID string) string {
	if courseID == "" {
		return lessonID
	}
	return courseID + "/" + lessonID
}
