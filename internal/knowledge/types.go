package knowledge

import (
	"context"
	"errors"

	"docwiz/internal/outline"
)

// ErrInvalidOutline marks a provider payload that failed schema or
// semantic validation.
var ErrInvalidOutline = errors.New("invalid outline payload")

// OutlineRequest asks for a section/subtopic skeleton.
type OutlineRequest struct {
	Topic        string
	Level        string
	TargetLength int // pages
}

// ContentRequest asks for the body text of one subtopic.
type ContentRequest struct {
	MainTopic     string
	SectionTitle  string
	SubtopicTitle string
	Level         string
}

// OutlineDraft is the validated outline payload returned by a provider.
type OutlineDraft struct {
	Sections []DraftSection `json:"sections"`
}

type DraftSection struct {
	Title     string   `json:"title"`
	Subtopics []string `json:"subtopics"`
}

// Outline converts the draft into a fully selected tree with fresh ids.
func (d OutlineDraft) Outline(mainTopic string) outline.Outline {
	specs := make([]outline.SectionSpec, 0, len(d.Sections))
	for _, s := range d.Sections {
		specs = append(specs, outline.SectionSpec{Title: s.Title, Subtopics: s.Subtopics})
	}
	return outline.Build(mainTopic, specs)
}

// Generator is the remote AI collaborator. Both calls return a tagged
// result so nothing unvalidated crosses into the outline model.
type Generator interface {
	GenerateOutline(ctx context.Context, req OutlineRequest) Result[OutlineDraft]
	GenerateContent(ctx context.Context, req ContentRequest) Result[string]
}

// Result is either Ok(value) or Err(reason).
type Result[T any] struct {
	value T
	err   error
}

func Ok[T any](v T) Result[T] { return Result[T]{value: v} }

func Err[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown generation failure")
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsOk() bool { return r.err == nil }

// Unwrap returns the payload or the failure reason.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// Reason is nil for Ok results.
func (r Result[T]) Reason() error { return r.err }
