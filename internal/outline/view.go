package outline

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Selected returns the outline restricted to selected sections and, within
// them, selected subtopics. Order is preserved.
func Selected(o Outline) Outline {
	out := Outline{MainTopic: o.MainTopic, Sections: []Section{}}
	for _, s := range o.Sections {
		if !s.IsSelected {
			continue
		}
		sec := Section{ID: s.ID, Title: s.Title, IsSelected: true, Subtopics: []SubTopic{}}
		for _, st := range s.Subtopics {
			if st.IsSelected {
				sec.Subtopics = append(sec.Subtopics, st)
			}
		}
		out.Sections = append(out.Sections, sec)
	}
	return out
}

// NumberedSection is a section annotated with its 1-based position.
type NumberedSection struct {
	Ordinal   int
	Label     string // "3."
	Title     string
	Subtopics []NumberedSubtopic
}

type NumberedSubtopic struct {
	Ordinal int
	Label   string // "3.2."
	Title   string
	Content string
}

// Heading returns "3. Title".
func (n NumberedSection) Heading() string { return n.Label + " " + n.Title }

// Heading returns "3.2. Title".
func (n NumberedSubtopic) Heading() string { return n.Label + " " + n.Title }

// Number assigns ordinals by position in o, ignoring ids. Callers usually
// pass Selected(o) so numbering has no gaps.
func Number(o Outline) []NumberedSection {
	out := make([]NumberedSection, 0, len(o.Sections))
	for i, s := range o.Sections {
		ns := NumberedSection{
			Ordinal:   i + 1,
			Label:     fmt.Sprintf("%d.", i+1),
			Title:     s.Title,
			Subtopics: make([]NumberedSubtopic, 0, len(s.Subtopics)),
		}
		for j, st := range s.Subtopics {
			ns.Subtopics = append(ns.Subtopics, NumberedSubtopic{
				Ordinal: j + 1,
				Label:   fmt.Sprintf("%d.%d.", i+1, j+1),
				Title:   st.Title,
				Content: st.Content,
			})
		}
		out = append(out, ns)
	}
	return out
}

// Stats summarizes content readiness over the selected subtopics.
type Stats struct {
	SelectedSections  int  `json:"selectedSections"`
	SelectedSubtopics int  `json:"selectedSubtopics"`
	Filled            int  `json:"filled"`
	Progress          int  `json:"progress"`
	AllGenerated      bool `json:"allContentGenerated"`
}

func ComputeStats(o Outline) Stats {
	var st Stats
	for _, s := range o.Sections {
		if !s.IsSelected {
			continue
		}
		st.SelectedSections++
		for _, sub := range s.Subtopics {
			if !sub.IsSelected {
				continue
			}
			st.SelectedSubtopics++
			if sub.HasContent() {
				st.Filled++
			}
		}
	}
	st.Progress = Progress(st.Filled, st.SelectedSubtopics)
	st.AllGenerated = st.SelectedSubtopics > 0 && st.Filled == st.SelectedSubtopics
	return st
}

// Progress is round(100 * filled / total), 0 when there is nothing to fill.
func Progress(filled, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(filled) / float64(total)))
}

// AllContentGenerated reports whether every selected subtopic has content.
func AllContentGenerated(o Outline) bool {
	return ComputeStats(o).AllGenerated
}

func AnySectionSelected(o Outline) bool {
	for _, s := range o.Sections {
		if s.IsSelected {
			return true
		}
	}
	return false
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid outline")

// Validate checks the structural invariants of an outline received from
// outside the package (API uploads, provider drafts).
func Validate(o Outline) error {
	seen := make(map[string]bool, len(o.Sections))
	for i, s := range o.Sections {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: section %d: id is required", ErrInvalid, i+1)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate section id: %s", ErrInvalid, s.ID)
		}
		seen[s.ID] = true
		if len(s.Subtopics) == 0 {
			return fmt.Errorf("%w: section %s: at least one subtopic is required", ErrInvalid, s.ID)
		}
		subSeen := make(map[string]bool, len(s.Subtopics))
		for j, st := range s.Subtopics {
			if strings.TrimSpace(st.ID) == "" {
				return fmt.Errorf("%w: section %s subtopic %d: id is required", ErrInvalid, s.ID, j+1)
			}
			if subSeen[st.ID] {
				return fmt.Errorf("%w: section %s: duplicate subtopic id: %s", ErrInvalid, s.ID, st.ID)
			}
			subSeen[st.ID] = true
		}
		if !s.IsSelected && anySubtopicSelected(s.Subtopics) {
			return fmt.Errorf("%w: section %s: deselected section has selected subtopics", ErrInvalid, s.ID)
		}
	}
	return nil
}
