// Package outline holds the document tree edited by the wizard and the pure
// operations that transform it. Every operation returns a new Outline and
// leaves its argument untouched.
package outline

import (
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultSectionTitle  = "New Section"
	DefaultSubtopicTitle = "New Subtopic"
	DefaultLevel         = "Undergraduate"
	DefaultLength        = 10
)

// Outline is the root aggregate: a main topic and its ordered sections.
type Outline struct {
	MainTopic string    `json:"mainTopic"`
	Sections  []Section `json:"sections"`
}

type Section struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	IsSelected bool       `json:"isSelected"`
	Subtopics  []SubTopic `json:"subtopics"`
}

type SubTopic struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	IsSelected bool   `json:"isSelected"`
	Content    string `json:"content"`
}

// Topic is what the user typed on the first wizard step.
type Topic struct {
	MainTopic      string `json:"mainTopic" yaml:"main_topic"`
	Description    string `json:"topicDescription,omitempty" yaml:"description"`
	DocumentLength int    `json:"documentLength" yaml:"document_length"`
	OutputFormat   string `json:"outputFormat,omitempty" yaml:"output_format"`
	AcademicLevel  string `json:"academicLevel,omitempty" yaml:"academic_level"`
	CitationFormat string `json:"citationFormat,omitempty" yaml:"citation_format"`
}

// Normalize trims the free-text fields and fills in defaults.
func (t Topic) Normalize() Topic {
	t.MainTopic = strings.TrimSpace(t.MainTopic)
	t.Description = strings.TrimSpace(t.Description)
	t.AcademicLevel = strings.TrimSpace(t.AcademicLevel)
	if t.AcademicLevel == "" {
		t.AcademicLevel = DefaultLevel
	}
	if t.DocumentLength <= 0 {
		t.DocumentLength = DefaultLength
	}
	return t
}

// Level returns the level hint passed to the generators.
func (t Topic) Level() string {
	if lvl := strings.TrimSpace(t.AcademicLevel); lvl != "" {
		return lvl
	}
	return DefaultLevel
}

// HasContent reports whether the subtopic has been filled.
func (s SubTopic) HasContent() bool {
	return s.Content != ""
}

// Clone returns a deep copy so callers can hand the result to another owner.
func (o Outline) Clone() Outline {
	out := Outline{MainTopic: o.MainTopic}
	if o.Sections == nil {
		return out
	}
	out.Sections = make([]Section, len(o.Sections))
	for i, s := range o.Sections {
		out.Sections[i] = s.clone()
	}
	return out
}

func (s Section) clone() Section {
	cp := s
	cp.Subtopics = append([]SubTopic(nil), s.Subtopics...)
	return cp
}

// Section returns the section with the given id.
func (o Outline) Section(id string) (Section, bool) {
	if i := o.sectionIndex(id); i >= 0 {
		return o.Sections[i], true
	}
	return Section{}, false
}

// Subtopic returns the subtopic addressed by (sectionID, subtopicID).
func (o Outline) Subtopic(sectionID, subtopicID string) (SubTopic, bool) {
	sec, ok := o.Section(sectionID)
	if !ok {
		return SubTopic{}, false
	}
	if j := sec.subtopicIndex(subtopicID); j >= 0 {
		return sec.Subtopics[j], true
	}
	return SubTopic{}, false
}

func (o Outline) sectionIndex(id string) int {
	for i := range o.Sections {
		if o.Sections[i].ID == id {
			return i
		}
	}
	return -1
}

func (s Section) subtopicIndex(id string) int {
	for j := range s.Subtopics {
		if s.Subtopics[j].ID == id {
			return j
		}
	}
	return -1
}

// newID is swapped out in tests that need deterministic ids.
var newID = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// freshID keeps drawing ids until one is not in use by a sibling.
func freshID(taken func(string) bool) string {
	for {
		id := newID()
		if id != "" && !taken(id) {
			return id
		}
	}
}
