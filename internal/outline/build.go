package outline

import "fmt"

// SectionSpec describes a section by titles only, as produced by an outline
// generator.
type SectionSpec struct {
	Title     string
	Subtopics []string
}

// Build creates a fully selected outline with fresh ids and empty content.
// Sections without subtopics get a default one.
func Build(mainTopic string, specs []SectionSpec) Outline {
	o := Outline{MainTopic: mainTopic, Sections: make([]Section, 0, len(specs))}
	for _, spec := range specs {
		sec := Section{
			ID:         freshID(func(id string) bool { return o.sectionIndex(id) >= 0 }),
			Title:      spec.Title,
			IsSelected: true,
		}
		titles := spec.Subtopics
		if len(titles) == 0 {
			titles = []string{DefaultSubtopicTitle}
		}
		for _, title := range titles {
			sec.Subtopics = append(sec.Subtopics, SubTopic{
				ID:         freshID(func(id string) bool { return sec.subtopicIndex(id) >= 0 }),
				Title:      title,
				IsSelected: true,
			})
		}
		o.Sections = append(o.Sections, sec)
	}
	return o
}

// Default is the static outline used when outline generation fails. Its
// subtopics come prefilled so the wizard can reach the preview offline.
func Default(mainTopic string) Outline {
	return Outline{
		MainTopic: mainTopic,
		Sections: []Section{{
			ID:         "1",
			Title:      "Introduction",
			IsSelected: true,
			Subtopics: []SubTopic{
				{
					ID:         "1-1",
					Title:      "Background",
					IsSelected: true,
					Content:    fmt.Sprintf("This section provides a comprehensive background on %s.", mainTopic),
				},
				{
					ID:         "1-2",
					Title:      "Research Question",
					IsSelected: true,
					Content:    fmt.Sprintf("The primary research question this document addresses is related to %s.", mainTopic),
				},
			},
		}},
	}
}
