package export

import (
	"strings"
)

// Markdown renders the document for terminals and the preview step.
type Markdown struct{}

func (Markdown) Project(doc Document) ([]byte, error) {
	return []byte(RenderMarkdown(doc)), nil
}

func RenderMarkdown(doc Document) string {
	var b strings.Builder
	b.WriteString("# " + doc.Title + "\n\n")
	if sub := doc.Subtitle(); sub != "" {
		b.WriteString("_" + sub + "_\n\n")
	}
	b.WriteString("Prepared by: " + doc.PreparedBy + "  \n")
	b.WriteString("Date: " + doc.DateText() + "\n")
	if doc.Institution != "" {
		b.WriteString("  \n" + doc.Institution + "\n")
	}

	b.WriteString("\n## Table of Contents\n\n")
	for _, sec := range doc.Sections {
		b.WriteString("- " + sec.Heading() + "\n")
		for _, st := range sec.Subtopics {
			b.WriteString("  - " + st.Heading() + "\n")
		}
	}

	for _, sec := range doc.Sections {
		b.WriteString("\n## " + sec.Heading() + "\n")
		for _, st := range sec.Subtopics {
			b.WriteString("\n### " + st.Heading() + "\n")
			if content := strings.TrimSpace(st.Content); content != "" {
				b.WriteString("\n" + content + "\n")
			}
		}
	}
	return b.String()
}
