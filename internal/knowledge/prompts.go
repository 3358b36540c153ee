package knowledge

import (
	"fmt"
	"strings"
)

const defaultPersona = "You are a professional research writer who produces clear, well-organized documents for readers at the requested level of expertise."

// prompt is one provider request: system instruction, user text, and
// whether the answer must be a JSON object.
type prompt struct {
	System string
	User   string
	JSON   bool
}

// PromptBuilder constructs the outline and content prompts.
type PromptBuilder struct {
	Persona string
}

func (pb *PromptBuilder) persona() string {
	if pb == nil || strings.TrimSpace(pb.Persona) == "" {
		return defaultPersona
	}
	return pb.Persona
}

func (pb *PromptBuilder) BuildOutlinePrompt(req OutlineRequest) prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a comprehensive research document outline for the topic: %q.\n", req.Topic)
	sb.WriteString("Requirements:\n")
	fmt.Fprintf(&sb, "- Academic level: %s\n", req.Level)
	if req.TargetLength > 0 {
		fmt.Fprintf(&sb, "- Target length: ~%d pages\n", req.TargetLength)
	}
	sb.WriteString("- Structure: Use clear academic sections (e.g., Introduction, Literature Review, Methodology, Results, Discussion, Conclusion).\n")
	sb.WriteString("- Each section should have 2-4 unique, non-overlapping subtopics.\n")
	sb.WriteString("- Avoid repetition and ensure logical flow.\n")
	sb.WriteString("- Output only the outline structure, no prose or explanations.\n")
	sb.WriteString("Respond with a single JSON object of the form ")
	sb.WriteString(`{"sections":[{"title":"...","subtopics":["...","..."]}]}`)
	sb.WriteString(" and nothing else.\n")
	return prompt{System: pb.persona(), User: sb.String(), JSON: true}
}

func (pb *PromptBuilder) BuildContentPrompt(req ContentRequest) prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a well-structured explanation (100-120 words) for the subtopic %q under the section %q of a document on %q.\n",
		req.SubtopicTitle, req.SectionTitle, req.MainTopic)
	sb.WriteString("Reader profile:\n")
	fmt.Fprintf(&sb, "- Experience level: %s\n", req.Level)
	sb.WriteString("- Use language that is respectful, concise, and informative.\n")
	sb.WriteString("- Avoid technical jargon unless suitable for the reader's level.\n")
	sb.WriteString("- Do NOT use markdown formatting, bullet points, or any headings.\n")
	sb.WriteString("- Respond with a clean, single paragraph only.\n")
	return prompt{System: pb.persona(), User: sb.String()}
}
