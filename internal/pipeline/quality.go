package pipeline

import "strings"

// Target length of a generated subtopic paragraph, in words.
const (
	minWords = 60
	maxWords = 180
)

type contentQuality struct {
	Score  float64
	Issues []string
}

// assessContent scores generated text against what the content prompt asks
// for: one plain paragraph of roughly a hundred words.
func assessContent(content string) contentQuality {
	text := strings.TrimSpace(content)
	if text == "" {
		return contentQuality{Score: 0, Issues: []string{"empty_content"}}
	}

	score := 1.0
	issues := make([]string, 0, 5)

	words := len(strings.Fields(text))
	if words < minWords {
		score -= 0.25
		issues = append(issues, "too_short")
	}
	if words > maxWords {
		score -= 0.2
		issues = append(issues, "too_long")
	}
	if strings.Contains(text, "\n\n") {
		score -= 0.1
		issues = append(issues, "multiple_paragraphs")
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.Contains(line, "**") {
			score -= 0.25
			issues = append(issues, "markdown_formatting")
			break
		}
	}

	lower := strings.ToLower(text)
	placeholders := []string{"lorem ipsum", "tbd", "placeholder", "as an ai", "[insert"}
	for _, token := range placeholders {
		if strings.Contains(lower, token) {
			score -= 0.3
			issues = append(issues, "placeholder_text")
			break
		}
	}
	if score < 0 {
		score = 0
	}
	return contentQuality{Score: score, Issues: issues}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
