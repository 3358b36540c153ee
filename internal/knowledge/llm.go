package knowledge

import (
	"context"
	"errors"
	"fmt"
)

// completer is the single capability a provider backend must offer.
type completer interface {
	complete(ctx context.Context, model string, p prompt) (string, error)
}

// llmGenerator implements Generator on top of any completer.
type llmGenerator struct {
	backend       completer
	outlineModel  string
	contentModel  string
	promptBuilder *PromptBuilder
}

func (g *llmGenerator) GenerateOutline(ctx context.Context, req OutlineRequest) Result[OutlineDraft] {
	text, err := g.backend.complete(ctx, g.outlineModel, g.promptBuilder.BuildOutlinePrompt(req))
	if err != nil {
		return Err[OutlineDraft](fmt.Errorf("outline generation failed: %w", err))
	}
	draft, err := ParseOutlineDraft([]byte(text))
	if err != nil {
		return Err[OutlineDraft](err)
	}
	return Ok(draft)
}

func (g *llmGenerator) GenerateContent(ctx context.Context, req ContentRequest) Result[string] {
	text, err := g.backend.complete(ctx, g.contentModel, g.promptBuilder.BuildContentPrompt(req))
	if err != nil {
		return Err[string](fmt.Errorf("content generation failed: %w", err))
	}
	text = cleanTextOutput(text)
	if text == "" {
		return Err[string](errors.New("content generation returned no text"))
	}
	return Ok(text)
}
