package knowledge

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultGeminiOutlineModel = "gemini-2.0-flash"
	defaultGeminiContentModel = "gemini-2.0-flash-lite"
	defaultOpenAIModel        = "gpt-4o-mini"
)

type GeneratorOptions struct {
	Provider     string
	APIKey       string
	OutlineModel string
	ContentModel string
	BaseURL      string
	Persona      string
}

func NewGenerator(ctx context.Context, opts GeneratorOptions) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}

	gen := &llmGenerator{
		outlineModel:  opts.OutlineModel,
		contentModel:  opts.ContentModel,
		promptBuilder: &PromptBuilder{Persona: opts.Persona},
	}
	switch provider {
	case "gemini":
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, fmt.Errorf("gemini api key is required")
		}
		backend, err := NewGeminiBackend(ctx, opts.APIKey)
		if err != nil {
			return nil, err
		}
		gen.backend = backend
		gen.outlineModel = firstNonEmpty(gen.outlineModel, defaultGeminiOutlineModel)
		gen.contentModel = firstNonEmpty(gen.contentModel, defaultGeminiContentModel)
	case "openai":
		gen.backend = NewOpenAIBackend(opts.APIKey, opts.BaseURL)
		gen.outlineModel = firstNonEmpty(gen.outlineModel, defaultOpenAIModel)
		gen.contentModel = firstNonEmpty(gen.contentModel, gen.outlineModel)
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", opts.Provider)
	}
	return gen, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
