package knowledge

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const outlineSchemaURL = "docwiz://outline.schema.json"

//go:embed outline.schema.json
var outlineSchemaJSON []byte

var (
	outlineSchemaOnce sync.Once
	outlineSchema     *jsonschema.Schema
	outlineSchemaErr  error
)

func compiledOutlineSchema() (*jsonschema.Schema, error) {
	outlineSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(outlineSchemaURL, bytes.NewReader(outlineSchemaJSON)); err != nil {
			outlineSchemaErr = err
			return
		}
		outlineSchema, outlineSchemaErr = compiler.Compile(outlineSchemaURL)
	})
	return outlineSchema, outlineSchemaErr
}

// ParseOutlineDraft validates a raw provider answer against the outline
// schema and returns the cleaned draft. Blank titles are rejected after
// trimming since the schema cannot see whitespace-only strings.
func ParseOutlineDraft(raw []byte) (OutlineDraft, error) {
	schema, err := compiledOutlineSchema()
	if err != nil {
		return OutlineDraft{}, fmt.Errorf("failed to compile outline schema: %w", err)
	}

	body := []byte(cleanJSONOutput(string(raw)))
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return OutlineDraft{}, fmt.Errorf("%w: not JSON: %v", ErrInvalidOutline, err)
	}
	if err := schema.Validate(v); err != nil {
		return OutlineDraft{}, fmt.Errorf("%w: schema validation failed: %v", ErrInvalidOutline, err)
	}

	var draft OutlineDraft
	if err := json.Unmarshal(body, &draft); err != nil {
		return OutlineDraft{}, fmt.Errorf("%w: %v", ErrInvalidOutline, err)
	}
	for i := range draft.Sections {
		sec := &draft.Sections[i]
		sec.Title = strings.TrimSpace(sec.Title)
		if sec.Title == "" {
			return OutlineDraft{}, fmt.Errorf("%w: section %d has a blank title", ErrInvalidOutline, i+1)
		}
		subs := sec.Subtopics[:0]
		for _, st := range sec.Subtopics {
			if st = strings.TrimSpace(st); st != "" {
				subs = append(subs, st)
			}
		}
		if len(subs) == 0 {
			return OutlineDraft{}, fmt.Errorf("%w: section %q has no usable subtopics", ErrInvalidOutline, sec.Title)
		}
		sec.Subtopics = subs
	}
	return draft, nil
}
