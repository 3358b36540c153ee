// Package fill drives AI content generation for the subtopics of an
// outline, one request at a time.
package fill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"docwiz/internal/knowledge"
	"docwiz/internal/notify"
	"docwiz/internal/outline"
)

var (
	// ErrBusy is returned when a generation is already in flight.
	ErrBusy = errors.New("content generation already in progress")
	// ErrNotFound is returned for an unknown (section, subtopic) pair.
	ErrNotFound = errors.New("subtopic not found")
	// ErrDetached is wrapped by Tree implementations whose owner is gone.
	ErrDetached = errors.New("outline detached from its session")
	// ErrGeneration wraps provider failures and empty responses.
	ErrGeneration = errors.New("content generation failed")
)

// Tree is the engine's view of the session-owned outline. Apply replaces
// the outline atomically with fn(current).
type Tree interface {
	Outline() outline.Outline
	Apply(fn func(outline.Outline) outline.Outline) error
}

// Engine generates subtopic content. At most one generation runs at a
// time, whether started by GenerateOne or GenerateAll.
type Engine struct {
	gen        knowledge.Generator
	sink       notify.Sink
	logger     *slog.Logger
	onProgress func(int)

	mu      sync.Mutex
	running bool
	states  map[ItemKey]ItemState
}

type Option func(*Engine)

func WithSink(s notify.Sink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProgress registers the progress callback, called with the current
// percentage after every completed item.
func WithProgress(fn func(int)) Option {
	return func(e *Engine) { e.onProgress = fn }
}

func New(gen knowledge.Generator, opts ...Option) *Engine {
	e := &Engine{
		gen:    gen,
		sink:   notify.Discard,
		logger: slog.Default(),
		states: make(map[ItemKey]ItemState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary describes one bulk run.
type Summary struct {
	Planned  int       `json:"planned"`
	Filled   int       `json:"filled"`
	Failed   []ItemKey `json:"failed,omitempty"`
	Skipped  int       `json:"skipped"`
	Progress int       `json:"progress"`
	Done     bool      `json:"done"`
	Canceled bool      `json:"canceled"`
}

// GenerateOne (re)generates a single subtopic regardless of its current
// content.
func (e *Engine) GenerateOne(ctx context.Context, tree Tree, level string, key ItemKey) error {
	if !e.acquire() {
		return ErrBusy
	}
	defer e.release()

	title, err := e.generateItem(ctx, tree, level, key)
	if err != nil {
		return err
	}
	e.sink.Publish(notify.Success(fmt.Sprintf("Generated content for %q", title)))
	e.reportProgress(tree)
	return nil
}

// GenerateAll fills every selected subtopic of every selected section that
// has no content yet, in tree order, strictly one at a time. A failed item
// is reported and skipped; the run continues with the next one.
func (e *Engine) GenerateAll(ctx context.Context, tree Tree, level string) (Summary, error) {
	if !e.acquire() {
		return Summary{}, ErrBusy
	}
	defer e.release()
	return e.generateAll(ctx, tree, level)
}

// BulkRun is a bulk generation whose engine slot is already held.
type BulkRun func(ctx context.Context, tree Tree, level string) (Summary, error)

// Reserve claims the engine for a GenerateAll that runs later, typically on
// another goroutine. The returned run releases the engine when it returns
// and must be called exactly once.
func (e *Engine) Reserve() (BulkRun, error) {
	if !e.acquire() {
		return nil, ErrBusy
	}
	return func(ctx context.Context, tree Tree, level string) (Summary, error) {
		defer e.release()
		return e.generateAll(ctx, tree, level)
	}, nil
}

func (e *Engine) generateAll(ctx context.Context, tree Tree, level string) (Summary, error) {
	queue := pendingItems(tree.Outline())
	summary := Summary{Planned: len(queue)}
	e.logger.Info("bulk content generation started", "items", len(queue))

	var stopErr error
	for _, key := range queue {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		// The tree may have been edited since the queue was built.
		if !stillPending(tree.Outline(), key) {
			summary.Skipped++
			continue
		}
		if _, err := e.generateItem(ctx, tree, level, key); err != nil {
			if errors.Is(err, ErrDetached) {
				stopErr = err
				break
			}
			summary.Failed = append(summary.Failed, key)
		} else {
			summary.Filled++
		}
		e.reportProgress(tree)
	}

	summary.Canceled = stopErr != nil
	stats := outline.ComputeStats(tree.Outline())
	summary.Progress = stats.Progress
	summary.Done = stats.AllGenerated
	e.logger.Info("bulk content generation finished",
		"filled", summary.Filled, "failed", len(summary.Failed), "progress", summary.Progress, "canceled", summary.Canceled)

	switch {
	case summary.Canceled:
		return summary, stopErr
	case summary.Done:
		e.sink.Publish(notify.Success("Content generation complete!"))
	case len(summary.Failed) > 0:
		e.sink.Publish(notify.Warning(fmt.Sprintf("Content generation finished with %d failed subtopic(s)", len(summary.Failed))))
	}
	return summary, nil
}

// pendingItems lists selected, still empty subtopics in tree order.
func pendingItems(doc outline.Outline) []ItemKey {
	var keys []ItemKey
	for _, s := range doc.Sections {
		if !s.IsSelected {
			continue
		}
		for _, st := range s.Subtopics {
			if st.IsSelected && !st.HasContent() {
				keys = append(keys, ItemKey{SectionID: s.ID, SubtopicID: st.ID})
			}
		}
	}
	return keys
}

func stillPending(doc outline.Outline, key ItemKey) bool {
	sec, ok := doc.Section(key.SectionID)
	if !ok || !sec.IsSelected {
		return false
	}
	st, ok := doc.Subtopic(key.SectionID, key.SubtopicID)
	return ok && st.IsSelected && !st.HasContent()
}

// generateItem runs one request. The Generating flag is set right before the
// call and replaced by Filled or Failed on every return path.
func (e *Engine) generateItem(ctx context.Context, tree Tree, level string, key ItemKey) (string, error) {
	doc := tree.Outline()
	sec, ok := doc.Section(key.SectionID)
	if !ok {
		return "", ErrNotFound
	}
	st, ok := doc.Subtopic(key.SectionID, key.SubtopicID)
	if !ok {
		return "", ErrNotFound
	}

	final := Failed
	e.setState(key, Generating)
	defer func() { e.setState(key, final) }()

	req := knowledge.ContentRequest{
		MainTopic:     doc.MainTopic,
		SectionTitle:  sec.Title,
		SubtopicTitle: st.Title,
		Level:         level,
	}
	text, err := e.gen.GenerateContent(ctx, req).Unwrap()
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = errors.New("empty content")
		}
	}
	if err != nil {
		e.logger.Error("content generation failed", "section", sec.Title, "subtopic", st.Title, "error", err)
		e.sink.Publish(notify.Error(fmt.Sprintf("Failed to generate content for %q", st.Title)))
		return st.Title, fmt.Errorf("%w for %q: %w", ErrGeneration, st.Title, err)
	}

	if err := tree.Apply(func(o outline.Outline) outline.Outline {
		return outline.SetSubtopicContent(o, key.SectionID, key.SubtopicID, text)
	}); err != nil {
		return st.Title, err
	}
	final = Filled
	return st.Title, nil
}

func (e *Engine) reportProgress(tree Tree) {
	pct := outline.ComputeStats(tree.Outline()).Progress
	if e.onProgress != nil {
		e.onProgress(pct)
	}
	e.sink.Publish(notify.Progress(pct))
}

func (e *Engine) acquire() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	return true
}

func (e *Engine) release() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

func (e *Engine) setState(key ItemKey, s ItemState) {
	e.mu.Lock()
	e.states[key] = s
	e.mu.Unlock()
	e.sink.Publish(notify.Event{
		Kind:       notify.KindItem,
		SectionID:  key.SectionID,
		SubtopicID: key.SubtopicID,
		State:      s.String(),
	})
}

// State returns the last known state of an item.
func (e *Engine) State(key ItemKey) ItemState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[key]
}

// IsItemGenerating reports the per-item busy flag.
func (e *Engine) IsItemGenerating(key ItemKey) bool {
	return e.State(key) == Generating
}

// IsGenerating is the OR of all per-item busy flags.
func (e *Engine) IsGenerating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.states {
		if s == Generating {
			return true
		}
	}
	return false
}

// Running reports whether a GenerateOne or GenerateAll call holds the engine.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Snapshot returns a copy of all non-idle item states keyed by "section-subtopic".
func (e *Engine) Snapshot() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.states))
	for k, s := range e.states {
		if s != Idle {
			out[k.String()] = s.String()
		}
	}
	return out
}

// Sync drops item states that no longer describe doc: subtopics that were
// deleted or replaced, and failures whose content has since been written.
// In-flight items are kept.
func (e *Engine) Sync(doc outline.Outline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, s := range e.states {
		if s == Generating {
			continue
		}
		st, ok := doc.Subtopic(k.SectionID, k.SubtopicID)
		if !ok || (s == Failed && st.HasContent()) {
			delete(e.states, k)
		}
	}
}
