// Package wizard owns the per-user document session: the current step, the
// topic, the outline tree and the content engine working on it.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"docwiz/internal/export"
	"docwiz/internal/fill"
	"docwiz/internal/knowledge"
	"docwiz/internal/notify"
	"docwiz/internal/outline"
)

var (
	// ErrGuard is returned by Next when the current step's condition does
	// not hold, and by operations that belong to a later step.
	ErrGuard = errors.New("wizard step guard not satisfied")
	// ErrSessionClosed is returned after Close. It wraps fill.ErrDetached
	// so a running bulk generation stops at the next item.
	ErrSessionClosed = fmt.Errorf("session closed: %w", fill.ErrDetached)
	ErrNoOutline     = errors.New("no outline has been generated yet")
	ErrInvalidTopic  = errors.New("invalid topic")
)

// Deps are the collaborators shared by every session.
type Deps struct {
	// Generator may be nil, in which case every session uses the static
	// default outline and content generation fails per item.
	Generator knowledge.Generator
	Exporter  *export.Exporter
	Logger    *slog.Logger
	History   int
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Exporter == nil {
		d.Exporter = export.NewExporter(export.Options{})
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Session is the single owner of one wizard's state. All tree mutations go
// through it and are serialized by its mutex.
type Session struct {
	ID string

	gen      knowledge.Generator
	exporter *export.Exporter
	logger   *slog.Logger
	feed     *notify.Feed
	engine   *fill.Engine
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	step       Step
	topic      outline.Topic
	doc        outline.Outline
	hasDoc     bool
	closed     bool
	lastActive time.Time
	lastRun    *fill.Summary
}

func NewSession(id string, deps Deps) *Session {
	deps = deps.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	logger := deps.Logger.With("session", id)
	s := &Session{
		ID:         id,
		gen:        deps.Generator,
		exporter:   deps.Exporter,
		logger:     logger,
		feed:       notify.NewFeed(deps.History),
		now:        deps.Now,
		ctx:        ctx,
		cancel:     cancel,
		step:       StepTopic,
		lastActive: deps.Now(),
	}
	gen := deps.Generator
	if gen == nil {
		gen = unavailable{}
	}
	s.engine = fill.New(gen, fill.WithSink(s.feed), fill.WithLogger(logger))
	return s
}

// Outline returns a copy of the current tree. It implements fill.Tree.
func (s *Session) Outline() outline.Outline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Apply replaces the tree with fn(current). It implements fill.Tree and
// refuses updates once the session is closed.
func (s *Session) Apply(fn func(outline.Outline) outline.Outline) error {
	_, err := s.apply(fn)
	return err
}

func (s *Session) apply(fn func(outline.Outline) outline.Outline) (outline.Outline, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return outline.Outline{}, ErrSessionClosed
	}
	if !s.hasDoc {
		s.mu.Unlock()
		return outline.Outline{}, ErrNoOutline
	}
	s.doc = fn(s.doc.Clone())
	s.lastActive = s.now()
	out := s.doc.Clone()
	s.mu.Unlock()

	s.engine.Sync(out)
	s.feed.Publish(notify.Event{Kind: notify.KindOutline})
	return out, nil
}

// Edit applies a structural or text edit and returns the new tree.
func (s *Session) Edit(fn func(outline.Outline) outline.Outline) (outline.Outline, error) {
	return s.apply(fn)
}

// ReplaceOutline swaps in a client-supplied tree after validating it.
func (s *Session) ReplaceOutline(o outline.Outline) (outline.Outline, error) {
	if err := outline.Validate(o); err != nil {
		return outline.Outline{}, err
	}
	return s.apply(func(cur outline.Outline) outline.Outline {
		if strings.TrimSpace(o.MainTopic) == "" {
			o.MainTopic = cur.MainTopic
		}
		return o.Clone()
	})
}

// SubmitTopic generates the outline for t and moves to the outline step.
// A provider failure falls back to the default outline with a warning;
// only an invalid topic or a cancellation keeps the wizard on the topic
// step.
func (s *Session) SubmitTopic(ctx context.Context, t outline.Topic) error {
	t = t.Normalize()
	if t.MainTopic == "" {
		return fmt.Errorf("%w: main topic is required", ErrInvalidTopic)
	}
	if err := s.expectStep(StepTopic); err != nil {
		return err
	}
	s.touch()

	ctx, cancel := s.bind(ctx)
	defer cancel()

	doc, err := s.draftOutline(ctx, t)
	if err != nil {
		s.feed.Publish(notify.Error("Failed to generate outline. Please try again."))
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.topic = t
	s.doc = doc
	s.hasDoc = true
	s.step = StepOutline
	s.lastActive = s.now()
	s.mu.Unlock()
	s.engine.Sync(doc)

	s.logger.Info("outline ready", "topic", t.MainTopic, "sections", len(doc.Sections))
	s.feed.Publish(notify.Event{Kind: notify.KindOutline})
	s.feed.Publish(notify.Success("Outline generated successfully!"))
	s.publishStep(StepOutline)
	return nil
}

func (s *Session) draftOutline(ctx context.Context, t outline.Topic) (outline.Outline, error) {
	if s.gen == nil {
		s.feed.Publish(notify.Info("No AI provider configured; starting from the default outline."))
		return outline.Default(t.MainTopic), nil
	}

	res := s.gen.GenerateOutline(ctx, knowledge.OutlineRequest{
		Topic:        t.MainTopic,
		Level:        t.Level(),
		TargetLength: t.DocumentLength,
	})
	draft, err := res.Unwrap()
	if err == nil {
		return draft.Outline(t.MainTopic), nil
	}
	if s.ctx.Err() != nil {
		return outline.Outline{}, ErrSessionClosed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outline.Outline{}, ctxErr
	}

	s.logger.Warn("outline generation failed, using default outline", "topic", t.MainTopic, "error", err)
	s.feed.Publish(notify.Warning("Outline generation failed; a default outline was created instead."))
	return outline.Default(t.MainTopic), nil
}

// CanNext reports whether the current step's exit condition holds.
func (s *Session) CanNext() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canNextLocked()
}

func (s *Session) canNextLocked() bool {
	if s.closed {
		return false
	}
	switch s.step {
	case StepTopic:
		return s.hasDoc
	case StepOutline:
		return outline.AnySectionSelected(s.doc)
	case StepContent:
		return outline.AllContentGenerated(s.doc)
	}
	return false
}

// Next advances one step when the guard allows it.
func (s *Session) Next() (Step, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSessionClosed
	}
	if !s.canNextLocked() {
		step := s.step
		s.mu.Unlock()
		return step, fmt.Errorf("%w: cannot leave the %s step", ErrGuard, step)
	}
	s.step++
	step := s.step
	s.lastActive = s.now()
	s.mu.Unlock()

	s.publishStep(step)
	return step, nil
}

// Back returns to the previous step. Nothing is discarded; on the first
// step it is a no-op.
func (s *Session) Back() (Step, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSessionClosed
	}
	if s.step > StepTopic {
		s.step--
	}
	step := s.step
	s.lastActive = s.now()
	s.mu.Unlock()

	s.publishStep(step)
	return step, nil
}

func (s *Session) Step() Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

func (s *Session) Topic() outline.Topic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topic
}

// GenerateOne (re)generates one subtopic and waits for it.
func (s *Session) GenerateOne(ctx context.Context, sectionID, subtopicID string) error {
	if err := s.atLeast(StepContent); err != nil {
		return err
	}
	s.touch()
	ctx, cancel := s.bind(ctx)
	defer cancel()
	return s.engine.GenerateOne(ctx, s, s.Topic().Level(), fill.ItemKey{SectionID: sectionID, SubtopicID: subtopicID})
}

// GenerateAll fills every pending selected subtopic and waits for the run.
func (s *Session) GenerateAll(ctx context.Context) (fill.Summary, error) {
	if err := s.atLeast(StepContent); err != nil {
		return fill.Summary{}, err
	}
	run, err := s.engine.Reserve()
	if err != nil {
		return fill.Summary{}, err
	}
	return s.runBulk(ctx, run)
}

// StartGenerateAll claims the engine and runs the bulk generation in the
// background, bound to the session's lifetime. A second call while the
// first is still running gets fill.ErrBusy.
func (s *Session) StartGenerateAll() error {
	if err := s.atLeast(StepContent); err != nil {
		return err
	}
	run, err := s.engine.Reserve()
	if err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		summary, err := s.runBulk(s.ctx, run)
		if err != nil && !errors.Is(err, ErrSessionClosed) {
			s.logger.Warn("background generation stopped", "error", err)
			return
		}
		s.logger.Info("background generation finished", "filled", summary.Filled, "failed", len(summary.Failed))
	}()
	return nil
}

func (s *Session) runBulk(ctx context.Context, run fill.BulkRun) (fill.Summary, error) {
	s.touch()
	ctx, cancel := s.bind(ctx)
	defer cancel()

	summary, err := run(ctx, s, s.Topic().Level())
	s.mu.Lock()
	s.lastRun = &summary
	s.mu.Unlock()
	return summary, err
}

// Wait blocks until background generation started by StartGenerateAll
// has returned.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Export renders the selected outline. The outcome is also announced on
// the session feed.
func (s *Session) Export(format export.Format) (export.Artifact, error) {
	doc, topic, err := s.snapshot()
	if err != nil {
		return export.Artifact{}, err
	}
	s.touch()

	art, err := s.exporter.Export(doc, format, topic)
	if err != nil {
		s.logger.Error("export failed", "format", format, "error", err)
		s.feed.Publish(notify.Error("There was an error exporting your document. Please try again."))
		return export.Artifact{}, err
	}
	s.logger.Info("document exported", "format", format, "file", art.Filename, "bytes", len(art.Data))
	s.feed.Publish(notify.Success(fmt.Sprintf("Your document has been downloaded as %s.", format.Label())))
	return art, nil
}

// Preview returns the Markdown projection of the selected outline.
func (s *Session) Preview() (string, error) {
	doc, topic, err := s.snapshot()
	if err != nil {
		return "", err
	}
	return export.RenderMarkdown(s.exporter.Prepare(doc, topic)), nil
}

func (s *Session) snapshot() (outline.Outline, outline.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return outline.Outline{}, outline.Topic{}, ErrSessionClosed
	}
	if !s.hasDoc {
		return outline.Outline{}, outline.Topic{}, ErrNoOutline
	}
	return s.doc.Clone(), s.topic, nil
}

// View is the client-facing snapshot of a session.
type View struct {
	ID           string            `json:"id"`
	Step         Step              `json:"step"`
	StepName     string            `json:"stepName"`
	CanNext      bool              `json:"canNext"`
	CanBack      bool              `json:"canBack"`
	Topic        outline.Topic     `json:"topic"`
	Outline      *outline.Outline  `json:"outline,omitempty"`
	Stats        outline.Stats     `json:"stats"`
	IsGenerating bool              `json:"isGenerating"`
	Items        map[string]string `json:"items,omitempty"`
	LastRun      *fill.Summary     `json:"lastRun,omitempty"`
}

func (s *Session) View() View {
	s.mu.RLock()
	v := View{
		ID:       s.ID,
		Step:     s.step,
		StepName: s.step.String(),
		CanNext:  s.canNextLocked(),
		CanBack:  s.step > StepTopic && !s.closed,
		Topic:    s.topic,
	}
	if s.hasDoc {
		doc := s.doc.Clone()
		v.Outline = &doc
		v.Stats = outline.ComputeStats(doc)
	}
	if s.lastRun != nil {
		run := *s.lastRun
		v.LastRun = &run
	}
	s.mu.RUnlock()

	v.IsGenerating = s.engine.IsGenerating()
	v.Items = s.engine.Snapshot()
	return v
}

// Feed exposes the session's notification stream.
func (s *Session) Feed() *notify.Feed {
	return s.feed
}

func (s *Session) Busy() bool {
	return s.engine.Running()
}

func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close tears the session down. In-flight requests are canceled and their
// results discarded.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.feed.Close()
	s.logger.Info("session closed")
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

func (s *Session) publishStep(step Step) {
	s.feed.Publish(notify.Event{Kind: notify.KindStep, Step: int(step), Message: step.String()})
}

func (s *Session) expectStep(want Step) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.step != want {
		return fmt.Errorf("%w: expected the %s step, at %s", ErrGuard, want, s.step)
	}
	return nil
}

func (s *Session) atLeast(want Step) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.step < want {
		return fmt.Errorf("%w: at the %s step, need %s", ErrGuard, s.step, want)
	}
	return nil
}

// bind derives a context that is also canceled when the session closes.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// unavailable stands in for a missing provider.
type unavailable struct{}

var errNoProvider = errors.New("no AI provider configured")

func (unavailable) GenerateOutline(context.Context, knowledge.OutlineRequest) knowledge.Result[knowledge.OutlineDraft] {
	return knowledge.Err[knowledge.OutlineDraft](errNoProvider)
}

func (unavailable) GenerateContent(context.Context, knowledge.ContentRequest) knowledge.Result[string] {
	return knowledge.Err[string](errNoProvider)
}
