// Package pipeline runs the whole wizard headlessly: topic, outline,
// content, preview and export, recording a run report on the way.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"docwiz/internal/export"
	"docwiz/internal/fill"
	"docwiz/internal/notify"
	"docwiz/internal/outline"
	"docwiz/internal/wizard"
)

const ReportFile = "run_report.json"

type Runner struct {
	Sessions *wizard.Manager
	// Out receives progress lines; nil means stdout.
	Out io.Writer
}

func NewRunner(sessions *wizard.Manager) *Runner {
	return &Runner{Sessions: sessions, Out: os.Stdout}
}

// Result is what a run produced.
type Result struct {
	Outline    outline.Outline
	Summary    fill.Summary
	Preview    string
	Artifact   export.Artifact
	Path       string
	ReportPath string
	// Complete is false when some selected subtopic is still empty.
	Complete bool
}

// Run drives one session from topic to exported file in outDir. The report
// is saved even when a stage fails.
func (r *Runner) Run(ctx context.Context, topic outline.Topic, format export.Format, outDir string) (res *Result, err error) {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	s := r.Sessions.Create()
	defer func() { _ = r.Sessions.Close(s.ID) }()

	report := NewRunReport(topic.MainTopic, string(format), outDir)
	res = &Result{ReportPath: filepath.Join(outDir, ReportFile)}
	defer func() {
		if saveErr := report.Save(res.ReportPath); saveErr != nil && err == nil {
			err = fmt.Errorf("failed to save run report: %w", saveErr)
		}
	}()

	if err := r.outlineStage(ctx, s, topic, report, out); err != nil {
		return res, err
	}
	if err := r.contentStage(ctx, s, report, out, res); err != nil {
		return res, err
	}
	r.previewStage(s, report, out, res)
	if err := r.exportStage(s, format, outDir, report, out, res); err != nil {
		return res, err
	}
	res.Outline = s.Outline()
	return res, nil
}

func (r *Runner) outlineStage(ctx context.Context, s *wizard.Session, topic outline.Topic, report *RunReport, out io.Writer) error {
	fmt.Fprintf(out, "🧭 Drafting outline for %q...\n", topic.MainTopic)
	st := report.stage("outline")
	if err := s.SubmitTopic(ctx, topic); err != nil {
		st.finish(StatusError, err)
		return fmt.Errorf("outline stage failed: %w", err)
	}

	for _, ev := range s.Feed().Since(0) {
		if ev.Kind == notify.KindWarning || ev.Kind == notify.KindInfo {
			st.note(ev.Message)
			st.signal(CodeOutlineFallback, SeverityWarning, ev.Message, 0)
		}
	}
	stats := outline.ComputeStats(s.Outline())
	st.count("sections", float64(stats.SelectedSections)).
		count("subtopics", float64(stats.SelectedSubtopics)).
		finish(StatusOK, nil)
	fmt.Fprintf(out, "  -> %d sections, %d subtopics\n", stats.SelectedSections, stats.SelectedSubtopics)

	if _, err := s.Next(); err != nil {
		return fmt.Errorf("cannot start content stage: %w", err)
	}
	return nil
}

func (r *Runner) contentStage(ctx context.Context, s *wizard.Session, report *RunReport, out io.Writer, res *Result) error {
	fmt.Fprintln(out, "✍️  Generating content...")
	st := report.stage("content")
	summary, err := s.GenerateAll(ctx)
	res.Summary = summary
	st.count("planned", float64(summary.Planned)).
		count("filled", float64(summary.Filled)).
		count("failed", float64(len(summary.Failed))).
		count("skipped", float64(summary.Skipped)).
		count("progress", float64(summary.Progress))
	if err != nil {
		st.finish(StatusError, err)
		return fmt.Errorf("content stage failed: %w", err)
	}
	for _, key := range summary.Failed {
		st.signal(CodeContentFailed, SeverityWarning, "no content generated for "+key.String(), 0)
	}

	status := StatusOK
	if !summary.Done {
		status = StatusPartial
		st.signal(CodeContentIncomplete, SeverityCritical, "some selected subtopics have no content", float64(summary.Progress))
	}
	r.recordItems(s, st)
	st.finish(status, nil)
	fmt.Fprintf(out, "  -> %d filled, %d failed, progress %d%%\n", summary.Filled, len(summary.Failed), summary.Progress)
	return nil
}

func (r *Runner) recordItems(s *wizard.Session, st *stageRecorder) {
	states := s.View().Items
	selected := outline.Selected(s.Outline())
	numbered := outline.Number(selected)
	for i, sec := range selected.Sections {
		for j, sub := range sec.Subtopics {
			status := states[fill.ItemKey{SectionID: sec.ID, SubtopicID: sub.ID}.String()]
			if status == "" {
				status = fill.Idle.String()
				if sub.HasContent() {
					status = fill.Filled.String()
				}
			}
			q := assessContent(sub.Content)
			st.report.addItem(ItemMetric{
				SectionID:     sec.ID,
				SubtopicID:    sub.ID,
				Label:         numbered[i].Subtopics[j].Label,
				Title:         sub.Title,
				Status:        status,
				Words:         wordCount(sub.Content),
				QualityScore:  q.Score,
				QualityIssues: q.Issues,
			})
			if sub.HasContent() && q.Score < 0.5 {
				st.signal(CodeLowQuality, SeverityInfo, numbered[i].Subtopics[j].Heading()+" scored low", q.Score)
			}
		}
	}
}

func (r *Runner) previewStage(s *wizard.Session, report *RunReport, out io.Writer, res *Result) {
	st := report.stage("preview")
	status := StatusOK
	if _, err := s.Next(); err != nil {
		status = StatusSkipped
		st.note("preview step not reached: " + err.Error())
	}
	md, err := s.Preview()
	res.Preview = md
	res.Complete = s.Step() == wizard.StepPreview
	st.count("bytes", float64(len(md))).finish(status, err)
	if status == StatusOK {
		fmt.Fprintln(out, "👀 Preview ready.")
	} else {
		fmt.Fprintln(out, "⚠️  Preview skipped: content is incomplete.")
	}
}

func (r *Runner) exportStage(s *wizard.Session, format export.Format, outDir string, report *RunReport, out io.Writer, res *Result) error {
	st := report.stage("export")
	art, err := s.Export(format)
	if err != nil {
		st.finish(StatusError, err)
		return fmt.Errorf("export stage failed: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		st.finish(StatusError, err)
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outDir, art.Filename)
	if err := os.WriteFile(path, art.Data, 0644); err != nil {
		st.finish(StatusError, err)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	report.Artifact = art.Filename
	st.count("bytes", float64(len(art.Data))).finish(StatusOK, nil)

	res.Artifact = art
	res.Path = path
	fmt.Fprintf(out, "📦 Exported %s (%d bytes)\n", path, len(art.Data))
	return nil
}
