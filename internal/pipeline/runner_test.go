package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwiz/internal/export"
	"docwiz/internal/knowledge"
	"docwiz/internal/outline"
	"docwiz/internal/wizard"
)

type scriptedGenerator struct {
	outlineErr error
	failing    map[string]bool
}

func (g scriptedGenerator) GenerateOutline(ctx context.Context, req knowledge.OutlineRequest) knowledge.Result[knowledge.OutlineDraft] {
	if g.outlineErr != nil {
		return knowledge.Err[knowledge.OutlineDraft](g.outlineErr)
	}
	return knowledge.Ok(knowledge.OutlineDraft{Sections: []knowledge.DraftSection{
		{Title: "Savings", Subtopics: []string{"401k", "IRA"}},
	}})
}

func (g scriptedGenerator) GenerateContent(ctx context.Context, req knowledge.ContentRequest) knowledge.Result[string] {
	if g.failing[req.SubtopicTitle] {
		return knowledge.Err[string](errors.New("rate limited"))
	}
	return knowledge.Ok(strings.Repeat("Saving early compounds over decades. ", 20))
}

func newTestRunner(gen knowledge.Generator) *Runner {
	mgr := wizard.NewManager(wizard.Deps{
		Generator: gen,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return &Runner{Sessions: mgr, Out: io.Discard}
}

func readReport(t *testing.T, path string) RunReport {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rep RunReport
	require.NoError(t, json.Unmarshal(data, &rep))
	return rep
}

func TestRunComplete(t *testing.T) {
	dir := t.TempDir()
	r := newTestRunner(scriptedGenerator{})

	res, err := r.Run(context.Background(), outline.Topic{MainTopic: "Retirement Basics"}, export.FormatMarkdown, dir)
	require.NoError(t, err)

	assert.True(t, res.Complete)
	assert.True(t, res.Summary.Done)
	assert.Equal(t, filepath.Join(dir, "Retirement_Basics.md"), res.Path)
	assert.FileExists(t, res.Path)
	assert.Contains(t, res.Preview, "### 1.2. IRA")
	assert.Equal(t, 0, r.Sessions.Len(), "session is closed after the run")

	rep := readReport(t, filepath.Join(dir, ReportFile))
	assert.Equal(t, "Retirement Basics", rep.Topic)
	assert.Equal(t, "Retirement_Basics.md", rep.Artifact)
	var names []string
	for _, st := range rep.Stages {
		names = append(names, st.Name)
		assert.Equal(t, "ok", st.Status, st.Name)
	}
	assert.Equal(t, []string{"outline", "content", "preview", "export"}, names)
	require.Len(t, rep.Items, 2)
	assert.Equal(t, "1.1.", rep.Items[0].Label)
	assert.Equal(t, "filled", rep.Items[0].Status)
	assert.Equal(t, 100, rep.Items[0].Words)
	assert.Equal(t, 0, rep.Summary.FailedStages)
}

func TestRunWithFailuresStillExports(t *testing.T) {
	dir := t.TempDir()
	r := newTestRunner(scriptedGenerator{failing: map[string]bool{"IRA": true}})

	res, err := r.Run(context.Background(), outline.Topic{MainTopic: "Tides"}, export.FormatDOCX, dir)
	require.NoError(t, err)
	assert.False(t, res.Complete)
	require.Len(t, res.Summary.Failed, 1)
	assert.FileExists(t, filepath.Join(dir, "Tides.docx"))

	rep := readReport(t, res.ReportPath)
	codes := map[string]string{}
	for _, s := range rep.Signals {
		codes[s.Code] = s.Severity
	}
	assert.Equal(t, "warning", codes["content_failed"])
	assert.Equal(t, "critical", codes["content_incomplete"])
	assert.Equal(t, "critical", rep.Signals[0].Severity, "signals are sorted by severity")
	assert.Equal(t, 1, rep.Summary.SignalsBySeverity["critical"])
	assert.Equal(t, 1, rep.Summary.EmptyItems)

	stages := map[string]string{}
	for _, st := range rep.Stages {
		stages[st.Name] = st.Status
	}
	assert.Equal(t, "partial", stages["content"])
	assert.Equal(t, "skipped", stages["preview"])
	assert.Equal(t, "ok", stages["export"])

	statuses := map[string]string{}
	for _, it := range rep.Items {
		statuses[it.Title] = it.Status
	}
	assert.Equal(t, map[string]string{"401k": "filled", "IRA": "failed"}, statuses)
}

func TestRunFallbackOutline(t *testing.T) {
	dir := t.TempDir()
	r := newTestRunner(scriptedGenerator{outlineErr: errors.New("quota")})

	res, err := r.Run(context.Background(), outline.Topic{MainTopic: "Tides"}, export.FormatExcel, dir)
	require.NoError(t, err)
	assert.True(t, res.Complete, "the default outline comes prefilled")
	assert.Equal(t, 0, res.Summary.Planned)
	assert.Equal(t, "Introduction", res.Outline.Sections[0].Title)

	rep := readReport(t, res.ReportPath)
	require.NotEmpty(t, rep.Signals)
	assert.Equal(t, "outline_fallback", rep.Signals[0].Code)
	for _, it := range rep.Items {
		assert.Contains(t, it.QualityIssues, "too_short")
	}
}

func TestRunInvalidTopicSavesReport(t *testing.T) {
	dir := t.TempDir()
	r := newTestRunner(scriptedGenerator{})

	_, err := r.Run(context.Background(), outline.Topic{MainTopic: " "}, export.FormatPDF, dir)
	require.ErrorIs(t, err, wizard.ErrInvalidTopic)

	rep := readReport(t, filepath.Join(dir, ReportFile))
	require.Len(t, rep.Stages, 1)
	assert.Equal(t, "error", rep.Stages[0].Status)
	assert.Equal(t, 1, rep.Summary.FailedStages)
}

func TestAssessContent(t *testing.T) {
	good := strings.TrimSpace(strings.Repeat("word ", 110))
	assert.Equal(t, contentQuality{Score: 1, Issues: []string{}}, assessContent(good))

	assert.Equal(t, []string{"empty_content"}, assessContent("  ").Issues)

	q := assessContent("# Heading\n\n- bullet one\n- bullet two")
	assert.Contains(t, q.Issues, "too_short")
	assert.Contains(t, q.Issues, "markdown_formatting")
	assert.Contains(t, q.Issues, "multiple_paragraphs")
	assert.Less(t, q.Score, 0.5)

	assert.Contains(t, assessContent(good+" [insert citation]").Issues, "placeholder_text")
}
