package pipeline

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClockReport() *RunReport {
	r := NewRunReport("Tides", "md", "out")
	t0 := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		t0 = t0.Add(250 * time.Millisecond)
		return t0
	}
	return r
}

func TestStageRecorderFinish(t *testing.T) {
	r := fixedClockReport()

	r.stage("outline").count("sections", 3).finish(StatusOK, nil)
	st := r.stage("export")
	st.note("disk full")
	st.finish(StatusOK, errors.New("no space left"))

	require.Len(t, r.Stages, 2)
	assert.Equal(t, StageMetric{
		Name:       "outline",
		Status:     StatusOK,
		StartedAt:  "2025-03-14T09:00:00.25Z",
		FinishedAt: "2025-03-14T09:00:00.5Z",
		DurationMS: 250,
		Counters:   map[string]float64{"sections": 3},
	}, r.Stages[0])
	assert.Equal(t, StatusError, r.Stages[1].Status, "an error overrides the given status")
	assert.Equal(t, "no space left", r.Stages[1].Error)
	assert.Equal(t, []string{"disk full"}, r.Stages[1].Notes)
}

func TestSummarizeOrdersSignalsBySeverity(t *testing.T) {
	r := fixedClockReport()

	outlineStage := r.stage("outline")
	outlineStage.signal(CodeOutlineFallback, SeverityWarning, "default outline used", 0)
	outlineStage.finish(StatusOK, nil)

	content := r.stage("content")
	content.signal(CodeLowQuality, SeverityInfo, "1.1. 401k scored low", 0.3)
	content.signal(CodeContentFailed, SeverityWarning, "no content generated for s1-t2", 0)
	content.signal(CodeContentIncomplete, SeverityCritical, "some selected subtopics have no content", 50)
	content.finish(StatusPartial, nil)
	r.stage("preview").finish(StatusSkipped, nil)

	r.addItem(ItemMetric{SubtopicID: "t1", Words: 120, QualityScore: 1})
	r.addItem(ItemMetric{SubtopicID: "t2", QualityScore: 0})
	r.summarize()

	var codes []string
	for _, s := range r.Signals {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{CodeContentIncomplete, CodeOutlineFallback, CodeContentFailed, CodeLowQuality}, codes)
	assert.Equal(t, "content", r.Signals[0].Stage)
	assert.Equal(t, ReportSummary{
		StageCount:        3,
		ItemCount:         2,
		FailedStages:      0,
		EmptyItems:        1,
		AvgQuality:        0.5,
		SignalsBySeverity: map[string]int{SeverityCritical: 1, SeverityWarning: 2, SeverityInfo: 1},
	}, r.Summary)
}

func TestSaveWritesSummarizedReport(t *testing.T) {
	r := fixedClockReport()
	r.stage("outline").finish(StatusOK, errors.New("invalid topic"))

	path := filepath.Join(t.TempDir(), "nested", ReportFile)
	require.NoError(t, r.Save(path))

	rep := readReport(t, path)
	assert.Equal(t, "v1", rep.Version)
	assert.NotEmpty(t, rep.GeneratedAt)
	assert.Equal(t, 1, rep.Summary.FailedStages)
	assert.Empty(t, rep.Signals)
	assert.Equal(t, map[string]int{SeverityCritical: 0, SeverityWarning: 0, SeverityInfo: 0}, rep.Summary.SignalsBySeverity)
}
