package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Stage statuses.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Signal severities, most urgent first.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Signal codes.
const (
	CodeOutlineFallback   = "outline_fallback"
	CodeContentFailed     = "content_failed"
	CodeContentIncomplete = "content_incomplete"
	CodeLowQuality        = "low_quality_content"
)

var severityRank = map[string]int{SeverityCritical: 0, SeverityWarning: 1, SeverityInfo: 2}

type ReportSignal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Notes      []string           `json:"notes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ItemMetric describes one selected subtopic after the content stage.
type ItemMetric struct {
	SectionID     string   `json:"section_id"`
	SubtopicID    string   `json:"subtopic_id"`
	Label         string   `json:"label"`
	Title         string   `json:"title"`
	Status        string   `json:"status"`
	Words         int      `json:"words"`
	QualityScore  float64  `json:"quality_score"`
	QualityIssues []string `json:"quality_issues,omitempty"`
}

type ReportSummary struct {
	StageCount        int            `json:"stage_count"`
	ItemCount         int            `json:"item_count"`
	FailedStages      int            `json:"failed_stages"`
	EmptyItems        int            `json:"empty_items"`
	AvgQuality        float64        `json:"avg_quality"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

// RunReport is written as run_report.json next to the exported document.
type RunReport struct {
	Version     string         `json:"version"`
	Topic       string         `json:"topic"`
	Format      string         `json:"format"`
	GeneratedAt string         `json:"generated_at"`
	OutputDir   string         `json:"output_dir"`
	Artifact    string         `json:"artifact,omitempty"`
	Stages      []StageMetric  `json:"stages"`
	Items       []ItemMetric   `json:"items"`
	Signals     []ReportSignal `json:"signals"`
	Summary     ReportSummary  `json:"summary"`

	now func() time.Time
}

func NewRunReport(topic, format, outputDir string) *RunReport {
	return &RunReport{
		Version:   "v1",
		Topic:     topic,
		Format:    format,
		OutputDir: outputDir,
		Stages:    []StageMetric{},
		Items:     []ItemMetric{},
		Signals:   []ReportSignal{},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// stageRecorder collects counters, notes and signals for one stage until
// finish appends it to the report.
type stageRecorder struct {
	report  *RunReport
	metric  StageMetric
	started time.Time
}

func (r *RunReport) stage(name string) *stageRecorder {
	started := r.now()
	return &stageRecorder{
		report:  r,
		metric:  StageMetric{Name: name, StartedAt: started.Format(time.RFC3339Nano)},
		started: started,
	}
}

func (s *stageRecorder) count(key string, v float64) *stageRecorder {
	if s.metric.Counters == nil {
		s.metric.Counters = map[string]float64{}
	}
	s.metric.Counters[key] = v
	return s
}

func (s *stageRecorder) note(msg string) {
	s.metric.Notes = append(s.metric.Notes, msg)
}

func (s *stageRecorder) signal(code, severity, msg string, value float64) {
	s.report.Signals = append(s.report.Signals, ReportSignal{
		Code:     code,
		Stage:    s.metric.Name,
		Severity: severity,
		Message:  msg,
		Value:    value,
	})
}

// finish records the stage. A non-nil err always marks it as an error.
func (s *stageRecorder) finish(status string, err error) {
	finished := s.report.now()
	s.metric.Status = status
	if err != nil {
		s.metric.Status = StatusError
		s.metric.Error = err.Error()
	}
	s.metric.FinishedAt = finished.Format(time.RFC3339Nano)
	s.metric.DurationMS = finished.Sub(s.started).Milliseconds()
	s.report.Stages = append(s.report.Stages, s.metric)
}

func (r *RunReport) addItem(m ItemMetric) {
	r.Items = append(r.Items, m)
}

// summarize orders signals by severity, keeping emission order within a
// severity, and fills in Summary.
func (r *RunReport) summarize() {
	r.GeneratedAt = r.now().Format(time.RFC3339)
	sort.SliceStable(r.Signals, func(i, j int) bool {
		return severityRank[r.Signals[i].Severity] < severityRank[r.Signals[j].Severity]
	})

	sum := ReportSummary{
		StageCount: len(r.Stages),
		ItemCount:  len(r.Items),
		SignalsBySeverity: map[string]int{
			SeverityCritical: 0,
			SeverityWarning:  0,
			SeverityInfo:     0,
		},
	}
	for _, sig := range r.Signals {
		sum.SignalsBySeverity[sig.Severity]++
	}
	for _, st := range r.Stages {
		if st.Status == StatusError {
			sum.FailedStages++
		}
	}
	var quality float64
	for _, it := range r.Items {
		if it.Words == 0 {
			sum.EmptyItems++
		}
		quality += it.QualityScore
	}
	if len(r.Items) > 0 {
		sum.AvgQuality = quality / float64(len(r.Items))
	}
	r.Summary = sum
}

// Save summarizes the report and writes it as indented JSON.
func (r *RunReport) Save(path string) error {
	r.summarize()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
