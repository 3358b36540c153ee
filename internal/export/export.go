// Package export projects the selected part of an outline into
// downloadable documents.
package export

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"docwiz/internal/outline"
)

type Format string

const (
	FormatDOCX     Format = "DOCX"
	FormatPDF      Format = "PDF"
	FormatExcel    Format = "EXCEL"
	FormatMarkdown Format = "MARKDOWN"
)

var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts the format names and common file extensions.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "docx", "word":
		return FormatDOCX, nil
	case "pdf":
		return FormatPDF, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

func (f Format) Extension() string {
	switch f {
	case FormatDOCX:
		return ".docx"
	case FormatPDF:
		return ".pdf"
	case FormatExcel:
		return ".xlsx"
	case FormatMarkdown:
		return ".md"
	}
	return ""
}

func (f Format) ContentType() string {
	switch f {
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "application/octet-stream"
}

// Label is the human name used in notifications.
func (f Format) Label() string {
	switch f {
	case FormatDOCX:
		return "a DOCX file"
	case FormatPDF:
		return "a PDF"
	case FormatExcel:
		return "an Excel file"
	case FormatMarkdown:
		return "a Markdown file"
	}
	return string(f)
}

// Artifact is a finished, downloadable file.
type Artifact struct {
	Filename    string
	ContentType string
	Format      Format
	Data        []byte
}

// Document is the read-only input every projector works from: the selected
// sections, already numbered, plus cover information.
type Document struct {
	Title       string
	Level       string
	PreparedBy  string
	Institution string
	Date        time.Time
	Sections    []outline.NumberedSection
}

// Subtitle is the level line printed under the title.
func (d Document) Subtitle() string {
	if strings.TrimSpace(d.Level) == "" {
		return ""
	}
	return d.Level + " Level Document Summary"
}

func (d Document) DateText() string {
	return d.Date.Format("January 2, 2006")
}

type Projector interface {
	Project(doc Document) ([]byte, error)
}

// Options carries cover-page details that are not part of the outline.
type Options struct {
	PreparedBy  string
	Institution string
	Now         func() time.Time
}

// Exporter dispatches to the projector registered for a format.
type Exporter struct {
	opts       Options
	projectors map[Format]Projector
}

func NewExporter(opts Options) *Exporter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if strings.TrimSpace(opts.PreparedBy) == "" {
		opts.PreparedBy = "docwiz"
	}
	return &Exporter{
		opts: opts,
		projectors: map[Format]Projector{
			FormatPDF:      PDF{},
			FormatDOCX:     DOCX{},
			FormatExcel:    XLSX{},
			FormatMarkdown: Markdown{},
		},
	}
}

// Prepare filters o to its selected entries and numbers them.
func (e *Exporter) Prepare(o outline.Outline, topic outline.Topic) Document {
	return Document{
		Title:       o.MainTopic,
		Level:       topic.Level(),
		PreparedBy:  e.opts.PreparedBy,
		Institution: e.opts.Institution,
		Date:        e.opts.Now(),
		Sections:    outline.Number(outline.Selected(o)),
	}
}

// Export renders o in the given format. Any failure, including a panic in
// an encoder, yields an error and no artifact.
func (e *Exporter) Export(o outline.Outline, format Format, topic outline.Topic) (art Artifact, err error) {
	p, ok := e.projectors[format]
	if !ok {
		return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	defer func() {
		if r := recover(); r != nil {
			art = Artifact{}
			err = fmt.Errorf("export %s panicked: %v", format, r)
		}
	}()

	data, err := p.Project(e.Prepare(o, topic))
	if err != nil {
		return Artifact{}, fmt.Errorf("export %s: %w", format, err)
	}
	return Artifact{
		Filename:    Filename(o.MainTopic, format.Extension()),
		ContentType: format.ContentType(),
		Format:      format,
		Data:        data,
	}, nil
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	pathSep       = strings.NewReplacer("/", "_", `\`, "_")
)

// Filename turns the main topic into a file name: whitespace runs become
// underscores, path separators are neutralized.
func Filename(mainTopic, ext string) string {
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(mainTopic), "_")
	name = pathSep.Replace(name)
	if name == "" || name == "." || name == ".." {
		name = "document"
	}
	return name + ext
}
