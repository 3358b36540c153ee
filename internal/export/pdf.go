package export

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

const pdfFont = "Helvetica"

// PDF renders a Layout with fpdf core fonts.
type PDF struct{}

func (PDF) Project(doc Document) ([]byte, error) {
	pdf := newPDF()
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.PreparedBy, true)
	pdf.SetCreator("docwiz", true)

	m := &fpdfMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	layout := BuildLayout(doc, m)

	for _, page := range layout.Pages {
		pdf.AddPage()
		for _, ln := range page.Lines {
			if ln.Text == "" {
				continue
			}
			pdf.SetFont(pdfFont, fontStyle(ln.Bold), ln.Size)
			pdf.Text(ln.X, ln.Y, m.tr(ln.Text))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(marginLeft, topY, marginRight)
	return pdf
}

// NewPDFMeasurer measures text with the same font metrics the PDF
// projector renders with.
func NewPDFMeasurer() Measurer {
	pdf := newPDF()
	return &fpdfMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

type fpdfMeasurer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (f *fpdfMeasurer) Width(text string, size float64, bold bool) float64 {
	f.pdf.SetFont(pdfFont, fontStyle(bold), size)
	return f.pdf.GetStringWidth(f.tr(text))
}

func fontStyle(bold bool) string {
	if bold {
		return "B"
	}
	return ""
}
