package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"
)

// Sizes are in points, spacing in twentieths of a point.
const (
	docxTitleSize   = 28
	docxLevelSize   = 16
	docxTOCSize     = 18
	docxSectionSize = 16
	docxSubSize     = 14
	docxBodySize    = 12
	docxTabStop     = 9000
)

type run struct {
	Text string
	Bold bool
	Size int
}

type paragraph struct {
	Style           string
	PageBreakBefore bool
	// Tab adds a right-aligned dotted tab stop; a "\t" in a run jumps to it.
	Tab           bool
	SpacingBefore int
	SpacingAfter  int
	Indent        int
	Align         stypes.Justification
	Runs          []run
	// Break is an explicit page break paragraph with no text.
	Break bool
}

// DOCX builds a WordprocessingML package on the godocx default template.
type DOCX struct{}

func (DOCX) Project(doc Document) ([]byte, error) {
	rd, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("open docx template: %w", err)
	}
	for _, p := range docxParagraphs(doc) {
		addParagraph(rd, p)
	}
	var buf bytes.Buffer
	if err := rd.Write(&buf); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return buf.Bytes(), nil
}

// docxParagraphs lays out the body: title page, table of contents, then one
// heading block per section. Every section after the first opens a page.
func docxParagraphs(doc Document) []paragraph {
	ps := []paragraph{
		{Style: "Title", Align: stypes.JustificationCenter, SpacingBefore: 2400, SpacingAfter: 400,
			Runs: []run{{Text: doc.Title, Bold: true, Size: docxTitleSize}}},
	}
	if sub := doc.Subtitle(); sub != "" {
		ps = append(ps, paragraph{Align: stypes.JustificationCenter, SpacingAfter: 1200,
			Runs: []run{{Text: sub, Size: docxLevelSize}}})
	}
	ps = append(ps,
		paragraph{Align: stypes.JustificationCenter, Runs: []run{{Text: "Prepared by: " + doc.PreparedBy, Size: docxBodySize}}},
		paragraph{Align: stypes.JustificationCenter, Runs: []run{{Text: "Date: " + doc.DateText(), Size: docxBodySize}}},
	)
	if doc.Institution != "" {
		ps = append(ps, paragraph{Align: stypes.JustificationCenter, Runs: []run{{Text: doc.Institution, Size: docxBodySize}}})
	}
	ps = append(ps, paragraph{Break: true})

	ps = append(ps, paragraph{Style: "TOCHeading", SpacingAfter: 300,
		Runs: []run{{Text: "Table of Contents", Bold: true, Size: docxTOCSize}}})
	for _, sec := range doc.Sections {
		// Word has no pagination at write time, so the numbers are
		// placeholders: cover and contents take the first two pages.
		page := sec.Ordinal + 2
		ps = append(ps, paragraph{Tab: true, SpacingBefore: 120,
			Runs: []run{{Text: fmt.Sprintf("%s\t%d", sec.Heading(), page), Bold: true, Size: docxBodySize}}})
		for _, st := range sec.Subtopics {
			ps = append(ps, paragraph{Tab: true, Indent: 720,
				Runs: []run{{Text: fmt.Sprintf("%s\t%d", st.Heading(), page), Size: docxBodySize}}})
		}
	}
	ps = append(ps, paragraph{Break: true})

	for i, sec := range doc.Sections {
		ps = append(ps, paragraph{Style: "Heading1", PageBreakBefore: i > 0, SpacingAfter: 240,
			Runs: []run{{Text: sec.Heading(), Bold: true, Size: docxSectionSize}}})
		for _, st := range sec.Subtopics {
			ps = append(ps, paragraph{Style: "Heading2", SpacingBefore: 240, SpacingAfter: 120,
				Runs: []run{{Text: st.Heading(), Bold: true, Size: docxSubSize}}})
			for _, para := range strings.Split(st.Content, "\n\n") {
				para = strings.TrimSpace(para)
				if para == "" {
					continue
				}
				ps = append(ps, paragraph{SpacingAfter: 200,
					Runs: []run{{Text: para, Size: docxBodySize}}})
			}
		}
	}
	return ps
}

func addParagraph(rd *docx.RootDoc, p paragraph) {
	if p.Break {
		rd.AddPageBreak()
		return
	}
	para := rd.AddEmptyParagraph()
	if p.Style != "" {
		para.Style(p.Style)
	}
	if p.SpacingBefore > 0 || p.SpacingAfter > 0 {
		para.Spacing(uint64(p.SpacingBefore), uint64(p.SpacingAfter))
	}
	if p.Indent > 0 {
		left := p.Indent
		para.Indent(&ctypes.Indent{Left: &left})
	}
	if p.Align != "" {
		para.Justification(p.Align)
	}

	ct := para.GetCT()
	if p.PageBreakBefore || p.Tab {
		if ct.Property == nil {
			ct.Property = ctypes.DefaultParaProperty()
		}
	}
	if p.PageBreakBefore {
		ct.Property.PageBreakBefore = ctypes.OnOffFromBool(true)
	}
	if p.Tab {
		leader := stypes.CustLeadCharDot
		ct.Property.Tabs = ctypes.Tabs{Tab: []ctypes.Tab{
			{Val: stypes.CustTabStopRight, Position: docxTabStop, LeaderChar: &leader},
		}}
	}

	for _, r := range p.Runs {
		for i, piece := range strings.Split(r.Text, "\t") {
			if i > 0 {
				ct.Children = append(ct.Children, ctypes.ParagraphChild{Run: &ctypes.Run{
					Children: []ctypes.RunChild{{Tab: &ctypes.Empty{}}},
				}})
			}
			if piece == "" {
				continue
			}
			txt := para.AddText(piece).Size(uint64(r.Size))
			if r.Bold {
				txt.Bold(true)
			}
		}
	}
}
