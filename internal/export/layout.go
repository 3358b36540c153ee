package export

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// A4 portrait geometry in millimetres.
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 20.0
	marginRight  = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
	topY         = 20.0
	breakY       = 280.0
	lineHeight   = 7.0

	footerSize = 10.0
	bodySize   = 12.0
)

type PageKind string

const (
	PageCover   PageKind = "cover"
	PageTOC     PageKind = "toc"
	PageContent PageKind = "content"
)

// Line is one positioned run of text. Y is the baseline.
type Line struct {
	X    float64
	Y    float64
	Size float64
	Bold bool
	Text string
}

type Page struct {
	Number int
	Kind   PageKind
	Lines  []Line
}

// Layout is the fully paginated document, independent of any PDF writer.
type Layout struct {
	Pages []Page
	// SectionPages[i] is the page on which section i starts.
	SectionPages []int
	// TOCNumbers[i] is the page number printed next to section i, and each
	// of its subtopics, in the table of contents.
	TOCNumbers []int
}

// Measurer reports the rendered width of text in millimetres.
type Measurer interface {
	Width(text string, size float64, bold bool) float64
}

type lineRef struct {
	page, line int
}

type layoutBuilder struct {
	m     Measurer
	pages []Page
	y     float64
}

func (b *layoutBuilder) newPage(kind PageKind) {
	n := len(b.pages) + 1
	footer := Line{X: pageWidth - 30, Y: pageHeight - 10, Size: footerSize, Text: fmt.Sprintf("Page %d", n)}
	b.pages = append(b.pages, Page{Number: n, Kind: kind, Lines: []Line{footer}})
	b.y = topY
}

func (b *layoutBuilder) current() *Page {
	return &b.pages[len(b.pages)-1]
}

// ensure starts a new page of the same kind once the cursor passed the
// bottom margin.
func (b *layoutBuilder) ensure() {
	if b.y > breakY {
		b.newPage(b.current().Kind)
	}
}

func (b *layoutBuilder) put(x float64, size float64, bold bool, text string) lineRef {
	p := b.current()
	p.Lines = append(p.Lines, Line{X: x, Y: b.y, Size: size, Bold: bold, Text: text})
	return lineRef{page: len(b.pages) - 1, line: len(p.Lines) - 1}
}

func (b *layoutBuilder) centered(y, size float64, bold bool, text string) {
	x := (pageWidth - b.m.Width(text, size, bold)) / 2
	if x < marginLeft {
		x = marginLeft
	}
	p := b.current()
	p.Lines = append(p.Lines, Line{X: x, Y: y, Size: size, Bold: bold, Text: text})
}

// block writes wrapped text, breaking pages as needed.
func (b *layoutBuilder) block(x, width, size float64, bold bool, text string, advance float64) {
	for _, ln := range wrapText(b.m, text, size, bold, width) {
		b.ensure()
		b.put(x, size, bold, ln)
		b.y += advance
	}
}

// BuildLayout paginates doc: a cover page, the table of contents, then one
// or more pages per section. Each section starts on a fresh page.
func BuildLayout(doc Document, m Measurer) Layout {
	b := &layoutBuilder{m: m}

	b.newPage(PageCover)
	y := 60.0
	for _, ln := range wrapText(m, doc.Title, 24, true, contentWidth) {
		b.centered(y, 24, true, ln)
		y += 10
	}
	y = max(75, y+5)
	if sub := doc.Subtitle(); sub != "" {
		b.centered(y, 14, false, sub)
	}
	y += 25
	b.centered(y, 12, false, "Prepared by: "+doc.PreparedBy)
	y += 10
	b.centered(y, 12, false, "Date: "+doc.DateText())
	if doc.Institution != "" {
		b.centered(y+10, 12, false, doc.Institution)
	}

	b.newPage(PageTOC)
	b.put(marginLeft, 18, true, "Table of Contents")
	b.y += 15
	// numberRefs[i] holds the page-number slots of section i and its
	// subtopics.
	numberRefs := make([][]lineRef, len(doc.Sections))
	for i, sec := range doc.Sections {
		b.ensure()
		b.put(marginLeft, bodySize, true, clip(m, sec.Heading(), bodySize, true, contentWidth-20))
		numberRefs[i] = append(numberRefs[i], b.put(pageWidth-marginRight, bodySize, true, ""))
		b.y += 10
		for _, st := range sec.Subtopics {
			b.ensure()
			b.put(marginLeft+8, bodySize, false, clip(m, st.Heading(), bodySize, false, contentWidth-28))
			numberRefs[i] = append(numberRefs[i], b.put(pageWidth-marginRight, bodySize, false, ""))
			b.y += 8
		}
		b.y += 5
	}

	sectionPages := make([]int, len(doc.Sections))
	for i, sec := range doc.Sections {
		b.newPage(PageContent)
		sectionPages[i] = b.current().Number
		b.block(marginLeft, contentWidth, 16, true, sec.Heading(), 8)
		b.y += 7
		for _, st := range sec.Subtopics {
			b.ensure()
			b.block(marginLeft, contentWidth, 14, true, st.Heading(), 7)
			b.y += 3
			for _, para := range strings.Split(st.Content, "\n") {
				if strings.TrimSpace(para) == "" {
					b.y += lineHeight
					continue
				}
				b.block(marginLeft, contentWidth, bodySize, false, para, lineHeight)
			}
			b.y += 10
		}
	}

	// The numbers are only known once the content is laid out.
	for i, refs := range numberRefs {
		num := fmt.Sprintf("%d", sectionPages[i])
		for _, ref := range refs {
			ln := &b.pages[ref.page].Lines[ref.line]
			ln.Text = num
			ln.X = pageWidth - marginRight - m.Width(num, ln.Size, ln.Bold)
		}
	}

	return Layout{Pages: b.pages, SectionPages: sectionPages, TOCNumbers: append([]int(nil), sectionPages...)}
}

// wrapText greedily fills lines up to width. Words longer than a line are
// split by rune.
func wrapText(m Measurer, text string, size float64, bold bool, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	var cur string
	for _, w := range words {
		for m.Width(w, size, bold) > width && utf8.RuneCountInString(w) > 1 {
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			head, tail := splitToWidth(m, w, size, bold, width)
			lines = append(lines, head)
			w = tail
		}
		if cur == "" {
			cur = w
			continue
		}
		if candidate := cur + " " + w; m.Width(candidate, size, bold) <= width {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func splitToWidth(m Measurer, w string, size float64, bold bool, width float64) (string, string) {
	runes := []rune(w)
	n := 1
	for n < len(runes) && m.Width(string(runes[:n+1]), size, bold) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

// clip shortens a single-line entry with an ellipsis.
func clip(m Measurer, text string, size float64, bold bool, width float64) string {
	if m.Width(text, size, bold) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 1 && m.Width(string(runes)+"...", size, bold) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
