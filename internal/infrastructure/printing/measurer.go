package printing

import (
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/erp/docgen/internal/domain/printing"
)

// FontMeasurer wraps text with the metrics of one of fpdf's core fonts.
// The glyph widths are copied into a table when the measurer is built, so
// a FontMeasurer is immutable and safe for concurrent use.
type FontMeasurer struct {
	// widths holds the advance of every cp1252 byte per 1000 units of size
	widths [256]float64
}

// NewFontMeasurer creates a measurer for the given core font family and style
func NewFontMeasurer(family, style string) *FontMeasurer {
	if family == "" {
		family = "Helvetica"
	}
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetFont(family, style, 1000)

	m := &FontMeasurer{}
	for b := 1; b < len(m.widths); b++ {
		m.widths[b] = pdf.GetStringWidth(string([]byte{byte(b)}))
	}
	return m
}

// Width returns the rendered width of text at fontSize
func (m *FontMeasurer) Width(text string, fontSize float64) float64 {
	return m.units(text) * fontSize / 1000
}

func (m *FontMeasurer) units(text string) float64 {
	var w float64
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '.'
		}
		w += m.widths[b]
	}
	return w
}

// WrapLines breaks text into lines no wider than width. Explicit newlines
// are kept, words wider than width are broken by character.
func (m *FontMeasurer) WrapLines(text string, fontSize, width float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		lines = append(lines, m.wrapParagraph(para, fontSize, width)...)
	}
	return lines
}

func (m *FontMeasurer) wrapParagraph(para string, fontSize, width float64) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if m.fits(candidate, fontSize, width) {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		if m.fits(word, fontSize, width) {
			current = word
			continue
		}
		pieces := m.breakWord(word, fontSize, width)
		lines = append(lines, pieces[:len(pieces)-1]...)
		current = pieces[len(pieces)-1]
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func (m *FontMeasurer) fits(s string, fontSize, width float64) bool {
	return m.Width(s, fontSize) <= width
}

// breakWord splits a word into pieces that fit width. Each piece holds at
// least one rune.
func (m *FontMeasurer) breakWord(word string, fontSize, width float64) []string {
	var pieces []string
	runes := []rune(word)
	start := 0
	for start < len(runes) {
		end := start + 1
		for end < len(runes) && m.fits(string(runes[start:end+1]), fontSize, width) {
			end++
		}
		pieces = append(pieces, string(runes[start:end]))
		start = end
	}
	return pieces
}

// Ensure FontMeasurer implements printing.Measurer
var _ printing.Measurer = (*FontMeasurer)(nil)
