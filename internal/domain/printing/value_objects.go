package printing

import (
	"strconv"
	"strings"
)

// Margins represents the page margins in points
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// DefaultMargins returns the 28pt margins used on every preset
func DefaultMargins() Margins {
	return Margins{
		Top:    28,
		Right:  28,
		Bottom: 28,
		Left:   28,
	}
}

// Vertical returns the sum of the top and bottom margins
func (m Margins) Vertical() float64 {
	return m.Top + m.Bottom
}

// Horizontal returns the sum of the left and right margins
func (m Margins) Horizontal() float64 {
	return m.Left + m.Right
}

// Equals checks if two Margins are equal
func (m Margins) Equals(other Margins) bool {
	return m.Top == other.Top &&
		m.Right == other.Right &&
		m.Bottom == other.Bottom &&
		m.Left == other.Left
}

// RGB is an 8-bit per channel colour
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Common colours
var (
	ColorBlack      = RGB{0, 0, 0}
	ColorWhite      = RGB{255, 255, 255}
	ColorWhiteSmoke = RGB{245, 245, 245}
	ColorGrey       = RGB{128, 128, 128}
	ColorLightGrey  = RGB{211, 211, 211}
	ColorWatermark  = RGB{217, 217, 217}
)

// ParseHexColor parses "#rrggbb", "rrggbb" or "#rgb". Malformed or empty input
// yields the fallback.
func ParseHexColor(s string, fallback RGB) RGB {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// Hex returns the colour as "#rrggbb"
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0f]
	}
	return string(b)
}

// ColorOptions carries the caller's colour overrides as hex strings
type ColorOptions struct {
	Background string
	HeaderText string
	FooterText string
	Info       string
	Negative   string
	Positive   string
}

// Palette is the resolved set of colours for one document
type Palette struct {
	Background RGB
	HeaderText RGB
	FooterText RGB
	// Payroll section colours; they default to Background
	Info     RGB
	Negative RGB
	Positive RGB
}

// DefaultPalette returns the baseline palette for a template
func DefaultPalette(kind TemplateKind) Palette {
	bg := RGB{128, 128, 128} // #808080
	switch kind {
	case TemplateCompact:
		bg = RGB{0, 77, 102} // #004d66
	case TemplatePayroll:
		bg = RGB{4, 75, 91} // #044b5b
	}
	return Palette{
		Background: bg,
		HeaderText: ColorBlack,
		FooterText: ColorBlack,
		Info:       bg,
		Negative:   bg,
		Positive:   bg,
	}
}

// ResolvePalette applies overrides on top of the template's baseline palette.
// Malformed overrides are ignored.
func ResolvePalette(kind TemplateKind, opts ColorOptions) Palette {
	p := DefaultPalette(kind)
	p.Background = ParseHexColor(opts.Background, p.Background)
	p.HeaderText = ParseHexColor(opts.HeaderText, p.HeaderText)
	p.FooterText = ParseHexColor(opts.FooterText, p.FooterText)
	p.Info = ParseHexColor(opts.Info, p.Background)
	p.Negative = ParseHexColor(opts.Negative, p.Background)
	p.Positive = ParseHexColor(opts.Positive, p.Background)
	return p
}

// Policy holds the layout flags that alter header and totals repetition
type Policy struct {
	RepeatHeaderEveryPage bool `json:"repeat_header_every_page"`
	TotalsOnlyOnLastPage  bool `json:"totals_only_on_last_page"`
}

// DefaultPolicy repeats the header on every page and prints totals once
func DefaultPolicy() Policy {
	return Policy{
		RepeatHeaderEveryPage: true,
		TotalsOnlyOnLastPage:  true,
	}
}
