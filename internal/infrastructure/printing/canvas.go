package printing

import (
	"github.com/erp/docgen/internal/domain/printing"
)

// OpKind identifies a drawing operation
type OpKind uint8

const (
	OpSetFont OpKind = iota + 1
	OpSetTextColor
	OpSetFillColor
	OpSetDrawColor
	OpSetLineWidth
	OpSetAlpha
	OpText
	OpRect
	OpLine
	OpImage
	OpRotateBegin
	OpRotateEnd
)

// Text alignment relative to the anchor x coordinate
const (
	AlignLeft   = "L"
	AlignCenter = "C"
	AlignRight  = "R"
)

// Rect styles
const (
	RectDraw     = "D"
	RectFill     = "F"
	RectFillDraw = "FD"
)

// ImageAsset is a decoded-and-validated image ready for drawing
type ImageAsset struct {
	Name string
	// Type is the backend image type: PNG, JPG or GIF
	Type   string
	Data   []byte
	Width  int
	Height int
}

// Op is one recorded drawing operation. All coordinates are in points with
// the origin at the top-left corner of the page. Ops are plain values so a
// recorded page can be replayed any number of times.
type Op struct {
	Kind   OpKind
	X, Y   float64
	X2, Y2 float64
	W, H   float64
	Text   string
	Align  string
	Style  string
	Family string
	Size   float64
	Angle  float64
	Alpha  float64
	Color  printing.RGB
	Image  *ImageAsset
}

// Canvas records drawing operations for one page
type Canvas struct {
	width  float64
	height float64
	ops    []Op
}

// NewCanvas creates an empty canvas of the given page size
func NewCanvas(width, height float64) *Canvas {
	return &Canvas{width: width, height: height}
}

// Width returns the page width
func (c *Canvas) Width() float64 { return c.width }

// Height returns the page height
func (c *Canvas) Height() float64 { return c.height }

// Len returns the number of recorded operations
func (c *Canvas) Len() int { return len(c.ops) }

// SetFont selects the font family, style ("", "B", "I", "BI") and size
func (c *Canvas) SetFont(family, style string, size float64) {
	c.ops = append(c.ops, Op{Kind: OpSetFont, Family: family, Style: style, Size: size})
}

// SetTextColor sets the colour used by Text
func (c *Canvas) SetTextColor(color printing.RGB) {
	c.ops = append(c.ops, Op{Kind: OpSetTextColor, Color: color})
}

// SetFillColor sets the colour used to fill rectangles
func (c *Canvas) SetFillColor(color printing.RGB) {
	c.ops = append(c.ops, Op{Kind: OpSetFillColor, Color: color})
}

// SetDrawColor sets the colour used for lines and rectangle borders
func (c *Canvas) SetDrawColor(color printing.RGB) {
	c.ops = append(c.ops, Op{Kind: OpSetDrawColor, Color: color})
}

// SetLineWidth sets the stroke width
func (c *Canvas) SetLineWidth(w float64) {
	c.ops = append(c.ops, Op{Kind: OpSetLineWidth, W: w})
}

// SetAlpha sets the opacity of subsequent operations
func (c *Canvas) SetAlpha(alpha float64) {
	c.ops = append(c.ops, Op{Kind: OpSetAlpha, Alpha: alpha})
}

// Text draws s with its baseline at y. align positions the text relative to x.
func (c *Canvas) Text(x, y float64, align, s string) {
	if s == "" {
		return
	}
	c.ops = append(c.ops, Op{Kind: OpText, X: x, Y: y, Align: align, Text: s})
}

// Rect draws a rectangle
func (c *Canvas) Rect(x, y, w, h float64, style string) {
	c.ops = append(c.ops, Op{Kind: OpRect, X: x, Y: y, W: w, H: h, Style: style})
}

// Line draws a straight line
func (c *Canvas) Line(x1, y1, x2, y2 float64) {
	c.ops = append(c.ops, Op{Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2})
}

// Image draws an asset scaled into the given box. A nil asset is ignored.
func (c *Canvas) Image(asset *ImageAsset, x, y, w, h float64) {
	if asset == nil {
		return
	}
	c.ops = append(c.ops, Op{Kind: OpImage, X: x, Y: y, W: w, H: h, Image: asset})
}

// Rotate starts a rotation of angle degrees counter-clockwise around (x, y).
// Every Rotate must be closed by EndRotate.
func (c *Canvas) Rotate(angle, x, y float64) {
	c.ops = append(c.ops, Op{Kind: OpRotateBegin, Angle: angle, X: x, Y: y})
}

// EndRotate closes the innermost rotation
func (c *Canvas) EndRotate() {
	c.ops = append(c.ops, Op{Kind: OpRotateEnd})
}

// Snapshot returns an immutable copy of everything drawn so far
func (c *Canvas) Snapshot() PageState {
	ops := make([]Op, len(c.ops))
	copy(ops, c.ops)
	return PageState{width: c.width, height: c.height, ops: ops}
}

// PageState is a replayable snapshot of one completed page
type PageState struct {
	width  float64
	height float64
	ops    []Op
}

// Width returns the page width
func (s PageState) Width() float64 { return s.width }

// Height returns the page height
func (s PageState) Height() float64 { return s.height }

// Len returns the number of operations in the snapshot
func (s PageState) Len() int { return len(s.ops) }

// Ops returns a copy of the snapshot's operations
func (s PageState) Ops() []Op {
	out := make([]Op, len(s.ops))
	copy(out, s.ops)
	return out
}

// Texts returns the text of every text operation, in drawing order
func (s PageState) Texts() []string {
	var out []string
	for _, op := range s.ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}
