package printing

import (
	"errors"
	"fmt"

	"github.com/erp/docgen/internal/domain/printing"
)

// Sink receives replayed pages and produces the final byte stream
type Sink interface {
	// AddPage starts a new output page
	AddPage(width, height float64) error
	// Draw applies one operation to the current page
	Draw(op Op) error
	// Close finishes the stream and returns its bytes
	Close() ([]byte, error)
}

// NumbererState is the lifecycle state of a DeferredPageNumberer
type NumbererState int

const (
	StateAccumulating NumbererState = iota
	StateFinalizing
	StateSealed
)

// String returns the state name
func (s NumbererState) String() string {
	switch s {
	case StateAccumulating:
		return "accumulating"
	case StateFinalizing:
		return "finalizing"
	case StateSealed:
		return "sealed"
	}
	return fmt.Sprintf("NumbererState(%d)", int(s))
}

// ErrNumbererSealed is returned when a page is captured after finalization
// has started
var ErrNumbererSealed = errors.New("page numberer no longer accepts pages")

// DefaultPageNumberFormat receives the page index and the page count
const DefaultPageNumberFormat = "Page %d of %d"

// PageNumberStyle controls where and how page numbers are stamped
type PageNumberStyle struct {
	Format   string
	Color    printing.RGB
	Family   string
	FontSize float64
	// X is the right edge of the number, Y its baseline, both from the top-left
	X float64
	Y float64
}

// PageNumberStyleFor places the page number right-aligned at the right
// margin on the geometry's page-number offset
func PageNumberStyleFor(g printing.PageGeometry, color printing.RGB, format string) PageNumberStyle {
	if format == "" {
		format = DefaultPageNumberFormat
	}
	return PageNumberStyle{
		Format:   format,
		Color:    color,
		Family:   "Helvetica",
		FontSize: 6,
		X:        g.Width() - g.Margins.Right,
		Y:        g.FromBottom(g.Reserved.Offsets.PageNumber),
	}
}

// DeferredPageNumberer holds page snapshots until the page count is known and
// then replays them into a sink with "Page i of N" stamped on each.
// It is not safe for concurrent use; each assembly owns one.
type DeferredPageNumberer struct {
	state NumbererState
	pages []PageState
	sink  Sink
	style PageNumberStyle
}

// NewDeferredPageNumberer creates a numberer writing into sink
func NewDeferredPageNumberer(sink Sink, style PageNumberStyle) *DeferredPageNumberer {
	return &DeferredPageNumberer{
		state: StateAccumulating,
		sink:  sink,
		style: style,
	}
}

// State returns the current lifecycle state
func (n *DeferredPageNumberer) State() NumbererState {
	return n.state
}

// PageCount returns the number of captured pages
func (n *DeferredPageNumberer) PageCount() int {
	return len(n.pages)
}

// Capture stores the snapshot of a completed page
func (n *DeferredPageNumberer) Capture(page PageState) error {
	if n.state != StateAccumulating {
		return ErrNumbererSealed
	}
	n.pages = append(n.pages, page)
	return nil
}

// Finalize replays every captured page in order, stamps its number and seals
// the stream. Snapshots are released once replayed.
func (n *DeferredPageNumberer) Finalize() ([]byte, error) {
	if n.state != StateAccumulating {
		return nil, ErrNumbererSealed
	}
	n.state = StateFinalizing

	total := len(n.pages)
	for i, page := range n.pages {
		if err := n.sink.AddPage(page.width, page.height); err != nil {
			n.seal()
			return nil, fmt.Errorf("failed to open page %d: %w", i+1, err)
		}
		for _, op := range page.ops {
			if err := n.sink.Draw(op); err != nil {
				n.seal()
				return nil, fmt.Errorf("failed to replay page %d: %w", i+1, err)
			}
		}
		for _, op := range n.stamp(i+1, total) {
			if err := n.sink.Draw(op); err != nil {
				n.seal()
				return nil, fmt.Errorf("failed to stamp page %d: %w", i+1, err)
			}
		}
		n.pages[i] = PageState{}
	}

	data, err := n.sink.Close()
	n.seal()
	if err != nil {
		return nil, fmt.Errorf("failed to close document: %w", err)
	}
	return data, nil
}

func (n *DeferredPageNumberer) seal() {
	n.state = StateSealed
	n.pages = nil
}

// stamp returns the operations drawing the number of page i
func (n *DeferredPageNumberer) stamp(i, total int) []Op {
	return []Op{
		{Kind: OpSetAlpha, Alpha: 1},
		{Kind: OpSetFont, Family: n.style.Family, Size: n.style.FontSize},
		{Kind: OpSetTextColor, Color: n.style.Color},
		{Kind: OpText, X: n.style.X, Y: n.style.Y, Align: AlignRight, Text: fmt.Sprintf(n.style.Format, i, total)},
	}
}
