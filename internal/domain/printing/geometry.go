package printing

import (
	"math"
	"sort"
	"sync"
)

// PaperPreset is a named paper size in points
type PaperPreset struct {
	ID     PaperSize `json:"id"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
}

// AnnotationOffsets are the vertical positions of the fixed page annotations,
// measured in points from the bottom edge of the page
type AnnotationOffsets struct {
	Notes      float64 `json:"notes"`       // footer separator rule
	Contact    float64 `json:"contact"`     // issuer contact line
	Disclaimer float64 `json:"disclaimer"`  // wrapped footer notes
	PageNumber float64 `json:"page_number"` // "Page i of N"
	Provider   float64 `json:"provider"`    // provider text and logo
	Validation float64 `json:"validation"`  // start of the vertical validation-date note
}

// ReservedSpace is the set of heights and offsets reserved outside the row area
type ReservedSpace struct {
	HeaderFirst  float64           `json:"header_first"`
	HeaderLater  float64           `json:"header_later"`
	Continuation float64           `json:"continuation"`
	Footer       float64           `json:"footer"`
	Offsets      AnnotationOffsets `json:"offsets"`
}

// baselineReserved is tuned for the LETTER preset; every other preset derives
// from it by proportional scaling.
var baselineReserved = ReservedSpace{
	HeaderFirst:  180,
	HeaderLater:  90,
	Continuation: 24,
	Footer:       80,
	Offsets: AnnotationOffsets{
		Notes:      72,
		Contact:    65,
		Disclaimer: 50,
		PageNumber: 30,
		Provider:   30,
		Validation: 500,
	},
}

// BaselineReserved returns the reserved-space values of the baseline preset
func BaselineReserved() ReservedSpace {
	return baselineReserved
}

// Scaled returns r with every value multiplied by factor and rounded to the
// nearest whole point
func (r ReservedSpace) Scaled(factor float64) ReservedSpace {
	s := func(v float64) float64 { return math.Round(v * factor) }
	return ReservedSpace{
		HeaderFirst:  s(r.HeaderFirst),
		HeaderLater:  s(r.HeaderLater),
		Continuation: s(r.Continuation),
		Footer:       s(r.Footer),
		Offsets: AnnotationOffsets{
			Notes:      s(r.Offsets.Notes),
			Contact:    s(r.Offsets.Contact),
			Disclaimer: s(r.Offsets.Disclaimer),
			PageNumber: s(r.Offsets.PageNumber),
			Provider:   s(r.Offsets.Provider),
			Validation: s(r.Offsets.Validation),
		},
	}
}

// PageGeometry is the resolved page layout for one document
type PageGeometry struct {
	Paper    PaperPreset   `json:"paper"`
	Margins  Margins       `json:"margins"`
	Reserved ReservedSpace `json:"reserved"`
	// Scale is Paper.Height / baseline height
	Scale float64 `json:"scale"`
}

// Width returns the page width
func (g PageGeometry) Width() float64 { return g.Paper.Width }

// Height returns the page height
func (g PageGeometry) Height() float64 { return g.Paper.Height }

// ContentWidth returns the width between the left and right margins
func (g PageGeometry) ContentWidth() float64 {
	return g.Paper.Width - g.Margins.Horizontal()
}

// HeaderHeight returns the header band height for a page. The first page
// always carries the full header; later pages carry the later-page header when
// headers repeat, otherwise only the continuation band.
func (g PageGeometry) HeaderHeight(pageIndex int, policy Policy) float64 {
	switch {
	case pageIndex == 0:
		return g.Reserved.HeaderFirst
	case policy.RepeatHeaderEveryPage:
		return g.Reserved.HeaderLater
	default:
		return g.Reserved.Continuation
	}
}

// FromBottom converts an offset measured from the bottom edge into a
// top-origin y coordinate
func (g PageGeometry) FromBottom(offset float64) float64 {
	return g.Paper.Height - offset
}

// GeometryCatalog resolves paper identifiers to page geometries. It is safe
// for concurrent use.
type GeometryCatalog struct {
	mu       sync.RWMutex
	baseline PaperPreset
	presets  map[PaperSize]PaperPreset
	margins  Margins
}

// DefaultPresets returns the presets shipped with the catalog
func DefaultPresets() []PaperPreset {
	return []PaperPreset{
		{ID: PaperSizeLetter, Width: 612, Height: 792},
		{ID: PaperSizeLegal, Width: 612, Height: 1008},
		{ID: PaperSizeA4, Width: 595.28, Height: 841.89},
		{ID: PaperSizeHalfLetter, Width: 396, Height: 612},
		{ID: PaperSizeA5, Width: 419.53, Height: 595.28},
		{ID: PaperSizeExecutive, Width: 522, Height: 756},
	}
}

// NewGeometryCatalog creates a catalog holding the default presets
func NewGeometryCatalog() *GeometryCatalog {
	c := &GeometryCatalog{
		presets: make(map[PaperSize]PaperPreset),
		margins: DefaultMargins(),
	}
	for _, p := range DefaultPresets() {
		c.presets[p.ID] = p
	}
	c.baseline = c.presets[BaselinePaperSize]
	return c
}

// WithMargins overrides the margins applied to every resolved geometry
func (c *GeometryCatalog) WithMargins(m Margins) *GeometryCatalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.margins = m
	return c
}

// Register adds or replaces a preset. Only width and height are needed; all
// reserved space is derived from the baseline.
func (c *GeometryCatalog) Register(p PaperPreset) {
	p.ID = NormalizePaperSize(string(p.ID))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presets[p.ID] = p
}

// Lookup resolves an identifier and reports whether it was recognised.
// Unknown identifiers resolve to the baseline preset.
func (c *GeometryCatalog) Lookup(id string) (PageGeometry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	preset, ok := c.presets[NormalizePaperSize(id)]
	if !ok {
		preset = c.baseline
	}
	scale := preset.Height / c.baseline.Height
	return PageGeometry{
		Paper:    preset,
		Margins:  c.margins,
		Reserved: baselineReserved.Scaled(scale),
		Scale:    scale,
	}, ok
}

// Resolve resolves an identifier, substituting the baseline for unknown ids
func (c *GeometryCatalog) Resolve(id string) PageGeometry {
	g, _ := c.Lookup(id)
	return g
}

// Presets returns the registered presets ordered by identifier
func (c *GeometryCatalog) Presets() []PaperPreset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]PaperPreset, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
