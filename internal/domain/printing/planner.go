package printing

// DefaultTotalsHeight is the height reserved for the totals block on pages
// that carry one
const DefaultTotalsHeight = 105

// Page is one planned page of a document
type Page struct {
	Index     int          `json:"index"`
	Rows      []ContentRow `json:"-"`
	HasHeader bool         `json:"has_header"`
	HasTotals bool         `json:"has_totals"`
	// Capacity is the vertical budget of the page, Used the part of it spent
	// by the preamble and rows, and Spacer the padding that keeps the footer
	// anchored.
	Capacity float64 `json:"capacity"`
	Used     float64 `json:"used"`
	Spacer   float64 `json:"spacer"`
}

// RowsHeight returns the sum of the page's row heights
func (p Page) RowsHeight() float64 {
	var h float64
	for _, r := range p.Rows {
		h += r.Height()
	}
	return h
}

// IsLast reports whether p is the final page of pages
func (p Page) IsLast(pages []Page) bool {
	return p.Index == len(pages)-1
}

// Budget supplies the per-page vertical budget used by the planner
type Budget interface {
	// Capacity is the total height available to the preamble and the rows
	Capacity(pageIndex int) float64
	// Preamble is the height already spent when the page opens
	Preamble(pageIndex int) float64
}

// GeometryBudget derives the page budget from a geometry and a policy
type GeometryBudget struct {
	Geometry     PageGeometry
	Policy       Policy
	TotalsHeight float64
}

// Capacity returns page height minus margins, header and footer, and minus
// the totals block when totals are reserved on every page
func (b GeometryBudget) Capacity(pageIndex int) float64 {
	g := b.Geometry
	c := g.Height() - g.Margins.Vertical() - g.HeaderHeight(pageIndex, b.Policy) - g.Reserved.Footer
	if !b.Policy.TotalsOnlyOnLastPage {
		c -= b.TotalsHeight
	}
	return c
}

// Preamble returns the header height of the page. It covers the information
// block and the table heading drawn below the header band.
func (b GeometryBudget) Preamble(pageIndex int) float64 {
	return b.Geometry.HeaderHeight(pageIndex, b.Policy)
}

// FlowPlanner groups rows onto pages with a greedy single pass
type FlowPlanner struct {
	TotalsHeight float64
}

// NewFlowPlanner creates a planner reserving the default totals height
func NewFlowPlanner() *FlowPlanner {
	return &FlowPlanner{TotalsHeight: DefaultTotalsHeight}
}

// Plan plans rows against a page geometry
func (fp *FlowPlanner) Plan(rows []ContentRow, geometry PageGeometry, policy Policy) []Page {
	return fp.PlanWithBudget(rows, GeometryBudget{
		Geometry:     geometry,
		Policy:       policy,
		TotalsHeight: fp.TotalsHeight,
	}, policy)
}

// PlanWithBudget plans rows against an arbitrary budget.
//
// Rows are never split or reordered. A row that does not fit on a page that
// already holds rows opens a new page; a page that holds no rows always
// accepts the next row, so an oversized row sits alone on its page and a
// non-positive capacity still yields one row per page. Zero rows produce a
// single page.
func (fp *FlowPlanner) PlanWithBudget(rows []ContentRow, budget Budget, policy Policy) []Page {
	pages := make([]Page, 0, 1)

	open := func(index int) Page {
		return Page{
			Index:     index,
			HasHeader: index == 0 || policy.RepeatHeaderEveryPage,
			HasTotals: !policy.TotalsOnlyOnLastPage,
			Capacity:  budget.Capacity(index),
			Used:      budget.Preamble(index),
		}
	}
	closePage := func(p Page) {
		if p.Capacity > p.Used {
			p.Spacer = p.Capacity - p.Used
		}
		pages = append(pages, p)
	}

	current := open(0)
	for _, row := range rows {
		if len(current.Rows) > 0 && current.Used+row.Height() > current.Capacity {
			closePage(current)
			current = open(current.Index + 1)
		}
		current.Rows = append(current.Rows, row)
		current.Used += row.Height()
	}
	current.HasTotals = true
	closePage(current)

	return pages
}

// TotalsCount returns the number of planned pages carrying a totals block
func TotalsCount(pages []Page) int {
	n := 0
	for _, p := range pages {
		if p.HasTotals {
			n++
		}
	}
	return n
}

// FlattenRows concatenates the rows of every page in page order
func FlattenRows(pages []Page) []ContentRow {
	var out []ContentRow
	for _, p := range pages {
		out = append(out, p.Rows...)
	}
	return out
}
