package printing

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedBudget gives the first page and later pages fixed capacities
type fixedBudget struct {
	first    float64
	later    float64
	preamble float64
}

func (b fixedBudget) Capacity(i int) float64 {
	if i == 0 {
		return b.first
	}
	return b.later
}

func (b fixedBudget) Preamble(int) float64 { return b.preamble }

// lineMeasurer wraps on explicit newlines only
type lineMeasurer struct{}

func (lineMeasurer) WrapLines(text string, _, _ float64) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func rowsOfHeights(heights ...float64) []ContentRow {
	rows := make([]ContentRow, len(heights))
	for i, h := range heights {
		rows[i] = ContentRow{item: LineItem{LineNumber: i + 1}, height: h}
	}
	return rows
}

func uniformRows(n int, h float64) []ContentRow {
	heights := make([]float64, n)
	for i := range heights {
		heights[i] = h
	}
	return rowsOfHeights(heights...)
}

func lineNumbers(rows []ContentRow) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.LineNumber()
	}
	return out
}

func pageSizes(pages []Page) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[i] = len(p.Rows)
	}
	return out
}

func TestNewContentRow_MeasuredHeight(t *testing.T) {
	m := DefaultRowMetrics()
	tests := []struct {
		name     string
		text     string
		lines    int
		expected float64
	}{
		{"empty description", "", 1, 14},
		{"single line", "Widget", 1, 14},
		{"two lines", "Widget\nblue", 2, 20},
		{"three lines", "a\nb\nc", 3, 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewContentRow(LineItem{LineNumber: 7, Description: tt.text}, lineMeasurer{}, m)
			assert.Equal(t, tt.expected, row.Height())
			assert.Len(t, row.Lines(), tt.lines)
			assert.Equal(t, 7, row.LineNumber())
		})
	}
}

func TestContentRow_LinesIsACopy(t *testing.T) {
	row := NewContentRow(LineItem{Description: "a\nb"}, lineMeasurer{}, DefaultRowMetrics())
	lines := row.Lines()
	lines[0] = "changed"
	assert.Equal(t, "a", row.Lines()[0])
}

func TestTableLayout(t *testing.T) {
	schema, metrics := TableLayout(TemplateClassic, 556)
	require.Len(t, schema.Columns, 8)
	assert.InDelta(t, 556, schema.Width(), 0.001)
	assert.InDelta(t, schema.Columns[1].Width-2*CellPadding, metrics.WrapWidth, 0.001)

	payroll, _ := TableLayout(TemplatePayroll, 340)
	require.Len(t, payroll.Columns, 3)
	assert.InDelta(t, 340, payroll.Width(), 0.001)
	assert.Equal(t, 0, payroll.WrapColumn)

	offsets := schema.Offsets()
	assert.Equal(t, 0.0, offsets[0])
	assert.InDelta(t, schema.Columns[0].Width, offsets[1], 0.001)
}

func TestPlan_NoRows(t *testing.T) {
	g := NewGeometryCatalog().Resolve("LETTER")
	pages := NewFlowPlanner().Plan(nil, g, DefaultPolicy())

	require.Len(t, pages, 1)
	p := pages[0]
	assert.Equal(t, 0, p.Index)
	assert.Empty(t, p.Rows)
	assert.True(t, p.HasHeader)
	assert.True(t, p.HasTotals)
	assert.Equal(t, 476.0, p.Capacity)
	assert.Equal(t, 296.0, p.Spacer)
}

func TestPlan_FirstAndLaterCapacities(t *testing.T) {
	rows := uniformRows(50, 10)
	pages := NewFlowPlanner().PlanWithBudget(rows, fixedBudget{first: 300, later: 400}, DefaultPolicy())

	require.Len(t, pages, 2)
	assert.Equal(t, []int{30, 20}, pageSizes(pages))
	assert.False(t, pages[0].HasTotals)
	assert.True(t, pages[1].HasTotals)
	assert.Equal(t, 1, TotalsCount(pages))
	assert.Equal(t, 0.0, pages[0].Spacer)
	assert.Equal(t, 200.0, pages[1].Spacer)
}

func TestPlan_OversizedRowGetsOwnPage(t *testing.T) {
	t.Run("alone", func(t *testing.T) {
		pages := NewFlowPlanner().PlanWithBudget(rowsOfHeights(1000), fixedBudget{first: 300, later: 300}, DefaultPolicy())
		require.Len(t, pages, 1)
		require.Len(t, pages[0].Rows, 1)
		assert.Equal(t, 1000.0, pages[0].Rows[0].Height())
		assert.Equal(t, 0.0, pages[0].Spacer)
	})

	t.Run("between small rows", func(t *testing.T) {
		rows := rowsOfHeights(10, 1000, 10)
		pages := NewFlowPlanner().PlanWithBudget(rows, fixedBudget{first: 300, later: 300}, DefaultPolicy())
		require.Len(t, pages, 3)
		assert.Equal(t, []int{1, 1, 1}, pageSizes(pages))
		assert.Equal(t, 1000.0, pages[1].Rows[0].Height())
	})
}

func TestPlan_UnknownPaperUsesBaseline(t *testing.T) {
	c := NewGeometryCatalog()
	rows := uniformRows(80, 14)
	planner := NewFlowPlanner()

	baseline := planner.Plan(rows, c.Resolve("LETTER"), DefaultPolicy())
	tabloid := planner.Plan(rows, c.Resolve("TABLOID"), DefaultPolicy())
	assert.Equal(t, pageSizes(baseline), pageSizes(tabloid))
}

func TestPlan_LetterGeometry(t *testing.T) {
	g := NewGeometryCatalog().Resolve("LETTER")
	pages := NewFlowPlanner().Plan(uniformRows(60, 14), g, DefaultPolicy())

	// first page: 180 + 14k <= 476, later pages: 90 + 14k <= 566
	assert.Equal(t, []int{21, 34, 5}, pageSizes(pages))
	assert.Equal(t, 476.0, pages[0].Capacity)
	assert.Equal(t, 566.0, pages[1].Capacity)
	assert.Equal(t, 2.0, pages[0].Spacer)
}

func TestPlan_TotalsOnEveryPage(t *testing.T) {
	g := NewGeometryCatalog().Resolve("LETTER")
	policy := Policy{RepeatHeaderEveryPage: true, TotalsOnlyOnLastPage: false}
	pages := NewFlowPlanner().Plan(uniformRows(60, 14), g, policy)

	require.Greater(t, len(pages), 1)
	assert.Equal(t, len(pages), TotalsCount(pages))
	assert.Equal(t, 476.0-DefaultTotalsHeight, pages[0].Capacity)
	assert.Equal(t, 566.0-DefaultTotalsHeight, pages[1].Capacity)
}

func TestPlan_HeaderOnlyOnFirstPage(t *testing.T) {
	g := NewGeometryCatalog().Resolve("LETTER")
	policy := Policy{RepeatHeaderEveryPage: false, TotalsOnlyOnLastPage: true}
	pages := NewFlowPlanner().Plan(uniformRows(100, 14), g, policy)

	require.Greater(t, len(pages), 2)
	assert.True(t, pages[0].HasHeader)
	for _, p := range pages[1:] {
		assert.False(t, p.HasHeader)
		// capacity grows with the smaller continuation band
		assert.Equal(t, 792.0-56-24-80, p.Capacity)
		assert.Equal(t, 24.0, p.Used-p.RowsHeight())
	}
}

func TestPlan_NonPositiveCapacityTerminates(t *testing.T) {
	budgets := []fixedBudget{
		{first: 0, later: 0},
		{first: -100, later: -100},
		{first: 5, later: 5, preamble: 10},
	}
	for _, b := range budgets {
		pages := NewFlowPlanner().PlanWithBudget(uniformRows(7, 10), b, DefaultPolicy())
		assert.Len(t, pages, 7)
		for _, p := range pages {
			assert.Len(t, p.Rows, 1)
			assert.GreaterOrEqual(t, p.Spacer, 0.0)
		}
	}
}

func TestPlan_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	planner := NewFlowPlanner()
	catalog := NewGeometryCatalog()
	policies := []Policy{
		{true, true}, {true, false}, {false, true}, {false, false},
	}

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(120)
		heights := make([]float64, n)
		for i := range heights {
			heights[i] = float64(10 + rng.Intn(60))
			if rng.Intn(25) == 0 {
				heights[i] = float64(400 + rng.Intn(900))
			}
		}
		rows := rowsOfHeights(heights...)
		policy := policies[iter%len(policies)]
		preset := catalog.Presets()[iter%len(catalog.Presets())]
		pages := planner.Plan(rows, catalog.Resolve(string(preset.ID)), policy)

		// no loss, no duplication, no reordering
		require.Equal(t, lineNumbers(rows), lineNumbers(FlattenRows(pages)))

		// between 1 and max(1, N) pages
		require.GreaterOrEqual(t, len(pages), 1)
		if n > 0 {
			require.LessOrEqual(t, len(pages), n)
		}

		for i, p := range pages {
			require.Equal(t, i, p.Index)
			// a page over capacity holds exactly one row
			if p.Used > p.Capacity {
				require.Len(t, p.Rows, 1)
			}
			require.Equal(t, i == 0 || policy.RepeatHeaderEveryPage, p.HasHeader)
		}

		if policy.TotalsOnlyOnLastPage {
			require.Equal(t, 1, TotalsCount(pages))
			require.True(t, pages[len(pages)-1].HasTotals)
		} else {
			require.Equal(t, len(pages), TotalsCount(pages))
		}
	}
}
