package bias

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ValuesColumn is the single column label of a demographic stats table.
const ValuesColumn = "values"

// Table is a dense, zero-filled view of a result. Rows and columns follow
// the label order.
type Table struct {
	Name      string   // Label of the row index, e.g. "demographic_group" or the target group
	RowLabels []string
	ColLabels []string
	Data      *mat.Dense // nil when either axis is empty
}

func newTable(name string, rows, cols []string, at func(r, c int) int) Table {
	t := Table{Name: name, RowLabels: rows, ColLabels: cols}
	if len(rows) == 0 || len(cols) == 0 {
		return t
	}

	data := make([]float64, len(rows)*len(cols))
	for r := range rows {
		for c := range cols {
			data[r*len(cols)+c] = float64(at(r, c))
		}
	}
	t.Data = mat.NewDense(len(rows), len(cols), data)
	return t
}

// At returns the value at row r, column c.
func (t Table) At(r, c int) int {
	if t.Data == nil {
		return 0
	}
	return int(t.Data.At(r, c))
}

// Rows returns the table as integer rows.
func (t Table) Rows() [][]int {
	out := make([][]int, len(t.RowLabels))
	for r := range t.RowLabels {
		out[r] = make([]int, len(t.ColLabels))
		for c := range t.ColLabels {
			out[r][c] = t.At(r, c)
		}
	}
	return out
}

// RowTotals returns the sum of each row.
func (t Table) RowTotals() []int {
	totals := make([]int, len(t.RowLabels))
	if t.Data == nil {
		return totals
	}
	for r := range t.RowLabels {
		totals[r] = int(floats.Sum(t.Data.RawRowView(r)))
	}
	return totals
}

// ColTotals returns the sum of each column.
func (t Table) ColTotals() []int {
	totals := make([]int, len(t.ColLabels))
	if t.Data == nil {
		return totals
	}
	col := make([]float64, len(t.RowLabels))
	for c := range t.ColLabels {
		mat.Col(col, c, t.Data)
		totals[c] = int(floats.Sum(col))
	}
	return totals
}

// Table renders the stats as one row per group with a single "values"
// column.
func (s DemographicStats) Table() Table {
	groups := s.Groups()
	return newTable("demographic_group", groups, []string{ValuesColumn}, func(r, _ int) int {
		return s.counts[groups[r]]
	})
}

// Table renders the matrix with target terms as rows and demographic groups
// as columns. Pairs never observed are 0.
func (m *CooccurrenceMatrix) Table() Table {
	return newTable(m.targetGroup, m.Terms(), m.Groups(), func(r, c int) int {
		return m.Get(m.terms[r], m.groups[c])
	})
}
