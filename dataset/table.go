// Package dataset provides the in-memory observation table used by the
// clinstat analysis pipelines.
//
// A Table holds named numeric columns in row-major order, loaded from a
// delimited file with a header row. Categorical fields are stored as their
// raw numeric codes and can be recoded to labeled two-level categories for
// presentation. Tables are mutated in place by preprocessing steps and
// partitioned into train/test subsets by a seeded random split; every
// operation preserves the row-count invariants of the pipeline.
//
// Example usage:
//
//	tbl, err := dataset.Open("survey.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = tbl.Recode("smoker", map[float64]string{0: "no", 1: "yes"})
//	train, test, err := tbl.Split(0.75, 1103)
package dataset

import (
	"gonum.org/v1/gonum/mat"

	clinstatErrors "github.com/clinstat/clinstat/pkg/errors"
)

// Table is an observation table: rows are samples, columns are named numeric
// or recoded categorical features plus outcome fields.
type Table struct {
	names  []string
	index  map[string]int
	rows   [][]float64
	levels map[string]map[float64]string
}

// New creates a Table from column names and row-major data. Every row must
// have exactly one value per column.
func New(names []string, rows [][]float64) (*Table, error) {
	if len(names) == 0 {
		return nil, clinstatErrors.NewModelError("dataset.New", "no columns", clinstatErrors.ErrEmptyData)
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, clinstatErrors.NewValueError("dataset.New", "duplicate column name: "+name)
		}
		index[name] = i
	}
	for _, row := range rows {
		if len(row) != len(names) {
			return nil, clinstatErrors.NewDimensionError("dataset.New", len(names), len(row), 1)
		}
	}
	return &Table{
		names:  append([]string(nil), names...),
		index:  index,
		rows:   rows,
		levels: make(map[string]map[float64]string),
	}, nil
}

// NumRows returns the number of observations.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.names) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]float64, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, clinstatErrors.NewValueError("Table.Column", "unknown column: "+name)
	}
	col := make([]float64, len(t.rows))
	for i, row := range t.rows {
		col[i] = row[j]
	}
	return col, nil
}

// SetColumn overwrites the named column in place. The replacement must have
// one value per row so the observation count is preserved.
func (t *Table) SetColumn(name string, values []float64) error {
	j, ok := t.index[name]
	if !ok {
		return clinstatErrors.NewValueError("Table.SetColumn", "unknown column: "+name)
	}
	if len(values) != len(t.rows) {
		return clinstatErrors.NewDimensionError("Table.SetColumn", len(t.rows), len(values), 0)
	}
	for i := range t.rows {
		t.rows[i][j] = values[i]
	}
	return nil
}

// Recode maps the raw numeric codes of a categorical column to labels, for
// example {0: "benign", 1: "malignant"}. Every value present in the column
// must have a label; the numeric codes themselves are left untouched so the
// column remains usable as a model outcome. Row count is preserved.
func (t *Table) Recode(name string, levels map[float64]string) error {
	j, ok := t.index[name]
	if !ok {
		return clinstatErrors.NewValueError("Table.Recode", "unknown column: "+name)
	}
	for _, row := range t.rows {
		if _, ok := levels[row[j]]; !ok {
			return clinstatErrors.NewValidationError(name,
				"value has no label in recode map", row[j])
		}
	}
	copied := make(map[float64]string, len(levels))
	for k, v := range levels {
		copied[k] = v
	}
	t.levels[name] = copied
	return nil
}

// Levels returns the label map of a recoded column, or nil if the column has
// not been recoded.
func (t *Table) Levels(name string) map[float64]string {
	return t.levels[name]
}

// Label returns the label for a value of a recoded column, falling back to an
// empty string when no label exists.
func (t *Table) Label(name string, value float64) string {
	if m, ok := t.levels[name]; ok {
		return m[value]
	}
	return ""
}

// Matrix assembles the named columns into a dense matrix of shape
// (n_rows, len(names)), in the given order.
func (t *Table) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		return nil, clinstatErrors.NewValueError("Table.Matrix", "no columns requested")
	}
	cols := make([]int, len(names))
	for k, name := range names {
		j, ok := t.index[name]
		if !ok {
			return nil, clinstatErrors.NewValueError("Table.Matrix", "unknown column: "+name)
		}
		cols[k] = j
	}
	X := mat.NewDense(len(t.rows), len(names), nil)
	for i, row := range t.rows {
		for k, j := range cols {
			X.Set(i, k, row[j])
		}
	}
	return X, nil
}

// Vector returns the named column as a column vector.
func (t *Table) Vector(name string) (*mat.VecDense, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(col), col), nil
}

// Append adds rows to the table. Each row must match the column count, so the
// per-row shape invariant holds after extension.
func (t *Table) Append(rows [][]float64) error {
	for _, row := range rows {
		if len(row) != len(t.names) {
			return clinstatErrors.NewDimensionError("Table.Append", len(t.names), len(row), 1)
		}
	}
	for _, row := range rows {
		t.rows = append(t.rows, append([]float64(nil), row...))
	}
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	rows := make([][]float64, len(t.rows))
	for i, row := range t.rows {
		rows[i] = append([]float64(nil), row...)
	}
	clone, _ := New(t.names, rows)
	for name, m := range t.levels {
		copied := make(map[float64]string, len(m))
		for k, v := range m {
			copied[k] = v
		}
		clone.levels[name] = copied
	}
	return clone
}

// subset builds a new table from the rows at the given indices, copying the
// level labels of recoded columns.
func (t *Table) subset(indices []int) *Table {
	rows := make([][]float64, len(indices))
	for k, i := range indices {
		rows[k] = append([]float64(nil), t.rows[i]...)
	}
	sub, _ := New(t.names, rows)
	for name, m := range t.levels {
		copied := make(map[float64]string, len(m))
		for k, v := range m {
			copied[k] = v
		}
		sub.levels[name] = copied
	}
	return sub
}

// Row returns a copy of the i-th row.
func (t *Table) Row(i int) []float64 {
	return append([]float64(nil), t.rows[i]...)
}
