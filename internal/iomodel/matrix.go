// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KeyedMatrix is a dense table whose rows and columns are identified by
// (Country, Sector) keys. It is immutable: every transformation returns a
// new matrix, so one snapshot can be shared by concurrent solves.
type KeyedMatrix struct {
	rows   []Key
	cols   []Key
	rowIdx map[Key]int
	colIdx map[Key]int
	data   *mat.Dense
}

// NewKeyedMatrix validates the keys and builds a matrix from row-major data.
// A nil data slice gives a zero matrix. data is copied.
func NewKeyedMatrix(rows, cols []Key, data []float64) (*KeyedMatrix, error) {
	const op = "new keyed matrix"

	// 1. Shape checks
	if len(rows) == 0 || len(cols) == 0 {
		return nil, preconditionf(op, "", nil, "matrix needs at least one row and one column, got %d x %d", len(rows), len(cols))
	}
	if data != nil && len(data) != len(rows)*len(cols) {
		return nil, preconditionf(op, "", nil, "expected %d values for %d x %d, got %d",
			len(rows)*len(cols), len(rows), len(cols), len(data))
	}

	// 2. Key checks
	rowIdx, err := indexKeys(op, "rows", rows)
	if err != nil {
		return nil, err
	}
	colIdx, err := indexKeys(op, "columns", cols)
	if err != nil {
		return nil, err
	}

	// 3. Copy the values
	var buf []float64
	if data != nil {
		buf = slices.Clone(data)
	}

	return &KeyedMatrix{
		rows:   slices.Clone(rows),
		cols:   slices.Clone(cols),
		rowIdx: rowIdx,
		colIdx: colIdx,
		data:   mat.NewDense(len(rows), len(cols), buf),
	}, nil
}

// FromDense builds a keyed matrix from any gonum matrix. Values are copied.
func FromDense(rows, cols []Key, m mat.Matrix) (*KeyedMatrix, error) {
	r, c := m.Dims()
	if r != len(rows) || c != len(cols) {
		return nil, preconditionf("from dense", "", nil, "matrix is %d x %d but %d row and %d column keys were given",
			r, c, len(rows), len(cols))
	}
	km, err := NewKeyedMatrix(rows, cols, nil)
	if err != nil {
		return nil, err
	}
	km.data.Copy(m)
	return km, nil
}

// indexKeys maps keys to positions, rejecting duplicates and empty halves.
func indexKeys(op, axis string, keys []Key) (map[Key]int, error) {
	idx := make(map[Key]int, len(keys))
	var dups, bad []Key
	for i, k := range keys {
		if !k.valid() {
			bad = append(bad, k)
			continue
		}
		if _, seen := idx[k]; seen {
			dups = append(dups, k)
			continue
		}
		idx[k] = i
	}
	if len(bad) > 0 {
		return nil, preconditionf(op, axis, bad, "keys need both a country and a sector")
	}
	if len(dups) > 0 {
		return nil, preconditionf(op, axis, dups, "duplicate keys")
	}
	return idx, nil
}

// Dims returns the number of rows and columns.
func (m *KeyedMatrix) Dims() (int, int) { return len(m.rows), len(m.cols) }

// Rows returns a copy of the row keys in order.
func (m *KeyedMatrix) Rows() []Key { return slices.Clone(m.rows) }

// Cols returns a copy of the column keys in order.
func (m *KeyedMatrix) Cols() []Key { return slices.Clone(m.cols) }

// RowIndex returns the position of a row key.
func (m *KeyedMatrix) RowIndex(k Key) (int, bool) {
	i, ok := m.rowIdx[k]
	return i, ok
}

// ColIndex returns the position of a column key.
func (m *KeyedMatrix) ColIndex(k Key) (int, bool) {
	j, ok := m.colIdx[k]
	return j, ok
}

// HasRow reports whether k is a row key.
func (m *KeyedMatrix) HasRow(k Key) bool {
	_, ok := m.rowIdx[k]
	return ok
}

// HasCol reports whether k is a column key.
func (m *KeyedMatrix) HasCol(k Key) bool {
	_, ok := m.colIdx[k]
	return ok
}

// At returns the cell at (r, c); ok is false when either key is absent.
func (m *KeyedMatrix) At(r, c Key) (float64, bool) {
	i, ok := m.rowIdx[r]
	if !ok {
		return 0, false
	}
	j, ok := m.colIdx[c]
	if !ok {
		return 0, false
	}
	return m.data.At(i, j), true
}

// AtIndex returns the cell at positions (i, j).
func (m *KeyedMatrix) AtIndex(i, j int) float64 { return m.data.At(i, j) }

// Row returns a copy of the row for key k.
func (m *KeyedMatrix) Row(k Key) ([]float64, bool) {
	i, ok := m.rowIdx[k]
	if !ok {
		return nil, false
	}
	return mat.Row(nil, i, m.data), true
}

// Col returns a copy of the column for key k.
func (m *KeyedMatrix) Col(k Key) ([]float64, bool) {
	j, ok := m.colIdx[k]
	if !ok {
		return nil, false
	}
	return mat.Col(nil, j, m.data), true
}

// Dense returns a copy of the values.
func (m *KeyedMatrix) Dense() *mat.Dense { return mat.DenseCopyOf(m.data) }

// Sum returns the sum of every cell.
func (m *KeyedMatrix) Sum() float64 { return mat.Sum(m.data) }

// RowSums returns one total per row key.
func (m *KeyedMatrix) RowSums(name string) *KeyedVector {
	r, c := m.data.Dims()
	sums := make([]float64, r)
	row := make([]float64, c)
	for i := range sums {
		sums[i] = floats.Sum(mat.Row(row, i, m.data))
	}
	return mustVector(name, m.rows, sums)
}

// ColSums returns one total per column key.
func (m *KeyedMatrix) ColSums(name string) *KeyedVector {
	r, c := m.data.Dims()
	sums := make([]float64, c)
	col := make([]float64, r)
	for j := range sums {
		sums[j] = floats.Sum(mat.Col(col, j, m.data))
	}
	return mustVector(name, m.cols, sums)
}

// Map derives a new matrix whose cells are fn(row, col, value).
func (m *KeyedMatrix) Map(fn func(r, c Key, v float64) float64) *KeyedMatrix {
	out := m.clone()
	nr, nc := out.data.Dims()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			out.data.Set(i, j, fn(m.rows[i], m.cols[j], m.data.At(i, j)))
		}
	}
	return out
}

// Zeroed derives a new matrix with every cell matching pred set to zero.
func (m *KeyedMatrix) Zeroed(pred func(r, c Key) bool) *KeyedMatrix {
	return m.Map(func(r, c Key, v float64) float64 {
		if pred(r, c) {
			return 0
		}
		return v
	})
}

// Sub returns the block addressed by rows x cols, in the given order.
func (m *KeyedMatrix) Sub(rows, cols []Key) (*KeyedMatrix, error) {
	const op = "sub matrix"
	var missingRows, missingCols []Key
	ri := make([]int, len(rows))
	for n, k := range rows {
		i, ok := m.rowIdx[k]
		if !ok {
			missingRows = append(missingRows, k)
		}
		ri[n] = i
	}
	ci := make([]int, len(cols))
	for n, k := range cols {
		j, ok := m.colIdx[k]
		if !ok {
			missingCols = append(missingCols, k)
		}
		ci[n] = j
	}
	if len(missingRows) > 0 {
		return nil, preconditionf(op, "rows", missingRows, "keys not present in matrix")
	}
	if len(missingCols) > 0 {
		return nil, preconditionf(op, "columns", missingCols, "keys not present in matrix")
	}

	out, err := NewKeyedMatrix(rows, cols, nil)
	if err != nil {
		return nil, err
	}
	for a, i := range ri {
		for b, j := range ci {
			out.data.Set(a, b, m.data.At(i, j))
		}
	}
	return out, nil
}

// Filter keeps the rows and columns whose keys satisfy the predicates.
// A nil predicate keeps the whole axis.
func (m *KeyedMatrix) Filter(keepRow, keepCol func(Key) bool) (*KeyedMatrix, error) {
	rows := filterKeys(m.rows, keepRow)
	cols := filterKeys(m.cols, keepCol)
	return m.Sub(rows, cols)
}

func filterKeys(keys []Key, keep func(Key) bool) []Key {
	if keep == nil {
		return slices.Clone(keys)
	}
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		if keep(k) {
			out = append(out, k)
		}
	}
	return out
}

// Regroup renames every row key with rowFn and every column key with colFn
// and sums cells that land on the same key. Output keys are sorted.
// A nil function leaves that axis as is.
func (m *KeyedMatrix) Regroup(rowFn, colFn func(Key) Key) (*KeyedMatrix, error) {
	rowMap, rows := groupKeys(m.rows, rowFn)
	colMap, cols := groupKeys(m.cols, colFn)

	out, err := NewKeyedMatrix(rows, cols, nil)
	if err != nil {
		return nil, err
	}
	nr, nc := m.data.Dims()
	for i := 0; i < nr; i++ {
		ti := rowMap[i]
		for j := 0; j < nc; j++ {
			tj := colMap[j]
			out.data.Set(ti, tj, out.data.At(ti, tj)+m.data.At(i, j))
		}
	}
	return out, nil
}

// groupKeys returns, for each source position, its target position among
// the sorted distinct renamed keys.
func groupKeys(keys []Key, fn func(Key) Key) ([]int, []Key) {
	renamed := make([]Key, len(keys))
	distinct := make(KeySet, len(keys))
	for i, k := range keys {
		if fn != nil {
			k = fn(k)
		}
		renamed[i] = k
		distinct[k] = struct{}{}
	}
	targets := make([]Key, 0, len(distinct))
	for k := range distinct {
		targets = append(targets, k)
	}
	SortKeys(targets)
	pos := make(map[Key]int, len(targets))
	for i, k := range targets {
		pos[k] = i
	}
	mapping := make([]int, len(keys))
	for i, k := range renamed {
		mapping[i] = pos[k]
	}
	return mapping, targets
}

// Sorted returns the matrix with rows and columns in key order.
func (m *KeyedMatrix) Sorted() *KeyedMatrix {
	rows := slices.Clone(m.rows)
	cols := slices.Clone(m.cols)
	SortKeys(rows)
	SortKeys(cols)
	out, _ := m.Sub(rows, cols) // same key sets, cannot fail
	return out
}

// Minus returns m - o for two matrices over the same row and column key sets.
// o's cells are aligned by key, so key order may differ.
func (m *KeyedMatrix) Minus(o *KeyedMatrix) (*KeyedMatrix, error) {
	const op = "matrix difference"
	if len(o.rows) != len(m.rows) || len(o.cols) != len(m.cols) {
		return nil, preconditionf(op, "", nil, "shape %d x %d does not match %d x %d",
			len(o.rows), len(o.cols), len(m.rows), len(m.cols))
	}
	aligned, err := o.Sub(m.rows, m.cols)
	if err != nil {
		return nil, err
	}
	out := m.clone()
	out.data.Sub(m.data, aligned.data)
	return out, nil
}

// CheckFinite returns a precondition error naming the first cells that hold
// NaN or Inf.
func (m *KeyedMatrix) CheckFinite(op, name string) error {
	var bad []Key
	nr, nc := m.data.Dims()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			v := m.data.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				bad = append(bad, m.rows[i], m.cols[j])
			}
		}
	}
	if len(bad) > 0 {
		return preconditionf(op, name, bad, "%d non-finite cells (row, column pairs listed)", len(bad)/2)
	}
	return nil
}

// Countries returns the distinct row countries in first-seen order.
func (m *KeyedMatrix) Countries() []string { return countriesOf(m.rows) }

// ColCountries returns the distinct column countries in first-seen order.
func (m *KeyedMatrix) ColCountries() []string { return countriesOf(m.cols) }

func countriesOf(keys []Key) []string {
	seen := make(StringSet)
	var out []string
	for _, k := range keys {
		if !seen.Has(k.Country) {
			seen[k.Country] = struct{}{}
			out = append(out, k.Country)
		}
	}
	return out
}

func (m *KeyedMatrix) clone() *KeyedMatrix {
	return &KeyedMatrix{
		rows:   m.rows,
		cols:   m.cols,
		rowIdx: m.rowIdx,
		colIdx: m.colIdx,
		data:   mat.DenseCopyOf(m.data),
	}
}

// Clone returns an independent copy.
func (m *KeyedMatrix) Clone() *KeyedMatrix { return m.clone() }
