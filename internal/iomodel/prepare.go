// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"fmt"
)

// GrossOutputKey addresses the appended gross output row.
var GrossOutputKey = Key{Country: GrossOutputMarker, Sector: GrossOutputMarker}

// IOTables holds the blocks cut out of one full FIGARO table.
type IOTables struct {
	// Interindustry flows: industry rows x industry columns
	Z *KeyedMatrix
	// Final demand: industry and value added rows x final demand columns
	Y *KeyedMatrix
	// Gross output per industry column
	X *KeyedVector
	// Value added rows (country W2)
	VA *KeyedMatrix
}

// AddGrossOutputRow appends a ("GO", "GO") row holding the column sums of
// every existing row.
func AddGrossOutputRow(full *KeyedMatrix) (*KeyedMatrix, error) {
	const op = "add gross output row"
	if full == nil {
		return nil, preconditionf(op, "", nil, "nil matrix")
	}
	if full.HasRow(GrossOutputKey) {
		return nil, preconditionf(op, "", []Key{GrossOutputKey}, "table already has a gross output row")
	}

	nr, nc := full.Dims()
	rows := append(full.Rows(), GrossOutputKey)
	data := make([]float64, 0, (nr+1)*nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			data = append(data, full.data.At(i, j))
		}
	}
	sums := full.ColSums("")
	data = append(data, sums.values...)
	return NewKeyedMatrix(rows, full.cols, data)
}

// GrossOutputFromRow reads X from the ("GO", "GO") row, keeping only the
// columns whose sector is not a final demand code.
func GrossOutputFromRow(full *KeyedMatrix, finalDemand []string) (*KeyedVector, error) {
	const op = "gross output from row"
	row, ok := full.Row(GrossOutputKey)
	if !ok {
		return nil, preconditionf(op, "", []Key{GrossOutputKey}, "table has no gross output row")
	}
	fd := NewStringSet(finalDemand...)
	var keys []Key
	var vals []float64
	for j, c := range full.cols {
		if fd.Has(c.Sector) {
			continue
		}
		keys = append(keys, c)
		vals = append(vals, row[j])
	}
	return NewKeyedVector("gross_output", keys, vals)
}

// GrossOutputFromColumnSums computes X as the column totals of every
// transaction row.
func GrossOutputFromColumnSums(m *KeyedMatrix) *KeyedVector {
	return m.ColSums("gross_output")
}

// ExtractTables splits a full table that already carries the gross output row
// into Z, Y, X and VA.
func ExtractTables(full *KeyedMatrix, finalDemand []string) (*IOTables, error) {
	fd := NewStringSet(finalDemand...)
	va := NewStringSet(ValueAddedCodes...)

	// 1. Z: industry rows, industry columns
	z, err := full.Filter(
		func(k Key) bool { return k.Country != ValueAddedMarker && k.Country != GrossOutputMarker },
		func(k Key) bool {
			return !fd.Has(k.Sector) && k.Country != ValueAddedMarker && k.Sector != CPIWeightSector
		},
	)
	if err != nil {
		return nil, fmt.Errorf("extract Z: %w", err)
	}

	// 2. Y: every row but gross output, final demand columns
	y, err := full.Filter(
		func(k Key) bool { return k.Country != GrossOutputMarker },
		func(k Key) bool { return fd.Has(k.Sector) },
	)
	if err != nil {
		return nil, fmt.Errorf("extract Y: %w", err)
	}

	// 3. X from the gross output row, restricted to Z's columns
	xAll, err := GrossOutputFromRow(full, finalDemand)
	if err != nil {
		return nil, fmt.Errorf("extract X: %w", err)
	}
	zCols := NewKeySet(z.cols)
	x := xAll.Filter(func(k Key, _ float64) bool { return zCols.Has(k) })

	// 4. VA: value added rows, nil when the table carries none
	isVA := func(k Key) bool { return k.Country == ValueAddedMarker && va.Has(k.Sector) }
	var vaRows *KeyedMatrix
	if len(filterKeys(full.rows, isVA)) > 0 {
		vaRows, err = full.Filter(isVA, nil)
		if err != nil {
			return nil, fmt.Errorf("extract VA: %w", err)
		}
	}

	return &IOTables{Z: z, Y: y, X: x, VA: vaRows}, nil
}
