// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"math"
)

// ZeroOutputTolerance is the absolute tolerance under which a gross output
// value counts as zero.
const ZeroOutputTolerance = 1e-8

// TechnicalCoefficients computes A = Z / X column by column.
// X must be keyed by exactly Z's column keys. Columns whose output is zero
// (within ZeroOutputTolerance) come out as zero columns, never NaN or Inf.
func TechnicalCoefficients(z *KeyedMatrix, x *KeyedVector) (*KeyedMatrix, error) {
	const op = "technical coefficients"
	if z == nil || x == nil {
		return nil, preconditionf(op, "", nil, "Z and X are both required")
	}

	// 1. Inputs must be finite
	if err := z.CheckFinite(op, "Z"); err != nil {
		return nil, err
	}
	if err := x.CheckFinite(op); err != nil {
		return nil, err
	}

	// 2. X must be indexed by exactly Z's columns
	var missing, extra []Key
	for _, c := range z.cols {
		if !x.Has(c) {
			missing = append(missing, c)
		}
	}
	for _, k := range x.keys {
		if !z.HasCol(k) {
			extra = append(extra, k)
		}
	}
	if len(missing) > 0 {
		return nil, preconditionf(op, "X", missing, "gross output missing for Z columns")
	}
	if len(extra) > 0 {
		return nil, preconditionf(op, "X", extra, "gross output keys that are not Z columns")
	}

	// 3. Divide each column by its output, zeroing columns with no output
	a := z.clone()
	nr, nc := a.data.Dims()
	for j := 0; j < nc; j++ {
		xj, _ := x.Get(z.cols[j])
		zero := xj == 0 || math.Abs(xj) <= ZeroOutputTolerance
		for i := 0; i < nr; i++ {
			if zero {
				a.data.Set(i, j, 0)
				continue
			}
			a.data.Set(i, j, z.data.At(i, j)/xj)
		}
	}
	return a, nil
}

// ForwardLinkages returns the row sums of A: how much each sector supplies
// per unit of output of every buyer combined.
func ForwardLinkages(a *KeyedMatrix) *KeyedVector {
	return a.RowSums("forward_linkage")
}
