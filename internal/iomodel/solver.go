// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// errNonFiniteSolution marks a SingularSystemError whose LU solve succeeded
// but overflowed.
var errNonFiniteSolution = errors.New("non-finite solution")

// SolveOptions tunes SolvePriceChange.
type SolveOptions struct {
	// PseudoInverseFallback answers a singular system with the SVD
	// minimum-norm solution instead of a SingularSystemError. The result is
	// flagged with UsedPseudoInverse.
	PseudoInverseFallback bool
}

// PriceSolution is the outcome of one Leontief price solve.
type PriceSolution struct {
	// Price changes keyed by the endogenous keys, fractional (0.1 = +10%)
	Changes *KeyedVector
	// Condition number estimate of (I - A_EE^T)
	Cond float64
	// True when the SVD fallback produced Changes
	UsedPseudoInverse bool
}

// SolvePriceChange solves (I - A_EE^T) dP = A_XE^T P_X.
//
// px is keyed by the exogenous keys and holds their price changes; endogenous
// lists N. A_EE is A restricted to N x N and A_XE is A restricted to the
// exogenous rows x N. a is only read.
func SolvePriceChange(a *KeyedMatrix, px *KeyedVector, endogenous []Key, opts SolveOptions) (*PriceSolution, error) {
	const op = "solve price change"

	// 1. Validate the partition
	if a == nil || px == nil {
		return nil, preconditionf(op, "", nil, "coefficient matrix and exogenous prices are both required")
	}
	if err := checkSquare(op, a); err != nil {
		return nil, err
	}
	if px.Len() == 0 || len(endogenous) == 0 {
		return nil, preconditionf(op, "", nil, "need at least one exogenous and one endogenous key, got %d and %d",
			px.Len(), len(endogenous))
	}
	var missing, overlap []Key
	endoSet := make(KeySet, len(endogenous))
	for _, k := range endogenous {
		if !a.HasRow(k) {
			missing = append(missing, k)
		}
		if endoSet.Has(k) {
			overlap = append(overlap, k)
		}
		endoSet[k] = struct{}{}
	}
	for _, k := range px.keys {
		if !a.HasRow(k) {
			missing = append(missing, k)
		}
		if endoSet.Has(k) {
			overlap = append(overlap, k)
		}
	}
	if len(missing) > 0 {
		return nil, preconditionf(op, "A", missing, "keys not present in the coefficient matrix")
	}
	if len(overlap) > 0 {
		return nil, preconditionf(op, "A", overlap, "keys listed twice or as both exogenous and endogenous")
	}
	if err := px.CheckFinite(op); err != nil {
		return nil, err
	}

	// 2. Build M = I - A_EE^T and rhs = A_XE^T P_X
	n := len(endogenous)
	endoIdx := make([]int, n)
	for i, k := range endogenous {
		endoIdx[i] = a.rowIdx[k]
	}
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -a.data.At(endoIdx[j], endoIdx[i])
			if i == j {
				v += 1
			}
			m.Set(i, j, v)
		}
	}
	// Unshocked rows add nothing to rhs but must still be finite
	var nonFinite []Key
	for _, k := range px.keys {
		row := a.rowIdx[k]
		for i := 0; i < n; i++ {
			v := a.data.At(row, endoIdx[i])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				nonFinite = append(nonFinite, k)
				break
			}
		}
	}
	if len(nonFinite) > 0 {
		return nil, preconditionf(op, "A_XE", nonFinite, "non-finite coefficients in exogenous rows")
	}
	rhs := mat.NewVecDense(n, nil)
	for e, k := range px.keys {
		p := px.values[e]
		if p == 0 {
			continue
		}
		row := a.rowIdx[k]
		for i := 0; i < n; i++ {
			rhs.SetVec(i, rhs.AtVec(i)+a.data.At(row, endoIdx[i])*p)
		}
	}
	if err := checkFiniteDense(op, m, rhs, endogenous); err != nil {
		return nil, err
	}

	// 3. LU solve, with an explicit SVD fallback when asked for
	var lu mat.LU
	lu.Factorize(m)
	cond := lu.Cond()

	var dp mat.VecDense
	solveErr := lu.SolveVecTo(&dp, false, rhs)
	if solveErr == nil && cond > mat.ConditionTolerance {
		solveErr = mat.Condition(cond)
	}
	if solveErr != nil {
		var c mat.Condition
		if errors.As(solveErr, &c) {
			cond = float64(c)
		}
		singular := &SingularSystemError{Op: op, Size: n, Cond: cond, Err: solveErr}
		if !opts.PseudoInverseFallback {
			return nil, singular
		}
		sol, ok := pseudoInverseSolve(m, rhs)
		if !ok {
			return nil, singular
		}
		return &PriceSolution{
			Changes:           mustVector("price_change", endogenous, sol),
			Cond:              cond,
			UsedPseudoInverse: true,
		}, nil
	}

	// 4. A finite system can still overflow
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := dp.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &SingularSystemError{Op: op, Size: n, Cond: cond, Err: errNonFiniteSolution}
		}
		out[i] = v
	}
	return &PriceSolution{Changes: mustVector("price_change", endogenous, out), Cond: cond}, nil
}

// pseudoInverseSolve returns the minimum-norm least-squares solution of
// m x = b through the SVD.
func pseudoInverseSolve(m *mat.Dense, b *mat.VecDense) ([]float64, bool) {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFullU|mat.SVDFullV); !ok {
		return nil, false
	}
	n, _ := m.Dims()
	rank := svd.Rank(1e-12)
	// Numerically all-zero system: the minimum-norm solution is 0
	if rank == 0 {
		return make([]float64, n), true
	}
	var x mat.Dense
	svd.SolveTo(&x, b, rank)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = x.At(i, 0)
	}
	return out, true
}

func checkSquare(op string, a *KeyedMatrix) error {
	nr, nc := a.Dims()
	if nr != nc {
		return preconditionf(op, "A", nil, "coefficient matrix must be square, got %d x %d", nr, nc)
	}
	var missing []Key
	for _, k := range a.rows {
		if !a.HasCol(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return preconditionf(op, "A", missing, "row keys without a matching column")
	}
	return nil
}

func checkFiniteDense(op string, m *mat.Dense, b *mat.VecDense, keys []Key) error {
	var bad []Key
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		v := b.AtVec(i)
		finite := !math.IsNaN(v) && !math.IsInf(v, 0)
		for j := 0; j < n && finite; j++ {
			v = m.At(i, j)
			finite = !math.IsNaN(v) && !math.IsInf(v, 0)
		}
		if !finite {
			bad = append(bad, keys[i])
		}
	}
	if len(bad) > 0 {
		return preconditionf(op, "A", bad, "NaN or Inf in the Leontief system")
	}
	return nil
}
