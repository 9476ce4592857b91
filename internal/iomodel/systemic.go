// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SectorShock is the unweighted price response to shocking one sector.
type SectorShock struct {
	Exogenous Key
	Shock     float64
	// Price change of every other key of A
	Changes *KeyedVector
}

// ShockSector treats k as the only exogenous sector, gives it price change
// shock, and solves for every other key of a.
func ShockSector(a *KeyedMatrix, k Key, shock float64, opts SolveOptions) (*SectorShock, error) {
	const op = "shock sector"
	if !a.HasRow(k) {
		return nil, preconditionf(op, "A", []Key{k}, "exogenous sector not in the coefficient matrix")
	}
	endo := make([]Key, 0, len(a.rows)-1)
	for _, r := range a.rows {
		if r != k {
			endo = append(endo, r)
		}
	}
	px := mustVector("price_volatility", []Key{k}, []float64{shock})
	sol, err := SolvePriceChange(a, px, endo, opts)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, k, err)
	}
	return &SectorShock{Exogenous: k, Shock: shock, Changes: sol.Changes}, nil
}

// ShockCandidates returns the volatility entries that can be shocked: present
// in a and non-zero. Everything else is reported and dropped.
func ShockCandidates(a *KeyedMatrix, volatility *KeyedVector, report *Report) []Key {
	var out []Key
	for i, k := range volatility.keys {
		v := volatility.values[i]
		switch {
		case !a.HasRow(k):
			report.Add(Diagnostic{Kind: MissingSector, Key: k, Detail: "volatility entry has no row in A"})
		case v == 0:
			report.Add(Diagnostic{Kind: ZeroShock, Key: k, Detail: "zero volatility, nothing to propagate"})
		default:
			out = append(out, k)
		}
	}
	SortKeys(out)
	return out
}

// UnweightedShocks shocks every candidate sector in turn with its volatility.
// Singular systems and overflowing solutions are reported and skipped; other
// errors stop the run.
func UnweightedShocks(a *KeyedMatrix, volatility *KeyedVector, opts SolveOptions, report *Report) (*KeyedMatrix, error) {
	if err := requireReport("unweighted shocks", report); err != nil {
		return nil, err
	}
	var shocks []*SectorShock
	for _, k := range ShockCandidates(a, volatility, report) {
		v, _ := volatility.Get(k)
		s, err := ShockSector(a, k, v, opts)
		if IsSingular(err) {
			kind := SingularSkipped
			if errors.Is(err, errNonFiniteSolution) {
				kind = NonFiniteSkipped
			}
			report.Add(Diagnostic{Kind: kind, Key: k, Detail: err.Error()})
			continue
		}
		if err != nil {
			return nil, err
		}
		shocks = append(shocks, s)
	}
	return ShockMatrix(a, shocks)
}

// ShockMatrix lays sector shocks out as exogenous rows x affected columns.
// Rows are sorted; columns are a's keys, sorted. A row's own column is 0.
func ShockMatrix(a *KeyedMatrix, shocks []*SectorShock) (*KeyedMatrix, error) {
	if len(shocks) == 0 {
		return nil, preconditionf("shock matrix", "", nil, "no sector could be shocked")
	}
	rows := make([]Key, len(shocks))
	byKey := make(map[Key]*SectorShock, len(shocks))
	for i, s := range shocks {
		rows[i] = s.Exogenous
		byKey[s.Exogenous] = s
	}
	SortKeys(rows)
	cols := a.Rows()
	SortKeys(cols)

	out, err := NewKeyedMatrix(rows, cols, nil)
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		s := byKey[r]
		for j, c := range cols {
			if v, ok := s.Changes.Get(c); ok {
				out.data.Set(i, j, v)
			}
		}
	}
	return out, nil
}

// ScreenSystemic flags sectors whose price volatility and forward linkage
// are both above the mean over the sectors present in all three inputs.
// CPI weight is the sum over the region columns.
func ScreenSystemic(a *KeyedMatrix, volatility *KeyedVector, weights *KeyedMatrix) ([]SystemicRecord, error) {
	const op = "screen systemic sectors"
	if a == nil || volatility == nil || weights == nil {
		return nil, preconditionf(op, "", nil, "A, volatility and weights are all required")
	}
	linkages := ForwardLinkages(a)
	cpi := weights.RowSums("cpi_weight")

	// 1. Common keys
	var keys []Key
	for _, k := range volatility.keys {
		if linkages.Has(k) && cpi.Has(k) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, preconditionf(op, "", nil, "volatility, A and weights share no sector")
	}
	SortKeys(keys)

	// 2. Means over the common keys
	vols := make([]float64, len(keys))
	fls := make([]float64, len(keys))
	for i, k := range keys {
		vols[i], _ = volatility.Get(k)
		fls[i], _ = linkages.Get(k)
	}
	if floats.HasNaN(vols) || floats.HasNaN(fls) {
		return nil, preconditionf(op, "", nil, "NaN volatility or forward linkage")
	}
	meanVol := stat.Mean(vols, nil)
	meanFL := stat.Mean(fls, nil)

	// 3. Flags
	out := make([]SystemicRecord, len(keys))
	for i, k := range keys {
		w, _ := cpi.Get(k)
		rec := SystemicRecord{
			Key:            k,
			Volatility:     vols[i],
			ForwardLinkage: fls[i],
			CPIWeight:      w,
			HighVolatility: vols[i] > meanVol,
			HighLinkage:    fls[i] > meanFL,
		}
		rec.Systemic = rec.HighVolatility && rec.HighLinkage
		out[i] = rec
	}
	return out, nil
}
