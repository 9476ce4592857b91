// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"fmt"
)

// HouseholdShareSector labels the columns of a household share table.
const HouseholdShareSector = "household_share"

// SplitFinalDemandEnergy keeps the columns of one final demand category and
// duplicates the B rows into B_gas and B_nongas.
func SplitFinalDemandEnergy(y *KeyedMatrix, category string) (*KeyedMatrix, error) {
	if y == nil {
		return nil, preconditionf("split final demand", "", nil, "nil matrix")
	}
	kept, err := y.Filter(nil, func(k Key) bool { return k.Sector == category })
	if err != nil {
		return nil, fmt.Errorf("split final demand: keep %s columns: %w", category, err)
	}
	return SplitEnergyRows(kept)
}

// HouseholdEnergyShares computes, for every origin country's B_gas and
// B_nongas rows, the gas and non-gas share of household purchases by each
// destination country. A destination buying no energy from an origin gets 0
// for both. Columns are keyed (destination, "household_share").
func HouseholdEnergyShares(y *KeyedMatrix, category string) (*KeyedMatrix, error) {
	const op = "household energy shares"
	if y == nil {
		return nil, preconditionf(op, "", nil, "nil matrix")
	}

	// 1. Household columns of the category, in order
	var cols []int
	var dests []Key
	for j, c := range y.cols {
		if c.Sector == category {
			cols = append(cols, j)
			dests = append(dests, Key{Country: c.Country, Sector: HouseholdShareSector})
		}
	}
	if len(cols) == 0 {
		return nil, preconditionf(op, "Y", nil, "no %q columns", category)
	}

	// 2. Gas and non-gas rows per origin
	var rows []Key
	for _, k := range y.rows {
		if isEnergyHalf(k.Sector) {
			rows = append(rows, k)
		}
	}
	if len(rows) == 0 {
		return nil, preconditionf(op, "Y", nil, "no %s/%s rows", GasSector, NonGasSector)
	}
	SortKeys(rows)

	out, err := NewKeyedMatrix(rows, dests, nil)
	if err != nil {
		return nil, err
	}

	// 3. Share of each half in the origin's energy sales to each destination
	for a, r := range rows {
		other := Key{Country: r.Country, Sector: NonGasSector}
		if r.Sector == NonGasSector {
			other.Sector = GasSector
		}
		i := y.rowIdx[r]
		oi, hasOther := y.rowIdx[other]
		for b, j := range cols {
			v := y.data.At(i, j)
			total := v
			if hasOther {
				total += y.data.At(oi, j)
			}
			if total != 0 {
				out.data.Set(a, b, v/total)
			}
		}
	}
	return out, nil
}

// ApplyHouseholdEnergyShares scales the B_gas/B_nongas rows of a split final
// demand table by the household share of (origin, destination country).
func ApplyHouseholdEnergyShares(y, shares *KeyedMatrix) (*KeyedMatrix, error) {
	const op = "apply household energy shares"
	if y == nil || shares == nil {
		return nil, preconditionf(op, "", nil, "final demand and share table are both required")
	}

	out := y.clone()
	var missing []Key
	for i, r := range y.rows {
		if !isEnergyHalf(r.Sector) {
			continue
		}
		si, ok := shares.rowIdx[r]
		if !ok {
			missing = append(missing, r)
			continue
		}
		for j, c := range y.cols {
			dest := Key{Country: c.Country, Sector: HouseholdShareSector}
			sj, ok := shares.colIdx[dest]
			if !ok {
				missing = append(missing, dest)
				continue
			}
			out.data.Set(i, j, out.data.At(i, j)*shares.data.At(si, sj))
		}
	}
	if len(missing) > 0 {
		return nil, preconditionf(op, "shares", dedupe(missing), "household share table has no entry for these keys")
	}
	return out, nil
}
