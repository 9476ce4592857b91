// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import "gonum.org/v1/gonum/floats"

// ImpactSector labels the columns of a regionally weighted price change table.
const ImpactSector = "impact"

// CPIWeights computes household consumption weights per region.
//
// Rows whose country is GO or W2 are dropped. For each region, the
// consumption columns (country, consumptionCode) of its member countries are
// summed per row and divided by the region total; a region with a
// non-positive total gets all-zero weights, and a region none of whose
// countries has a consumption column is left out. The output has one column
// (region, "cpi_weight") per region, in order of first appearance of the
// regions among the matrix columns.
func CPIWeights(m *KeyedMatrix, consumptionCode string, scheme RegionScheme) (*KeyedMatrix, error) {
	const op = "cpi weights"
	if m == nil {
		return nil, preconditionf(op, "", nil, "nil matrix")
	}
	if consumptionCode == "" {
		consumptionCode = DefaultConsumptionCode
	}

	// 1. Valid rows: everything except gross output and value added
	var rows []int
	var rowKeys []Key
	for i, k := range m.rows {
		if k.Country == GrossOutputMarker || k.Country == ValueAddedMarker {
			continue
		}
		rows = append(rows, i)
		rowKeys = append(rowKeys, k)
	}
	if len(rows) == 0 {
		return nil, preconditionf(op, "", nil, "no rows left after dropping %s and %s", GrossOutputMarker, ValueAddedMarker)
	}
	if err := m.CheckFinite(op, "consumption table"); err != nil {
		return nil, err
	}

	// 2. Consumption columns grouped by region
	var regions []string
	regionCols := make(map[string][]int)
	for _, country := range m.ColCountries() {
		region := scheme.RegionOf(country)
		j, ok := m.colIdx[Key{Country: country, Sector: consumptionCode}]
		if !ok {
			continue
		}
		if _, seen := regionCols[region]; !seen {
			regions = append(regions, region)
		}
		regionCols[region] = append(regionCols[region], j)
	}
	if len(regions) == 0 {
		return nil, preconditionf(op, "", nil, "no %q consumption columns", consumptionCode)
	}

	// 3. Row shares of each region's total
	cols := make([]Key, len(regions))
	for r, region := range regions {
		cols[r] = Key{Country: region, Sector: CPIWeightSector}
	}
	out, err := NewKeyedMatrix(rowKeys, cols, nil)
	if err != nil {
		return nil, err
	}
	sums := make([]float64, len(rows))
	for r, region := range regions {
		for a, i := range rows {
			var s float64
			for _, j := range regionCols[region] {
				s += m.data.At(i, j)
			}
			sums[a] = s
		}
		total := floats.Sum(sums)
		if total <= 0 {
			continue
		}
		for a := range rows {
			out.data.Set(a, r, sums[a]/total)
		}
	}
	return out, nil
}

// WeightPriceChanges multiplies a price change vector by each requested
// region's CPI weights. Sectors without a weight contribute 0 and are
// reported; a region without a weight column is a precondition error.
// Columns are keyed (region, "impact").
func WeightPriceChanges(dp *KeyedVector, weights *KeyedMatrix, regions []string, report *Report) (*KeyedMatrix, error) {
	const op = "weight price changes"
	if dp == nil || weights == nil {
		return nil, preconditionf(op, "", nil, "price changes and weights are both required")
	}
	if err := requireReport(op, report); err != nil {
		return nil, err
	}

	// 1. Every region needs a weight column
	weightCols := make([]int, len(regions))
	var missingRegions []Key
	for r, region := range regions {
		k := Key{Country: region, Sector: CPIWeightSector}
		j, ok := weights.colIdx[k]
		if !ok {
			missingRegions = append(missingRegions, k)
		}
		weightCols[r] = j
	}
	if len(missingRegions) > 0 {
		return nil, preconditionf(op, "cpi weights", missingRegions, "region columns not found")
	}

	// 2. Weighted changes, sector by sector
	cols := make([]Key, len(regions))
	for r, region := range regions {
		cols[r] = Key{Country: region, Sector: ImpactSector}
	}
	out, err := NewKeyedMatrix(dp.keys, cols, nil)
	if err != nil {
		return nil, err
	}
	for a, k := range dp.keys {
		i, ok := weights.rowIdx[k]
		if !ok {
			report.Add(Diagnostic{Kind: MissingWeight, Key: k, Detail: "no CPI weight row, contributes 0"})
			continue
		}
		for r, j := range weightCols {
			out.data.Set(a, r, weights.data.At(i, j)*dp.values[a])
		}
	}
	return out, nil
}

// RegionTotals sums a weighted price change table per region column.
func RegionTotals(weighted *KeyedMatrix) *KeyedVector {
	return weighted.ColSums("cpi_impact")
}
