// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

// WeightedImpacts turns an unweighted shock matrix (exogenous rows x affected
// columns) into direct, indirect and total CPI impacts per exogenous sector
// and region.
//
// For exogenous sector k and region r:
//
//	Direct   = w_r(k) * volatility(k)
//	Indirect = sum over affected j != k of w_r(j) * dP(k, j)
//	Total    = Direct + Indirect
//
// A (k, r) pair whose volatility or own weight is missing is reported and
// skipped. An affected sector without a weight row is reported once and
// contributes nothing.
func WeightedImpacts(unweighted *KeyedMatrix, volatility *KeyedVector, weights *KeyedMatrix, report *Report) ([]ImpactRecord, error) {
	const op = "weighted impacts"
	if unweighted == nil || volatility == nil || weights == nil {
		return nil, preconditionf(op, "", nil, "shock matrix, volatility and weights are all required")
	}
	if err := requireReport(op, report); err != nil {
		return nil, err
	}
	if err := unweighted.CheckFinite(op, "unweighted shocks"); err != nil {
		return nil, err
	}

	// 1. Weight row of each affected column, or -1 when missing
	affectedRow := make([]int, len(unweighted.cols))
	for j, c := range unweighted.cols {
		i, ok := weights.rowIdx[c]
		if !ok {
			affectedRow[j] = -1
			continue
		}
		affectedRow[j] = i
	}
	missingAffected := make(KeySet)

	regions := weights.cols
	records := make([]ImpactRecord, 0, len(unweighted.rows)*len(regions))

	// 2. One record per (exogenous sector, region)
	for ei, k := range unweighted.rows {
		vol, hasVol := volatility.Get(k)
		ownRow, hasWeight := weights.rowIdx[k]

		for ri, region := range regions {
			if !hasVol {
				report.Add(Diagnostic{Kind: MissingVolatility, Key: k, Region: region.Country, Detail: "no volatility entry"})
				continue
			}
			if !hasWeight {
				report.Add(Diagnostic{Kind: MissingWeight, Key: k, Region: region.Country, Detail: "no CPI weight for the exogenous sector"})
				continue
			}

			direct := weights.data.At(ownRow, ri) * vol
			var indirect float64
			for j, c := range unweighted.cols {
				if c == k {
					continue
				}
				wi := affectedRow[j]
				if wi < 0 {
					if !missingAffected.Has(c) {
						missingAffected[c] = struct{}{}
						report.Add(Diagnostic{Kind: MissingWeight, Key: c, Detail: "affected sector has no CPI weight, contributes 0"})
					}
					continue
				}
				indirect += weights.data.At(wi, ri) * unweighted.data.At(ei, j)
			}

			records = append(records, ImpactRecord{
				Country:  k.Country,
				Sector:   k.Sector,
				Region:   region.Country,
				Direct:   direct,
				Indirect: indirect,
				Total:    direct + indirect,
			})
		}
	}
	return records, nil
}
