// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// QuadrantPolicy decides the B x B block of the share matrix when a
// (supplier, consumer) pair trades no energy at all.
type QuadrantPolicy int

const (
	// QuadrantNonGas assumes the missing trade is non-gas: the
	// B_nongas -> B_nongas cell is 1, the other three are 0.
	QuadrantNonGas QuadrantPolicy = iota
	// QuadrantEven spreads the block evenly over its cells.
	QuadrantEven
)

func (p QuadrantPolicy) String() string {
	switch p {
	case QuadrantNonGas:
		return "nongas"
	case QuadrantEven:
		return "even"
	}
	return fmt.Sprintf("QuadrantPolicy(%d)", int(p))
}

// ParseQuadrantPolicy reads the config spelling of a policy.
func ParseQuadrantPolicy(s string) (QuadrantPolicy, error) {
	switch s {
	case "", "nongas":
		return QuadrantNonGas, nil
	case "even":
		return QuadrantEven, nil
	}
	return 0, fmt.Errorf("unknown quadrant policy %q (want nongas or even)", s)
}

// ShareOptions tunes EnergyShareMatrix.
type ShareOptions struct {
	ZeroQuadrant QuadrantPolicy
}

// EnergyShareMatrix derives gas/non-gas share weights from a transaction
// matrix that already carries B_gas and B_nongas (EXIOBASE).
//
// The result has the same keys as z and is 1 everywhere except:
//   - energy rows against non-energy columns: each cell's share of its
//     supplier country's combined gas + non-gas sales to that column
//   - non-energy rows against energy columns: each cell's share of that
//     row's combined purchases from the consumer country's two energy sectors
//   - the B x B quadrant: every (supplier, consumer) 2 x 2 block divided by its
//     total, or filled by opts.ZeroQuadrant when the total is not positive
func EnergyShareMatrix(z *KeyedMatrix, opts ShareOptions) (*KeyedMatrix, error) {
	const op = "energy share matrix"
	if z == nil {
		return nil, preconditionf(op, "", nil, "nil matrix")
	}
	if err := z.CheckFinite(op, "Z"); err != nil {
		return nil, err
	}

	nr, nc := z.Dims()
	ones := make([]float64, nr*nc)
	for i := range ones {
		ones[i] = 1
	}
	out, err := NewKeyedMatrix(z.rows, z.cols, ones)
	if err != nil {
		return nil, err
	}

	// Energy rows grouped by supplier country, energy columns by consumer
	energyRows := make(map[string][]int)
	var rowCountries []string
	for i, k := range z.rows {
		if isEnergyHalf(k.Sector) {
			if _, seen := energyRows[k.Country]; !seen {
				rowCountries = append(rowCountries, k.Country)
			}
			energyRows[k.Country] = append(energyRows[k.Country], i)
		}
	}
	energyCols := make(map[string][]int)
	var colCountries []string
	for j, k := range z.cols {
		if isEnergyHalf(k.Sector) {
			if _, seen := energyCols[k.Country]; !seen {
				colCountries = append(colCountries, k.Country)
			}
			energyCols[k.Country] = append(energyCols[k.Country], j)
		}
	}
	if len(rowCountries) == 0 && len(colCountries) == 0 {
		return nil, preconditionf(op, "Z", nil, "no %s/%s sectors to derive shares from", GasSector, NonGasSector)
	}

	// 1. Row shares: energy rows x non-energy columns
	for _, country := range rowCountries {
		rows := energyRows[country]
		totals := make([]float64, nc)
		for j, c := range z.cols {
			if isEnergyHalf(c.Sector) {
				continue
			}
			for _, i := range rows {
				totals[j] += z.data.At(i, j)
			}
		}
		grand := floats.Sum(totals)
		for j, c := range z.cols {
			if isEnergyHalf(c.Sector) {
				continue
			}
			for _, i := range rows {
				out.data.Set(i, j, rowShare(z.data.At(i, j), totals[j], grand))
			}
		}
	}

	// 2. Column shares: non-energy rows x energy columns
	for i, r := range z.rows {
		if isEnergyHalf(r.Sector) {
			continue
		}
		for _, country := range colCountries {
			cols := energyCols[country]
			var total float64
			for _, j := range cols {
				total += z.data.At(i, j)
			}
			if total == 0 {
				total = 1
			}
			for _, j := range cols {
				out.data.Set(i, j, z.data.At(i, j)/total)
			}
		}
	}

	// 3. B x B quadrant, one block per (supplier, consumer) country pair
	for _, sup := range rowCountries {
		rows := energyRows[sup]
		for _, con := range colCountries {
			cols := energyCols[con]
			var total float64
			for _, i := range rows {
				for _, j := range cols {
					total += z.data.At(i, j)
				}
			}
			if total > 0 {
				for _, i := range rows {
					for _, j := range cols {
						out.data.Set(i, j, z.data.At(i, j)/total)
					}
				}
				continue
			}
			fillZeroQuadrant(out, z, sup, con, rows, cols, opts.ZeroQuadrant)
		}
	}

	return out, nil
}

// rowShare divides one energy cell by the supplier's total sales to that
// column. A supplier with no energy sales at all divides by 1; a single empty
// column gives 0.
func rowShare(v, total, grand float64) float64 {
	if grand == 0 {
		return v
	}
	if total == 0 {
		return 0
	}
	return v / total
}

func fillZeroQuadrant(out, z *KeyedMatrix, sup, con string, rows, cols []int, policy QuadrantPolicy) {
	switch policy {
	case QuadrantEven:
		w := 1 / float64(len(rows)*len(cols))
		for _, i := range rows {
			for _, j := range cols {
				out.data.Set(i, j, w)
			}
		}
	default:
		for _, i := range rows {
			for _, j := range cols {
				out.data.Set(i, j, 0)
			}
		}
		ni, okRow := z.rowIdx[Key{Country: sup, Sector: NonGasSector}]
		nj, okCol := z.colIdx[Key{Country: con, Sector: NonGasSector}]
		if okRow && okCol {
			out.data.Set(ni, nj, 1)
		}
	}
}
