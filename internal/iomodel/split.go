// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"slices"
)

// isEnergyHalf reports whether a sector is one of the two split energy sectors.
func isEnergyHalf(sector string) bool {
	return sector == GasSector || sector == NonGasSector
}

// SectorFallback maps a disaggregated sector code to the aggregate whose
// share applies when the share matrix only carries the aggregate.
type SectorFallback map[string]string

// DefaultSectorFallback covers the manufacturing codes EXIOBASE reports as
// one C25-C33 block.
var DefaultSectorFallback = SectorFallback{
	"C25":     "C25-C33",
	"C26":     "C25-C33",
	"C27":     "C25-C33",
	"C28":     "C25-C33",
	"C29":     "C25-C33",
	"C30":     "C25-C33",
	"C31_32":  "C25-C33",
	"C31_C32": "C25-C33",
	"C33":     "C25-C33",
}

// resolve returns the share key for (country, sector): the aggregate when the
// code has one and the share axis carries it, otherwise the code itself.
// ok is false when neither is present.
func (f SectorFallback) resolve(country, sector string, has func(Key) bool) (Key, bool) {
	if agg, isDisagg := f[sector]; isDisagg {
		if k := (Key{Country: country, Sector: agg}); has(k) {
			return k, true
		}
	}
	k := Key{Country: country, Sector: sector}
	return k, has(k)
}

// splitAxis replaces every key with sector B by a B_gas and a B_nongas key.
// It returns the sorted new keys and, for each, the position of its source key.
func splitAxis(keys []Key) ([]Key, []int, int) {
	type entry struct {
		key Key
		src int
	}
	entries := make([]entry, 0, len(keys)+8)
	split := 0
	for i, k := range keys {
		if k.Sector != EnergySector {
			entries = append(entries, entry{k, i})
			continue
		}
		split++
		entries = append(entries,
			entry{Key{Country: k.Country, Sector: GasSector}, i},
			entry{Key{Country: k.Country, Sector: NonGasSector}, i},
		)
	}
	slices.SortFunc(entries, func(a, b entry) int { return a.key.Compare(b.key) })

	out := make([]Key, len(entries))
	src := make([]int, len(entries))
	for n, e := range entries {
		out[n] = e.key
		src[n] = e.src
	}
	return out, src, split
}

func checkUnsplit(op string, keys []Key, axis string) error {
	var already []Key
	for _, k := range keys {
		if isEnergyHalf(k.Sector) {
			already = append(already, k)
		}
	}
	if len(already) > 0 {
		return preconditionf(op, axis, already, "energy sector is already split")
	}
	return nil
}

// SplitEnergySector duplicates every B row and column into B_gas and B_nongas
// copies. Both copies carry the original values; scale them with
// ApplyEnergyShares. Keys come out sorted.
func SplitEnergySector(m *KeyedMatrix) (*KeyedMatrix, error) {
	const op = "split energy sector"
	if err := checkUnsplit(op, m.rows, "rows"); err != nil {
		return nil, err
	}
	if err := checkUnsplit(op, m.cols, "columns"); err != nil {
		return nil, err
	}

	rows, rowSrc, nr := splitAxis(m.rows)
	cols, colSrc, nc := splitAxis(m.cols)
	if nr == 0 && nc == 0 {
		return nil, preconditionf(op, "", nil, "no %q sector on either axis", EnergySector)
	}
	return duplicate(m, rows, rowSrc, cols, colSrc)
}

// SplitEnergyRows duplicates only the B rows, for tables such as final demand
// whose columns are categories.
func SplitEnergyRows(m *KeyedMatrix) (*KeyedMatrix, error) {
	const op = "split energy rows"
	if err := checkUnsplit(op, m.rows, "rows"); err != nil {
		return nil, err
	}
	rows, rowSrc, nr := splitAxis(m.rows)
	if nr == 0 {
		return nil, preconditionf(op, "", nil, "no %q rows", EnergySector)
	}
	colSrc := make([]int, len(m.cols))
	for j := range colSrc {
		colSrc[j] = j
	}
	return duplicate(m, rows, rowSrc, m.cols, colSrc)
}

func duplicate(m *KeyedMatrix, rows []Key, rowSrc []int, cols []Key, colSrc []int) (*KeyedMatrix, error) {
	out, err := NewKeyedMatrix(rows, cols, nil)
	if err != nil {
		return nil, err
	}
	for a, i := range rowSrc {
		for b, j := range colSrc {
			out.data.Set(a, b, m.data.At(i, j))
		}
	}
	return out, nil
}

// ApplyEnergyShares scales the B_gas/B_nongas rows and columns of a split
// matrix by the matching share matrix entries.
//
// Energy rows are scaled first, across every column, which covers the B x B
// quadrant. Energy columns are then scaled on the non-energy rows only, so no
// cell is weighted twice. Disaggregated codes fall back to their aggregate's
// share through fallback. Any energy row or column, or any counterpart cell,
// that the share matrix cannot address is a precondition error.
func ApplyEnergyShares(m, shares *KeyedMatrix, fallback SectorFallback) (*KeyedMatrix, error) {
	const op = "apply energy shares"
	if m == nil || shares == nil {
		return nil, preconditionf(op, "", nil, "matrix and share matrix are both required")
	}
	if err := shares.CheckFinite(op, "shares"); err != nil {
		return nil, err
	}

	out := m.clone()
	var missing []Key

	// 1. Row weights on B_gas/B_nongas rows
	for i, r := range m.rows {
		if !isEnergyHalf(r.Sector) {
			continue
		}
		si, ok := shares.rowIdx[r]
		if !ok {
			missing = append(missing, r)
			continue
		}
		for j, c := range m.cols {
			sk, ok := fallback.resolve(c.Country, c.Sector, shares.HasCol)
			if !ok {
				missing = append(missing, sk)
				continue
			}
			w := shares.data.At(si, shares.colIdx[sk])
			out.data.Set(i, j, out.data.At(i, j)*w)
		}
	}

	// 2. Column weights on B_gas/B_nongas columns, energy rows already done
	for j, c := range m.cols {
		if !isEnergyHalf(c.Sector) {
			continue
		}
		sj, ok := shares.colIdx[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		for i, r := range m.rows {
			if isEnergyHalf(r.Sector) {
				continue
			}
			sk, ok := fallback.resolve(r.Country, r.Sector, shares.HasRow)
			if !ok {
				missing = append(missing, sk)
				continue
			}
			w := shares.data.At(shares.rowIdx[sk], sj)
			out.data.Set(i, j, out.data.At(i, j)*w)
		}
	}

	if len(missing) > 0 {
		return nil, preconditionf(op, "shares", dedupe(missing), "share matrix has no entry for these keys")
	}
	return out, nil
}

// dedupe keeps the first occurrence of each key.
func dedupe(keys []Key) []Key {
	seen := make(KeySet, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if seen.Has(k) {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
