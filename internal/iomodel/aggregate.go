// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"fmt"
)

// SectorMapping renames sector codes. Codes not in the map keep their name.
type SectorMapping map[string]string

// Apply returns the mapped code, or the code itself when unmapped.
func (m SectorMapping) Apply(sector string) string {
	if to, ok := m[sector]; ok {
		return to
	}
	return sector
}

// CountryMapping renames country codes. Codes not in the map keep their name.
type CountryMapping map[string]string

// Apply returns the mapped code, or the code itself when unmapped.
func (m CountryMapping) Apply(country string) string {
	if to, ok := m[country]; ok {
		return to
	}
	return country
}

// SystemicSectorMapping merges the FIGARO service codes the systemic price
// analysis reports together.
var SystemicSectorMapping = SectorMapping{
	"N77": "N", "N78": "N", "N79": "N", "N80-N82": "N",
	"Q86": "Q", "Q87_Q88": "Q", "Q87-Q88": "Q",
	"R90-R92": "R_S", "R93": "R_S", "S94": "R_S", "S95": "R_S", "S96": "R_S",
}

// FIGARORenames aligns raw FIGARO sector codes with the NACE labels used
// everywhere else.
var FIGARORenames = SectorMapping{
	"C10T12": "C10-C12",
	"C13T15": "C13-C15",
	"C31_32": "C31_C32",
	"E37T39": "E37-E39",
	"J59_60": "J59_J60",
	"J62_63": "J62_J63",
	"M69_70": "M69_M70",
	"M74_75": "M74_M75",
	"N80T82": "N80-N82",
	"R90T92": "R90-R92",
	"Q87_88": "Q87-Q88",
	"L":      "L68",
}

// RenameSectors applies a one-to-one code renaming on both axes, keeping the
// key order. Two codes that land on the same label are an error.
func RenameSectors(m *KeyedMatrix, renames SectorMapping) (*KeyedMatrix, error) {
	if m == nil {
		return nil, preconditionf("rename sectors", "", nil, "nil matrix")
	}
	rename := func(keys []Key) []Key {
		out := make([]Key, len(keys))
		for i, k := range keys {
			out[i] = Key{Country: k.Country, Sector: renames.Apply(k.Sector)}
		}
		return out
	}
	out, err := FromDense(rename(m.rows), rename(m.cols), m.data)
	if err != nil {
		return nil, fmt.Errorf("rename sectors: %w", err)
	}
	return out, nil
}

// AggregateSectors renames sector codes on both axes and sums every cell that
// lands on the same (Country, Sector) pair. Rows and columns are grouped
// independently and come out sorted. The total of all cells is preserved.
func AggregateSectors(m *KeyedMatrix, mapping SectorMapping) (*KeyedMatrix, error) {
	if m == nil {
		return nil, preconditionf("aggregate sectors", "", nil, "nil matrix")
	}
	rename := func(k Key) Key {
		return Key{Country: k.Country, Sector: mapping.Apply(k.Sector)}
	}
	out, err := m.Regroup(rename, rename)
	if err != nil {
		return nil, fmt.Errorf("aggregate sectors: %w", err)
	}
	return out, nil
}

// MergeCountries folds every listed country into target on both axes,
// summing the flows that collide.
func MergeCountries(m *KeyedMatrix, countries []string, target string) (*KeyedMatrix, error) {
	if m == nil {
		return nil, preconditionf("merge countries", "", nil, "nil matrix")
	}
	merge := NewStringSet(countries...)
	rename := func(k Key) Key {
		if merge.Has(k.Country) {
			return Key{Country: target, Sector: k.Sector}
		}
		return k
	}
	out, err := m.Regroup(rename, rename)
	if err != nil {
		return nil, fmt.Errorf("merge countries into %s: %w", target, err)
	}
	return out, nil
}

// AggregateVector renames sectors (and optionally countries) of a vector such
// as gross output and sums entries sharing a key. Output is sorted.
func AggregateVector(x *KeyedVector, sectors SectorMapping, countries CountryMapping) (*KeyedVector, error) {
	if x == nil {
		return nil, preconditionf("aggregate vector", "", nil, "nil vector")
	}
	sums := make(map[Key]float64, x.Len())
	for i, k := range x.keys {
		to := Key{Country: countries.Apply(k.Country), Sector: sectors.Apply(k.Sector)}
		sums[to] += x.values[i]
	}
	return VectorFromMap(x.name, sums), nil
}
