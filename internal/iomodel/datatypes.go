// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

// Package iomodel holds the input-output engine: two-level keyed tables,
// sector aggregation, technical coefficients, the energy sector split, CPI
// weights and the Leontief price shock solver.
package iomodel

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Markers and codes that appear inside FIGARO/EXIOBASE tables.
const (
	// Row/column country used for the gross output row
	GrossOutputMarker = "GO"
	// Country used for value added and cross-border balancing rows
	ValueAddedMarker = "W2"

	// Aggregate energy sector and its two halves after the split
	EnergySector = "B"
	GasSector    = "B_gas"
	NonGasSector = "B_nongas"

	// Sector label of every CPI weight column
	CPIWeightSector = "cpi_weight"
	// Household final consumption
	DefaultConsumptionCode = "P3_S14"
	// Region for countries a scheme does not list
	RestOfWorld = "ROW"
	// Aggregate EXIOBASE rest-of-world country
	FIGAROWorld = "FIGW1"
)

// FinalDemandCodes are the FIGARO final demand categories.
var FinalDemandCodes = []string{"P3_S13", "P3_S14", "P3_S15", "P51G", "P5M"}

// ExtendedFinalDemandCodes adds the sector-level household splits some
// FIGARO releases carry.
var ExtendedFinalDemandCodes = append(slices.Clone(FinalDemandCodes),
	"P3_S1", "P3_S2", "P3_S3", "P3_S4", "P3_S5", "P3_S6",
	"P3_S7", "P3_S8", "P3_S9", "P3_S10", "P3_S11", "P3_S12",
)

// ValueAddedCodes are the W2 rows that make up value added.
var ValueAddedCodes = []string{"D21X31", "OP_RES", "OP_NRES", "D1", "D29X39", "B2A3G"}

// Key identifies one row or column of a table: a (Country, Sector) pair.
// For final demand columns Sector holds the category code.
type Key struct {
	Country string
	Sector  string
}

// K is shorthand for building a Key.
func K(country, sector string) Key {
	return Key{Country: country, Sector: sector}
}

// String joins the key the way raw FIGARO labels do.
func (k Key) String() string {
	return k.Country + "_" + k.Sector
}

// Compare orders keys by country, then sector.
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.Country, o.Country); c != 0 {
		return c
	}
	return cmp.Compare(k.Sector, o.Sector)
}

// Less reports whether k sorts before o.
func (k Key) Less(o Key) bool { return k.Compare(o) < 0 }

func (k Key) valid() bool {
	return k.Country != "" && k.Sector != ""
}

// ParseKey splits a raw "Country_Sector" label at its first underscore.
func ParseKey(label string) (Key, error) {
	label = strings.TrimSpace(label)
	country, sector, ok := strings.Cut(label, "_")
	if !ok {
		return Key{}, fmt.Errorf("label %q cannot be split at '_'", label)
	}
	if country == "" || sector == "" {
		return Key{}, fmt.Errorf("label %q has an empty country or sector", label)
	}
	return Key{Country: country, Sector: sector}, nil
}

// SortKeys sorts keys in place by country, then sector.
func SortKeys(keys []Key) {
	slices.SortFunc(keys, Key.Compare)
}

// KeySet is a membership set of keys.
type KeySet map[Key]struct{}

// NewKeySet builds a set from keys.
func NewKeySet(keys []Key) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s KeySet) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// StringSet is a membership set of country or sector codes.
type StringSet map[string]struct{}

// NewStringSet builds a set from codes.
func NewStringSet(codes ...string) StringSet {
	s := make(StringSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s StringSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the members in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// ImpactRecord is one row of the weighted impact table.
type ImpactRecord struct {
	Country  string
	Sector   string
	Region   string
	Direct   float64
	Indirect float64
	Total    float64
}

// Key returns the exogenous sector the record belongs to.
func (r ImpactRecord) Key() Key { return Key{Country: r.Country, Sector: r.Sector} }

// SystemicRecord is the screening result for one exogenous sector.
type SystemicRecord struct {
	Key            Key
	Volatility     float64
	ForwardLinkage float64
	CPIWeight      float64
	HighVolatility bool
	HighLinkage    bool
	Systemic       bool
}
