// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"fmt"
	"slices"
)

// Names of the built-in region schemes.
const (
	SchemePerCountry    = "per_country"
	SchemeEU28          = "eu28"
	SchemeCorePeriphery = "core_periphery"
	SchemeNorthSouth    = "north_south"
	SchemeWestEast      = "west_east"
	SchemeCluster2019   = "cluster_2019"
)

// SchemeNames lists every built-in scheme in a stable order.
var SchemeNames = []string{
	SchemePerCountry, SchemeEU28, SchemeCorePeriphery,
	SchemeNorthSouth, SchemeWestEast, SchemeCluster2019,
}

// EU28 lists the member states (FIGARO codes, Greece as EL) including GB.
var EU28 = []string{
	"AT", "BE", "BG", "CY", "CZ", "DE", "DK", "EE", "EL", "ES", "FI", "FR", "GB", "HR",
	"HU", "IE", "IT", "LT", "LU", "LV", "MT", "NL", "PL", "PT", "RO", "SE", "SI", "SK",
}

// DefaultRegionGroups holds the member lists of every grouped scheme:
// scheme -> region -> countries.
var DefaultRegionGroups = map[string]map[string][]string{
	SchemeEU28: {
		"EU28": EU28,
	},
	SchemeCorePeriphery: {
		"CORE":      {"AT", "BE", "DE", "DK", "FI", "FR", "GB", "LU", "NL", "SE"},
		"PERIPHERY": {"BG", "CY", "CZ", "EE", "EL", "ES", "HR", "HU", "IE", "IT", "LT", "LV", "MT", "PL", "PT", "RO", "SI", "SK"},
	},
	SchemeNorthSouth: {
		"NORTH": {"AT", "BE", "CZ", "DE", "DK", "EE", "FI", "FR", "GB", "HU", "IE", "LT", "LU", "LV", "NL", "PL", "SE", "SK"},
		"SOUTH": {"BG", "CY", "EL", "ES", "HR", "IT", "MT", "PT", "RO", "SI"},
	},
	SchemeWestEast: {
		"WEST": {"AT", "BE", "DE", "DK", "EL", "ES", "FI", "FR", "GB", "IE", "IT", "LU", "NL", "PT", "SE"},
		"EAST": {"BG", "CY", "CZ", "EE", "HR", "HU", "LT", "LV", "MT", "PL", "RO", "SI", "SK"},
	},
	SchemeCluster2019: {
		"CLUSTER1": {"AT", "BE", "DE", "DK", "FI", "FR", "GB", "IE", "LU", "NL", "SE"},
		"CLUSTER2": {"CY", "EL", "ES", "IT", "MT", "PT"},
		"CLUSTER3": {"BG", "CZ", "EE", "HR", "HU", "LT", "LV", "PL", "RO", "SI", "SK"},
	},
}

// RegionScheme assigns countries to CPI regions. The per-country scheme maps
// every country to itself; grouped schemes send unlisted countries to ROW.
type RegionScheme struct {
	name    string
	members map[string]string // country -> region, nil for per-country
	regions []string          // sorted region names of a grouped scheme
}

// PerCountry returns the scheme with one region per country.
func PerCountry() RegionScheme { return RegionScheme{name: SchemePerCountry} }

// NewRegionScheme builds a grouped scheme from region -> countries.
// A country listed under two regions is an error.
func NewRegionScheme(name string, groups map[string][]string) (RegionScheme, error) {
	if len(groups) == 0 {
		return RegionScheme{}, fmt.Errorf("region scheme %q has no regions", name)
	}
	s := RegionScheme{name: name, members: make(map[string]string)}
	for region, countries := range groups {
		if region == "" {
			return RegionScheme{}, fmt.Errorf("region scheme %q has an unnamed region", name)
		}
		s.regions = append(s.regions, region)
		for _, c := range countries {
			if prev, dup := s.members[c]; dup && prev != region {
				return RegionScheme{}, fmt.Errorf("region scheme %q: country %s is in both %s and %s", name, c, prev, region)
			}
			s.members[c] = region
		}
	}
	slices.Sort(s.regions)
	return s, nil
}

// SchemeByName resolves a built-in scheme. groups, when non-nil, overrides
// the default member lists (scheme -> region -> countries).
func SchemeByName(name string, groups map[string]map[string][]string) (RegionScheme, error) {
	if name == SchemePerCountry {
		return PerCountry(), nil
	}
	if g, ok := groups[name]; ok {
		return NewRegionScheme(name, g)
	}
	if g, ok := DefaultRegionGroups[name]; ok {
		return NewRegionScheme(name, g)
	}
	return RegionScheme{}, fmt.Errorf("unknown region scheme %q", name)
}

// Name returns the scheme name.
func (s RegionScheme) Name() string { return s.name }

// IsPerCountry reports whether every country is its own region.
func (s RegionScheme) IsPerCountry() bool { return s.members == nil }

// RegionOf returns the region a country belongs to.
func (s RegionScheme) RegionOf(country string) string {
	if s.members == nil {
		return country
	}
	if r, ok := s.members[country]; ok {
		return r
	}
	return RestOfWorld
}

// Regions returns the named regions of a grouped scheme, sorted, without ROW.
// It is empty for the per-country scheme.
func (s RegionScheme) Regions() []string { return slices.Clone(s.regions) }

// Members returns the listed countries of a region, sorted.
func (s RegionScheme) Members(region string) []string {
	var out []string
	for c, r := range s.members {
		if r == region {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

// InGroup reports whether a country is listed under any named region.
func (s RegionScheme) InGroup(country string) bool {
	if s.members == nil {
		return true
	}
	_, ok := s.members[country]
	return ok
}
