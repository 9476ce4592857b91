// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"fmt"
)

// ShockRule selects which exogenous suppliers receive the shock.
type ShockRule int

const (
	// ExtraRegional shocks only suppliers outside the target group.
	ExtraRegional ShockRule = iota
	// ExtraIntraRegional also shocks group suppliers selling to other group
	// countries. Purely domestic energy flows stay unshocked.
	ExtraIntraRegional
)

func (r ShockRule) String() string {
	switch r {
	case ExtraRegional:
		return "extra"
	case ExtraIntraRegional:
		return "extra_intra"
	}
	return fmt.Sprintf("ShockRule(%d)", int(r))
}

// ParseShockRule reads the config spelling of a rule.
func ParseShockRule(s string) (ShockRule, error) {
	switch s {
	case "extra":
		return ExtraRegional, nil
	case "extra_intra", "full":
		return ExtraIntraRegional, nil
	}
	return 0, fmt.Errorf("unknown shock rule %q (want extra or extra_intra)", s)
}

// Scenario describes one energy price shock.
type Scenario struct {
	Name string
	// Sectors whose prices are set directly, e.g. B_gas
	ExogenousSectors []string
	// Target country group; the endogenous set is its non-exogenous sectors
	Group []string
	Rule  ShockRule
	// Relative price change of a shocked supplier (5 = +500%)
	ShockFactor float64
}

// ShockResult is the outcome of PropagateShock.
type ShockResult struct {
	Scenario Scenario
	// Multiplier per exogenous key: 1 for baseline, ShockFactor when shocked
	Multipliers *KeyedVector
	// Price change per endogenous key
	Changes           *KeyedVector
	Cond              float64
	UsedPseudoInverse bool
}

// Partition returns the exogenous keys (every row whose sector is exogenous)
// and the endogenous keys (group countries, non-exogenous sectors), both in
// matrix row order.
func (sc Scenario) Partition(a *KeyedMatrix) (exogenous, endogenous []Key) {
	exoSectors := NewStringSet(sc.ExogenousSectors...)
	group := NewStringSet(sc.Group...)
	for _, k := range a.rows {
		switch {
		case exoSectors.Has(k.Sector):
			exogenous = append(exogenous, k)
		case group.Has(k.Country) && a.HasCol(k):
			endogenous = append(endogenous, k)
		}
	}
	return exogenous, endogenous
}

// Shocked reports which exogenous keys the rule selects.
func (sc Scenario) Shocked(exogenous []Key) KeySet {
	group := NewStringSet(sc.Group...)
	out := make(KeySet)

	// Group countries that own an exogenous row, i.e. potential buyers
	groupSuppliers := make(StringSet)
	for _, k := range exogenous {
		if group.Has(k.Country) {
			groupSuppliers[k.Country] = struct{}{}
		}
	}

	for _, k := range exogenous {
		if !group.Has(k.Country) {
			out[k] = struct{}{}
			continue
		}
		if sc.Rule != ExtraIntraRegional {
			continue
		}
		// Another group country must exist for the flow to be cross-border
		_, self := groupSuppliers[k.Country]
		others := len(groupSuppliers)
		if self {
			others--
		}
		if others > 0 {
			out[k] = struct{}{}
		}
	}
	return out
}

// Multipliers returns the price multiplier of every exogenous key: 1.0 for
// the baseline and ShockFactor for shocked suppliers.
func (sc Scenario) Multipliers(exogenous []Key) *KeyedVector {
	shocked := sc.Shocked(exogenous)
	vals := make([]float64, len(exogenous))
	for i, k := range exogenous {
		vals[i] = 1
		if shocked.Has(k) {
			vals[i] = sc.ShockFactor
		}
	}
	return mustVector("multiplier", exogenous, vals)
}

// PriceShockTable lists the shocked exogenous keys with their factor under the
// name "price_volatility", i.e. the multipliers that differ from 1.
func (sc Scenario) PriceShockTable(a *KeyedMatrix) *KeyedVector {
	exo, _ := sc.Partition(a)
	return sc.Multipliers(exo).
		Filter(func(_ Key, v float64) bool { return v != 1 }).
		WithName("price_volatility")
}

// ScenarioMatrix derives the coefficient matrix a scenario is solved on.
// Under ExtraIntraRegional the group's domestic exogenous flows (supplier and
// buyer in the same country) are zeroed. Under ExtraRegional the group's
// exogenous rows into group columns are zeroed, so only imports from outside
// the group carry the shock. a itself is never modified.
func ScenarioMatrix(a *KeyedMatrix, sc Scenario) *KeyedMatrix {
	exoSectors := NewStringSet(sc.ExogenousSectors...)
	group := NewStringSet(sc.Group...)
	if sc.Rule == ExtraIntraRegional {
		return a.Zeroed(func(r, c Key) bool {
			return exoSectors.Has(r.Sector) && group.Has(r.Country) && r.Country == c.Country
		})
	}
	return a.Zeroed(func(r, c Key) bool {
		return exoSectors.Has(r.Sector) && group.Has(r.Country) && group.Has(c.Country)
	})
}

// PropagateShock runs one scenario: derive the scenario matrix, partition it,
// and solve for the endogenous price changes. Unshocked suppliers carry a
// price change of 0 into the system; shocked ones carry ShockFactor.
func PropagateShock(a *KeyedMatrix, sc Scenario, opts SolveOptions) (*ShockResult, error) {
	const op = "propagate shock"
	if a == nil {
		return nil, preconditionf(op, "", nil, "nil coefficient matrix")
	}
	if len(sc.ExogenousSectors) == 0 || len(sc.Group) == 0 {
		return nil, preconditionf(op, sc.Name, nil, "scenario needs exogenous sectors and a target group")
	}

	// 1. Derived matrix and partition
	derived := ScenarioMatrix(a, sc)
	exo, endo := sc.Partition(derived)
	if len(exo) == 0 {
		return nil, preconditionf(op, sc.Name, nil, "no rows for exogenous sectors %v", sc.ExogenousSectors)
	}
	if len(endo) == 0 {
		return nil, preconditionf(op, sc.Name, nil, "no endogenous keys for group %v", sc.Group)
	}

	// 2. Exogenous price changes
	shocked := sc.Shocked(exo)
	px := make([]float64, len(exo))
	for i, k := range exo {
		if shocked.Has(k) {
			px[i] = sc.ShockFactor
		}
	}

	// 3. Solve
	sol, err := SolvePriceChange(derived, mustVector("price_shock", exo, px), endo, opts)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", op, sc.Name, err)
	}
	return &ShockResult{
		Scenario:          sc,
		Multipliers:       sc.Multipliers(exo),
		Changes:           sol.Changes,
		Cond:              sol.Cond,
		UsedPseudoInverse: sol.UsedPseudoInverse,
	}, nil
}

// ScenarioComparison holds the extra-regional, full and intra-only results.
type ScenarioComparison struct {
	Extra *ShockResult
	Full  *ShockResult
	// Full minus extra, keyed like Full.Changes
	Intra *KeyedVector
}

// SimulateExtraVsFull solves the extra-regional and extra + intra-regional
// versions of a scenario and their difference.
func SimulateExtraVsFull(a *KeyedMatrix, base Scenario, opts SolveOptions) (*ScenarioComparison, error) {
	extraSc := base
	extraSc.Rule = ExtraRegional
	extraSc.Name = base.Name + "/extra"
	fullSc := base
	fullSc.Rule = ExtraIntraRegional
	fullSc.Name = base.Name + "/full"

	extra, err := PropagateShock(a, extraSc, opts)
	if err != nil {
		return nil, err
	}
	full, err := PropagateShock(a, fullSc, opts)
	if err != nil {
		return nil, err
	}
	intra, err := full.Changes.Minus(extra.Changes)
	if err != nil {
		return nil, fmt.Errorf("intra-regional contribution: %w", err)
	}
	return &ScenarioComparison{Extra: extra, Full: full, Intra: intra.WithName("price_change")}, nil
}
