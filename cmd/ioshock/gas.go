// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"IO_Shock_Propagation_Project/internal/batch"
	"IO_Shock_Propagation_Project/internal/iomodel"
	"IO_Shock_Propagation_Project/internal/tables"
)

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Propagate an imported gas price shock into the target group's CPI",
	Long: `For each year, splits the FIGARO energy sector into B_gas and B_nongas with
EXIOBASE shares (<data>/exiobase/<year>/Z.csv and Y.csv), solves the gas price
shock and weights the price changes by household CPI weights per region scheme.
Outputs go to <out>/<year>/gas.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.finish("gas_diagnostics.csv", runGas(cmd.Context(), a))
	},
}

// gasInputs are the energy-split tables of one year.
type gasInputs struct {
	a *iomodel.KeyedMatrix
	y *iomodel.KeyedMatrix
}

func runGas(ctx context.Context, a *app) error {
	// 1. Energy-split tables per year
	var mu sync.Mutex
	inputs := make(map[int]*gasInputs)
	units := make([]batch.Unit, 0, len(a.cfg.Run.Years))
	for _, year := range a.cfg.Run.Years {
		year := year
		units = append(units, batch.Unit{
			Name: fmt.Sprintf("gas/%d/tables", year),
			Run: func(ctx context.Context, _ *iomodel.Report) error {
				in, err := gasTables(ctx, a, year)
				if err != nil {
					return err
				}
				mu.Lock()
				inputs[year] = in
				mu.Unlock()
				return nil
			},
		})
	}
	if _, err := a.run(ctx, units); err != nil {
		return err
	}

	// 2. Shock and weight per year; a singular year is skipped
	units = nil
	for _, year := range a.cfg.Run.Years {
		year := year
		in, ok := inputs[year]
		if !ok {
			continue
		}
		units = append(units, batch.Unit{
			Name: fmt.Sprintf("gas/%d/shock", year),
			Run: func(ctx context.Context, report *iomodel.Report) error {
				return gasShock(ctx, a, year, in, report)
			},
		})
	}
	_, err := a.run(ctx, units)
	return err
}

func (a *app) gasDir(year int) string {
	return filepath.Join(a.cfg.YearDir(year), "gas")
}

// gasTables aggregates the prepared FIGARO tables and splits their energy
// sector with EXIOBASE gas shares.
func gasTables(ctx context.Context, a *app, year int) (*gasInputs, error) {
	m := a.cfg.Mappings
	merges := m.MergeMapping()
	dir := a.gasDir(year)

	// 1. Aggregate Z and fold the countries EXIOBASE lacks into FIGW1
	z, err := tables.LoadMatrixCSV(a.preparedPath(year, "Z"))
	if err != nil {
		return nil, err
	}
	if z, err = iomodel.AggregateSectors(z, m.Gas()); err != nil {
		return nil, err
	}
	if z, err = mergeCountryMapping(z, merges); err != nil {
		return nil, err
	}

	// 2. Gross output the same way
	x, err := tables.LoadVectorCSV(a.preparedPath(year, "X"))
	if err != nil {
		return nil, err
	}
	if x, err = iomodel.AggregateVector(x, m.Gas(), merges); err != nil {
		return nil, err
	}

	// 3. Technical coefficients, then duplicate B into B_gas and B_nongas
	coef, err := iomodel.TechnicalCoefficients(z, x)
	if err != nil {
		return nil, err
	}
	coefSplit, err := iomodel.SplitEnergySector(coef)
	if err != nil {
		return nil, err
	}
	zSplit, err := iomodel.SplitEnergySector(z)
	if err != nil {
		return nil, err
	}

	// 4. Gas shares from EXIOBASE
	exioZ, err := tables.LoadMatrixCSV(a.exiobasePath(year, "Z"))
	if err != nil {
		return nil, err
	}
	if exioZ, err = mergeCountryMapping(exioZ, m.Exiobase()); err != nil {
		return nil, err
	}
	shares, err := iomodel.EnergyShareMatrix(exioZ, a.cfg.ShareOptions())
	if err != nil {
		return nil, err
	}
	if err := writeMatrix(filepath.Join(dir, "gas_shares.csv"), shares); err != nil {
		return nil, err
	}

	// 5. Apply them to A and Z
	coefGas, err := iomodel.ApplyEnergyShares(coefSplit, shares, m.Fallback())
	if err != nil {
		return nil, err
	}
	zGas, err := iomodel.ApplyEnergyShares(zSplit, shares, m.Fallback())
	if err != nil {
		return nil, err
	}
	if err := writeMatrix(filepath.Join(dir, "A.csv"), coefGas); err != nil {
		return nil, err
	}
	if err := writeMatrix(filepath.Join(dir, "Z.csv"), zGas); err != nil {
		return nil, err
	}

	// 6. Household final demand with split energy rows
	y, err := tables.LoadMatrixCSV(a.preparedPath(year, "Y"))
	if err != nil {
		return nil, err
	}
	if y, err = iomodel.AggregateSectors(y, m.Gas()); err != nil {
		return nil, err
	}
	if y, err = mergeCountryMapping(y, merges); err != nil {
		return nil, err
	}
	ySplit, err := iomodel.SplitFinalDemandEnergy(y, a.cfg.Run.ConsumptionCode)
	if err != nil {
		return nil, err
	}

	// 7. Household gas shares from EXIOBASE
	exioY, err := tables.LoadMatrixCSV(a.exiobasePath(year, "Y"))
	if err != nil {
		return nil, err
	}
	if exioY, err = mergeCountryMapping(exioY, m.Exiobase()); err != nil {
		return nil, err
	}
	household, err := iomodel.HouseholdEnergyShares(exioY, a.cfg.Run.ConsumptionCode)
	if err != nil {
		return nil, err
	}
	yGas, err := iomodel.ApplyHouseholdEnergyShares(ySplit, household)
	if err != nil {
		return nil, err
	}
	if err := writeMatrix(filepath.Join(dir, "Y.csv"), yGas); err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "energy sector split", "year", year, "countries", len(coefGas.Countries()))
	return &gasInputs{a: coefGas, y: yGas}, nil
}

// gasShock solves the configured scenario, and the rule comparison when
// enabled, then weights every price change vector per region scheme.
func gasShock(ctx context.Context, a *app, year int, in *gasInputs, report *iomodel.Report) error {
	dir := a.gasDir(year)
	opts := a.cfg.SolveOptions()
	sc, err := a.cfg.Scenario("gas")
	if err != nil {
		return err
	}

	// 1. Shocked suppliers
	if err := writeVector(filepath.Join(dir, "price_shock.csv"), sc.PriceShockTable(iomodel.ScenarioMatrix(in.a, sc))); err != nil {
		return err
	}

	// 2. Solve
	type variant struct {
		name    string
		changes *iomodel.KeyedVector
	}
	var variants []variant
	if a.cfg.Shock.CompareRules {
		cmp, err := iomodel.SimulateExtraVsFull(in.a, sc, opts)
		if err != nil {
			return err
		}
		variants = []variant{
			{iomodel.ExtraRegional.String(), cmp.Extra.Changes},
			{iomodel.ExtraIntraRegional.String(), cmp.Full.Changes},
			{"intra", cmp.Intra},
		}
		a.logger.InfoContext(ctx, "rules compared", "year", year,
			"cond_extra", cmp.Extra.Cond, "cond_full", cmp.Full.Cond,
			"pseudo_inverse", cmp.Extra.UsedPseudoInverse || cmp.Full.UsedPseudoInverse)
	} else {
		res, err := iomodel.PropagateShock(in.a, sc, opts)
		if err != nil {
			return err
		}
		variants = []variant{{sc.Rule.String(), res.Changes}}
		a.logger.InfoContext(ctx, "shock solved", "year", year, "rule", sc.Rule.String(),
			"cond", res.Cond, "pseudo_inverse", res.UsedPseudoInverse)
	}
	for _, v := range variants {
		if err := writeVector(filepath.Join(dir, "price_changes_"+v.name+".csv"), v.changes); err != nil {
			return err
		}
	}

	// 3. CPI impact per scheme
	for _, name := range a.cfg.Run.Schemes {
		scheme, err := a.cfg.RegionScheme(name)
		if err != nil {
			return err
		}
		weights, err := iomodel.CPIWeights(in.y, a.cfg.Run.ConsumptionCode, scheme)
		if err != nil {
			return err
		}
		schemeDir := filepath.Join(dir, name)
		if err := writeMatrix(filepath.Join(schemeDir, "cpi_weights.csv"), weights); err != nil {
			return err
		}
		for _, v := range variants {
			weighted, err := iomodel.WeightPriceChanges(v.changes, weights, weights.ColCountries(), report)
			if err != nil {
				return err
			}
			if err := writeMatrix(filepath.Join(schemeDir, "weighted_"+v.name+".csv"), weighted); err != nil {
				return err
			}
			if err := writeVector(filepath.Join(schemeDir, "cpi_impact_"+v.name+".csv"), iomodel.RegionTotals(weighted)); err != nil {
				return err
			}
		}
	}
	return nil
}
