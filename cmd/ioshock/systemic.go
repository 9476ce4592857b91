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

var systemicCmd = &cobra.Command{
	Use:   "systemic",
	Short: "Shock every volatile sector and weight the responses by CPI weights",
	Long: `For each year, aggregates the prepared tables, computes technical coefficients,
shocks every sector with its SEA price volatility and writes, per region scheme,
the CPI weights, the direct/indirect/total impacts (CSV and XLSX) and the
systemic sector screening to <out>/<year>/systemic.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.finish("systemic_diagnostics.csv", runSystemic(cmd.Context(), a))
	},
}

// systemicInputs are the tables of one year shared by its scheme units.
type systemicInputs struct {
	a          *iomodel.KeyedMatrix
	y          *iomodel.KeyedMatrix
	unweighted *iomodel.KeyedMatrix
}

func runSystemic(ctx context.Context, a *app) error {
	// 1. Volatility, shared by every year
	volReport := &iomodel.Report{}
	vol, err := loadVolatility(ctx, a, volReport)
	a.report.Merge(volReport)
	if err != nil {
		return err
	}

	// 2. Coefficients and unweighted shocks per year
	var mu sync.Mutex
	inputs := make(map[int]*systemicInputs)
	units := make([]batch.Unit, 0, len(a.cfg.Run.Years))
	for _, year := range a.cfg.Run.Years {
		year := year
		units = append(units, batch.Unit{
			Name: fmt.Sprintf("systemic/%d", year),
			Run: func(ctx context.Context, report *iomodel.Report) error {
				in, err := systemicYear(ctx, a, year, vol, report)
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

	// 3. Weights, impacts and screening per year and scheme
	units = nil
	for _, year := range a.cfg.Run.Years {
		year := year
		in, ok := inputs[year]
		if !ok {
			continue
		}
		for _, scheme := range a.cfg.Run.Schemes {
			scheme := scheme
			units = append(units, batch.Unit{
				Name: fmt.Sprintf("systemic/%d/%s", year, scheme),
				Run: func(ctx context.Context, report *iomodel.Report) error {
					return systemicScheme(ctx, a, year, scheme, in, vol, report)
				},
			})
		}
	}
	_, err = a.run(ctx, units)
	return err
}

func (a *app) systemicDir(year int) string {
	return filepath.Join(a.cfg.YearDir(year), "systemic")
}

// systemicYear builds A and the unweighted shock matrix of one year.
func systemicYear(ctx context.Context, a *app, year int, vol *iomodel.KeyedVector, report *iomodel.Report) (*systemicInputs, error) {
	mapping := a.cfg.Mappings.Systemic()
	dir := a.systemicDir(year)

	// 1. Load the prepared tables
	z, err := tables.LoadMatrixCSV(a.preparedPath(year, "Z"))
	if err != nil {
		return nil, err
	}
	y, err := tables.LoadMatrixCSV(a.preparedPath(year, "Y"))
	if err != nil {
		return nil, err
	}
	x, err := tables.LoadVectorCSV(a.preparedPath(year, "X"))
	if err != nil {
		return nil, err
	}

	// 2. Aggregate sectors
	if z, err = iomodel.AggregateSectors(z, mapping); err != nil {
		return nil, err
	}
	if y, err = iomodel.AggregateSectors(y, mapping); err != nil {
		return nil, err
	}
	if x, err = iomodel.AggregateVector(x, mapping, nil); err != nil {
		return nil, err
	}

	// 3. Technical coefficients and forward linkages
	coef, err := iomodel.TechnicalCoefficients(z, x)
	if err != nil {
		return nil, err
	}
	if err := writeMatrix(filepath.Join(dir, "A.csv"), coef); err != nil {
		return nil, err
	}
	if err := writeVector(filepath.Join(dir, "forward_linkages.csv"), iomodel.ForwardLinkages(coef)); err != nil {
		return nil, err
	}

	// 4. Shock every volatile sector on its own
	unweighted, err := iomodel.UnweightedShocks(coef, vol, a.cfg.SolveOptions(), report)
	if err != nil {
		return nil, err
	}
	if err := writeMatrix(filepath.Join(dir, "unweighted_shocks.csv"), unweighted); err != nil {
		return nil, err
	}
	shocked, _ := unweighted.Dims()
	a.logger.InfoContext(ctx, "unweighted shocks solved", "year", year, "sectors", shocked)

	return &systemicInputs{a: coef, y: y, unweighted: unweighted}, nil
}

// systemicScheme weights one year's shocks under one region scheme.
func systemicScheme(ctx context.Context, a *app, year int, name string, in *systemicInputs, vol *iomodel.KeyedVector, report *iomodel.Report) error {
	dir := filepath.Join(a.systemicDir(year), name)
	if err := ensureDir(dir); err != nil {
		return err
	}
	scheme, err := a.cfg.RegionScheme(name)
	if err != nil {
		return err
	}

	// 1. CPI weights
	weights, err := iomodel.CPIWeights(in.y, a.cfg.Run.ConsumptionCode, scheme)
	if err != nil {
		return err
	}
	if err := tables.OutputMatrixToCSV(filepath.Join(dir, "cpi_weights.csv"), weights); err != nil {
		return err
	}

	// 2. Direct, indirect and total impacts
	records, err := iomodel.WeightedImpacts(in.unweighted, vol, weights, report)
	if err != nil {
		return err
	}
	if err := tables.OutputImpactsToCSV(filepath.Join(dir, "impacts.csv"), records); err != nil {
		return err
	}
	if len(records) > 0 {
		if err := tables.OutputImpactWorkbook(filepath.Join(dir, "impacts.xlsx"), records); err != nil {
			return err
		}
	}

	// 3. Systemic screening
	screened, err := iomodel.ScreenSystemic(in.a, vol, weights)
	if err != nil {
		return err
	}
	if err := tables.OutputSystemicToCSV(filepath.Join(dir, "systemic_sectors.csv"), screened); err != nil {
		return err
	}

	systemic := 0
	for _, r := range screened {
		if r.Systemic {
			systemic++
		}
	}
	a.logger.InfoContext(ctx, "scheme weighted", "year", year, "scheme", name,
		"regions", len(weights.ColCountries()), "impacts", len(records), "systemic", systemic)
	return nil
}
