// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"context"
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"IO_Shock_Propagation_Project/internal/batch"
	"IO_Shock_Propagation_Project/internal/iomodel"
	"IO_Shock_Propagation_Project/internal/sea"
	"IO_Shock_Propagation_Project/internal/tables"
)

var volatilityCmd = &cobra.Command{
	Use:   "volatility",
	Short: "Derive sector price volatility from the WIOD SEA workbook",
	Long: `Computes the population standard deviation of the year-over-year II_PI price
changes per country and sector and writes <out>/price_volatility.csv.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		_, err = a.run(cmd.Context(), []batch.Unit{{
			Name: "volatility",
			Run: func(ctx context.Context, report *iomodel.Report) error {
				_, err := computeVolatility(ctx, a, report)
				return err
			},
		}})
		return a.finish("volatility_diagnostics.csv", err)
	},
}

// computeVolatility reads the SEA workbook and writes the volatility table.
func computeVolatility(ctx context.Context, a *app, report *iomodel.Report) (*iomodel.KeyedVector, error) {
	vol, err := sea.VolatilityFromWorkbook(a.cfg.SEAPath(), sea.DefaultOptions(), report)
	if err != nil {
		return nil, err
	}
	if err := writeVector(a.volatilityPath(), vol); err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "volatility written", "path", a.volatilityPath(), "sectors", vol.Len())
	return vol, nil
}

// loadVolatility reuses a volatility table written earlier, computing it
// when there is none.
func loadVolatility(ctx context.Context, a *app, report *iomodel.Report) (*iomodel.KeyedVector, error) {
	vol, err := tables.LoadVectorCSV(a.volatilityPath())
	if errors.Is(err, fs.ErrNotExist) {
		return computeVolatility(ctx, a, report)
	}
	return vol, err
}
