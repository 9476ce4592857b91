// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"IO_Shock_Propagation_Project/internal/batch"
	"IO_Shock_Propagation_Project/internal/iomodel"
	"IO_Shock_Propagation_Project/internal/tables"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Cut raw FIGARO tables into Z, Y, X and VA",
	Long: `Reads <data>/figaro/raw/figaro_<year>.csv, renames the FIGARO sector codes,
appends the gross output row and writes Z, Y, X and VA to <out>/<year>/prepared.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		units := make([]batch.Unit, 0, len(a.cfg.Run.Years))
		for _, year := range a.cfg.Run.Years {
			year := year
			units = append(units, batch.Unit{
				Name: fmt.Sprintf("prepare/%d", year),
				Run: func(ctx context.Context, _ *iomodel.Report) error {
					return prepareYear(ctx, a, year)
				},
			})
		}
		_, err = a.run(cmd.Context(), units)
		return a.finish("prepare_diagnostics.csv", err)
	},
}

// prepareYear runs the table preparation of one year.
func prepareYear(ctx context.Context, a *app, year int) error {
	logger := a.logger.With("year", year)

	// 1. Load the raw table
	raw, err := tables.LoadRawCSV(a.rawFIGAROPath(year))
	if err != nil {
		return err
	}
	rows, cols := raw.Dims()
	logger.InfoContext(ctx, "raw table loaded", "rows", rows, "cols", cols)

	// 2. Harmonize sector codes
	renamed, err := iomodel.RenameSectors(raw, a.cfg.Mappings.Renames())
	if err != nil {
		return err
	}

	// 3. Gross output row
	full, err := iomodel.AddGrossOutputRow(renamed)
	if err != nil {
		return err
	}

	// 4. Extract the blocks
	t, err := iomodel.ExtractTables(full, iomodel.FinalDemandCodes)
	if err != nil {
		return err
	}
	if err := t.Z.CheckFinite("prepare", "Z"); err != nil {
		return err
	}

	// 5. Write them out
	if err := writeMatrix(a.preparedPath(year, "Z"), t.Z); err != nil {
		return err
	}
	if err := writeMatrix(a.preparedPath(year, "Y"), t.Y); err != nil {
		return err
	}
	if err := writeVector(a.preparedPath(year, "X"), t.X); err != nil {
		return err
	}
	if t.VA != nil {
		if err := writeMatrix(a.preparedPath(year, "VA"), t.VA); err != nil {
			return err
		}
	}
	logger.InfoContext(ctx, "tables prepared", "industries", t.X.Len(), "value_added", t.VA != nil)
	return nil
}
