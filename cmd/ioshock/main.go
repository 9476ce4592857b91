// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// ioshock runs the price shock pipelines on FIGARO tables.
//
// prepare cuts the raw FIGARO table of each year into Z, Y, X and VA.
// volatility derives sector price volatility from the WIOD SEA workbook.
// systemic shocks every volatile sector, weights the responses by household
// CPI weights and screens for systemic sectors.
// gas splits the energy sector with EXIOBASE shares and propagates an
// imported gas price shock into the target group's CPI.

var (
	configPath string
	years      []int
	outDir     string
	workers    int
)

var rootCmd = &cobra.Command{
	Use:   "ioshock",
	Short: "Propagate energy price shocks through multi-regional input-output tables",
	Long: `Leontief price model pipelines over FIGARO/EXIOBASE tables.

Typical order:
  ioshock prepare    --year 2021
  ioshock volatility
  ioshock systemic   --year 2021
  ioshock gas        --year 2021`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML config file (IOSHOCK_* environment variables override it)")
	rootCmd.PersistentFlags().IntSliceVar(&years, "year", nil,
		"Table years to process (default from config)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", "",
		"Output directory (default from config)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0,
		"Parallel units (default from config)")

	rootCmd.AddCommand(prepareCmd, volatilityCmd, systemicCmd, gasCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
