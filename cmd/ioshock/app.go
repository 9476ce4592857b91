// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"IO_Shock_Propagation_Project/internal/batch"
	"IO_Shock_Propagation_Project/internal/config"
	"IO_Shock_Propagation_Project/internal/iomodel"
	"IO_Shock_Propagation_Project/internal/logging"
	"IO_Shock_Propagation_Project/internal/tables"
)

// app carries what every subcommand needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	runner   *batch.Runner
	closer   io.Closer
	// diagnostics of every batch run so far
	report *iomodel.Report
}

// newApp loads the config, applies the command line overrides and builds the
// logger and batch runner.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if len(years) > 0 {
		cfg.Run.Years = years
	}
	if outDir != "" {
		cfg.Paths.OutputDir = outDir
	}
	if workers > 0 {
		cfg.Run.Workers = workers
	}
	return newAppFromConfig(cfg, os.Stderr)
}

func newAppFromConfig(cfg *config.Config, logOut io.Writer) (*app, error) {
	logger, closer, err := logging.New(cfg.Logging, logOut)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	metrics, err := batch.NewMetrics(reg)
	if err != nil {
		closer.Close()
		return nil, err
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		runner:   &batch.Runner{Workers: cfg.Run.Workers, Logger: logger, Metrics: metrics},
		closer:   closer,
		report:   &iomodel.Report{},
	}, nil
}

// run executes units on the batch runner and keeps their diagnostics for
// finish.
func (a *app) run(ctx context.Context, units []batch.Unit) (*batch.Result, error) {
	res, err := a.runner.Run(ctx, units)
	if res != nil {
		a.report.Merge(res.Report)
	}
	return res, err
}

// finish writes the collected diagnostics to diagName under the output
// directory and exports the metrics. runErr is returned along with any
// failure of its own.
func (a *app) finish(diagName string, runErr error) error {
	err := runErr
	if a.report.Len() > 0 {
		path := filepath.Join(a.cfg.Paths.OutputDir, diagName)
		if werr := a.writeDiagnostics(path, a.report); werr != nil {
			err = errors.Join(err, werr)
		}
	}
	if merr := batch.WriteTextfile(a.cfg.Metrics.TextfilePath, a.registry); merr != nil {
		err = errors.Join(err, merr)
	}
	return err
}

func (a *app) writeDiagnostics(path string, report *iomodel.Report) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := tables.OutputDiagnosticsToCSV(path, report); err != nil {
		return err
	}
	a.logger.Warn("diagnostics written", "path", path, "count", report.Len())
	return nil
}

func (a *app) Close() error { return a.closer.Close() }

// Input and output locations.

func (a *app) rawFIGAROPath(year int) string {
	return filepath.Join(a.cfg.Paths.DataDir, "figaro", "raw", "figaro_"+strconv.Itoa(year)+".csv")
}

func (a *app) exiobasePath(year int, name string) string {
	return filepath.Join(a.cfg.Paths.DataDir, "exiobase", strconv.Itoa(year), name+".csv")
}

func (a *app) preparedPath(year int, name string) string {
	return filepath.Join(a.cfg.YearDir(year), "prepared", name+".csv")
}

func (a *app) volatilityPath() string {
	return filepath.Join(a.cfg.Paths.OutputDir, "price_volatility.csv")
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// writeMatrix and writeVector create the parent directory first.
func writeMatrix(path string, m *iomodel.KeyedMatrix) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return tables.OutputMatrixToCSV(path, m)
}

func writeVector(path string, v *iomodel.KeyedVector) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return tables.OutputVectorToCSV(path, v)
}

// mergeCountryMapping folds every mapped country into its target, one target
// at a time.
func mergeCountryMapping(m *iomodel.KeyedMatrix, mapping iomodel.CountryMapping) (*iomodel.KeyedMatrix, error) {
	byTarget := make(map[string][]string)
	for from, to := range mapping {
		byTarget[to] = append(byTarget[to], from)
	}
	targets := iomodel.NewStringSet()
	for to := range byTarget {
		targets[to] = struct{}{}
	}
	var err error
	for _, to := range targets.Sorted() {
		if m, err = iomodel.MergeCountries(m, byTarget[to], to); err != nil {
			return nil, err
		}
	}
	return m, nil
}
