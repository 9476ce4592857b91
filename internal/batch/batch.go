// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

// Package batch runs independent pipeline units (one year, scheme or sector
// block each) on a bounded worker pool and records their outcome.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"IO_Shock_Propagation_Project/internal/iomodel"
	"IO_Shock_Propagation_Project/internal/logging"
)

// Outcomes recorded per unit.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Unit is one independent piece of work. Run writes its diagnostics to the
// report it is given; the runner merges them afterwards.
type Unit struct {
	Name string
	Run  func(ctx context.Context, report *iomodel.Report) error
}

// Metrics counts units by outcome and times them.
type Metrics struct {
	Units    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Diags    *prometheus.CounterVec
}

// NewMetrics registers the batch metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ioshock",
			Subsystem: "batch",
			Name:      "units_total",
			Help:      "Pipeline units processed, by outcome.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ioshock",
			Subsystem: "batch",
			Name:      "unit_duration_seconds",
			Help:      "Wall time of one pipeline unit.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"outcome"}),
		Diags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ioshock",
			Subsystem: "batch",
			Name:      "diagnostics_total",
			Help:      "Non-fatal diagnostics, by kind.",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{m.Units, m.Duration, m.Diags} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register batch metrics: %w", err)
		}
	}
	return m, nil
}

// Result summarizes one Run.
type Result struct {
	RunID     string
	Report    *iomodel.Report
	Completed int
	Skipped   int
	Elapsed   time.Duration
}

// Runner executes units with at most Workers in flight.
type Runner struct {
	Workers int
	Logger  *slog.Logger
	// Optional
	Metrics *Metrics
}

// Run executes every unit. A unit failing with a singular system is recorded
// as skipped and the batch continues; any other error cancels the remaining
// units and is returned.
func (r *Runner) Run(ctx context.Context, units []Unit) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Report: &iomodel.Report{}}
	ctx = logging.WithRunID(ctx, res.RunID)
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(string(logging.RunIDKey), res.RunID)
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	logger.InfoContext(ctx, "batch started", "units", len(units), "workers", workers)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, u := range units {
		u := u
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			unitStart := time.Now()
			report := &iomodel.Report{}
			err := u.Run(gctx, report)

			outcome := OutcomeOK
			switch {
			case err == nil:
			case iomodel.IsSingular(err):
				outcome = OutcomeSkipped
				report.Add(iomodel.Diagnostic{Kind: iomodel.SingularSkipped, Detail: u.Name + ": " + err.Error()})
			default:
				outcome = OutcomeFailed
			}
			r.observe(outcome, time.Since(unitStart), report)

			mu.Lock()
			res.Report.Merge(report)
			switch outcome {
			case OutcomeOK:
				res.Completed++
			case OutcomeSkipped:
				res.Skipped++
			}
			mu.Unlock()

			if outcome == OutcomeFailed {
				logger.ErrorContext(gctx, "unit failed", "unit", u.Name, "error", err)
				return fmt.Errorf("%s: %w", u.Name, err)
			}
			logger.InfoContext(gctx, "unit finished", "unit", u.Name, "outcome", outcome,
				"diagnostics", report.Len(), "elapsed", time.Since(unitStart))
			return nil
		})
	}
	err := g.Wait()
	res.Elapsed = time.Since(start)
	if err != nil {
		// Wait returns the first failure, not the cancellations it caused
		return res, err
	}

	logger.InfoContext(ctx, "batch finished", "completed", res.Completed, "skipped", res.Skipped,
		"diagnostics", res.Report.Len(), "elapsed", res.Elapsed)
	return res, nil
}

func (r *Runner) observe(outcome string, d time.Duration, report *iomodel.Report) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.Units.WithLabelValues(outcome).Inc()
	r.Metrics.Duration.WithLabelValues(outcome).Observe(d.Seconds())
	for _, diag := range report.Diagnostics {
		r.Metrics.Diags.WithLabelValues(string(diag.Kind)).Inc()
	}
}

// WriteTextfile writes every metric of g in the Prometheus text format, for
// the node exporter textfile collector. An empty path does nothing.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
