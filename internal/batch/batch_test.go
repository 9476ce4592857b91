// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"IO_Shock_Propagation_Project/internal/config"
	"IO_Shock_Propagation_Project/internal/iomodel"
	"IO_Shock_Propagation_Project/internal/logging"
)

func newRunner(t *testing.T, workers int) (*Runner, *prometheus.Registry, *bytes.Buffer) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return &Runner{Workers: workers, Logger: logger, Metrics: m}, reg, &buf
}

func TestRunAllUnits(t *testing.T) {
	r, _, _ := newRunner(t, 3)

	var inFlight, peak atomic.Int32
	units := make([]Unit, 10)
	for i := range units {
		units[i] = Unit{
			Name: fmt.Sprintf("unit-%d", i),
			Run: func(ctx context.Context, report *iomodel.Report) error {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				report.Add(iomodel.Diagnostic{Kind: iomodel.MissingWeight, Key: iomodel.K("AT", fmt.Sprint(i))})
				return nil
			},
		}
	}

	res, err := r.Run(context.Background(), units)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Completed)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 10, res.Report.Count(iomodel.MissingWeight))
	assert.LessOrEqual(t, peak.Load(), int32(3))
	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)

	assert.Equal(t, 10.0, testutil.ToFloat64(r.Metrics.Units.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.Metrics.Diags.WithLabelValues(string(iomodel.MissingWeight))))
}

func TestRunSkipsSingularUnits(t *testing.T) {
	r, _, buf := newRunner(t, 2)
	units := []Unit{
		{Name: "ok", Run: func(context.Context, *iomodel.Report) error { return nil }},
		{Name: "singular", Run: func(context.Context, *iomodel.Report) error {
			return &iomodel.SingularSystemError{Op: "solve price change"}
		}},
	}

	res, err := r.Run(context.Background(), units)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Report.Count(iomodel.SingularSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Units.WithLabelValues(OutcomeSkipped)))
	assert.Contains(t, buf.String(), res.RunID)
}

func TestRunTagsEveryRecordOnce(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := logging.New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	r := &Runner{Workers: 1, Logger: logger}
	res, err := r.Run(context.Background(), []Unit{{Name: "only", Run: func(context.Context, *iomodel.Report) error { return nil }}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		if n := strings.Count(line, `"run_id"`); n != 1 {
			t.Errorf("Test %d: got %d run_id attributes; want 1", i+1, n)
		}
		assert.Contains(t, line, res.RunID)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	r, _, _ := newRunner(t, 1)
	boom := errors.New("boom")
	var ran atomic.Int32
	units := []Unit{
		{Name: "fails", Run: func(context.Context, *iomodel.Report) error { ran.Add(1); return boom }},
		{Name: "later", Run: func(context.Context, *iomodel.Report) error { ran.Add(1); return nil }},
	}

	_, err := r.Run(context.Background(), units)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "fails")
	// with a single worker the second unit starts after the failure and sees the cancellation
	assert.Equal(t, int32(1), ran.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.Units.WithLabelValues(OutcomeFailed)))
}

func TestRunWithoutMetrics(t *testing.T) {
	r := &Runner{}
	res, err := r.Run(context.Background(), []Unit{{Name: "only", Run: func(context.Context, *iomodel.Report) error { return nil }}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Completed)
}

func TestWriteTextfile(t *testing.T) {
	r, reg, _ := newRunner(t, 1)
	_, err := r.Run(context.Background(), []Unit{{Name: "only", Run: func(context.Context, *iomodel.Report) error { return nil }}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ioshock.prom")
	require.NoError(t, WriteTextfile(path, reg))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `ioshock_batch_units_total{outcome="ok"} 1`)

	require.NoError(t, WriteTextfile("", reg))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}
