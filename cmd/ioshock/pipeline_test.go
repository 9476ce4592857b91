// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package main

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"IO_Shock_Propagation_Project/internal/config"
	"IO_Shock_Propagation_Project/internal/iomodel"
	"IO_Shock_Propagation_Project/internal/tables"
)

const testYear = 2021

// rawFIGARO is a two-country table: AT (EU28) and RU (outside).
var rawFIGARO = strings.Join([]string{
	"label,AT_A01,AT_B,AT_C10T12,RU_A01,RU_B,RU_C10T12,AT_P3_S14,RU_P3_S14",
	"AT_A01,10,5,20,1,0,2,50,5",
	"AT_B,4,2,8,0,1,1,20,2",
	"AT_C10T12,6,3,10,2,1,3,80,10",
	"RU_A01,2,0,4,10,5,15,5,60",
	"RU_B,8,6,6,5,4,10,3,30",
	"RU_C10T12,1,1,2,6,3,8,6,70",
	"W2_D1,70,40,90,60,50,80,0,0",
}, "\n")

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testApp(t *testing.T) *app {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.OutputDir = filepath.Join(root, "out")
	cfg.Run.Years = []int{testYear}
	cfg.Run.Workers = 2
	cfg.Run.Schemes = []string{iomodel.SchemeEU28, iomodel.SchemePerCountry}
	cfg.Logging.Level = "error"
	cfg.Metrics.TextfilePath = filepath.Join(root, "out", "ioshock.prom")
	require.NoError(t, cfg.Validate())

	a, err := newAppFromConfig(cfg, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	writeTestFile(t, a.rawFIGAROPath(testYear), rawFIGARO)
	return a
}

// writeExiobase writes EXIOBASE Z and Y tables that already carry the gas
// split, with the same countries and sectors as rawFIGARO.
func writeExiobase(t *testing.T, a *app) {
	t.Helper()
	var keys []iomodel.Key
	for _, c := range []string{"AT", "RU"} {
		for _, s := range []string{"A01", iomodel.GasSector, iomodel.NonGasSector, "C10-C12"} {
			keys = append(keys, iomodel.K(c, s))
		}
	}
	zData := make([]float64, 0, len(keys)*len(keys))
	for i := range keys {
		for j := range keys {
			zData = append(zData, float64(1+(i+j)%3))
		}
	}
	z, err := iomodel.NewKeyedMatrix(keys, keys, zData)
	require.NoError(t, err)

	fd := []iomodel.Key{iomodel.K("AT", "P3_S14"), iomodel.K("RU", "P3_S14")}
	yData := make([]float64, 0, len(keys)*len(fd))
	for i := range keys {
		yData = append(yData, float64(2+i%2), float64(1+i%3))
	}
	y, err := iomodel.NewKeyedMatrix(keys, fd, yData)
	require.NoError(t, err)

	require.NoError(t, writeMatrix(a.exiobasePath(testYear, "Z"), z))
	require.NoError(t, writeMatrix(a.exiobasePath(testYear, "Y"), y))
}

func TestPrepareYear(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()
	require.NoError(t, prepareYear(ctx, a, testYear))

	z, err := tables.LoadMatrixCSV(a.preparedPath(testYear, "Z"))
	require.NoError(t, err)
	rows, cols := z.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 6, cols)
	// C10T12 carries its FIGARO name
	assert.True(t, z.HasRow(iomodel.K("AT", "C10-C12")))

	x, err := tables.LoadVectorCSV(a.preparedPath(testYear, "X"))
	require.NoError(t, err)
	v, ok := x.Get(iomodel.K("AT", "A01"))
	require.True(t, ok)
	assert.Equal(t, 101.0, v)

	y, err := tables.LoadMatrixCSV(a.preparedPath(testYear, "Y"))
	require.NoError(t, err)
	assert.True(t, y.HasRow(iomodel.K(iomodel.ValueAddedMarker, "D1")))
	_, err = os.Stat(a.preparedPath(testYear, "VA"))
	assert.NoError(t, err)
}

func TestRunSystemic(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()
	require.NoError(t, prepareYear(ctx, a, testYear))
	writeTestFile(t, a.volatilityPath(), "country,sector,price_volatility\nAT,B,2\nRU,B,3\nAT,A01,0\nDE,A01,1\n")

	require.NoError(t, a.finish("systemic_diagnostics.csv", runSystemic(ctx, a)))

	// 1. Coefficients
	coef, err := tables.LoadMatrixCSV(filepath.Join(a.systemicDir(testYear), "A.csv"))
	require.NoError(t, err)
	v, _ := coef.At(iomodel.K("AT", "A01"), iomodel.K("AT", "A01"))
	assert.InDelta(t, 10.0/101, v, 1e-12)

	// 2. Impacts: two shocked sectors times two regions
	records, err := tables.LoadImpactsCSV(filepath.Join(a.systemicDir(testYear), iomodel.SchemeEU28, "impacts.csv"))
	require.NoError(t, err)
	require.Len(t, records, 4)
	var found bool
	for _, r := range records {
		assert.InDelta(t, r.Direct+r.Indirect, r.Total, 1e-12)
		if r.Country == "AT" && r.Sector == "B" && r.Region == "EU28" {
			found = true
			// AT households spend 20 of 164 on AT B
			assert.InDelta(t, 20.0/164*2, r.Direct, 1e-12)
			assert.Greater(t, r.Indirect, 0.0)
		}
	}
	assert.True(t, found)

	f, err := excelize.OpenFile(filepath.Join(a.systemicDir(testYear), iomodel.SchemeEU28, "impacts.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, []string{"EU28", "ROW", tables.TotalsSheet}, f.GetSheetList())
	require.NoError(t, f.Close())

	// 3. Per-country scheme and screening
	_, err = os.Stat(filepath.Join(a.systemicDir(testYear), iomodel.SchemePerCountry, "systemic_sectors.csv"))
	assert.NoError(t, err)

	// 4. Diagnostics: AT A01 has no volatility to propagate, DE is not in A
	assert.Equal(t, 1, a.report.Count(iomodel.ZeroShock))
	assert.Equal(t, 1, a.report.Count(iomodel.MissingSector))
	raw, err := os.ReadFile(filepath.Join(a.cfg.Paths.OutputDir, "systemic_diagnostics.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "zero_shock,AT,A01")

	raw, err = os.ReadFile(a.cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `ioshock_batch_units_total{outcome="ok"} 3`)
}

func TestRunSystemicNeedsPreparedTables(t *testing.T) {
	a := testApp(t)
	writeTestFile(t, a.volatilityPath(), "country,sector,price_volatility\nAT,B,2\n")
	err := runSystemic(context.Background(), a)
	assert.Error(t, err)
}

func TestRunGas(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()
	require.NoError(t, prepareYear(ctx, a, testYear))
	writeExiobase(t, a)

	require.NoError(t, runGas(ctx, a))
	dir := a.gasDir(testYear)

	// 1. Energy split A carries both halves
	coef, err := tables.LoadMatrixCSV(filepath.Join(dir, "A.csv"))
	require.NoError(t, err)
	assert.True(t, coef.HasRow(iomodel.K("RU", iomodel.GasSector)))
	assert.False(t, coef.HasRow(iomodel.K("RU", iomodel.EnergySector)))

	// 2. Only the supplier outside the group is shocked
	shock, err := tables.LoadVectorCSV(filepath.Join(dir, "price_shock.csv"))
	require.NoError(t, err)
	assert.Equal(t, []iomodel.Key{iomodel.K("RU", iomodel.GasSector)}, shock.Keys())
	assert.Equal(t, []float64{5}, shock.Values())

	// 3. The import shock raises the EU28 CPI; with a one-country group
	// the intra-regional part is zero
	totals, err := tables.LoadVectorCSV(filepath.Join(dir, iomodel.SchemeEU28, "cpi_impact_extra.csv"))
	require.NoError(t, err)
	eu, ok := totals.Get(iomodel.K("EU28", iomodel.ImpactSector))
	require.True(t, ok)
	assert.Greater(t, eu, 0.0)

	intra, err := tables.LoadVectorCSV(filepath.Join(dir, "price_changes_intra.csv"))
	require.NoError(t, err)
	for i, v := range intra.Values() {
		assert.InDelta(t, 0, v, 1e-12, "intra change %d", i)
	}

	full, err := tables.LoadVectorCSV(filepath.Join(dir, "price_changes_extra_intra.csv"))
	require.NoError(t, err)
	for _, v := range full.Values() {
		assert.False(t, math.IsNaN(v))
	}
}

func TestRunGasWithoutExiobase(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()
	require.NoError(t, prepareYear(ctx, a, testYear))
	assert.Error(t, runGas(ctx, a))
}

func TestComputeVolatility(t *testing.T) {
	a := testApp(t)
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "DATA"))
	rows := [][]any{
		{"country", "variable", "description", "code", "2000", "2001", "2002"},
		{"AUT", "II_PI", "price index", "B", 100, 110, 99},
		{"RUS", "II_PI", "price index", "B", 100, 100, 100},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("DATA", cell, &r))
	}
	a.cfg.Paths.SEAFile = filepath.Join(t.TempDir(), "sea.xlsx")
	require.NoError(t, f.SaveAs(a.cfg.Paths.SEAFile))
	require.NoError(t, f.Close())

	report := &iomodel.Report{}
	vol, err := loadVolatility(context.Background(), a, report)
	require.NoError(t, err)
	v, _ := vol.Get(iomodel.K("AT", "B"))
	assert.InDelta(t, 10, v, 1e-9)

	// the second call reads the written table back
	again, err := loadVolatility(context.Background(), a, report)
	require.NoError(t, err)
	assert.Equal(t, vol.Keys(), again.Keys())
}

func TestMergeCountryMapping(t *testing.T) {
	m, err := iomodel.NewKeyedMatrix(
		[]iomodel.Key{iomodel.K("WA", "B"), iomodel.K("WE", "B"), iomodel.K("DE", "B")},
		[]iomodel.Key{iomodel.K("DE", "B")},
		[]float64{1, 2, 4},
	)
	require.NoError(t, err)
	got, err := mergeCountryMapping(m, config.DefaultExiobaseRegions)
	require.NoError(t, err)
	v, ok := got.At(iomodel.K(iomodel.FIGAROWorld, "B"), iomodel.K("DE", "B"))
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
	assert.Equal(t, 7.0, got.Sum())
}
