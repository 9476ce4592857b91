// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package sea

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"IO_Shock_Propagation_Project/internal/iomodel"
)

// writeWorkbook builds a minimal SEA workbook with a DATA sheet.
func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), DefaultSheet))

	header := []any{"country", "variable", "description", "code", "2000", "2001", "2002"}
	require.NoError(t, f.SetSheetRow(DefaultSheet, "A1", &header))
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(DefaultSheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), "WIOD_SEA.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestPercentChanges(t *testing.T) {
	got := PercentChanges([]float64{100, 110, 99})
	require.Len(t, got, 2)
	assert.InDelta(t, 10, got[0], 1e-12)
	assert.InDelta(t, -10, got[1], 1e-12)

	got = PercentChanges([]float64{0, 5, math.NaN(), 4})
	for i, v := range got {
		assert.True(t, math.IsNaN(v), "change %d", i)
	}
}

func TestSeriesVolatility(t *testing.T) {
	// changes +10% and -10%: population std is 10
	v, ok := SeriesVolatility([]float64{100, 110, 99})
	require.True(t, ok)
	assert.InDelta(t, 10, v, 1e-9)

	_, ok = SeriesVolatility([]float64{0, 0, 0})
	assert.False(t, ok)
}

func TestVolatilityFromWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"AUT", "II_PI", "price index", "A01", 100, 110, 99},
		{"AUT", "GO_PI", "price index", "A01", 1, 2, 3},
		{"TWN", "II_PI", "price index", "A01", 100, 200, 100},
		{"ZAF", "II_PI", "price index", "A01", 100, 100, 100},
		{"GRC", "II_PI", "price index", "B", 50, 55},
		{"DEU", "II_PI", "price index", "B", 0, 0, 0},
	})

	report := &iomodel.Report{}
	vol, err := VolatilityFromWorkbook(path, DefaultOptions(), report)
	require.NoError(t, err)

	want := []iomodel.Key{
		iomodel.K("AR", "A01"), iomodel.K("AR", "B"),
		iomodel.K("AT", "A01"),
		iomodel.K("EL", "B"),
		iomodel.K("FIGW1", "A01"), iomodel.K("FIGW1", "B"),
		iomodel.K("SA", "A01"), iomodel.K("SA", "B"),
		iomodel.K("ZA", "A01"), iomodel.K("ZA", "B"),
	}
	if diff := cmp.Diff(want, vol.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, VolatilityName, vol.Name())

	v, _ := vol.Get(iomodel.K("AT", "A01"))
	assert.InDelta(t, 10, v, 1e-9)
	// a single change has no spread
	v, _ = vol.Get(iomodel.K("EL", "B"))
	assert.InDelta(t, 0, v, 1e-12)
	// ZA comes from SEA and is not overwritten by the zero rows
	assert.True(t, vol.Has(iomodel.K("ZA", "A01")))
	assert.False(t, vol.Has(iomodel.K("TW", "A01")))
	assert.False(t, vol.Has(iomodel.K("TWN", "A01")))

	// DEU B has only zero base years
	assert.Equal(t, 1, report.Count(iomodel.MissingVolatility))
}

func TestVolatilityKeepsMeasuredZeroCountries(t *testing.T) {
	rows := []Row{
		{Country: "ZAF", Variable: DefaultVariable, Code: "A01", Values: []float64{100, 120, 90}},
		{Country: "AUT", Variable: DefaultVariable, Code: "A01", Values: []float64{100, 100, 100}},
	}
	vol, err := Volatility(rows, DefaultOptions(), nil)
	require.NoError(t, err)
	v, _ := vol.Get(iomodel.K("ZA", "A01"))
	assert.Greater(t, v, 0.0)
	v, _ = vol.Get(iomodel.K("SA", "A01"))
	assert.Equal(t, 0.0, v)
}

func TestVolatilityErrors(t *testing.T) {
	_, err := Volatility(nil, DefaultOptions(), nil)
	assert.True(t, errors.Is(err, iomodel.ErrMissingData))

	rows := []Row{
		{Country: "AUT", Variable: DefaultVariable, Code: "A01", Values: []float64{1, 2}},
		{Country: "AT", Variable: DefaultVariable, Code: "A01", Values: []float64{1, 3}},
	}
	_, err = Volatility(rows, DefaultOptions(), nil)
	assert.True(t, errors.Is(err, iomodel.ErrPrecondition))

	path := writeWorkbook(t, nil)
	_, err = LoadWorkbook(path, DefaultSheet)
	assert.True(t, errors.Is(err, iomodel.ErrMissingData))
}
