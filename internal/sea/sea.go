// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

// Package sea derives sector price volatility from the WIOD Socio-Economic
// Accounts workbook.
package sea

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"

	"IO_Shock_Propagation_Project/internal/iomodel"
)

// Layout of the SEA DATA sheet: four metadata columns, then one per year.
const (
	DefaultSheet    = "DATA"
	DefaultVariable = "II_PI"
	metadataColumns = 4
)

// VolatilityName is the value column of the volatility table.
const VolatilityName = "price_volatility"

// SEAToFIGARO maps WIOD ISO3 country codes to FIGARO's two-letter codes.
// Greece is EL in FIGARO.
var SEAToFIGARO = map[string]string{
	"AUS": "AU", "AUT": "AT", "BEL": "BE", "BGR": "BG", "BRA": "BR",
	"CAN": "CA", "CHE": "CH", "CHN": "CN", "CYP": "CY", "CZE": "CZ",
	"DEU": "DE", "DNK": "DK", "ESP": "ES", "EST": "EE", "FIN": "FI",
	"FRA": "FR", "GBR": "GB", "GRC": "EL", "HRV": "HR", "HUN": "HU",
	"IDN": "ID", "IND": "IN", "IRL": "IE", "ITA": "IT", "JPN": "JP",
	"KOR": "KR", "LTU": "LT", "LUX": "LU", "LVA": "LV", "MEX": "MX",
	"MLT": "MT", "NLD": "NL", "NOR": "NO", "POL": "PL", "PRT": "PT",
	"ROU": "RO", "RUS": "RU", "SVK": "SK", "SVN": "SI", "SWE": "SE",
	"TUR": "TR", "USA": "US", "ZAF": "ZA", "ARG": "AR", "SAU": "SA",
}

// Options tunes Volatility.
type Options struct {
	Sheet    string
	Variable string
	// ISO3 -> FIGARO code; unmapped codes pass through
	CountryCodes map[string]string
	// SEA codes dropped before mapping
	Excluded []string
	// FIGARO countries that get a zero volatility for every sector they lack
	ZeroCountries []string
}

// DefaultOptions returns the settings used for the systemic price analysis.
func DefaultOptions() Options {
	return Options{
		Sheet:         DefaultSheet,
		Variable:      DefaultVariable,
		CountryCodes:  SEAToFIGARO,
		Excluded:      []string{"TWN"},
		ZeroCountries: []string{"SA", "ZA", "AR", iomodel.FIGAROWorld},
	}
}

// Row is one line of the SEA sheet. Missing or non-numeric year cells are NaN.
type Row struct {
	Country  string
	Variable string
	Code     string
	Values   []float64
}

// LoadWorkbook reads every data row of a sheet. The first row is the header.
func LoadWorkbook(path, sheet string) ([]Row, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s of %s: %w", sheet, path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s of %s: %w", sheet, path, iomodel.ErrMissingData)
	}
	years := len(rows[0]) - metadataColumns
	if years < 2 {
		return nil, fmt.Errorf("sheet %s of %s has %d year columns; need at least 2", sheet, path, years)
	}
	return parseRows(rows[1:], years), nil
}

// parseRows turns raw cells into rows. GetRows drops trailing empty cells,
// so short rows are padded with NaN.
func parseRows(raw [][]string, years int) []Row {
	out := make([]Row, 0, len(raw))
	for _, r := range raw {
		if len(r) < metadataColumns {
			continue
		}
		row := Row{
			Country:  strings.TrimSpace(r[0]),
			Variable: strings.TrimSpace(r[1]),
			Code:     strings.TrimSpace(r[3]),
			Values:   make([]float64, years),
		}
		for y := 0; y < years; y++ {
			row.Values[y] = math.NaN()
			if c := metadataColumns + y; c < len(r) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(r[c]), 64); err == nil {
					row.Values[y] = v
				}
			}
		}
		out = append(out, row)
	}
	return out
}

// PercentChanges returns the year-over-year percentage changes of a series.
// A change whose base year is zero or missing is NaN.
func PercentChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev, cur := values[i-1], values[i]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(cur) {
			out[i-1] = math.NaN()
			continue
		}
		out[i-1] = (cur - prev) / prev * 100
	}
	return out
}

// SeriesVolatility is the population standard deviation of the valid
// percentage changes. ok is false when no change is valid.
func SeriesVolatility(values []float64) (float64, bool) {
	changes := PercentChanges(values)
	valid := changes[:0:0]
	for _, c := range changes {
		if !math.IsNaN(c) && !math.IsInf(c, 0) {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return 0, false
	}
	_, std := stat.PopMeanStdDev(valid, nil)
	return std, true
}

// Volatility computes the price volatility of every (country, sector) row of
// the chosen variable, keyed by FIGARO country codes and sorted. Rows without
// a single valid change are reported and left out.
func Volatility(rows []Row, opts Options, report *iomodel.Report) (*iomodel.KeyedVector, error) {
	if opts.Variable == "" {
		opts.Variable = DefaultVariable
	}
	excluded := iomodel.NewStringSet(opts.Excluded...)

	// 1. Volatility per mapped key
	vols := make(map[iomodel.Key]float64)
	sectors := iomodel.NewStringSet()
	for _, r := range rows {
		if r.Variable != opts.Variable || excluded.Has(r.Country) || r.Code == "" {
			continue
		}
		country := r.Country
		if to, ok := opts.CountryCodes[country]; ok {
			country = to
		}
		k := iomodel.Key{Country: country, Sector: r.Code}
		sectors[r.Code] = struct{}{}

		v, ok := SeriesVolatility(r.Values)
		if !ok {
			report.Add(iomodel.Diagnostic{Kind: iomodel.MissingVolatility, Key: k, Detail: "no valid year-over-year change"})
			continue
		}
		if _, dup := vols[k]; dup {
			return nil, fmt.Errorf("sea volatility: %s appears twice after country mapping: %w", k, iomodel.ErrPrecondition)
		}
		vols[k] = v
	}
	if len(vols) == 0 {
		return nil, fmt.Errorf("sea volatility: no %s rows: %w", opts.Variable, iomodel.ErrMissingData)
	}

	// 2. Zero rows for countries SEA does not cover
	for _, country := range opts.ZeroCountries {
		for _, code := range sectors.Sorted() {
			k := iomodel.Key{Country: country, Sector: code}
			if _, ok := vols[k]; !ok {
				vols[k] = 0
			}
		}
	}

	return iomodel.VectorFromMap(VolatilityName, vols), nil
}

// VolatilityFromWorkbook loads the SEA workbook and computes Volatility.
func VolatilityFromWorkbook(path string, opts Options, report *iomodel.Report) (*iomodel.KeyedVector, error) {
	rows, err := LoadWorkbook(path, opts.Sheet)
	if err != nil {
		return nil, err
	}
	return Volatility(rows, opts, report)
}
