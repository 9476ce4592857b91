// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"IO_Shock_Propagation_Project/internal/iomodel"
)

// ImpactHeader is the column layout of the weighted impact table.
var ImpactHeader = []string{"Country", "Sector", "Region", "Direct Impact", "Indirect Impact", "Total Impact"}

// SystemicHeader is the column layout of the systemic screening table.
var SystemicHeader = []string{
	"Country",
	"Sector",
	"Volatility",
	"Forward Linkage",
	"CPI Weight",
	"High Volatility",
	"High Linkage",
	"Systemic",
}

// OutputImpactsToCSV writes weighted impact records, one row per
// (exogenous sector, region).
func OutputImpactsToCSV(path string, records []iomodel.ImpactRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(ImpactHeader); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.Country,
			r.Sector,
			r.Region,
			formatCell(r.Direct),
			formatCell(r.Indirect),
			formatCell(r.Total),
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// LoadImpactsCSV reads a table written by OutputImpactsToCSV.
func LoadImpactsCSV(path string) ([]iomodel.ImpactRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(ImpactHeader) {
		return nil, fmt.Errorf("%s: header has %d fields; want %d", path, len(header), len(ImpactHeader))
	}

	var out []iomodel.ImpactRecord
	for row := 2; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}
		var vals [3]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[3+j], 64)
			if err != nil {
				return nil, fmt.Errorf("parse float at row %d col %d (%q): %w", row, 4+j, record[3+j], err)
			}
		}
		out = append(out, iomodel.ImpactRecord{
			Country:  record[0],
			Sector:   record[1],
			Region:   record[2],
			Direct:   vals[0],
			Indirect: vals[1],
			Total:    vals[2],
		})
	}
	return out, nil
}

// OutputSystemicToCSV writes the systemic screening result.
func OutputSystemicToCSV(path string, records []iomodel.SystemicRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(SystemicHeader); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.Key.Country,
			r.Key.Sector,
			formatCell(r.Volatility),
			formatCell(r.ForwardLinkage),
			formatCell(r.CPIWeight),
			fmt.Sprintf("%t", r.HighVolatility),
			fmt.Sprintf("%t", r.HighLinkage),
			fmt.Sprintf("%t", r.Systemic),
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// OutputDiagnosticsToCSV writes the diagnostics of a report.
func OutputDiagnosticsToCSV(path string, report *iomodel.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Kind", "Country", "Sector", "Region", "Detail"}); err != nil {
		return err
	}
	if report == nil {
		return nil
	}
	for _, d := range report.Diagnostics {
		rec := []string{string(d.Kind), d.Key.Country, d.Key.Sector, d.Region, d.Detail}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
