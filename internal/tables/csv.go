// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

// Package tables reads and writes the keyed tables of the pipeline: wide CSV
// files with a two-row header and a two-column index, raw FIGARO files with
// "Country_Sector" labels, single-column vectors, impact records and the
// XLSX impact workbook.
package tables

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"IO_Shock_Propagation_Project/internal/iomodel"
)

// Header labels written in front of the two key levels.
const (
	CountryLabel = "country"
	SectorLabel  = "sector"
)

// LoadMatrixCSV loads a keyed matrix written with a two-row header (column
// countries, then column sectors) and a two-column index (row country, row
// sector). A third header row holding only the index names is skipped.
func LoadMatrixCSV(path string) (*iomodel.KeyedMatrix, error) {
	// 1. Open file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := DecodeMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// DecodeMatrix reads the two-row header format from r.
func DecodeMatrix(r io.Reader) (*iomodel.KeyedMatrix, error) {
	// 1. Make CSV reader
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	// 2. Read the two header rows
	countries, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table: %w", iomodel.ErrMissingData)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	sectors, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read second header row: %w", err)
	}
	if len(countries) < 3 || len(countries) != len(sectors) {
		return nil, fmt.Errorf("header rows have %d and %d fields; want equal and at least 3",
			len(countries), len(sectors))
	}
	width := len(countries)
	cols := make([]iomodel.Key, width-2)
	for j := 2; j < width; j++ {
		cols[j-2] = iomodel.Key{Country: strings.TrimSpace(countries[j]), Sector: strings.TrimSpace(sectors[j])}
	}

	var (
		rows []iomodel.Key // row keys in file order
		data []float64     // flat data for the matrix
		line = 2           // 1-based line of the last record read
	)

	// 3. Read each data row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		if len(record) == 1 && record[0] == "" {
			continue
		}
		if len(record) != width {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", line, width, len(record))
		}
		// Index names row written by pandas: only the first two cells are set
		if len(rows) == 0 && isIndexNamesRow(record) {
			continue
		}

		rows = append(rows, iomodel.Key{Country: strings.TrimSpace(record[0]), Sector: strings.TrimSpace(record[1])})
		for j := 2; j < width; j++ {
			v, err := parseCell(record[j])
			if err != nil {
				return nil, fmt.Errorf("parse float at row %d col %d (%q): %w", line, j+1, record[j], err)
			}
			data = append(data, v)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data rows: %w", iomodel.ErrMissingData)
	}

	// 4. Build the keyed matrix, which validates the keys
	return iomodel.NewKeyedMatrix(rows, cols, data)
}

func isIndexNamesRow(record []string) bool {
	for _, s := range record[2:] {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// parseCell reads one numeric cell. Empty cells are zero flows.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// OutputMatrixToCSV writes m in the two-row header format, including the
// index names row, so LoadMatrixCSV reads it back unchanged.
func OutputMatrixToCSV(path string, m *iomodel.KeyedMatrix) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeMatrix(file, m); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

// EncodeMatrix writes m to w in the two-row header format.
func EncodeMatrix(w io.Writer, m *iomodel.KeyedMatrix) error {
	if m == nil {
		return errors.New("nil matrix")
	}
	writer := csv.NewWriter(w)

	rows, cols := m.Rows(), m.Cols()

	// Write the header rows
	countries := make([]string, 0, len(cols)+2)
	sectors := make([]string, 0, len(cols)+2)
	countries = append(countries, CountryLabel, "")
	sectors = append(sectors, SectorLabel, "")
	for _, c := range cols {
		countries = append(countries, c.Country)
		sectors = append(sectors, c.Sector)
	}
	names := make([]string, len(cols)+2)
	names[0], names[1] = CountryLabel, SectorLabel
	for _, rec := range [][]string{countries, sectors, names} {
		if err := writer.Write(rec); err != nil {
			return err
		}
	}

	// Write data rows
	for i, r := range rows {
		record := make([]string, 0, len(cols)+2)
		record = append(record, r.Country, r.Sector)
		for j := range cols {
			record = append(record, formatCell(m.AtIndex(i, j)))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// LoadRawCSV loads a raw FIGARO table whose first column and header row hold
// "Country_Sector" labels. Labels are split at their first underscore.
func LoadRawCSV(path string) (*iomodel.KeyedMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := DecodeRaw(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// DecodeRaw reads the flat-label format from r.
func DecodeRaw(r io.Reader) (*iomodel.KeyedMatrix, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table: %w", iomodel.ErrMissingData)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("header has %d fields; want a label column and at least one value column", len(header))
	}
	cols := make([]iomodel.Key, len(header)-1)
	for j, label := range header[1:] {
		k, err := iomodel.ParseKey(label)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", j+2, err)
		}
		cols[j] = k
	}

	var rows []iomodel.Key
	var data []float64
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		k, err := iomodel.ParseKey(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rows = append(rows, k)
		for j, s := range record[1:] {
			v, err := parseCell(s)
			if err != nil {
				return nil, fmt.Errorf("parse float at row %d col %d (%q): %w", line, j+2, s, err)
			}
			data = append(data, v)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data rows: %w", iomodel.ErrMissingData)
	}
	return iomodel.NewKeyedMatrix(rows, cols, data)
}
