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
	"strings"

	"IO_Shock_Propagation_Project/internal/iomodel"
)

// LoadVectorCSV loads a keyed vector written as country, sector, <name>.
// The vector takes the name of its value column.
func LoadVectorCSV(path string) (*iomodel.KeyedVector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	v, err := DecodeVector(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// DecodeVector reads a three-column vector table from r. A second header
// line holding only index names is skipped.
func DecodeVector(r io.Reader) (*iomodel.KeyedVector, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table: %w", iomodel.ErrMissingData)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != 3 {
		return nil, fmt.Errorf("header has %d fields; want country, sector and one value column", len(header))
	}
	name := strings.TrimSpace(header[2])

	var keys []iomodel.Key
	var values []float64
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
		if len(record) == 1 && record[0] == "" {
			continue
		}
		if len(record) != 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", line, len(record))
		}
		if len(keys) == 0 && strings.TrimSpace(record[2]) == "" {
			continue
		}
		v, err := parseCell(record[2])
		if err != nil {
			return nil, fmt.Errorf("parse float at row %d (%q): %w", line, record[2], err)
		}
		keys = append(keys, iomodel.Key{Country: strings.TrimSpace(record[0]), Sector: strings.TrimSpace(record[1])})
		values = append(values, v)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no data rows: %w", iomodel.ErrMissingData)
	}
	return iomodel.NewKeyedVector(name, keys, values)
}

// OutputVectorToCSV writes v as country, sector, <name>.
func OutputVectorToCSV(path string, v *iomodel.KeyedVector) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	name := v.Name()
	if name == "" {
		name = "value"
	}
	if err := writer.Write([]string{CountryLabel, SectorLabel, name}); err != nil {
		return err
	}
	values := v.Values()
	for i, k := range v.Keys() {
		if err := writer.Write([]string{k.Country, k.Sector, formatCell(values[i])}); err != nil {
			return err
		}
	}
	return nil
}
