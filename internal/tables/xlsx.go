// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package tables

import (
	"fmt"
	"slices"

	"github.com/xuri/excelize/v2"

	"IO_Shock_Propagation_Project/internal/iomodel"
)

// TotalsSheet names the workbook sheet holding the per-region sums.
const TotalsSheet = "Totals"

// OutputImpactWorkbook writes the weighted impacts to an XLSX workbook with
// one sheet per region (sorted) and a Totals sheet summing direct, indirect
// and total impact per region.
func OutputImpactWorkbook(path string, records []iomodel.ImpactRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("impact workbook %s: no records: %w", path, iomodel.ErrMissingData)
	}

	// 1. Group records by region
	byRegion := make(map[string][]iomodel.ImpactRecord)
	for _, r := range records {
		byRegion[r.Region] = append(byRegion[r.Region], r)
	}
	regions := make([]string, 0, len(byRegion))
	for region := range byRegion {
		regions = append(regions, region)
	}
	slices.Sort(regions)

	f := excelize.NewFile()
	defer f.Close()

	// 2. One sheet per region, the default sheet becomes the first one
	for i, region := range regions {
		sheet := sheetName(region)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, "A1", &ImpactHeader); err != nil {
			return err
		}
		for n, r := range byRegion[region] {
			row := []any{r.Country, r.Sector, r.Region, r.Direct, r.Indirect, r.Total}
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", n+2), &row); err != nil {
				return err
			}
		}
	}

	// 3. Totals per region
	if _, err := f.NewSheet(TotalsSheet); err != nil {
		return err
	}
	header := []string{"Region", "Direct Impact", "Indirect Impact", "Total Impact"}
	if err := f.SetSheetRow(TotalsSheet, "A1", &header); err != nil {
		return err
	}
	for n, region := range regions {
		var direct, indirect, total float64
		for _, r := range byRegion[region] {
			direct += r.Direct
			indirect += r.Indirect
			total += r.Total
		}
		row := []any{region, direct, indirect, total}
		if err := f.SetSheetRow(TotalsSheet, fmt.Sprintf("A%d", n+2), &row); err != nil {
			return err
		}
	}

	// 4. Save
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// sheetName keeps a region name within Excel's 31 character sheet limit.
func sheetName(region string) string {
	if len(region) > 31 {
		return region[:31]
	}
	return region
}
