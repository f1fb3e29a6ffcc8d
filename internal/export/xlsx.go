// Package export writes the displayed prediction history as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/crop-yield-dashboard/internal/crop"
)

// SheetName is the worksheet holding the history rows.
const SheetName = "History"

var headers = []string{"Date", "Crop Type", "Region", "Yield (tons/ha)"}

// HistoryXLSX writes rows to w as an .xlsx workbook.
func HistoryXLSX(w io.Writer, rows []crop.HistoryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
		col, _, err := excelize.SplitCellName(cell)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, 18); err != nil {
			return fmt.Errorf("set width of column %s: %w", col, err)
		}
	}

	for i, r := range rows {
		row := i + 2
		values := []any{r.Date, r.Crop, r.Region, r.Yield}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
