package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes r as a workbook with a summary and a trajectory sheet.
func WriteXLSX(w io.Writer, r Report) error {
	f, err := newWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes r to path.
func SaveXLSX(path string, r Report) error {
	f, err := newWorkbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func newWorkbook(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(TrajectorySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	if err := writeRows(f, SummarySheet, r.SummaryRows(), bold); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRows(f, TrajectorySheet, r.TrajectoryRows(), bold); err != nil {
		f.Close()
		return nil, err
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 28)
	_ = f.SetColWidth(SummarySheet, "B", "B", 18)
	_ = f.SetColWidth(TrajectorySheet, "A", "D", 14)
	f.SetActiveSheet(0)
	return f, nil
}

// writeRows writes rows from A1 down; rows whose second cell is "Amount" or
// that open the sheet are styled as headers.
func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
		if i == 0 || isHeader(row) {
			last, err := excelize.CoordinatesToCellName(len(row), i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, last, headerStyle); err != nil {
				return fmt.Errorf("style %s row %d: %w", sheet, i+1, err)
			}
		}
	}
	return nil
}

func isHeader(row []any) bool {
	if len(row) < 2 {
		return false
	}
	s, ok := row[1].(string)
	return ok && (s == "Amount" || s == "Income")
}
