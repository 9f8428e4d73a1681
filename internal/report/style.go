package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Per-sheet header fill colors.
var headerFills = map[string]string{
	SheetOpportunities: "366092",
	SheetInteractions:  "70AD47",
	SheetEmails:        "A5A5A5",
}

const (
	bandFill      = "F2F2F2"
	maxColWidth   = 50
	colWidthSlack = 2
)

// style applies the presentation pass to one sheet: header styling, banded
// even rows, auto-fit column widths, a frozen header row, and a filter over
// the used range. Purely cosmetic; data correctness never depends on it.
func (w *Workbook) style(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}

	cols := len(rows[0])
	lastRow := len(rows)

	lastHeaderCell, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFills[sheet]}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeaderCell, headerStyle); err != nil {
		return err
	}

	bandStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bandFill}},
	})
	if err != nil {
		return err
	}
	for rowNum := 2; rowNum <= lastRow; rowNum++ {
		if rowNum%2 != 0 {
			continue
		}
		first, _ := excelize.CoordinatesToCellName(1, rowNum)
		last, _ := excelize.CoordinatesToCellName(cols, rowNum)
		if err := f.SetCellStyle(sheet, first, last, bandStyle); err != nil {
			return err
		}
	}

	for col := 1; col <= cols; col++ {
		maxLen := 0
		for _, row := range rows {
			if l := len(cellAt(row, col-1)); l > maxLen {
				maxLen = l
			}
		}
		width := maxLen + colWidthSlack
		if width > maxColWidth {
			width = maxColWidth
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(width)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	lastCell, err := excelize.CoordinatesToCellName(cols, lastRow)
	if err != nil {
		return err
	}
	return f.AutoFilter(sheet, "A1:"+lastCell, nil)
}
