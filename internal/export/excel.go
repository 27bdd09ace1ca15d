// internal/export/excel.go
package export

import (
	"bytes"
	"fmt"

	"github.com/tealeg/xlsx/v3"
)

const summarySheet = "Summary"

// ExcelRenderer writes Tables as a workbook with one sheet per section
type ExcelRenderer struct {
	ColumnWidth float64
}

// Render builds the workbook in memory
func (r ExcelRenderer) Render(t Tables) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(summarySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}
	addRow(sheet, []string{t.Title, ""}, true)
	addRow(sheet, []string{"Period", t.Period.Start + " - " + t.Period.End}, false)
	addRow(sheet, []string{"Metric", "Value"}, true)
	for _, kv := range t.Summary {
		addRow(sheet, []string{kv.Key, kv.Value}, false)
	}
	r.setWidths(sheet, 2)

	for _, section := range t.Sections() {
		sheet, err := file.AddSheet(section.Title)
		if err != nil {
			return nil, fmt.Errorf("failed to add worksheet %q: %w", section.Title, err)
		}
		addRow(sheet, section.Header, true)
		for _, row := range section.Rows {
			addRow(sheet, row, false)
		}
		r.setWidths(sheet, len(section.Header))
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}

func (r ExcelRenderer) setWidths(sheet *xlsx.Sheet, columns int) {
	width := r.ColumnWidth
	if width <= 0 {
		width = 18
	}
	for i := 1; i <= columns; i++ {
		sheet.SetColWidth(i, i, width)
	}
}

func addRow(sheet *xlsx.Sheet, values []string, header bool) {
	row := sheet.AddRow()
	for _, value := range values {
		cell := row.AddCell()
		cell.Value = value
		if header {
			cell.GetStyle().Font.Bold = true
			cell.GetStyle().Fill.PatternType = "solid"
			cell.GetStyle().Fill.FgColor = "CCCCCC"
		}
	}
}
