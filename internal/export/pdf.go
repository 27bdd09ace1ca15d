// internal/export/pdf.go
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDFRenderer lays Tables out as a landscape A4 document
type PDFRenderer struct {
	Author string
}

// Render builds the document in memory
func (r PDFRenderer) Render(t Tables) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(t.Title, true)
	pdf.SetAuthor(r.Author, true)
	pdf.SetCreationDate(time.Now())
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Period: "+t.Period.Start+" - "+t.Period.End), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	summary := Section{Title: summarySheet, Header: []string{"Metric", "Value"}}
	for _, kv := range t.Summary {
		summary.Rows = append(summary.Rows, []string{kv.Key, kv.Value})
	}
	writeSection(pdf, tr, summary, 80)

	for _, section := range t.Sections() {
		writeSection(pdf, tr, section, 0)
	}

	var buffer bytes.Buffer
	if err := pdf.Output(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	return buffer.Bytes(), nil
}

// writeSection prints a titled table. A zero colWidth spreads the columns
// over the printable width.
func writeSection(pdf *fpdf.Fpdf, tr func(string) string, s Section, colWidth float64) {
	if len(s.Header) == 0 {
		return
	}
	if colWidth <= 0 {
		pageWidth, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		colWidth = (pageWidth - left - right) / float64(len(s.Header))
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(s.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(204, 204, 204)
	for _, h := range s.Header {
		pdf.CellFormat(colWidth, 7, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(s.Rows) == 0 {
		pdf.CellFormat(colWidth*float64(len(s.Header)), 6, "No data", "1", 1, "C", false, 0, "")
	}
	for _, row := range s.Rows {
		for i := range s.Header {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(colWidth, 6, tr(value), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}
