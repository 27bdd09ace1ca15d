// internal/export/render.go
package export

import (
	"encoding/json"
	"fmt"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// Content types of the rendered formats
const (
	ContentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF   = "application/pdf"
	ContentTypeJSON  = "application/json"
)

// Document is a rendered report ready to be served or stored
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Render turns tables into the requested format
func Render(format domain.ExportFormat, t Tables) (*Document, error) {
	var (
		data        []byte
		contentType string
		err         error
	)

	switch format {
	case domain.FormatExcel:
		data, err = ExcelRenderer{}.Render(t)
		contentType = ContentTypeExcel
	case domain.FormatPDF:
		data, err = PDFRenderer{Author: "kasir"}.Render(t)
		contentType = ContentTypePDF
	case domain.FormatJSON:
		data, err = json.Marshal(t)
		contentType = ContentTypeJSON
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidRecord, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}

	return &Document{
		Data:        data,
		ContentType: contentType,
		Filename:    Filename(t.Kind, t.Period, format),
	}, nil
}

// Filename names an export by kind and inclusive period
func Filename(kind domain.ReportKind, period domain.PeriodView, format domain.ExportFormat) string {
	return fmt.Sprintf("%s_report_%s_%s.%s", kind, period.Start, period.End, format)
}
