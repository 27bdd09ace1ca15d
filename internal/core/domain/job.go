// internal/core/domain/job.go
package domain

import "time"

// JobStatus is the lifecycle state of a background job
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// ExportFormat is a rendered report format
type ExportFormat string

const (
	FormatExcel ExportFormat = "xlsx"
	FormatPDF   ExportFormat = "pdf"
	FormatJSON  ExportFormat = "json"
)

// IsValid reports whether the format is known
func (f ExportFormat) IsValid() bool {
	return f == FormatExcel || f == FormatPDF || f == FormatJSON
}

// Job types
const (
	JobTypeExport = "export"
	JobTypeImport = "import"
)

// Job tracks an asynchronous export or import
type Job struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Status     JobStatus    `json:"status"`
	Kind       ReportKind   `json:"kind,omitempty"`
	Format     ExportFormat `json:"format,omitempty"`
	StartDate  string       `json:"startDate,omitempty"`
	EndDate    string       `json:"endDate,omitempty"`
	ObjectKey  string       `json:"objectKey,omitempty"`
	Processed  int          `json:"processed,omitempty"`
	Warnings   []string     `json:"warnings,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
}
