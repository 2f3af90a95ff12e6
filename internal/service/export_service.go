package service

import (
	"context"
	"strconv"

	"github.com/noah-isme/attendance-api/internal/models"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
	"github.com/noah-isme/attendance-api/pkg/export"
)

// Export formats accepted by the export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

const (
	exportTimestampLayout = "2006-01-02 15:04:05"
	exportPDFTitle        = "Attendance Report"
)

var exportHeaders = []string{"ID", "Roll No", "Student Name", "Class", "Date", "Status", "Note", "Marked At"}

type attendanceExportRepository interface {
	ListForExport(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceExportRow, error)
}

type csvRenderer interface {
	Render(t export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(t export.Table, title string) ([]byte, error)
}

// ExportResult is a rendered export ready to be sent as an attachment.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportService renders filtered attendance as downloadable files.
type ExportService struct {
	repo    attendanceExportRepository
	csv     csvRenderer
	pdf     pdfRenderer
	metrics *MetricsService
}

// NewExportService constructs an ExportService. Nil renderers fall back to the
// package defaults.
func NewExportService(repo attendanceExportRepository, metrics *MetricsService, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{repo: repo, csv: csv, pdf: pdf, metrics: metrics}
}

// Export renders the records matching filter in the given format. The same
// rows always produce the same bytes for CSV.
func (s *ExportService) Export(ctx context.Context, format string, filter models.AttendanceFilter) (*ExportResult, error) {
	switch format {
	case "", ExportFormatCSV:
		return s.ExportCSV(ctx, filter)
	case ExportFormatPDF:
		return s.ExportPDF(ctx, filter)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// ExportCSV renders matching records as CSV.
func (s *ExportService) ExportCSV(ctx context.Context, filter models.AttendanceFilter) (*ExportResult, error) {
	table, err := s.buildTable(ctx, filter)
	if err != nil {
		return nil, err
	}
	body, err := s.csv.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	s.metrics.ObserveExport(ExportFormatCSV, len(table.Rows))
	return &ExportResult{
		Filename:    "attendance_export.csv",
		ContentType: "text/csv; charset=utf-8",
		Body:        body,
		Rows:        len(table.Rows),
	}, nil
}

// ExportPDF renders matching records as a PDF table.
func (s *ExportService) ExportPDF(ctx context.Context, filter models.AttendanceFilter) (*ExportResult, error) {
	table, err := s.buildTable(ctx, filter)
	if err != nil {
		return nil, err
	}
	body, err := s.pdf.Render(table, exportPDFTitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	s.metrics.ObserveExport(ExportFormatPDF, len(table.Rows))
	return &ExportResult{
		Filename:    "attendance_export.pdf",
		ContentType: "application/pdf",
		Body:        body,
		Rows:        len(table.Rows),
	}, nil
}

func (s *ExportService) buildTable(ctx context.Context, filter models.AttendanceFilter) (export.Table, error) {
	if err := ValidateAttendanceFilter(filter); err != nil {
		return export.Table{}, err
	}
	rows, err := s.repo.ListForExport(ctx, filter)
	if err != nil {
		return export.Table{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	table := export.Table{Headers: exportHeaders, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(row.ID, 10),
			row.RollNo,
			row.StudentName,
			stringOrEmpty(row.ClassName),
			row.AttendanceDate.String(),
			string(row.Status),
			stringOrEmpty(row.Note),
			row.Timestamp.UTC().Format(exportTimestampLayout),
		})
	}
	return table, nil
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
