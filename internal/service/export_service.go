package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
	"github.com/turnify/turnify-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type daySheetReader interface {
	ListDetailedForBusinessBetween(ctx context.Context, businessID string, from, to time.Time) ([]models.AppointmentDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered schedule ready to stream to the caller.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a business's appointment day sheet as CSV or PDF.
type ExportService struct {
	appointments daySheetReader
	businesses   businessReader
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(appointments daySheetReader, businesses businessReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{appointments: appointments, businesses: businesses, csv: csv, pdf: pdf, logger: logger}
}

// DaySheet renders every appointment for the business on the given local date.
func (s *ExportService) DaySheet(ctx context.Context, businessID, date string, format ExportFormat) (*ExportResult, error) {
	business, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "business not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load business")
	}

	loc := business.Location()
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}

	appointments, err := s.appointments.ListDetailedForBusinessBetween(ctx, businessID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}

	dataset := export.Dataset{
		Headers: []string{"Time", "Client", "Offering", "Employee", "Status"},
	}
	for _, appt := range appointments {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Time":     fmt.Sprintf("%s - %s", appt.StartTime.In(loc).Format("15:04"), appt.EndTime.In(loc).Format("15:04")),
			"Client":   appt.ClientName,
			"Offering": appt.OfferingName,
			"Employee": appt.EmployeeName,
			"Status":   string(appt.Status),
		})
	}

	title := fmt.Sprintf("%s schedule %s", business.Name, date)
	result := &ExportResult{Filename: fmt.Sprintf("schedule-%s.%s", date, format)}
	switch format {
	case ExportFormatCSV:
		result.ContentType = "text/csv"
		result.Payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		result.ContentType = "application/pdf"
		result.Payload, err = s.pdf.Render(dataset, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("day sheet exported",
		zap.String("business_id", businessID),
		zap.String("date", date),
		zap.String("format", string(format)),
		zap.Int("rows", len(dataset.Rows)))
	return result, nil
}
