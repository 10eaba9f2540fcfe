package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

type mockDaySheetReader struct {
	appointments []models.AppointmentDetail
	from, to     time.Time
}

func (m *mockDaySheetReader) ListDetailedForBusinessBetween(ctx context.Context, businessID string, from, to time.Time) ([]models.AppointmentDetail, error) {
	m.from, m.to = from, to
	return m.appointments, nil
}

func newExportService(reader *mockDaySheetReader) *ExportService {
	businesses := &mockBusinessReader{businesses: map[string]models.Business{
		"biz-1": {ID: "biz-1", Name: "Salon", Timezone: "UTC", Active: true},
	}}
	return NewExportService(reader, businesses, nil, nil, zap.NewNop())
}

func TestDaySheetCSV(t *testing.T) {
	start := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	reader := &mockDaySheetReader{appointments: []models.AppointmentDetail{
		{
			Appointment: models.Appointment{
				ID: "appt-1", BusinessID: "biz-1", ClientName: "Dana",
				StartTime: start, EndTime: start.Add(time.Hour),
				Status: models.AppointmentScheduled,
			},
			EmployeeName: "Alice",
			OfferingName: "Haircut",
		},
	}}
	svc := newExportService(reader)

	result, err := svc.DaySheet(context.Background(), "biz-1", "2026-01-28", ExportFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "schedule-2026-01-28.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	body := string(result.Payload)
	assert.Contains(t, body, "Time,Client,Offering,Employee,Status")
	assert.Contains(t, body, "10:00 - 11:00,Dana,Haircut,Alice,scheduled")

	// The query window covers exactly one local day.
	assert.Equal(t, time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC), reader.from)
	assert.Equal(t, time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC), reader.to)
}

func TestDaySheetPDF(t *testing.T) {
	svc := newExportService(&mockDaySheetReader{})

	result, err := svc.DaySheet(context.Background(), "biz-1", "2026-01-28", ExportFormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Payload), "%PDF"))
}

func TestDaySheetUnknownBusiness(t *testing.T) {
	svc := newExportService(&mockDaySheetReader{})

	_, err := svc.DaySheet(context.Background(), "missing", "2026-01-28", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDaySheetBadFormat(t *testing.T) {
	svc := newExportService(&mockDaySheetReader{})

	_, err := svc.DaySheet(context.Background(), "biz-1", "2026-01-28", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDaySheetBadDate(t *testing.T) {
	svc := newExportService(&mockDaySheetReader{})

	_, err := svc.DaySheet(context.Background(), "biz-1", "01/28/2026", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
