package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnify/turnify-api/internal/models"
	"github.com/turnify/turnify-api/internal/service"
)

type appointmentStoreStub struct {
	appointments map[string]models.Appointment
}

func (s *appointmentStoreStub) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	var out []models.Appointment
	for _, a := range s.appointments {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (s *appointmentStoreStub) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	if a, ok := s.appointments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (s *appointmentStoreStub) CreateIfFree(ctx context.Context, appt *models.Appointment) (bool, error) {
	for _, existing := range s.appointments {
		if existing.EmployeeID == appt.EmployeeID &&
			existing.Status == models.AppointmentScheduled &&
			existing.StartTime.Before(appt.EndTime) && appt.StartTime.Before(existing.EndTime) {
			return false, nil
		}
	}
	if s.appointments == nil {
		s.appointments = make(map[string]models.Appointment)
	}
	appt.ID = "appt-new"
	s.appointments[appt.ID] = *appt
	return true, nil
}

func (s *appointmentStoreStub) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus, reason string) error {
	if a, ok := s.appointments[id]; ok {
		a.Status = status
		a.CancellationReason = reason
		s.appointments[id] = a
	}
	return nil
}

func newAppointmentHandler(store *appointmentStoreStub) *AppointmentHandler {
	offerings := &offeringStoreStub{
		offerings: map[string]models.Offering{
			"off-1": {ID: "off-1", BusinessID: "biz-1", DurationMinutes: 60, Active: true},
		},
		assigned: map[string][]models.Employee{
			"off-1": {{ID: "emp-1", BusinessID: "biz-1", FullName: "Alice", Active: true}},
		},
	}
	businesses := &businessStoreStub{businesses: map[string]models.Business{
		"biz-1": {ID: "biz-1", Timezone: "UTC", Active: true},
	}}
	employees := &employeeStoreStub{employees: map[string]models.Employee{
		"emp-1": {ID: "emp-1", BusinessID: "biz-1", FullName: "Alice", Active: true},
	}}
	hours := &hoursStoreStub{windows: map[string][]models.WorkingWindow{
		"BUSINESS:biz-1": {{OwnerType: models.ScheduleOwnerBusiness, OwnerID: "biz-1", DayOfWeek: 3, StartTime: "09:00", EndTime: "13:00"}},
		"EMPLOYEE:emp-1": {{OwnerType: models.ScheduleOwnerEmployee, OwnerID: "emp-1", DayOfWeek: 3, StartTime: "09:00", EndTime: "13:00"}},
	}}
	svc := service.NewBookingService(store, offerings, businesses, employees, hours, nil, nil, 30*time.Minute, nil, nil).
		WithClock(func() time.Time {
			return time.Date(2026, 1, 27, 12, 0, 0, 0, time.UTC)
		})
	return NewAppointmentHandler(svc)
}

func postJSON(t *testing.T, payload interface{}, target string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return w, c
}

func TestAppointmentHandlerBookCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAppointmentHandler(&appointmentStoreStub{})
	w, c := postJSON(t, service.BookAppointmentRequest{
		OfferingID:  "off-1",
		EmployeeID:  "emp-1",
		Date:        "2026-01-28",
		Time:        "10:00",
		ClientName:  "Dana",
		ClientEmail: "dana@example.com",
	}, "/appointments")

	handler.Book(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.Appointment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.AppointmentScheduled, envelope.Data.Status)
}

func TestAppointmentHandlerBookConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &appointmentStoreStub{appointments: map[string]models.Appointment{
		"appt-1": {
			ID:         "appt-1",
			EmployeeID: "emp-1",
			StartTime:  time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC),
			EndTime:    time.Date(2026, 1, 28, 11, 0, 0, 0, time.UTC),
			Status:     models.AppointmentScheduled,
		},
	}}
	handler := newAppointmentHandler(store)
	w, c := postJSON(t, service.BookAppointmentRequest{
		OfferingID:  "off-1",
		EmployeeID:  "emp-1",
		Date:        "2026-01-28",
		Time:        "10:00",
		ClientName:  "Dana",
		ClientEmail: "dana@example.com",
	}, "/appointments")

	handler.Book(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAppointmentHandlerBookInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAppointmentHandler(&appointmentStoreStub{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/appointments", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Book(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppointmentHandlerUpdateStatusConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &appointmentStoreStub{appointments: map[string]models.Appointment{
		"appt-1": {ID: "appt-1", Status: models.AppointmentCompleted},
	}}
	handler := newAppointmentHandler(store)
	w, c := postJSON(t, service.UpdateAppointmentStatusRequest{Status: models.AppointmentCancelled, CancellationReason: "client request"}, "/appointments/appt-1/status")
	c.Params = gin.Params{{Key: "id", Value: "appt-1"}}

	handler.UpdateStatus(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAppointmentHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAppointmentHandler(&appointmentStoreStub{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/appointments/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
