package handler

import (
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

type offeringStoreStub struct {
	offerings map[string]models.Offering
	assigned  map[string][]models.Employee
}

func (s *offeringStoreStub) FindByID(ctx context.Context, id string) (*models.Offering, error) {
	if o, ok := s.offerings[id]; ok {
		return &o, nil
	}
	return nil, sql.ErrNoRows
}

func (s *offeringStoreStub) ListAssignedEmployees(ctx context.Context, offeringID string) ([]models.Employee, error) {
	return s.assigned[offeringID], nil
}

func (s *offeringStoreStub) IsEmployeeAssigned(ctx context.Context, offeringID, employeeID string) (bool, error) {
	for _, e := range s.assigned[offeringID] {
		if e.ID == employeeID {
			return true, nil
		}
	}
	return false, nil
}

type businessStoreStub struct {
	businesses map[string]models.Business
}

func (s *businessStoreStub) FindByID(ctx context.Context, id string) (*models.Business, error) {
	if b, ok := s.businesses[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

type employeeStoreStub struct {
	employees map[string]models.Employee
}

func (s *employeeStoreStub) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if e, ok := s.employees[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

type hoursStoreStub struct {
	windows map[string][]models.WorkingWindow
}

func (s *hoursStoreStub) ListByOwner(ctx context.Context, ownerType models.ScheduleOwner, ownerID string) ([]models.WorkingWindow, error) {
	return s.windows[string(ownerType)+":"+ownerID], nil
}

type scheduledStoreStub struct {
	scheduled []models.Appointment
}

func (s *scheduledStoreStub) ListScheduledForEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range s.scheduled {
		if a.EmployeeID == employeeID && a.StartTime.Before(to) && a.EndTime.After(from) {
			out = append(out, a)
		}
	}
	return out, nil
}

// 2026-01-28 is a Wednesday.
func newAvailabilityHandler() *AvailabilityHandler {
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
		"BUSINESS:biz-1": {{OwnerType: models.ScheduleOwnerBusiness, OwnerID: "biz-1", DayOfWeek: 3, StartTime: "09:00", EndTime: "12:00"}},
		"EMPLOYEE:emp-1": {{OwnerType: models.ScheduleOwnerEmployee, OwnerID: "emp-1", DayOfWeek: 3, StartTime: "09:00", EndTime: "12:00"}},
	}}
	svc := service.NewAvailabilityService(offerings, businesses, employees, hours, &scheduledStoreStub{}, nil, 30*time.Minute, 0, nil, nil).
		WithClock(func() time.Time {
			return time.Date(2026, 1, 27, 12, 0, 0, 0, time.UTC)
		})
	return NewAvailabilityHandler(svc)
}

func TestAvailabilityHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAvailabilityHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/availability?offering_id=off-1&date=2026-01-28&employee_id=emp-1", nil)
	c.Request = req

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.DayAvailability `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "off-1", envelope.Data.OfferingID)
	require.Len(t, envelope.Data.Slots, 5)
	assert.Equal(t, "09:00", envelope.Data.Slots[0].Time)
	assert.Equal(t, "11:00", envelope.Data.Slots[4].Time)
}

func TestAvailabilityHandlerMissingParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAvailabilityHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/availability", nil)
	c.Request = req

	handler.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandlerUnknownOffering(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAvailabilityHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/availability?offering_id=missing&date=2026-01-28", nil)
	c.Request = req

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
