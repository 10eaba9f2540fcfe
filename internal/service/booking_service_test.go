package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

type mockAppointmentStore struct {
	appointments map[string]models.Appointment
	statusCalls  []models.AppointmentStatus
}

func (m *mockAppointmentStore) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	var out []models.Appointment
	for _, a := range m.appointments {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockAppointmentStore) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	if a, ok := m.appointments[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAppointmentStore) CreateIfFree(ctx context.Context, appt *models.Appointment) (bool, error) {
	for _, existing := range m.appointments {
		if existing.EmployeeID == appt.EmployeeID &&
			existing.Status == models.AppointmentScheduled &&
			existing.StartTime.Before(appt.EndTime) && appt.StartTime.Before(existing.EndTime) {
			return false, nil
		}
	}
	if m.appointments == nil {
		m.appointments = make(map[string]models.Appointment)
	}
	if appt.ID == "" {
		appt.ID = "appt-new"
	}
	appt.Status = models.AppointmentScheduled
	m.appointments[appt.ID] = *appt
	return true, nil
}

func (m *mockAppointmentStore) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus, reason string) error {
	m.statusCalls = append(m.statusCalls, status)
	if a, ok := m.appointments[id]; ok {
		a.Status = status
		a.CancellationReason = reason
		m.appointments[id] = a
	}
	return nil
}

type mockNotifier struct {
	booked    []models.Appointment
	cancelled []models.Appointment
}

func (m *mockNotifier) NotifyBooked(appt models.Appointment) { m.booked = append(m.booked, appt) }
func (m *mockNotifier) NotifyCancelled(appt models.Appointment, reason string) {
	m.cancelled = append(m.cancelled, appt)
}

type mockInvalidator struct {
	offerings []string
}

func (m *mockInvalidator) InvalidateAvailability(ctx context.Context, offeringID string) {
	m.offerings = append(m.offerings, offeringID)
}

func newBookingService(store *mockAppointmentStore, notifier *mockNotifier, invalidator *mockInvalidator) *BookingService {
	offerings, businesses, employees, hours, _ := availabilityFixture()
	svc := NewBookingService(store, offerings, businesses, employees, hours, notifier, invalidator, 30*time.Minute, nil, nil)
	return svc.WithClock(func() time.Time {
		return time.Date(2026, 1, 27, 12, 0, 0, 0, time.UTC)
	})
}

func validBooking() BookAppointmentRequest {
	return BookAppointmentRequest{
		OfferingID:  "off-1",
		EmployeeID:  "emp-1",
		Date:        testDate,
		Time:        "10:00",
		ClientName:  "Dana",
		ClientEmail: "dana@example.com",
	}
}

func TestBookCreatesScheduledAppointment(t *testing.T) {
	store := &mockAppointmentStore{}
	notifier := &mockNotifier{}
	invalidator := &mockInvalidator{}
	svc := newBookingService(store, notifier, invalidator)

	appt, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentScheduled, appt.Status)
	assert.Equal(t, time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC), appt.StartTime)
	assert.Equal(t, time.Date(2026, 1, 28, 11, 0, 0, 0, time.UTC), appt.EndTime)
	require.Len(t, notifier.booked, 1)
	assert.Equal(t, []string{"off-1"}, invalidator.offerings)
}

func TestBookConflictReturnsSlotTaken(t *testing.T) {
	store := &mockAppointmentStore{appointments: map[string]models.Appointment{
		"appt-1": {
			ID:         "appt-1",
			EmployeeID: "emp-1",
			StartTime:  time.Date(2026, 1, 28, 10, 30, 0, 0, time.UTC),
			EndTime:    time.Date(2026, 1, 28, 11, 30, 0, 0, time.UTC),
			Status:     models.AppointmentScheduled,
		},
	}}
	notifier := &mockNotifier{}
	svc := newBookingService(store, notifier, &mockInvalidator{})

	_, err := svc.Book(context.Background(), validBooking())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotTaken.Code, appErrors.FromError(err).Code)
	assert.Empty(t, notifier.booked)
}

func TestBookCancelledAppointmentDoesNotBlock(t *testing.T) {
	store := &mockAppointmentStore{appointments: map[string]models.Appointment{
		"appt-1": {
			ID:         "appt-1",
			EmployeeID: "emp-1",
			StartTime:  time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC),
			EndTime:    time.Date(2026, 1, 28, 11, 0, 0, 0, time.UTC),
			Status:     models.AppointmentCancelled,
		},
	}}
	svc := newBookingService(store, &mockNotifier{}, &mockInvalidator{})

	_, err := svc.Book(context.Background(), validBooking())
	require.NoError(t, err)
}

func TestBookOutsideWorkingHours(t *testing.T) {
	svc := newBookingService(&mockAppointmentStore{}, &mockNotifier{}, &mockInvalidator{})

	req := validBooking()
	req.Time = "12:30" // 60 minute service would run past 13:00 close
	_, err := svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookOffStepBoundary(t *testing.T) {
	svc := newBookingService(&mockAppointmentStore{}, &mockNotifier{}, &mockInvalidator{})

	req := validBooking()
	req.Time = "10:15"
	_, err := svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookInThePast(t *testing.T) {
	store := &mockAppointmentStore{}
	offerings, businesses, employees, hours, _ := availabilityFixture()
	svc := NewBookingService(store, offerings, businesses, employees, hours, nil, nil, 30*time.Minute, nil, nil).
		WithClock(func() time.Time {
			return time.Date(2026, 1, 29, 9, 0, 0, 0, time.UTC)
		})

	_, err := svc.Book(context.Background(), validBooking())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBookUnassignedEmployee(t *testing.T) {
	store := &mockAppointmentStore{}
	offerings, businesses, employees, hours, _ := availabilityFixture()
	employees.employees["emp-3"] = models.Employee{ID: "emp-3", BusinessID: "biz-1", FullName: "Cara", Active: true}
	svc := NewBookingService(store, offerings, businesses, employees, hours, nil, nil, 30*time.Minute, nil, nil).
		WithClock(func() time.Time {
			return time.Date(2026, 1, 27, 12, 0, 0, 0, time.UTC)
		})

	req := validBooking()
	req.EmployeeID = "emp-3"
	_, err := svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusCancelsScheduled(t *testing.T) {
	store := &mockAppointmentStore{appointments: map[string]models.Appointment{
		"appt-1": {
			ID:         "appt-1",
			OfferingID: "off-1",
			EmployeeID: "emp-1",
			StartTime:  time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC),
			EndTime:    time.Date(2026, 1, 28, 11, 0, 0, 0, time.UTC),
			Status:     models.AppointmentScheduled,
		},
	}}
	notifier := &mockNotifier{}
	invalidator := &mockInvalidator{}
	svc := newBookingService(store, notifier, invalidator)

	appt, err := svc.UpdateStatus(context.Background(), "appt-1", UpdateAppointmentStatusRequest{
		Status:             models.AppointmentCancelled,
		CancellationReason: "client request",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, appt.Status)
	assert.Equal(t, "client request", appt.CancellationReason)
	require.Len(t, notifier.cancelled, 1)
	assert.Equal(t, []string{"off-1"}, invalidator.offerings)
}

func TestUpdateStatusRejectsTerminalTransition(t *testing.T) {
	store := &mockAppointmentStore{appointments: map[string]models.Appointment{
		"appt-1": {ID: "appt-1", Status: models.AppointmentCompleted},
	}}
	svc := newBookingService(store, &mockNotifier{}, &mockInvalidator{})

	_, err := svc.UpdateStatus(context.Background(), "appt-1", UpdateAppointmentStatusRequest{
		Status:             models.AppointmentCancelled,
		CancellationReason: "client request",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.statusCalls)
}

func TestUpdateStatusCancelWithoutReason(t *testing.T) {
	store := &mockAppointmentStore{appointments: map[string]models.Appointment{
		"appt-1": {ID: "appt-1", Status: models.AppointmentScheduled},
	}}
	svc := newBookingService(store, &mockNotifier{}, &mockInvalidator{})

	_, err := svc.UpdateStatus(context.Background(), "appt-1", UpdateAppointmentStatusRequest{
		Status: models.AppointmentCancelled,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.statusCalls)
}

func TestUpdateStatusUnknownAppointment(t *testing.T) {
	svc := newBookingService(&mockAppointmentStore{}, &mockNotifier{}, &mockInvalidator{})

	_, err := svc.UpdateStatus(context.Background(), "missing", UpdateAppointmentStatusRequest{
		Status: models.AppointmentCompleted,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
