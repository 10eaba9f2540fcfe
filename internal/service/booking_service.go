package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/turnify/turnify-api/internal/availability"
	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

type appointmentStore interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	CreateIfFree(ctx context.Context, appt *models.Appointment) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus, reason string) error
}

type bookingNotifier interface {
	NotifyBooked(appt models.Appointment)
	NotifyCancelled(appt models.Appointment, reason string)
}

type availabilityInvalidator interface {
	InvalidateAvailability(ctx context.Context, offeringID string)
}

// BookAppointmentRequest describes a booking attempt for one slot.
type BookAppointmentRequest struct {
	OfferingID  string `json:"offering_id" validate:"required"`
	EmployeeID  string `json:"employee_id" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	ClientName  string `json:"client_name" validate:"required"`
	ClientEmail string `json:"client_email" validate:"required,email"`
	ClientPhone string `json:"client_phone"`
}

// UpdateAppointmentStatusRequest describes a lifecycle transition.
type UpdateAppointmentStatusRequest struct {
	Status             models.AppointmentStatus `json:"status" validate:"required,oneof=completed cancelled no_show"`
	CancellationReason string                   `json:"cancellation_reason" validate:"required_if=Status cancelled"`
}

// BookingService creates and transitions appointments. Conflict-freedom is
// enforced inside the repository transaction, so two clients racing for the
// same slot cannot both succeed.
type BookingService struct {
	appointments appointmentStore
	offerings    offeringProvider
	businesses   businessReader
	employees    employeeReader
	workingHours workingHoursReader
	notifier     bookingNotifier
	invalidator  availabilityInvalidator
	step         time.Duration
	now          func() time.Time
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewBookingService constructs BookingService.
func NewBookingService(
	appointments appointmentStore,
	offerings offeringProvider,
	businesses businessReader,
	employees employeeReader,
	workingHours workingHoursReader,
	notifier bookingNotifier,
	invalidator availabilityInvalidator,
	step time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *BookingService {
	if step <= 0 {
		step = 30 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		appointments: appointments,
		offerings:    offerings,
		businesses:   businesses,
		employees:    employees,
		workingHours: workingHours,
		notifier:     notifier,
		invalidator:  invalidator,
		step:         step,
		now:          time.Now,
		validator:    validate,
		logger:       logger,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns appointments with pagination metadata.
func (s *BookingService) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error) {
	appointments, total, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return appointments, pagination, nil
}

// GetByID returns one appointment.
func (s *BookingService) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appt, nil
}

// Book creates an appointment for the requested slot. The slot must fall
// inside the employee's resolved working hours on a step boundary; the
// final conflict check happens atomically with the insert.
func (s *BookingService) Book(ctx context.Context, req BookAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking request")
	}

	offering, err := s.offerings.FindByID(ctx, req.OfferingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if !offering.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offering is not bookable")
	}

	business, err := s.businesses.FindByID(ctx, offering.BusinessID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "business not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load business")
	}

	employee, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if !employee.Active || employee.BusinessID != offering.BusinessID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "employee is not available for this offering")
	}
	assigned, err := s.offerings.IsEmployeeAssigned(ctx, offering.ID, employee.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check offering assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrValidation, "employee is not available for this offering")
	}

	start, err := parseSlotStart(req.Date, req.Time, business.Location())
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD and time must be HH:MM")
	}
	if start.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot book a slot in the past")
	}

	duration := time.Duration(offering.DurationMinutes) * time.Minute
	ok, err := s.slotOffered(ctx, employee.ID, business.ID, start, duration)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requested time is outside working hours")
	}

	appt := &models.Appointment{
		BusinessID:  business.ID,
		EmployeeID:  employee.ID,
		OfferingID:  offering.ID,
		ClientName:  req.ClientName,
		ClientEmail: req.ClientEmail,
		ClientPhone: req.ClientPhone,
		StartTime:   start,
		EndTime:     start.Add(duration),
		Status:      models.AppointmentScheduled,
	}
	created, err := s.appointments.CreateIfFree(ctx, appt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create appointment")
	}
	if !created {
		return nil, appErrors.Clone(appErrors.ErrSlotTaken, "")
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateAvailability(ctx, offering.ID)
	}
	if s.notifier != nil {
		s.notifier.NotifyBooked(*appt)
	}
	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.String("employee_id", appt.EmployeeID),
		zap.Time("start_time", appt.StartTime))
	return appt, nil
}

// UpdateStatus transitions an appointment's lifecycle state. Only scheduled
// appointments may move, and only to a terminal state.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, req UpdateAppointmentStatusRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status request")
	}

	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "")
	}

	reason := ""
	if req.Status == models.AppointmentCancelled {
		reason = req.CancellationReason
	}
	if err := s.appointments.UpdateStatus(ctx, id, req.Status, reason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment status")
	}
	appt.Status = req.Status
	appt.CancellationReason = reason

	// A cancellation reopens the slot, so cached availability is stale.
	if req.Status == models.AppointmentCancelled && s.invalidator != nil {
		s.invalidator.InvalidateAvailability(ctx, appt.OfferingID)
	}
	if req.Status == models.AppointmentCancelled && s.notifier != nil {
		s.notifier.NotifyCancelled(*appt, reason)
	}
	return appt, nil
}

// slotOffered reports whether the start time lies on a step boundary of
// one of the employee's resolved working windows and the full duration fits.
func (s *BookingService) slotOffered(ctx context.Context, employeeID, businessID string, start time.Time, duration time.Duration) (bool, error) {
	businessHours, err := s.workingHours.ListByOwner(ctx, models.ScheduleOwnerBusiness, businessID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load business hours")
	}
	employeeHours, err := s.workingHours.ListByOwner(ctx, models.ScheduleOwnerEmployee, employeeID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee hours")
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	windows := availability.ResolveWindows(businessHours, employeeHours, day)
	for _, window := range windows {
		for _, candidate := range availability.GenerateCandidates(window, duration, s.step) {
			if candidate.Equal(start) {
				return true, nil
			}
		}
	}
	return false, nil
}

func parseSlotStart(date, clock string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
}
