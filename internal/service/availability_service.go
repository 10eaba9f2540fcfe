package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/turnify/turnify-api/internal/availability"
	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

// AnyEmployee selects availability across every employee assigned to the offering.
const AnyEmployee = "any"

const availabilityCacheVersion = "v1"

type offeringProvider interface {
	FindByID(ctx context.Context, id string) (*models.Offering, error)
	ListAssignedEmployees(ctx context.Context, offeringID string) ([]models.Employee, error)
	IsEmployeeAssigned(ctx context.Context, offeringID, employeeID string) (bool, error)
}

type businessReader interface {
	FindByID(ctx context.Context, id string) (*models.Business, error)
}

type employeeReader interface {
	FindByID(ctx context.Context, id string) (*models.Employee, error)
}

type workingHoursReader interface {
	ListByOwner(ctx context.Context, ownerType models.ScheduleOwner, ownerID string) ([]models.WorkingWindow, error)
}

type scheduledAppointmentsReader interface {
	ListScheduledForEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]models.Appointment, error)
}

// AvailabilityRequest describes an availability lookup.
type AvailabilityRequest struct {
	OfferingID string `json:"offering_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	EmployeeID string `json:"employee_id" validate:"required"`
}

// AvailabilityService computes bookable start times for an offering on a
// date by resolving working hours, generating step-aligned candidates and
// filtering out conflicts with scheduled appointments.
type AvailabilityService struct {
	offerings    offeringProvider
	businesses   businessReader
	employees    employeeReader
	workingHours workingHoursReader
	appointments scheduledAppointmentsReader
	cache        *CacheService
	step         time.Duration
	cacheTTL     time.Duration
	now          func() time.Time
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAvailabilityService constructs AvailabilityService.
func NewAvailabilityService(
	offerings offeringProvider,
	businesses businessReader,
	employees employeeReader,
	workingHours workingHoursReader,
	appointments scheduledAppointmentsReader,
	cache *CacheService,
	step time.Duration,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *AvailabilityService {
	if step <= 0 {
		step = 30 * time.Minute
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		offerings:    offerings,
		businesses:   businesses,
		employees:    employees,
		workingHours: workingHours,
		appointments: appointments,
		cache:        cache,
		step:         step,
		cacheTTL:     cacheTTL,
		now:          time.Now,
		validator:    validate,
		logger:       logger,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *AvailabilityService) WithClock(now func() time.Time) *AvailabilityService {
	if now != nil {
		s.now = now
	}
	return s
}

// GetDayAvailability returns the bookable slots for an offering on a date.
// EmployeeID may name one employee or AnyEmployee to merge every assigned
// employee's openings. A day with no openings is a successful empty result.
func (s *AvailabilityService) GetDayAvailability(ctx context.Context, req AvailabilityRequest) (*models.DayAvailability, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "offering_id, date and employee_id are required")
	}

	offering, err := s.offerings.FindByID(ctx, req.OfferingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}

	business, err := s.businesses.FindByID(ctx, offering.BusinessID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "business not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load business")
	}

	loc := business.Location()
	date, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}

	result := &models.DayAvailability{Date: req.Date, OfferingID: offering.ID, Slots: []models.Slot{}}
	if req.EmployeeID != AnyEmployee {
		result.EmployeeID = req.EmployeeID
	}
	if !offering.Active {
		return result, false, nil
	}

	cacheKey := s.cacheKey(offering.ID, req.Date, req.EmployeeID)
	if s.cache.Enabled() {
		var cached models.DayAvailability
		if hit, cerr := s.cache.Get(ctx, cacheKey, &cached); cerr == nil && hit {
			return &cached, true, nil
		}
	}

	duration := time.Duration(offering.DurationMinutes) * time.Minute
	businessHours, err := s.workingHours.ListByOwner(ctx, models.ScheduleOwnerBusiness, business.ID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load business hours")
	}

	candidates, err := s.candidateEmployees(ctx, offering, req.EmployeeID)
	if err != nil {
		return nil, false, err
	}

	slots := make([]models.Slot, 0)
	for _, emp := range candidates {
		starts, serr := s.employeeStarts(ctx, emp.ID, businessHours, date, duration)
		if serr != nil {
			return nil, false, serr
		}
		for _, start := range starts {
			slots = append(slots, models.Slot{
				Time:         start.Format("15:04"),
				EmployeeID:   emp.ID,
				EmployeeName: emp.FullName,
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Time != slots[j].Time {
			return slots[i].Time < slots[j].Time
		}
		return slots[i].EmployeeID < slots[j].EmployeeID
	})
	result.Slots = slots

	if s.cache.Enabled() {
		if cerr := s.cache.Set(ctx, cacheKey, result, s.cacheTTL); cerr != nil {
			s.logger.Warn("failed to cache availability", zap.String("key", cacheKey), zap.Error(cerr))
		}
	}
	return result, false, nil
}

// candidateEmployees resolves which employees to compute openings for.
// An inactive or unassigned employee yields no candidates rather than an
// error so the day reads as fully booked.
func (s *AvailabilityService) candidateEmployees(ctx context.Context, offering *models.Offering, employeeID string) ([]models.Employee, error) {
	if employeeID == AnyEmployee {
		employees, err := s.offerings.ListAssignedEmployees(ctx, offering.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned employees")
		}
		return employees, nil
	}

	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if !employee.Active || employee.BusinessID != offering.BusinessID {
		return nil, nil
	}
	assigned, err := s.offerings.IsEmployeeAssigned(ctx, offering.ID, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check offering assignment")
	}
	if !assigned {
		return nil, nil
	}
	return []models.Employee{*employee}, nil
}

// employeeStarts computes the open start times for one employee on a date.
func (s *AvailabilityService) employeeStarts(ctx context.Context, employeeID string, businessHours []models.WorkingWindow, date time.Time, duration time.Duration) ([]time.Time, error) {
	employeeHours, err := s.workingHours.ListByOwner(ctx, models.ScheduleOwnerEmployee, employeeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee hours")
	}

	windows := availability.ResolveWindows(businessHours, employeeHours, date)
	if len(windows) == 0 {
		return nil, nil
	}

	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)
	booked, err := s.appointments.ListScheduledForEmployeeBetween(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduled appointments")
	}
	busy := make([]availability.Interval, 0, len(booked))
	for _, appt := range booked {
		busy = append(busy, availability.Interval{Start: appt.StartTime, End: appt.EndTime})
	}

	starts := availability.AvailableStarts(windows, duration, s.step, busy)

	// Same-day lookups never offer a start that is already in the past.
	now := s.now().In(date.Location())
	if !now.Before(dayStart) && now.Before(dayEnd) {
		trimmed := starts[:0]
		for _, start := range starts {
			if !start.Before(now) {
				trimmed = append(trimmed, start)
			}
		}
		starts = trimmed
	}
	return starts, nil
}

func (s *AvailabilityService) cacheKey(offeringID, date, employeeID string) string {
	return fmt.Sprintf("availability:%s:%s:%s:%s", availabilityCacheVersion, offeringID, date, employeeID)
}

// InvalidateAvailability drops cached availability for an offering. An empty
// offeringID drops every cached availability entry; schedule edits can shift
// any offering's slots, so over-invalidation is the safe choice there.
func (s *AvailabilityService) InvalidateAvailability(ctx context.Context, offeringID string) {
	if !s.cache.Enabled() {
		return
	}
	pattern := fmt.Sprintf("availability:%s:*", availabilityCacheVersion)
	if offeringID != "" {
		pattern = fmt.Sprintf("availability:%s:%s:*", availabilityCacheVersion, offeringID)
	}
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate availability cache", zap.String("pattern", pattern), zap.Error(err))
	}
}
