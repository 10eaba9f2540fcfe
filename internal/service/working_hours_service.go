package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

type workingHoursStore interface {
	ListByOwner(ctx context.Context, ownerType models.ScheduleOwner, ownerID string) ([]models.WorkingWindow, error)
	ReplaceForOwner(ctx context.Context, ownerType models.ScheduleOwner, ownerID string, windows []models.WorkingWindow) error
}

// WorkingWindowInput is one weekly shift in a schedule update.
type WorkingWindowInput struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Closed    bool   `json:"closed"`
}

// ReplaceWorkingHoursRequest replaces an owner's full weekly schedule.
type ReplaceWorkingHoursRequest struct {
	Windows []WorkingWindowInput `json:"windows" validate:"dive"`
}

// WorkingHoursService manages weekly schedules for businesses and employees.
type WorkingHoursService struct {
	repo        workingHoursStore
	businesses  businessReader
	employees   employeeReader
	invalidator availabilityInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewWorkingHoursService constructs WorkingHoursService.
func NewWorkingHoursService(repo workingHoursStore, businesses businessReader, employees employeeReader, invalidator availabilityInvalidator, validate *validator.Validate, logger *zap.Logger) *WorkingHoursService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkingHoursService{repo: repo, businesses: businesses, employees: employees, invalidator: invalidator, validator: validate, logger: logger}
}

// GetSchedule returns an owner's weekly working windows.
func (s *WorkingHoursService) GetSchedule(ctx context.Context, ownerType models.ScheduleOwner, ownerID string) ([]models.WorkingWindow, error) {
	if err := s.checkOwner(ctx, ownerType, ownerID); err != nil {
		return nil, err
	}
	windows, err := s.repo.ListByOwner(ctx, ownerType, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load working hours")
	}
	return windows, nil
}

// ReplaceSchedule swaps an owner's entire weekly schedule in one transaction
// and drops cached availability, which the change invalidates.
func (s *WorkingHoursService) ReplaceSchedule(ctx context.Context, ownerType models.ScheduleOwner, ownerID string, req ReplaceWorkingHoursRequest) ([]models.WorkingWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule")
	}
	if err := s.checkOwner(ctx, ownerType, ownerID); err != nil {
		return nil, err
	}

	windows := make([]models.WorkingWindow, 0, len(req.Windows))
	for _, in := range req.Windows {
		if !in.Closed {
			startMin, ok := parseClockMinutes(in.StartTime)
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start_time %q, expected HH:MM", in.StartTime))
			}
			endMin, ok := parseClockMinutes(in.EndTime)
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end_time %q, expected HH:MM", in.EndTime))
			}
			if startMin >= endMin {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start_time %s must be before end_time %s", in.StartTime, in.EndTime))
			}
		}
		windows = append(windows, models.WorkingWindow{
			DayOfWeek: in.DayOfWeek,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
			Closed:    in.Closed,
		})
	}

	if err := s.repo.ReplaceForOwner(ctx, ownerType, ownerID, windows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace working hours")
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateAvailability(ctx, "")
	}
	s.logger.Info("working hours replaced",
		zap.String("owner_type", string(ownerType)),
		zap.String("owner_id", ownerID),
		zap.Int("windows", len(windows)))

	return s.GetSchedule(ctx, ownerType, ownerID)
}

func (s *WorkingHoursService) checkOwner(ctx context.Context, ownerType models.ScheduleOwner, ownerID string) error {
	var err error
	switch ownerType {
	case models.ScheduleOwnerBusiness:
		_, err = s.businesses.FindByID(ctx, ownerID)
	case models.ScheduleOwnerEmployee:
		_, err = s.employees.FindByID(ctx, ownerID)
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown schedule owner type")
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule owner not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule owner")
	}
	return nil
}

// parseClockMinutes parses "HH:MM" into minutes since midnight.
func parseClockMinutes(clock string) (int, bool) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%02d:%02d", &h, &m); err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
