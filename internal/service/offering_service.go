package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

type offeringRepository interface {
	List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error)
	FindByID(ctx context.Context, id string) (*models.Offering, error)
	Create(ctx context.Context, offering *models.Offering) error
	Update(ctx context.Context, offering *models.Offering) error
	Deactivate(ctx context.Context, id string) error
	ListAssignedEmployees(ctx context.Context, offeringID string) ([]models.Employee, error)
	ReplaceAssignments(ctx context.Context, offeringID string, employeeIDs []string) error
}

// CreateOfferingRequest captures fields for creating offerings.
type CreateOfferingRequest struct {
	BusinessID      string `json:"business_id" validate:"required"`
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1"`
	PriceCents      int64  `json:"price_cents" validate:"min=0"`
}

// UpdateOfferingRequest modifies offering fields.
type UpdateOfferingRequest struct {
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=1"`
	PriceCents      int64  `json:"price_cents" validate:"min=0"`
	Active          *bool  `json:"active"`
}

// ReplaceAssignmentsRequest sets which employees may perform an offering.
type ReplaceAssignmentsRequest struct {
	EmployeeIDs []string `json:"employee_ids" validate:"required"`
}

// OfferingService handles the offering catalogue and employee assignments.
type OfferingService struct {
	repo        offeringRepository
	businesses  businessReader
	employees   employeeReader
	invalidator availabilityInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewOfferingService creates a new offering service.
func NewOfferingService(repo offeringRepository, businesses businessReader, employees employeeReader, invalidator availabilityInvalidator, validate *validator.Validate, logger *zap.Logger) *OfferingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferingService{repo: repo, businesses: businesses, employees: employees, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns paginated offerings.
func (s *OfferingService) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, *models.Pagination, error) {
	offerings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
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
	return offerings, pagination, nil
}

// Get returns an offering by identifier.
func (s *OfferingService) Get(ctx context.Context, id string) (*models.Offering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return offering, nil
}

// Create adds a new offering to a business.
func (s *OfferingService) Create(ctx context.Context, req CreateOfferingRequest) (*models.Offering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	if _, err := s.businesses.FindByID(ctx, req.BusinessID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "business not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load business")
	}

	offering := &models.Offering{
		BusinessID:      req.BusinessID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		Active:          true,
	}
	if err := s.repo.Create(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	return offering, nil
}

// Update modifies an existing offering. Duration changes invalidate cached
// availability because slot boundaries move.
func (s *OfferingService) Update(ctx context.Context, id string, req UpdateOfferingRequest) (*models.Offering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}

	offering, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	durationChanged := offering.DurationMinutes != req.DurationMinutes
	offering.Name = strings.TrimSpace(req.Name)
	offering.Description = req.Description
	offering.DurationMinutes = req.DurationMinutes
	offering.PriceCents = req.PriceCents
	if req.Active != nil {
		offering.Active = *req.Active
	}

	if err := s.repo.Update(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering")
	}
	if (durationChanged || req.Active != nil) && s.invalidator != nil {
		s.invalidator.InvalidateAvailability(ctx, offering.ID)
	}
	return offering, nil
}

// Deactivate retires an offering. Existing appointments keep their history.
func (s *OfferingService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate offering")
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateAvailability(ctx, id)
	}
	return nil
}

// ListAssignedEmployees returns the active employees who may perform the offering.
func (s *OfferingService) ListAssignedEmployees(ctx context.Context, id string) ([]models.Employee, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	employees, err := s.repo.ListAssignedEmployees(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned employees")
	}
	return employees, nil
}

// ReplaceAssignments sets the offering's employee roster. Every employee
// must belong to the offering's business.
func (s *OfferingService) ReplaceAssignments(ctx context.Context, id string, req ReplaceAssignmentsRequest) ([]models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignments payload")
	}
	offering, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.EmployeeIDs))
	for _, employeeID := range req.EmployeeIDs {
		if seen[employeeID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate employee in assignments")
		}
		seen[employeeID] = true

		employee, err := s.employees.FindByID(ctx, employeeID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
		}
		if employee.BusinessID != offering.BusinessID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "employee belongs to a different business")
		}
	}

	if err := s.repo.ReplaceAssignments(ctx, id, req.EmployeeIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace assignments")
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateAvailability(ctx, id)
	}
	employees, err := s.repo.ListAssignedEmployees(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned employees")
	}
	return employees, nil
}
