package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

type businessRepository interface {
	List(ctx context.Context) ([]models.Business, error)
	FindByID(ctx context.Context, id string) (*models.Business, error)
	Create(ctx context.Context, business *models.Business) error
	Update(ctx context.Context, business *models.Business) error
}

// CreateBusinessRequest captures fields for registering a business.
type CreateBusinessRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Timezone    string `json:"timezone" validate:"required"`
}

// UpdateBusinessRequest modifies business fields.
type UpdateBusinessRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Timezone    string `json:"timezone" validate:"required"`
	Active      *bool  `json:"active"`
}

// BusinessService handles business registration and profile updates.
type BusinessService struct {
	repo        businessRepository
	invalidator availabilityInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewBusinessService creates a new business service.
func NewBusinessService(repo businessRepository, invalidator availabilityInvalidator, validate *validator.Validate, logger *zap.Logger) *BusinessService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusinessService{repo: repo, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns all businesses.
func (s *BusinessService) List(ctx context.Context) ([]models.Business, error) {
	businesses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list businesses")
	}
	return businesses, nil
}

// Get returns a business by identifier.
func (s *BusinessService) Get(ctx context.Context, id string) (*models.Business, error) {
	business, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "business not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load business")
	}
	return business, nil
}

// Create registers a new business.
func (s *BusinessService) Create(ctx context.Context, req CreateBusinessRequest) (*models.Business, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid business payload")
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown timezone")
	}

	business := &models.Business{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Phone:       req.Phone,
		Address:     req.Address,
		Timezone:    req.Timezone,
		Active:      true,
	}
	if err := s.repo.Create(ctx, business); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create business")
	}
	return business, nil
}

// Update modifies a business profile. Timezone changes shift every local
// slot boundary, so cached availability is dropped.
func (s *BusinessService) Update(ctx context.Context, id string, req UpdateBusinessRequest) (*models.Business, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid business payload")
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown timezone")
	}

	business, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	timezoneChanged := business.Timezone != req.Timezone
	business.Name = strings.TrimSpace(req.Name)
	business.Description = req.Description
	business.Phone = req.Phone
	business.Address = req.Address
	business.Timezone = req.Timezone
	if req.Active != nil {
		business.Active = *req.Active
	}

	if err := s.repo.Update(ctx, business); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update business")
	}
	if timezoneChanged && s.invalidator != nil {
		s.invalidator.InvalidateAvailability(ctx, "")
	}
	return business, nil
}
