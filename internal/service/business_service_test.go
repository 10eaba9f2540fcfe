package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

type mockBusinessRepo struct {
	businesses map[string]*models.Business
}

func (m *mockBusinessRepo) List(ctx context.Context) ([]models.Business, error) {
	var out []models.Business
	for _, b := range m.businesses {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockBusinessRepo) FindByID(ctx context.Context, id string) (*models.Business, error) {
	if b, ok := m.businesses[id]; ok {
		copy := *b
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBusinessRepo) Create(ctx context.Context, business *models.Business) error {
	if m.businesses == nil {
		m.businesses = make(map[string]*models.Business)
	}
	if business.ID == "" {
		business.ID = "biz-new"
	}
	copy := *business
	m.businesses[business.ID] = &copy
	return nil
}

func (m *mockBusinessRepo) Update(ctx context.Context, business *models.Business) error {
	copy := *business
	m.businesses[business.ID] = &copy
	return nil
}

func TestBusinessCreate(t *testing.T) {
	repo := &mockBusinessRepo{}
	svc := NewBusinessService(repo, &mockInvalidator{}, nil, zap.NewNop())

	business, err := svc.Create(context.Background(), CreateBusinessRequest{
		Name:     "  Corner Barbers ",
		Timezone: "America/New_York",
	})
	require.NoError(t, err)
	assert.Equal(t, "Corner Barbers", business.Name)
	assert.True(t, business.Active)
}

func TestBusinessCreateUnknownTimezone(t *testing.T) {
	svc := NewBusinessService(&mockBusinessRepo{}, &mockInvalidator{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateBusinessRequest{Name: "Shop", Timezone: "Mars/Olympus"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBusinessUpdateTimezoneChangeInvalidates(t *testing.T) {
	repo := &mockBusinessRepo{businesses: map[string]*models.Business{
		"biz-1": {ID: "biz-1", Name: "Salon", Timezone: "UTC", Active: true},
	}}
	invalidator := &mockInvalidator{}
	svc := NewBusinessService(repo, invalidator, nil, zap.NewNop())

	updated, err := svc.Update(context.Background(), "biz-1", UpdateBusinessRequest{
		Name:     "Salon",
		Timezone: "Europe/Paris",
	})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Paris", updated.Timezone)
	assert.Equal(t, []string{""}, invalidator.offerings)

	// Same timezone again, nothing to drop.
	_, err = svc.Update(context.Background(), "biz-1", UpdateBusinessRequest{Name: "Salon", Timezone: "Europe/Paris"})
	require.NoError(t, err)
	assert.Len(t, invalidator.offerings, 1)
}

func TestBusinessGetUnknown(t *testing.T) {
	svc := NewBusinessService(&mockBusinessRepo{}, &mockInvalidator{}, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
