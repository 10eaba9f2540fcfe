package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

type mockOfferingRepo struct {
	offerings   map[string]models.Offering
	assigned    map[string][]models.Employee
	deactivated []string
	rosters     map[string][]string
}

func (m *mockOfferingRepo) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error) {
	var out []models.Offering
	for _, o := range m.offerings {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *mockOfferingRepo) FindByID(ctx context.Context, id string) (*models.Offering, error) {
	if o, ok := m.offerings[id]; ok {
		return &o, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockOfferingRepo) Create(ctx context.Context, offering *models.Offering) error {
	if m.offerings == nil {
		m.offerings = make(map[string]models.Offering)
	}
	if offering.ID == "" {
		offering.ID = "off-new"
	}
	m.offerings[offering.ID] = *offering
	return nil
}

func (m *mockOfferingRepo) Update(ctx context.Context, offering *models.Offering) error {
	m.offerings[offering.ID] = *offering
	return nil
}

func (m *mockOfferingRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockOfferingRepo) ListAssignedEmployees(ctx context.Context, offeringID string) ([]models.Employee, error) {
	return m.assigned[offeringID], nil
}

func (m *mockOfferingRepo) ReplaceAssignments(ctx context.Context, offeringID string, employeeIDs []string) error {
	if m.rosters == nil {
		m.rosters = make(map[string][]string)
	}
	m.rosters[offeringID] = employeeIDs
	return nil
}

func newOfferingService(repo *mockOfferingRepo, invalidator *mockInvalidator) *OfferingService {
	_, businesses, employees, _, _ := availabilityFixture()
	return NewOfferingService(repo, businesses, employees, invalidator, nil, nil)
}

func TestCreateOfferingDefaultsActive(t *testing.T) {
	repo := &mockOfferingRepo{}
	svc := newOfferingService(repo, &mockInvalidator{})

	offering, err := svc.Create(context.Background(), CreateOfferingRequest{
		BusinessID:      "biz-1",
		Name:            "  Beard Trim ",
		DurationMinutes: 30,
		PriceCents:      1500,
	})
	require.NoError(t, err)
	assert.True(t, offering.Active)
	assert.Equal(t, "Beard Trim", offering.Name)
}

func TestCreateOfferingRequiresDuration(t *testing.T) {
	svc := newOfferingService(&mockOfferingRepo{}, &mockInvalidator{})

	_, err := svc.Create(context.Background(), CreateOfferingRequest{BusinessID: "biz-1", Name: "X"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateOfferingDurationChangeInvalidatesCache(t *testing.T) {
	repo := &mockOfferingRepo{offerings: map[string]models.Offering{
		"off-1": {ID: "off-1", BusinessID: "biz-1", Name: "Haircut", DurationMinutes: 60, Active: true},
	}}
	invalidator := &mockInvalidator{}
	svc := newOfferingService(repo, invalidator)

	_, err := svc.Update(context.Background(), "off-1", UpdateOfferingRequest{
		Name:            "Haircut",
		DurationMinutes: 45,
		PriceCents:      2000,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"off-1"}, invalidator.offerings)
}

func TestReplaceAssignmentsRejectsForeignEmployee(t *testing.T) {
	repo := &mockOfferingRepo{offerings: map[string]models.Offering{
		"off-1": {ID: "off-1", BusinessID: "biz-1", Active: true},
	}}
	_, businesses, employees, _, _ := availabilityFixture()
	employees.employees["emp-9"] = models.Employee{ID: "emp-9", BusinessID: "biz-other", Active: true}
	svc := NewOfferingService(repo, businesses, employees, &mockInvalidator{}, nil, nil)

	_, err := svc.ReplaceAssignments(context.Background(), "off-1", ReplaceAssignmentsRequest{
		EmployeeIDs: []string{"emp-9"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReplaceAssignmentsRejectsDuplicates(t *testing.T) {
	repo := &mockOfferingRepo{offerings: map[string]models.Offering{
		"off-1": {ID: "off-1", BusinessID: "biz-1", Active: true},
	}}
	svc := newOfferingService(repo, &mockInvalidator{})

	_, err := svc.ReplaceAssignments(context.Background(), "off-1", ReplaceAssignmentsRequest{
		EmployeeIDs: []string{"emp-1", "emp-1"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeactivateOfferingInvalidatesCache(t *testing.T) {
	repo := &mockOfferingRepo{offerings: map[string]models.Offering{
		"off-1": {ID: "off-1", BusinessID: "biz-1", Active: true},
	}}
	invalidator := &mockInvalidator{}
	svc := newOfferingService(repo, invalidator)

	require.NoError(t, svc.Deactivate(context.Background(), "off-1"))
	assert.Equal(t, []string{"off-1"}, repo.deactivated)
	assert.Equal(t, []string{"off-1"}, invalidator.offerings)
}
