package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turnify/turnify-api/internal/models"
	appErrors "github.com/turnify/turnify-api/pkg/errors"
)

type mockWorkingHoursStore struct {
	windows  map[string][]models.WorkingWindow
	replaced bool
}

func (m *mockWorkingHoursStore) ListByOwner(ctx context.Context, ownerType models.ScheduleOwner, ownerID string) ([]models.WorkingWindow, error) {
	return m.windows[string(ownerType)+":"+ownerID], nil
}

func (m *mockWorkingHoursStore) ReplaceForOwner(ctx context.Context, ownerType models.ScheduleOwner, ownerID string, windows []models.WorkingWindow) error {
	if m.windows == nil {
		m.windows = make(map[string][]models.WorkingWindow)
	}
	m.windows[string(ownerType)+":"+ownerID] = windows
	m.replaced = true
	return nil
}

func newWorkingHoursService(store *mockWorkingHoursStore, invalidator *mockInvalidator) *WorkingHoursService {
	_, businesses, employees, _, _ := availabilityFixture()
	return NewWorkingHoursService(store, businesses, employees, invalidator, nil, nil)
}

func TestReplaceScheduleStoresWindows(t *testing.T) {
	store := &mockWorkingHoursStore{}
	invalidator := &mockInvalidator{}
	svc := newWorkingHoursService(store, invalidator)

	windows, err := svc.ReplaceSchedule(context.Background(), models.ScheduleOwnerEmployee, "emp-1", ReplaceWorkingHoursRequest{
		Windows: []WorkingWindowInput{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "13:00"},
			{DayOfWeek: 1, StartTime: "14:00", EndTime: "18:00"},
			{DayOfWeek: 0, Closed: true},
		},
	})
	require.NoError(t, err)
	assert.Len(t, windows, 3)
	assert.True(t, store.replaced)
	assert.Equal(t, []string{""}, invalidator.offerings)
}

func TestReplaceScheduleRejectsInvertedWindow(t *testing.T) {
	svc := newWorkingHoursService(&mockWorkingHoursStore{}, &mockInvalidator{})

	_, err := svc.ReplaceSchedule(context.Background(), models.ScheduleOwnerEmployee, "emp-1", ReplaceWorkingHoursRequest{
		Windows: []WorkingWindowInput{{DayOfWeek: 1, StartTime: "13:00", EndTime: "09:00"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReplaceScheduleRejectsBadClock(t *testing.T) {
	svc := newWorkingHoursService(&mockWorkingHoursStore{}, &mockInvalidator{})

	_, err := svc.ReplaceSchedule(context.Background(), models.ScheduleOwnerEmployee, "emp-1", ReplaceWorkingHoursRequest{
		Windows: []WorkingWindowInput{{DayOfWeek: 1, StartTime: "9am", EndTime: "17:00"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReplaceScheduleUnknownOwner(t *testing.T) {
	svc := newWorkingHoursService(&mockWorkingHoursStore{}, &mockInvalidator{})

	_, err := svc.ReplaceSchedule(context.Background(), models.ScheduleOwnerEmployee, "missing", ReplaceWorkingHoursRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetScheduleReturnsWindows(t *testing.T) {
	store := &mockWorkingHoursStore{windows: map[string][]models.WorkingWindow{
		"BUSINESS:biz-1": {weekly(models.ScheduleOwnerBusiness, "biz-1", 1, "09:00", "17:00")},
	}}
	svc := newWorkingHoursService(store, &mockInvalidator{})

	windows, err := svc.GetSchedule(context.Background(), models.ScheduleOwnerBusiness, "biz-1")
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, "09:00", windows[0].StartTime)
}
