package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/turnify/turnify-api/internal/models"
)

// WorkingHoursRepository persists weekly working windows for businesses
// and employees.
type WorkingHoursRepository struct {
	db *sqlx.DB
}

// NewWorkingHoursRepository creates a new working hours repository.
func NewWorkingHoursRepository(db *sqlx.DB) *WorkingHoursRepository {
	return &WorkingHoursRepository{db: db}
}

// ListByOwner returns every working window for the given owner ordered
// by weekday then start time.
func (r *WorkingHoursRepository) ListByOwner(ctx context.Context, ownerType models.ScheduleOwner, ownerID string) ([]models.WorkingWindow, error) {
	const query = `SELECT id, owner_type, owner_id, day_of_week, start_time, end_time, closed, created_at, updated_at FROM working_windows WHERE owner_type = $1 AND owner_id = $2 ORDER BY day_of_week ASC, start_time ASC`
	var windows []models.WorkingWindow
	if err := r.db.SelectContext(ctx, &windows, query, ownerType, ownerID); err != nil {
		return nil, fmt.Errorf("list working windows: %w", err)
	}
	return windows, nil
}

// ReplaceForOwner swaps the owner's entire weekly schedule in one
// transaction.
func (r *WorkingHoursRepository) ReplaceForOwner(ctx context.Context, ownerType models.ScheduleOwner, ownerID string, windows []models.WorkingWindow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace working windows: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM working_windows WHERE owner_type = $1 AND owner_id = $2`, ownerType, ownerID); err != nil {
		return fmt.Errorf("clear working windows: %w", err)
	}

	now := time.Now().UTC()
	for i := range windows {
		payload := windows[i]
		payload.OwnerType = ownerType
		payload.OwnerID = ownerID
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = tx.NamedExecContext(ctx, `INSERT INTO working_windows (id, owner_type, owner_id, day_of_week, start_time, end_time, closed, created_at, updated_at) VALUES (:id, :owner_type, :owner_id, :day_of_week, :start_time, :end_time, :closed, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("insert working window: %w", err)
		}
		windows[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace working windows: %w", err)
	}
	return nil
}
