package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/turnify/turnify-api/internal/models"
)

const appointmentColumns = "id, business_id, employee_id, offering_id, client_name, client_email, client_phone, start_time, end_time, status, cancellation_reason, created_at, updated_at"

// AppointmentRepository provides persistence for appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// List returns appointments with optional filtering and pagination.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	base := "FROM appointments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.BusinessID != "" {
		conditions = append(conditions, fmt.Sprintf("business_id = $%d", len(args)+1))
		args = append(args, filter.BusinessID)
	}
	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.OfferingID != "" {
		conditions = append(conditions, fmt.Sprintf("offering_id = $%d", len(args)+1))
		args = append(args, filter.OfferingID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"start_time": true,
		"status":     true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "start_time"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", appointmentColumns, base, sortBy, order, size, offset)
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	return appointments, total, nil
}

// FindByID loads an appointment by id.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = $1", appointmentColumns)
	var appt models.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		return nil, err
	}
	return &appt, nil
}

// ListScheduledForEmployeeBetween returns the employee's scheduled
// appointments intersecting [from, to). Cancelled, completed and no-show
// appointments never block availability.
func (r *AppointmentRepository) ListScheduledForEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE employee_id = $1 AND status = $2 AND start_time < $4 AND end_time > $3 ORDER BY start_time ASC`, appointmentColumns)
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, employeeID, models.AppointmentScheduled, from, to); err != nil {
		return nil, fmt.Errorf("list scheduled appointments: %w", err)
	}
	return appointments, nil
}

// ListDetailedForBusinessBetween returns appointments for a business in
// [from, to) joined with employee and offering names, for day sheets.
func (r *AppointmentRepository) ListDetailedForBusinessBetween(ctx context.Context, businessID string, from, to time.Time) ([]models.AppointmentDetail, error) {
	const query = `
SELECT a.id, a.business_id, a.employee_id, a.offering_id, a.client_name, a.client_email, a.client_phone,
       a.start_time, a.end_time, a.status, a.cancellation_reason, a.created_at, a.updated_at,
       e.full_name AS employee_name, o.name AS offering_name
FROM appointments a
JOIN employees e ON e.id = a.employee_id
JOIN offerings o ON o.id = a.offering_id
WHERE a.business_id = $1 AND a.start_time >= $2 AND a.start_time < $3
ORDER BY a.start_time ASC, e.full_name ASC`
	var details []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &details, query, businessID, from, to); err != nil {
		return nil, fmt.Errorf("list detailed appointments: %w", err)
	}
	return details, nil
}

// CreateIfFree inserts the appointment only when no scheduled appointment
// for the same employee overlaps [start_time, end_time). The overlap
// check and the insert share one transaction with the conflicting rows
// locked, so two concurrent bookings of the same slot cannot both
// succeed. Returns false when the slot is already taken.
func (r *AppointmentRepository) CreateIfFree(ctx context.Context, appt *models.Appointment) (bool, error) {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = now
	}
	appt.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin create appointment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var conflicts []string
	err = tx.SelectContext(ctx, &conflicts,
		`SELECT id FROM appointments WHERE employee_id = $1 AND status = $2 AND start_time < $4 AND end_time > $3 FOR UPDATE`,
		appt.EmployeeID, models.AppointmentScheduled, appt.StartTime, appt.EndTime)
	if err != nil {
		return false, fmt.Errorf("lock overlapping appointments: %w", err)
	}
	if len(conflicts) > 0 {
		_ = tx.Rollback()
		return false, nil
	}

	if _, err = tx.NamedExecContext(ctx, `INSERT INTO appointments (id, business_id, employee_id, offering_id, client_name, client_email, client_phone, start_time, end_time, status, cancellation_reason, created_at, updated_at) VALUES (:id, :business_id, :employee_id, :offering_id, :client_name, :client_email, :client_phone, :start_time, :end_time, :status, :cancellation_reason, :created_at, :updated_at)`, appt); err != nil {
		return false, fmt.Errorf("insert appointment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit create appointment: %w", err)
	}
	return true, nil
}

// UpdateStatus records a status transition.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus, reason string) error {
	const query = `UPDATE appointments SET status = $2, cancellation_reason = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}
