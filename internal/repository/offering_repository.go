package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/turnify/turnify-api/internal/models"
)

const offeringColumns = "id, business_id, name, description, duration_minutes, price_cents, active, created_at, updated_at"

// OfferingRepository provides persistence for offerings and their
// employee assignments.
type OfferingRepository struct {
	db *sqlx.DB
}

// NewOfferingRepository creates a new offering repository.
func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

// List returns offerings with optional filtering and pagination.
func (r *OfferingRepository) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error) {
	base := "FROM offerings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.BusinessID != "" {
		conditions = append(conditions, fmt.Sprintf("business_id = $%d", len(args)+1))
		args = append(args, filter.BusinessID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":             true,
		"duration_minutes": true,
		"price_cents":      true,
		"created_at":       true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", offeringColumns, base, sortBy, order, size, offset)
	var offerings []models.Offering
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list offerings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count offerings: %w", err)
	}

	return offerings, total, nil
}

// FindByID loads an offering by id.
func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*models.Offering, error) {
	query := fmt.Sprintf("SELECT %s FROM offerings WHERE id = $1", offeringColumns)
	var offering models.Offering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// Create stores a new offering record.
func (r *OfferingRepository) Create(ctx context.Context, offering *models.Offering) error {
	if offering.ID == "" {
		offering.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if offering.CreatedAt.IsZero() {
		offering.CreatedAt = now
	}
	offering.UpdatedAt = now

	const query = `INSERT INTO offerings (id, business_id, name, description, duration_minutes, price_cents, active, created_at, updated_at) VALUES (:id, :business_id, :name, :description, :duration_minutes, :price_cents, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("create offering: %w", err)
	}
	return nil
}

// Update modifies an offering record.
func (r *OfferingRepository) Update(ctx context.Context, offering *models.Offering) error {
	offering.UpdatedAt = time.Now().UTC()
	const query = `UPDATE offerings SET name = :name, description = :description, duration_minutes = :duration_minutes, price_cents = :price_cents, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, offering); err != nil {
		return fmt.Errorf("update offering: %w", err)
	}
	return nil
}

// Deactivate soft-deletes an offering.
func (r *OfferingRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE offerings SET active = false, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate offering: %w", err)
	}
	return nil
}

// ListAssignedEmployees returns the active employees assigned to perform
// the offering, ordered by id for deterministic output.
func (r *OfferingRepository) ListAssignedEmployees(ctx context.Context, offeringID string) ([]models.Employee, error) {
	const query = `
SELECT e.id, e.business_id, e.full_name, e.email, e.phone, e.position, e.active, e.created_at, e.updated_at
FROM employees e
JOIN offering_employees oe ON oe.employee_id = e.id
WHERE oe.offering_id = $1 AND e.active = true
ORDER BY e.id ASC`
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, offeringID); err != nil {
		return nil, fmt.Errorf("list assigned employees: %w", err)
	}
	return employees, nil
}

// IsEmployeeAssigned reports whether the employee may perform the offering.
func (r *OfferingRepository) IsEmployeeAssigned(ctx context.Context, offeringID, employeeID string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM offering_employees WHERE offering_id = $1 AND employee_id = $2 LIMIT 1`, offeringID, employeeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check offering assignment: %w", err)
	}
	return one == 1, nil
}

// ReplaceAssignments swaps the offering's assigned-employee set in one
// transaction.
func (r *OfferingRepository) ReplaceAssignments(ctx context.Context, offeringID string, employeeIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace assignments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM offering_employees WHERE offering_id = $1`, offeringID); err != nil {
		return fmt.Errorf("clear offering assignments: %w", err)
	}

	now := time.Now().UTC()
	for _, employeeID := range employeeIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO offering_employees (id, offering_id, employee_id, created_at) VALUES ($1, $2, $3, $4)`, uuid.NewString(), offeringID, employeeID, now); err != nil {
			return fmt.Errorf("insert offering assignment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace assignments: %w", err)
	}
	return nil
}
