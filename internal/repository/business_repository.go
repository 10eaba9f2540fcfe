package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/turnify/turnify-api/internal/models"
)

const businessColumns = "id, name, description, phone, address, timezone, active, created_at, updated_at"

// BusinessRepository provides persistence for businesses.
type BusinessRepository struct {
	db *sqlx.DB
}

// NewBusinessRepository creates a new business repository.
func NewBusinessRepository(db *sqlx.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

// List returns every active business ordered by name.
func (r *BusinessRepository) List(ctx context.Context) ([]models.Business, error) {
	query := fmt.Sprintf("SELECT %s FROM businesses WHERE active = true ORDER BY name ASC", businessColumns)
	var businesses []models.Business
	if err := r.db.SelectContext(ctx, &businesses, query); err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return businesses, nil
}

// FindByID loads a business by id.
func (r *BusinessRepository) FindByID(ctx context.Context, id string) (*models.Business, error) {
	query := fmt.Sprintf("SELECT %s FROM businesses WHERE id = $1", businessColumns)
	var business models.Business
	if err := r.db.GetContext(ctx, &business, query, id); err != nil {
		return nil, err
	}
	return &business, nil
}

// Create stores a new business record.
func (r *BusinessRepository) Create(ctx context.Context, business *models.Business) error {
	if business.ID == "" {
		business.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if business.CreatedAt.IsZero() {
		business.CreatedAt = now
	}
	business.UpdatedAt = now

	const query = `INSERT INTO businesses (id, name, description, phone, address, timezone, active, created_at, updated_at) VALUES (:id, :name, :description, :phone, :address, :timezone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, business); err != nil {
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

// Update modifies a business record.
func (r *BusinessRepository) Update(ctx context.Context, business *models.Business) error {
	business.UpdatedAt = time.Now().UTC()
	const query = `UPDATE businesses SET name = :name, description = :description, phone = :phone, address = :address, timezone = :timezone, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, business); err != nil {
		return fmt.Errorf("update business: %w", err)
	}
	return nil
}
