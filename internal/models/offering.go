package models

import "time"

// Offering is a bookable service with a fixed duration and price.
type Offering struct {
	ID              string    `db:"id" json:"id"`
	BusinessID      string    `db:"business_id" json:"business_id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	PriceCents      int64     `db:"price_cents" json:"price_cents"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// OfferingFilter captures filtering criteria for listing offerings.
type OfferingFilter struct {
	BusinessID string
	Search     string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// OfferingAssignment joins an offering to an employee allowed to perform it.
type OfferingAssignment struct {
	ID         string    `db:"id" json:"id"`
	OfferingID string    `db:"offering_id" json:"offering_id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
