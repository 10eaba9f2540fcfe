package models

import "time"

// AppointmentStatus enumerates the appointment lifecycle states.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// Appointment is a confirmed booking of an offering with an employee.
// Immutable once created except for status and cancellation reason.
type Appointment struct {
	ID                 string            `db:"id" json:"id"`
	BusinessID         string            `db:"business_id" json:"business_id"`
	EmployeeID         string            `db:"employee_id" json:"employee_id"`
	OfferingID         string            `db:"offering_id" json:"offering_id"`
	ClientName         string            `db:"client_name" json:"client_name"`
	ClientEmail        string            `db:"client_email" json:"client_email"`
	ClientPhone        string            `db:"client_phone" json:"client_phone"`
	StartTime          time.Time         `db:"start_time" json:"start_time"`
	EndTime            time.Time         `db:"end_time" json:"end_time"`
	Status             AppointmentStatus `db:"status" json:"status"`
	CancellationReason string            `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}

// CanTransitionTo reports whether the status change is allowed. Only
// scheduled appointments may move; terminal states never change.
func (a *Appointment) CanTransitionTo(next AppointmentStatus) bool {
	if a == nil || a.Status != AppointmentScheduled {
		return false
	}
	switch next {
	case AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	default:
		return false
	}
}

// AppointmentFilter captures filtering criteria for listing appointments.
type AppointmentFilter struct {
	BusinessID string
	EmployeeID string
	OfferingID string
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// AppointmentDetail joins an appointment with display names for exports
// and list views.
type AppointmentDetail struct {
	Appointment
	EmployeeName string `db:"employee_name" json:"employee_name"`
	OfferingName string `db:"offering_name" json:"offering_name"`
}
