package models

import "time"

// ScheduleOwner identifies whose weekly schedule a working window belongs to.
type ScheduleOwner string

const (
	ScheduleOwnerBusiness ScheduleOwner = "BUSINESS"
	ScheduleOwnerEmployee ScheduleOwner = "EMPLOYEE"
)

// WorkingWindow is one recurring weekly shift for a business or employee.
// A weekday may carry several windows (split shifts). Times are local
// "HH:MM" strings at minute granularity; DayOfWeek follows time.Weekday
// (0 = Sunday).
type WorkingWindow struct {
	ID        string        `db:"id" json:"id"`
	OwnerType ScheduleOwner `db:"owner_type" json:"owner_type"`
	OwnerID   string        `db:"owner_id" json:"owner_id"`
	DayOfWeek int           `db:"day_of_week" json:"day_of_week"`
	StartTime string        `db:"start_time" json:"start_time"`
	EndTime   string        `db:"end_time" json:"end_time"`
	Closed    bool          `db:"closed" json:"closed"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}
