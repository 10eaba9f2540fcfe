package models

// Slot is a bookable start time attributed to the employee who can
// perform it. Derived per request, never persisted.
type Slot struct {
	Time         string `json:"time"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
}

// DayAvailability is the computed availability for one offering on one
// date. Slots is never nil; an empty day serializes as an empty array.
type DayAvailability struct {
	Date       string `json:"date"`
	OfferingID string `json:"offering_id"`
	EmployeeID string `json:"employee_id,omitempty"`
	Slots      []Slot `json:"slots"`
}
