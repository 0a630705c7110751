package employee

import "time"

type Employee struct {
	ID         string
	CompanyID  string
	UserID     *string
	EPNumber   string
	FullName   string
	Plant      *string
	Department *string
	Trade      *string
	Skill      *string
	HireDate   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Assignment links an employee to a supervisor for a date window.
// A nil EndDate means the assignment is open-ended.
type Assignment struct {
	ID           string
	EmployeeID   string
	SupervisorID string
	CompanyID    string
	StartDate    time.Time
	EndDate      *time.Time
	CreatedBy    string
	CreatedAt    time.Time
}

// Covers reports whether the assignment authorizes the supervisor for the
// given calendar date.
func (a Assignment) Covers(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	if day.Before(a.StartDate.Truncate(24 * time.Hour)) {
		return false
	}
	if a.EndDate == nil {
		return true
	}
	return !day.After(a.EndDate.Truncate(24 * time.Hour))
}
