package employee

import "context"

type EmployeeRepository interface {
	// GetByID resolves one batch row's employee reference.
	GetByID(ctx context.Context, id string) (Employee, error)
	// GetActiveByCompanyID backs the prefilled import template.
	GetActiveByCompanyID(ctx context.Context, companyID string) ([]Employee, error)
}

// AssignmentRepository exposes the date-scoped supervisor-to-employee
// assignment data consumed by scope resolution.
type AssignmentRepository interface {
	ListBySupervisor(ctx context.Context, supervisorUserID string) ([]Assignment, error)
}
