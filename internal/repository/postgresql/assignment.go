package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/database"
)

type assignmentRepository struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) employee.AssignmentRepository {
	return &assignmentRepository{db: db}
}

// ListBySupervisor implements employee.AssignmentRepository. Returns every
// assignment window for the supervisor, open-ended ones included; the scope
// set does the per-date filtering.
func (r *assignmentRepository) ListBySupervisor(ctx context.Context, supervisorUserID string) ([]employee.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, supervisor_user_id, company_id,
			   start_date, end_date, created_by, created_at
		FROM assignments
		WHERE supervisor_user_id = $1
		ORDER BY start_date ASC
	`

	rows, err := q.Query(ctx, query, supervisorUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []employee.Assignment
	for rows.Next() {
		var a employee.Assignment
		if err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.SupervisorID, &a.CompanyID,
			&a.StartDate, &a.EndDate, &a.CreatedBy, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}

	return assignments, nil
}
