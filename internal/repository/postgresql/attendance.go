package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const recordColumns = `
	id, company_id, employee_id, date, status,
	worked_hours::text, overtime_hours::text, deduction_reason,
	last_modified_by, last_modified_role, last_modified_at, created_at
`

// GetByKey implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByKey(ctx context.Context, key attendance.RecordKey) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE company_id = $1
		  AND employee_id = $2
		  AND date = $3
		LIMIT 1
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, key.CompanyID, key.EmployeeID, key.Date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // no record for this natural key yet
		}
		return nil, fmt.Errorf("failed to get attendance by key: %w", err)
	}

	return &rec, nil
}

// Insert implements attendance.AttendanceRepository.
func (a *attendanceRepository) Insert(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendance_records (
			company_id, employee_id, date, status,
			worked_hours, overtime_hours, deduction_reason,
			last_modified_by, last_modified_role, last_modified_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		) RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		rec.CompanyID,
		rec.EmployeeID,
		rec.Date,
		rec.Status,
		rec.WorkedHours.String(),
		rec.OvertimeHours.String(),
		rec.DeductionReason,
		rec.LastModifiedBy,
		rec.LastModifiedRole,
		rec.LastModifiedAt,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return attendance.Record{}, attendance.ErrDuplicateKey
		}
		return attendance.Record{}, fmt.Errorf("failed to insert attendance record: %w", err)
	}

	return rec, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, rec attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendance_records
		SET status = $1,
			worked_hours = $2,
			overtime_hours = $3,
			deduction_reason = $4,
			last_modified_by = $5,
			last_modified_role = $6,
			last_modified_at = $7
		WHERE id = $8
	`

	tag, err := q.Exec(ctx, query,
		rec.Status,
		rec.WorkedHours.String(),
		rec.OvertimeHours.String(),
		rec.DeductionReason,
		rec.LastModifiedBy,
		rec.LastModifiedRole,
		rec.LastModifiedAt,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrRecordNotFound
	}

	return nil
}

// ListByCompany implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByCompany(ctx context.Context, companyID string, filter attendance.ListFilter) ([]attendance.Record, error) {
	where := "company_id = $1"
	args := []interface{}{companyID}
	where, args = applyFilter(where, args, filter)
	return a.list(ctx, where, args)
}

// ListAll implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListAll(ctx context.Context, filter attendance.ListFilter) ([]attendance.Record, error) {
	where, args := applyFilter("TRUE", nil, filter)
	return a.list(ctx, where, args)
}

func applyFilter(where string, args []interface{}, filter attendance.ListFilter) (string, []interface{}) {
	argIdx := len(args) + 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		where += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.StartDate != nil {
		where += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil {
		where += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	return where, args
}

func (a *attendanceRepository) list(ctx context.Context, where string, args []interface{}) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE ` + where + `
		ORDER BY date ASC, employee_id ASC
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance records: %w", err)
	}

	return records, nil
}

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	var status, role, workedHours, overtimeHours string

	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &rec.Date, &status,
		&workedHours, &overtimeHours, &rec.DeductionReason,
		&rec.LastModifiedBy, &role, &rec.LastModifiedAt, &rec.CreatedAt,
	)
	if err != nil {
		return attendance.Record{}, err
	}

	rec.Status = attendance.Status(status)
	rec.LastModifiedRole = user.Role(role)
	if rec.WorkedHours, err = decimal.NewFromString(workedHours); err != nil {
		return attendance.Record{}, fmt.Errorf("invalid worked_hours %q: %w", workedHours, err)
	}
	if rec.OvertimeHours, err = decimal.NewFromString(overtimeHours); err != nil {
		return attendance.Record{}, fmt.Errorf("invalid overtime_hours %q: %w", overtimeHours, err)
	}
	rec.Date = rec.Date.In(time.UTC)

	return rec, nil
}
