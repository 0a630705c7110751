package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/employee"
)

// Rejection is a recovered per-row validation failure.
type Rejection struct {
	Kind   attendance.RejectionKind
	Reason string
}

// ValidCandidate is a candidate that passed the whole pipeline, bound to its
// employee's company and natural key.
type ValidCandidate struct {
	Candidate
	CompanyID string
	HireDate  time.Time
	Key       attendance.RecordKey
}

// Validator runs normalized candidates through the business rules. Checks
// run in a fixed order and the first failure wins.
type Validator struct {
	employees employee.EmployeeRepository
}

func NewValidator(employees employee.EmployeeRepository) *Validator {
	return &Validator{employees: employees}
}

// Validate checks one candidate against scope, date bounds, in-batch
// duplicates and field consistency. seen is updated with the row's natural
// key only when every check passes. A non-nil error means the store itself
// failed; the caller decides whether that is recoverable.
func (v *Validator) Validate(ctx context.Context, cand Candidate, scope *ScopeSet, seen map[attendance.RecordKey]struct{}, submittedAt time.Time) (*ValidCandidate, *Rejection, error) {
	// 1. Authorization. The row carries only the employee id; the employee
	// record binds it to a company. Unknown employees are reported as out of
	// scope so existence does not leak across companies.
	emp, err := v.employees.GetByID(ctx, cand.EmployeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return nil, &Rejection{
				Kind:   attendance.RejectionOutOfScope,
				Reason: fmt.Sprintf("employee %s is not in the actor's scope", cand.EmployeeID),
			}, nil
		}
		return nil, nil, fmt.Errorf("failed to load employee %s: %w", cand.EmployeeID, err)
	}
	if !scope.Allows(emp.CompanyID, emp.ID, cand.Date) {
		return nil, &Rejection{
			Kind:   attendance.RejectionOutOfScope,
			Reason: fmt.Sprintf("employee %s is not in the actor's scope", cand.EmployeeID),
		}, nil
	}

	// 2. Date bounds.
	if dateOnly(cand.Date).After(dateOnly(submittedAt)) {
		return nil, &Rejection{
			Kind:   attendance.RejectionInvalidDate,
			Reason: fmt.Sprintf("date %s is in the future", cand.Date.Format("2006-01-02")),
		}, nil
	}
	if dateOnly(cand.Date).Before(dateOnly(emp.HireDate)) {
		return nil, &Rejection{
			Kind:   attendance.RejectionInvalidDate,
			Reason: fmt.Sprintf("date %s precedes employment start %s", cand.Date.Format("2006-01-02"), emp.HireDate.Format("2006-01-02")),
		}, nil
	}

	// 3. Duplicate in batch. The later row loses; the submitter has to fix
	// the ambiguous input rather than have one row silently win.
	key := attendance.RecordKey{CompanyID: emp.CompanyID, EmployeeID: emp.ID, Date: dateOnly(cand.Date)}
	if _, dup := seen[key]; dup {
		return nil, &Rejection{
			Kind:   attendance.RejectionDuplicateInBatch,
			Reason: fmt.Sprintf("employee %s already has a row for %s in this batch", cand.EmployeeID, cand.Date.Format("2006-01-02")),
		}, nil
	}

	// 4. Field consistency against the authorized record shape.
	if rej := v.checkFields(cand); rej != nil {
		return nil, rej, nil
	}

	seen[key] = struct{}{}
	return &ValidCandidate{Candidate: cand, CompanyID: emp.CompanyID, HireDate: emp.HireDate, Key: key}, nil, nil
}

func (v *Validator) checkFields(cand Candidate) *Rejection {
	if cand.Status.RequiresDeductionReason() && cand.DeductionReason == nil {
		return &Rejection{
			Kind:   attendance.RejectionInconsistentFields,
			Reason: "deduction status requires a deduction_reason",
		}
	}
	if cand.Status.RequiresWorkedHours() && cand.WorkedHours.IsNegative() {
		return &Rejection{
			Kind:   attendance.RejectionInconsistentFields,
			Reason: "worked_hours must not be negative",
		}
	}
	if cand.WorkedHours.Add(cand.OvertimeHours).GreaterThan(attendance.MaxDailyHours) {
		return &Rejection{
			Kind:   attendance.RejectionInconsistentFields,
			Reason: fmt.Sprintf("worked_hours + overtime_hours exceeds %s", attendance.MaxDailyHours.String()),
		}
	}
	return nil
}

// dateOnly drops the time component, keeping the calendar day in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
