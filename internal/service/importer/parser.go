package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// Batch line field positions:
// employee_id, date, status, worked_hours, overtime_hours, deduction_reason
const (
	fieldEmployeeID = iota
	fieldDate
	fieldStatus
	fieldWorkedHours
	fieldOvertimeHours
	fieldDeductionReason
)

// ParseError is a recovered per-row parse failure. The pipeline records it
// and moves on to the next row.
type ParseError struct {
	Row     int
	Field   string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

// Candidate is the typed form of one batch row. Either Err is set, or the
// record fields are.
type Candidate struct {
	Row             int
	EmployeeID      string
	Date            time.Time
	Status          attendance.Status
	WorkedHours     decimal.Decimal
	OvertimeHours   decimal.Decimal
	DeductionReason *string
	Err             *ParseError
}

// ParseRow normalizes one raw batch line into a Candidate. Parse failures
// fail closed: ambiguous input is rejected, never coerced.
func ParseRow(raw attendance.RawRow) Candidate {
	cand := Candidate{Row: raw.Number}

	fail := func(field, message string) Candidate {
		cand.Err = &ParseError{Row: raw.Number, Field: field, Message: message}
		return cand
	}

	if len(raw.Fields) < 3 {
		return fail("row", fmt.Sprintf("expected at least 3 fields, got %d", len(raw.Fields)))
	}

	cand.EmployeeID = strings.TrimSpace(field(raw.Fields, fieldEmployeeID))
	if validator.IsEmpty(cand.EmployeeID) {
		return fail("employee_id", "employee_id is required")
	}

	dateStr := strings.TrimSpace(field(raw.Fields, fieldDate))
	if validator.IsEmpty(dateStr) {
		return fail("date", "date is required")
	}
	date, ok := validator.IsValidDate(dateStr)
	if !ok {
		return fail("date", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", dateStr))
	}
	cand.Date = date

	statusStr := field(raw.Fields, fieldStatus)
	if validator.IsEmpty(statusStr) {
		return fail("status", "status is required")
	}
	status, ok := attendance.ParseStatus(statusStr)
	if !ok {
		return fail("status", fmt.Sprintf("unknown status token %q", strings.TrimSpace(statusStr)))
	}
	cand.Status = status

	worked, perr := parseHours("worked_hours", raw.Number, field(raw.Fields, fieldWorkedHours))
	if perr != nil {
		cand.Err = perr
		return cand
	}
	cand.WorkedHours = worked

	overtime, perr := parseHours("overtime_hours", raw.Number, field(raw.Fields, fieldOvertimeHours))
	if perr != nil {
		cand.Err = perr
		return cand
	}
	cand.OvertimeHours = overtime

	if status.RequiresWorkedHours() && validator.IsEmpty(field(raw.Fields, fieldWorkedHours)) {
		return fail("worked_hours", fmt.Sprintf("worked_hours is required for status %s", status))
	}

	reason := strings.TrimSpace(field(raw.Fields, fieldDeductionReason))
	if status.RequiresDeductionReason() && validator.IsEmpty(reason) {
		return fail("deduction_reason", "deduction_reason is required for status DEDUCTION")
	}
	if reason != "" {
		cand.DeductionReason = &reason
	}

	return cand
}

// field reads a positional field, tolerating short rows for the optional
// trailing columns.
func field(fields []string, idx int) string {
	if idx >= len(fields) {
		return ""
	}
	return fields[idx]
}

// parseHours parses a non-negative, locale-invariant decimal. An empty field
// is zero; a signed or malformed value is a parse failure, not clamped.
func parseHours(name string, row int, raw string) (decimal.Decimal, *ParseError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	if !validator.IsUnsignedDecimal(trimmed) {
		return decimal.Zero, &ParseError{Row: row, Field: name, Message: fmt.Sprintf("%s must be a non-negative decimal, got %q", name, trimmed)}
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, &ParseError{Row: row, Field: name, Message: fmt.Sprintf("%s is not numeric: %v", name, err)}
	}
	return d, nil
}
