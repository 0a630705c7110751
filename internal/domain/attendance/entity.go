package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent   Status = "PRESENT"
	StatusAbsent    Status = "ABSENT"
	StatusHalfDay   Status = "HALF_DAY"
	StatusDeduction Status = "DEDUCTION"
)

// legacyStatusCodes are the short tokens the old system wrote into its CSV
// exports. Accepted on import for backwards compatibility.
var legacyStatusCodes = map[string]Status{
	"P":    StatusPresent,
	"A":    StatusAbsent,
	"-0.5": StatusHalfDay,
	"-1":   StatusDeduction,
}

// ParseStatus matches a raw token against the status enumeration,
// case-insensitively, including the legacy short codes.
func ParseStatus(token string) (Status, bool) {
	trimmed := strings.TrimSpace(token)
	switch strings.ToUpper(trimmed) {
	case "PRESENT":
		return StatusPresent, true
	case "ABSENT":
		return StatusAbsent, true
	case "HALFDAY", "HALF_DAY":
		return StatusHalfDay, true
	case "DEDUCTION":
		return StatusDeduction, true
	}
	if s, ok := legacyStatusCodes[trimmed]; ok {
		return s, true
	}
	return "", false
}

// RequiresWorkedHours reports whether the status implies presence.
func (s Status) RequiresWorkedHours() bool {
	return s == StatusPresent || s == StatusHalfDay
}

// RequiresDeductionReason reports whether a deduction reason must accompany
// the status.
func (s Status) RequiresDeductionReason() bool {
	return s == StatusDeduction
}

// MaxDailyHours bounds worked + overtime hours for one calendar day.
var MaxDailyHours = decimal.NewFromInt(24)

// RecordKey is the natural key of an attendance record. At most one record
// may exist per key.
type RecordKey struct {
	CompanyID  string
	EmployeeID string
	Date       time.Time
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.CompanyID, k.EmployeeID, k.Date.Format("2006-01-02"))
}

// Record is one employee's attendance for one calendar date in one company.
// Records are never physically deleted; superseded values live on in the
// audit trail.
type Record struct {
	ID               string
	CompanyID        string
	EmployeeID       string
	Date             time.Time
	Status           Status
	WorkedHours      decimal.Decimal
	OvertimeHours    decimal.Decimal
	DeductionReason  *string
	LastModifiedBy   string
	LastModifiedRole user.Role
	LastModifiedAt   time.Time
	CreatedAt        time.Time
}

func (r Record) Key() RecordKey {
	return RecordKey{CompanyID: r.CompanyID, EmployeeID: r.EmployeeID, Date: r.Date}
}

// SameValues compares the importable fields of two records. Bookkeeping
// fields (ids, last-modified metadata) are ignored so that re-importing an
// identical batch is a no-op.
func (r Record) SameValues(other Record) bool {
	if r.Status != other.Status {
		return false
	}
	if !r.WorkedHours.Equal(other.WorkedHours) {
		return false
	}
	if !r.OvertimeHours.Equal(other.OvertimeHours) {
		return false
	}
	return equalStringPtr(r.DeductionReason, other.DeductionReason)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// AuditEntry records one field-level state transition. Entries are append
// only; they are never mutated or deleted.
type AuditEntry struct {
	ID         string
	EntityType string
	EntityKey  string
	Field      string
	OldValue   *string
	NewValue   *string
	ActorID    string
	BatchID    *string
	CreatedAt  time.Time
}

const (
	EntityTypeRecord = "attendance_record"
	EntityTypeBatch  = "attendance_batch"
)
