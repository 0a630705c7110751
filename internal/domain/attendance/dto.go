package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/validator"
)

// ========================================
// BATCH IMPORT DTOs
// ========================================

// Policy selects the reconciliation behavior for records that already exist
// with different values.
type Policy string

const (
	// PolicyOverwrite updates differing records, subject to the privilege
	// ordering (an actor never overwrites a higher-privileged actor's write).
	PolicyOverwrite Policy = "overwrite"
	// PolicyNoClobber reports every differing record as a conflict and
	// leaves the stored record untouched.
	PolicyNoClobber Policy = "no-clobber"
)

type ImportOptions struct {
	Policy Policy
	DryRun bool
}

func (o *ImportOptions) Validate() error {
	var errs validator.ValidationErrors

	if o.Policy == "" {
		o.Policy = PolicyOverwrite
	}
	if !validator.IsInSlice(string(o.Policy), []string{string(PolicyOverwrite), string(PolicyNoClobber)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "policy",
			Message: "policy must be 'overwrite' or 'no-clobber'",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RawRow is one unparsed batch line. Fields are positional:
// employee_id, date, status, worked_hours, overtime_hours, deduction_reason.
type RawRow struct {
	Number int
	Fields []string
}

type OutcomeKind string

const (
	OutcomeInserted         OutcomeKind = "INSERTED"
	OutcomeUpdated          OutcomeKind = "UPDATED"
	OutcomeSkippedUnchanged OutcomeKind = "SKIPPED_UNCHANGED"
	OutcomeConflict         OutcomeKind = "CONFLICT"
	OutcomeRejected         OutcomeKind = "REJECTED"
)

// RejectionKind classifies why a row was rejected.
type RejectionKind string

const (
	RejectionParseError         RejectionKind = "PARSE_ERROR"
	RejectionOutOfScope         RejectionKind = "OUT_OF_SCOPE"
	RejectionInvalidDate        RejectionKind = "INVALID_DATE"
	RejectionDuplicateInBatch   RejectionKind = "DUPLICATE_IN_BATCH"
	RejectionInconsistentFields RejectionKind = "INCONSISTENT_FIELDS"
	RejectionStoreTimeout       RejectionKind = "STORE_TIMEOUT"
	RejectionStoreError         RejectionKind = "STORE_ERROR"
)

// RowResult is the per-row outcome in batch input order.
type RowResult struct {
	RowNumber int           `json:"row_number"`
	Outcome   OutcomeKind   `json:"outcome"`
	Rejection RejectionKind `json:"rejection,omitempty"`
	Reason    string        `json:"reason,omitempty"`
}

// BatchReport summarizes one coordinator invocation.
type BatchReport struct {
	BatchID          string      `json:"batch_id"`
	DryRun           bool        `json:"dry_run"`
	TotalRows        int         `json:"total_rows"`
	Inserted         int         `json:"inserted"`
	Updated          int         `json:"updated"`
	SkippedUnchanged int         `json:"skipped_unchanged"`
	Conflicts        int         `json:"conflicts"`
	Rejected         int         `json:"rejected"`
	Cancelled        bool        `json:"cancelled,omitempty"`
	Truncated        bool        `json:"truncated,omitempty"`
	Rows             []RowResult `json:"rows"`
}

// Mutations reports how many rows changed stored state.
func (r *BatchReport) Mutations() int {
	return r.Inserted + r.Updated
}

// ========================================
// LISTING / EXPORT DTOs
// ========================================

type ListFilter struct {
	EmployeeID *string
	StartDate  *time.Time
	EndDate    *time.Time
}

type RecordResponse struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"company_id"`
	EmployeeID      string  `json:"employee_id"`
	Date            string  `json:"date"`
	Status          Status  `json:"status"`
	WorkedHours     string  `json:"worked_hours"`
	OvertimeHours   string  `json:"overtime_hours"`
	DeductionReason *string `json:"deduction_reason,omitempty"`
	LastModifiedBy  string  `json:"last_modified_by"`
	LastModifiedAt  string  `json:"last_modified_at"`
}

func NewRecordResponse(rec Record) RecordResponse {
	return RecordResponse{
		ID:              rec.ID,
		CompanyID:       rec.CompanyID,
		EmployeeID:      rec.EmployeeID,
		Date:            rec.Date.Format("2006-01-02"),
		Status:          rec.Status,
		WorkedHours:     rec.WorkedHours.String(),
		OvertimeHours:   rec.OvertimeHours.String(),
		DeductionReason: rec.DeductionReason,
		LastModifiedBy:  rec.LastModifiedBy,
		LastModifiedAt:  rec.LastModifiedAt.Format(time.RFC3339),
	}
}

type AuditEntryResponse struct {
	ID        string  `json:"id"`
	EntityKey string  `json:"entity_key"`
	Field     string  `json:"field"`
	OldValue  *string `json:"old_value"`
	NewValue  *string `json:"new_value"`
	ActorID   string  `json:"actor_id"`
	BatchID   *string `json:"batch_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func NewAuditEntryResponse(e AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:        e.ID,
		EntityKey: e.EntityKey,
		Field:     e.Field,
		OldValue:  e.OldValue,
		NewValue:  e.NewValue,
		ActorID:   e.ActorID,
		BatchID:   e.BatchID,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}
