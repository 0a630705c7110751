package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/config"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/google/uuid"
)

// ImportServiceImpl is the batch coordinator: it streams rows through the
// parser, validation pipeline and reconciliation engine, in input order, and
// folds every per-row outcome into one BatchReport.
type ImportServiceImpl struct {
	scopes     *ScopeResolver
	validator  *Validator
	reconciler *Reconciler
	records    attendance.AttendanceRepository
	employees  employee.EmployeeRepository
	audit      attendance.AuditLogRepository

	maxBatchRows int
	rowTimeout   time.Duration
}

func NewImportService(
	users user.UserRepository,
	employees employee.EmployeeRepository,
	assignments employee.AssignmentRepository,
	records attendance.AttendanceRepository,
	audit attendance.AuditLogRepository,
	tx attendance.TxManager,
	cfg config.ImportConfig,
) *ImportServiceImpl {
	return &ImportServiceImpl{
		scopes:       NewScopeResolver(users, assignments),
		validator:    NewValidator(employees),
		reconciler:   NewReconciler(records, audit, tx),
		records:      records,
		employees:    employees,
		audit:        audit,
		maxBatchRows: cfg.MaxBatchRows,
		rowTimeout:   cfg.RowTimeout,
	}
}

// Import implements attendance.ImportService. Only whole-batch fatal
// conditions are returned as errors; every row-level failure lands in the
// report and processing continues.
func (s *ImportServiceImpl) Import(ctx context.Context, actorID string, rows []attendance.RawRow, opts attendance.ImportOptions) (attendance.BatchReport, error) {
	if err := opts.Validate(); err != nil {
		return attendance.BatchReport{}, err
	}
	if len(rows) > s.maxBatchRows {
		return attendance.BatchReport{}, attendance.ErrBatchTooLarge
	}

	actor, scope, err := s.scopes.Resolve(ctx, actorID)
	if err != nil {
		return attendance.BatchReport{}, err
	}
	if scope.IsEmpty() {
		return attendance.BatchReport{}, attendance.ErrNotAuthorized
	}

	submittedAt := time.Now().UTC()
	report := attendance.BatchReport{
		BatchID:   uuid.NewString(),
		DryRun:    opts.DryRun,
		TotalRows: len(rows),
		Rows:      make([]attendance.RowResult, 0, len(rows)),
	}
	seen := make(map[attendance.RecordKey]struct{}, len(rows))

	for _, raw := range rows {
		// Cancellation between rows: committed rows stay committed, the
		// report covers the work done so far.
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		cand := ParseRow(raw)
		if cand.Err != nil {
			addRejected(&report, raw.Number, attendance.RejectionParseError, cand.Err.Error())
			continue
		}

		outcome, rejection, reason, truncate, cancelled := s.processRow(ctx, cand, actor, scope, seen, opts, report.BatchID, submittedAt)
		if cancelled {
			// The cancel landed inside this row's store work. The row was
			// not committed, so it is not counted; the report just stops.
			report.Cancelled = true
			break
		}
		if rejection != "" {
			addRejected(&report, raw.Number, rejection, reason)
		} else {
			addOutcome(&report, raw.Number, outcome, reason)
		}
		if truncate {
			report.Truncated = true
			break
		}
	}

	if !opts.DryRun && report.Mutations() > 0 {
		// Batch-level audit entry mirrors the legacy IMPORT log. Best
		// effort: a failure here must not invalidate committed rows.
		_ = s.audit.Append(ctx, []attendance.AuditEntry{batchAudit(report, actor.ID)})
	}

	return report, nil
}

// processRow runs validation and reconciliation for one parsed row under the
// per-row store timeout.
func (s *ImportServiceImpl) processRow(
	ctx context.Context,
	cand Candidate,
	actor user.User,
	scope *ScopeSet,
	seen map[attendance.RecordKey]struct{},
	opts attendance.ImportOptions,
	batchID string,
	submittedAt time.Time,
) (outcome attendance.OutcomeKind, rejection attendance.RejectionKind, reason string, truncate, cancelled bool) {
	rowCtx, cancel := context.WithTimeout(ctx, s.rowTimeout)
	defer cancel()

	valid, rej, err := s.validator.Validate(rowCtx, cand, scope, seen, submittedAt)
	if err != nil {
		rejection, reason, truncate, cancelled = storeFailure(err)
		return
	}
	if rej != nil {
		return "", rej.Kind, rej.Reason, false, false
	}

	outcome, reason, err = s.reconciler.Reconcile(rowCtx, *valid, actor, opts.Policy, batchID, opts.DryRun)
	if err != nil {
		outcome = ""
		rejection, reason, truncate, cancelled = storeFailure(err)
		return
	}
	return outcome, "", reason, false, false
}

// storeFailure classifies a store error. Timeouts and plain errors reject
// the single row, an unavailable store truncates the remaining batch, and a
// batch-level cancel is not a rejection at all.
func storeFailure(err error) (rejection attendance.RejectionKind, reason string, truncate, cancelled bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return "", "", false, true
	case errors.Is(err, context.DeadlineExceeded):
		return attendance.RejectionStoreTimeout, "store interaction timed out", false, false
	case errors.Is(err, attendance.ErrStoreUnavailable):
		return attendance.RejectionStoreError, attendance.ErrStoreUnavailable.Error(), true, false
	default:
		return attendance.RejectionStoreError, err.Error(), false, false
	}
}

func addOutcome(report *attendance.BatchReport, row int, outcome attendance.OutcomeKind, reason string) {
	switch outcome {
	case attendance.OutcomeInserted:
		report.Inserted++
	case attendance.OutcomeUpdated:
		report.Updated++
	case attendance.OutcomeSkippedUnchanged:
		report.SkippedUnchanged++
	case attendance.OutcomeConflict:
		report.Conflicts++
	}
	report.Rows = append(report.Rows, attendance.RowResult{
		RowNumber: row,
		Outcome:   outcome,
		Reason:    reason,
	})
}

func addRejected(report *attendance.BatchReport, row int, kind attendance.RejectionKind, reason string) {
	report.Rejected++
	report.Rows = append(report.Rows, attendance.RowResult{
		RowNumber: row,
		Outcome:   attendance.OutcomeRejected,
		Rejection: kind,
		Reason:    reason,
	})
}

func batchAudit(report attendance.BatchReport, actorID string) attendance.AuditEntry {
	summary := fmt.Sprintf("rows=%d inserted=%d updated=%d skipped=%d conflicts=%d rejected=%d",
		report.TotalRows, report.Inserted, report.Updated, report.SkippedUnchanged, report.Conflicts, report.Rejected)
	batchID := report.BatchID
	return attendance.AuditEntry{
		ID:         uuid.NewString(),
		EntityType: attendance.EntityTypeBatch,
		EntityKey:  report.BatchID,
		Field:      "summary",
		NewValue:   &summary,
		ActorID:    actorID,
		BatchID:    &batchID,
		CreatedAt:  time.Now().UTC(),
	}
}
