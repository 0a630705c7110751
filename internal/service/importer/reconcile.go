package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/google/uuid"
)

// Reconciler merges valid candidates against stored records. Each row's
// mutation and its audit entries commit as one atomic unit under a
// key-scoped transaction.
type Reconciler struct {
	records attendance.AttendanceRepository
	audit   attendance.AuditLogRepository
	tx      attendance.TxManager
}

func NewReconciler(records attendance.AttendanceRepository, audit attendance.AuditLogRepository, tx attendance.TxManager) *Reconciler {
	return &Reconciler{records: records, audit: audit, tx: tx}
}

// Reconcile decides insert/update/skip/conflict for one candidate. In dry
// run the decision is computed against current state but nothing is written.
func (r *Reconciler) Reconcile(ctx context.Context, cand ValidCandidate, actor user.User, policy attendance.Policy, batchID string, dryRun bool) (attendance.OutcomeKind, string, error) {
	var outcome attendance.OutcomeKind
	var reason string

	err := r.tx.WithinRow(ctx, cand.Key, func(ctx context.Context) error {
		existing, err := r.records.GetByKey(ctx, cand.Key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		candidate := r.buildRecord(cand, actor, now)

		if existing == nil {
			if !dryRun {
				created, err := r.records.Insert(ctx, candidate)
				if err != nil {
					return err
				}
				if err := r.audit.Append(ctx, insertAudits(created, actor.ID, batchID, now)); err != nil {
					return err
				}
			}
			outcome = attendance.OutcomeInserted
			return nil
		}

		if existing.SameValues(candidate) {
			// Idempotent re-import: no mutation, no audit noise.
			outcome = attendance.OutcomeSkippedUnchanged
			return nil
		}

		if existing.LastModifiedRole.Outranks(actor.Role) {
			outcome = attendance.OutcomeConflict
			reason = fmt.Sprintf("record last modified by higher-privileged role %s", existing.LastModifiedRole)
			return nil
		}
		if policy == attendance.PolicyNoClobber {
			outcome = attendance.OutcomeConflict
			reason = "existing record differs and batch policy is no-clobber"
			return nil
		}

		if !dryRun {
			updated := *existing
			updated.Status = candidate.Status
			updated.WorkedHours = candidate.WorkedHours
			updated.OvertimeHours = candidate.OvertimeHours
			updated.DeductionReason = candidate.DeductionReason
			updated.LastModifiedBy = actor.ID
			updated.LastModifiedRole = actor.Role
			updated.LastModifiedAt = now

			if err := r.records.Update(ctx, updated); err != nil {
				return err
			}
			if err := r.audit.Append(ctx, updateAudits(*existing, updated, actor.ID, batchID, now)); err != nil {
				return err
			}
		}
		outcome = attendance.OutcomeUpdated
		return nil
	})
	if err != nil {
		return "", "", err
	}

	return outcome, reason, nil
}

func (r *Reconciler) buildRecord(cand ValidCandidate, actor user.User, now time.Time) attendance.Record {
	return attendance.Record{
		CompanyID:        cand.CompanyID,
		EmployeeID:       cand.Key.EmployeeID,
		Date:             cand.Key.Date,
		Status:           cand.Status,
		WorkedHours:      cand.WorkedHours,
		OvertimeHours:    cand.OvertimeHours,
		DeductionReason:  cand.DeductionReason,
		LastModifiedBy:   actor.ID,
		LastModifiedRole: actor.Role,
		LastModifiedAt:   now,
	}
}

// fieldValue is one auditable field of a record rendered as text.
type fieldValue struct {
	name  string
	value *string
}

func recordFields(rec attendance.Record) []fieldValue {
	status := string(rec.Status)
	worked := rec.WorkedHours.String()
	overtime := rec.OvertimeHours.String()
	return []fieldValue{
		{name: "status", value: &status},
		{name: "worked_hours", value: &worked},
		{name: "overtime_hours", value: &overtime},
		{name: "deduction_reason", value: rec.DeductionReason},
	}
}

// insertAudits emits one entry per populated field with a nil old value.
func insertAudits(rec attendance.Record, actorID, batchID string, now time.Time) []attendance.AuditEntry {
	var entries []attendance.AuditEntry
	for _, f := range recordFields(rec) {
		if f.value == nil {
			continue
		}
		entries = append(entries, newAudit(rec.Key(), f.name, nil, f.value, actorID, batchID, now))
	}
	return entries
}

// updateAudits emits one entry per changed field, old and new values both
// recorded.
func updateAudits(before, after attendance.Record, actorID, batchID string, now time.Time) []attendance.AuditEntry {
	beforeFields := recordFields(before)
	afterFields := recordFields(after)

	var entries []attendance.AuditEntry
	for i, f := range afterFields {
		if equalValue(beforeFields[i].value, f.value) {
			continue
		}
		entries = append(entries, newAudit(after.Key(), f.name, beforeFields[i].value, f.value, actorID, batchID, now))
	}
	return entries
}

func newAudit(key attendance.RecordKey, field string, oldValue, newValue *string, actorID, batchID string, now time.Time) attendance.AuditEntry {
	id := batchID
	return attendance.AuditEntry{
		ID:         uuid.NewString(),
		EntityType: attendance.EntityTypeRecord,
		EntityKey:  key.String(),
		Field:      field,
		OldValue:   oldValue,
		NewValue:   newValue,
		ActorID:    actorID,
		BatchID:    &id,
		CreatedAt:  now,
	}
}

func equalValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
