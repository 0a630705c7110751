package attendance

import "context"

// ImportService defines the bulk attendance ingestion operations.
type ImportService interface {
	// Import runs one batch through parse, validation and reconciliation
	// and returns the per-row report. Only whole-batch fatal conditions
	// (no scope at all, batch too large) are returned as errors.
	Import(ctx context.Context, actorID string, rows []RawRow, opts ImportOptions) (BatchReport, error)

	// List retrieves attendance records visible to the actor.
	List(ctx context.Context, actorID string, filter ListFilter) ([]RecordResponse, error)

	// Export renders the actor-visible records as CSV rows, header included.
	Export(ctx context.Context, actorID string, filter ListFilter) ([][]string, error)

	// Template renders the CSV header plus one prefill row per employee the
	// actor may currently submit for.
	Template(ctx context.Context, actorID string) ([][]string, error)

	// AuditTrail returns the audit entries for one natural key, newest first.
	AuditTrail(ctx context.Context, actorID string, key RecordKey) ([]AuditEntryResponse, error)

	// BatchAudit returns the audit entries recorded for one batch run.
	// Restricted to the platform administrator.
	BatchAudit(ctx context.Context, actorID string, batchID string) ([]AuditEntryResponse, error)
}
