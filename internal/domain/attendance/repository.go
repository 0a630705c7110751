package attendance

import "context"

// AttendanceRepository defines data access for attendance records. Lookups
// are by the (company, employee, date) natural key; the store enforces its
// uniqueness.
type AttendanceRepository interface {
	// GetByKey returns the record for the natural key, or nil when none
	// exists.
	GetByKey(ctx context.Context, key RecordKey) (*Record, error)

	// Insert creates a new record. The natural key must not already exist.
	Insert(ctx context.Context, rec Record) (Record, error)

	// Update replaces the importable fields of an existing record.
	Update(ctx context.Context, rec Record) error

	// ListByCompany retrieves records for one company with optional filters,
	// ordered by date then employee.
	ListByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Record, error)

	// ListAll retrieves records across companies (master exports).
	ListAll(ctx context.Context, filter ListFilter) ([]Record, error)
}

// AuditLogRepository is the append-only audit trail.
type AuditLogRepository interface {
	Append(ctx context.Context, entries []AuditEntry) error
	ListByEntityKey(ctx context.Context, entityKey string) ([]AuditEntry, error)
}

// TxManager scopes one row's read-modify-write to a transaction holding a
// key-level lock, so two concurrent batches cannot both read the same stale
// record and both decide to insert.
type TxManager interface {
	WithinRow(ctx context.Context, key RecordKey, fn func(ctx context.Context) error) error
}
