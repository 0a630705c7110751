package attendance

import "errors"

// Whole-batch fatal errors. Everything row-level is folded into the
// BatchReport instead of being returned.
var (
	ErrNotAuthorized    = errors.New("actor is not authorized to submit attendance batches")
	ErrBatchTooLarge    = errors.New("batch exceeds the maximum number of rows")
	ErrRecordNotFound   = errors.New("attendance record not found")
	ErrStoreUnavailable = errors.New("attendance store is unavailable")

	// ErrDuplicateKey reports a natural-key collision on insert. The store
	// is healthy; only the single row loses.
	ErrDuplicateKey = errors.New("attendance record already exists for this natural key")
)
