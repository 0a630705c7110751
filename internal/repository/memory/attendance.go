package memory

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/google/uuid"
)

// AttendanceStore is an in-process implementation of the record store, the
// audit trail and the per-row transaction scope. It backs the unit tests and
// small single-node deployments.
type AttendanceStore struct {
	mu      sync.RWMutex
	records map[string]attendance.Record
	audits  []attendance.AuditEntry

	lockMu   sync.Mutex
	rowLocks map[string]*sync.Mutex

	failWith error
}

func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{
		records:  make(map[string]attendance.Record),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

// FailWith makes every subsequent store interaction return err. Used to
// exercise the truncation and per-row store failure paths.
func (s *AttendanceStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *AttendanceStore) failure() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failWith
}

// GetByKey implements attendance.AttendanceRepository.
func (s *AttendanceStore) GetByKey(ctx context.Context, key attendance.RecordKey) (*attendance.Record, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key.String()]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

// Insert implements attendance.AttendanceRepository.
func (s *AttendanceStore) Insert(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if err := s.failure(); err != nil {
		return attendance.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := rec.Key().String()
	if _, exists := s.records[k]; exists {
		return attendance.Record{}, attendance.ErrDuplicateKey
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = rec.LastModifiedAt
	s.records[k] = rec
	return rec, nil
}

// Update implements attendance.AttendanceRepository.
func (s *AttendanceStore) Update(ctx context.Context, rec attendance.Record) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := rec.Key().String()
	if _, exists := s.records[k]; !exists {
		return attendance.ErrRecordNotFound
	}
	s.records[k] = rec
	return nil
}

// ListByCompany implements attendance.AttendanceRepository.
func (s *AttendanceStore) ListByCompany(ctx context.Context, companyID string, filter attendance.ListFilter) ([]attendance.Record, error) {
	return s.listWhere(func(rec attendance.Record) bool {
		return rec.CompanyID == companyID && matchesFilter(rec, filter)
	})
}

// ListAll implements attendance.AttendanceRepository.
func (s *AttendanceStore) ListAll(ctx context.Context, filter attendance.ListFilter) ([]attendance.Record, error) {
	return s.listWhere(func(rec attendance.Record) bool {
		return matchesFilter(rec, filter)
	})
}

func (s *AttendanceStore) listWhere(keep func(attendance.Record) bool) ([]attendance.Record, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []attendance.Record
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func matchesFilter(rec attendance.Record, filter attendance.ListFilter) bool {
	if filter.EmployeeID != nil && *filter.EmployeeID != "" && rec.EmployeeID != *filter.EmployeeID {
		return false
	}
	if filter.StartDate != nil && rec.Date.Before(*filter.StartDate) {
		return false
	}
	if filter.EndDate != nil && rec.Date.After(*filter.EndDate) {
		return false
	}
	return true
}

func sortRecords(records []attendance.Record) {
	// date then employee, matching the SQL repository's ordering
	for i := 1; i < len(records); i++ {
		for j := i; j > 0 && recordLess(records[j], records[j-1]); j-- {
			records[j], records[j-1] = records[j-1], records[j]
		}
	}
}

func recordLess(a, b attendance.Record) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.EmployeeID < b.EmployeeID
}

// Append implements attendance.AuditLogRepository.
func (s *AttendanceStore) Append(ctx context.Context, entries []attendance.AuditEntry) error {
	if err := s.failure(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, entries...)
	return nil
}

// ListByEntityKey implements attendance.AuditLogRepository.
func (s *AttendanceStore) ListByEntityKey(ctx context.Context, entityKey string) ([]attendance.AuditEntry, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []attendance.AuditEntry
	// newest first
	for i := len(s.audits) - 1; i >= 0; i-- {
		if s.audits[i].EntityKey == entityKey {
			out = append(out, s.audits[i])
		}
	}
	return out, nil
}

// WithinRow implements attendance.TxManager with a mutex per natural key.
// No cross-row atomicity; each row's mutation is its own unit, which is the
// commit discipline the coordinator wants anyway.
func (s *AttendanceStore) WithinRow(ctx context.Context, key attendance.RecordKey, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mu := s.rowLock(key.String())
	mu.Lock()
	defer mu.Unlock()
	return fn(ctx)
}

func (s *AttendanceStore) rowLock(key string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.rowLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.rowLocks[key] = mu
	}
	return mu
}

// Seed inserts a record directly, bypassing reconciliation. Test helper.
func (s *AttendanceStore) Seed(rec attendance.Record) attendance.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.records[rec.Key().String()] = rec
	return rec
}

// AuditEntries returns a copy of every appended entry, oldest first.
func (s *AttendanceStore) AuditEntries() []attendance.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]attendance.AuditEntry, len(s.audits))
	copy(out, s.audits)
	return out
}

// Len returns the number of stored records.
func (s *AttendanceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
