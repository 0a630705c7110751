package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/database"
)

type auditLogRepository struct {
	db *database.DB
}

func NewAuditLogRepository(db *database.DB) attendance.AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Append implements attendance.AuditLogRepository. Entries are insert-only;
// there is no update or delete path.
func (a *auditLogRepository) Append(ctx context.Context, entries []attendance.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO audit_entries (
			id, entity_type, entity_key, field, old_value, new_value,
			actor_id, batch_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, e := range entries {
		if _, err := q.Exec(ctx, query,
			e.ID, e.EntityType, e.EntityKey, e.Field, e.OldValue, e.NewValue,
			e.ActorID, e.BatchID, e.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}
	}

	return nil
}

// ListByEntityKey implements attendance.AuditLogRepository.
func (a *auditLogRepository) ListByEntityKey(ctx context.Context, entityKey string) ([]attendance.AuditEntry, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, entity_type, entity_key, field, old_value, new_value,
			   actor_id, batch_id, created_at
		FROM audit_entries
		WHERE entity_key = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := q.Query(ctx, query, entityKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []attendance.AuditEntry
	for rows.Next() {
		var e attendance.AuditEntry
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityKey, &e.Field, &e.OldValue, &e.NewValue,
			&e.ActorID, &e.BatchID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit entries: %w", err)
	}

	return entries, nil
}
