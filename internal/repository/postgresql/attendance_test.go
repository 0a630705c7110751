package postgresql

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-import-go/internal/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *database.DB

// testInit connects to TEST_DATABASE_URL and provisions the tables these
// tests touch. Tests are skipped entirely when the variable is unset.
func testInit(t *testing.T) {
	t.Helper()
	if testDB != nil {
		return
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}

	var err error
	testDB, err = database.NewPostgreSQLDB(dsn, 4, 1)
	require.NoError(t, err, "failed to connect to test database")

	ctx := context.Background()
	schema := []string{
		`CREATE TABLE IF NOT EXISTS attendance_records (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id text NOT NULL,
			employee_id text NOT NULL,
			date date NOT NULL,
			status text NOT NULL,
			worked_hours numeric(5,2) NOT NULL DEFAULT 0,
			overtime_hours numeric(5,2) NOT NULL DEFAULT 0,
			deduction_reason text,
			last_modified_by text NOT NULL,
			last_modified_role text NOT NULL,
			last_modified_at timestamptz NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			UNIQUE (company_id, employee_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_entries (
			id uuid PRIMARY KEY,
			entity_type text NOT NULL,
			entity_key text NOT NULL,
			field text NOT NULL,
			old_value text,
			new_value text,
			actor_id text NOT NULL,
			batch_id text,
			created_at timestamptz NOT NULL
		)`,
	}
	for _, stmt := range schema {
		_, err := testDB.Exec(ctx, stmt)
		require.NoError(t, err)
	}
}

func truncateTables(t *testing.T, ctx context.Context) {
	t.Helper()
	for _, table := range []string{"attendance_records", "audit_entries"} {
		_, err := testDB.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		require.NoError(t, err)
	}
}

func testRecord(employeeID, date string) attendance.Record {
	d, _ := time.Parse("2006-01-02", date)
	return attendance.Record{
		CompanyID:        "co-test",
		EmployeeID:       employeeID,
		Date:             d,
		Status:           attendance.StatusPresent,
		WorkedHours:      decimal.RequireFromString("7.5"),
		OvertimeHours:    decimal.RequireFromString("1.25"),
		LastModifiedBy:   "usr-test",
		LastModifiedRole: user.RoleRoot,
		LastModifiedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestAttendanceRepository_InsertAndGetByKey(t *testing.T) {
	testInit(t)
	ctx := context.Background()
	truncateTables(t, ctx)
	repo := NewAttendanceRepository(testDB)

	inserted, err := repo.Insert(ctx, testRecord("emp-1", "2024-03-01"))
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
	assert.False(t, inserted.CreatedAt.IsZero())

	got, err := repo.GetByKey(ctx, inserted.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, inserted.ID, got.ID)
	assert.Equal(t, attendance.StatusPresent, got.Status)
	assert.True(t, got.WorkedHours.Equal(decimal.RequireFromString("7.5")), "numeric must survive the round trip exactly")
	assert.True(t, got.OvertimeHours.Equal(decimal.RequireFromString("1.25")))
	assert.Equal(t, user.RoleRoot, got.LastModifiedRole)
}

func TestAttendanceRepository_GetByKeyMissing(t *testing.T) {
	testInit(t)
	ctx := context.Background()
	truncateTables(t, ctx)
	repo := NewAttendanceRepository(testDB)

	got, err := repo.GetByKey(ctx, attendance.RecordKey{
		CompanyID: "co-test", EmployeeID: "emp-none", Date: time.Now(),
	})

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAttendanceRepository_NaturalKeyUnique(t *testing.T) {
	testInit(t)
	ctx := context.Background()
	truncateTables(t, ctx)
	repo := NewAttendanceRepository(testDB)

	_, err := repo.Insert(ctx, testRecord("emp-1", "2024-03-01"))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, testRecord("emp-1", "2024-03-01"))
	assert.ErrorIs(t, err, attendance.ErrDuplicateKey,
		"second insert for the same (company, employee, date) must surface the unique violation as a duplicate key")
}

func TestAttendanceRepository_Update(t *testing.T) {
	testInit(t)
	ctx := context.Background()
	truncateTables(t, ctx)
	repo := NewAttendanceRepository(testDB)

	inserted, err := repo.Insert(ctx, testRecord("emp-1", "2024-03-01"))
	require.NoError(t, err)

	inserted.Status = attendance.StatusHalfDay
	inserted.WorkedHours = decimal.RequireFromString("4")
	require.NoError(t, repo.Update(ctx, inserted))

	got, err := repo.GetByKey(ctx, inserted.Key())
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusHalfDay, got.Status)
	assert.True(t, got.WorkedHours.Equal(decimal.RequireFromString("4")))
}

func TestAttendanceRepository_UpdateMissing(t *testing.T) {
	testInit(t)
	ctx := context.Background()
	truncateTables(t, ctx)
	repo := NewAttendanceRepository(testDB)

	rec := testRecord("emp-1", "2024-03-01")
	rec.ID = "00000000-0000-0000-0000-000000000000"

	err := repo.Update(ctx, rec)
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestTxManager_RollbackOnError(t *testing.T) {
	testInit(t)
	ctx := context.Background()
	truncateTables(t, ctx)
	repo := NewAttendanceRepository(testDB)
	tx := NewTxManager(testDB)

	rec := testRecord("emp-1", "2024-03-01")
	boom := errors.New("boom")

	err := tx.WithinRow(ctx, rec.Key(), func(ctx context.Context) error {
		if _, err := repo.Insert(ctx, rec); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.GetByKey(ctx, rec.Key())
	require.NoError(t, err)
	assert.Nil(t, got, "the insert must roll back with the failed row")
}

func TestTxManager_CommitsOnSuccess(t *testing.T) {
	testInit(t)
	ctx := context.Background()
	truncateTables(t, ctx)
	repo := NewAttendanceRepository(testDB)
	audit := NewAuditLogRepository(testDB)
	tx := NewTxManager(testDB)

	rec := testRecord("emp-1", "2024-03-01")
	now := time.Now().UTC()
	value := "PRESENT"

	err := tx.WithinRow(ctx, rec.Key(), func(ctx context.Context) error {
		inserted, err := repo.Insert(ctx, rec)
		if err != nil {
			return err
		}
		return audit.Append(ctx, []attendance.AuditEntry{{
			ID:         "11111111-1111-1111-1111-111111111111",
			EntityType: attendance.EntityTypeRecord,
			EntityKey:  inserted.Key().String(),
			Field:      "status",
			NewValue:   &value,
			ActorID:    "usr-test",
			CreatedAt:  now,
		}})
	})
	require.NoError(t, err)

	got, err := repo.GetByKey(ctx, rec.Key())
	require.NoError(t, err)
	require.NotNil(t, got)

	entries, err := audit.ListByEntityKey(ctx, rec.Key().String())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "status", entries[0].Field)
}
