package importer

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/config"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overwrite() attendance.ImportOptions {
	return attendance.ImportOptions{Policy: attendance.PolicyOverwrite}
}

func TestImport_MixedBatch(t *testing.T) {
	env := newTestEnv()

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "PRESENT", "8", "1", ""),
		row(2, empAnaID, "2024-03-02", "ABSENT", "", "", ""),
		row(3, empCaraID, "2024-03-01", "DEDUCTION", "", "", "unapproved leave"),
	}

	report, err := env.service.Import(context.Background(), rootAcmeID, rows, overwrite())

	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 0, report.Rejected)
	assert.False(t, report.Cancelled)
	assert.False(t, report.Truncated)
	assert.NotEmpty(t, report.BatchID)
	require.Len(t, report.Rows, 3)
	for i, rr := range report.Rows {
		assert.Equal(t, i+1, rr.RowNumber)
		assert.Equal(t, attendance.OutcomeInserted, rr.Outcome)
	}
	assert.Equal(t, 3, env.attendance.Len())
}

func TestImport_DuplicateRowsLaterLoses(t *testing.T) {
	env := newTestEnv()

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "PRESENT", "8", "", ""),
		row(2, empAnaID, "2024-03-01", "ABSENT", "", "", ""),
	}

	report, err := env.service.Import(context.Background(), rootAcmeID, rows, overwrite())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Rejected)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, attendance.OutcomeInserted, report.Rows[0].Outcome)
	assert.Equal(t, attendance.OutcomeRejected, report.Rows[1].Outcome)
	assert.Equal(t, attendance.RejectionDuplicateInBatch, report.Rows[1].Rejection)

	// the first row's values won
	stored, err := env.attendance.GetByKey(context.Background(), attendance.RecordKey{
		CompanyID: companyAcme, EmployeeID: empAnaID, Date: day("2024-03-01"),
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, attendance.StatusPresent, stored.Status)
}

func TestImport_MalformedRowDoesNotPoisonOthers(t *testing.T) {
	env := newTestEnv()

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-13-40", "PRESENT", "8", "", ""),
		row(2, empAnaID, "2024-03-02", "PRESENT", "8", "", ""),
	}

	report, err := env.service.Import(context.Background(), rootAcmeID, rows, overwrite())

	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, attendance.RejectionParseError, report.Rows[0].Rejection)
	assert.Equal(t, attendance.OutcomeInserted, report.Rows[1].Outcome)
	assert.Equal(t, 1, env.attendance.Len())
}

func TestImport_IdempotentReimport(t *testing.T) {
	env := newTestEnv()

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "PRESENT", "8", "1", ""),
		row(2, empAnaID, "2024-03-02", "ABSENT", "", "", ""),
	}

	first, err := env.service.Import(context.Background(), rootAcmeID, rows, overwrite())
	require.NoError(t, err)
	require.Equal(t, 2, first.Inserted)
	auditCount := len(env.attendance.AuditEntries())

	second, err := env.service.Import(context.Background(), rootAcmeID, rows, overwrite())
	require.NoError(t, err)

	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 2, second.SkippedUnchanged)
	assert.Len(t, env.attendance.AuditEntries(), auditCount, "re-import must leave the audit trail untouched")
}

func TestImport_SupervisorScopeEnforced(t *testing.T) {
	env := newTestEnv()

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "PRESENT", "8", "", ""),  // assigned, open window
		row(2, empCaraID, "2024-03-01", "PRESENT", "8", "", ""), // never assigned
		row(3, empBobID, "2024-03-01", "PRESENT", "8", "", ""),  // window closed 2024-01-31
	}

	report, err := env.service.Import(context.Background(), supervisorID, rows, overwrite())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 2, report.Rejected)
	assert.Equal(t, attendance.OutcomeInserted, report.Rows[0].Outcome)
	assert.Equal(t, attendance.RejectionOutOfScope, report.Rows[1].Rejection)
	assert.Equal(t, attendance.RejectionOutOfScope, report.Rows[2].Rejection)
}

func TestImport_EmployeeCannotSubmit(t *testing.T) {
	env := newTestEnv()

	rows := []attendance.RawRow{row(1, empAnaID, "2024-03-01", "ABSENT")}
	_, err := env.service.Import(context.Background(), employeeUID, rows, overwrite())

	assert.ErrorIs(t, err, attendance.ErrNotAuthorized)
}

func TestImport_SupervisorWithEmptyScopeRejectedOutright(t *testing.T) {
	env := newTestEnv()
	env.users.AddUser(user.User{ID: "usr-idle", Role: user.RoleSupervisor, IsActive: true})

	rows := []attendance.RawRow{row(1, empAnaID, "2024-03-01", "ABSENT")}
	_, err := env.service.Import(context.Background(), "usr-idle", rows, overwrite())

	assert.ErrorIs(t, err, attendance.ErrNotAuthorized)
}

func TestImport_BatchTooLarge(t *testing.T) {
	env := newTestEnv()
	small := NewImportService(env.users, env.employees, env.employees, env.attendance, env.attendance, env.attendance,
		config.ImportConfig{MaxBatchRows: 1, RowTimeout: time.Second})

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "ABSENT"),
		row(2, empAnaID, "2024-03-02", "ABSENT"),
	}

	_, err := small.Import(context.Background(), rootAcmeID, rows, overwrite())

	assert.ErrorIs(t, err, attendance.ErrBatchTooLarge)
	assert.Equal(t, 0, env.attendance.Len(), "an oversized batch must process no rows at all")
}

func TestImport_DryRunPreviewsWithoutWriting(t *testing.T) {
	env := newTestEnv()
	env.attendance.Seed(attendance.Record{
		CompanyID: companyAcme, EmployeeID: empAnaID, Date: day("2024-03-01"),
		Status: attendance.StatusAbsent, WorkedHours: dec("0"), OvertimeHours: dec("0"),
		LastModifiedBy: rootAcmeID, LastModifiedRole: user.RoleRoot,
	})

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "PRESENT", "8", "", ""), // would update
		row(2, empAnaID, "2024-03-02", "ABSENT", "", "", ""),   // would insert
	}

	report, err := env.service.Import(context.Background(), rootAcmeID, rows, attendance.ImportOptions{
		Policy: attendance.PolicyOverwrite,
		DryRun: true,
	})

	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, env.attendance.Len(), "dry run must not write records")
	assert.Empty(t, env.attendance.AuditEntries(), "dry run must not write audit entries")
}

func TestImport_UnavailableStoreTruncatesBatch(t *testing.T) {
	env := newTestEnv()
	env.attendance.FailWith(attendance.ErrStoreUnavailable)

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "ABSENT"),
		row(2, empAnaID, "2024-03-02", "ABSENT"),
		row(3, empAnaID, "2024-03-03", "ABSENT"),
	}

	report, err := env.service.Import(context.Background(), rootAcmeID, rows, overwrite())

	require.NoError(t, err)
	assert.True(t, report.Truncated)
	require.Len(t, report.Rows, 1, "rows after the failure must stay unprocessed")
	assert.Equal(t, attendance.RejectionStoreError, report.Rows[0].Rejection)
}

func TestImport_RowTimeoutRejectsSingleRow(t *testing.T) {
	env := newTestEnv()
	instant := NewImportService(env.users, env.employees, env.employees, env.attendance, env.attendance, env.attendance,
		config.ImportConfig{MaxBatchRows: 100, RowTimeout: time.Nanosecond})

	rows := []attendance.RawRow{row(1, empAnaID, "2024-03-01", "ABSENT")}

	report, err := instant.Import(context.Background(), rootAcmeID, rows, overwrite())

	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, attendance.RejectionStoreTimeout, report.Rows[0].Rejection)
	assert.False(t, report.Truncated, "a timed-out row must not truncate the batch")
}

func TestImport_CancellationBetweenRows(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(context.Background())
	tx := &cancelAfterTx{inner: env.attendance, cancel: cancel, after: 1}
	service := NewImportService(env.users, env.employees, env.employees, env.attendance, env.attendance, tx,
		config.ImportConfig{MaxBatchRows: 100, RowTimeout: time.Second})

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "ABSENT"),
		row(2, empAnaID, "2024-03-02", "ABSENT"),
		row(3, empAnaID, "2024-03-03", "ABSENT"),
	}

	report, err := service.Import(ctx, rootAcmeID, rows, overwrite())

	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	require.Len(t, report.Rows, 1, "cancellation lands between rows")
	assert.Equal(t, attendance.OutcomeInserted, report.Rows[0].Outcome)
	assert.Equal(t, 1, env.attendance.Len(), "committed rows stay committed")
}

func TestImport_CancellationMidRowIsNotARejection(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(context.Background())
	tx := &cancelDuringTx{inner: env.attendance, cancel: cancel}
	service := NewImportService(env.users, env.employees, env.employees, env.attendance, env.attendance, tx,
		config.ImportConfig{MaxBatchRows: 100, RowTimeout: time.Second})

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "ABSENT"),
		row(2, empAnaID, "2024-03-02", "ABSENT"),
	}

	report, err := service.Import(ctx, rootAcmeID, rows, overwrite())

	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Equal(t, 0, report.Rejected, "a cancelled row is not a store failure")
	assert.Empty(t, report.Rows, "the uncommitted row must not be counted")
	assert.Equal(t, 0, env.attendance.Len())
}

func TestImport_DuplicateKeyRejectsWithoutTruncating(t *testing.T) {
	env := newTestEnv()
	env.attendance.FailWith(attendance.ErrDuplicateKey)

	rows := []attendance.RawRow{
		row(1, empAnaID, "2024-03-01", "ABSENT"),
		row(2, empAnaID, "2024-03-02", "ABSENT"),
	}

	report, err := env.service.Import(context.Background(), rootAcmeID, rows, overwrite())

	require.NoError(t, err)
	assert.False(t, report.Truncated, "a lost insert race affects only its own row")
	assert.Equal(t, 2, report.Rejected)
	require.Len(t, report.Rows, 2)
	for _, rr := range report.Rows {
		assert.Equal(t, attendance.RejectionStoreError, rr.Rejection)
	}
}

func TestImport_WritesBatchAuditEntry(t *testing.T) {
	env := newTestEnv()

	rows := []attendance.RawRow{row(1, empAnaID, "2024-03-01", "ABSENT")}
	report, err := env.service.Import(context.Background(), rootAcmeID, rows, overwrite())
	require.NoError(t, err)

	var batchEntries []attendance.AuditEntry
	for _, e := range env.attendance.AuditEntries() {
		if e.EntityType == attendance.EntityTypeBatch {
			batchEntries = append(batchEntries, e)
		}
	}
	require.Len(t, batchEntries, 1)
	assert.Equal(t, report.BatchID, batchEntries[0].EntityKey)
	assert.Equal(t, rootAcmeID, batchEntries[0].ActorID)
	require.NotNil(t, batchEntries[0].NewValue)
	assert.Contains(t, *batchEntries[0].NewValue, "inserted=1")
}

func TestImport_NoBatchAuditWithoutMutations(t *testing.T) {
	env := newTestEnv()

	rows := []attendance.RawRow{row(1, "emp-ghost", "2024-03-01", "ABSENT")}
	_, err := env.service.Import(context.Background(), rootAcmeID, rows, overwrite())
	require.NoError(t, err)

	for _, e := range env.attendance.AuditEntries() {
		assert.NotEqual(t, attendance.EntityTypeBatch, e.EntityType)
	}
}

func TestImport_InvalidPolicyRejected(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.Import(context.Background(), rootAcmeID, nil, attendance.ImportOptions{Policy: "merge"})

	assert.Error(t, err)
}

// cancelAfterTx cancels the batch context once `after` rows have committed.
type cancelAfterTx struct {
	inner  attendance.TxManager
	cancel context.CancelFunc
	after  int
	count  int
}

func (c *cancelAfterTx) WithinRow(ctx context.Context, key attendance.RecordKey, fn func(ctx context.Context) error) error {
	err := c.inner.WithinRow(ctx, key, fn)
	c.count++
	if c.count >= c.after {
		c.cancel()
	}
	return err
}

// cancelDuringTx cancels the batch context just as a row's store work
// begins, so the cancel lands inside the row.
type cancelDuringTx struct {
	inner  attendance.TxManager
	cancel context.CancelFunc
}

func (c *cancelDuringTx) WithinRow(ctx context.Context, key attendance.RecordKey, fn func(ctx context.Context) error) error {
	c.cancel()
	return c.inner.WithinRow(ctx, key, fn)
}
