package importer

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
)

// CSVHeader is the batch input shape; exports and the downloadable template
// use the same columns so an export can be re-imported as-is.
var CSVHeader = []string{"employee_id", "date", "status", "worked_hours", "overtime_hours", "deduction_reason"}

// List implements attendance.ImportService.
func (s *ImportServiceImpl) List(ctx context.Context, actorID string, filter attendance.ListFilter) ([]attendance.RecordResponse, error) {
	records, err := s.visibleRecords(ctx, actorID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, attendance.NewRecordResponse(rec))
	}
	return out, nil
}

// Export implements attendance.ImportService.
func (s *ImportServiceImpl) Export(ctx context.Context, actorID string, filter attendance.ListFilter) ([][]string, error) {
	records, err := s.visibleRecords(ctx, actorID, filter)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, CSVHeader)
	for _, rec := range records {
		reason := ""
		if rec.DeductionReason != nil {
			reason = *rec.DeductionReason
		}
		rows = append(rows, []string{
			rec.EmployeeID,
			rec.Date.Format("2006-01-02"),
			string(rec.Status),
			rec.WorkedHours.String(),
			rec.OvertimeHours.String(),
			reason,
		})
	}
	return rows, nil
}

// Template implements attendance.ImportService. Root and supervisor
// templates are prefilled with one row per employee currently in scope;
// the master template is header-only, a cross-company prefill being
// unbounded.
func (s *ImportServiceImpl) Template(ctx context.Context, actorID string) ([][]string, error) {
	actor, scope, err := s.scopes.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}

	rows := [][]string{CSVHeader}
	if actor.IsMaster() || actor.CompanyID == nil {
		return rows, nil
	}

	employees, err := s.employees.GetActiveByCompanyID(ctx, *actor.CompanyID)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC()
	for _, emp := range employees {
		if !actor.IsRoot() && !scope.Allows(emp.CompanyID, emp.ID, today) {
			continue
		}
		rows = append(rows, []string{emp.ID, "", "", "", "", ""})
	}
	return rows, nil
}

// BatchAudit implements attendance.ImportService.
func (s *ImportServiceImpl) BatchAudit(ctx context.Context, actorID string, batchID string) ([]attendance.AuditEntryResponse, error) {
	actor, _, err := s.scopes.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsMaster() {
		return nil, attendance.ErrNotAuthorized
	}

	entries, err := s.audit.ListByEntityKey(ctx, batchID)
	if err != nil {
		return nil, err
	}
	out := make([]attendance.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, attendance.NewAuditEntryResponse(e))
	}
	return out, nil
}

// AuditTrail implements attendance.ImportService.
func (s *ImportServiceImpl) AuditTrail(ctx context.Context, actorID string, key attendance.RecordKey) ([]attendance.AuditEntryResponse, error) {
	_, scope, err := s.scopes.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(key.CompanyID, key.EmployeeID, key.Date) {
		return nil, attendance.ErrNotAuthorized
	}

	entries, err := s.audit.ListByEntityKey(ctx, key.String())
	if err != nil {
		return nil, err
	}
	out := make([]attendance.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, attendance.NewAuditEntryResponse(e))
	}
	return out, nil
}

// visibleRecords resolves the actor's scope and returns only records the
// scope covers. Supervisor visibility is date-scoped per record.
func (s *ImportServiceImpl) visibleRecords(ctx context.Context, actorID string, filter attendance.ListFilter) ([]attendance.Record, error) {
	actor, scope, err := s.scopes.Resolve(ctx, actorID)
	if err != nil {
		return nil, err
	}

	switch scope.kind {
	case scopeAll:
		return s.records.ListAll(ctx, filter)

	case scopeCompany:
		return s.records.ListByCompany(ctx, scope.companyID, filter)

	case scopeAssigned:
		if actor.Role != user.RoleSupervisor || actor.CompanyID == nil {
			return nil, attendance.ErrNotAuthorized
		}
		records, err := s.records.ListByCompany(ctx, *actor.CompanyID, filter)
		if err != nil {
			return nil, err
		}
		visible := records[:0:0]
		for _, rec := range records {
			if scope.Allows(rec.CompanyID, rec.EmployeeID, rec.Date) {
				visible = append(visible, rec)
			}
		}
		return visible, nil
	}
	return nil, attendance.ErrNotAuthorized
}
