package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
)

type scopeKind int

const (
	scopeAll scopeKind = iota
	scopeCompany
	scopeAssigned
)

// ScopeSet is the set of (company, employee) pairs the actor may write
// attendance for. Resolved once per batch run, read-only afterwards.
// Supervisor scope is date-aware: an assignment authorizes an employee only
// within its date window.
type ScopeSet struct {
	kind        scopeKind
	companyID   string
	assignments map[string][]employee.Assignment
}

// Allows reports whether the actor may write attendance for the employee in
// the company on the given calendar date.
func (s *ScopeSet) Allows(companyID, employeeID string, date time.Time) bool {
	switch s.kind {
	case scopeAll:
		return true
	case scopeCompany:
		return companyID == s.companyID
	case scopeAssigned:
		for _, a := range s.assignments[employeeID] {
			if a.CompanyID == companyID && a.Covers(date) {
				return true
			}
		}
		return false
	}
	return false
}

// IsEmpty reports whether the scope covers nothing at all. A batch from an
// actor with an empty scope fails outright.
func (s *ScopeSet) IsEmpty() bool {
	return s.kind == scopeAssigned && len(s.assignments) == 0
}

// ScopeResolver computes the write scope of an acting user from the
// authorization store. Read-only.
type ScopeResolver struct {
	users       user.UserRepository
	assignments employee.AssignmentRepository
}

func NewScopeResolver(users user.UserRepository, assignments employee.AssignmentRepository) *ScopeResolver {
	return &ScopeResolver{users: users, assignments: assignments}
}

// Resolve loads the actor and derives its ScopeSet. Employees (and unknown
// or deactivated users) cannot submit batches.
func (r *ScopeResolver) Resolve(ctx context.Context, actorID string) (user.User, *ScopeSet, error) {
	actor, err := r.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, nil, attendance.ErrNotAuthorized
		}
		return user.User{}, nil, fmt.Errorf("failed to load acting user: %w", err)
	}
	if !actor.IsActive {
		return user.User{}, nil, user.ErrUserInactive
	}
	if !actor.Role.Valid() {
		return user.User{}, nil, user.ErrInvalidRole
	}
	if !actor.CanSubmitBatches() {
		return user.User{}, nil, attendance.ErrNotAuthorized
	}

	switch actor.Role {
	case user.RoleMaster:
		return actor, &ScopeSet{kind: scopeAll}, nil

	case user.RoleRoot:
		if actor.CompanyID == nil {
			return user.User{}, nil, attendance.ErrNotAuthorized
		}
		return actor, &ScopeSet{kind: scopeCompany, companyID: *actor.CompanyID}, nil

	case user.RoleSupervisor:
		assignments, err := r.assignments.ListBySupervisor(ctx, actor.ID)
		if err != nil {
			return user.User{}, nil, fmt.Errorf("failed to load supervisor assignments: %w", err)
		}
		byEmployee := make(map[string][]employee.Assignment, len(assignments))
		for _, a := range assignments {
			byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
		}
		return actor, &ScopeSet{kind: scopeAssigned, assignments: byEmployee}, nil

	default:
		return user.User{}, nil, attendance.ErrNotAuthorized
	}
}
