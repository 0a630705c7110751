package importer

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeResolver_MasterCoversEverything(t *testing.T) {
	env := newTestEnv()
	resolver := NewScopeResolver(env.users, env.employees)

	actor, scope, err := resolver.Resolve(context.Background(), masterID)

	require.NoError(t, err)
	assert.Equal(t, user.RoleMaster, actor.Role)
	assert.False(t, scope.IsEmpty())
	assert.True(t, scope.Allows(companyAcme, empAnaID, day("2024-03-01")))
	assert.True(t, scope.Allows(companyGlobe, empDanID, day("2024-03-01")))
}

func TestScopeResolver_RootLimitedToOwnCompany(t *testing.T) {
	env := newTestEnv()
	resolver := NewScopeResolver(env.users, env.employees)

	_, scope, err := resolver.Resolve(context.Background(), rootAcmeID)

	require.NoError(t, err)
	assert.True(t, scope.Allows(companyAcme, empAnaID, day("2024-03-01")))
	assert.True(t, scope.Allows(companyAcme, empCaraID, day("2024-03-01")))
	assert.False(t, scope.Allows(companyGlobe, empDanID, day("2024-03-01")))
}

func TestScopeResolver_SupervisorScopeIsDateAware(t *testing.T) {
	env := newTestEnv()
	resolver := NewScopeResolver(env.users, env.employees)

	_, scope, err := resolver.Resolve(context.Background(), supervisorID)
	require.NoError(t, err)

	// open-ended assignment
	assert.True(t, scope.Allows(companyAcme, empAnaID, day("2024-03-01")))
	// before the window opens
	assert.False(t, scope.Allows(companyAcme, empAnaID, day("2023-05-31")))
	// closed window: inside and after
	assert.True(t, scope.Allows(companyAcme, empBobID, day("2024-01-31")))
	assert.False(t, scope.Allows(companyAcme, empBobID, day("2024-02-01")))
	// never assigned
	assert.False(t, scope.Allows(companyAcme, empCaraID, day("2024-03-01")))
}

func TestScopeResolver_SupervisorWithoutAssignmentsIsEmpty(t *testing.T) {
	env := newTestEnv()
	env.users.AddUser(user.User{ID: "usr-idle", Role: user.RoleSupervisor, IsActive: true})
	resolver := NewScopeResolver(env.users, env.employees)

	_, scope, err := resolver.Resolve(context.Background(), "usr-idle")

	require.NoError(t, err)
	assert.True(t, scope.IsEmpty())
}

func TestScopeResolver_RejectsNonImporters(t *testing.T) {
	env := newTestEnv()
	env.users.AddUser(user.User{ID: "usr-auditor", Role: user.Role("auditor"), IsActive: true})
	resolver := NewScopeResolver(env.users, env.employees)

	tests := []struct {
		name    string
		actorID string
		want    error
	}{
		{"employee role", employeeUID, attendance.ErrNotAuthorized},
		{"unknown user", "usr-nope", attendance.ErrNotAuthorized},
		{"deactivated user", "usr-inactive", user.ErrUserInactive},
		{"unrecognized role", "usr-auditor", user.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := resolver.Resolve(context.Background(), tt.actorID)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
