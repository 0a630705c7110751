package user

import "time"

type Role string

const (
	RoleMaster     Role = "master"     // Platform administrator - every company
	RoleRoot       Role = "root"       // Company administrator - own company
	RoleSupervisor Role = "supervisor" // Team supervisor - assigned employees only
	RoleEmployee   Role = "employee"   // Regular employee - cannot submit batches
)

// privilegeRank is the total order used by the no-clobber comparison:
// master > root > supervisor > employee.
var privilegeRank = map[Role]int{
	RoleMaster:     3,
	RoleRoot:       2,
	RoleSupervisor: 1,
	RoleEmployee:   0,
}

// Privilege returns the rank of the role within the hierarchy.
// Unknown roles rank below employee.
func (r Role) Privilege() int {
	if rank, ok := privilegeRank[r]; ok {
		return rank
	}
	return -1
}

// Outranks reports whether r is strictly higher-privileged than other.
func (r Role) Outranks(other Role) bool {
	return r.Privilege() > other.Privilege()
}

// AtLeast reports whether r is equal or higher-privileged than other.
func (r Role) AtLeast(other Role) bool {
	return r.Privilege() >= other.Privilege()
}

func (r Role) Valid() bool {
	_, ok := privilegeRank[r]
	return ok
}

type User struct {
	ID         string
	Username   string
	Role       Role
	CompanyID  *string
	EmployeeID *string
	IsActive   bool
	CreatedAt  time.Time
}

// IsMaster checks if the user administers the whole platform
func (u *User) IsMaster() bool {
	return u.Role == RoleMaster
}

// IsRoot checks if the user administers a single company
func (u *User) IsRoot() bool {
	return u.Role == RoleRoot
}

// CanSubmitBatches checks if the user may run attendance imports at all
func (u *User) CanSubmitBatches() bool {
	return u.Role == RoleMaster || u.Role == RoleRoot || u.Role == RoleSupervisor
}
