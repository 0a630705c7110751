package importer

import (
	"time"

	"github.com/cmlabs-hris/attendance-import-go/internal/config"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-import-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-import-go/internal/repository/memory"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

// testEnv wires the coordinator against in-process stores. Fixtures cover
// two companies, one user per role and two assigned employees.
type testEnv struct {
	users      *memory.UserStore
	employees  *memory.EmployeeStore
	attendance *memory.AttendanceStore
	service    *ImportServiceImpl
}

const (
	companyAcme  = "co-acme"
	companyGlobe = "co-globe"

	masterID     = "usr-master"
	rootAcmeID   = "usr-root-acme"
	supervisorID = "usr-supervisor"
	employeeUID  = "usr-employee"

	empAnaID  = "emp-ana"  // acme, assigned to the supervisor
	empBobID  = "emp-bob"  // acme, assigned with a closed window
	empCaraID = "emp-cara" // acme, unassigned
	empDanID  = "emp-dan"  // globe
)

func newTestEnv() *testEnv {
	users := memory.NewUserStore()
	employees := memory.NewEmployeeStore()
	store := memory.NewAttendanceStore()

	acme := companyAcme
	users.AddUser(user.User{ID: masterID, Username: "master", Role: user.RoleMaster, IsActive: true})
	users.AddUser(user.User{ID: rootAcmeID, Username: "root-acme", Role: user.RoleRoot, CompanyID: &acme, IsActive: true})
	users.AddUser(user.User{ID: supervisorID, Username: "supervisor", Role: user.RoleSupervisor, CompanyID: &acme, IsActive: true})
	users.AddUser(user.User{ID: employeeUID, Username: "employee", Role: user.RoleEmployee, CompanyID: &acme, IsActive: true})
	users.AddUser(user.User{ID: "usr-inactive", Username: "inactive", Role: user.RoleRoot, CompanyID: &acme, IsActive: false})

	hired := day("2023-01-01")
	employees.AddEmployee(employee.Employee{ID: empAnaID, CompanyID: companyAcme, EPNumber: "EP001", FullName: "Ana", HireDate: hired})
	employees.AddEmployee(employee.Employee{ID: empBobID, CompanyID: companyAcme, EPNumber: "EP002", FullName: "Bob", HireDate: hired})
	employees.AddEmployee(employee.Employee{ID: empCaraID, CompanyID: companyAcme, EPNumber: "EP003", FullName: "Cara", HireDate: day("2024-02-15")})
	employees.AddEmployee(employee.Employee{ID: empDanID, CompanyID: companyGlobe, EPNumber: "EP004", FullName: "Dan", HireDate: hired})

	bobEnd := day("2024-01-31")
	employees.AddAssignment(employee.Assignment{
		ID: "asg-ana", EmployeeID: empAnaID, SupervisorID: supervisorID,
		CompanyID: companyAcme, StartDate: day("2023-06-01"),
	})
	employees.AddAssignment(employee.Assignment{
		ID: "asg-bob", EmployeeID: empBobID, SupervisorID: supervisorID,
		CompanyID: companyAcme, StartDate: day("2023-06-01"), EndDate: &bobEnd,
	})

	cfg := config.ImportConfig{MaxBatchRows: 100, RowTimeout: time.Second}
	service := NewImportService(users, employees, employees, store, store, store, cfg)

	return &testEnv{
		users:      users,
		employees:  employees,
		attendance: store,
		service:    service,
	}
}
