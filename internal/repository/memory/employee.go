package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/attendance-import-go/internal/domain/employee"
)

// EmployeeStore is an in-process employee and assignment store.
type EmployeeStore struct {
	mu          sync.RWMutex
	employees   map[string]employee.Employee
	assignments []employee.Assignment
}

func NewEmployeeStore() *EmployeeStore {
	return &EmployeeStore{employees: make(map[string]employee.Employee)}
}

func (s *EmployeeStore) AddEmployee(emp employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[emp.ID] = emp
}

func (s *EmployeeStore) AddAssignment(a employee.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, a)
}

// GetByID implements employee.EmployeeRepository.
func (s *EmployeeStore) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	if err := ctx.Err(); err != nil {
		return employee.Employee{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

// GetActiveByCompanyID implements employee.EmployeeRepository.
func (s *EmployeeStore) GetActiveByCompanyID(ctx context.Context, companyID string) ([]employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []employee.Employee
	for _, emp := range s.employees {
		if emp.CompanyID == companyID {
			out = append(out, emp)
		}
	}
	// EP number order, matching the SQL repository
	sort.Slice(out, func(i, j int) bool { return out[i].EPNumber < out[j].EPNumber })
	return out, nil
}

// ListBySupervisor implements employee.AssignmentRepository.
func (s *EmployeeStore) ListBySupervisor(ctx context.Context, supervisorUserID string) ([]employee.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []employee.Assignment
	for _, a := range s.assignments {
		if a.SupervisorID == supervisorUserID {
			out = append(out, a)
		}
	}
	return out, nil
}
