package service

import (
	"context"
	"time"

	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/pkg/logger"
)

// EmployeeService manages the employee registry
type EmployeeService struct {
	employees *repository.EmployeeRepository
	logger    *logger.Logger
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(employees *repository.EmployeeRepository, log *logger.Logger) *EmployeeService {
	return &EmployeeService{employees: employees, logger: log}
}

// EmployeeRequest carries employee profile fields
type EmployeeRequest struct {
	FirstName string    `json:"first_name" validate:"required,max=100"`
	LastName  string    `json:"last_name" validate:"required,max=100"`
	Email     string    `json:"email" validate:"required,email"`
	Position  string    `json:"position,omitempty" validate:"omitempty,max=100"`
	HireDate  time.Time `json:"hire_date" validate:"required"`
}

// Create registers a new employee
func (s *EmployeeService) Create(ctx context.Context, req *EmployeeRequest) (*repository.Employee, error) {
	employee := &repository.Employee{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Position:  req.Position,
		HireDate:  req.HireDate,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}

	s.logger.Info().Str("employee_id", employee.ID).Msg("employee created")
	return employee, nil
}

// GetByID retrieves an employee
func (s *EmployeeService) GetByID(ctx context.Context, id string) (*repository.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

// List returns employees matching the filters
func (s *EmployeeService) List(ctx context.Context, params repository.EmployeeListParams) ([]*repository.Employee, int64, error) {
	return s.employees.List(ctx, params)
}

// Update modifies an employee's profile
func (s *EmployeeService) Update(ctx context.Context, id string, req *EmployeeRequest) (*repository.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	employee.FirstName = req.FirstName
	employee.LastName = req.LastName
	employee.Email = req.Email
	if req.Position != "" {
		employee.Position = req.Position
	}
	employee.HireDate = req.HireDate

	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, err
	}

	return employee, nil
}

// Deactivate marks an employee inactive. Their history stays intact.
func (s *EmployeeService) Deactivate(ctx context.Context, id string) error {
	if err := s.employees.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("employee_id", id).Msg("employee deactivated")
	return nil
}

// TaskService manages the reusable task catalogue
type TaskService struct {
	tasks  *repository.TaskRepository
	logger *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(tasks *repository.TaskRepository, log *logger.Logger) *TaskService {
	return &TaskService{tasks: tasks, logger: log}
}

// TaskRequest carries task fields
type TaskRequest struct {
	Label       string  `json:"label" validate:"required,max=255"`
	Description *string `json:"description,omitempty"`
}

// Create adds a task to the catalogue
func (s *TaskService) Create(ctx context.Context, req *TaskRequest) (*repository.Task, error) {
	task := &repository.Task{
		Label:       req.Label,
		Description: req.Description,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// GetByID retrieves a task
func (s *TaskService) GetByID(ctx context.Context, id string) (*repository.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// List returns the task catalogue
func (s *TaskService) List(ctx context.Context) ([]*repository.Task, error) {
	return s.tasks.List(ctx)
}

// Update modifies a task
func (s *TaskService) Update(ctx context.Context, id string, req *TaskRequest) (*repository.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Label = req.Label
	task.Description = req.Description

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Delete removes a task from the catalogue
func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.tasks.Delete(ctx, id)
}
