package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
)

// Employee represents a schedulable staff member
type Employee struct {
	ID        string    `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Position  string    `db:"position" json:"position"`
	HireDate  time.Time `db:"hire_date" json:"hire_date"`
	Status    string    `db:"status" json:"status"` // active, inactive
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns "First Last".
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EmployeeListParams holds filters for listing employees
type EmployeeListParams struct {
	Status   *string
	Position *string
	Page     int
	PerPage  int
}

// EmployeeRepository handles employee persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts a new employee
func (r *EmployeeRepository) Create(ctx context.Context, employee *Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.New().String()
	}
	if employee.Status == "" {
		employee.Status = "active"
	}
	if employee.Position == "" {
		employee.Position = "agent"
	}

	query := `
		INSERT INTO employees (id, first_name, last_name, email, position, hire_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		employee.ID, employee.FirstName, employee.LastName, employee.Email,
		employee.Position, employee.HireDate, employee.Status,
	).Scan(&employee.CreatedAt, &employee.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	return nil
}

// GetByID retrieves an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	var employee Employee
	query := `
		SELECT id, first_name, last_name, email, position, hire_date, status, created_at, updated_at
		FROM employees
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &employee, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, err
	}

	return &employee, nil
}

// List returns employees matching the filters with a total count
func (r *EmployeeRepository) List(ctx context.Context, params EmployeeListParams) ([]*Employee, int64, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if params.Status != nil {
		whereClause += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *params.Status)
		argNum++
	}
	if params.Position != nil {
		whereClause += fmt.Sprintf(" AND position = $%d", argNum)
		args = append(args, *params.Position)
		argNum++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM employees " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	if params.PerPage <= 0 {
		params.PerPage = 50
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	offset := (params.Page - 1) * params.PerPage

	query := `
		SELECT id, first_name, last_name, email, position, hire_date, status, created_at, updated_at
		FROM employees
	` + whereClause + fmt.Sprintf(`
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, argNum, argNum+1)

	args = append(args, params.PerPage, offset)

	var employees []*Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}

// Update modifies an employee's profile fields
func (r *EmployeeRepository) Update(ctx context.Context, employee *Employee) error {
	query := `
		UPDATE employees SET
			first_name = $2, last_name = $3, email = $4, position = $5,
			hire_date = $6, status = $7, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		employee.ID, employee.FirstName, employee.LastName, employee.Email,
		employee.Position, employee.HireDate, employee.Status,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("employee")
	}

	return nil
}

// Deactivate marks an employee inactive, keeping history intact
func (r *EmployeeRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE employees SET status = 'inactive', updated_at = NOW() WHERE id = $1 AND status = 'active'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("employee")
	}

	return nil
}
