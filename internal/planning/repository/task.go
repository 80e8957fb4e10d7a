package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
)

// Task is a reusable work label attached to time slots.
type Task struct {
	ID          string    `db:"id" json:"id"`
	Label       string    `db:"label" json:"label"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TaskRepository handles task persistence
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task
func (r *TaskRepository) Create(ctx context.Context, task *Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	query := `
		INSERT INTO tasks (id, label, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, task.ID, task.Label, task.Description).
		Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*Task, error) {
	var task Task
	query := `SELECT id, label, description, created_at, updated_at FROM tasks WHERE id = $1`

	err := r.db.GetContext(ctx, &task, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("task")
	}
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// List returns all tasks ordered by label
func (r *TaskRepository) List(ctx context.Context) ([]*Task, error) {
	var tasks []*Task
	query := `SELECT id, label, description, created_at, updated_at FROM tasks ORDER BY label`

	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, err
	}

	return tasks, nil
}

// Update modifies a task's label and description
func (r *TaskRepository) Update(ctx context.Context, task *Task) error {
	query := `UPDATE tasks SET label = $2, description = $3, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, task.ID, task.Label, task.Description)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("task")
	}

	return nil
}

// Delete removes a task. Slots referencing it keep their window, the task
// reference is nulled by the schema.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("task")
	}

	return nil
}
