package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
)

// Slot kinds
const (
	SlotKindWork     = "work"
	SlotKindTraining = "training"
	SlotKindMeeting  = "meeting"
)

// Slot represents one scheduled time slot
type Slot struct {
	ID         string    `db:"id" json:"id"`
	PlanningID string    `db:"planning_id" json:"planning_id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	TaskID     *string   `db:"task_id" json:"task_id,omitempty"`
	StartAt    time.Time `db:"start_at" json:"start_at"`
	EndAt      time.Time `db:"end_at" json:"end_at"`
	Kind       string    `db:"kind" json:"kind"`
	Validated  bool      `db:"validated" json:"validated"`
	TaskStatus string    `db:"task_status" json:"task_status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields
	PlanningName *string `db:"planning_name" json:"planning_name,omitempty"`
	TaskLabel    *string `db:"task_label" json:"task_label,omitempty"`
	EmployeeName *string `db:"employee_name" json:"employee_name,omitempty"`
}

// Window returns the slot's half-open time window.
func (s *Slot) Window() engine.Interval {
	return engine.Interval{Start: s.StartAt, End: s.EndAt}
}

// DurationMinutes is always derived from the window, never stored.
func (s *Slot) DurationMinutes() int {
	return s.Window().Minutes()
}

// SlotListParams holds filters for listing slots
type SlotListParams struct {
	PlanningID *string
	EmployeeID *string
	From       *time.Time
	To         *time.Time
}

// SlotRepository handles time slot persistence
type SlotRepository struct {
	q queryer
}

// NewSlotRepository creates a new slot repository
func NewSlotRepository(db *database.DB) *SlotRepository {
	return &SlotRepository{q: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *SlotRepository) WithTx(tx *sqlx.Tx) *SlotRepository {
	return &SlotRepository{q: tx}
}

// Create inserts a new slot
func (r *SlotRepository) Create(ctx context.Context, slot *Slot) error {
	if slot.ID == "" {
		slot.ID = uuid.New().String()
	}
	if slot.Kind == "" {
		slot.Kind = SlotKindWork
	}
	if slot.TaskStatus == "" {
		slot.TaskStatus = "planned"
	}

	query := `
		INSERT INTO time_slots (id, planning_id, employee_id, task_id, start_at, end_at, kind, validated, task_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.q.QueryRowxContext(ctx, query,
		slot.ID, slot.PlanningID, slot.EmployeeID, slot.TaskID,
		slot.StartAt, slot.EndAt, slot.Kind, slot.Validated, slot.TaskStatus,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	return nil
}

// BulkCreate inserts a batch of slots. Runs inside the caller's transaction
// when bound with WithTx.
func (r *SlotRepository) BulkCreate(ctx context.Context, slots []*Slot) error {
	for _, slot := range slots {
		if err := r.Create(ctx, slot); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a slot with its planning name, task label and employee name
func (r *SlotRepository) GetByID(ctx context.Context, id string) (*Slot, error) {
	var slot Slot
	query := `
		SELECT ts.id, ts.planning_id, ts.employee_id, ts.task_id, ts.start_at, ts.end_at,
		       ts.kind, ts.validated, ts.task_status, ts.created_at, ts.updated_at,
		       p.name AS planning_name,
		       t.label AS task_label,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name
		FROM time_slots ts
		JOIN plannings p ON ts.planning_id = p.id
		LEFT JOIN tasks t ON ts.task_id = t.id
		LEFT JOIN employees e ON ts.employee_id = e.id
		WHERE ts.id = $1
	`
	err := r.q.GetContext(ctx, &slot, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("time slot")
	}
	if err != nil {
		return nil, err
	}

	return &slot, nil
}

// List returns slots matching the filters, ordered by start time
func (r *SlotRepository) List(ctx context.Context, params SlotListParams) ([]*Slot, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if params.PlanningID != nil {
		whereClause += fmt.Sprintf(" AND ts.planning_id = $%d", argNum)
		args = append(args, *params.PlanningID)
		argNum++
	}
	if params.EmployeeID != nil {
		whereClause += fmt.Sprintf(" AND ts.employee_id = $%d", argNum)
		args = append(args, *params.EmployeeID)
		argNum++
	}
	if params.From != nil {
		whereClause += fmt.Sprintf(" AND ts.end_at > $%d", argNum)
		args = append(args, *params.From)
		argNum++
	}
	if params.To != nil {
		whereClause += fmt.Sprintf(" AND ts.start_at < $%d", argNum)
		args = append(args, *params.To)
		argNum++
	}

	query := `
		SELECT ts.id, ts.planning_id, ts.employee_id, ts.task_id, ts.start_at, ts.end_at,
		       ts.kind, ts.validated, ts.task_status, ts.created_at, ts.updated_at,
		       p.name AS planning_name,
		       t.label AS task_label,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name
		FROM time_slots ts
		JOIN plannings p ON ts.planning_id = p.id
		LEFT JOIN tasks t ON ts.task_id = t.id
		LEFT JOIN employees e ON ts.employee_id = e.id
	` + whereClause + `
		ORDER BY ts.start_at
	`

	var slots []*Slot
	if err := r.q.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, err
	}

	return slots, nil
}

// Update modifies a slot's window, employee, task and kind
func (r *SlotRepository) Update(ctx context.Context, slot *Slot) error {
	query := `
		UPDATE time_slots SET
			employee_id = $2, task_id = $3, start_at = $4, end_at = $5,
			kind = $6, validated = $7, task_status = $8, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		slot.ID, slot.EmployeeID, slot.TaskID, slot.StartAt, slot.EndAt,
		slot.Kind, slot.Validated, slot.TaskStatus,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("time slot")
	}

	return nil
}

// Delete removes a slot
func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM time_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("time slot")
	}

	return nil
}

// DeleteByPlanning removes every slot of a planning and returns how many
// rows went away.
func (r *SlotRepository) DeleteByPlanning(ctx context.Context, planningID string) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM time_slots WHERE planning_id = $1`, planningID)
	if err != nil {
		return 0, err
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}

// ============================================================================
// ENGINE SOURCES
// ============================================================================

// ListOverlapping returns the employee's slots overlapping the half-open
// window, minus the exclusion. Implements the conflict checker's slot source.
func (r *SlotRepository) ListOverlapping(ctx context.Context, employeeID string, window engine.Interval, excl engine.Exclusion) ([]engine.ExistingSlot, error) {
	query := `
		SELECT ts.id, ts.planning_id, ts.start_at, ts.end_at,
		       p.name AS planning_name,
		       t.label AS task_label
		FROM time_slots ts
		JOIN plannings p ON ts.planning_id = p.id
		LEFT JOIN tasks t ON ts.task_id = t.id
		WHERE ts.employee_id = $1
		  AND ts.start_at < $3
		  AND ts.end_at > $2
	`
	args := []interface{}{employeeID, window.Start, window.End}
	argNum := 4

	if excl.SlotID != nil {
		query += fmt.Sprintf(" AND ts.id != $%d", argNum)
		args = append(args, *excl.SlotID)
		argNum++
	}
	if excl.PlanningID != nil {
		query += fmt.Sprintf(" AND ts.planning_id != $%d", argNum)
		args = append(args, *excl.PlanningID)
	}
	query += " ORDER BY ts.start_at"

	type row struct {
		ID           string    `db:"id"`
		PlanningID   string    `db:"planning_id"`
		StartAt      time.Time `db:"start_at"`
		EndAt        time.Time `db:"end_at"`
		PlanningName string    `db:"planning_name"`
		TaskLabel    *string   `db:"task_label"`
	}

	var rows []row
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	out := make([]engine.ExistingSlot, 0, len(rows))
	for _, rw := range rows {
		out = append(out, engine.ExistingSlot{
			ID:           rw.ID,
			PlanningID:   rw.PlanningID,
			PlanningName: rw.PlanningName,
			TaskLabel:    rw.TaskLabel,
			Window:       engine.Interval{Start: rw.StartAt, End: rw.EndAt},
		})
	}

	return out, nil
}

// ListWindows returns the slot windows of one (planning, employee) pair.
// Implements the hour aggregator's slot source.
func (r *SlotRepository) ListWindows(ctx context.Context, planningID, employeeID string) ([]engine.Interval, error) {
	type row struct {
		StartAt time.Time `db:"start_at"`
		EndAt   time.Time `db:"end_at"`
	}

	var rows []row
	query := `
		SELECT start_at, end_at FROM time_slots
		WHERE planning_id = $1 AND employee_id = $2
		ORDER BY start_at
	`
	if err := r.q.SelectContext(ctx, &rows, query, planningID, employeeID); err != nil {
		return nil, err
	}

	windows := make([]engine.Interval, 0, len(rows))
	for _, rw := range rows {
		windows = append(windows, engine.Interval{Start: rw.StartAt, End: rw.EndAt})
	}

	return windows, nil
}
