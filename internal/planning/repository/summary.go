package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
)

// Summary is the stored hour rollup for one (planning, employee) pair.
type Summary struct {
	ID           string    `db:"id" json:"id"`
	PlanningID   string    `db:"planning_id" json:"planning_id"`
	EmployeeID   string    `db:"employee_id" json:"employee_id"`
	NormalHours  int       `db:"normal_hours" json:"normal_hours"`
	ExtraMinutes int       `db:"extra_minutes" json:"extra_minutes"`
	PeriodFrom   time.Time `db:"period_from" json:"period_from"`
	PeriodTo     time.Time `db:"period_to" json:"period_to"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields
	EmployeeName *string `db:"employee_name" json:"employee_name,omitempty"`
}

// SummaryRepository handles hour summary persistence
type SummaryRepository struct {
	q queryer
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *database.DB) *SummaryRepository {
	return &SummaryRepository{q: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *SummaryRepository) WithTx(tx *sqlx.Tx) *SummaryRepository {
	return &SummaryRepository{q: tx}
}

// GetByPair retrieves the summary for one (planning, employee) pair
func (r *SummaryRepository) GetByPair(ctx context.Context, planningID, employeeID string) (*Summary, error) {
	var summary Summary
	query := `
		SELECT id, planning_id, employee_id, normal_hours, extra_minutes,
		       period_from, period_to, status, created_at, updated_at
		FROM hour_summaries
		WHERE planning_id = $1 AND employee_id = $2
	`
	err := r.q.GetContext(ctx, &summary, query, planningID, employeeID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("hour summary")
	}
	if err != nil {
		return nil, err
	}

	return &summary, nil
}

// ListByPlanning returns all summaries of a planning with employee names
func (r *SummaryRepository) ListByPlanning(ctx context.Context, planningID string) ([]*Summary, error) {
	var summaries []*Summary
	query := `
		SELECT hs.id, hs.planning_id, hs.employee_id, hs.normal_hours, hs.extra_minutes,
		       hs.period_from, hs.period_to, hs.status, hs.created_at, hs.updated_at,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name
		FROM hour_summaries hs
		LEFT JOIN employees e ON hs.employee_id = e.id
		WHERE hs.planning_id = $1
		ORDER BY e.last_name, e.first_name
	`
	if err := r.q.SelectContext(ctx, &summaries, query, planningID); err != nil {
		return nil, err
	}

	return summaries, nil
}

// ListByEmployee returns an employee's summaries across plannings
func (r *SummaryRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*Summary, error) {
	var summaries []*Summary
	query := `
		SELECT id, planning_id, employee_id, normal_hours, extra_minutes,
		       period_from, period_to, status, created_at, updated_at
		FROM hour_summaries
		WHERE employee_id = $1
		ORDER BY period_from DESC
	`
	if err := r.q.SelectContext(ctx, &summaries, query, employeeID); err != nil {
		return nil, err
	}

	return summaries, nil
}

// Upsert writes a recomputed summary, keyed by its (planning, employee)
// pair. Implements the hour aggregator's store.
func (r *SummaryRepository) Upsert(ctx context.Context, summary *engine.HourSummary) error {
	query := `
		INSERT INTO hour_summaries (id, planning_id, employee_id, normal_hours, extra_minutes, period_from, period_to, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'current')
		ON CONFLICT (planning_id, employee_id) DO UPDATE SET
			normal_hours = EXCLUDED.normal_hours,
			extra_minutes = EXCLUDED.extra_minutes,
			period_from = EXCLUDED.period_from,
			period_to = EXCLUDED.period_to,
			updated_at = NOW()
	`
	_, err := r.q.ExecContext(ctx, query,
		uuid.New().String(), summary.PlanningID, summary.EmployeeID,
		summary.NormalHours, summary.ExtraMinutes,
		summary.PeriodStart, summary.PeriodEnd,
	)
	return err
}

// Delete removes the summary of one (planning, employee) pair. Deleting a
// summary that is already gone is not an error, recomputes must stay
// idempotent.
func (r *SummaryRepository) Delete(ctx context.Context, planningID, employeeID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM hour_summaries WHERE planning_id = $1 AND employee_id = $2`,
		planningID, employeeID,
	)
	return err
}
