package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
)

// Planning statuses
const (
	PlanningStatusDraft     = "draft"
	PlanningStatusPublished = "published"
	PlanningStatusRejected  = "rejected"
	PlanningStatusCancelled = "cancelled"
)

// Planning represents a schedule covering a date range
type Planning struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatorID string    `db:"creator_id" json:"creator_id"`
	From      time.Time `db:"period_from" json:"period_from"`
	To        time.Time `db:"period_to" json:"period_to"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Joined fields
	CreatorName *string `db:"creator_name" json:"creator_name,omitempty"`
	SlotCount   *int    `db:"slot_count" json:"slot_count,omitempty"`
}

// PlanningListParams holds filters for listing plannings
type PlanningListParams struct {
	Status    *string
	CreatorID *string
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

// PlanningRepository handles planning persistence
type PlanningRepository struct {
	q queryer
}

// NewPlanningRepository creates a new planning repository
func NewPlanningRepository(db *database.DB) *PlanningRepository {
	return &PlanningRepository{q: db}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *PlanningRepository) WithTx(tx *sqlx.Tx) *PlanningRepository {
	return &PlanningRepository{q: tx}
}

// Create inserts a new planning in draft status
func (r *PlanningRepository) Create(ctx context.Context, planning *Planning) error {
	if planning.ID == "" {
		planning.ID = uuid.New().String()
	}
	if planning.Status == "" {
		planning.Status = PlanningStatusDraft
	}

	query := `
		INSERT INTO plannings (id, name, creator_id, period_from, period_to, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.q.QueryRowxContext(ctx, query,
		planning.ID, planning.Name, planning.CreatorID,
		planning.From, planning.To, planning.Status,
	).Scan(&planning.CreatedAt, &planning.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	return nil
}

// GetByID retrieves a planning with its creator name and slot count
func (r *PlanningRepository) GetByID(ctx context.Context, id string) (*Planning, error) {
	var planning Planning
	query := `
		SELECT p.id, p.name, p.creator_id, p.period_from, p.period_to, p.status,
		       p.created_at, p.updated_at,
		       CONCAT(e.first_name, ' ', e.last_name) AS creator_name,
		       (SELECT COUNT(*) FROM time_slots ts WHERE ts.planning_id = p.id) AS slot_count
		FROM plannings p
		LEFT JOIN employees e ON p.creator_id = e.id
		WHERE p.id = $1
	`
	err := r.q.GetContext(ctx, &planning, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("planning")
	}
	if err != nil {
		return nil, err
	}

	return &planning, nil
}

// List returns plannings matching the filters with a total count
func (r *PlanningRepository) List(ctx context.Context, params PlanningListParams) ([]*Planning, int64, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if params.Status != nil {
		whereClause += fmt.Sprintf(" AND p.status = $%d", argNum)
		args = append(args, *params.Status)
		argNum++
	}
	if params.CreatorID != nil {
		whereClause += fmt.Sprintf(" AND p.creator_id = $%d", argNum)
		args = append(args, *params.CreatorID)
		argNum++
	}
	if params.From != nil {
		whereClause += fmt.Sprintf(" AND p.period_to >= $%d", argNum)
		args = append(args, *params.From)
		argNum++
	}
	if params.To != nil {
		whereClause += fmt.Sprintf(" AND p.period_from <= $%d", argNum)
		args = append(args, *params.To)
		argNum++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM plannings p " + whereClause
	if err := r.q.GetContext(ctx, &total, countQuery, args...); err != nil {
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
		SELECT p.id, p.name, p.creator_id, p.period_from, p.period_to, p.status,
		       p.created_at, p.updated_at,
		       CONCAT(e.first_name, ' ', e.last_name) AS creator_name
		FROM plannings p
		LEFT JOIN employees e ON p.creator_id = e.id
	` + whereClause + fmt.Sprintf(`
		ORDER BY p.period_from DESC, p.created_at DESC
		LIMIT $%d OFFSET $%d`, argNum, argNum+1)

	args = append(args, params.PerPage, offset)

	var plannings []*Planning
	if err := r.q.SelectContext(ctx, &plannings, query, args...); err != nil {
		return nil, 0, err
	}

	return plannings, total, nil
}

// Update modifies a planning's name and period. Only drafts can change.
func (r *PlanningRepository) Update(ctx context.Context, planning *Planning) error {
	query := `
		UPDATE plannings SET name = $2, period_from = $3, period_to = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
	`
	result, err := r.q.ExecContext(ctx, query,
		planning.ID, planning.Name, planning.From, planning.To,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict("planning is not editable in its current status")
	}

	return nil
}

// UpdateStatus transitions the planning from one of the expected statuses
// to a new one. The guard on the current status makes concurrent transitions
// race-safe: only one of two competing updates finds a row to change.
func (r *PlanningRepository) UpdateStatus(ctx context.Context, id string, fromStatuses []string, toStatus string) error {
	query := `UPDATE plannings SET status = $3, updated_at = NOW() WHERE id = $1 AND status = ANY($2)`

	result, err := r.q.ExecContext(ctx, query, id, pq.Array(fromStatuses), toStatus)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.Conflict(fmt.Sprintf("planning cannot move to %s from its current status", toStatus))
	}

	return nil
}

// Delete removes a planning and, via the schema, its slots and summaries.
// Published plannings are refused at the service layer.
func (r *PlanningRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM plannings WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("planning")
	}

	return nil
}

// ListEmployeeIDs returns the distinct employees with slots in the planning.
func (r *PlanningRepository) ListEmployeeIDs(ctx context.Context, planningID string) ([]string, error) {
	var ids []string
	query := `SELECT DISTINCT employee_id FROM time_slots WHERE planning_id = $1`

	if err := r.q.SelectContext(ctx, &ids, query, planningID); err != nil {
		return nil, err
	}

	return ids, nil
}
