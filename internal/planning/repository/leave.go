package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
)

// Leave statuses
const (
	LeaveStatusPending   = "pending"
	LeaveStatusApproved  = "approved"
	LeaveStatusRejected  = "rejected"
	LeaveStatusCancelled = "cancelled"
)

// Leave represents a leave request. Start and end dates are inclusive on
// both ends.
type Leave struct {
	ID         string     `db:"id" json:"id"`
	EmployeeID string     `db:"employee_id" json:"employee_id"`
	LeaveType  string     `db:"leave_type" json:"leave_type"`
	StartAt    time.Time  `db:"start_at" json:"start_at"`
	EndAt      time.Time  `db:"end_at" json:"end_at"`
	Status     string     `db:"status" json:"status"`
	Reason     *string    `db:"reason" json:"reason,omitempty"`
	ReviewedBy *string    `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`

	// Joined fields
	EmployeeName *string `db:"employee_name" json:"employee_name,omitempty"`
}

// LeaveListParams holds filters for listing leave requests
type LeaveListParams struct {
	EmployeeID *string
	Status     *string
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}

// LeaveRepository handles leave request persistence
type LeaveRepository struct {
	db *database.DB
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *database.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create inserts a new leave request in pending status
func (r *LeaveRepository) Create(ctx context.Context, leave *Leave) error {
	if leave.ID == "" {
		leave.ID = uuid.New().String()
	}
	if leave.Status == "" {
		leave.Status = LeaveStatusPending
	}
	if leave.LeaveType == "" {
		leave.LeaveType = "paid"
	}

	query := `
		INSERT INTO leave_requests (id, employee_id, leave_type, start_at, end_at, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		leave.ID, leave.EmployeeID, leave.LeaveType,
		leave.StartAt, leave.EndAt, leave.Status, leave.Reason,
	).Scan(&leave.CreatedAt, &leave.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	return nil
}

// GetByID retrieves a leave request with its employee name
func (r *LeaveRepository) GetByID(ctx context.Context, id string) (*Leave, error) {
	var leave Leave
	query := `
		SELECT lr.id, lr.employee_id, lr.leave_type, lr.start_at, lr.end_at, lr.status,
		       lr.reason, lr.reviewed_by, lr.reviewed_at, lr.created_at, lr.updated_at,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name
		FROM leave_requests lr
		LEFT JOIN employees e ON lr.employee_id = e.id
		WHERE lr.id = $1
	`
	err := r.db.GetContext(ctx, &leave, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("leave request")
	}
	if err != nil {
		return nil, err
	}

	return &leave, nil
}

// List returns leave requests matching the filters with a total count
func (r *LeaveRepository) List(ctx context.Context, params LeaveListParams) ([]*Leave, int64, error) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if params.EmployeeID != nil {
		whereClause += fmt.Sprintf(" AND lr.employee_id = $%d", argNum)
		args = append(args, *params.EmployeeID)
		argNum++
	}
	if params.Status != nil {
		whereClause += fmt.Sprintf(" AND lr.status = $%d", argNum)
		args = append(args, *params.Status)
		argNum++
	}
	if params.From != nil {
		whereClause += fmt.Sprintf(" AND lr.end_at >= $%d", argNum)
		args = append(args, *params.From)
		argNum++
	}
	if params.To != nil {
		whereClause += fmt.Sprintf(" AND lr.start_at <= $%d", argNum)
		args = append(args, *params.To)
		argNum++
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM leave_requests lr " + whereClause
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
		SELECT lr.id, lr.employee_id, lr.leave_type, lr.start_at, lr.end_at, lr.status,
		       lr.reason, lr.reviewed_by, lr.reviewed_at, lr.created_at, lr.updated_at,
		       CONCAT(e.first_name, ' ', e.last_name) AS employee_name
		FROM leave_requests lr
		LEFT JOIN employees e ON lr.employee_id = e.id
	` + whereClause + fmt.Sprintf(`
		ORDER BY lr.start_at DESC, lr.created_at DESC
		LIMIT $%d OFFSET $%d`, argNum, argNum+1)

	args = append(args, params.PerPage, offset)

	var leaves []*Leave
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, 0, err
	}

	return leaves, total, nil
}

// TransitionStatus moves a leave request from one of the expected statuses
// to a new one, recording the reviewer. The status guard makes concurrent
// reviews race-safe: the second reviewer's update matches no row.
func (r *LeaveRepository) TransitionStatus(ctx context.Context, id string, fromStatuses []string, toStatus, reviewerID string) (*Leave, error) {
	query := `
		UPDATE leave_requests
		SET status = $2, reviewed_by = $3, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = ANY($4)
		RETURNING id, employee_id, leave_type, start_at, end_at, status,
		          reason, reviewed_by, reviewed_at, created_at, updated_at
	`
	var leave Leave
	err := r.db.QueryRowxContext(ctx, query, id, toStatus, reviewerID, pq.Array(fromStatuses)).
		StructScan(&leave)
	if err == sql.ErrNoRows {
		return nil, errors.Conflict("leave request cannot be moved to " + toStatus + " from its current status")
	}
	if err != nil {
		return nil, err
	}

	return &leave, nil
}

// ListBlocking returns pending and approved leave periods touching the
// window. Implements the conflict checker's leave source.
func (r *LeaveRepository) ListBlocking(ctx context.Context, employeeID string, window engine.Interval) ([]engine.LeavePeriod, error) {
	type row struct {
		ID      string    `db:"id"`
		Status  string    `db:"status"`
		StartAt time.Time `db:"start_at"`
		EndAt   time.Time `db:"end_at"`
	}

	// Closed date range widened by a day on the end side before comparing
	// against the half-open timestamp window.
	query := `
		SELECT id, status, start_at, end_at
		FROM leave_requests
		WHERE employee_id = $1
		  AND status IN ('pending', 'approved')
		  AND start_at < $3::date + 1
		  AND end_at + 1 > $2::date
		ORDER BY start_at
	`
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, query, employeeID, window.Start, window.End); err != nil {
		return nil, err
	}

	out := make([]engine.LeavePeriod, 0, len(rows))
	for _, rw := range rows {
		out = append(out, engine.LeavePeriod{
			ID:        rw.ID,
			Status:    rw.Status,
			StartDate: rw.StartAt,
			EndDate:   rw.EndAt,
		})
	}

	return out, nil
}
