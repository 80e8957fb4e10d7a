package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
)

// Availability is a recurring weekly window an employee declared themselves
// available for. Weekday follows time.Weekday (0 = Sunday).
type Availability struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	Weekday    int       `db:"weekday" json:"weekday"`
	StartTime  string    `db:"start_time" json:"start_time"` // TIME format HH:MM:SS
	EndTime    string    `db:"end_time" json:"end_time"`     // TIME format HH:MM:SS
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// AvailabilityRepository handles availability persistence
type AvailabilityRepository struct {
	db *database.DB
}

// NewAvailabilityRepository creates a new availability repository
func NewAvailabilityRepository(db *database.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create inserts a new availability window
func (r *AvailabilityRepository) Create(ctx context.Context, availability *Availability) error {
	if availability.ID == "" {
		availability.ID = uuid.New().String()
	}

	query := `
		INSERT INTO availabilities (id, employee_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		availability.ID, availability.EmployeeID, availability.Weekday,
		availability.StartTime, availability.EndTime,
	).Scan(&availability.CreatedAt, &availability.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	return nil
}

// GetByID retrieves an availability window by ID
func (r *AvailabilityRepository) GetByID(ctx context.Context, id string) (*Availability, error) {
	var availability Availability
	query := `
		SELECT id, employee_id, weekday,
		       start_time::text AS start_time, end_time::text AS end_time,
		       created_at, updated_at
		FROM availabilities
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &availability, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("availability")
	}
	if err != nil {
		return nil, err
	}

	return &availability, nil
}

// ListByEmployee returns the employee's windows ordered by weekday and start
func (r *AvailabilityRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*Availability, error) {
	var windows []*Availability
	query := `
		SELECT id, employee_id, weekday,
		       start_time::text AS start_time, end_time::text AS end_time,
		       created_at, updated_at
		FROM availabilities
		WHERE employee_id = $1
		ORDER BY weekday, start_time
	`
	if err := r.db.SelectContext(ctx, &windows, query, employeeID); err != nil {
		return nil, err
	}

	return windows, nil
}

// Update modifies an availability window
func (r *AvailabilityRepository) Update(ctx context.Context, availability *Availability) error {
	query := `
		UPDATE availabilities SET weekday = $2, start_time = $3, end_time = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		availability.ID, availability.Weekday, availability.StartTime, availability.EndTime,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return database.MapPQError(pqErr)
		}
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("availability")
	}

	return nil
}

// Delete removes an availability window
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM availabilities WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("availability")
	}

	return nil
}

// ListForEmployee converts the employee's TIME windows to minutes since
// midnight. Implements the conflict checker's availability source.
func (r *AvailabilityRepository) ListForEmployee(ctx context.Context, employeeID string) ([]engine.AvailabilityWindow, error) {
	windows, err := r.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	out := make([]engine.AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		start, err := parseMinutes(w.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := parseMinutes(w.EndTime)
		if err != nil {
			return nil, err
		}
		out = append(out, engine.AvailabilityWindow{
			Weekday:      time.Weekday(w.Weekday),
			StartMinutes: start,
			EndMinutes:   end,
		})
	}

	return out, nil
}

func parseMinutes(value string) (int, error) {
	parsed, err := time.Parse("15:04:05", value)
	if err != nil {
		return 0, errors.Internal("malformed availability time " + value)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
