package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/planora/planora-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Exclusion constraint violation (23P01) - the overlap backstop on slots
	case "23P01":
		return errors.Conflict("an overlapping time slot already exists for this employee")

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// Serialization failure (40001) - caller should retry
	case "40001":
		return errors.Conflict("concurrent modification detected, retry the request")

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "slot_window_valid"):
		return errors.Validation(map[string]string{
			"end_at": "must be after start_at",
		})

	case strings.Contains(constraint, "planning_period_valid"):
		return errors.Validation(map[string]string{
			"period_to": "must not be before period_from",
		})

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "is not a recognized status value",
		})

	case strings.Contains(constraint, "kind_valid"):
		return errors.Validation(map[string]string{
			"kind": "must be one of: work, training, meeting",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "hour_summaries"):
		return "an hour summary already exists for this planning and employee"
	case strings.Contains(constraint, "email"):
		return "an employee with this email already exists"
	case strings.Contains(constraint, "availabilities"):
		return "an availability window already exists for this employee and weekday"
	default:
		return "a record with these values already exists"
	}
}
