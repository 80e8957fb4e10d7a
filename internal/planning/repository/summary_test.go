package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/pkg/testutil"
)

func TestSummaryRepository_Upsert(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewSummaryRepository(mockDB.DB)
	from := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 7, 17, 0, 0, 0, time.UTC)

	mockDB.Mock.ExpectExec("INSERT INTO hour_summaries").
		WithArgs(testutil.AnyUUID{}, "plan-1", "emp-1", 2, 5, from, to).
		WillReturnResult(testutil.Result(0, 1))

	err := repo.Upsert(context.Background(), &engine.HourSummary{
		PlanningID:   "plan-1",
		EmployeeID:   "emp-1",
		NormalHours:  2,
		ExtraMinutes: 5,
		PeriodStart:  from,
		PeriodEnd:    to,
	})
	require.NoError(t, err)

	mockDB.ExpectationsWereMet(t)
}

func TestSummaryRepository_Delete_MissingRowIsFine(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewSummaryRepository(mockDB.DB)

	mockDB.ExpectExec("DELETE FROM hour_summaries WHERE planning_id = $1 AND employee_id = $2").
		WithArgs("plan-1", "emp-1").
		WillReturnResult(testutil.Result(0, 0))

	// Deleting an absent summary must not error, recomputes are idempotent.
	err := repo.Delete(context.Background(), "plan-1", "emp-1")
	assert.NoError(t, err)

	mockDB.ExpectationsWereMet(t)
}
