package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/testutil"
)

func TestSlotRepository_ListOverlapping(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewSlotRepository(mockDB.DB)
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	label := "Front desk"

	rows := testutil.MockRows("id", "planning_id", "start_at", "end_at", "planning_name", "task_label").
		AddRow("slot-1", "plan-1", start, end, "Week 23", label)

	mockDB.Mock.ExpectQuery("SELECT ts.id, ts.planning_id").
		WithArgs("emp-1", start, end.Add(time.Hour)).
		WillReturnRows(rows)

	slots, err := repo.ListOverlapping(context.Background(), "emp-1",
		engine.Interval{Start: start, End: end.Add(time.Hour)}, engine.Exclusion{})
	require.NoError(t, err)

	require.Len(t, slots, 1)
	assert.Equal(t, "slot-1", slots[0].ID)
	assert.Equal(t, "Week 23", slots[0].PlanningName)
	require.NotNil(t, slots[0].TaskLabel)
	assert.Equal(t, "Front desk", *slots[0].TaskLabel)
	assert.Equal(t, engine.Interval{Start: start, End: end}, slots[0].Window)

	mockDB.ExpectationsWereMet(t)
}

func TestSlotRepository_ListOverlapping_ForwardsExclusions(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewSlotRepository(mockDB.DB)
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	slotID := "slot-1"
	planningID := "plan-1"

	mockDB.Mock.ExpectQuery("SELECT ts.id, ts.planning_id").
		WithArgs("emp-1", start, end, slotID, planningID).
		WillReturnRows(testutil.MockRows("id", "planning_id", "start_at", "end_at", "planning_name", "task_label"))

	slots, err := repo.ListOverlapping(context.Background(), "emp-1",
		engine.Interval{Start: start, End: end},
		engine.Exclusion{SlotID: &slotID, PlanningID: &planningID})
	require.NoError(t, err)
	assert.Empty(t, slots)

	mockDB.ExpectationsWereMet(t)
}

func TestSlotRepository_ListWindows(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewSlotRepository(mockDB.DB)
	start := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	rows := testutil.MockRows("start_at", "end_at").
		AddRow(start, start.Add(3*time.Hour)).
		AddRow(start.Add(5*time.Hour), start.Add(8*time.Hour))

	mockDB.Mock.ExpectQuery("SELECT start_at, end_at FROM time_slots").
		WithArgs("plan-1", "emp-1").
		WillReturnRows(rows)

	windows, err := repo.ListWindows(context.Background(), "plan-1", "emp-1")
	require.NoError(t, err)

	require.Len(t, windows, 2)
	assert.Equal(t, 180, windows[0].Minutes())
	assert.Equal(t, 180, windows[1].Minutes())

	mockDB.ExpectationsWereMet(t)
}

func TestSlotRepository_Delete_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	repo := repository.NewSlotRepository(mockDB.DB)

	mockDB.ExpectExec("DELETE FROM time_slots WHERE id = $1").
		WithArgs("missing").
		WillReturnResult(testutil.Result(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}
