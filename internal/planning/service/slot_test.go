package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/planora/planora-backend/internal/planning/events"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/messaging"
	"github.com/planora/planora-backend/pkg/testutil"
)

const (
	testPlanningID = "5f3c1c4e-0000-4000-8000-000000000001"
	testEmployeeID = "5f3c1c4e-0000-4000-8000-000000000002"
)

func newSlotService(mockDB *testutil.MockDB, publisher *testutil.MockPublisher) *service.SlotService {
	log := logger.Nop()
	return service.NewSlotService(
		mockDB.DB,
		repository.NewSlotRepository(mockDB.DB),
		repository.NewPlanningRepository(mockDB.DB),
		repository.NewAvailabilityRepository(mockDB.DB),
		repository.NewLeaveRepository(mockDB.DB),
		repository.NewSummaryRepository(mockDB.DB),
		events.NewPlanningEventPublisherWithSink(publisher, log),
		log,
	)
}

func expectGetPlanning(mockDB *testutil.MockDB, id, status string, from, to time.Time) {
	rows := testutil.MockRows(
		"id", "name", "creator_id", "period_from", "period_to", "status",
		"created_at", "updated_at", "creator_name", "slot_count",
	).AddRow(id, "June roster", "creator-1", from, to, status, time.Now(), time.Now(), "Ada Admin", 0)

	mockDB.Mock.ExpectQuery("SELECT p.id, p.name").
		WithArgs(id).
		WillReturnRows(rows)
}

func TestSlotService_Create(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	publisher := testutil.NewMockPublisher()
	svc := newSlotService(mockDB, publisher)

	periodFrom := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	periodTo := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	expectGetPlanning(mockDB, testPlanningID, repository.PlanningStatusDraft, periodFrom, periodTo)

	mockDB.Mock.ExpectBegin()

	// Conflict check: overlapping slots, blocking leaves, declared windows.
	mockDB.Mock.ExpectQuery("SELECT ts.id, ts.planning_id, ts.start_at").
		WithArgs(testEmployeeID, start, end).
		WillReturnRows(testutil.MockRows("id", "planning_id", "start_at", "end_at", "planning_name", "task_label"))
	mockDB.Mock.ExpectQuery("SELECT id, status, start_at, end_at").
		WithArgs(testEmployeeID, start, end).
		WillReturnRows(testutil.MockRows("id", "status", "start_at", "end_at"))
	mockDB.Mock.ExpectQuery("SELECT id, employee_id, weekday").
		WithArgs(testEmployeeID).
		WillReturnRows(testutil.MockRows("id", "employee_id", "weekday", "start_time", "end_time", "created_at", "updated_at"))

	mockDB.Mock.ExpectQuery("INSERT INTO time_slots").
		WithArgs(testutil.AnyUUID{}, testPlanningID, testEmployeeID, nil, start, end, "work", false, "planned").
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(time.Now(), time.Now()))

	// Summary recompute for the pair: 4h -> 4 normal hours, 0 extra minutes.
	mockDB.Mock.ExpectQuery("SELECT start_at, end_at FROM time_slots").
		WithArgs(testPlanningID, testEmployeeID).
		WillReturnRows(testutil.MockRows("start_at", "end_at").AddRow(start, end))
	mockDB.Mock.ExpectExec("INSERT INTO hour_summaries").
		WithArgs(testutil.AnyUUID{}, testPlanningID, testEmployeeID, 4, 0, start, end).
		WillReturnResult(testutil.Result(0, 1))

	mockDB.Mock.ExpectCommit()

	slot, report, err := svc.Create(context.Background(), &service.CreateSlotRequest{
		PlanningID: testPlanningID,
		EmployeeID: testEmployeeID,
		StartAt:    start,
		EndAt:      end,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, slot.ID)
	assert.Equal(t, "work", slot.Kind)
	assert.False(t, report.HasConflicts())
	publisher.AssertEventPublished(t, messaging.EventSlotCreated)
	mockDB.ExpectationsWereMet(t)
}

func TestSlotService_Create_ConflictRollsBack(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	publisher := testutil.NewMockPublisher()
	svc := newSlotService(mockDB, publisher)

	periodFrom := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	periodTo := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	expectGetPlanning(mockDB, testPlanningID, repository.PlanningStatusDraft, periodFrom, periodTo)

	mockDB.Mock.ExpectBegin()

	// An existing slot covers 10:00-14:00, overlapping the requested window.
	mockDB.Mock.ExpectQuery("SELECT ts.id, ts.planning_id, ts.start_at").
		WithArgs(testEmployeeID, start, end).
		WillReturnRows(testutil.MockRows("id", "planning_id", "start_at", "end_at", "planning_name", "task_label").
			AddRow("slot-1", "other-planning", start.Add(2*time.Hour), end.Add(2*time.Hour), "Other roster", nil))
	mockDB.Mock.ExpectQuery("SELECT id, status, start_at, end_at").
		WithArgs(testEmployeeID, start, end).
		WillReturnRows(testutil.MockRows("id", "status", "start_at", "end_at"))
	mockDB.Mock.ExpectQuery("SELECT id, employee_id, weekday").
		WithArgs(testEmployeeID).
		WillReturnRows(testutil.MockRows("id", "employee_id", "weekday", "start_time", "end_time", "created_at", "updated_at"))

	mockDB.Mock.ExpectRollback()

	_, report, err := svc.Create(context.Background(), &service.CreateSlotRequest{
		PlanningID: testPlanningID,
		EmployeeID: testEmployeeID,
		StartAt:    start,
		EndAt:      end,
	})
	assert.True(t, errors.Is(err, errors.ErrConflict))

	require.NotNil(t, report)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "slot-1", report.Conflicts[0].SlotID)

	publisher.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestSlotService_Create_RejectsInvertedWindow(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	publisher := testutil.NewMockPublisher()
	svc := newSlotService(mockDB, publisher)

	start := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

	_, _, err := svc.Create(context.Background(), &service.CreateSlotRequest{
		PlanningID: testPlanningID,
		EmployeeID: testEmployeeID,
		StartAt:    start,
		EndAt:      end,
	})
	assert.True(t, errors.Is(err, engine.ErrBadWindow))
	mockDB.ExpectationsWereMet(t)
}

func TestSlotService_Create_OutsidePlanningPeriod(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	publisher := testutil.NewMockPublisher()
	svc := newSlotService(mockDB, publisher)

	periodFrom := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	periodTo := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	expectGetPlanning(mockDB, testPlanningID, repository.PlanningStatusDraft, periodFrom, periodTo)

	_, _, err := svc.Create(context.Background(), &service.CreateSlotRequest{
		PlanningID: testPlanningID,
		EmployeeID: testEmployeeID,
		StartAt:    time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
	})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
	mockDB.ExpectationsWereMet(t)
}

func TestSlotService_Create_CancelledPlanningNotEditable(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	publisher := testutil.NewMockPublisher()
	svc := newSlotService(mockDB, publisher)

	periodFrom := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	periodTo := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	expectGetPlanning(mockDB, testPlanningID, repository.PlanningStatusCancelled, periodFrom, periodTo)

	_, _, err := svc.Create(context.Background(), &service.CreateSlotRequest{
		PlanningID: testPlanningID,
		EmployeeID: testEmployeeID,
		StartAt:    time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
	})
	assert.True(t, errors.Is(err, errors.ErrConflict))

	publisher.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}
