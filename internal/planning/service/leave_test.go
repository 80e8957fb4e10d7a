package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/planora-backend/internal/planning/events"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/messaging"
	"github.com/planora/planora-backend/pkg/testutil"
)

func newLeaveService(mockDB *testutil.MockDB, publisher *testutil.MockPublisher) *service.LeaveService {
	log := logger.Nop()
	return service.NewLeaveService(
		repository.NewLeaveRepository(mockDB.DB),
		repository.NewEmployeeRepository(mockDB.DB),
		events.NewPlanningEventPublisherWithSink(publisher, log),
		log,
	)
}

func expectGetLeave(mockDB *testutil.MockDB, id, employeeID, status string, start, end time.Time) {
	rows := testutil.MockRows(
		"id", "employee_id", "leave_type", "start_at", "end_at", "status",
		"reason", "reviewed_by", "reviewed_at", "created_at", "updated_at", "employee_name",
	).AddRow(id, employeeID, "paid", start, end, status, nil, nil, nil, time.Now(), time.Now(), "Jane Doe")

	mockDB.Mock.ExpectQuery("SELECT lr.id, lr.employee_id").
		WithArgs(id).
		WillReturnRows(rows)
}

func expectTransition(mockDB *testutil.MockDB, id string, from []string, to, reviewer, employeeID string, start, end time.Time) {
	rows := testutil.MockRows(
		"id", "employee_id", "leave_type", "start_at", "end_at", "status",
		"reason", "reviewed_by", "reviewed_at", "created_at", "updated_at",
	).AddRow(id, employeeID, "paid", start, end, to, nil, reviewer, time.Now(), time.Now(), time.Now())

	mockDB.Mock.ExpectQuery("UPDATE leave_requests").
		WithArgs(id, to, reviewer, pq.Array(from)).
		WillReturnRows(rows)
}

func TestLeaveService_Approve(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	publisher := testutil.NewMockPublisher()
	svc := newLeaveService(mockDB, publisher)

	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	expectGetLeave(mockDB, "leave-1", "emp-1", "pending", start, end)
	expectTransition(mockDB, "leave-1", []string{"pending"}, "approved", "emp-2", "emp-1", start, end)

	leave, err := svc.Approve(context.Background(), "leave-1", "emp-2")
	require.NoError(t, err)

	assert.Equal(t, "approved", leave.Status)
	publisher.AssertEventPublished(t, messaging.EventLeaveApproved)
	mockDB.ExpectationsWereMet(t)
}

func TestLeaveService_Approve_SelfReviewForbidden(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	publisher := testutil.NewMockPublisher()
	svc := newLeaveService(mockDB, publisher)

	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	// Requester and reviewer are the same employee: no update may run.
	expectGetLeave(mockDB, "leave-1", "emp-1", "pending", start, end)

	_, err := svc.Approve(context.Background(), "leave-1", "emp-1")
	assert.True(t, errors.Is(err, errors.ErrForbidden))

	publisher.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestLeaveService_Reject_TerminalAfterReview(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	publisher := testutil.NewMockPublisher()
	svc := newLeaveService(mockDB, publisher)

	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	// Already rejected: the guarded transition matches no row.
	expectGetLeave(mockDB, "leave-1", "emp-1", "rejected", start, end)
	mockDB.Mock.ExpectQuery("UPDATE leave_requests").
		WithArgs("leave-1", "approved", "emp-2", pq.Array([]string{"pending"})).
		WillReturnRows(testutil.MockRows("id"))

	_, err := svc.Approve(context.Background(), "leave-1", "emp-2")
	assert.True(t, errors.Is(err, errors.ErrConflict))

	publisher.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestLeaveService_Cancel(t *testing.T) {
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	t.Run("pending can always be cancelled", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		publisher := testutil.NewMockPublisher()
		svc := newLeaveService(mockDB, publisher).
			WithClock(func() time.Time { return time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC) })

		expectGetLeave(mockDB, "leave-1", "emp-1", "pending", start, end)
		expectTransition(mockDB, "leave-1", []string{"pending", "approved"}, "cancelled", "emp-1", "emp-1", start, end)

		leave, err := svc.Cancel(context.Background(), "leave-1", "emp-1")
		require.NoError(t, err)

		assert.Equal(t, "cancelled", leave.Status)
		publisher.AssertEventPublished(t, messaging.EventLeaveCancelled)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("approved can be cancelled before it starts", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		publisher := testutil.NewMockPublisher()
		svc := newLeaveService(mockDB, publisher).
			WithClock(func() time.Time { return time.Date(2024, 6, 9, 23, 0, 0, 0, time.UTC) })

		expectGetLeave(mockDB, "leave-1", "emp-1", "approved", start, end)
		expectTransition(mockDB, "leave-1", []string{"pending", "approved"}, "cancelled", "emp-1", "emp-1", start, end)

		_, err := svc.Cancel(context.Background(), "leave-1", "emp-1")
		require.NoError(t, err)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("only the requester can cancel", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		publisher := testutil.NewMockPublisher()
		svc := newLeaveService(mockDB, publisher)

		// Another employee, even one allowed to request leave, cannot
		// withdraw someone else's request. No update may run.
		expectGetLeave(mockDB, "leave-1", "emp-1", "pending", start, end)

		_, err := svc.Cancel(context.Background(), "leave-1", "emp-2")
		assert.True(t, errors.Is(err, errors.ErrForbidden))

		publisher.AssertNoEventsPublished(t)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("approved cannot be cancelled once started", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		defer mockDB.Close()
		publisher := testutil.NewMockPublisher()
		svc := newLeaveService(mockDB, publisher).
			WithClock(func() time.Time { return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) })

		expectGetLeave(mockDB, "leave-1", "emp-1", "approved", start, end)

		_, err := svc.Cancel(context.Background(), "leave-1", "emp-1")
		assert.True(t, errors.Is(err, errors.ErrConflict))

		publisher.AssertNoEventsPublished(t)
		mockDB.ExpectationsWereMet(t)
	})
}

func TestLeaveService_Request_RejectsInvertedPeriod(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	publisher := testutil.NewMockPublisher()
	svc := newLeaveService(mockDB, publisher)

	_, err := svc.Request(context.Background(), &service.RequestLeaveRequest{
		EmployeeID: "emp-1",
		StartAt:    time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
	})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
	mockDB.ExpectationsWereMet(t)
}
