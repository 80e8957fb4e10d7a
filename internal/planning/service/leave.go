package service

import (
	"context"
	"time"

	"github.com/planora/planora-backend/internal/planning/events"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/messaging"
)

// LeaveService handles the leave request lifecycle:
//
//	pending  -> approved | rejected | cancelled
//	approved -> cancelled (only before the leave starts)
//
// rejected and cancelled are terminal.
type LeaveService struct {
	leaves    *repository.LeaveRepository
	employees *repository.EmployeeRepository
	publisher *events.PlanningEventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewLeaveService creates a new leave service
func NewLeaveService(
	leaves *repository.LeaveRepository,
	employees *repository.EmployeeRepository,
	publisher *events.PlanningEventPublisher,
	log *logger.Logger,
) *LeaveService {
	return &LeaveService{
		leaves:    leaves,
		employees: employees,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *LeaveService) WithClock(now func() time.Time) *LeaveService {
	s.now = now
	return s
}

// RequestLeaveRequest carries a new leave request
type RequestLeaveRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	LeaveType  string    `json:"leave_type,omitempty" validate:"omitempty,oneof=paid unpaid sick family"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	Reason     *string   `json:"reason,omitempty"`
}

// Request files a new pending leave request. Start and end dates are
// inclusive, a single-day leave has start == end.
func (s *LeaveService) Request(ctx context.Context, req *RequestLeaveRequest) (*repository.Leave, error) {
	if req.EndAt.Before(req.StartAt) {
		return nil, errors.BadRequest("leave end date must not be before its start date")
	}

	employee, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee.Status != "active" {
		return nil, errors.Conflict("leave cannot be requested for an inactive employee")
	}

	leave := &repository.Leave{
		EmployeeID: req.EmployeeID,
		LeaveType:  req.LeaveType,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Reason:     req.Reason,
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("leave_id", leave.ID).
		Str("employee_id", leave.EmployeeID).
		Msg("leave requested")

	s.publisher.PublishLeaveStatus(ctx, messaging.EventLeaveRequested, leave, "")

	return leave, nil
}

// GetByID retrieves a leave request
func (s *LeaveService) GetByID(ctx context.Context, id string) (*repository.Leave, error) {
	return s.leaves.GetByID(ctx, id)
}

// List returns leave requests matching the filters
func (s *LeaveService) List(ctx context.Context, params repository.LeaveListParams) ([]*repository.Leave, int64, error) {
	return s.leaves.List(ctx, params)
}

// Approve moves a pending request to approved. Reviewers never review their
// own requests.
func (s *LeaveService) Approve(ctx context.Context, leaveID, reviewerEmployeeID string) (*repository.Leave, error) {
	return s.review(ctx, leaveID, reviewerEmployeeID, repository.LeaveStatusApproved, messaging.EventLeaveApproved)
}

// Reject moves a pending request to rejected. Rejected is terminal.
func (s *LeaveService) Reject(ctx context.Context, leaveID, reviewerEmployeeID string) (*repository.Leave, error) {
	return s.review(ctx, leaveID, reviewerEmployeeID, repository.LeaveStatusRejected, messaging.EventLeaveRejected)
}

func (s *LeaveService) review(ctx context.Context, leaveID, reviewerEmployeeID, toStatus, eventType string) (*repository.Leave, error) {
	leave, err := s.leaves.GetByID(ctx, leaveID)
	if err != nil {
		return nil, err
	}
	if leave.EmployeeID == reviewerEmployeeID {
		return nil, errors.Forbidden("you cannot review your own leave request")
	}

	updated, err := s.leaves.TransitionStatus(ctx, leaveID,
		[]string{repository.LeaveStatusPending}, toStatus, reviewerEmployeeID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("leave_id", leaveID).
		Str("reviewer_id", reviewerEmployeeID).
		Str("status", toStatus).
		Msg("leave reviewed")

	s.publisher.PublishLeaveStatus(ctx, eventType, updated, reviewerEmployeeID)

	return updated, nil
}

// Cancel withdraws a leave request. Only the requester can cancel. Pending
// requests can always be cancelled; approved ones only before their first
// day. Rejected and cancelled requests stay as they are.
func (s *LeaveService) Cancel(ctx context.Context, leaveID, actorEmployeeID string) (*repository.Leave, error) {
	leave, err := s.leaves.GetByID(ctx, leaveID)
	if err != nil {
		return nil, err
	}
	if leave.EmployeeID != actorEmployeeID {
		return nil, errors.Forbidden("only the requester can cancel a leave request")
	}

	if leave.Status == repository.LeaveStatusApproved && !s.beforeStart(leave) {
		return nil, errors.Conflict("an approved leave can only be cancelled before it starts")
	}

	updated, err := s.leaves.TransitionStatus(ctx, leaveID,
		[]string{repository.LeaveStatusPending, repository.LeaveStatusApproved},
		repository.LeaveStatusCancelled, actorEmployeeID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("leave_id", leaveID).
		Str("actor_id", actorEmployeeID).
		Msg("leave cancelled")

	s.publisher.PublishLeaveStatus(ctx, messaging.EventLeaveCancelled, updated, actorEmployeeID)

	return updated, nil
}

// beforeStart reports whether now is still strictly before the leave's
// first day.
func (s *LeaveService) beforeStart(leave *repository.Leave) bool {
	start := time.Date(
		leave.StartAt.Year(), leave.StartAt.Month(), leave.StartAt.Day(),
		0, 0, 0, 0, leave.StartAt.Location(),
	)
	return s.now().Before(start)
}
