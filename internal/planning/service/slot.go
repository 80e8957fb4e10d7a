package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/planora/planora-backend/internal/planning/events"
	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/pkg/database"
	"github.com/planora/planora-backend/pkg/errors"
	"github.com/planora/planora-backend/pkg/logger"
)

// SlotService handles time slot scheduling
type SlotService struct {
	db           *database.DB
	slots        *repository.SlotRepository
	plannings    *repository.PlanningRepository
	availability *repository.AvailabilityRepository
	leaves       *repository.LeaveRepository
	summaries    *repository.SummaryRepository
	publisher    *events.PlanningEventPublisher
	logger       *logger.Logger
}

// NewSlotService creates a new slot service
func NewSlotService(
	db *database.DB,
	slots *repository.SlotRepository,
	plannings *repository.PlanningRepository,
	availability *repository.AvailabilityRepository,
	leaves *repository.LeaveRepository,
	summaries *repository.SummaryRepository,
	publisher *events.PlanningEventPublisher,
	log *logger.Logger,
) *SlotService {
	return &SlotService{
		db:           db,
		slots:        slots,
		plannings:    plannings,
		availability: availability,
		leaves:       leaves,
		summaries:    summaries,
		publisher:    publisher,
		logger:       log,
	}
}

// checker builds a conflict checker whose slot reads run on the transaction,
// so a concurrent insert cannot slip between the check and the write.
func (s *SlotService) checker(tx *sqlx.Tx) *engine.Checker {
	return engine.NewChecker(s.slots.WithTx(tx), s.availability, s.leaves)
}

// aggregator builds an hour aggregator bound to the transaction.
func (s *SlotService) aggregator(tx *sqlx.Tx) *engine.Aggregator {
	return engine.NewAggregator(s.slots.WithTx(tx), s.summaries.WithTx(tx), s.logger.Logger)
}

// CreateSlotRequest carries a new slot
type CreateSlotRequest struct {
	PlanningID string    `json:"planning_id" validate:"required,uuid"`
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	TaskID     *string   `json:"task_id,omitempty" validate:"omitempty,uuid"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	Kind       string    `json:"kind,omitempty" validate:"omitempty,oneof=work training meeting"`
}

// Create schedules a new slot. The conflict check and the insert run in one
// serializable transaction; the report comes back non-nil alongside a
// conflict error so callers can show what collided.
func (s *SlotService) Create(ctx context.Context, req *CreateSlotRequest) (*repository.Slot, *engine.ConflictReport, error) {
	window := engine.Interval{Start: req.StartAt, End: req.EndAt}
	if !window.IsValid() {
		return nil, nil, engine.ErrBadWindow
	}

	planning, err := s.plannings.GetByID(ctx, req.PlanningID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.ensureEditable(planning); err != nil {
		return nil, nil, err
	}
	if err := ensureWithinPeriod(planning, window); err != nil {
		return nil, nil, err
	}

	slot := &repository.Slot{
		PlanningID: req.PlanningID,
		EmployeeID: req.EmployeeID,
		TaskID:     req.TaskID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Kind:       req.Kind,
	}

	var report *engine.ConflictReport
	err = s.db.Serializable(ctx, func(tx *sqlx.Tx) error {
		report, err = s.checker(tx).FindConflicts(ctx, req.EmployeeID, window, engine.Exclusion{})
		if err != nil {
			return err
		}
		if report.HasConflicts() {
			return errors.Conflict("the employee is already booked or on leave in this window")
		}

		if err := s.slots.WithTx(tx).Create(ctx, slot); err != nil {
			return err
		}

		_, err = s.aggregator(tx).Recompute(ctx, slot.PlanningID, slot.EmployeeID)
		return err
	})
	if err != nil {
		if errors.Is(err, errors.ErrConflict) {
			return nil, report, err
		}
		return nil, nil, err
	}

	s.logger.Info().
		Str("slot_id", slot.ID).
		Str("planning_id", slot.PlanningID).
		Str("employee_id", slot.EmployeeID).
		Msg("slot created")

	s.publisher.PublishSlotCreated(ctx, slot)

	return slot, report, nil
}

// UpdateSlotRequest carries changes to an existing slot
type UpdateSlotRequest struct {
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	TaskID     *string   `json:"task_id,omitempty" validate:"omitempty,uuid"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	Kind       string    `json:"kind,omitempty" validate:"omitempty,oneof=work training meeting"`
	Validated  bool      `json:"validated"`
	TaskStatus string    `json:"task_status,omitempty" validate:"omitempty,oneof=planned in_progress done"`
}

// Update moves or reassigns a slot. The slot's own stored window is excluded
// from the conflict check. When the slot changes employee, both the old and
// the new pair get their summary recomputed.
func (s *SlotService) Update(ctx context.Context, slotID string, req *UpdateSlotRequest) (*repository.Slot, *engine.ConflictReport, error) {
	window := engine.Interval{Start: req.StartAt, End: req.EndAt}
	if !window.IsValid() {
		return nil, nil, engine.ErrBadWindow
	}

	existing, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, nil, err
	}

	planning, err := s.plannings.GetByID(ctx, existing.PlanningID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.ensureEditable(planning); err != nil {
		return nil, nil, err
	}
	if err := ensureWithinPeriod(planning, window); err != nil {
		return nil, nil, err
	}

	previousEmployee := existing.EmployeeID

	updated := &repository.Slot{
		ID:         existing.ID,
		PlanningID: existing.PlanningID,
		EmployeeID: req.EmployeeID,
		TaskID:     req.TaskID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Kind:       req.Kind,
		Validated:  req.Validated,
		TaskStatus: req.TaskStatus,
	}
	if updated.Kind == "" {
		updated.Kind = existing.Kind
	}
	if updated.TaskStatus == "" {
		updated.TaskStatus = existing.TaskStatus
	}

	var report *engine.ConflictReport
	err = s.db.Serializable(ctx, func(tx *sqlx.Tx) error {
		report, err = s.checker(tx).FindConflicts(ctx, req.EmployeeID, window,
			engine.Exclusion{SlotID: &slotID})
		if err != nil {
			return err
		}
		if report.HasConflicts() {
			return errors.Conflict("the employee is already booked or on leave in this window")
		}

		if err := s.slots.WithTx(tx).Update(ctx, updated); err != nil {
			return err
		}

		agg := s.aggregator(tx)
		if _, err := agg.Recompute(ctx, updated.PlanningID, updated.EmployeeID); err != nil {
			return err
		}
		if previousEmployee != updated.EmployeeID {
			if _, err := agg.Recompute(ctx, updated.PlanningID, previousEmployee); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrConflict) {
			return nil, report, err
		}
		return nil, nil, err
	}

	s.logger.Info().
		Str("slot_id", updated.ID).
		Str("planning_id", updated.PlanningID).
		Msg("slot updated")

	s.publisher.PublishSlotUpdated(ctx, updated)

	return updated, report, nil
}

// Delete removes a slot and recomputes its pair's summary in the same
// transaction.
func (s *SlotService) Delete(ctx context.Context, slotID string) error {
	existing, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return err
	}

	planning, err := s.plannings.GetByID(ctx, existing.PlanningID)
	if err != nil {
		return err
	}
	if err := s.ensureEditable(planning); err != nil {
		return err
	}

	err = s.db.Serializable(ctx, func(tx *sqlx.Tx) error {
		if err := s.slots.WithTx(tx).Delete(ctx, slotID); err != nil {
			return err
		}
		_, err := s.aggregator(tx).Recompute(ctx, existing.PlanningID, existing.EmployeeID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("slot_id", slotID).
		Str("planning_id", existing.PlanningID).
		Msg("slot deleted")

	s.publisher.PublishSlotDeleted(ctx, existing)

	return nil
}

// GetByID retrieves a slot
func (s *SlotService) GetByID(ctx context.Context, slotID string) (*repository.Slot, error) {
	return s.slots.GetByID(ctx, slotID)
}

// List returns slots matching the filters
func (s *SlotService) List(ctx context.Context, params repository.SlotListParams) ([]*repository.Slot, error) {
	return s.slots.List(ctx, params)
}

// CheckRequest is a dry-run conflict probe
type CheckRequest struct {
	EmployeeID        string    `json:"employee_id" validate:"required,uuid"`
	StartAt           time.Time `json:"start_at" validate:"required"`
	EndAt             time.Time `json:"end_at" validate:"required"`
	ExcludeSlotID     *string   `json:"exclude_slot_id,omitempty" validate:"omitempty,uuid"`
	ExcludePlanningID *string   `json:"exclude_planning_id,omitempty" validate:"omitempty,uuid"`
}

// Check runs the conflict check without writing anything
func (s *SlotService) Check(ctx context.Context, req *CheckRequest) (*engine.ConflictReport, error) {
	checker := engine.NewChecker(s.slots, s.availability, s.leaves)
	return checker.FindConflicts(ctx, req.EmployeeID,
		engine.Interval{Start: req.StartAt, End: req.EndAt},
		engine.Exclusion{SlotID: req.ExcludeSlotID, PlanningID: req.ExcludePlanningID})
}

func (s *SlotService) ensureEditable(planning *repository.Planning) error {
	switch planning.Status {
	case repository.PlanningStatusDraft, repository.PlanningStatusPublished:
		return nil
	default:
		return errors.Conflict("planning is not editable in its current status")
	}
}

// ensureWithinPeriod keeps every slot inside the planning's date range. The
// period is a closed date range, so the end date is widened by a day before
// the half-open comparison.
func ensureWithinPeriod(planning *repository.Planning, window engine.Interval) error {
	periodStart := planning.From
	periodEnd := planning.To.AddDate(0, 0, 1)
	if window.Start.Before(periodStart) || window.End.After(periodEnd) {
		return errors.BadRequest("slot window falls outside the planning period")
	}
	return nil
}
