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
	"github.com/planora/planora-backend/pkg/messaging"
)

// PlanningService handles planning lifecycle and bulk slot writes
type PlanningService struct {
	db           *database.DB
	plannings    *repository.PlanningRepository
	slots        *repository.SlotRepository
	availability *repository.AvailabilityRepository
	leaves       *repository.LeaveRepository
	publisher    *events.PlanningEventPublisher
	logger       *logger.Logger
}

// NewPlanningService creates a new planning service
func NewPlanningService(
	db *database.DB,
	plannings *repository.PlanningRepository,
	slots *repository.SlotRepository,
	availability *repository.AvailabilityRepository,
	leaves *repository.LeaveRepository,
	publisher *events.PlanningEventPublisher,
	log *logger.Logger,
) *PlanningService {
	return &PlanningService{
		db:           db,
		plannings:    plannings,
		slots:        slots,
		availability: availability,
		leaves:       leaves,
		publisher:    publisher,
		logger:       log,
	}
}

// SlotInput is one slot inside a bulk planning write
type SlotInput struct {
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	TaskID     *string   `json:"task_id,omitempty" validate:"omitempty,uuid"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	Kind       string    `json:"kind,omitempty" validate:"omitempty,oneof=work training meeting"`
}

// CreatePlanningRequest carries a new planning, optionally with its slots
type CreatePlanningRequest struct {
	Name  string      `json:"name" validate:"required,max=255"`
	From  time.Time   `json:"period_from" validate:"required"`
	To    time.Time   `json:"period_to" validate:"required"`
	Slots []SlotInput `json:"slots,omitempty" validate:"omitempty,dive"`
}

// Create creates a draft planning and its initial slots in one serializable
// transaction. All candidate slots are conflict-checked in two phases before
// any insert; one bad slot rejects the whole batch.
func (s *PlanningService) Create(ctx context.Context, req *CreatePlanningRequest, creatorID string) (*repository.Planning, []*engine.ConflictReport, error) {
	if req.To.Before(req.From) {
		return nil, nil, errors.BadRequest("planning period end must not be before its start")
	}

	planning := &repository.Planning{
		Name:      req.Name,
		CreatorID: creatorID,
		From:      req.From,
		To:        req.To,
	}

	items := make([]engine.BatchItem, len(req.Slots))
	for i, input := range req.Slots {
		window := engine.Interval{Start: input.StartAt, End: input.EndAt}
		if !window.IsValid() {
			return nil, nil, engine.ErrBadWindow
		}
		items[i] = engine.BatchItem{EmployeeID: input.EmployeeID, Window: window}
	}

	var failed []*engine.ConflictReport
	err := s.db.Serializable(ctx, func(tx *sqlx.Tx) error {
		checker := engine.NewChecker(s.slots.WithTx(tx), s.availability, s.leaves)
		reports, err := checker.CheckBatch(ctx, items, engine.Exclusion{})
		if err != nil {
			return err
		}
		failed = failedReports(reports)
		if len(failed) > 0 {
			return errors.Conflict("one or more slots collide with existing bookings or leave")
		}

		if err := s.plannings.WithTx(tx).Create(ctx, planning); err != nil {
			return err
		}

		return s.slots.WithTx(tx).BulkCreate(ctx, buildSlots(planning.ID, req.Slots))
	})
	if err != nil {
		if errors.Is(err, errors.ErrConflict) && len(failed) > 0 {
			return nil, failed, err
		}
		return nil, nil, err
	}

	s.logger.Info().
		Str("planning_id", planning.ID).
		Int("slot_count", len(req.Slots)).
		Msg("planning created")

	s.publisher.PublishPlanningStatus(ctx, messaging.EventPlanningCreated, planning.ID, planning.Status, creatorID)
	if len(req.Slots) > 0 {
		s.publisher.PublishSlotsBatched(ctx, planning.ID, distinctEmployees(req.Slots))
	}

	return planning, nil, nil
}

// GetByID retrieves a planning
func (s *PlanningService) GetByID(ctx context.Context, id string) (*repository.Planning, error) {
	return s.plannings.GetByID(ctx, id)
}

// List returns plannings matching the filters
func (s *PlanningService) List(ctx context.Context, params repository.PlanningListParams) ([]*repository.Planning, int64, error) {
	return s.plannings.List(ctx, params)
}

// UpdatePlanningRequest carries editable planning fields
type UpdatePlanningRequest struct {
	Name string    `json:"name" validate:"required,max=255"`
	From time.Time `json:"period_from" validate:"required"`
	To   time.Time `json:"period_to" validate:"required"`
}

// Update renames or re-periods a draft planning
func (s *PlanningService) Update(ctx context.Context, id string, req *UpdatePlanningRequest) (*repository.Planning, error) {
	if req.To.Before(req.From) {
		return nil, errors.BadRequest("planning period end must not be before its start")
	}

	planning, err := s.plannings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	planning.Name = req.Name
	planning.From = req.From
	planning.To = req.To

	if err := s.plannings.Update(ctx, planning); err != nil {
		return nil, err
	}

	return planning, nil
}

// ReplaceSlots swaps out every slot of a planning for a new set. The delete,
// the batch check and the inserts run in one serializable transaction; the
// planning's own stored slots never count as conflicts.
func (s *PlanningService) ReplaceSlots(ctx context.Context, planningID string, inputs []SlotInput) ([]*repository.Slot, []*engine.ConflictReport, error) {
	planning, err := s.plannings.GetByID(ctx, planningID)
	if err != nil {
		return nil, nil, err
	}
	if planning.Status != repository.PlanningStatusDraft && planning.Status != repository.PlanningStatusPublished {
		return nil, nil, errors.Conflict("planning is not editable in its current status")
	}

	items := make([]engine.BatchItem, len(inputs))
	for i, input := range inputs {
		window := engine.Interval{Start: input.StartAt, End: input.EndAt}
		if !window.IsValid() {
			return nil, nil, engine.ErrBadWindow
		}
		items[i] = engine.BatchItem{EmployeeID: input.EmployeeID, Window: window}
	}

	newSlots := buildSlots(planningID, inputs)

	var failed []*engine.ConflictReport
	var previousEmployees []string
	err = s.db.Serializable(ctx, func(tx *sqlx.Tx) error {
		previousEmployees, err = s.plannings.WithTx(tx).ListEmployeeIDs(ctx, planningID)
		if err != nil {
			return err
		}

		checker := engine.NewChecker(s.slots.WithTx(tx), s.availability, s.leaves)
		reports, err := checker.CheckBatch(ctx, items, engine.Exclusion{PlanningID: &planningID})
		if err != nil {
			return err
		}
		failed = failedReports(reports)
		if len(failed) > 0 {
			return errors.Conflict("one or more slots collide with existing bookings or leave")
		}

		if _, err := s.slots.WithTx(tx).DeleteByPlanning(ctx, planningID); err != nil {
			return err
		}

		return s.slots.WithTx(tx).BulkCreate(ctx, newSlots)
	})
	if err != nil {
		if errors.Is(err, errors.ErrConflict) && len(failed) > 0 {
			return nil, failed, err
		}
		return nil, nil, err
	}

	s.logger.Info().
		Str("planning_id", planningID).
		Int("slot_count", len(newSlots)).
		Msg("planning slots replaced")

	// Both current and removed employees need their summaries refreshed.
	s.publisher.PublishSlotsReplaced(ctx, planningID, unionEmployees(previousEmployees, inputs))

	return newSlots, nil, nil
}

// Publish moves a draft planning to published
func (s *PlanningService) Publish(ctx context.Context, id, actorID string) error {
	if err := s.plannings.UpdateStatus(ctx, id, []string{repository.PlanningStatusDraft}, repository.PlanningStatusPublished); err != nil {
		return err
	}

	s.logger.Info().Str("planning_id", id).Msg("planning published")
	s.publisher.PublishPlanningStatus(ctx, messaging.EventPlanningPublished, id, repository.PlanningStatusPublished, actorID)
	return nil
}

// Reject moves a draft planning to rejected
func (s *PlanningService) Reject(ctx context.Context, id, actorID string) error {
	if err := s.plannings.UpdateStatus(ctx, id, []string{repository.PlanningStatusDraft}, repository.PlanningStatusRejected); err != nil {
		return err
	}

	s.logger.Info().Str("planning_id", id).Msg("planning rejected")
	s.publisher.PublishPlanningStatus(ctx, messaging.EventPlanningRejected, id, repository.PlanningStatusRejected, actorID)
	return nil
}

// Cancel moves a draft or published planning to cancelled
func (s *PlanningService) Cancel(ctx context.Context, id, actorID string) error {
	err := s.plannings.UpdateStatus(ctx, id,
		[]string{repository.PlanningStatusDraft, repository.PlanningStatusPublished},
		repository.PlanningStatusCancelled)
	if err != nil {
		return err
	}

	s.logger.Info().Str("planning_id", id).Msg("planning cancelled")
	s.publisher.PublishPlanningStatus(ctx, messaging.EventPlanningCancelled, id, repository.PlanningStatusCancelled, actorID)
	return nil
}

// Delete removes a planning. Published plannings must be cancelled first.
func (s *PlanningService) Delete(ctx context.Context, id, actorID string) error {
	planning, err := s.plannings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if planning.Status == repository.PlanningStatusPublished {
		return errors.Conflict("published planning must be cancelled before deletion")
	}

	if err := s.plannings.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("planning_id", id).Msg("planning deleted")
	s.publisher.PublishPlanningStatus(ctx, messaging.EventPlanningDeleted, id, planning.Status, actorID)
	return nil
}

func buildSlots(planningID string, inputs []SlotInput) []*repository.Slot {
	slots := make([]*repository.Slot, len(inputs))
	for i, input := range inputs {
		slots[i] = &repository.Slot{
			PlanningID: planningID,
			EmployeeID: input.EmployeeID,
			TaskID:     input.TaskID,
			StartAt:    input.StartAt,
			EndAt:      input.EndAt,
			Kind:       input.Kind,
		}
	}
	return slots
}

func failedReports(reports []*engine.ConflictReport) []*engine.ConflictReport {
	var failed []*engine.ConflictReport
	for _, report := range reports {
		if report.HasConflicts() {
			failed = append(failed, report)
		}
	}
	return failed
}

func distinctEmployees(inputs []SlotInput) []string {
	seen := map[string]bool{}
	var out []string
	for _, input := range inputs {
		if !seen[input.EmployeeID] {
			seen[input.EmployeeID] = true
			out = append(out, input.EmployeeID)
		}
	}
	return out
}

func unionEmployees(previous []string, inputs []SlotInput) []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range previous {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, input := range inputs {
		if !seen[input.EmployeeID] {
			seen[input.EmployeeID] = true
			out = append(out, input.EmployeeID)
		}
	}
	return out
}
