package events

import (
	"context"

	"github.com/planora/planora-backend/internal/planning/repository"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/messaging"
)

// PlanningEventPublisher publishes planning, slot, leave and summary events
type PlanningEventPublisher struct {
	sink   messaging.Sink
	logger *logger.Logger
}

// NewPlanningEventPublisher creates a publisher bound to the planning exchange
func NewPlanningEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*PlanningEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangePlanningEvents, "planning-service", log)
	if err != nil {
		return nil, err
	}

	return &PlanningEventPublisher{
		sink:   publisher,
		logger: log,
	}, nil
}

// NewPlanningEventPublisherWithSink wires an arbitrary sink. Used by tests.
func NewPlanningEventPublisherWithSink(sink messaging.Sink, log *logger.Logger) *PlanningEventPublisher {
	return &PlanningEventPublisher{sink: sink, logger: log}
}

// PublishSlotCreated publishes a slot created event
func (p *PlanningEventPublisher) PublishSlotCreated(ctx context.Context, slot *repository.Slot) {
	p.publishSlotChange(ctx, messaging.EventSlotCreated, slot)
}

// PublishSlotUpdated publishes a slot updated event
func (p *PlanningEventPublisher) PublishSlotUpdated(ctx context.Context, slot *repository.Slot) {
	p.publishSlotChange(ctx, messaging.EventSlotUpdated, slot)
}

// PublishSlotDeleted publishes a slot deleted event
func (p *PlanningEventPublisher) PublishSlotDeleted(ctx context.Context, slot *repository.Slot) {
	p.publishSlotChange(ctx, messaging.EventSlotDeleted, slot)
}

func (p *PlanningEventPublisher) publishSlotChange(ctx context.Context, eventType string, slot *repository.Slot) {
	data := messaging.SlotChangedEvent{
		SlotID:     slot.ID,
		PlanningID: slot.PlanningID,
		EmployeeID: slot.EmployeeID,
		StartAt:    slot.StartAt,
		EndAt:      slot.EndAt,
	}

	if err := p.sink.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("slot_id", slot.ID).Msg("failed to publish slot event")
	}
}

// PublishSlotsBatched publishes a bulk slot write; the summary worker picks
// up every listed (planning, employee) pair.
func (p *PlanningEventPublisher) PublishSlotsBatched(ctx context.Context, planningID string, employeeIDs []string) {
	data := messaging.SlotsBatchedEvent{
		PlanningID: planningID,
		Employees:  employeeIDs,
	}

	if err := p.sink.Publish(ctx, messaging.EventSlotsBatched, data); err != nil {
		p.logger.Error().Err(err).Str("planning_id", planningID).Msg("failed to publish slots batched event")
	}
}

// PublishSlotsReplaced publishes a full slot replacement of a planning
func (p *PlanningEventPublisher) PublishSlotsReplaced(ctx context.Context, planningID string, employeeIDs []string) {
	data := messaging.SlotsBatchedEvent{
		PlanningID: planningID,
		Employees:  employeeIDs,
	}

	if err := p.sink.Publish(ctx, messaging.EventSlotsReplaced, data); err != nil {
		p.logger.Error().Err(err).Str("planning_id", planningID).Msg("failed to publish slots replaced event")
	}
}

// PublishPlanningStatus publishes a planning lifecycle transition
func (p *PlanningEventPublisher) PublishPlanningStatus(ctx context.Context, eventType, planningID, status, actorID string) {
	data := messaging.PlanningStatusEvent{
		PlanningID: planningID,
		Status:     status,
		ActorID:    actorID,
	}

	if err := p.sink.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("planning_id", planningID).Msg("failed to publish planning status event")
	}
}

// PublishLeaveStatus publishes a leave request lifecycle transition
func (p *PlanningEventPublisher) PublishLeaveStatus(ctx context.Context, eventType string, leave *repository.Leave, reviewerID string) {
	data := messaging.LeaveStatusEvent{
		LeaveID:    leave.ID,
		EmployeeID: leave.EmployeeID,
		Status:     leave.Status,
		ReviewerID: reviewerID,
		StartAt:    leave.StartAt,
		EndAt:      leave.EndAt,
	}

	if err := p.sink.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("leave_id", leave.ID).Msg("failed to publish leave event")
	}
}

// PublishSummaryRecomputed publishes a summary recompute outcome
func (p *PlanningEventPublisher) PublishSummaryRecomputed(ctx context.Context, planningID, employeeID string) {
	data := messaging.SlotsBatchedEvent{
		PlanningID: planningID,
		Employees:  []string{employeeID},
	}

	if err := p.sink.Publish(ctx, messaging.EventSummaryRecomputed, data); err != nil {
		p.logger.Error().Err(err).Str("planning_id", planningID).Msg("failed to publish summary recomputed event")
	}
}

// PublishRolePermissionsChanged publishes a role permission grant change
func (p *PlanningEventPublisher) PublishRolePermissionsChanged(ctx context.Context, role string, version int, actorID string) {
	data := messaging.RolePermissionsChangedEvent{
		Role:    role,
		Version: version,
		ActorID: actorID,
	}

	if err := p.sink.Publish(ctx, messaging.EventRolePermissionsChanged, data); err != nil {
		p.logger.Error().Err(err).Str("role", role).Msg("failed to publish role permissions event")
	}
}
