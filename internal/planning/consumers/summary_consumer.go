package consumers

import (
	"context"

	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/messaging"
)

// SlotEventConsumer recomputes hour summaries off the slot event stream.
// Single slot writes recompute their pair inline; this consumer covers the
// bulk paths, where recomputing every pair inside the write transaction
// would make large plannings slow to save.
type SlotEventConsumer struct {
	consumer  *messaging.Consumer
	summaries *service.SummaryService
	logger    *logger.Logger
}

// NewSlotEventConsumer creates a new slot event consumer
func NewSlotEventConsumer(
	rmq *messaging.RabbitMQ,
	summaries *service.SummaryService,
	log *logger.Logger,
) (*SlotEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "summary-worker.slot-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangePlanningEvents, "planning.slots.#"); err != nil {
		return nil, err
	}

	c := &SlotEventConsumer{
		consumer:  consumer,
		summaries: summaries,
		logger:    log,
	}

	consumer.RegisterHandler(messaging.EventSlotsBatched, c.handleSlotsBatched)
	consumer.RegisterHandler(messaging.EventSlotsReplaced, c.handleSlotsBatched)

	return c, nil
}

// Start starts consuming messages
func (c *SlotEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *SlotEventConsumer) handleSlotsBatched(ctx context.Context, event *messaging.Event) error {
	var data messaging.SlotsBatchedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("planning_id", data.PlanningID).
		Int("employees", len(data.Employees)).
		Str("event_type", event.Type).
		Msg("received bulk slot event")

	// A failed recompute nacks the whole event; recomputes are idempotent,
	// so the redelivery redoing already-updated pairs is harmless.
	return c.summaries.RecomputePlanning(ctx, data.PlanningID, data.Employees)
}
