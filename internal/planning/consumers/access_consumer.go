package consumers

import (
	"context"

	"github.com/planora/planora-backend/internal/planning/service"
	"github.com/planora/planora-backend/pkg/logger"
	"github.com/planora/planora-backend/pkg/messaging"
)

// AccessEventConsumer drops cached role permissions when another instance
// changes a role's grants. The writing instance invalidates its own cache
// inline, so handling its own event again is a harmless no-op.
type AccessEventConsumer struct {
	consumer *messaging.Consumer
	access   *service.AccessService
	logger   *logger.Logger
}

// NewAccessEventConsumer creates a new access event consumer
func NewAccessEventConsumer(
	rmq *messaging.RabbitMQ,
	access *service.AccessService,
	log *logger.Logger,
) (*AccessEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, "planning-service.access-events", log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangePlanningEvents, messaging.EventRolePermissionsChanged); err != nil {
		return nil, err
	}

	c := &AccessEventConsumer{
		consumer: consumer,
		access:   access,
		logger:   log,
	}

	consumer.RegisterHandler(messaging.EventRolePermissionsChanged, c.handleRolePermissionsChanged)

	return c, nil
}

// Start starts consuming messages
func (c *AccessEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *AccessEventConsumer) handleRolePermissionsChanged(_ context.Context, event *messaging.Event) error {
	var data messaging.RolePermissionsChangedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	c.logger.Info().
		Str("role", data.Role).
		Int("version", data.Version).
		Msg("role permissions changed, invalidating cache")

	c.access.Invalidate(data.Role)
	return nil
}
