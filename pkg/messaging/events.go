package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Planning events
	EventPlanningCreated   = "planning.created"
	EventPlanningPublished = "planning.published"
	EventPlanningRejected  = "planning.rejected"
	EventPlanningCancelled = "planning.cancelled"
	EventPlanningDeleted   = "planning.deleted"

	// Slot events
	EventSlotCreated       = "planning.slot.created"
	EventSlotUpdated       = "planning.slot.updated"
	EventSlotDeleted       = "planning.slot.deleted"
	EventSlotsBatched      = "planning.slots.batched"
	EventSlotsReplaced     = "planning.slots.replaced"

	// Leave events
	EventLeaveRequested = "leave.requested"
	EventLeaveApproved  = "leave.approved"
	EventLeaveRejected  = "leave.rejected"
	EventLeaveCancelled = "leave.cancelled"

	// Summary events
	EventSummaryRecomputed = "summary.recomputed"

	// Access events
	EventRolePermissionsChanged = "access.role.changed"
)

// Exchange names
const (
	ExchangePlanningEvents = "planning.events"
	ExchangeLeaveEvents    = "leave.events"
	ExchangeAccessEvents   = "access.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Planning events

// SlotChangedEvent is published when a single slot is created, updated or deleted
type SlotChangedEvent struct {
	SlotID     string    `json:"slot_id"`
	PlanningID string    `json:"planning_id"`
	EmployeeID string    `json:"employee_id"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
}

// SlotsBatchedEvent is published after a bulk slot write; the summary worker
// recomputes the hour summary of every listed pair.
type SlotsBatchedEvent struct {
	PlanningID string   `json:"planning_id"`
	Employees  []string `json:"employee_ids"`
}

// PlanningStatusEvent is published on planning lifecycle transitions
type PlanningStatusEvent struct {
	PlanningID string `json:"planning_id"`
	Status     string `json:"status"`
	ActorID    string `json:"actor_id"`
}

// Leave events

// LeaveStatusEvent is published on leave request lifecycle transitions
type LeaveStatusEvent struct {
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	Status     string    `json:"status"`
	ReviewerID string    `json:"reviewer_id,omitempty"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
}

// Access events

// RolePermissionsChangedEvent is published when a role's permission set changes.
// Consumers holding cached permission versions invalidate on receipt.
type RolePermissionsChangedEvent struct {
	Role    string `json:"role"`
	Version int    `json:"version"`
	ActorID string `json:"actor_id"`
}

// Correlation ID context plumbing

type correlationIDKey struct{}

// WithCorrelationID stores a correlation ID in the context
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// CorrelationIDFromContext reads the correlation ID from the context,
// generating a fresh one when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}
