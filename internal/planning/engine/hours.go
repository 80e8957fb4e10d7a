package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// HourSummary is the per-planning, per-employee rollup of scheduled time.
// The total is split into whole hours plus a leftover minute remainder.
type HourSummary struct {
	PlanningID   string    `json:"planning_id"`
	EmployeeID   string    `json:"employee_id"`
	NormalHours  int       `json:"normal_hours"`
	ExtraMinutes int       `json:"extra_minutes"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
}

// TotalMinutes returns the summary's total as minutes.
func (s *HourSummary) TotalMinutes() int {
	return s.NormalHours*60 + s.ExtraMinutes
}

// SlotWindowSource loads the slot windows feeding a summary.
type SlotWindowSource interface {
	ListWindows(ctx context.Context, planningID, employeeID string) ([]Interval, error)
}

// SummaryStore persists summaries keyed by (planning, employee).
type SummaryStore interface {
	Upsert(ctx context.Context, summary *HourSummary) error
	Delete(ctx context.Context, planningID, employeeID string) error
}

// Aggregator recomputes hour summaries from slot windows.
type Aggregator struct {
	slots  SlotWindowSource
	store  SummaryStore
	logger zerolog.Logger
}

// NewAggregator creates an hour aggregator.
func NewAggregator(slots SlotWindowSource, store SummaryStore, logger zerolog.Logger) *Aggregator {
	return &Aggregator{slots: slots, store: store, logger: logger}
}

// Recompute rebuilds the summary for one (planning, employee) pair from its
// current slots. When the pair has no slots left the stored summary is
// deleted and nil is returned. The operation is idempotent: every field is
// derived from the slots, so recomputing twice yields the same row.
func (a *Aggregator) Recompute(ctx context.Context, planningID, employeeID string) (*HourSummary, error) {
	windows, err := a.slots.ListWindows(ctx, planningID, employeeID)
	if err != nil {
		return nil, err
	}

	if len(windows) == 0 {
		if err := a.store.Delete(ctx, planningID, employeeID); err != nil {
			return nil, err
		}
		a.logger.Debug().
			Str("planning_id", planningID).
			Str("employee_id", employeeID).
			Msg("summary deleted, no slots remain")
		return nil, nil
	}

	total := 0
	period := windows[0]
	for _, w := range windows {
		total += w.Minutes()
		period = period.Envelope(w)
	}

	summary := &HourSummary{
		PlanningID:   planningID,
		EmployeeID:   employeeID,
		NormalHours:  total / 60,
		ExtraMinutes: total % 60,
		PeriodStart:  period.Start,
		PeriodEnd:    period.End,
	}

	if err := a.store.Upsert(ctx, summary); err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("planning_id", planningID).
		Str("employee_id", employeeID).
		Int("total_minutes", total).
		Msg("summary recomputed")

	return summary, nil
}
