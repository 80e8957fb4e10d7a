package engine

import (
	"context"
	"time"

	"github.com/planora/planora-backend/pkg/errors"
)

// ErrBadWindow rejects empty or inverted time windows before any data access.
var ErrBadWindow = errors.BadRequest("time window must end after it starts")

// Availability statuses reported alongside conflicts. Working outside
// declared availability is flagged but does not block scheduling.
const (
	AvailabilityOK         = "available"
	AvailabilityOutside    = "outside_declared_window"
	AvailabilityUndeclared = "no_declared_window"
)

// ExistingSlot is a scheduled slot as seen by the checker.
type ExistingSlot struct {
	ID           string
	PlanningID   string
	PlanningName string
	TaskLabel    *string
	Window       Interval
}

// AvailabilityWindow is a recurring weekly window an employee declared
// themselves available for. Times are minutes since midnight.
type AvailabilityWindow struct {
	Weekday      time.Weekday
	StartMinutes int
	EndMinutes   int
}

// LeavePeriod is a leave request that blocks scheduling. Dates are
// inclusive on both ends: a slot anywhere on EndDate is still blocked.
type LeavePeriod struct {
	ID        string
	Status    string
	StartDate time.Time
	EndDate   time.Time
}

// Blocks reports whether the leave period covers any part of the window.
// The closed date range [StartDate, EndDate] is widened to the half-open
// timestamp range [StartDate 00:00, EndDate+1d 00:00) before comparing.
func (l LeavePeriod) Blocks(window Interval) bool {
	start := truncateToDay(l.StartDate)
	end := truncateToDay(l.EndDate).AddDate(0, 0, 1)
	return window.Start.Before(end) && start.Before(window.End)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Exclusion removes slots from consideration during a check. SlotID is set
// when updating a slot (it must not conflict with itself); PlanningID is set
// when re-planning an entire planning (its current slots are about to be
// replaced).
type Exclusion struct {
	SlotID     *string
	PlanningID *string
}

// Conflict describes one scheduling collision with a stored slot.
type Conflict struct {
	SlotID       string    `json:"slot_id,omitempty"`
	PlanningID   string    `json:"planning_id,omitempty"`
	PlanningName string    `json:"planning_name,omitempty"`
	TaskLabel    *string   `json:"task_label,omitempty"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
}

// LeaveBlock describes a leave period overlapping the checked window.
type LeaveBlock struct {
	LeaveID   string    `json:"leave_id"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ConflictReport is the outcome of checking one employee/window pair.
type ConflictReport struct {
	EmployeeID   string       `json:"employee_id"`
	Window       Interval     `json:"window"`
	Conflicts    []Conflict   `json:"conflicts"`
	Leaves       []LeaveBlock `json:"leaves"`
	Availability string       `json:"availability"`
}

// HasConflicts reports whether the window collides with existing slots or
// leave periods. Availability status alone never blocks.
func (r *ConflictReport) HasConflicts() bool {
	return len(r.Conflicts) > 0 || len(r.Leaves) > 0
}

// SlotSource loads stored slots for conflict checking.
type SlotSource interface {
	// ListOverlapping returns the employee's slots overlapping the window,
	// minus anything matched by the exclusion.
	ListOverlapping(ctx context.Context, employeeID string, window Interval, excl Exclusion) ([]ExistingSlot, error)
}

// AvailabilitySource loads an employee's declared weekly availability.
type AvailabilitySource interface {
	ListForEmployee(ctx context.Context, employeeID string) ([]AvailabilityWindow, error)
}

// LeaveSource loads leave periods that block scheduling (pending and
// approved) overlapping the window.
type LeaveSource interface {
	ListBlocking(ctx context.Context, employeeID string, window Interval) ([]LeavePeriod, error)
}

// Checker detects scheduling conflicts for an employee and time window.
type Checker struct {
	slots        SlotSource
	availability AvailabilitySource
	leaves       LeaveSource
}

// NewChecker creates a conflict checker over the given sources.
func NewChecker(slots SlotSource, availability AvailabilitySource, leaves LeaveSource) *Checker {
	return &Checker{slots: slots, availability: availability, leaves: leaves}
}

// FindConflicts checks one window against the employee's stored slots,
// declared availability and blocking leave periods.
func (c *Checker) FindConflicts(ctx context.Context, employeeID string, window Interval, excl Exclusion) (*ConflictReport, error) {
	if !window.IsValid() {
		return nil, ErrBadWindow
	}

	report := &ConflictReport{
		EmployeeID: employeeID,
		Window:     window,
		Conflicts:  []Conflict{},
		Leaves:     []LeaveBlock{},
	}

	existing, err := c.slots.ListOverlapping(ctx, employeeID, window, excl)
	if err != nil {
		return nil, err
	}
	for _, slot := range existing {
		if window.Overlaps(slot.Window) {
			report.Conflicts = append(report.Conflicts, conflictFromSlot(slot))
		}
	}

	leaves, err := c.leaves.ListBlocking(ctx, employeeID, window)
	if err != nil {
		return nil, err
	}
	for _, leave := range leaves {
		if leave.Blocks(window) {
			report.Leaves = append(report.Leaves, LeaveBlock{
				LeaveID:   leave.ID,
				Status:    leave.Status,
				StartDate: leave.StartDate,
				EndDate:   leave.EndDate,
			})
		}
	}

	windows, err := c.availability.ListForEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	report.Availability = availabilityStatus(window, windows)

	return report, nil
}

// BatchItem is one candidate slot in a batch check. Reports come back in
// the same order as the items.
type BatchItem struct {
	EmployeeID string
	Window     Interval
}

// CheckBatch validates a set of candidate slots in two phases: stored slots
// are loaded once per employee over the envelope of that employee's
// candidates, then each candidate is checked in memory against the loaded
// slots. Candidates of the same batch are never checked against each other;
// a planning lays out its own slots as one unit and overlaps within it are
// the planner's to resolve.
func (c *Checker) CheckBatch(ctx context.Context, items []BatchItem, excl Exclusion) ([]*ConflictReport, error) {
	for _, item := range items {
		if !item.Window.IsValid() {
			return nil, ErrBadWindow
		}
	}

	// Phase 1: one slot load and one leave load per distinct employee.
	envelopes := map[string]Interval{}
	for _, item := range items {
		if env, ok := envelopes[item.EmployeeID]; ok {
			envelopes[item.EmployeeID] = env.Envelope(item.Window)
		} else {
			envelopes[item.EmployeeID] = item.Window
		}
	}

	stored := map[string][]ExistingSlot{}
	blocking := map[string][]LeavePeriod{}
	declared := map[string][]AvailabilityWindow{}
	for employeeID, envelope := range envelopes {
		slots, err := c.slots.ListOverlapping(ctx, employeeID, envelope, excl)
		if err != nil {
			return nil, err
		}
		stored[employeeID] = slots

		leaves, err := c.leaves.ListBlocking(ctx, employeeID, envelope)
		if err != nil {
			return nil, err
		}
		blocking[employeeID] = leaves

		windows, err := c.availability.ListForEmployee(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		declared[employeeID] = windows
	}

	// Phase 2: pure in-memory checks.
	reports := make([]*ConflictReport, len(items))
	for i, item := range items {
		report := &ConflictReport{
			EmployeeID: item.EmployeeID,
			Window:     item.Window,
			Conflicts:  []Conflict{},
			Leaves:     []LeaveBlock{},
		}

		for _, slot := range stored[item.EmployeeID] {
			if item.Window.Overlaps(slot.Window) {
				report.Conflicts = append(report.Conflicts, conflictFromSlot(slot))
			}
		}

		for _, leave := range blocking[item.EmployeeID] {
			if leave.Blocks(item.Window) {
				report.Leaves = append(report.Leaves, LeaveBlock{
					LeaveID:   leave.ID,
					Status:    leave.Status,
					StartDate: leave.StartDate,
					EndDate:   leave.EndDate,
				})
			}
		}

		report.Availability = availabilityStatus(item.Window, declared[item.EmployeeID])
		reports[i] = report
	}

	return reports, nil
}

func conflictFromSlot(slot ExistingSlot) Conflict {
	return Conflict{
		SlotID:       slot.ID,
		PlanningID:   slot.PlanningID,
		PlanningName: slot.PlanningName,
		TaskLabel:    slot.TaskLabel,
		StartAt:      slot.Window.Start,
		EndAt:        slot.Window.End,
	}
}

// availabilityStatus classifies a window against declared weekly windows.
// A window that crosses midnight never fits a single declared window and
// is reported as outside.
func availabilityStatus(window Interval, declared []AvailabilityWindow) string {
	if len(declared) == 0 {
		return AvailabilityUndeclared
	}

	startDay := truncateToDay(window.Start)
	if !window.End.After(startDay) || window.End.After(startDay.AddDate(0, 0, 1)) {
		return AvailabilityOutside
	}

	startMin := window.Start.Hour()*60 + window.Start.Minute()
	endMin := window.End.Hour()*60 + window.End.Minute()
	if endMin == 0 {
		endMin = 24 * 60
	}

	for _, w := range declared {
		if w.Weekday != window.Start.Weekday() {
			continue
		}
		if startMin >= w.StartMinutes && endMin <= w.EndMinutes {
			return AvailabilityOK
		}
	}

	return AvailabilityOutside
}
