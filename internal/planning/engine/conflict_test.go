package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// FAKE SOURCES
// ============================================================================

type fakeSlotSource struct {
	slots map[string][]engine.ExistingSlot
	calls int
	// last exclusion seen, for asserting it is forwarded
	lastExclusion engine.Exclusion
}

func (f *fakeSlotSource) ListOverlapping(_ context.Context, employeeID string, windowArg engine.Interval, excl engine.Exclusion) ([]engine.ExistingSlot, error) {
	f.calls++
	f.lastExclusion = excl

	var out []engine.ExistingSlot
	for _, slot := range f.slots[employeeID] {
		if excl.SlotID != nil && slot.ID == *excl.SlotID {
			continue
		}
		if excl.PlanningID != nil && slot.PlanningID == *excl.PlanningID {
			continue
		}
		if windowArg.Overlaps(slot.Window) {
			out = append(out, slot)
		}
	}
	return out, nil
}

type fakeAvailabilitySource struct {
	windows map[string][]engine.AvailabilityWindow
}

func (f *fakeAvailabilitySource) ListForEmployee(_ context.Context, employeeID string) ([]engine.AvailabilityWindow, error) {
	return f.windows[employeeID], nil
}

type fakeLeaveSource struct {
	leaves map[string][]engine.LeavePeriod
	calls  int
}

func (f *fakeLeaveSource) ListBlocking(_ context.Context, employeeID string, _ engine.Interval) ([]engine.LeavePeriod, error) {
	f.calls++
	return f.leaves[employeeID], nil
}

func newChecker(slots *fakeSlotSource, avail *fakeAvailabilitySource, leaves *fakeLeaveSource) *engine.Checker {
	if slots == nil {
		slots = &fakeSlotSource{}
	}
	if avail == nil {
		avail = &fakeAvailabilitySource{}
	}
	if leaves == nil {
		leaves = &fakeLeaveSource{}
	}
	return engine.NewChecker(slots, avail, leaves)
}

func str(s string) *string { return &s }

// ============================================================================
// FIND CONFLICTS
// ============================================================================

func TestChecker_FindConflicts_RejectsBadWindow(t *testing.T) {
	checker := newChecker(nil, nil, nil)
	ctx := context.Background()

	t.Run("inverted window", func(t *testing.T) {
		_, err := checker.FindConflicts(ctx, "emp-1", engine.Interval{Start: at("12:00"), End: at("09:00")}, engine.Exclusion{})
		assert.ErrorIs(t, err, engine.ErrBadWindow)
	})

	t.Run("empty window", func(t *testing.T) {
		_, err := checker.FindConflicts(ctx, "emp-1", engine.Interval{Start: at("09:00"), End: at("09:00")}, engine.Exclusion{})
		assert.ErrorIs(t, err, engine.ErrBadWindow)
	})
}

func TestChecker_FindConflicts_DetectsOverlap(t *testing.T) {
	slots := &fakeSlotSource{slots: map[string][]engine.ExistingSlot{
		"emp-1": {
			{
				ID:           "slot-1",
				PlanningID:   "plan-1",
				PlanningName: "Week 23",
				TaskLabel:    str("Front desk"),
				Window:       engine.Interval{Start: at("09:00"), End: at("12:00")},
			},
		},
	}}
	checker := newChecker(slots, nil, nil)

	report, err := checker.FindConflicts(context.Background(), "emp-1",
		engine.Interval{Start: at("11:00"), End: at("14:00")}, engine.Exclusion{})
	require.NoError(t, err)

	assert.True(t, report.HasConflicts())
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "slot-1", report.Conflicts[0].SlotID)
	assert.Equal(t, "Week 23", report.Conflicts[0].PlanningName)
	require.NotNil(t, report.Conflicts[0].TaskLabel)
	assert.Equal(t, "Front desk", *report.Conflicts[0].TaskLabel)
}

func TestChecker_FindConflicts_BackToBackSlotsDoNotConflict(t *testing.T) {
	slots := &fakeSlotSource{slots: map[string][]engine.ExistingSlot{
		"emp-1": {
			{ID: "slot-1", PlanningID: "plan-1", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
		},
	}}
	checker := newChecker(slots, nil, nil)

	report, err := checker.FindConflicts(context.Background(), "emp-1",
		engine.Interval{Start: at("12:00"), End: at("15:00")}, engine.Exclusion{})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts())
	assert.Empty(t, report.Conflicts)
}

func TestChecker_FindConflicts_ExcludesSlotUnderUpdate(t *testing.T) {
	slots := &fakeSlotSource{slots: map[string][]engine.ExistingSlot{
		"emp-1": {
			{ID: "slot-1", PlanningID: "plan-1", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
		},
	}}
	checker := newChecker(slots, nil, nil)

	// Moving slot-1 one hour later must not conflict with its own old window.
	report, err := checker.FindConflicts(context.Background(), "emp-1",
		engine.Interval{Start: at("10:00"), End: at("13:00")},
		engine.Exclusion{SlotID: str("slot-1")})
	require.NoError(t, err)

	assert.False(t, report.HasConflicts())
	require.NotNil(t, slots.lastExclusion.SlotID)
	assert.Equal(t, "slot-1", *slots.lastExclusion.SlotID)
}

func TestChecker_FindConflicts_ExcludesWholePlanning(t *testing.T) {
	slots := &fakeSlotSource{slots: map[string][]engine.ExistingSlot{
		"emp-1": {
			{ID: "slot-1", PlanningID: "plan-1", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
			{ID: "slot-2", PlanningID: "plan-2", Window: engine.Interval{Start: at("10:00"), End: at("11:00")}},
		},
	}}
	checker := newChecker(slots, nil, nil)

	report, err := checker.FindConflicts(context.Background(), "emp-1",
		engine.Interval{Start: at("09:30"), End: at("11:30")},
		engine.Exclusion{PlanningID: str("plan-1")})
	require.NoError(t, err)

	// plan-1 slots are ignored, the plan-2 slot still collides.
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "slot-2", report.Conflicts[0].SlotID)
}

func TestChecker_FindConflicts_LeaveBlocksLastDay(t *testing.T) {
	leaves := &fakeLeaveSource{leaves: map[string][]engine.LeavePeriod{
		"emp-1": {
			{
				ID:        "leave-1",
				Status:    "approved",
				StartDate: mustTime(t, "2024-06-10T00:00:00Z"),
				EndDate:   mustTime(t, "2024-06-14T00:00:00Z"),
			},
		},
	}}
	checker := newChecker(nil, nil, leaves)

	t.Run("slot on the leave end date is blocked", func(t *testing.T) {
		report, err := checker.FindConflicts(context.Background(), "emp-1",
			window(t, "2024-06-14T08:00:00Z", "2024-06-14T12:00:00Z"), engine.Exclusion{})
		require.NoError(t, err)

		assert.True(t, report.HasConflicts())
		require.Len(t, report.Leaves, 1)
		assert.Equal(t, "leave-1", report.Leaves[0].LeaveID)
		assert.Equal(t, "approved", report.Leaves[0].Status)
	})

	t.Run("slot on the day after is free", func(t *testing.T) {
		report, err := checker.FindConflicts(context.Background(), "emp-1",
			window(t, "2024-06-15T08:00:00Z", "2024-06-15T12:00:00Z"), engine.Exclusion{})
		require.NoError(t, err)

		assert.False(t, report.HasConflicts())
	})
}

func TestChecker_FindConflicts_PendingLeaveBlocksToo(t *testing.T) {
	leaves := &fakeLeaveSource{leaves: map[string][]engine.LeavePeriod{
		"emp-1": {
			{
				ID:        "leave-2",
				Status:    "pending",
				StartDate: mustTime(t, "2024-06-03T00:00:00Z"),
				EndDate:   mustTime(t, "2024-06-03T00:00:00Z"),
			},
		},
	}}
	checker := newChecker(nil, nil, leaves)

	report, err := checker.FindConflicts(context.Background(), "emp-1",
		engine.Interval{Start: at("09:00"), End: at("12:00")}, engine.Exclusion{})
	require.NoError(t, err)

	assert.True(t, report.HasConflicts())
	require.Len(t, report.Leaves, 1)
	assert.Equal(t, "pending", report.Leaves[0].Status)
}

// ============================================================================
// AVAILABILITY STATUS
// ============================================================================

func TestChecker_FindConflicts_AvailabilityStatus(t *testing.T) {
	// Monday 08:00-17:00 declared. The reference day at() builds on is a Monday.
	avail := &fakeAvailabilitySource{windows: map[string][]engine.AvailabilityWindow{
		"emp-1": {
			{Weekday: time.Monday, StartMinutes: 8 * 60, EndMinutes: 17 * 60},
		},
	}}
	checker := newChecker(nil, avail, nil)
	ctx := context.Background()

	t.Run("inside declared window", func(t *testing.T) {
		report, err := checker.FindConflicts(ctx, "emp-1",
			engine.Interval{Start: at("09:00"), End: at("12:00")}, engine.Exclusion{})
		require.NoError(t, err)
		assert.Equal(t, engine.AvailabilityOK, report.Availability)
		assert.False(t, report.HasConflicts())
	})

	t.Run("spills past declared end", func(t *testing.T) {
		report, err := checker.FindConflicts(ctx, "emp-1",
			engine.Interval{Start: at("16:00"), End: at("19:00")}, engine.Exclusion{})
		require.NoError(t, err)
		assert.Equal(t, engine.AvailabilityOutside, report.Availability)
		// Advisory only.
		assert.False(t, report.HasConflicts())
	})

	t.Run("wrong weekday", func(t *testing.T) {
		report, err := checker.FindConflicts(ctx, "emp-1",
			window(t, "2024-06-04T09:00:00Z", "2024-06-04T12:00:00Z"), engine.Exclusion{})
		require.NoError(t, err)
		assert.Equal(t, engine.AvailabilityOutside, report.Availability)
	})

	t.Run("no declared windows at all", func(t *testing.T) {
		report, err := checker.FindConflicts(ctx, "emp-99",
			engine.Interval{Start: at("09:00"), End: at("12:00")}, engine.Exclusion{})
		require.NoError(t, err)
		assert.Equal(t, engine.AvailabilityUndeclared, report.Availability)
	})

	t.Run("window crossing midnight is outside", func(t *testing.T) {
		report, err := checker.FindConflicts(ctx, "emp-1",
			window(t, "2024-06-03T22:00:00Z", "2024-06-04T02:00:00Z"), engine.Exclusion{})
		require.NoError(t, err)
		assert.Equal(t, engine.AvailabilityOutside, report.Availability)
	})
}

// ============================================================================
// BATCH CHECK
// ============================================================================

func TestChecker_CheckBatch_LoadsOncePerEmployee(t *testing.T) {
	slots := &fakeSlotSource{}
	leaves := &fakeLeaveSource{}
	checker := newChecker(slots, nil, leaves)

	items := []engine.BatchItem{
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("13:00"), End: at("17:00")}},
		{EmployeeID: "emp-2", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
	}

	reports, err := checker.CheckBatch(context.Background(), items, engine.Exclusion{})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	// One slot load and one leave load per distinct employee, not per item.
	assert.Equal(t, 2, slots.calls)
	assert.Equal(t, 2, leaves.calls)

	for _, report := range reports {
		assert.False(t, report.HasConflicts())
	}
}

func TestChecker_CheckBatch_SiblingsAreExempt(t *testing.T) {
	checker := newChecker(nil, nil, nil)

	// Three same-employee candidates with two overlapping pairs. A batch is
	// one planning laid out as a unit, so its members never conflict with
	// each other.
	items := []engine.BatchItem{
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("11:00"), End: at("14:00")}},
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("13:00"), End: at("17:00")}},
	}

	reports, err := checker.CheckBatch(context.Background(), items, engine.Exclusion{})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	for i, report := range reports {
		assert.False(t, report.HasConflicts(), "item %d", i)
		assert.Empty(t, report.Conflicts, "item %d", i)
	}
}

func TestChecker_CheckBatch_StoredSlotsStillConflict(t *testing.T) {
	slots := &fakeSlotSource{slots: map[string][]engine.ExistingSlot{
		"emp-1": {
			{ID: "slot-1", PlanningID: "plan-other", Window: engine.Interval{Start: at("10:00"), End: at("13:00")}},
		},
	}}
	checker := newChecker(slots, nil, nil)

	// Siblings overlap each other and one of them overlaps a stored slot
	// from another planning: only the stored overlap is reported.
	items := []engine.BatchItem{
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("11:00"), End: at("14:00")}},
	}

	reports, err := checker.CheckBatch(context.Background(), items, engine.Exclusion{})
	require.NoError(t, err)

	require.Len(t, reports[0].Conflicts, 1)
	assert.Equal(t, "slot-1", reports[0].Conflicts[0].SlotID)
	require.Len(t, reports[1].Conflicts, 1)
	assert.Equal(t, "slot-1", reports[1].Conflicts[0].SlotID)
}

func TestChecker_CheckBatch_RespectsPlanningExclusion(t *testing.T) {
	slots := &fakeSlotSource{slots: map[string][]engine.ExistingSlot{
		"emp-1": {
			{ID: "slot-1", PlanningID: "plan-1", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
		},
	}}
	checker := newChecker(slots, nil, nil)

	// Replacing plan-1's slots: the stored plan-1 slot must not block.
	items := []engine.BatchItem{
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
	}
	reports, err := checker.CheckBatch(context.Background(), items, engine.Exclusion{PlanningID: str("plan-1")})
	require.NoError(t, err)

	assert.False(t, reports[0].HasConflicts())
}

func TestChecker_CheckBatch_RejectsBadWindow(t *testing.T) {
	checker := newChecker(nil, nil, nil)

	items := []engine.BatchItem{
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("09:00"), End: at("12:00")}},
		{EmployeeID: "emp-1", Window: engine.Interval{Start: at("14:00"), End: at("14:00")}},
	}
	_, err := checker.CheckBatch(context.Background(), items, engine.Exclusion{})
	assert.ErrorIs(t, err, engine.ErrBadWindow)
}
