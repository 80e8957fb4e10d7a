package engine_test

import (
	"context"
	"testing"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindowSource struct {
	windows []engine.Interval
}

func (f *fakeWindowSource) ListWindows(_ context.Context, _, _ string) ([]engine.Interval, error) {
	return f.windows, nil
}

type fakeSummaryStore struct {
	upserted *engine.HourSummary
	deleted  bool
	upserts  int
}

func (f *fakeSummaryStore) Upsert(_ context.Context, summary *engine.HourSummary) error {
	f.upserted = summary
	f.upserts++
	return nil
}

func (f *fakeSummaryStore) Delete(_ context.Context, _, _ string) error {
	f.deleted = true
	return nil
}

func newAggregator(windows []engine.Interval, store *fakeSummaryStore) *engine.Aggregator {
	return engine.NewAggregator(&fakeWindowSource{windows: windows}, store, zerolog.Nop())
}

func TestAggregator_Recompute_SplitsHoursAndMinutes(t *testing.T) {
	// 09:00-11:05 is 125 minutes: 2 whole hours and 5 leftover minutes.
	store := &fakeSummaryStore{}
	agg := newAggregator([]engine.Interval{
		{Start: at("09:00"), End: at("11:05")},
	}, store)

	summary, err := agg.Recompute(context.Background(), "plan-1", "emp-1")
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 2, summary.NormalHours)
	assert.Equal(t, 5, summary.ExtraMinutes)
	assert.Equal(t, 125, summary.TotalMinutes())
	assert.Equal(t, "plan-1", summary.PlanningID)
	assert.Equal(t, "emp-1", summary.EmployeeID)
	assert.Equal(t, summary, store.upserted)
}

func TestAggregator_Recompute_SumsAllSlots(t *testing.T) {
	store := &fakeSummaryStore{}
	agg := newAggregator([]engine.Interval{
		{Start: at("09:00"), End: at("12:00")}, // 180
		{Start: at("13:30"), End: at("17:00")}, // 210
		{Start: at("18:00"), End: at("18:45")}, // 45
	}, store)

	summary, err := agg.Recompute(context.Background(), "plan-1", "emp-1")
	require.NoError(t, err)
	require.NotNil(t, summary)

	// 435 minutes total.
	assert.Equal(t, 7, summary.NormalHours)
	assert.Equal(t, 15, summary.ExtraMinutes)
}

func TestAggregator_Recompute_PeriodSpansAllSlots(t *testing.T) {
	store := &fakeSummaryStore{}
	agg := newAggregator([]engine.Interval{
		{Start: at("13:30"), End: at("17:00")},
		{Start: at("09:00"), End: at("12:00")},
	}, store)

	summary, err := agg.Recompute(context.Background(), "plan-1", "emp-1")
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, at("09:00"), summary.PeriodStart)
	assert.Equal(t, at("17:00"), summary.PeriodEnd)
}

func TestAggregator_Recompute_DeletesWhenNoSlotsRemain(t *testing.T) {
	store := &fakeSummaryStore{}
	agg := newAggregator(nil, store)

	summary, err := agg.Recompute(context.Background(), "plan-1", "emp-1")
	require.NoError(t, err)

	assert.Nil(t, summary)
	assert.True(t, store.deleted)
	assert.Zero(t, store.upserts)
}

func TestAggregator_Recompute_IsIdempotent(t *testing.T) {
	store := &fakeSummaryStore{}
	agg := newAggregator([]engine.Interval{
		{Start: at("09:00"), End: at("11:05")},
	}, store)
	ctx := context.Background()

	first, err := agg.Recompute(ctx, "plan-1", "emp-1")
	require.NoError(t, err)
	second, err := agg.Recompute(ctx, "plan-1", "emp-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, store.upserts)
}
