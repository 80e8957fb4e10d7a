package engine_test

import (
	"testing"
	"time"

	"github.com/planora/planora-backend/internal/planning/engine"
	"github.com/stretchr/testify/assert"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", value, err)
	}
	return parsed
}

func window(t *testing.T, start, end string) engine.Interval {
	t.Helper()
	return engine.Interval{Start: mustTime(t, start), End: mustTime(t, end)}
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     engine.Interval
		overlaps bool
	}{
		{
			name:     "partial overlap",
			a:        engine.Interval{Start: at("09:00"), End: at("12:00")},
			b:        engine.Interval{Start: at("11:00"), End: at("14:00")},
			overlaps: true,
		},
		{
			name:     "contained",
			a:        engine.Interval{Start: at("09:00"), End: at("17:00")},
			b:        engine.Interval{Start: at("10:00"), End: at("11:00")},
			overlaps: true,
		},
		{
			name:     "identical",
			a:        engine.Interval{Start: at("09:00"), End: at("12:00")},
			b:        engine.Interval{Start: at("09:00"), End: at("12:00")},
			overlaps: true,
		},
		{
			name:     "back to back does not overlap",
			a:        engine.Interval{Start: at("09:00"), End: at("12:00")},
			b:        engine.Interval{Start: at("12:00"), End: at("14:00")},
			overlaps: false,
		},
		{
			name:     "disjoint",
			a:        engine.Interval{Start: at("09:00"), End: at("10:00")},
			b:        engine.Interval{Start: at("13:00"), End: at("14:00")},
			overlaps: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, tt.a.Overlaps(tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.overlaps, tt.b.Overlaps(tt.a))
		})
	}
}

func TestInterval_IsValid(t *testing.T) {
	assert.True(t, engine.Interval{Start: at("09:00"), End: at("09:01")}.IsValid())
	assert.False(t, engine.Interval{Start: at("09:00"), End: at("09:00")}.IsValid())
	assert.False(t, engine.Interval{Start: at("12:00"), End: at("09:00")}.IsValid())
}

func TestInterval_Contains(t *testing.T) {
	outer := engine.Interval{Start: at("08:00"), End: at("18:00")}

	assert.True(t, outer.Contains(engine.Interval{Start: at("09:00"), End: at("12:00")}))
	assert.True(t, outer.Contains(outer))
	assert.False(t, outer.Contains(engine.Interval{Start: at("07:00"), End: at("09:00")}))
	assert.False(t, outer.Contains(engine.Interval{Start: at("17:00"), End: at("19:00")}))
}

func TestInterval_Minutes(t *testing.T) {
	assert.Equal(t, 180, engine.Interval{Start: at("09:00"), End: at("12:00")}.Minutes())
	assert.Equal(t, 125, engine.Interval{Start: at("09:00"), End: at("11:05")}.Minutes())
	assert.Equal(t, 0, engine.Interval{Start: at("09:00"), End: at("09:00")}.Minutes())
}

func TestInterval_Envelope(t *testing.T) {
	a := engine.Interval{Start: at("09:00"), End: at("12:00")}
	b := engine.Interval{Start: at("14:00"), End: at("17:00")}

	env := a.Envelope(b)
	assert.Equal(t, at("09:00"), env.Start)
	assert.Equal(t, at("17:00"), env.End)

	// Symmetric.
	assert.Equal(t, env, b.Envelope(a))
}

// at builds a timestamp on a fixed reference Monday.
func at(hhmm string) time.Time {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return time.Date(2024, 6, 3, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}
