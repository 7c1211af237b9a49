package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/payroll-engine/generic"
)

func feb(d int) generic.TimePoint { return generic.NewTimePoint(2026, time.February, d) }

func window(from, to int) generic.Period { return generic.Period{Start: feb(from), End: feb(to)} }

func TestPeriod_DaysInclusive(t *testing.T) {
	assert.Equal(t, 11, window(5, 15).Days())
	assert.Equal(t, 1, window(7, 7).Days())
	assert.Equal(t, 0, window(8, 7).Days())
}

func TestPeriod_Validate(t *testing.T) {
	assert.NoError(t, window(1, 28).Validate())
	assert.ErrorIs(t, window(10, 5).Validate(), generic.ErrInvalidPeriod)
	assert.ErrorIs(t, generic.Period{End: feb(1)}.Validate(), generic.ErrInvalidDate)
}

func TestPeriod_Intersect(t *testing.T) {
	overlap, ok := window(1, 10).Intersect(window(5, 20))
	assert.True(t, ok)
	assert.Equal(t, window(5, 10), overlap)

	_, ok = window(1, 4).Intersect(window(5, 20))
	assert.False(t, ok)

	edge, ok := window(1, 5).Intersect(window(5, 20))
	assert.True(t, ok)
	assert.Equal(t, 1, edge.Days())
}

func TestMergePeriods(t *testing.T) {
	// GIVEN: Overlapping, adjacent and disjoint windows out of order
	merged := generic.MergePeriods([]generic.Period{
		window(20, 22),
		window(5, 10),
		window(8, 12),
		window(13, 14),
	})

	// THEN: 5-14 coalesced, 20-22 kept apart
	assert.Equal(t, []generic.Period{window(5, 14), window(20, 22)}, merged)
	assert.Nil(t, generic.MergePeriods(nil))
}

func TestPeriod_Contains(t *testing.T) {
	p := window(5, 10)

	assert.True(t, p.Contains(feb(5)))
	assert.True(t, p.Contains(feb(10)))
	assert.False(t, p.Contains(feb(11)))
}
