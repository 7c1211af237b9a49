package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var february2026 = generic.NewMonth(2026, time.February).Period()

func approved(id string, start, end generic.TimePoint) leave.Record {
	return leave.Record{
		ID:         id,
		EmployeeID: "emp-1",
		Type:       leave.TypeAnnual,
		Start:      start,
		End:        end,
		Status:     leave.StatusApproved,
	}
}

func day(month time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(2026, month, d)
}

// =============================================================================
// OVERLAP TESTS
// =============================================================================

func TestOverlapDays_InsideMonth(t *testing.T) {
	// GIVEN: Leave Feb 5 - Feb 15
	// WHEN: Counting overlap with February
	// THEN: 11 days (inclusive)

	days, err := leave.OverlapDays(february2026, []leave.Record{
		approved("l-1", day(time.February, 5), day(time.February, 15)),
	})
	require.NoError(t, err)
	assert.Equal(t, 11, days)
}

func TestOverlapDays_NoIntersection(t *testing.T) {
	days, err := leave.OverlapDays(february2026, []leave.Record{
		approved("l-1", day(time.January, 1), day(time.January, 31)),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, days, "January leave must not reduce February pay")
}

func TestOverlapDays_SpansMonthBoundaries(t *testing.T) {
	// GIVEN: Leave Jan 20 - Mar 10 covering all of February
	// THEN: Capped to the 28 days of February
	days, err := leave.OverlapDays(february2026, []leave.Record{
		approved("l-1", day(time.January, 20), day(time.March, 10)),
	})
	require.NoError(t, err)
	assert.Equal(t, 28, days)
}

func TestOverlapDays_PartialAtStartAndEnd(t *testing.T) {
	days, err := leave.OverlapDays(february2026, []leave.Record{
		approved("l-1", day(time.January, 28), day(time.February, 2)),
		approved("l-2", day(time.February, 27), day(time.March, 3)),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, days)
}

func TestOverlapDays_OverlappingRecordsAreMerged(t *testing.T) {
	// GIVEN: Two approved records sharing Feb 10 - Feb 12
	// THEN: Shared days count once (Feb 5 - Feb 15 = 11 days)
	days, err := leave.OverlapDays(february2026, []leave.Record{
		approved("l-1", day(time.February, 5), day(time.February, 12)),
		approved("l-2", day(time.February, 10), day(time.February, 15)),
	})
	require.NoError(t, err)
	assert.Equal(t, 11, days)
}

func TestOverlapDays_AdjacentRecords(t *testing.T) {
	days, err := leave.OverlapDays(february2026, []leave.Record{
		approved("l-1", day(time.February, 1), day(time.February, 3)),
		approved("l-2", day(time.February, 4), day(time.February, 6)),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, days)
}

func TestOverlapDays_IgnoresNonQualifyingStatuses(t *testing.T) {
	pending := approved("l-1", day(time.February, 1), day(time.February, 10))
	pending.Status = leave.StatusPending
	rejected := approved("l-2", day(time.February, 11), day(time.February, 20))
	rejected.Status = leave.StatusRejected
	completed := approved("l-3", day(time.February, 21), day(time.February, 22))
	completed.Status = leave.StatusCompleted

	days, err := leave.OverlapDays(february2026, []leave.Record{pending, rejected, completed})
	require.NoError(t, err)
	assert.Equal(t, 2, days, "only the completed record counts")
}

func TestOverlapDays_EndBeforeStartIsAnError(t *testing.T) {
	_, err := leave.OverlapDays(february2026, []leave.Record{
		approved("l-1", day(time.February, 15), day(time.February, 5)),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
	assert.True(t, generic.IsClientError(err))
}

func TestOverlapDays_ZeroDateIsAnError(t *testing.T) {
	_, err := leave.OverlapDays(february2026, []leave.Record{
		approved("l-1", generic.TimePoint{}, day(time.February, 5)),
	})
	assert.ErrorIs(t, err, generic.ErrInvalidDate)
}

func TestOverlapDaysByEmployee(t *testing.T) {
	a := approved("l-1", day(time.February, 1), day(time.February, 5))
	b := approved("l-2", day(time.February, 10), day(time.February, 11))
	b.EmployeeID = "emp-2"
	c := approved("l-3", day(time.March, 1), day(time.March, 5))
	c.EmployeeID = "emp-3"

	byEmployee, err := leave.OverlapDaysByEmployee(february2026, []leave.Record{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"emp-1": 5, "emp-2": 2}, byEmployee)
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestParseStatus(t *testing.T) {
	st, err := leave.ParseStatus("Approved")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, st)

	_, err = leave.ParseStatus("cancelled")
	assert.ErrorIs(t, err, leave.ErrInvalidStatus)
}
