package generic

import "sort"

// =============================================================================
// PERIOD - Inclusive day window
// =============================================================================

// Period is an inclusive window of calendar days [Start, End].
//
// Examples:
//   - Payroll month February 2026: Feb 1 - Feb 28
//   - A leave record: Feb 5 - Feb 15 (11 days)
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Validate rejects windows whose end precedes their start.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return &InvalidInputError{Field: "period", Value: p.String(), Err: ErrInvalidDate}
	}
	if p.End.Before(p.Start) {
		return &InvalidInputError{Field: "period", Value: p.String(), Err: ErrInvalidPeriod}
	}
	return nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days counts the days in the window, inclusive of both ends.
func (p Period) Days() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Intersect returns the overlap of two windows and whether it is non-empty.
func (p Period) Intersect(other Period) (Period, bool) {
	start := p.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := p.End
	if other.End.Before(end) {
		end = other.End
	}
	if end.Before(start) {
		return Period{}, false
	}
	return Period{Start: start, End: end}, true
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MergePeriods coalesces overlapping or adjacent windows so that no day is
// represented twice. Input order does not matter.
func MergePeriods(periods []Period) []Period {
	if len(periods) == 0 {
		return nil
	}
	sorted := make([]Period, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Period{sorted[0]}
	for _, p := range sorted[1:] {
		last := &merged[len(merged)-1]
		if p.Start.BeforeOrEqual(last.End.AddDays(1)) {
			if p.End.After(last.End) {
				last.End = p.End
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}
