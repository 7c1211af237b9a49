package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - A calendar day (payroll has no sub-day granularity)
// =============================================================================

const DateLayout = "2006-01-02"

type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint { return FromTime(time.Now()) }

// ParseDate parses YYYY-MM-DD. Malformed input is an explicit error rather
// than a zero date that would later produce a negative day count.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return TimePoint{}, &InvalidInputError{Field: "date", Value: s, Err: ErrInvalidDate}
	}
	return FromTime(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }
func (tp TimePoint) String() string    { return tp.Time.Format(DateLayout) }

// DaysBetween returns whole days from -> to (negative when to is earlier).
func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// =============================================================================
// MONTH - Payroll month, rendered as YYYY-MM
// =============================================================================

const MonthLayout = "2006-01"

// Month identifies a payroll month. Its String form is lexically comparable,
// which the stores rely on for validity-window queries.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month { return Month{Year: year, Month: month} }

func MonthOf(tp TimePoint) Month { return Month{Year: tp.Year(), Month: tp.Month()} }

func CurrentMonth() Month { return MonthOf(Today()) }

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, &InvalidInputError{Field: "month", Value: s, Err: ErrInvalidMonth}
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }
func (m Month) IsZero() bool   { return m.Year == 0 && m.Month == 0 }

// Start and End are the first and last calendar days of the month.
func (m Month) Start() TimePoint { return NewTimePoint(m.Year, m.Month, 1) }
func (m Month) End() TimePoint {
	return FromTime(time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}

// Period is the inclusive window [Start, End].
func (m Month) Period() Period { return Period{Start: m.Start(), End: m.End()} }

// CalendarDays is the real number of days in the month (28-31).
func (m Month) CalendarDays() int { return m.End().Day() }

func (m Month) Before(other Month) bool { return m.String() < other.String() }
func (m Month) After(other Month) bool  { return m.String() > other.String() }

func (m Month) Next() Month { return MonthOf(FromTime(m.Start().Time.AddDate(0, 1, 0))) }
func (m Month) Prev() Month { return MonthOf(FromTime(m.Start().Time.AddDate(0, -1, 0))) }
