package leave

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/generic"
)

var ErrInvalidStatus = errors.New("invalid leave status")

func init() {
	generic.RegisterClientError(ErrInvalidStatus)
}

// OverlapDays returns how many days of window the employee spent on
// qualifying leave. Records outside the window contribute nothing; records in
// other statuses are ignored.
//
// Overlapping records are merged before counting so a day booked twice is
// counted once. The result never exceeds window.Days().
func OverlapDays(window generic.Period, records []Record) (int, error) {
	if err := window.Validate(); err != nil {
		return 0, err
	}

	var parts []generic.Period
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return 0, err
		}
		if !r.Status.Qualifies() {
			continue
		}
		if overlap, ok := r.Period().Intersect(window); ok {
			parts = append(parts, overlap)
		}
	}

	days := 0
	for _, p := range generic.MergePeriods(parts) {
		days += p.Days()
	}
	return days, nil
}

// OverlapDaysByEmployee groups records by employee and applies OverlapDays to
// each group. Employees without qualifying leave are absent from the result.
func OverlapDaysByEmployee(window generic.Period, records []Record) (map[string]int, error) {
	grouped := make(map[string][]Record)
	for _, r := range records {
		grouped[r.EmployeeID] = append(grouped[r.EmployeeID], r)
	}

	out := make(map[string]int, len(grouped))
	for employeeID, recs := range grouped {
		days, err := OverlapDays(window, recs)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", employeeID, err)
		}
		if days > 0 {
			out[employeeID] = days
		}
	}
	return out, nil
}
