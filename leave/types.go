// Package leave models employee leave records and measures how much of a
// payroll month an employee spent on qualifying leave.
package leave

import (
	"fmt"
	"strings"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// LEAVE TYPE
// =============================================================================

// Type is descriptive only; every qualifying record prorates pay the same way.
type Type string

const (
	TypeAnnual    Type = "annual"
	TypeSick      Type = "sick"
	TypeUnpaid    Type = "unpaid"
	TypeEmergency Type = "emergency"
	TypeHajj      Type = "hajj"
	TypeMaternity Type = "maternity"
	TypeOther     Type = "other"
)

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// ParseStatus accepts any casing ("Approved", "approved").
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return st, nil
	default:
		return "", &generic.InvalidInputError{Field: "status", Value: s, Err: ErrInvalidStatus}
	}
}

// Qualifies reports whether records in this status reduce pay.
func (s Status) Qualifies() bool {
	return s == StatusApproved || s == StatusCompleted
}

// QualifyingStatuses lists the statuses stores filter on.
var QualifyingStatuses = []Status{StatusApproved, StatusCompleted}

// =============================================================================
// RECORD
// =============================================================================

// Record is one leave booking. End is inclusive.
type Record struct {
	ID              string
	EmployeeID      string
	Type            Type
	Start           generic.TimePoint
	End             generic.TimePoint
	Status          Status
	ExitReentryVisa bool
	Reason          string
}

// Period is the inclusive window covered by the record.
func (r Record) Period() generic.Period {
	return generic.Period{Start: r.Start, End: r.End}
}

// Validate enforces start <= end and a known status.
func (r Record) Validate() error {
	if err := r.Period().Validate(); err != nil {
		return fmt.Errorf("leave %s: %w", r.ID, err)
	}
	if _, err := ParseStatus(string(r.Status)); err != nil {
		return fmt.Errorf("leave %s: %w", r.ID, err)
	}
	return nil
}
