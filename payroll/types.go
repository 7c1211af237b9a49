/*
Package payroll implements the monthly payroll calculation core.

PURPOSE:
  For a payroll month this package decides how much each active employee is
  paid: it prorates basic salary by qualifying leave, applies the GOSI
  contribution for Saudi nationals, pulls active loan/advance/penalty/
  insurance/custom deductions from the deduction ledger, checks the 50%
  statutory cap and produces one Payroll Record per employee.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: Read-only view of the employee registry
  - Record: Persisted payroll row, unique per (employee, month)
  - LineItem: Audit line of a deduction breakdown
  - Run: Audit trail of a payroll save

COMPONENTS:
  rules.go:      GOSI rule, 30-day proration, configurable rates
  deduction.go:  Deduction ledger entries and installment application
  calculator.go: Deduction Calculator (breakdown per employee/month)
  cap.go:        Statutory cap validator
  generator.go:  Payroll Generator (draft rows for a month)
  service.go:    Save / mark-paid lifecycle over a Store
  store.go:      Persistence interfaces

RECORD LIFECYCLE:
  Draft  -> computed, not persisted (cheap, repeatable)
  Saved  -> upserted on (employee_id, month); re-saving overwrites
  Paid   -> terminal; installments applied to the deduction ledger

SEE ALSO:
  - leave/overlap.go: Leave overlap calculator
  - export/mudad.go: Fixed-column export of records
  - store/sqlstore/sqlstore.go: SQL Store shared by SQLite and PostgreSQL
*/
package payroll

import (
	"time"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmployeeStatus string

const (
	EmployeeActive      EmployeeStatus = "active"
	EmployeeOffboarding EmployeeStatus = "offboarding"
	EmployeeTerminated  EmployeeStatus = "terminated"
)

func (s EmployeeStatus) Valid() bool {
	switch s {
	case EmployeeActive, EmployeeOffboarding, EmployeeTerminated:
		return true
	}
	return false
}

// Employee is owned by the employee registry; payroll never mutates it.
// BasicSalary is assumed constant for the whole month.
type Employee struct {
	ID               string
	Name             string
	NationalID       string // national ID or iqama number
	Nationality      string // free text, English or Arabic
	BasicSalary      generic.Amount
	HousingAllowance generic.Amount
	OtherAllowance   generic.Amount
	IBAN             string
	Status           EmployeeStatus
	CreatedAt        time.Time
}

// TotalSalary is basic plus allowances, before any proration.
func (e Employee) TotalSalary() generic.Amount {
	return e.BasicSalary.Add(e.HousingAllowance).Add(e.OtherAllowance)
}

// =============================================================================
// PAYROLL RECORD
// =============================================================================

type RecordStatus string

const (
	RecordDraft RecordStatus = "draft"
	RecordSaved RecordStatus = "saved"
	RecordPaid  RecordStatus = "paid"
)

// Record is one employee's payroll for one month.
//
// Invariant: TotalSalary() - Deductions == FinalSalary, exactly.
type Record struct {
	ID               string
	EmployeeID       string
	EmployeeName     string
	Month            generic.Month
	SalaryBasic      generic.Amount
	HousingAllowance generic.Amount
	OtherAllowance   generic.Amount
	Deductions       generic.Amount
	WorkingDays      int
	LeaveDays        int
	FinalSalary      generic.Amount
	Status           RecordStatus
	Items            []LineItem

	// Cap is evaluated at generation time and not persisted.
	Cap CapResult

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record) TotalSalary() generic.Amount {
	return r.SalaryBasic.Add(r.HousingAllowance).Add(r.OtherAllowance)
}

// Key is the uniqueness key of a record.
func (r Record) Key() string { return r.EmployeeID + "/" + r.Month.String() }

// =============================================================================
// LINE ITEM - Audit line of a breakdown
// =============================================================================

type ItemKind string

const (
	ItemGOSI  ItemKind = "gosi"
	ItemLeave ItemKind = "leave"
)

// LineItem is one audited deduction. EntryID is set for ledger deductions.
type LineItem struct {
	Kind        ItemKind
	EntryID     string
	Description string
	Amount      generic.Amount
}

// =============================================================================
// RUN - Audit trail of a payroll save
// =============================================================================

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

type Run struct {
	ID            string
	Month         generic.Month
	Status        RunStatus
	EmployeeCount int
	TotalNet      generic.Amount
	Error         string
	StartedAt     time.Time
	CompletedAt   *time.Time
}
