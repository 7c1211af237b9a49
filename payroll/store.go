/*
store.go - Persistence interfaces for the payroll core

PURPOSE:
  Defines the boundary between payroll logic and the record store. The core
  only reads employees and leave, reads and advances the deduction ledger,
  and upserts payroll records. SQLite, PostgreSQL and in-memory stores all
  implement the same interfaces.

KEY INTERFACES:
  EmployeeSource:  Active employee registry (read-only)
  LeaveSource:     Leave records overlapping a window
  DeductionReader: Active deduction entries for (employee, month)
  DeductionLedger: Registration and installment application
  PayrollLedger:   Records upserted on (employee_id, month), plus run audit

UPSERT CONTRACT:
  UpsertRecord is keyed by (employee_id, month). Two saves for the same pair
  leave exactly one row carrying the second save's values. A paid row is
  never overwritten: UpsertRecord returns ErrRecordLocked instead.

INSTALLMENT IDEMPOTENCY:
  ApplyInstallment writes the installment row and the updated entry in one
  transaction. The installment is unique on (entry_id, month); a second
  application returns generic.ErrDuplicateIdempotencyKey and changes nothing.

READ FAILURES:
  A failed read is returned as an error, never as an empty list. An empty
  deduction list would be indistinguishable from "no debt".

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go
  - store/postgres/postgres.go
  - store/memory/memory.go
*/
package payroll

import (
	"context"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
)

// =============================================================================
// READ SIDE
// =============================================================================

type EmployeeSource interface {
	// ListActiveEmployees returns employees with status active, ordered by ID.
	ListActiveEmployees(ctx context.Context) ([]Employee, error)

	// GetEmployee returns nil, nil when the employee does not exist.
	GetEmployee(ctx context.Context, id string) (*Employee, error)
}

type LeaveSource interface {
	// ListQualifyingLeaves returns approved/completed leave intersecting window.
	ListQualifyingLeaves(ctx context.Context, window generic.Period) ([]leave.Record, error)
}

type DeductionReader interface {
	// ActiveDeductions returns entries where status = active and
	// start_month <= month <= end_month (end_month optional).
	ActiveDeductions(ctx context.Context, employeeID string, month generic.Month) ([]DeductionEntry, error)
}

// =============================================================================
// WRITE SIDE
// =============================================================================

type DeductionLedger interface {
	DeductionReader

	SaveDeduction(ctx context.Context, entry DeductionEntry) error

	// GetDeduction returns nil, nil when the entry does not exist.
	GetDeduction(ctx context.Context, id string) (*DeductionEntry, error)

	ListDeductions(ctx context.Context, employeeID string) ([]DeductionEntry, error)

	// ApplyInstallment atomically records inst and advances its entry.
	ApplyInstallment(ctx context.Context, inst Installment) (DeductionEntry, error)
}

type PayrollLedger interface {
	UpsertRecord(ctx context.Context, rec Record) error

	// GetRecord returns generic.ErrRecordNotFound when absent.
	GetRecord(ctx context.Context, employeeID string, month generic.Month) (Record, error)

	// ListRecords returns the month's records ordered by employee ID.
	ListRecords(ctx context.Context, month generic.Month) ([]Record, error)

	SaveRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context) ([]Run, error)

	// IsRunComplete reports whether a completed run exists for month.
	IsRunComplete(ctx context.Context, month generic.Month) (bool, error)
}

// Store is everything the Service needs.
type Store interface {
	EmployeeSource
	LeaveSource
	DeductionLedger
	PayrollLedger

	SaveEmployee(ctx context.Context, emp Employee) error
	ListEmployees(ctx context.Context) ([]Employee, error)
	SaveLeave(ctx context.Context, rec leave.Record) error
	ListEmployeeLeaves(ctx context.Context, employeeID string) ([]leave.Record, error)
}
