package payroll

import (
	"errors"
	"fmt"

	"github.com/warp/payroll-engine/generic"
)

var (
	// ErrUnknownDeductionType is returned for a ledger entry whose type is not
	// one of loan, advance, penalty, insurance, custom.
	ErrUnknownDeductionType = errors.New("unknown deduction type")

	// ErrUnpayableDeduction is returned for an entry with neither a monthly
	// installment nor a remaining amount.
	ErrUnpayableDeduction = errors.New("deduction has neither installment nor remaining amount")

	// ErrInvalidDeduction covers other malformed ledger entries.
	ErrInvalidDeduction = errors.New("invalid deduction entry")

	// ErrDeductionNotFound is returned when an installment names an unknown entry.
	ErrDeductionNotFound = errors.New("deduction entry not found")

	// ErrInvalidEmployee covers malformed employee registrations.
	ErrInvalidEmployee = errors.New("invalid employee")

	// ErrRecordLocked is returned when a save would overwrite a paid record.
	ErrRecordLocked = errors.New("payroll record is paid and locked")

	// ErrInvalidStatusTransition is returned for lifecycle moves such as
	// draft -> paid.
	ErrInvalidStatusTransition = errors.New("invalid payroll status transition")
)

func init() {
	generic.RegisterClientError(ErrUnknownDeductionType)
	generic.RegisterClientError(ErrUnpayableDeduction)
	generic.RegisterClientError(ErrInvalidDeduction)
	generic.RegisterClientError(ErrInvalidEmployee)
	generic.RegisterNotFoundError(ErrDeductionNotFound)
	generic.RegisterClientError(ErrInvalidStatusTransition)
}

// UnknownDeductionTypeError names the entry and the rejected tag.
type UnknownDeductionTypeError struct {
	EntryID string
	Type    string
}

func (e *UnknownDeductionTypeError) Error() string {
	if e.EntryID == "" {
		return fmt.Sprintf("unknown deduction type %q", e.Type)
	}
	return fmt.Sprintf("deduction %s: unknown deduction type %q", e.EntryID, e.Type)
}

func (e *UnknownDeductionTypeError) Unwrap() error { return ErrUnknownDeductionType }

// UnpayableDeductionError names the entry that cannot be applied.
type UnpayableDeductionError struct {
	EntryID string
}

func (e *UnpayableDeductionError) Error() string {
	return fmt.Sprintf("deduction %s: neither monthly installment nor remaining amount set", e.EntryID)
}

func (e *UnpayableDeductionError) Unwrap() error { return ErrUnpayableDeduction }

// LockedRecordError reports the (employee, month) that could not be saved.
type LockedRecordError struct {
	EmployeeID string
	Month      generic.Month
}

func (e *LockedRecordError) Error() string {
	return fmt.Sprintf("payroll for %s in %s is already paid", e.EmployeeID, e.Month)
}

func (e *LockedRecordError) Unwrap() error { return ErrRecordLocked }
