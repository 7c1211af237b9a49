package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// DEDUCTION TYPE - Closed set of ledger buckets
// =============================================================================

type DeductionType string

const (
	DeductionLoan      DeductionType = "loan"
	DeductionAdvance   DeductionType = "advance"
	DeductionPenalty   DeductionType = "penalty"
	DeductionInsurance DeductionType = "insurance"
	DeductionCustom    DeductionType = "custom"
)

// DeductionTypes lists every known type in breakdown order.
var DeductionTypes = []DeductionType{
	DeductionLoan, DeductionAdvance, DeductionPenalty, DeductionInsurance, DeductionCustom,
}

func ParseDeductionType(s string) (DeductionType, error) {
	t := DeductionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", &UnknownDeductionTypeError{Type: s}
	}
	return t, nil
}

func (t DeductionType) Valid() bool {
	switch t {
	case DeductionLoan, DeductionAdvance, DeductionPenalty, DeductionInsurance, DeductionCustom:
		return true
	}
	return false
}

// =============================================================================
// DEDUCTION ENTRY - Deduction ledger row
// =============================================================================

type DeductionStatus string

const (
	DeductionActive    DeductionStatus = "active"
	DeductionCompleted DeductionStatus = "completed"
)

// DeductionEntry is money an employee owes, recovered from payroll.
//
// Invariants (non-recurring): DeductedAmount <= TotalAmount and
// RemainingAmount == TotalAmount - DeductedAmount.
type DeductionEntry struct {
	ID                 string
	EmployeeID         string
	Type               DeductionType
	Description        string
	TotalAmount        generic.Amount
	DeductedAmount     generic.Amount
	MonthlyInstallment *generic.Amount
	RemainingAmount    *generic.Amount
	StartMonth         generic.Month
	EndMonth           *generic.Month // nil = open-ended
	Recurring          bool
	Status             DeductionStatus
	CreatedAt          time.Time
}

// ActiveIn reports whether the entry applies to month: status active and
// StartMonth <= month <= EndMonth (EndMonth optional).
func (e DeductionEntry) ActiveIn(month generic.Month) bool {
	if e.Status != DeductionActive {
		return false
	}
	if month.Before(e.StartMonth) {
		return false
	}
	return e.EndMonth == nil || !month.After(*e.EndMonth)
}

// Normalize fills derivable fields on registration: status defaults to
// active and a non-recurring entry gets RemainingAmount = Total - Deducted.
func (e DeductionEntry) Normalize() DeductionEntry {
	if e.Status == "" {
		e.Status = DeductionActive
	}
	if e.DeductedAmount.Currency == "" {
		e.DeductedAmount = e.TotalAmount.Zero()
	}
	if !e.Recurring && e.RemainingAmount == nil {
		remaining := e.TotalAmount.Sub(e.DeductedAmount)
		e.RemainingAmount = &remaining
	}
	return e
}

// Validate rejects entries the calculator could not apply.
func (e DeductionEntry) Validate() error {
	if !e.Type.Valid() {
		return &UnknownDeductionTypeError{EntryID: e.ID, Type: string(e.Type)}
	}
	if strings.TrimSpace(e.EmployeeID) == "" {
		return e.invalid("employee is required")
	}
	if e.StartMonth.IsZero() {
		return e.invalid("start month is required")
	}
	if e.EndMonth != nil && e.EndMonth.Before(e.StartMonth) {
		return e.invalid("end month before start month")
	}
	if e.TotalAmount.IsNegative() || e.DeductedAmount.IsNegative() {
		return e.invalid("amounts must not be negative")
	}
	if !e.Recurring && e.DeductedAmount.GreaterThan(e.TotalAmount) {
		return e.invalid("deducted amount exceeds total amount")
	}
	if e.MonthlyInstallment != nil && !e.MonthlyInstallment.IsPositive() {
		return e.invalid("monthly installment must be positive")
	}
	if e.RemainingAmount != nil && e.RemainingAmount.IsNegative() {
		return e.invalid("remaining amount must not be negative")
	}
	if e.MonthlyInstallment == nil && e.RemainingAmount == nil {
		return &UnpayableDeductionError{EntryID: e.ID}
	}
	if e.Recurring && e.MonthlyInstallment == nil {
		return e.invalid("recurring deductions need a monthly installment")
	}
	return nil
}

func (e DeductionEntry) invalid(reason string) error {
	return fmt.Errorf("deduction %s: %s: %w", e.ID, reason, ErrInvalidDeduction)
}

// AppliedAmount is what one payroll month recovers: the monthly installment
// when set (never more than what remains on a non-recurring entry), otherwise
// the whole remaining amount.
func (e DeductionEntry) AppliedAmount() (generic.Amount, error) {
	switch {
	case e.MonthlyInstallment != nil:
		amount := *e.MonthlyInstallment
		if !e.Recurring && e.RemainingAmount != nil {
			amount = amount.Min(*e.RemainingAmount)
		}
		return amount, nil
	case e.RemainingAmount != nil:
		return *e.RemainingAmount, nil
	default:
		return generic.Amount{}, &UnpayableDeductionError{EntryID: e.ID}
	}
}

// Apply records an installment recovered in month. A non-recurring entry
// whose remaining amount reaches zero is completed and closed at month.
func (e DeductionEntry) Apply(amount generic.Amount, month generic.Month) DeductionEntry {
	e.DeductedAmount = e.DeductedAmount.Add(amount)
	if e.Recurring {
		return e
	}
	remaining := e.TotalAmount.Sub(e.DeductedAmount).Max(e.TotalAmount.Zero())
	e.RemainingAmount = &remaining
	if remaining.IsZero() {
		end := month
		e.Status = DeductionCompleted
		e.EndMonth = &end
	}
	return e
}

// =============================================================================
// INSTALLMENT - One application of an entry in a paid month
// =============================================================================

// Installment is unique per (EntryID, Month).
type Installment struct {
	ID         string
	EntryID    string
	EmployeeID string
	Month      generic.Month
	Amount     generic.Amount
	AppliedAt  time.Time
}

// IdempotencyKey identifies the installment across retries.
func (i Installment) IdempotencyKey() string {
	return "installment-" + i.EntryID + "-" + i.Month.String()
}
