package payroll

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/warp/payroll-engine/generic"
)

// ErrInvalidLeaveDays is returned for a negative leave-day count.
var ErrInvalidLeaveDays = errors.New("invalid leave day count")

func init() {
	generic.RegisterClientError(ErrInvalidLeaveDays)
}

// =============================================================================
// BREAKDOWN - Deduction Calculator output (never persisted as such)
// =============================================================================

// Breakdown is one employee's deductions for one month.
//
// Invariant: Total = GOSI + LeaveDeduction + Loans + Advances + Penalties +
// Insurance + Custom. Items is an audit view; Total is summed from the
// buckets, not from Items.
type Breakdown struct {
	EmployeeID     string
	Month          generic.Month
	BasicSalary    generic.Amount
	GrossSalary    generic.Amount // basic + allowances
	GOSI           generic.Amount
	LeaveDays      int
	LeaveDeduction generic.Amount
	Loans          generic.Amount
	Advances       generic.Amount
	Penalties      generic.Amount
	Insurance      generic.Amount
	Custom         generic.Amount
	Items          []LineItem
	Total          generic.Amount
	NetSalary      generic.Amount // GrossSalary - Total
	Cap            CapResult
}

// Ledger is the sum of the five ledger buckets.
func (b Breakdown) Ledger() generic.Amount {
	return generic.Sum(b.BasicSalary.Currency, b.Loans, b.Advances, b.Penalties, b.Insurance, b.Custom)
}

// bucket returns the field that a deduction type accumulates into.
func (b *Breakdown) bucket(t DeductionType) *generic.Amount {
	switch t {
	case DeductionLoan:
		return &b.Loans
	case DeductionAdvance:
		return &b.Advances
	case DeductionPenalty:
		return &b.Penalties
	case DeductionInsurance:
		return &b.Insurance
	case DeductionCustom:
		return &b.Custom
	}
	return nil
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator combines the GOSI rule, the 30-day leave deduction and the
// deduction ledger into a Breakdown.
type Calculator struct {
	Ledger DeductionReader
	Rules  Rules
}

func NewCalculator(ledger DeductionReader, rules Rules) *Calculator {
	return &Calculator{Ledger: ledger, Rules: rules}
}

// Calculate computes the breakdown for emp in month. Leave beyond 30 days
// deducts at most the full basic salary. A ledger read failure aborts the
// calculation for this employee.
func (c *Calculator) Calculate(ctx context.Context, emp Employee, leaveDays int, month generic.Month) (Breakdown, error) {
	if emp.BasicSalary.IsNegative() {
		return Breakdown{}, &generic.InvalidInputError{
			Field: "basic_salary", Value: emp.BasicSalary.Fixed(), Err: generic.ErrInvalidAmount,
		}
	}
	if leaveDays < 0 {
		return Breakdown{}, &generic.InvalidInputError{
			Field: "leave_days", Value: strconv.Itoa(leaveDays), Err: ErrInvalidLeaveDays,
		}
	}

	zero := emp.BasicSalary.Zero()
	b := Breakdown{
		EmployeeID:  emp.ID,
		Month:       month,
		BasicSalary: emp.BasicSalary,
		GrossSalary: emp.TotalSalary(),
		LeaveDays:   leaveDays,
		Loans:       zero,
		Advances:    zero,
		Penalties:   zero,
		Insurance:   zero,
		Custom:      zero,
	}

	b.GOSI = c.Rules.GOSI(emp.BasicSalary, emp.Nationality).Round2()
	if !b.GOSI.IsZero() {
		b.Items = append(b.Items, LineItem{
			Kind:        ItemGOSI,
			Description: fmt.Sprintf("GOSI %s%%", c.Rules.GOSIRate.Shift(2).String()),
			Amount:      b.GOSI,
		})
	}

	deductedDays := leaveDays
	if deductedDays > DaysPerMonth {
		deductedDays = DaysPerMonth
	}
	b.LeaveDeduction = LeaveDeduction(emp.BasicSalary, deductedDays).Round2()
	if !b.LeaveDeduction.IsZero() {
		b.Items = append(b.Items, LineItem{
			Kind:        ItemLeave,
			Description: fmt.Sprintf("Leave %d day(s)", leaveDays),
			Amount:      b.LeaveDeduction,
		})
	}

	if c.Ledger != nil {
		entries, err := c.Ledger.ActiveDeductions(ctx, emp.ID, month)
		if err != nil {
			return Breakdown{}, fmt.Errorf("read deductions for %s in %s: %w", emp.ID, month, err)
		}
		for _, entry := range entries {
			if err := c.apply(&b, entry); err != nil {
				return Breakdown{}, err
			}
		}
	}

	b.Total = generic.Sum(emp.BasicSalary.Currency,
		b.GOSI, b.LeaveDeduction, b.Loans, b.Advances, b.Penalties, b.Insurance, b.Custom)
	b.NetSalary = b.GrossSalary.Sub(b.Total).Round2()
	b.Cap = c.Rules.ValidateCap(emp.BasicSalary, b.Total)
	return b, nil
}

func (c *Calculator) apply(b *Breakdown, entry DeductionEntry) error {
	bucket := b.bucket(entry.Type)
	if bucket == nil {
		return &UnknownDeductionTypeError{EntryID: entry.ID, Type: string(entry.Type)}
	}
	amount, err := entry.AppliedAmount()
	if err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	*bucket = bucket.Add(amount)

	desc := entry.Description
	if desc == "" {
		desc = string(entry.Type)
	}
	b.Items = append(b.Items, LineItem{
		Kind:        ItemKind(entry.Type),
		EntryID:     entry.ID,
		Description: desc,
		Amount:      amount,
	})
	return nil
}
