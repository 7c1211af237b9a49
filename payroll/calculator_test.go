package payroll_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type stubLedger struct {
	entries []payroll.DeductionEntry
	err     error
}

func (s stubLedger) ActiveDeductions(_ context.Context, employeeID string, month generic.Month) ([]payroll.DeductionEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []payroll.DeductionEntry
	for _, e := range s.entries {
		if e.EmployeeID == employeeID && e.ActiveIn(month) {
			out = append(out, e)
		}
	}
	return out, nil
}

func employee(id string, basic float64, nationality string) payroll.Employee {
	return payroll.Employee{
		ID:               id,
		Name:             "Employee " + id,
		NationalID:       "10" + id,
		Nationality:      nationality,
		BasicSalary:      generic.SAR(basic),
		HousingAllowance: generic.SAR(0),
		OtherAllowance:   generic.SAR(0),
		Status:           payroll.EmployeeActive,
	}
}

func calculator(entries ...payroll.DeductionEntry) *payroll.Calculator {
	return payroll.NewCalculator(stubLedger{entries: entries}, payroll.DefaultRules())
}

// =============================================================================
// BREAKDOWN
// =============================================================================

func TestCalculate_SaudiWithLeaveAndLedger(t *testing.T) {
	// GIVEN: Saudi employee on 10,000, a 1,000/month loan, a 300 advance
	// paid in one go, and 3 leave days
	advance := payroll.DeductionEntry{
		ID:          "d-2",
		EmployeeID:  "emp-1",
		Type:        payroll.DeductionAdvance,
		TotalAmount: generic.SAR(300),
		StartMonth:  feb2026,
	}.Normalize()
	calc := calculator(loan("d-1", 5000, 1000), advance)

	// WHEN: Calculating February
	b, err := calc.Calculate(context.Background(), employee("emp-1", 10000, "Saudi"), 3, feb2026)

	// THEN: Every bucket is filled and Total is their sum
	require.NoError(t, err)
	assert.Equal(t, "1000.00", b.GOSI.Fixed())
	assert.Equal(t, 3, b.LeaveDays)
	assert.Equal(t, "1000.00", b.LeaveDeduction.Fixed())
	assert.Equal(t, "1000.00", b.Loans.Fixed())
	assert.Equal(t, "300.00", b.Advances.Fixed())
	assert.True(t, b.Penalties.IsZero())
	assert.True(t, b.Insurance.IsZero())
	assert.True(t, b.Custom.IsZero())
	assert.Equal(t, "3300.00", b.Total.Fixed())
	assert.Equal(t, "6700.00", b.NetSalary.Fixed())

	require.Len(t, b.Items, 4)
	assert.Equal(t, payroll.ItemGOSI, b.Items[0].Kind)
	assert.Equal(t, payroll.ItemLeave, b.Items[1].Kind)
	assert.Equal(t, "d-1", b.Items[2].EntryID)
	assert.Equal(t, "d-2", b.Items[3].EntryID)

	assert.True(t, b.Cap.Valid)
	assert.Equal(t, "5000.00", b.Cap.Cap.Fixed())
}

func TestCalculate_ExpatriateNoGOSI(t *testing.T) {
	b, err := calculator().Calculate(context.Background(), employee("emp-1", 10000, "India"), 0, feb2026)

	require.NoError(t, err)
	assert.True(t, b.GOSI.IsZero())
	assert.True(t, b.Total.IsZero())
	assert.Empty(t, b.Items, "zero GOSI and leave produce no line items")
	assert.Equal(t, "10000.00", b.NetSalary.Fixed())
}

func TestCalculate_TotalIsSumOfBuckets(t *testing.T) {
	// GIVEN: Two loans that share the loans bucket
	calc := calculator(loan("d-1", 5000, 400), loan("d-2", 5000, 600))

	b, err := calc.Calculate(context.Background(), employee("emp-1", 8000, "Egypt"), 0, feb2026)

	require.NoError(t, err)
	assert.Equal(t, "1000.00", b.Loans.Fixed())
	assert.Len(t, b.Items, 2)
	sum := generic.Sum(generic.CurrencySAR, b.GOSI, b.LeaveDeduction, b.Loans, b.Advances, b.Penalties, b.Insurance, b.Custom)
	assert.True(t, sum.Equal(b.Total))
}

func TestCalculate_IgnoresEntriesOutsideWindow(t *testing.T) {
	future := loan("d-1", 5000, 400)
	future.StartMonth = mar2026

	b, err := calculator(future).Calculate(context.Background(), employee("emp-1", 8000, "Egypt"), 0, feb2026)

	require.NoError(t, err)
	assert.True(t, b.Loans.IsZero())
}

func TestCalculate_CapViolationIsReported(t *testing.T) {
	// GIVEN: 5,000 basic with a 3,000 penalty
	penalty := payroll.DeductionEntry{
		ID:          "d-1",
		EmployeeID:  "emp-1",
		Type:        payroll.DeductionPenalty,
		TotalAmount: generic.SAR(3000),
		StartMonth:  feb2026,
	}.Normalize()

	b, err := calculator(penalty).Calculate(context.Background(), employee("emp-1", 5000, "India"), 0, feb2026)

	// THEN: Not an error; the cap result carries the violation
	require.NoError(t, err)
	assert.False(t, b.Cap.Valid)
	assert.Equal(t, "2500.00", b.Cap.Cap.Fixed())
	assert.Equal(t, "500.00", b.Cap.Overage.Fixed())
}

func TestCalculate_LeaveDeductionCappedAtThirtyDays(t *testing.T) {
	b, err := calculator().Calculate(context.Background(), employee("emp-1", 3000, "India"), 31, feb2026)

	require.NoError(t, err)
	assert.Equal(t, "3000.00", b.LeaveDeduction.Fixed())
	assert.True(t, b.NetSalary.IsZero())
}

// =============================================================================
// FAILURES
// =============================================================================

func TestCalculate_UnknownTypeFails(t *testing.T) {
	// GIVEN: A ledger row carrying a tag outside the closed set
	bad := loan("d-1", 1000, 100)
	bad.Type = "bonus"

	// WHEN: Calculating
	_, err := calculator(bad).Calculate(context.Background(), employee("emp-1", 8000, "India"), 0, feb2026)

	// THEN: Loud failure naming the entry
	var typed *payroll.UnknownDeductionTypeError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "d-1", typed.EntryID)
	assert.Equal(t, "bonus", typed.Type)
}

func TestCalculate_UnpayableEntryFails(t *testing.T) {
	// GIVEN: A raw ledger row with neither installment nor remaining amount
	bad := payroll.DeductionEntry{
		ID:          "d-1",
		EmployeeID:  "emp-1",
		Type:        payroll.DeductionCustom,
		TotalAmount: generic.SAR(400),
		StartMonth:  feb2026,
		Status:      payroll.DeductionActive,
	}

	_, err := calculator(bad).Calculate(context.Background(), employee("emp-1", 8000, "India"), 0, feb2026)

	assert.ErrorIs(t, err, payroll.ErrUnpayableDeduction)
}

func TestCalculate_LedgerReadFailureAborts(t *testing.T) {
	boom := errors.New("connection reset")
	calc := payroll.NewCalculator(stubLedger{err: boom}, payroll.DefaultRules())

	_, err := calc.Calculate(context.Background(), employee("emp-1", 8000, "India"), 0, feb2026)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCalculate_RejectsNegativeInput(t *testing.T) {
	calc := calculator()

	_, err := calc.Calculate(context.Background(), employee("emp-1", -1, "India"), 0, feb2026)
	assert.ErrorIs(t, err, generic.ErrInvalidAmount)

	_, err = calc.Calculate(context.Background(), employee("emp-1", 1000, "India"), -2, feb2026)
	assert.ErrorIs(t, err, payroll.ErrInvalidLeaveDays)
	assert.True(t, generic.IsClientError(err))
}
