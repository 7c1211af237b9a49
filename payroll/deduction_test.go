package payroll_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var (
	feb2026 = generic.NewMonth(2026, time.February)
	mar2026 = generic.NewMonth(2026, time.March)
	jan2026 = generic.NewMonth(2026, time.January)
)

func sar(v float64) *generic.Amount {
	a := generic.SAR(v)
	return &a
}

func loan(id string, total, installment float64) payroll.DeductionEntry {
	return payroll.DeductionEntry{
		ID:                 id,
		EmployeeID:         "emp-1",
		Type:               payroll.DeductionLoan,
		Description:        "Car loan",
		TotalAmount:        generic.SAR(total),
		MonthlyInstallment: sar(installment),
		StartMonth:         feb2026,
	}.Normalize()
}

// =============================================================================
// TYPE
// =============================================================================

func TestParseDeductionType(t *testing.T) {
	typ, err := payroll.ParseDeductionType(" Loan ")
	require.NoError(t, err)
	assert.Equal(t, payroll.DeductionLoan, typ)

	_, err = payroll.ParseDeductionType("bonus")
	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrUnknownDeductionType)
	assert.True(t, generic.IsClientError(err))

	var typed *payroll.UnknownDeductionTypeError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "bonus", typed.Type)
}

// =============================================================================
// VALIDITY WINDOW
// =============================================================================

func TestDeductionEntry_ActiveIn(t *testing.T) {
	end := mar2026
	entry := loan("d-1", 3000, 1000)
	entry.EndMonth = &end

	assert.False(t, entry.ActiveIn(jan2026), "before start month")
	assert.True(t, entry.ActiveIn(feb2026), "start month is inclusive")
	assert.True(t, entry.ActiveIn(mar2026), "end month is inclusive")
	assert.False(t, entry.ActiveIn(mar2026.Next()), "after end month")

	entry.EndMonth = nil
	assert.True(t, entry.ActiveIn(generic.NewMonth(2030, time.January)), "open-ended")

	entry.Status = payroll.DeductionCompleted
	assert.False(t, entry.ActiveIn(feb2026), "completed entries never apply")
}

// =============================================================================
// NORMALIZE / VALIDATE
// =============================================================================

func TestNormalize_DerivesRemaining(t *testing.T) {
	entry := payroll.DeductionEntry{
		ID:             "d-1",
		EmployeeID:     "emp-1",
		Type:           payroll.DeductionAdvance,
		TotalAmount:    generic.SAR(2000),
		DeductedAmount: generic.SAR(500),
		StartMonth:     feb2026,
	}.Normalize()

	require.NotNil(t, entry.RemainingAmount)
	assert.Equal(t, "1500.00", entry.RemainingAmount.Fixed())
	assert.Equal(t, payroll.DeductionActive, entry.Status)
	require.NoError(t, entry.Validate())
}

func TestValidate_RejectsUnpayable(t *testing.T) {
	// GIVEN: A recurring entry with neither installment nor remaining amount
	entry := payroll.DeductionEntry{
		ID:          "d-1",
		EmployeeID:  "emp-1",
		Type:        payroll.DeductionInsurance,
		TotalAmount: generic.SAR(0),
		StartMonth:  feb2026,
		Recurring:   true,
	}.Normalize()

	// WHEN: Validating
	err := entry.Validate()

	// THEN: Rejected as unpayable rather than silently skipped
	require.Error(t, err)
	assert.ErrorIs(t, err, payroll.ErrUnpayableDeduction)
	assert.True(t, generic.IsClientError(err))
}

func TestValidate_RejectsUnknownType(t *testing.T) {
	entry := loan("d-1", 1000, 100)
	entry.Type = "bonus"

	err := entry.Validate()

	assert.ErrorIs(t, err, payroll.ErrUnknownDeductionType)
}

func TestValidate_RejectsDeductedAboveTotal(t *testing.T) {
	entry := loan("d-1", 1000, 100)
	entry.DeductedAmount = generic.SAR(1200)

	assert.ErrorIs(t, entry.Validate(), payroll.ErrInvalidDeduction)
}

func TestValidate_RejectsEndBeforeStart(t *testing.T) {
	entry := loan("d-1", 1000, 100)
	entry.EndMonth = &jan2026

	assert.ErrorIs(t, entry.Validate(), payroll.ErrInvalidDeduction)
}

// =============================================================================
// APPLIED AMOUNT
// =============================================================================

func TestAppliedAmount_PrefersInstallment(t *testing.T) {
	amount, err := loan("d-1", 3000, 1000).AppliedAmount()

	require.NoError(t, err)
	assert.Equal(t, "1000.00", amount.Fixed())
}

func TestAppliedAmount_FallsBackToRemaining(t *testing.T) {
	entry := loan("d-1", 3000, 1000)
	entry.MonthlyInstallment = nil

	amount, err := entry.AppliedAmount()

	require.NoError(t, err)
	assert.Equal(t, "3000.00", amount.Fixed())
}

func TestAppliedAmount_InstallmentCappedAtRemaining(t *testing.T) {
	// GIVEN: 2,500 loan, 1,000 installment, 2,000 already deducted
	entry := loan("d-1", 2500, 1000)
	entry.DeductedAmount = generic.SAR(2000)
	entry.RemainingAmount = nil
	entry = entry.Normalize()

	// WHEN: Computing the last installment
	amount, err := entry.AppliedAmount()

	// THEN: Only the outstanding 500 is taken
	require.NoError(t, err)
	assert.Equal(t, "500.00", amount.Fixed())
}

func TestAppliedAmount_Unpayable(t *testing.T) {
	entry := payroll.DeductionEntry{ID: "d-9", Type: payroll.DeductionCustom}

	_, err := entry.AppliedAmount()

	var typed *payroll.UnpayableDeductionError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "d-9", typed.EntryID)
}

// =============================================================================
// APPLY
// =============================================================================

func TestApply_CompletesWhenPaidOff(t *testing.T) {
	// GIVEN: A 2,000 loan at 1,000 per month
	entry := loan("d-1", 2000, 1000)

	// WHEN: Applying two installments
	entry = entry.Apply(generic.SAR(1000), feb2026)
	assert.Equal(t, payroll.DeductionActive, entry.Status)
	assert.Equal(t, "1000.00", entry.RemainingAmount.Fixed())

	entry = entry.Apply(generic.SAR(1000), mar2026)

	// THEN: Completed and closed at the last month
	assert.Equal(t, "2000.00", entry.DeductedAmount.Fixed())
	assert.True(t, entry.RemainingAmount.IsZero())
	assert.Equal(t, payroll.DeductionCompleted, entry.Status)
	require.NotNil(t, entry.EndMonth)
	assert.Equal(t, mar2026, *entry.EndMonth)
}

func TestApply_RecurringNeverCompletes(t *testing.T) {
	entry := payroll.DeductionEntry{
		ID:                 "d-1",
		EmployeeID:         "emp-1",
		Type:               payroll.DeductionInsurance,
		MonthlyInstallment: sar(150),
		StartMonth:         feb2026,
		Recurring:          true,
	}.Normalize()

	entry = entry.Apply(generic.SAR(150), feb2026)
	entry = entry.Apply(generic.SAR(150), mar2026)

	assert.Equal(t, payroll.DeductionActive, entry.Status)
	assert.Equal(t, "300.00", entry.DeductedAmount.Fixed())
	assert.Nil(t, entry.EndMonth)
}
