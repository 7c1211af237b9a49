package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// GOSI RULE
// =============================================================================

func TestGOSI_SaudiNational(t *testing.T) {
	// GIVEN: 10,000 SAR basic, nationality "Saudi Arabia"
	rules := payroll.DefaultRules()

	// WHEN: Computing the contribution
	gosi := rules.GOSI(generic.SAR(10000), "Saudi Arabia")

	// THEN: 10% of basic
	assert.Equal(t, "1000.00", gosi.Fixed())
}

func TestGOSI_Expatriate(t *testing.T) {
	rules := payroll.DefaultRules()

	gosi := rules.GOSI(generic.SAR(10000), "India")

	assert.True(t, gosi.IsZero())
	assert.Equal(t, generic.CurrencySAR, gosi.Currency)
}

func TestIsSaudi_Spellings(t *testing.T) {
	rules := payroll.DefaultRules()

	cases := map[string]bool{
		"Saudi":         true,
		"SAUDI ARABIA":  true,
		"saudi arabian": true,
		"KSA":           true,
		" ksa ":         true,
		"سعودي":         true,
		"سعودية":        true,
		"India":         false,
		"KSAx":          false,
		"":              false,
		"Egyptian":      false,
	}
	for nationality, want := range cases {
		assert.Equal(t, want, rules.IsSaudi(nationality), "nationality %q", nationality)
	}
}

func TestGOSI_NonPositiveSalaryPassesThrough(t *testing.T) {
	// GIVEN: A negative salary for a Saudi national
	rules := payroll.DefaultRules()

	// WHEN/THEN: The contribution is negative, not clamped
	assert.Equal(t, "-100.00", rules.GOSI(generic.SAR(-1000), "saudi").Fixed())
}

// =============================================================================
// 30-DAY PRORATION
// =============================================================================

func TestLeaveDeduction_ThirtyDayDivisor(t *testing.T) {
	// GIVEN: 3,000 SAR basic and 5 leave days
	// WHEN: Computing the leave deduction
	deduction := payroll.LeaveDeduction(generic.SAR(3000), 5)

	// THEN: (3000 / 30) x 5
	assert.Equal(t, "500.00", deduction.Round2().Fixed())
}

func TestWorkingDays(t *testing.T) {
	assert.Equal(t, 30, payroll.WorkingDays(0))
	assert.Equal(t, 24, payroll.WorkingDays(6))
	assert.Equal(t, 0, payroll.WorkingDays(30))
	assert.Equal(t, 0, payroll.WorkingDays(31), "a 31-day month fully on leave")
}

func TestProratedSalary(t *testing.T) {
	// GIVEN: 9,000 SAR basic and 6 leave days
	working := payroll.WorkingDays(6)

	// WHEN: Prorating
	final := payroll.ProratedSalary(generic.SAR(9000), working)

	// THEN: (9000 / 30) x 24
	assert.Equal(t, 24, working)
	assert.Equal(t, "7200.00", final.Fixed())
}

func TestProratedSalary_RoundsHalfUp(t *testing.T) {
	// 1000.15 / 30 x 1 = 33.338333... -> 33.34
	assert.Equal(t, "33.34", payroll.ProratedSalary(generic.SAR(1000.15), 1).Fixed())
	// 0.15 / 30 x 1 = 0.005 -> 0.01
	assert.Equal(t, "0.01", payroll.ProratedSalary(generic.SAR(0.15), 1).Fixed())
}

// =============================================================================
// STATUTORY CAP
// =============================================================================

func TestValidateCap_Exceeded(t *testing.T) {
	// GIVEN: 5,000 basic and 3,000 of deductions
	// WHEN: Validating against the 50% cap
	result := payroll.ValidateCap(generic.SAR(5000), generic.SAR(3000))

	// THEN: Invalid, cap 2,500.00, overage 500.00
	assert.False(t, result.Valid)
	assert.Equal(t, "2500.00", result.Cap.Fixed())
	assert.Equal(t, "500.00", result.Overage.Fixed())
	assert.Contains(t, result.Message, "2500.00")
	assert.Contains(t, result.Message, "500.00")
	assert.Equal(t, "total deductions 3000.00 exceed the 50% cap of 2500.00 by 500.00", result.Message)
}

func TestValidateCap_AtLimitIsValid(t *testing.T) {
	result := payroll.ValidateCap(generic.SAR(5000), generic.SAR(2500))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Message)
	assert.True(t, result.Overage.IsZero())
}
