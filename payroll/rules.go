package payroll

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/warp/payroll-engine/generic"
)

// DaysPerMonth is the fixed WPS/Mudad divisor. Every proration in the engine
// divides by it, whatever the calendar length of the month.
const DaysPerMonth = 30

var daysPerMonth = decimal.NewFromInt(DaysPerMonth)

// =============================================================================
// RULES - Rates that vary by deployment
// =============================================================================

// Rules holds the tunable rates. The 30-day divisor is deliberately absent.
type Rules struct {
	Currency          generic.Currency
	GOSIRate          decimal.Decimal // employee-borne share for Saudi nationals
	DeductionCapRatio decimal.Decimal // share of basic salary deductions may not exceed

	// SaudiKeywords match anywhere in the case-folded nationality;
	// SaudiCodes must match it exactly.
	SaudiKeywords []string
	SaudiCodes    []string
}

func DefaultRules() Rules {
	return Rules{
		Currency:          generic.CurrencySAR,
		GOSIRate:          decimal.RequireFromString("0.10"),
		DeductionCapRatio: decimal.RequireFromString("0.50"),
		SaudiKeywords:     []string{"saudi", "سعودي"},
		SaudiCodes:        []string{"ksa"},
	}
}

// =============================================================================
// GOSI RULE
// =============================================================================

// fold builds a Caser per call: Casers carry state and must not be shared
// between goroutines.
func fold(s string) string { return cases.Fold().String(s) }

// IsSaudi classifies a free-text nationality. Matching is case-insensitive
// and accepts English and Arabic spellings ("Saudi Arabia", "KSA", "سعودي").
func (r Rules) IsSaudi(nationality string) bool {
	n := strings.TrimSpace(fold(nationality))
	if n == "" {
		return false
	}
	for _, code := range r.SaudiCodes {
		if n == fold(code) {
			return true
		}
	}
	for _, kw := range r.SaudiKeywords {
		if strings.Contains(n, fold(kw)) {
			return true
		}
	}
	return false
}

// GOSI returns the employee contribution: basic x rate for Saudi nationals,
// zero otherwise. Non-positive salaries pass through unclamped.
func (r Rules) GOSI(basic generic.Amount, nationality string) generic.Amount {
	if !r.IsSaudi(nationality) {
		return basic.Zero()
	}
	return basic.Mul(r.GOSIRate)
}

// =============================================================================
// PRORATION (30-day month)
// =============================================================================

// DailyRate is basic / 30.
func DailyRate(basic generic.Amount) generic.Amount {
	return basic.Div(daysPerMonth)
}

// LeaveDeduction is the salary equivalent of leaveDays at the daily rate.
func LeaveDeduction(basic generic.Amount, leaveDays int) generic.Amount {
	return DailyRate(basic).Mul(decimal.NewFromInt(int64(leaveDays)))
}

// WorkingDays is max(0, 30 - leaveDays).
func WorkingDays(leaveDays int) int {
	if leaveDays >= DaysPerMonth {
		return 0
	}
	if leaveDays < 0 {
		return DaysPerMonth
	}
	return DaysPerMonth - leaveDays
}

// ProratedSalary is round2(basic / 30 x workingDays).
func ProratedSalary(basic generic.Amount, workingDays int) generic.Amount {
	return DailyRate(basic).Mul(decimal.NewFromInt(int64(workingDays))).Round2()
}
