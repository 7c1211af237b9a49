package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/generic"
)

// CapResult reports whether deductions respect the statutory cap. It is a
// value, not an error: callers decide whether to block, warn or override.
type CapResult struct {
	Valid   bool
	Cap     generic.Amount
	Overage generic.Amount // zero when Valid
	Message string         // empty when Valid
}

// ValidateCap checks totalDeductions against DeductionCapRatio x basic.
// Nothing is clamped; an overage is only reported.
func (r Rules) ValidateCap(basic, totalDeductions generic.Amount) CapResult {
	limit := basic.Mul(r.DeductionCapRatio).Round2()
	deductions := totalDeductions.Round2()
	if !deductions.GreaterThan(limit) {
		return CapResult{Valid: true, Cap: limit, Overage: limit.Zero()}
	}
	overage := deductions.Sub(limit)
	return CapResult{
		Valid:   false,
		Cap:     limit,
		Overage: overage,
		Message: fmt.Sprintf("total deductions %s exceed the %s%% cap of %s by %s",
			deductions.Fixed(), r.DeductionCapRatio.Mul(decimal.NewFromInt(100)).String(),
			limit.Fixed(), overage.Fixed()),
	}
}

// ValidateCap applies the default 50% rule.
func ValidateCap(basic, totalDeductions generic.Amount) CapResult {
	return DefaultRules().ValidateCap(basic, totalDeductions)
}
