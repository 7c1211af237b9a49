/*
Package factory provides JSON to Go payroll rules conversion.

PURPOSE:
  Converts a JSON rules document into payroll.Rules so GOSI rate, deduction
  cap and nationality matching can be tuned per deployment without code
  changes. Omitted fields keep the statutory defaults.

JSON SCHEMA:
  {
    "currency": "SAR",
    "gosi_rate": 0.10,
    "deduction_cap_ratio": 0.50,
    "saudi_keywords": ["saudi", "سعودي"],
    "saudi_codes": ["ksa"]
  }

NOT CONFIGURABLE:
  The 30-day proration divisor (payroll.DaysPerMonth). Leave deduction and
  working-day proration must always agree.

USAGE:
  rules, err := factory.NewRulesFactory().ParseRules(jsonString)
  svc := payroll.NewService(store, rules, logger)

SEE ALSO:
  - payroll/rules.go: Rules type and defaults
  - config/config.go: RULES_FILE
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RulesJSON is the JSON representation of payroll rules.
type RulesJSON struct {
	Currency          string           `json:"currency,omitempty"`
	GOSIRate          *decimal.Decimal `json:"gosi_rate,omitempty"`
	DeductionCapRatio *decimal.Decimal `json:"deduction_cap_ratio,omitempty"`
	SaudiKeywords     []string         `json:"saudi_keywords,omitempty"`
	SaudiCodes        []string         `json:"saudi_codes,omitempty"`
}

// =============================================================================
// RULES FACTORY
// =============================================================================

// RulesFactory converts JSON rules to payroll.Rules.
type RulesFactory struct {
	defaults payroll.Rules
}

func NewRulesFactory() *RulesFactory {
	return &RulesFactory{defaults: payroll.DefaultRules()}
}

// ParseRules parses a JSON string over the defaults.
func (f *RulesFactory) ParseRules(jsonStr string) (payroll.Rules, error) {
	var rj RulesJSON
	dec := json.NewDecoder(strings.NewReader(jsonStr))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rj); err != nil {
		return payroll.Rules{}, fmt.Errorf("failed to parse rules JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// LoadFile reads and parses a rules file.
func (f *RulesFactory) LoadFile(path string) (payroll.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return payroll.Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	return f.ParseRules(string(data))
}

// FromJSON overlays rj on the defaults and validates the result.
func (f *RulesFactory) FromJSON(rj RulesJSON) (payroll.Rules, error) {
	rules := f.defaults

	if c := strings.TrimSpace(rj.Currency); c != "" {
		rules.Currency = generic.Currency(strings.ToUpper(c))
	}
	if rj.GOSIRate != nil {
		if err := checkRatio("gosi_rate", *rj.GOSIRate); err != nil {
			return payroll.Rules{}, err
		}
		rules.GOSIRate = *rj.GOSIRate
	}
	if rj.DeductionCapRatio != nil {
		if err := checkRatio("deduction_cap_ratio", *rj.DeductionCapRatio); err != nil {
			return payroll.Rules{}, err
		}
		rules.DeductionCapRatio = *rj.DeductionCapRatio
	}
	if rj.SaudiKeywords != nil {
		rules.SaudiKeywords = compact(rj.SaudiKeywords)
	}
	if rj.SaudiCodes != nil {
		rules.SaudiCodes = compact(rj.SaudiCodes)
	}
	if len(rules.SaudiKeywords) == 0 && len(rules.SaudiCodes) == 0 {
		return payroll.Rules{}, fmt.Errorf("rules: at least one saudi keyword or code is required")
	}
	return rules, nil
}

// ToJSON renders rules in the factory schema.
func ToJSON(rules payroll.Rules) RulesJSON {
	gosi, capRatio := rules.GOSIRate, rules.DeductionCapRatio
	return RulesJSON{
		Currency:          string(rules.Currency),
		GOSIRate:          &gosi,
		DeductionCapRatio: &capRatio,
		SaudiKeywords:     rules.SaudiKeywords,
		SaudiCodes:        rules.SaudiCodes,
	}
}

func checkRatio(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
		return &generic.InvalidInputError{Field: field, Value: v.String(), Err: ErrRatioOutOfRange}
	}
	return nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
