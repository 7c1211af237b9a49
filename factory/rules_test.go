package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

func TestParseRules_EmptyKeepsDefaults(t *testing.T) {
	rules, err := factory.NewRulesFactory().ParseRules(`{}`)

	require.NoError(t, err)
	defaults := payroll.DefaultRules()
	assert.True(t, defaults.GOSIRate.Equal(rules.GOSIRate))
	assert.True(t, defaults.DeductionCapRatio.Equal(rules.DeductionCapRatio))
	assert.Equal(t, defaults.SaudiKeywords, rules.SaudiKeywords)
	assert.Equal(t, generic.CurrencySAR, rules.Currency)
}

func TestParseRules_Overrides(t *testing.T) {
	// GIVEN: A deployment with a 9.75% GOSI share and a 1/3 cap
	rules, err := factory.NewRulesFactory().ParseRules(`{
		"gosi_rate": 0.0975,
		"deduction_cap_ratio": "0.3333",
		"saudi_keywords": ["saudi", " ", "سعودي"],
		"saudi_codes": ["ksa", "sa"]
	}`)

	// THEN: Rates apply to GOSI and cap checks
	require.NoError(t, err)
	assert.Equal(t, "975.00", rules.GOSI(generic.SAR(10000), "SA").Fixed())
	assert.Equal(t, []string{"saudi", "سعودي"}, rules.SaudiKeywords)

	result := rules.ValidateCap(generic.SAR(3000), generic.SAR(1200))
	assert.False(t, result.Valid)
	assert.Equal(t, "999.90", result.Cap.Fixed())
}

func TestParseRules_RejectsOutOfRange(t *testing.T) {
	f := factory.NewRulesFactory()

	_, err := f.ParseRules(`{"gosi_rate": 1.5}`)
	assert.ErrorIs(t, err, factory.ErrRatioOutOfRange)
	assert.True(t, generic.IsClientError(err))

	_, err = f.ParseRules(`{"deduction_cap_ratio": -0.1}`)
	assert.ErrorIs(t, err, factory.ErrRatioOutOfRange)
}

func TestParseRules_RejectsUnknownFieldsAndBadJSON(t *testing.T) {
	f := factory.NewRulesFactory()

	_, err := f.ParseRules(`{"days_per_month": 31}`)
	assert.Error(t, err, "the 30-day divisor is not configurable")

	_, err = f.ParseRules(`{`)
	assert.Error(t, err)
}

func TestParseRules_RequiresNationalityMatcher(t *testing.T) {
	_, err := factory.NewRulesFactory().ParseRules(`{"saudi_keywords": [], "saudi_codes": []}`)

	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"currency": "sar"}`), 0o600))

	rules, err := factory.NewRulesFactory().LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, generic.CurrencySAR, rules.Currency)

	_, err = factory.NewRulesFactory().LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestToJSON_RoundTrip(t *testing.T) {
	rj := factory.ToJSON(payroll.DefaultRules())

	rules, err := factory.NewRulesFactory().FromJSON(rj)

	require.NoError(t, err)
	assert.True(t, rules.GOSIRate.Equal(payroll.DefaultRules().GOSIRate))
}
