/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the store with realistic
  payroll data. Each scenario registers employees, leave and deduction
  entries dated in the current month so generation shows the effect
  immediately.

AVAILABLE SCENARIOS:
  saudi-employee:     Saudi national with allowances, GOSI only
  unpaid-leave:       Expatriate with approved, pending and rejected leave
  loans-and-advances: Installment loan, lump advance, recurring insurance
  cap-exceeded:       Deductions above the 50% cap (reported, not blocked)
  full-team:          All of the above together

HOW SCENARIOS WORK:
 1. Reset store (clear all data)
 2. Register employees through the payroll service
 3. Register leave records and deduction entries

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "full-team"}

NOTE:
  Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Router-facing handlers
  - payroll/service.go: Registration rules
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

// ErrUnknownScenario is returned for an unregistered scenario ID.
var ErrUnknownScenario = errors.New("unknown scenario")

func init() {
	generic.RegisterClientError(ErrUnknownScenario)
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenarioLoader func(ctx context.Context, h *Handler, month generic.Month) error

var scenarios = []ScenarioDTO{
	{
		ID:          "saudi-employee",
		Name:        "Saudi Employee",
		Description: "Saudi national with housing and other allowances; 10% GOSI on basic",
	},
	{
		ID:          "unpaid-leave",
		Name:        "Leave Proration",
		Description: "Expatriate on 9,000 with 6 approved leave days; pending and rejected leave ignored",
	},
	{
		ID:          "loans-and-advances",
		Name:        "Loans and Advances",
		Description: "Installment loan, lump-sum advance and recurring insurance",
	},
	{
		ID:          "cap-exceeded",
		Name:        "Cap Exceeded",
		Description: "Deductions above 50% of basic salary; payroll still generated with a warning",
	},
	{
		ID:          "full-team",
		Name:        "Full Team",
		Description: "All scenarios combined",
	},
}

var scenarioLoaders = map[string]scenarioLoader{
	"saudi-employee":     loadSaudiEmployeeScenario,
	"unpaid-leave":       loadUnpaidLeaveScenario,
	"loans-and-advances": loadLoansScenario,
	"cap-exceeded":       loadCapExceededScenario,
	"full-team":          loadFullTeamScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}
	month, err := h.LoadScenarioByID(r.Context(), req.ScenarioID)
	if err != nil {
		h.fail(w, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"month":    month.String(),
	})
}

// LoadScenarioByID resets the store and seeds scenario id for the current
// month, which it returns.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) (generic.Month, error) {
	load, ok := scenarioLoaders[id]
	if !ok {
		return generic.Month{}, fmt.Errorf("%q: %w", id, ErrUnknownScenario)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return generic.Month{}, fmt.Errorf("reset store: %w", err)
	}
	h.currentScenario = ""

	month := generic.MonthOf(generic.FromTime(h.now()))
	if err := load(ctx, h, month); err != nil {
		return generic.Month{}, fmt.Errorf("scenario %s: %w", id, err)
	}
	h.currentScenario = id
	h.logger.Info("scenario loaded", zap.String("scenario", id), zap.String("month", month.String()))
	return month, nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadSaudiEmployeeScenario(ctx context.Context, h *Handler, _ generic.Month) error {
	return h.seedEmployee(ctx, payroll.Employee{
		ID:               "emp-saudi",
		Name:             "Ahmed Al-Harbi",
		NationalID:       "1012345678",
		Nationality:      "Saudi",
		BasicSalary:      amount(10000, h.currency()),
		HousingAllowance: amount(2500, h.currency()),
		OtherAllowance:   amount(500, h.currency()),
		IBAN:             "SA0380000000608010167519",
	})
}

func loadUnpaidLeaveScenario(ctx context.Context, h *Handler, month generic.Month) error {
	if err := h.seedEmployee(ctx, payroll.Employee{
		ID:          "emp-leave",
		Name:        "Ravi Kumar",
		NationalID:  "2456789012",
		Nationality: "India",
		BasicSalary: amount(9000, h.currency()),
		IBAN:        "SA4420000001234567891234",
	}); err != nil {
		return err
	}

	day := func(d int) generic.TimePoint { return month.Start().AddDays(d - 1) }
	for _, rec := range []leave.Record{
		{ID: "leave-approved", Type: leave.TypeUnpaid, Start: day(10), End: day(15), Status: leave.StatusApproved},
		{ID: "leave-pending", Type: leave.TypeAnnual, Start: day(20), End: day(21), Status: leave.StatusPending},
		{ID: "leave-rejected", Type: leave.TypeAnnual, Start: day(3), End: day(4), Status: leave.StatusRejected},
	} {
		rec.EmployeeID = "emp-leave"
		if _, err := h.Service.RegisterLeave(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func loadLoansScenario(ctx context.Context, h *Handler, month generic.Month) error {
	if err := h.seedEmployee(ctx, payroll.Employee{
		ID:               "emp-loans",
		Name:             "Maria Santos",
		NationalID:       "2398765432",
		Nationality:      "Philippines",
		BasicSalary:      amount(8000, h.currency()),
		HousingAllowance: amount(2000, h.currency()),
		IBAN:             "SA1505000068201234567000",
	}); err != nil {
		return err
	}

	installment := amount(1000, h.currency())
	remaining := amount(1500, h.currency())
	premium := amount(150, h.currency())
	for _, entry := range []payroll.DeductionEntry{
		{
			ID: "ded-loan", Type: payroll.DeductionLoan, Description: "Car loan",
			TotalAmount: amount(6000, h.currency()), MonthlyInstallment: &installment,
			StartMonth: month.Prev(),
		},
		{
			ID: "ded-advance", Type: payroll.DeductionAdvance, Description: "Salary advance",
			TotalAmount: remaining, RemainingAmount: &remaining,
			StartMonth: month,
		},
		{
			ID: "ded-insurance", Type: payroll.DeductionInsurance, Description: "Family medical cover",
			TotalAmount: amount(0, h.currency()), MonthlyInstallment: &premium,
			StartMonth: month, Recurring: true,
		},
	} {
		entry.EmployeeID = "emp-loans"
		if _, err := h.Service.RegisterDeduction(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func loadCapExceededScenario(ctx context.Context, h *Handler, month generic.Month) error {
	if err := h.seedEmployee(ctx, payroll.Employee{
		ID:          "emp-cap",
		Name:        "Khalid Al-Qahtani",
		NationalID:  "1098765432",
		Nationality: "KSA",
		BasicSalary: amount(5000, h.currency()),
		IBAN:        "SA6610000001400012345678",
	}); err != nil {
		return err
	}

	penalty := amount(2000, h.currency())
	loan := amount(1000, h.currency())
	for _, entry := range []payroll.DeductionEntry{
		{
			ID: "ded-penalty", Type: payroll.DeductionPenalty, Description: "Damage to company vehicle",
			TotalAmount: penalty, MonthlyInstallment: &penalty, StartMonth: month,
		},
		{
			ID: "ded-cap-loan", Type: payroll.DeductionLoan, Description: "Personal loan",
			TotalAmount: amount(4000, h.currency()), MonthlyInstallment: &loan, StartMonth: month,
		},
	} {
		entry.EmployeeID = "emp-cap"
		if _, err := h.Service.RegisterDeduction(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func loadFullTeamScenario(ctx context.Context, h *Handler, month generic.Month) error {
	for _, load := range []scenarioLoader{
		loadSaudiEmployeeScenario,
		loadUnpaidLeaveScenario,
		loadLoansScenario,
		loadCapExceededScenario,
	} {
		if err := load(ctx, h, month); err != nil {
			return err
		}
	}

	// An offboarded employee is registered but never paid.
	return h.seedEmployee(ctx, payroll.Employee{
		ID:          "emp-terminated",
		Name:        "Former Employee",
		Nationality: "Egypt",
		BasicSalary: amount(7000, h.currency()),
		Status:      payroll.EmployeeTerminated,
	})
}

func (h *Handler) seedEmployee(ctx context.Context, emp payroll.Employee) error {
	_, err := h.Service.RegisterEmployee(ctx, emp)
	return err
}
