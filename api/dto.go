/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Requests accept numbers or decimal strings. Responses always carry
  strings with exactly two decimals ("7200.00") so clients never see
  binary floating point.

VALIDATION:
  Request shape (required fields, enums, date layout) is checked with
  validator struct tags in decode(). Business rules (negative amounts,
  unpayable entries) stay in the payroll package.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	NationalID       string `json:"national_id"`
	Nationality      string `json:"nationality"`
	BasicSalary      string `json:"basic_salary"`
	HousingAllowance string `json:"housing_allowance"`
	OtherAllowance   string `json:"other_allowance"`
	IBAN             string `json:"iban"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at,omitempty"`
}

type CreateEmployeeRequest struct {
	ID               string          `json:"id" validate:"omitempty,max=64"`
	Name             string          `json:"name" validate:"required,max=200"`
	NationalID       string          `json:"national_id" validate:"omitempty,numeric,len=10"`
	Nationality      string          `json:"nationality" validate:"required,max=100"`
	BasicSalary      decimal.Decimal `json:"basic_salary"`
	HousingAllowance decimal.Decimal `json:"housing_allowance"`
	OtherAllowance   decimal.Decimal `json:"other_allowance"`
	IBAN             string          `json:"iban" validate:"omitempty,startswith=SA,len=24"`
	Status           string          `json:"status" validate:"omitempty,oneof=active offboarding terminated"`
}

func (r CreateEmployeeRequest) toDomain(currency generic.Currency) payroll.Employee {
	return payroll.Employee{
		ID:               r.ID,
		Name:             r.Name,
		NationalID:       r.NationalID,
		Nationality:      r.Nationality,
		BasicSalary:      generic.Amount{Value: r.BasicSalary, Currency: currency},
		HousingAllowance: generic.Amount{Value: r.HousingAllowance, Currency: currency},
		OtherAllowance:   generic.Amount{Value: r.OtherAllowance, Currency: currency},
		IBAN:             r.IBAN,
		Status:           payroll.EmployeeStatus(r.Status),
	}
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:               e.ID,
		Name:             e.Name,
		NationalID:       e.NationalID,
		Nationality:      e.Nationality,
		BasicSalary:      e.BasicSalary.Fixed(),
		HousingAllowance: e.HousingAllowance.Fixed(),
		OtherAllowance:   e.OtherAllowance.Fixed(),
		IBAN:             e.IBAN,
		Status:           string(e.Status),
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// LEAVE
// =============================================================================

type LeaveDTO struct {
	ID              string `json:"id"`
	EmployeeID      string `json:"employee_id"`
	Type            string `json:"type"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Days            int    `json:"days"`
	Status          string `json:"status"`
	ExitReentryVisa bool   `json:"exit_reentry_visa"`
	Reason          string `json:"reason,omitempty"`
}

type CreateLeaveRequest struct {
	ID              string `json:"id" validate:"omitempty,max=64"`
	Type            string `json:"type" validate:"omitempty,oneof=annual sick unpaid emergency hajj maternity other"`
	StartDate       string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Status          string `json:"status" validate:"omitempty,max=20"`
	ExitReentryVisa bool   `json:"exit_reentry_visa"`
	Reason          string `json:"reason" validate:"max=500"`
}

func (r CreateLeaveRequest) toDomain(employeeID string) (leave.Record, error) {
	start, err := generic.ParseDate(r.StartDate)
	if err != nil {
		return leave.Record{}, err
	}
	end, err := generic.ParseDate(r.EndDate)
	if err != nil {
		return leave.Record{}, err
	}
	rec := leave.Record{
		ID:              r.ID,
		EmployeeID:      employeeID,
		Type:            leave.Type(r.Type),
		Start:           start,
		End:             end,
		ExitReentryVisa: r.ExitReentryVisa,
		Reason:          r.Reason,
	}
	if r.Status != "" {
		if rec.Status, err = leave.ParseStatus(r.Status); err != nil {
			return leave.Record{}, err
		}
	}
	return rec, nil
}

func toLeaveDTO(r leave.Record) LeaveDTO {
	return LeaveDTO{
		ID:              r.ID,
		EmployeeID:      r.EmployeeID,
		Type:            string(r.Type),
		StartDate:       r.Start.String(),
		EndDate:         r.End.String(),
		Days:            r.Period().Days(),
		Status:          string(r.Status),
		ExitReentryVisa: r.ExitReentryVisa,
		Reason:          r.Reason,
	}
}

// =============================================================================
// DEDUCTIONS
// =============================================================================

type DeductionDTO struct {
	ID                 string  `json:"id"`
	EmployeeID         string  `json:"employee_id"`
	Type               string  `json:"type"`
	Description        string  `json:"description"`
	TotalAmount        string  `json:"total_amount"`
	DeductedAmount     string  `json:"deducted_amount"`
	MonthlyInstallment *string `json:"monthly_installment,omitempty"`
	RemainingAmount    *string `json:"remaining_amount,omitempty"`
	StartMonth         string  `json:"start_month"`
	EndMonth           *string `json:"end_month,omitempty"`
	Recurring          bool    `json:"recurring"`
	Status             string  `json:"status"`
}

// CreateDeductionRequest leaves Type unconstrained so unknown types reach
// the ledger and fail there with a typed error.
type CreateDeductionRequest struct {
	ID                 string           `json:"id" validate:"omitempty,max=64"`
	Type               string           `json:"type" validate:"required,max=32"`
	Description        string           `json:"description" validate:"max=500"`
	TotalAmount        decimal.Decimal  `json:"total_amount"`
	MonthlyInstallment *decimal.Decimal `json:"monthly_installment"`
	StartMonth         string           `json:"start_month" validate:"required,datetime=2006-01"`
	EndMonth           string           `json:"end_month" validate:"omitempty,datetime=2006-01"`
	Recurring          bool             `json:"recurring"`
}

func (r CreateDeductionRequest) toDomain(employeeID string, currency generic.Currency) (payroll.DeductionEntry, error) {
	start, err := generic.ParseMonth(r.StartMonth)
	if err != nil {
		return payroll.DeductionEntry{}, err
	}
	entry := payroll.DeductionEntry{
		ID:          r.ID,
		EmployeeID:  employeeID,
		Type:        payroll.DeductionType(r.Type),
		Description: r.Description,
		TotalAmount: generic.Amount{Value: r.TotalAmount, Currency: currency},
		StartMonth:  start,
		Recurring:   r.Recurring,
	}
	if r.MonthlyInstallment != nil {
		inst := generic.Amount{Value: *r.MonthlyInstallment, Currency: currency}
		entry.MonthlyInstallment = &inst
	}
	if r.EndMonth != "" {
		end, err := generic.ParseMonth(r.EndMonth)
		if err != nil {
			return payroll.DeductionEntry{}, err
		}
		entry.EndMonth = &end
	}
	return entry, nil
}

func toDeductionDTO(e payroll.DeductionEntry) DeductionDTO {
	dto := DeductionDTO{
		ID:             e.ID,
		EmployeeID:     e.EmployeeID,
		Type:           string(e.Type),
		Description:    e.Description,
		TotalAmount:    e.TotalAmount.Fixed(),
		DeductedAmount: e.DeductedAmount.Fixed(),
		StartMonth:     e.StartMonth.String(),
		Recurring:      e.Recurring,
		Status:         string(e.Status),
	}
	if e.MonthlyInstallment != nil {
		dto.MonthlyInstallment = strPtr(e.MonthlyInstallment.Fixed())
	}
	if e.RemainingAmount != nil {
		dto.RemainingAmount = strPtr(e.RemainingAmount.Fixed())
	}
	if e.EndMonth != nil {
		dto.EndMonth = strPtr(e.EndMonth.String())
	}
	return dto
}

// =============================================================================
// BREAKDOWN AND CAP
// =============================================================================

type LineItemDTO struct {
	Kind        string `json:"kind"`
	EntryID     string `json:"entry_id,omitempty"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type CapDTO struct {
	Valid   bool   `json:"valid"`
	Cap     string `json:"cap"`
	Overage string `json:"overage"`
	Message string `json:"message,omitempty"`
}

type BreakdownDTO struct {
	EmployeeID     string        `json:"employee_id"`
	Month          string        `json:"month"`
	BasicSalary    string        `json:"basic_salary"`
	GrossSalary    string        `json:"gross_salary"`
	GOSI           string        `json:"gosi"`
	LeaveDays      int           `json:"leave_days"`
	LeaveDeduction string        `json:"leave_deduction"`
	Loans          string        `json:"loans"`
	Advances       string        `json:"advances"`
	Penalties      string        `json:"penalties"`
	Insurance      string        `json:"insurance"`
	Custom         string        `json:"custom"`
	Total          string        `json:"total_deductions"`
	NetSalary      string        `json:"net_salary"`
	Items          []LineItemDTO `json:"items"`
	Cap            CapDTO        `json:"cap"`
}

type ValidateCapRequest struct {
	BasicSalary     decimal.Decimal `json:"basic_salary"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
}

func toLineItemDTOs(items []payroll.LineItem) []LineItemDTO {
	dtos := make([]LineItemDTO, len(items))
	for i, it := range items {
		dtos[i] = LineItemDTO{
			Kind:        string(it.Kind),
			EntryID:     it.EntryID,
			Description: it.Description,
			Amount:      it.Amount.Round2().Fixed(),
		}
	}
	return dtos
}

func toCapDTO(c payroll.CapResult) CapDTO {
	return CapDTO{Valid: c.Valid, Cap: c.Cap.Fixed(), Overage: c.Overage.Fixed(), Message: c.Message}
}

func toBreakdownDTO(b payroll.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		EmployeeID:     b.EmployeeID,
		Month:          b.Month.String(),
		BasicSalary:    b.BasicSalary.Fixed(),
		GrossSalary:    b.GrossSalary.Fixed(),
		GOSI:           b.GOSI.Fixed(),
		LeaveDays:      b.LeaveDays,
		LeaveDeduction: b.LeaveDeduction.Fixed(),
		Loans:          b.Loans.Fixed(),
		Advances:       b.Advances.Fixed(),
		Penalties:      b.Penalties.Fixed(),
		Insurance:      b.Insurance.Fixed(),
		Custom:         b.Custom.Fixed(),
		Total:          b.Total.Fixed(),
		NetSalary:      b.NetSalary.Fixed(),
		Items:          toLineItemDTOs(b.Items),
		Cap:            toCapDTO(b.Cap),
	}
}

// =============================================================================
// PAYROLL RECORDS AND RUNS
// =============================================================================

type RecordDTO struct {
	ID               string        `json:"id,omitempty"`
	EmployeeID       string        `json:"employee_id"`
	EmployeeName     string        `json:"employee_name"`
	Month            string        `json:"month"`
	SalaryBasic      string        `json:"salary_basic"`
	HousingAllowance string        `json:"housing_allowance"`
	OtherAllowance   string        `json:"other_allowance"`
	TotalSalary      string        `json:"total_salary"`
	Deductions       string        `json:"deductions"`
	WorkingDays      int           `json:"working_days"`
	LeaveDays        int           `json:"leave_days"`
	FinalSalary      string        `json:"final_salary"`
	Status           string        `json:"status"`
	Items            []LineItemDTO `json:"items"`
	Cap              *CapDTO       `json:"cap,omitempty"`
}

func toRecordDTO(r payroll.Record) RecordDTO {
	dto := RecordDTO{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		EmployeeName:     r.EmployeeName,
		Month:            r.Month.String(),
		SalaryBasic:      r.SalaryBasic.Fixed(),
		HousingAllowance: r.HousingAllowance.Fixed(),
		OtherAllowance:   r.OtherAllowance.Fixed(),
		TotalSalary:      r.TotalSalary().Round2().Fixed(),
		Deductions:       r.Deductions.Fixed(),
		WorkingDays:      r.WorkingDays,
		LeaveDays:        r.LeaveDays,
		FinalSalary:      r.FinalSalary.Fixed(),
		Status:           string(r.Status),
		Items:            toLineItemDTOs(r.Items),
	}
	if r.Cap.Cap.Currency != "" {
		c := toCapDTO(r.Cap)
		dto.Cap = &c
	}
	return dto
}

func toRecordDTOs(records []payroll.Record) []RecordDTO {
	dtos := make([]RecordDTO, len(records))
	for i, r := range records {
		dtos[i] = toRecordDTO(r)
	}
	return dtos
}

// PayrollResponse wraps a month's records with its totals.
type PayrollResponse struct {
	Month    string      `json:"month"`
	Records  []RecordDTO `json:"records"`
	TotalNet string      `json:"total_net"`
}

type SaveResponse struct {
	Run     RunDTO      `json:"run"`
	Records []RecordDTO `json:"records"`
	Locked  []string    `json:"locked"`
}

type MarkPaidRequest struct {
	EmployeeIDs []string `json:"employee_ids" validate:"dive,required"`
}

type RunDTO struct {
	ID            string `json:"id"`
	Month         string `json:"month"`
	Status        string `json:"status"`
	EmployeeCount int    `json:"employee_count"`
	TotalNet      string `json:"total_net"`
	Error         string `json:"error,omitempty"`
	StartedAt     string `json:"started_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

func toRunDTO(r payroll.Run) RunDTO {
	dto := RunDTO{
		ID:            r.ID,
		Month:         r.Month.String(),
		Status:        string(r.Status),
		EmployeeCount: r.EmployeeCount,
		TotalNet:      r.TotalNet.Fixed(),
		Error:         r.Error,
		StartedAt:     r.StartedAt.Format(time.RFC3339),
	}
	if r.CompletedAt != nil {
		dto.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	return dto
}

// ExportResponse is returned instead of the file when archiving.
type ExportResponse struct {
	FileName string `json:"file_name"`
	Location string `json:"location"`
	Rows     int    `json:"rows"`
	TotalNet string `json:"total_net"`
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func strPtr(s string) *string {
	return &s
}
