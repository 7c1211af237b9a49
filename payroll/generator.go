package payroll

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
)

// Generator produces draft payroll records for a month. It never persists;
// see Service.Save for that.
type Generator struct {
	Employees  EmployeeSource
	Leaves     LeaveSource
	Calculator *Calculator
	Logger     *zap.Logger
}

func NewGenerator(employees EmployeeSource, leaves LeaveSource, calc *Calculator, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		Employees:  employees,
		Leaves:     leaves,
		Calculator: calc,
		Logger:     logger.Named("payroll.generator"),
	}
}

// Generate returns one draft Record per active employee, ordered by employee
// ID. Generation is deterministic: the same inputs yield the same records.
// Any failure aborts the whole month.
func (g *Generator) Generate(ctx context.Context, month generic.Month) ([]Record, error) {
	if month.IsZero() {
		return nil, &generic.InvalidInputError{Field: "month", Value: month.String(), Err: generic.ErrInvalidMonth}
	}

	employees, err := g.Employees.ListActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })

	window := month.Period()
	leaves, err := g.Leaves.ListQualifyingLeaves(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("list leave for %s: %w", month, err)
	}
	leaveDays, err := leave.OverlapDaysByEmployee(window, leaves)
	if err != nil {
		return nil, fmt.Errorf("leave overlap for %s: %w", month, err)
	}

	records := make([]Record, 0, len(employees))
	for _, emp := range employees {
		rec, err := g.record(ctx, emp, leaveDays[emp.ID], month)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", emp.ID, err)
		}
		if !rec.Cap.Valid {
			g.Logger.Warn("deductions exceed statutory cap",
				zap.String("employee_id", emp.ID),
				zap.String("month", month.String()),
				zap.String("message", rec.Cap.Message))
		}
		records = append(records, rec)
	}

	g.Logger.Info("payroll generated",
		zap.String("month", month.String()),
		zap.Int("employees", len(records)),
		zap.String("total_net", TotalNet(records).Fixed()))
	return records, nil
}

// record builds a fully net record from the employee's breakdown:
//
//	final      = breakdown.NetSalary (gross - round2'd deduction buckets)
//	deductions = basic + housing + other - final
//
// The leave deduction is rounded once, in the calculator, so the record's
// deductions always equal the breakdown total shown on the payslip.
func (g *Generator) record(ctx context.Context, emp Employee, leaveDays int, month generic.Month) (Record, error) {
	counted := leaveDays
	if counted > DaysPerMonth {
		counted = DaysPerMonth
	}
	b, err := g.Calculator.Calculate(ctx, emp, counted, month)
	if err != nil {
		return Record{}, err
	}

	working := WorkingDays(leaveDays)
	final := b.NetSalary

	rec := Record{
		EmployeeID:       emp.ID,
		EmployeeName:     emp.Name,
		Month:            month,
		SalaryBasic:      emp.BasicSalary,
		HousingAllowance: emp.HousingAllowance,
		OtherAllowance:   emp.OtherAllowance,
		WorkingDays:      working,
		LeaveDays:        leaveDays,
		FinalSalary:      final,
		Status:           RecordDraft,
		Items:            b.Items,
		Cap:              b.Cap,
	}
	rec.Deductions = rec.TotalSalary().Sub(final)
	return rec, nil
}

// TotalNet sums FinalSalary over records.
func TotalNet(records []Record) generic.Amount {
	total := generic.Amount{}
	for _, r := range records {
		total = total.Add(r.FinalSalary)
	}
	return total
}
