package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/payroll-engine/payroll"
)

// PayslipName is {employeeID}_{YYYY-MM}.pdf.
func PayslipName(rec payroll.Record) string {
	return fmt.Sprintf("%s_%s.pdf", rec.EmployeeID, rec.Month)
}

// WritePayslip renders a one-page A4 payslip for a single record. Text is
// drawn with the core Helvetica font, so non-Latin names are transliterated
// by the cp1252 translator.
func WritePayslip(w io.Writer, emp payroll.Employee, rec payroll.Record) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payslip "+rec.Month.String(), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	name := rec.EmployeeName
	if name == "" {
		name = emp.Name
	}
	for _, line := range []string{
		"Employee: " + tr(name),
		"National ID / Iqama: " + emp.NationalID,
		"IBAN: " + emp.IBAN,
		"Month: " + rec.Month.String(),
		fmt.Sprintf("Working days: %d   Leave days: %d", rec.WorkingDays, rec.LeaveDays),
	} {
		pdf.Cell(0, 8, line)
		pdf.Ln(7)
	}
	pdf.Ln(3)

	row := func(label, value string) {
		pdf.CellFormat(100, 8, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, value, "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	row("Earnings", "SAR")
	pdf.SetFont("Helvetica", "", 12)
	row("Basic Salary", rec.SalaryBasic.Fixed())
	row("Housing Allowance", rec.HousingAllowance.Fixed())
	row("Other Allowances", rec.OtherAllowance.Fixed())
	row("Total Salary", rec.TotalSalary().Round2().Fixed())
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	row("Deductions", "SAR")
	pdf.SetFont("Helvetica", "", 12)
	for _, item := range rec.Items {
		row(tr(item.Description), item.Amount.Round2().Fixed())
	}
	row("Total Deductions", rec.Deductions.Round2().Fixed())
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	row("Net Salary", rec.FinalSalary.Round2().Fixed())

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render payslip %s: %w", rec.Key(), err)
	}
	return nil
}
