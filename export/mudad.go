/*
Package export renders payroll records for the outside world.

PURPOSE:
  Projects saved payroll records into the fixed-column Mudad/WPS
  spreadsheet, renders payslip PDFs and archives both. No payroll
  arithmetic happens here: every figure is taken from the record and only
  formatted.

MUDAD COLUMNS (order is contractual):
  A  No.                 sequence number from 1
  B  National ID / Iqama
  C  Employee Name
  D  Basic Salary        2 decimals
  E  Housing Allowance   2 decimals
  F  Other Allowances    2 decimals
  G  Total Salary        D + E + F
  H  Deductions          2 decimals
  I  Net Salary          G - H
  J  IBAN
  K  Nationality

  A trailing "Total" row sums every monetary column (D..I).

FILE NAME:
  {employerNumber}_{MM}_{YYYY}.xlsx, e.g. 7001234567_02_2026.xlsx

SEE ALSO:
  - payslip.go: PDF payslip
  - archive.go: S3 / directory archiving
*/
package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// ErrMalformedWorkbook is returned by ReadXLSX for files it did not write.
var ErrMalformedWorkbook = errors.New("malformed payroll workbook")

// Header is the Mudad column header row.
var Header = []string{
	"No.",
	"National ID / Iqama",
	"Employee Name",
	"Basic Salary",
	"Housing Allowance",
	"Other Allowances",
	"Total Salary",
	"Deductions",
	"Net Salary",
	"IBAN",
	"Nationality",
}

const (
	totalLabel  = "Total"
	sheetPrefix = "Payroll "
	firstMoney  = 4 // column D
	lastMoney   = 9 // column I
)

// =============================================================================
// REPORT - Ordered rows plus totals
// =============================================================================

type Row struct {
	Seq         int
	NationalID  string
	Name        string
	Basic       generic.Amount
	Housing     generic.Amount
	Other       generic.Amount
	Total       generic.Amount
	Deductions  generic.Amount
	Net         generic.Amount
	IBAN        string
	Nationality string
}

func (r Row) money() []generic.Amount {
	return []generic.Amount{r.Basic, r.Housing, r.Other, r.Total, r.Deductions, r.Net}
}

type Totals struct {
	Basic      generic.Amount
	Housing    generic.Amount
	Other      generic.Amount
	Total      generic.Amount
	Deductions generic.Amount
	Net        generic.Amount
}

func (t Totals) money() []generic.Amount {
	return []generic.Amount{t.Basic, t.Housing, t.Other, t.Total, t.Deductions, t.Net}
}

func (t *Totals) add(r Row) {
	t.Basic = t.Basic.Add(r.Basic)
	t.Housing = t.Housing.Add(r.Housing)
	t.Other = t.Other.Add(r.Other)
	t.Total = t.Total.Add(r.Total)
	t.Deductions = t.Deductions.Add(r.Deductions)
	t.Net = t.Net.Add(r.Net)
}

type Report struct {
	Month  generic.Month
	Rows   []Row
	Totals Totals
}

// SheetName is "Payroll YYYY-MM".
func (r Report) SheetName() string { return sheetPrefix + r.Month.String() }

// BuildReport maps records, in the given order, to Mudad rows. Each record
// must belong to month and to a known employee.
func BuildReport(month generic.Month, records []payroll.Record, employees []payroll.Employee) (Report, error) {
	byID := make(map[string]payroll.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	report := Report{Month: month, Rows: make([]Row, 0, len(records))}
	for i, rec := range records {
		if rec.Month != month {
			return Report{}, fmt.Errorf("record %s belongs to %s, not %s", rec.Key(), rec.Month, month)
		}
		emp, ok := byID[rec.EmployeeID]
		if !ok {
			return Report{}, fmt.Errorf("record %s: %w", rec.Key(), generic.ErrEmployeeNotFound)
		}
		name := rec.EmployeeName
		if name == "" {
			name = emp.Name
		}
		// G = D + E + F and H = G - I as printed.
		basic := rec.SalaryBasic.Round2()
		housing := rec.HousingAllowance.Round2()
		other := rec.OtherAllowance.Round2()
		total := basic.Add(housing).Add(other)
		net := rec.FinalSalary.Round2()
		row := Row{
			Seq:         i + 1,
			NationalID:  emp.NationalID,
			Name:        name,
			Basic:       basic,
			Housing:     housing,
			Other:       other,
			Total:       total,
			Deductions:  total.Sub(net),
			Net:         net,
			IBAN:        emp.IBAN,
			Nationality: emp.Nationality,
		}
		report.Rows = append(report.Rows, row)
		report.Totals.add(row)
	}
	return report, nil
}

// FileName is {employerNumber}_{MM}_{YYYY}.xlsx.
func FileName(employerNumber string, month generic.Month) string {
	return fmt.Sprintf("%s_%02d_%04d.xlsx", strings.TrimSpace(employerNumber), int(month.Month), month.Year)
}

// =============================================================================
// XLSX WRITER
// =============================================================================

// WriteXLSX writes report as a single-sheet workbook.
func WriteXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := report.SheetName()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("total style: %w", err)
	}

	for i, h := range Header {
		if err := f.SetCellStr(sheet, cell(i+1, 1), h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, cell(1, 1), cell(len(Header), 1), headerStyle); err != nil {
		return err
	}

	for i, r := range report.Rows {
		line := i + 2
		if err := f.SetCellValue(sheet, cell(1, line), r.Seq); err != nil {
			return err
		}
		if err := writeText(f, sheet, line, map[int]string{
			2: r.NationalID, 3: r.Name, 10: r.IBAN, 11: r.Nationality,
		}); err != nil {
			return err
		}
		if err := writeMoney(f, sheet, line, r.money()); err != nil {
			return err
		}
	}
	if len(report.Rows) > 0 {
		last := len(report.Rows) + 1
		if err := f.SetCellStyle(sheet, cell(firstMoney, 2), cell(lastMoney, last), moneyStyle); err != nil {
			return err
		}
	}

	totalLine := len(report.Rows) + 2
	if err := f.SetCellStr(sheet, cell(1, totalLine), totalLabel); err != nil {
		return err
	}
	if err := writeMoney(f, sheet, totalLine, report.Totals.money()); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(1, totalLine), cell(len(Header), totalLine), totalStyle); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "A", "A", 6); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "K", 20); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func writeText(f *excelize.File, sheet string, line int, values map[int]string) error {
	for col, v := range values {
		if err := f.SetCellStr(sheet, cell(col, line), v); err != nil {
			return err
		}
	}
	return nil
}

// writeMoney fills columns D..I with 2-decimal numbers.
func writeMoney(f *excelize.File, sheet string, line int, amounts []generic.Amount) error {
	for i, a := range amounts {
		if err := f.SetCellFloat(sheet, cell(firstMoney+i, line), a.Round2().Value.InexactFloat64(), 2, 64); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// XLSX READER
// =============================================================================

// ReadXLSX parses a workbook produced by WriteXLSX.
func ReadXLSX(r io.Reader) (Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Report{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if !strings.HasPrefix(sheet, sheetPrefix) {
		return Report{}, fmt.Errorf("sheet %q: %w", sheet, ErrMalformedWorkbook)
	}
	month, err := generic.ParseMonth(strings.TrimPrefix(sheet, sheetPrefix))
	if err != nil {
		return Report{}, fmt.Errorf("sheet %q: %w", sheet, ErrMalformedWorkbook)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return Report{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 || !equalHeader(rows[0]) {
		return Report{}, fmt.Errorf("header: %w", ErrMalformedWorkbook)
	}

	report := Report{Month: month}
	for i, raw := range rows[1:] {
		line := i + 2
		raw = pad(raw, len(Header))
		money, err := parseMoney(raw, line)
		if err != nil {
			return Report{}, err
		}
		if raw[0] == totalLabel {
			report.Totals = Totals{
				Basic: money[0], Housing: money[1], Other: money[2],
				Total: money[3], Deductions: money[4], Net: money[5],
			}
			return report, nil
		}
		seq, err := strconv.Atoi(raw[0])
		if err != nil {
			return Report{}, fmt.Errorf("row %d: sequence %q: %w", line, raw[0], ErrMalformedWorkbook)
		}
		report.Rows = append(report.Rows, Row{
			Seq:         seq,
			NationalID:  raw[1],
			Name:        raw[2],
			Basic:       money[0],
			Housing:     money[1],
			Other:       money[2],
			Total:       money[3],
			Deductions:  money[4],
			Net:         money[5],
			IBAN:        raw[9],
			Nationality: raw[10],
		})
	}
	return Report{}, fmt.Errorf("missing %s row: %w", totalLabel, ErrMalformedWorkbook)
}

func equalHeader(row []string) bool {
	if len(row) < len(Header) {
		return false
	}
	for i, h := range Header {
		if row[i] != h {
			return false
		}
	}
	return true
}

func pad(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

func parseMoney(raw []string, line int) ([]generic.Amount, error) {
	out := make([]generic.Amount, 0, lastMoney-firstMoney+1)
	for col := firstMoney; col <= lastMoney; col++ {
		a, err := generic.ParseAmount(raw[col-1], generic.CurrencySAR)
		if err != nil {
			return nil, fmt.Errorf("row %d column %s: %w", line, Header[col-1], err)
		}
		out = append(out, a.Round2())
	}
	return out, nil
}
