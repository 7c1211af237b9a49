package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/warp/payroll-engine/generic"
)

const ContentTypeCSV = "text/csv"

// csvRow mirrors the Mudad columns for banks that take the CSV upload.
type csvRow struct {
	Seq         string `csv:"No."`
	NationalID  string `csv:"National ID / Iqama"`
	Name        string `csv:"Employee Name"`
	Basic       string `csv:"Basic Salary"`
	Housing     string `csv:"Housing Allowance"`
	Other       string `csv:"Other Allowances"`
	Total       string `csv:"Total Salary"`
	Deductions  string `csv:"Deductions"`
	Net         string `csv:"Net Salary"`
	IBAN        string `csv:"IBAN"`
	Nationality string `csv:"Nationality"`
}

// CSVFileName is FileName with a .csv extension.
func CSVFileName(employerNumber string, month generic.Month) string {
	return strings.TrimSuffix(FileName(employerNumber, month), ".xlsx") + ".csv"
}

// WriteCSV writes the report rows and the Total row with the XLSX headers.
func WriteCSV(w io.Writer, report Report) error {
	rows := make([]csvRow, 0, len(report.Rows)+1)
	for _, r := range report.Rows {
		rows = append(rows, csvRow{
			Seq:         fmt.Sprint(r.Seq),
			NationalID:  r.NationalID,
			Name:        r.Name,
			Basic:       r.Basic.Fixed(),
			Housing:     r.Housing.Fixed(),
			Other:       r.Other.Fixed(),
			Total:       r.Total.Fixed(),
			Deductions:  r.Deductions.Fixed(),
			Net:         r.Net.Fixed(),
			IBAN:        r.IBAN,
			Nationality: r.Nationality,
		})
	}
	t := report.Totals
	rows = append(rows, csvRow{
		Seq:        totalLabel,
		Basic:      t.Basic.Fixed(),
		Housing:    t.Housing.Fixed(),
		Other:      t.Other.Fixed(),
		Total:      t.Total.Fixed(),
		Deductions: t.Deductions.Fixed(),
		Net:        t.Net.Fixed(),
	})
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
