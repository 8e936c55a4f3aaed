package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"worksync/internal"
)

// RenderChargeSummary prints the charge log as a table, in the order
// the rows were processed.
func RenderChargeSummary(w io.Writer, charges []internal.ChargeRecord) {
	if len(charges) == 0 {
		fmt.Fprintln(w, "No charges were applied to any jobs.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTACT\tJOB NAME\tDATE\tCHARGE DESCRIPTION\tTOTAL (£)")
	total := 0.0
	for _, c := range charges {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n", c.Contact, c.JobName, c.Date, c.Description, c.Total)
		total += c.Total
	}
	fmt.Fprintf(tw, "\t\t\t\t%.2f\n", total)
	_ = tw.Flush()
}

// ExportChargesToXLSX writes the charge log as a workbook.
func ExportChargesToXLSX(charges []internal.ChargeRecord, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"Contact", "Job Name", "Date", "Charge Description", "Total (£)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, c := range charges {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		set(1, c.Contact)
		set(2, c.JobName)
		set(3, c.Date)
		set(4, c.Description)
		set(5, c.Total)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
