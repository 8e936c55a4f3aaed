package sheet

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	name := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(name, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func workOrderSheet(t *testing.T, dataRows [][]any) []byte {
	t.Helper()
	header := make([]any, 0, len(ExpectedColumns))
	for _, col := range ExpectedColumns {
		header = append(header, col)
	}
	return mkXLSX(t, append([][]any{header}, dataRows...))
}

func TestReadRows(t *testing.T) {
	blob := workOrderSheet(t, [][]any{
		{"John", "Smith", "07700 900123", "CTR-1001", "04/05/2026", "1 High St", "Leeds", "LS1 1AA", "N", "Euro cylinder"},
	})

	headers, rows, err := ReadRows(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != len(ExpectedColumns) {
		t.Fatalf("headers=%d", len(headers))
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d", len(rows))
	}
}

func TestProjectRows(t *testing.T) {
	blob := workOrderSheet(t, [][]any{
		{"John", "Smith", "07700 900123", "CTR-1001", "04/05/2026", "1 High St", "Leeds", "LS1 1AA", "y", "Euro cylinder"},
		{"", "", "", "", "", "", "", "", "", ""},
		{"Jane", "Doe", "", "CTR-1002", "05/05/2026", "2 Low Rd", "York", "YO1 7HH", "N", ""},
	})

	headers, rows, err := ReadRows(blob)
	if err != nil {
		t.Fatal(err)
	}
	columns, err := MapColumns(headers, 90)
	if err != nil {
		t.Fatal(err)
	}

	orders := ProjectRows(headers, rows, columns)
	if len(orders) != 2 {
		t.Fatalf("orders=%d (blank row should be dropped)", len(orders))
	}

	first := orders[0]
	if first.RowNumber != 2 || first.FirstName != "John" || first.Postcode != "LS1 1AA" {
		t.Fatalf("unexpected projection: %+v", first)
	}
	if !first.Shutter {
		t.Fatal("lowercase y should set the shutter flag")
	}
	if orders[1].Shutter {
		t.Fatal("N should not set the shutter flag")
	}
	if orders[1].RowNumber != 4 {
		t.Fatalf("row number should track the workbook row, got %d", orders[1].RowNumber)
	}
}
