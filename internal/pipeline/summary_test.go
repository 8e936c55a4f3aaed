package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"worksync/internal"
)

func TestRenderChargeSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	RenderChargeSummary(&buf, nil)
	if !strings.Contains(buf.String(), "No charges were applied to any jobs.") {
		t.Fatalf("output=%q", buf.String())
	}
}

func TestRenderChargeSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	RenderChargeSummary(&buf, []internal.ChargeRecord{
		{Contact: "John Smith", JobName: "Front door", Date: "2026-03-14", Description: "Standard daily callout (£111.50)", Total: 111.50},
		{Contact: "Ada Lovelace", JobName: "Shutter fix", Date: "2026-03-15", Description: "Shutter charge (£137.50)", Total: 137.50},
	})

	out := buf.String()
	for _, want := range []string{"John Smith", "Ada Lovelace", "111.50", "249.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExportChargesToXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "charges.xlsx")
	err := ExportChargesToXLSX([]internal.ChargeRecord{
		{Contact: "John Smith", JobName: "Front door", Date: "2026-03-14", Description: "Standard daily callout (£111.50)", Total: 111.50},
	}, path)
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%v", rows)
	}
	if rows[1][0] != "John Smith" {
		t.Fatalf("first data row=%v", rows[1])
	}
}
