package sheet

import (
	"bytes"
	"errors"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"worksync/internal"
)

// ReadRows opens an xlsx workbook and returns the header row and data
// rows of its first sheet. Trailing cells excelize omits for short rows
// are handled downstream by positional lookup.
func ReadRows(blob []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("sheet is empty")
	}

	headers := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		headers = append(headers, strings.TrimSpace(h))
	}

	return headers, rows[1:], nil
}

func ReadFile(path string) ([]string, [][]string, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return ReadRows(blob)
}

// ProjectRows converts raw sheet rows into work orders using the column
// mapping. Rows whose mapped cells are all empty are dropped; RowNumber
// is the 1-based workbook row for operator-facing messages.
func ProjectRows(headers []string, rows [][]string, columns map[string]string) []internal.WorkOrderRow {
	index := map[string]int{}
	for field, header := range columns {
		for i, h := range headers {
			if h == header {
				index[field] = i
				break
			}
		}
	}

	cell := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]internal.WorkOrderRow, 0, len(rows))
	for i, row := range rows {
		order := internal.WorkOrderRow{
			RowNumber: i + 2,
			FirstName: cell(row, ColFirstName),
			LastName:  cell(row, ColLastName),
			Mobile:    cell(row, ColMobile),
			JobName:   cell(row, ColContract),
			DateRaw:   cell(row, ColDateRequired),
			Address:   cell(row, ColAddress),
			City:      cell(row, ColCity),
			Postcode:  cell(row, ColPostcode),
			Shutter:   strings.ToUpper(cell(row, ColShutter)) == "Y",
			LockType:  cell(row, ColLockType),
		}
		if isEmpty(order) {
			continue
		}
		out = append(out, order)
	}

	return out
}

func isEmpty(order internal.WorkOrderRow) bool {
	return order.FirstName == "" && order.LastName == "" && order.JobName == "" &&
		order.DateRaw == "" && order.Address == "" && order.Postcode == ""
}
