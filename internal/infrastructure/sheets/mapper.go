package sheets

import (
	"fmt"
	"strings"

	"github.com/memberdesk/backend/internal/domain"
)

// firstDataRow is the sheet row of the first record; row 1 is the header.
const firstDataRow = 2

// RowsToRecords converts a value range whose first row is the header into
// records. Blank rows are skipped but still counted, so Row always points
// at the sheet row.
func RowsToRecords(values [][]interface{}) []domain.Record {
	if len(values) == 0 {
		return nil
	}
	headers := cellsToStrings(values[0])

	records := make([]domain.Record, 0, len(values)-1)
	for i, row := range values[1:] {
		cells := cellsToStrings(row)
		if isBlank(cells) {
			continue
		}
		rec := domain.Record{Row: firstDataRow + i, Values: make(map[string]string, len(headers))}
		for col, h := range headers {
			if h == "" {
				continue
			}
			if col < len(cells) {
				rec.Values[h] = cells[col]
			} else {
				rec.Values[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// RecordToRow lays out rec in header order. Fields with no column are dropped.
func RecordToRow(headers []string, rec domain.Record) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = rec.Values[h]
	}
	return row
}

// HeaderRow returns the default header of a category.
func HeaderRow(category string) []interface{} {
	cols := domain.ColumnsFor(category)
	row := make([]interface{}, len(cols))
	for i, c := range cols {
		row[i] = string(c)
	}
	return row
}

// ColumnName converts a 0-based column index to A1 letters (0 is A, 26 is AA).
func ColumnName(index int) string {
	name := ""
	for index >= 0 {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
	}
	return name
}

// A1 builds an A1 range on tab, quoting the tab name.
func A1(tab, cells string) string {
	quoted := "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}

func cellsToStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
