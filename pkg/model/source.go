// pkg/model/source.go
package model

import "strings"

// SourceTable is one tabular source as read from disk or a warehouse
type SourceTable struct {
	SourceID string  // File name or fully qualified table name
	Header   []any   // Raw header cells, uncleaned
	Rows     [][]any // Data rows; cells are string, float64, int64, time.Time or nil
}

// RowCount returns the number of data rows
func (t *SourceTable) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell returns the cell at (row, col) or nil when the row is short
func (t *SourceTable) Cell(row, col int) any {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return nil
	}
	r := t.Rows[row]
	if col >= len(r) {
		return nil
	}
	return r[col]
}

// IsBlankRow reports whether every cell of the row is nil or whitespace
func IsBlankRow(row []any) bool {
	for _, v := range row {
		switch c := v.(type) {
		case nil:
			continue
		case string:
			if strings.TrimSpace(c) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
