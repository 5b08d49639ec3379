// pkg/source/xlsx.go
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/EricBinekS/StatusDiario/pkg/model"
)

// DefaultHeaderRow is the zero-based row holding column names in the
// operations workbooks
const DefaultHeaderRow = 4

// XLSXSource reads one worksheet of an Excel workbook
type XLSXSource struct {
	Path      string
	Sheet     string // Empty selects the first sheet
	HeaderRow int
}

// NewXLSXSource creates a workbook source
func NewXLSXSource(path, sheet string, headerRow int) *XLSXSource {
	return &XLSXSource{Path: path, Sheet: sheet, HeaderRow: headerRow}
}

// ID returns the workbook file name
func (s *XLSXSource) ID() string {
	return filepath.Base(s.Path)
}

// Read loads the worksheet. Cells come back as raw text so serial dates and
// clock fractions survive; empty cells become nil.
func (s *XLSXSource) Read(ctx context.Context) (*model.SourceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.Path, err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, s.ID())
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, s.ID(), err)
	}
	if len(rows) <= s.HeaderRow {
		return nil, fmt.Errorf("sheet %q of %s has %d rows, header expected at row %d",
			sheet, s.ID(), len(rows), s.HeaderRow+1)
	}

	table := &model.SourceTable{
		SourceID: s.ID(),
		Header:   toCells(rows[s.HeaderRow]),
		Rows:     make([][]any, 0, len(rows)-s.HeaderRow-1),
	}
	for i, row := range rows[s.HeaderRow+1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		table.Rows = append(table.Rows, toCells(row))
	}
	return table, nil
}

func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		if strings.TrimSpace(v) == "" {
			continue
		}
		cells[i] = v
	}
	return cells
}
