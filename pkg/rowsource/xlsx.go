package rowsource

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wbnlp/docmap/pkg/choropleth"
)

// XLSXFile reads rows from a workbook sheet laid out like the CSV table.
// An empty Sheet selects the first sheet.
type XLSXFile struct {
	Path  string
	Sheet string
}

func (s *XLSXFile) Rows(_ context.Context) ([]choropleth.Row, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.Path, err)
	}
	defer func() { _ = f.Close() }()

	sheet := s.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, s.Path, err)
	}

	rows, err := fromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("%s[%s]: %w", s.Path, sheet, err)
	}
	return rows, nil
}

func (s *XLSXFile) String() string {
	if s.Sheet == "" {
		return s.Path
	}
	return s.Path + "#" + s.Sheet
}
