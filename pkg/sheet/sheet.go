// Package sheet writes the batch summary workbook.
//
// The workbook has one sheet with a header row and one row per processed
// input, wrapped in a single styled table so it can be filtered in Excel.
package sheet

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Workbook layout.
const (
	SheetName  = "Sheet1"
	TableName  = "Table1"
	TableStyle = "TableStyleMedium9"
)

// Header is the column header row.
var Header = []string{"connected_app", "body", "file_name", "url"}

// maxCellChars is Excel's limit on text in one cell.
const maxCellChars = excelize.TotalCellChars

// Record is one row of the summary.
type Record struct {
	ConnectedApp string
	Body         string
	FileName     string
	URL          string
}

func (r Record) cells() []any {
	return []any{clip(r.ConnectedApp), clip(r.Body), clip(r.FileName), clip(r.URL)}
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxCellChars {
		return s
	}
	return string([]rune(s)[:maxCellChars])
}

// Sheet accumulates records in memory until written.
type Sheet struct {
	records []Record
}

// New returns an empty sheet.
func New() *Sheet {
	return &Sheet{}
}

// Append adds a row.
func (s *Sheet) Append(r Record) {
	s.records = append(s.records, r)
}

// Len returns the number of rows appended.
func (s *Sheet) Len() int { return len(s.records) }

// Records returns a copy of the rows appended.
func (s *Sheet) Records() []Record {
	return append([]Record(nil), s.records...)
}

// Bytes renders the workbook as xlsx. A sheet without records gets one
// blank row so the table is never empty.
func (s *Sheet) Bytes() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	rows := s.records
	if len(rows) == 0 {
		rows = []Record{{}}
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		vals := r.cells()
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(Header), len(rows)+1)
	if err != nil {
		return nil, err
	}
	stripes := true
	if err := f.AddTable(SheetName, &excelize.Table{
		Range:          "A1:" + last,
		Name:           TableName,
		StyleName:      TableStyle,
		ShowRowStripes: &stripes,
	}); err != nil {
		return nil, fmt.Errorf("add table: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
