package camelot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// SheetName is the XLSX sheet name used for a page/table pair.
func SheetName(page, table int) string {
	return fmt.Sprintf("p%d-t%d", page, table)
}

// WriteXLSX writes one sheet per table, ordered by page then table.
// Tables that are not camelot JSON are written as a single text cell.
func (r *Result) WriteXLSX(w io.Writer) error {
	f, err := r.buildWorkbook()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// XLSXBytes returns the workbook produced by WriteXLSX.
func (r *Result) XLSXBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteXLSX(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Result) buildWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	created := 0

	for _, pn := range r.PageNumbers() {
		page := r.Pages[pn]
		for _, tn := range page.TableNumbers() {
			sheet := SheetName(pn, tn)
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("new sheet %s: %w", sheet, err)
			}
			if err := writeTable(f, sheet, page.Tables[tn]); err != nil {
				return nil, fmt.Errorf("sheet %s: %w", sheet, err)
			}
			created++
		}
	}

	if created > 0 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return nil, err
		}
		f.SetActiveSheet(0)
	}
	return f, nil
}

func writeTable(f *excelize.File, sheet string, content []byte) error {
	rows, err := DecodeTable(content)
	if err != nil {
		var text string
		if json.Unmarshal(content, &text) != nil {
			text = string(content)
		}
		return f.SetCellValue(sheet, "A1", text)
	}

	cols := columnKeys(rows)
	for i, row := range rows {
		values := make([]any, len(cols))
		for j, k := range cols {
			values[j] = row[k]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
