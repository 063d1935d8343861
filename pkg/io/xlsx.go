package io

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// XLSXOptions select the worksheet to read.
type XLSXOptions struct {
	TableOptions
	// Sheet names the worksheet; empty means the first sheet.
	Sheet string
}

// ReadXLSX decodes one worksheet of a workbook. Cells are read as their
// formatted display text, so numbers formatted as currency or percent
// stay text unless the format is plain.
func ReadXLSX(r io.Reader, opts XLSXOptions) (dataset.Data, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return dataset.Data{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "open workbook")
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return dataset.Data{}, errors.New(errors.ErrCodeInvalidDataset, "workbook has no sheets")
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return dataset.Data{}, errors.New(errors.ErrCodeNotFound, "sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return dataset.Data{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read sheet %q", sheet)
	}
	return FromTable(rows, opts.TableOptions)
}

// ImportXLSX reads the workbook at path.
func ImportXLSX(path string, opts XLSXOptions) (dataset.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataset.Data{}, openError(path, err)
	}
	defer f.Close()
	return ReadXLSX(f, opts)
}

// WriteXLSX writes d as a single-sheet workbook. Numeric cells are stored
// as numbers; hidden columns and rows are written with Excel's hidden flag.
func WriteXLSX(d dataset.Data, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}
	cellValue := func(v dataset.Value) any {
		if n, ok := v.Float(); ok {
			return n
		}
		return v.String()
	}

	if err := set(1, 1, d.Key.DisplayLabel()); err != nil {
		return err
	}
	for i, c := range d.Columns {
		if err := set(i+2, 1, c.DisplayLabel()); err != nil {
			return err
		}
		if !c.Visible {
			name, _ := excelize.ColumnNumberToName(i + 2)
			if err := f.SetColVisible(sheet, name, false); err != nil {
				return err
			}
		}
	}
	for r, row := range d.Rows {
		if err := set(1, r+2, cellValue(row.Key)); err != nil {
			return err
		}
		for i, c := range d.Columns {
			if err := set(i+2, r+2, cellValue(row.Fields[c.ID])); err != nil {
				return err
			}
		}
		if row.Hidden {
			if err := f.SetRowVisible(sheet, r+2, false); err != nil {
				return err
			}
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("encode workbook: %w", err)
	}
	return nil
}
