package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// ReadCSV decodes a CSV table. Records may have differing lengths.
func ReadCSV(r io.Reader, opts TableOptions) (dataset.Data, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return dataset.Data{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode csv")
	}
	return FromTable(records, opts)
}

// ImportCSV reads the CSV file at path.
func ImportCSV(path string, opts TableOptions) (dataset.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataset.Data{}, openError(path, err)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// WriteCSV writes d as a CSV table.
func WriteCSV(d dataset.Data, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(ToTable(d)); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}
