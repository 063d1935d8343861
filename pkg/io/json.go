package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/chartpad/pkg/core/chart"
	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// ReadJSON decodes and validates a dataset. Unknown fields are rejected
// so typos in hand-written files surface early. ReadJSON does not close r.
func ReadJSON(r io.Reader) (dataset.Data, error) {
	var d dataset.Data
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return d, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode dataset json")
	}
	if d.Key.ID == "" {
		d.Key = dataset.DefaultKeyColumn
	}
	return d, Validate(d)
}

// ImportJSON reads the dataset JSON file at path.
func ImportJSON(path string) (dataset.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataset.Data{}, openError(path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON writes d as indented JSON.
func WriteJSON(d dataset.Data, w io.Writer) error {
	return writeIndented(w, d)
}

// ExportJSON writes d to a JSON file at path.
func ExportJSON(d dataset.Data, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(d, w) })
}

// WriteSpecJSON writes a renderer spec as indented JSON.
func WriteSpecJSON(s chart.Spec, w io.Writer) error {
	return writeIndented(w, s)
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func openError(path string, err error) error {
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", path)
	}
	return fmt.Errorf("open %s: %w", path, err)
}

// Validate checks that d can back an editing session: valid unique column
// ids that do not shadow the key column, labels unique case-insensitively
// among the columns and the key column, and non-empty unique row keys.
func Validate(d dataset.Data) error {
	if err := errors.ValidateColumnID(d.Key.ID); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDataset, err, "key column")
	}
	seen := map[string]bool{d.Key.ID: true}
	labels := map[string]bool{dataset.FoldLabel(d.Key.DisplayLabel()): true}
	for i, c := range d.Columns {
		if err := errors.ValidateColumnID(c.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDataset, err, "column %d", i)
		}
		if seen[c.ID] {
			return errors.New(errors.ErrCodeInvalidDataset, "duplicate column id %q", c.ID)
		}
		seen[c.ID] = true
		label := dataset.FoldLabel(c.DisplayLabel())
		if labels[label] {
			return errors.New(errors.ErrCodeInvalidDataset, "duplicate column label %q", c.DisplayLabel())
		}
		labels[label] = true
	}
	keys := make(map[string]int, len(d.Rows))
	for i, r := range d.Rows {
		k := r.Key.String()
		if k == "" {
			return errors.New(errors.ErrCodeInvalidDataset, "row %d has an empty key", i+1)
		}
		if prev, dup := keys[k]; dup {
			return errors.New(errors.ErrCodeInvalidDataset, "rows %d and %d share key %q", prev+1, i+1, k)
		}
		keys[k] = i
	}
	return nil
}
