package io

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// Format identifies a dataset file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatXLSX}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want json, csv or xlsx)", s)
}

// DetectFormat infers the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer format of %s; use --format", path)
}

// Read decodes a dataset in the given format.
func Read(r io.Reader, format Format, opts XLSXOptions) (dataset.Data, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r)
	case FormatCSV:
		return ReadCSV(r, opts.TableOptions)
	case FormatXLSX:
		return ReadXLSX(r, opts)
	}
	return dataset.Data{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

// Write encodes a dataset in the given format.
func Write(d dataset.Data, w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(d, w)
	case FormatCSV:
		return WriteCSV(d, w)
	case FormatXLSX:
		return WriteXLSX(d, w)
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

// Export writes d to path in the format implied by its extension.
func Export(d dataset.Data, path string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return Write(d, w, format) })
}
