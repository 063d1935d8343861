package source

import (
	"bytes"
	"context"
	"os"

	"github.com/matzehuels/chartpad/pkg/cache"
	"github.com/matzehuels/chartpad/pkg/core/dataset"
	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
)

// File is a dataset file on disk.
type File struct {
	Path string
	// Format overrides detection from the extension.
	Format pio.Format
	// Sheet selects an XLSX worksheet.
	Sheet string
	// KeyColumn overrides the derived key column id for tabular formats.
	KeyColumn string
	// Palette colors tabular columns.
	Palette []string
}

var _ Source = (*File)(nil)

// NewFile validates path and detects its format.
func NewFile(path string) (*File, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := pio.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	return &File{Path: path, Format: format}, nil
}

func (f *File) Name() string { return f.Path }

func (f *File) format() (pio.Format, error) {
	if f.Format != "" {
		return f.Format, nil
	}
	return pio.DetectFormat(f.Path)
}

func (f *File) options() pio.XLSXOptions {
	return pio.XLSXOptions{
		TableOptions: pio.TableOptions{KeyColumn: f.KeyColumn, Palette: f.Palette},
		Sheet:        f.Sheet,
	}
}

func (f *File) read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", f.Path)
	}
	return data, err
}

// Key hashes the file content together with the reader options.
func (f *File) Key(_ context.Context, k cache.Keyer) (string, error) {
	format, err := f.format()
	if err != nil {
		return "", err
	}
	data, err := f.read()
	if err != nil {
		return "", err
	}
	return k.DatasetKey(cache.Hash(data), cache.DatasetKeyOpts{
		Format:    string(format),
		Sheet:     f.Sheet,
		KeyColumn: f.KeyColumn,
	}), nil
}

func (f *File) Load(_ context.Context) (dataset.Data, error) {
	format, err := f.format()
	if err != nil {
		return dataset.Data{}, err
	}
	data, err := f.read()
	if err != nil {
		return dataset.Data{}, err
	}
	return pio.Read(bytes.NewReader(data), format, f.options())
}
