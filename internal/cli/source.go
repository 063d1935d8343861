package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
	"github.com/matzehuels/chartpad/pkg/source"
	"github.com/matzehuels/chartpad/pkg/source/postgres"
)

// sourceFlags select where a dataset comes from: a file argument, or a
// SQL query with --query.
type sourceFlags struct {
	format string
	sheet  string
	key    string
	query  string
	dsn    string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "input format (json, csv, xlsx); inferred from the extension by default")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "worksheet of an xlsx workbook (default first sheet)")
	cmd.Flags().StringVar(&f.key, "key", "", "id of the key column (default derived from the first header)")
	cmd.Flags().StringVar(&f.query, "query", "", "load rows from PostgreSQL with this SQL query instead of a file")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "PostgreSQL connection string (default source.postgres_dsn)")
}

// source resolves the flags and positional arguments to a dataset source.
func (c *CLI) source(f sourceFlags, args []string) (source.Source, error) {
	if f.query != "" {
		if len(args) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "pass either a file or --query, not both")
		}
		dsn := f.dsn
		if dsn == "" {
			dsn = c.Config.Source.PostgresDSN
		}
		if err := errors.ValidateDSN(dsn); err != nil {
			return nil, err
		}
		return &postgres.Query{
			DSN:       dsn,
			SQL:       f.query,
			KeyColumn: f.key,
			Palette:   c.Config.Chart.Palette,
			Timeout:   c.Config.Source.Timeout.Duration,
		}, nil
	}
	if len(args) != 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "expected one dataset file")
	}
	src, err := source.NewFile(args[0])
	if f.format != "" && err != nil && errors.Is(err, errors.ErrCodeInvalidFormat) {
		src, err = &source.File{Path: args[0]}, nil
	}
	if err != nil {
		return nil, err
	}
	if f.format != "" {
		if src.Format, err = pio.ParseFormat(f.format); err != nil {
			return nil, err
		}
	}
	src.Sheet, src.KeyColumn, src.Palette = f.sheet, f.key, c.Config.Chart.Palette
	return src, nil
}
