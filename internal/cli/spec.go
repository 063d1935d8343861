package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chartpad/pkg/core/chart"
	pio "github.com/matzehuels/chartpad/pkg/io"
	"github.com/matzehuels/chartpad/pkg/pipeline"
	"github.com/matzehuels/chartpad/pkg/session"
	"github.com/matzehuels/chartpad/pkg/source"
)

// loadFlags control the dataset cache for one run.
type loadFlags struct {
	noCache bool
	refresh bool
}

func (f *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the dataset cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "reload the dataset even if it is cached")
}

// specCommand creates the spec command.
func (c *CLI) specCommand() *cobra.Command {
	var (
		src    sourceFlags
		charts chartFlags
		load   loadFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "spec [file]",
		Short: "Print the chart spec of a dataset",
		Long: `Load a dataset and print the chart spec as JSON.

The spec holds the visible rows and columns in display order, the resolved
mapping for the chart type, and precomputed histogram bins and colors.`,
		Example: `  chartpad spec finance.csv
  chartpad spec finance.xlsx --sheet Q4 -t scatter -o spec.json
  chartpad spec --query 'SELECT year, revenue FROM finance' -t bar`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.source(src, args)
			if err != nil {
				return err
			}
			opts := c.pipelineOptions(charts)
			opts.Refresh = load.refresh
			res, err := c.execute(cmd.Context(), s, opts, load.noCache)
			if err != nil {
				return err
			}
			return writeSpec(res.Spec, output)
		},
	}

	src.register(cmd)
	charts.register(cmd)
	load.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the spec to a file instead of stdout")
	return cmd
}

// execute runs the pipeline with a spinner while the dataset loads.
func (c *CLI) execute(ctx context.Context, src source.Source, opts pipeline.Options, noCache bool) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading "+src.Name())
	spinner.Start()
	res, err := runner.Execute(ctx, src, opts)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	return res, nil
}

// writeSpec writes the spec JSON to path, or stdout when path is empty.
func writeSpec(spec chart.Spec, path string) error {
	if path == "" {
		return pio.WriteSpecJSON(spec, os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pio.WriteSpecJSON(spec, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printSuccess("Wrote %s spec", spec.ChartType)
	printFile(path)
	return nil
}

// readOps reads operations from path, or stdin for "-".
func readOps(path string) ([]session.Op, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return session.ReadOps(r)
}
