package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
	"github.com/matzehuels/chartpad/pkg/session"
)

// applyCommand creates the apply command.
func (c *CLI) applyCommand() *cobra.Command {
	var (
		src       sourceFlags
		charts    chartFlags
		load      loadFlags
		opsPath   string
		sessionID string
		save      bool
		output    string
		export    string
	)

	cmd := &cobra.Command{
		Use:   "apply [file] --ops OPS",
		Short: "Apply operations to a dataset or stored session",
		Long: `Apply a JSON file of operations (one object or an array) and print
the resulting chart summary.

Operations either run against a freshly loaded dataset, optionally saved as
a new session with --save, or against a stored session with --session, which
is saved back afterwards.`,
		Example: `  chartpad apply finance.csv --ops edits.json -o spec.json
  chartpad apply finance.csv --ops edits.json --save
  echo '{"op":"toggleColumn","id":"cogs"}' | chartpad apply --session 2c1f... --ops -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := readOps(opsPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var sess *session.Session
			if sessionID != "" {
				if len(args) > 0 || src.query != "" {
					return errors.New(errors.ErrCodeInvalidInput, "pass either a dataset or --session, not both")
				}
				sess, err = c.applyToStored(ctx, sessionID, ops)
			} else {
				sess, err = c.applyToSource(ctx, src, charts, load, args, ops, save)
			}
			if err != nil {
				return err
			}

			spec := sess.Spec()
			printNewline()
			fmt.Println(renderSpecSummary(spec))
			if export != "" {
				if err := pio.Export(sess.Dataset().Data(), export); err != nil {
					return err
				}
				printSuccess("Exported dataset")
				printFile(export)
			}
			if output != "" {
				return writeSpec(spec, output)
			}
			return nil
		},
	}

	src.register(cmd)
	charts.register(cmd)
	load.register(cmd)
	cmd.Flags().StringVar(&opsPath, "ops", "", "operations file, or - for stdin")
	cmd.Flags().StringVar(&sessionID, "session", "", "apply to a stored session")
	cmd.Flags().BoolVar(&save, "save", false, "store the result as a new session")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the chart spec to a file")
	cmd.Flags().StringVar(&export, "export", "", "write the edited dataset (json, csv or xlsx by extension)")
	_ = cmd.MarkFlagRequired("ops")
	return cmd
}

func (c *CLI) applyToSource(ctx context.Context, f sourceFlags, charts chartFlags, load loadFlags, args []string, ops []session.Op, save bool) (*session.Session, error) {
	s, err := c.source(f, args)
	if err != nil {
		return nil, err
	}
	opts := c.pipelineOptions(charts)
	opts.Refresh = load.refresh
	opts.Ops = ops
	res, err := c.execute(ctx, s, opts, load.noCache)
	if err != nil {
		return nil, err
	}
	printSuccess("Applied %d of %d operations", res.Applied, len(ops))
	printStats(res.Stats.Rows, res.Stats.Columns, res.CacheInfo.LoadHit)

	if save {
		store, err := c.newStore(ctx)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if err := store.Set(ctx, res.Session.Snapshot()); err != nil {
			return nil, err
		}
		printSuccess("Saved session %s", StyleHighlight.Render(res.Session.ID()))
		printNextStep("Continue editing", appName+" edit --session "+res.Session.ID())
	}
	return res.Session, nil
}

func (c *CLI) applyToStored(ctx context.Context, id string, ops []session.Op) (*session.Session, error) {
	store, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	sess, err := c.restore(ctx, store, id)
	if err != nil {
		return nil, err
	}
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "operation %d", i+1)
		}
	}
	applied := sess.ApplyAll(ops)
	if err := store.Set(ctx, sess.Snapshot()); err != nil {
		return nil, err
	}
	printSuccess("Applied %d of %d operations to %s", applied, len(ops), StyleHighlight.Render(id))
	return sess, nil
}

// restore loads a stored session.
func (c *CLI) restore(ctx context.Context, store session.Store, id string) (*session.Session, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}
	snap, err := store.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "session %s", id)
	}
	return session.Restore(snap, c.sessionOptions())
}
