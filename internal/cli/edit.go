package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chartpad/pkg/errors"
	pio "github.com/matzehuels/chartpad/pkg/io"
	"github.com/matzehuels/chartpad/pkg/session"
)

// editCommand creates the edit command.
func (c *CLI) editCommand() *cobra.Command {
	var (
		src       sourceFlags
		charts    chartFlags
		load      loadFlags
		sessionID string
		save      bool
		export    string
	)

	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a dataset interactively",
		Long: `Open a dataset or stored session in the terminal editor.

Click headers to hide or show them (hold and sweep to toggle several), drag
the ⠿ handle to reorder, and use the keyboard to rename, edit cells and
change the chart mapping. The chart summary on the right follows every
edit.`,
		Example: `  chartpad edit finance.csv
  chartpad edit finance.csv --save
  chartpad edit --session 2c1f...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				sess  *session.Session
				store session.Store
				name  string
				err   error
			)
			if sessionID != "" || save {
				if store, err = c.newStore(ctx); err != nil {
					return err
				}
				defer store.Close()
			}
			if sessionID != "" {
				if len(args) > 0 || src.query != "" {
					return errors.New(errors.ErrCodeInvalidInput, "pass either a dataset or --session, not both")
				}
				if sess, err = c.restore(ctx, store, sessionID); err != nil {
					return err
				}
				name = sessionID
			} else {
				s, err := c.source(src, args)
				if err != nil {
					return err
				}
				opts := c.pipelineOptions(charts)
				opts.Refresh = load.refresh
				res, err := c.execute(ctx, s, opts, load.noCache)
				if err != nil {
					return err
				}
				sess, name = res.Session, s.Name()
			}

			if err := runEditor(ctx, sess, name); err != nil {
				return err
			}

			if store != nil {
				prog := newProgress(loggerFromContext(ctx))
				if err := store.Set(ctx, sess.Snapshot()); err != nil {
					return err
				}
				prog.done("Saved session " + sess.ID())
				printSuccess("Session %s", StyleHighlight.Render(sess.ID()))
			}
			if export != "" {
				if err := pio.Export(sess.Dataset().Data(), export); err != nil {
					return err
				}
				printSuccess("Exported dataset")
				printFile(export)
			}
			return nil
		},
	}

	src.register(cmd)
	charts.register(cmd)
	load.register(cmd)
	cmd.Flags().StringVar(&sessionID, "session", "", "edit a stored session; changes are saved back")
	cmd.Flags().BoolVar(&save, "save", false, "store the edited dataset as a new session")
	cmd.Flags().StringVar(&export, "export", "", "write the edited dataset on exit (json, csv or xlsx by extension)")
	return cmd
}

// runEditor runs the editor full-screen until the user quits.
func runEditor(ctx context.Context, sess *session.Session, name string) error {
	p := tea.NewProgram(NewEditor(sess, name),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
