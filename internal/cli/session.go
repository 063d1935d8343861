package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chartpad/pkg/config"
	"github.com/matzehuels/chartpad/pkg/errors"
	"github.com/matzehuels/chartpad/pkg/session"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"sessions"},
		Short:   "Manage stored editing sessions",
	}

	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionDeleteCommand())
	cmd.AddCommand(c.sessionPathCommand())
	cmd.AddCommand(c.sessionCleanupCommand())

	return cmd
}

func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No sessions")
				return nil
			}
			fmt.Println(renderSessions(list))
			return nil
		},
	}
}

func (c *CLI) sessionShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show the chart of a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := c.restore(ctx, store, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeSpec(sess.Spec(), "")
			}
			printKeyValue("Session", sess.ID())
			printKeyValue("Created", sess.CreatedAt().Format(time.DateTime))
			printKeyValue("Updated", sess.UpdatedAt().Format(time.DateTime))
			printNewline()
			fmt.Println(renderSpecSummary(sess.Spec()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the chart spec as JSON")
	return cmd
}

func (c *CLI) sessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete stored sessions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := errors.ValidateSessionID(id); err != nil {
					return err
				}
			}
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := store.Delete(cmd.Context(), id); err != nil {
					printError("%s: %s", id, errors.UserMessage(err))
					continue
				}
				printSuccess("Deleted %s", id)
			}
			return nil
		},
	}
}

func (c *CLI) sessionCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.newStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Cleanup(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Removed expired sessions")
			return nil
		},
	}
}

// sessionPathCommand prints where sessions live. Only the file backend
// keeps sessions on disk.
func (c *CLI) sessionPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path [ID]",
		Short: "Print the session directory, or the file of one session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Store.Backend != config.BackendFile {
				printWarning("store backend is %s; sessions are not files", c.Config.Store.Backend)
				return nil
			}
			store, err := session.NewFileStore(c.Config.SessionDir(), c.Config.Store.TTL.Duration)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Println(store.Path())
				return nil
			}
			path, err := store.SessionPath(args[0])
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}
