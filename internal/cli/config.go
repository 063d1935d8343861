package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chartpad/pkg/config"
)

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.Config.Encode()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file in use, or the search paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.configFrom != "" {
				fmt.Println(c.configFrom)
				return nil
			}
			printInfo("No config file; using defaults. Searched:")
			for _, p := range config.SearchPaths() {
				printFile(p)
			}
			return nil
		},
	})

	return cmd
}
