package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags; left at "dev" otherwise.
var Version = "dev"

func CmdVersion() *cobra.Command {
	versionCmd := &cobra.Command{ //nolint:exhaustruct
		Use:   "version",
		Short: "Prints the server version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), Version)

			return nil
		},
	}

	return versionCmd
}
