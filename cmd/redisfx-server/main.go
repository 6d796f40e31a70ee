package main

import (
	"github.com/mertssmnoglu/redisfx/cmd/redisfx-server/subcommands"
	"github.com/spf13/cobra"
)

func main() {
	serveCmd := subcommands.CmdServe()

	rootCmd := &cobra.Command{ //nolint:exhaustruct
		Use:   "redisfx-server",
		Short: "redisfx is a RESP-compatible in-memory key/value server",
		Long:  "redisfx is a RESP-compatible in-memory key/value server.",
		RunE:  serveCmd.RunE,
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(subcommands.CmdVersion())

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
