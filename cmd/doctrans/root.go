package main

import (
	"os"

	"github.com/spf13/cobra"

	"doctrans/internal/version"
)

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "doctrans",
		Short:        "Document translation service",
		SilenceUsage: true,
	}

	cmd.Version = version.Info()
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(newServeCmd())
	return cmd
}
