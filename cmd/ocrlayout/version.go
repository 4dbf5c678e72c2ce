package main

import (
	"github.com/spf13/cobra"

	"github.com/tsawler/ocrlayout/internal/output"
	"github.com/tsawler/ocrlayout/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.Write(cmd.OutOrStdout(), format, version.Get())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
