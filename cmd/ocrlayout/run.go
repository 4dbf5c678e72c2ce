package main

import (
	"github.com/spf13/cobra"

	"github.com/tsawler/ocrlayout/internal/output"
	"github.com/tsawler/ocrlayout/jobs"
)

var runMultiDoc bool

var runCmd = &cobra.Command{
	Use:   "run <path-or-url>",
	Short: "Process a file, directory or URL and print the result",
	Long: `Process a file, a directory or a remote URL and print the result in the
same shape the job API returns.

A directory becomes one document whose pages are numbered across files in
name order. With --multi-doc every file becomes its own document.

Examples:
  ocrlayout run scan.pdf
  ocrlayout run ./scans --multi-doc -o json
  ocrlayout run https://example.com/invoice.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proc, closeDetector, err := buildProcessor(cfg)
		if err != nil {
			return err
		}
		defer closeDetector()

		docs, err := proc.Path(cmd.Context(), args[0], runMultiDoc)
		if err != nil {
			return err
		}

		return output.Write(cmd.OutOrStdout(), format, jobs.NewResult(docs))
	},
}

func init() {
	runCmd.Flags().BoolVar(&runMultiDoc, "multi-doc", false, "treat each file in a directory as its own document")

	rootCmd.AddCommand(runCmd)
}
