package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var composeCmd = &cobra.Command{
	Use:   "compose <file>",
	Short: "Print the laid out text of a file",
	Long: `Print only the composited text of a file, pages separated by a blank line.

This is handy with files that already carry detections:

  ocrlayout compose page.hocr
  ocrlayout compose paddle-output.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proc, closeDetector, err := buildProcessor(cfg)
		if err != nil {
			return err
		}
		defer closeDetector()

		doc, err := proc.Document(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), doc.Text())
		return err
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)
}
