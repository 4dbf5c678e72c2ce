package main

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tsawler/ocrlayout/ingest"
	"github.com/tsawler/ocrlayout/internal/output"
	"github.com/tsawler/ocrlayout/jobs"
)

var watchMultiDoc bool

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Process files as they appear in a directory",
	Long: `Watch a directory and print a result for every supported file written
into it, once the file has stopped changing. The directory defaults to
watch.dir from the configuration.

Example:
  ocrlayout watch ./inbox -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Watch.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return cmd.Usage()
		}
		multiDoc := watchMultiDoc || cfg.Watch.MultiDoc

		proc, closeDetector, err := buildProcessor(cfg)
		if err != nil {
			return err
		}
		defer closeDetector()

		var mu sync.Mutex
		out := cmd.OutOrStdout()
		watcher := ingest.NewWatcher(dir, func(ctx context.Context, path string) error {
			docs, err := proc.Path(ctx, path, multiDoc)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			return output.Write(out, format, jobs.NewResult(docs))
		}, logger)

		return watcher.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchMultiDoc, "multi-doc", false, "treat each file as its own document")

	rootCmd.AddCommand(watchCmd)
}
