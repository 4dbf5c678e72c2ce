package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tsawler/ocrlayout/config"
	"github.com/tsawler/ocrlayout/internal/logging"
	"github.com/tsawler/ocrlayout/internal/output"
	"github.com/tsawler/ocrlayout/internal/version"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string

	cfg    *config.Config
	logger zerolog.Logger
	format output.Format
)

var rootCmd = &cobra.Command{
	Use:   "ocrlayout",
	Short: "Reconstruct readable text layout from OCR line detections",
	Long: `ocrlayout turns PDFs and images into laid out text.

Pages are rasterized and run through a text-line detector (Tesseract or a
remote service). The detected lines are realigned into rows, put into
reading order and rendered with spacing that follows the page geometry.
Files that already carry detections (hOCR, PaddleOCR JSON) skip detection.

Results can be produced directly from the command line or through an HTTP
job API backed by a worker pool.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if format, err = output.Parse(outputFormat); err != nil {
			return err
		}

		if cfg, err = config.Load(cfgFile); err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = logging.New(os.Stderr, cfg.Env, cfg.LogLevel)

		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml if present)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level override (debug, info, warn, error)",
	)
}

