package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/ocrlayout/ingest"
	"github.com/tsawler/ocrlayout/internal/telemetry"
	"github.com/tsawler/ocrlayout/jobs"
	"github.com/tsawler/ocrlayout/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP job API",
	Long: `Start the HTTP job API and its worker pool.

Endpoints:
  GET  /                      health check
  GET  /status                queue depth and jobs in flight
  POST /ocr/                  submit {"path": ..., "single_file": ...} or a multipart upload
  GET  /ocr/{job_id}/         job status and result
  POST /ocr/abort/{task_id}/  abort a job

Jobs are kept in PostgreSQL when database.url is set (run "ocrlayout migrate
up" first) and in memory otherwise. When watch.dir is set, files dropped
there are submitted as jobs too. With telemetry.enabled, request and
pipeline spans are exported over OTLP to OTEL_EXPORTER_OTLP_ENDPOINT.

Examples:
  ocrlayout serve
  ocrlayout serve --addr :9000
  OCRLAYOUT_OCR_DETECTOR=remote OCRLAYOUT_OCR_REMOTE_URL=http://ocr:8866/detect ocrlayout serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		if cfg.Telemetry.Enabled {
			shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Protocol)
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					logger.Warn().Err(err).Msg("telemetry shutdown")
				}
			}()
		}

		spoolDir := filepath.Join(cfg.Media.Root, "tmp")
		if err := os.MkdirAll(spoolDir, 0o755); err != nil {
			return err
		}

		proc, closeDetector, err := buildProcessor(cfg)
		if err != nil {
			return err
		}
		defer closeDetector()

		store, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		uploads := ingest.NewStore(cfg.Media.Root)
		uploads.MaxBytes = cfg.Media.MaxUploadBytes()

		runner := jobs.NewRunner(store, proc, uploads, jobs.RunnerConfig{
			Workers:   cfg.Jobs.Workers,
			QueueSize: cfg.Jobs.QueueSize,
			Timeout:   cfg.Jobs.Timeout,
			Logger:    logger,
		})

		workerCtx, stopWorkers := context.WithCancel(context.Background())
		defer stopWorkers()
		runner.Start(workerCtx)

		if cfg.Jobs.Retention > 0 {
			janitor := jobs.NewJanitor(store, filepath.Join(cfg.Media.Root, ingest.UploadDir), cfg.Jobs.Retention, logger)
			if err := janitor.Start(cfg.Jobs.SweepSchedule); err != nil {
				return err
			}
			defer janitor.Stop()
		}

		if cfg.Watch.Dir != "" {
			multiDoc := cfg.Watch.MultiDoc
			watcher := ingest.NewWatcher(cfg.Watch.Dir, func(ctx context.Context, path string) error {
				_, err := runner.SubmitPath(ctx, path, multiDoc)
				return err
			}, logger)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					logger.Error().Err(err).Msg("watcher stopped")
				}
			}()
		}

		opts := server.Options{
			MaxUploadBytes: cfg.Media.MaxUploadBytes(),
			SpoolDir:       spoolDir,
			RateLimit:      cfg.Server.RateLimit,
			RateBurst:      cfg.Server.RateBurst,
			CORSOrigins:    cfg.Server.CORSOrigins,
			PathRoots:      cfg.Server.PathRoots,
		}
		if cfg.Server.OIDCIssuer != "" {
			auth, err := server.NewOIDCAuthenticator(ctx, cfg.Server.OIDCIssuer, cfg.Server.OIDCAudience)
			if err != nil {
				return err
			}
			opts.Auth = auth
		}

		srv := server.New(runner, logger, opts)
		err = srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

		// let running jobs finish their current step before the store closes
		stopWorkers()
		runner.Wait()

		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")

	rootCmd.AddCommand(serveCmd)
}
