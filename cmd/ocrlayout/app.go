package main

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tsawler/ocrlayout/config"
	"github.com/tsawler/ocrlayout/jobs"
	"github.com/tsawler/ocrlayout/layout"
	"github.com/tsawler/ocrlayout/ocr"
	"github.com/tsawler/ocrlayout/pipeline"
	"github.com/tsawler/ocrlayout/raster"
)

// buildDetector creates the configured detector. The returned close
// function releases it. A nil detector means only files that carry their
// own detections can be processed.
func buildDetector(c *config.Config) (ocr.Detector, func() error, error) {
	noop := func() error { return nil }

	var limiter *rate.Limiter
	if c.OCR.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.OCR.RateLimit), 1)
	}

	switch c.OCR.Detector {
	case config.DetectorNone:
		return nil, noop, nil

	case config.DetectorRemote:
		return ocr.NewLimitedDetector(limiter, ocr.NewRemoteDetector(c.OCR.RemoteURL)), noop, nil

	case config.DetectorTesseract:
		psm, err := ocr.ParsePageSegMode(c.OCR.PSM)
		if err != nil {
			return nil, nil, err
		}
		pool, err := ocr.NewPool(c.Jobs.Workers, func() (ocr.Detector, error) {
			client, err := newTesseract(c.OCR.Languages, psm)
			if err != nil {
				return nil, err
			}
			return client, nil
		})
		if errors.Is(err, ocr.ErrOCRNotEnabled) {
			logger.Warn().Msg("tesseract support not compiled in (build with -tags ocr); only hOCR and PaddleOCR JSON inputs can be processed")
			return nil, noop, nil
		}
		if err != nil {
			return nil, nil, err
		}
		logger.Debug().Int("clients", pool.Size()).Int("psm", int(psm)).Msg("tesseract ready")
		return ocr.NewLimitedDetector(limiter, pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown detector %q", c.OCR.Detector)
	}
}

// newTesseract creates one configured Tesseract client.
func newTesseract(langs []string, psm ocr.PageSegMode) (*ocr.Client, error) {
	client, err := ocr.New()
	if err != nil {
		return nil, err
	}
	if len(langs) > 0 {
		if err := client.SetLanguage(langs...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set OCR languages: %w", err)
		}
	}
	if err := client.SetPageSegMode(psm); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	return client, nil
}

// buildProcessor wires the detector, rasterizer and layout engine.
func buildProcessor(c *config.Config) (*pipeline.Processor, func() error, error) {
	detector, closeDetector, err := buildDetector(c)
	if err != nil {
		return nil, nil, err
	}

	proc := pipeline.New(detector,
		pipeline.WithAnalyzer(layout.NewAnalyzerWithConfig(c.AnalyzerConfig())),
		pipeline.WithRasterizer(raster.NewWithConfig(c.RasterConfig())),
		pipeline.WithLogger(logger),
	)
	return proc, closeDetector, nil
}

// openStore returns a PostgreSQL job store when a database URL is
// configured, otherwise an in-memory one.
func openStore(c *config.Config) (jobs.Store, func() error, error) {
	if c.Database.URL == "" {
		logger.Info().Msg("no database configured, keeping jobs in memory")
		return jobs.NewMemoryStore(), func() error { return nil }, nil
	}

	db, err := jobs.OpenPostgres(c.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	store := jobs.NewGormStore(db)
	return store, store.Close, nil
}
