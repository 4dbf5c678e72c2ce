// Package config loads service configuration from defaults, an optional
// YAML file, a .env file and OCRLAYOUT_ environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tsawler/ocrlayout/layout"
	"github.com/tsawler/ocrlayout/ocr"
	"github.com/tsawler/ocrlayout/raster"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "OCRLAYOUT"

// Config is the complete service configuration.
type Config struct {
	Env      string         `mapstructure:"env"`
	LogLevel string         `mapstructure:"log_level"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Media    MediaConfig    `mapstructure:"media"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	RateLimit    float64       `mapstructure:"rate_limit"` // requests per second, 0 disables
	RateBurst    int           `mapstructure:"rate_burst"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	OIDCIssuer   string        `mapstructure:"oidc_issuer"` // empty disables authentication
	OIDCAudience string        `mapstructure:"oidc_audience"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PathRoots    []string      `mapstructure:"path_roots"` // empty accepts any path or URL
}

// DatabaseConfig selects the job store. An empty URL keeps jobs in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// MediaConfig configures upload storage.
type MediaConfig struct {
	Root        string `mapstructure:"root"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

// MaxUploadBytes returns the upload limit in bytes, zero for none.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return m.MaxUploadMB << 20
}

// JobsConfig configures the worker pool and retention.
type JobsConfig struct {
	Workers       int           `mapstructure:"workers"` // also the number of tesseract clients
	QueueSize     int           `mapstructure:"queue_size"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Retention     time.Duration `mapstructure:"retention"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
}

// OCRConfig selects and tunes the detector.
type OCRConfig struct {
	Detector  string   `mapstructure:"detector"` // tesseract, remote or none
	Languages []string `mapstructure:"languages"`
	PSM       int      `mapstructure:"psm"` // tesseract page segmentation mode, 0-13
	RemoteURL string   `mapstructure:"remote_url"`
	RateLimit float64  `mapstructure:"rate_limit"` // detections per second, 0 disables
	Scale     float64  `mapstructure:"scale"`
	PDFToPPM  string   `mapstructure:"pdftoppm"`
}

// LayoutConfig tunes the layout engine.
type LayoutConfig struct {
	YThreshold    float64 `mapstructure:"y_threshold"`
	BandThreshold int     `mapstructure:"band_threshold"`
	SpaceDivisor  int     `mapstructure:"space_divisor"`
	BandMatch     string  `mapstructure:"band_match"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	Dir      string `mapstructure:"dir"`
	MultiDoc bool   `mapstructure:"multi_doc"`
}

// TelemetryConfig enables OpenTelemetry trace export. The collector
// endpoint comes from the standard OTEL_EXPORTER_OTLP_* variables.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Protocol    string `mapstructure:"protocol"` // http or grpc
}

// Detector names.
const (
	DetectorTesseract = "tesseract"
	DetectorRemote    = "remote"
	DetectorNone      = "none"
)

// Default returns the built-in configuration.
func Default() Config {
	analyzer := layout.DefaultAnalyzerConfig()
	rast := raster.DefaultConfig()

	return Config{
		Env:      "development",
		LogLevel: "info",
		Server: ServerConfig{
			Addr:         ":8000",
			RateLimit:    20,
			RateBurst:    40,
			CORSOrigins:  []string{"*"},
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: time.Minute,
		},
		Media: MediaConfig{
			Root:        "media",
			MaxUploadMB: 512,
		},
		Jobs: JobsConfig{
			Workers:       2,
			QueueSize:     100,
			Timeout:       30 * time.Minute,
			Retention:     7 * 24 * time.Hour,
			SweepSchedule: "@hourly",
		},
		OCR: OCRConfig{
			Detector:  DetectorTesseract,
			Languages: []string{"eng"},
			PSM:       int(ocr.PSM_AUTO),
			Scale:     rast.Scale,
			PDFToPPM:  rast.PDFToPPM,
		},
		Layout: LayoutConfig{
			YThreshold:    analyzer.RealignConfig.YThreshold,
			BandThreshold: analyzer.ComposeConfig.BandThreshold,
			SpaceDivisor:  analyzer.ComposeConfig.SpaceDivisor,
			BandMatch:     analyzer.ComposeConfig.Match.String(),
		},
		Telemetry: TelemetryConfig{
			ServiceName: "ocrlayout",
			Protocol:    "http",
		},
	}
}

// Load reads the configuration. cfgFile may be empty, in which case
// config.yaml is looked up in the working directory and $HOME/.ocrlayout
// and is optional. A .env file in the working directory is loaded into the
// environment first when present.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ocrlayout")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("env", d.Env)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.oidc_issuer", d.Server.OIDCIssuer)
	v.SetDefault("server.oidc_audience", d.Server.OIDCAudience)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.path_roots", d.Server.PathRoots)

	v.SetDefault("database.url", d.Database.URL)

	v.SetDefault("media.root", d.Media.Root)
	v.SetDefault("media.max_upload_mb", d.Media.MaxUploadMB)

	v.SetDefault("jobs.workers", d.Jobs.Workers)
	v.SetDefault("jobs.queue_size", d.Jobs.QueueSize)
	v.SetDefault("jobs.timeout", d.Jobs.Timeout)
	v.SetDefault("jobs.retention", d.Jobs.Retention)
	v.SetDefault("jobs.sweep_schedule", d.Jobs.SweepSchedule)

	v.SetDefault("ocr.detector", d.OCR.Detector)
	v.SetDefault("ocr.languages", d.OCR.Languages)
	v.SetDefault("ocr.psm", d.OCR.PSM)
	v.SetDefault("ocr.remote_url", d.OCR.RemoteURL)
	v.SetDefault("ocr.rate_limit", d.OCR.RateLimit)
	v.SetDefault("ocr.scale", d.OCR.Scale)
	v.SetDefault("ocr.pdftoppm", d.OCR.PDFToPPM)

	v.SetDefault("layout.y_threshold", d.Layout.YThreshold)
	v.SetDefault("layout.band_threshold", d.Layout.BandThreshold)
	v.SetDefault("layout.space_divisor", d.Layout.SpaceDivisor)
	v.SetDefault("layout.band_match", d.Layout.BandMatch)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("telemetry.protocol", d.Telemetry.Protocol)

	v.SetDefault("watch.dir", d.Watch.Dir)
	v.SetDefault("watch.multi_doc", d.Watch.MultiDoc)
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.OCR.Detector {
	case DetectorTesseract, DetectorNone:
	case DetectorRemote:
		if c.OCR.RemoteURL == "" {
			return errors.New("ocr.remote_url is required for the remote detector")
		}
	default:
		return fmt.Errorf("unknown ocr.detector %q (use tesseract, remote or none)", c.OCR.Detector)
	}

	if _, err := ocr.ParsePageSegMode(c.OCR.PSM); err != nil {
		return fmt.Errorf("ocr.psm: %w", err)
	}

	switch strings.ToLower(c.Layout.BandMatch) {
	case "first", "nearest":
	default:
		return fmt.Errorf("unknown layout.band_match %q (use first or nearest)", c.Layout.BandMatch)
	}

	switch strings.ToLower(c.Telemetry.Protocol) {
	case "http", "grpc":
	default:
		return fmt.Errorf("unknown telemetry.protocol %q (use http or grpc)", c.Telemetry.Protocol)
	}

	if c.Layout.BandThreshold <= 0 {
		return errors.New("layout.band_threshold must be positive")
	}
	if c.Layout.SpaceDivisor <= 0 {
		return errors.New("layout.space_divisor must be positive")
	}
	if c.OCR.Scale <= 0 {
		return errors.New("ocr.scale must be positive")
	}
	return nil
}

// AnalyzerConfig returns the layout engine configuration.
func (c *Config) AnalyzerConfig() layout.AnalyzerConfig {
	cfg := layout.DefaultAnalyzerConfig()
	cfg.RealignConfig.YThreshold = c.Layout.YThreshold
	cfg.ComposeConfig.BandThreshold = c.Layout.BandThreshold
	cfg.ComposeConfig.SpaceDivisor = c.Layout.SpaceDivisor
	cfg.ComposeConfig.Match = layout.ParseBandMatch(c.Layout.BandMatch)
	return cfg
}

// RasterConfig returns the rasterizer configuration.
func (c *Config) RasterConfig() raster.Config {
	return raster.Config{
		Scale:    c.OCR.Scale,
		PDFToPPM: c.OCR.PDFToPPM,
	}
}
