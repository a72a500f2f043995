package config

import "errors"

// Config is the top-level configuration struct for layerlint.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	// Layers is the path of the layer definition file, relative to the
	// working directory unless absolute.
	Layers string       `mapstructure:"layers"`
	Scan   ScanConfig   `mapstructure:"scan"`
	Report ReportConfig `mapstructure:"report"`
}

// ScanConfig holds source tree scanning knobs.
type ScanConfig struct {
	Workers     int `mapstructure:"workers"`
	MaxFileSize int `mapstructure:"max_file_size"`
}

// ReportConfig holds output rendering settings.
type ReportConfig struct {
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// Default values applied when neither the config file nor the environment
// sets a key.
const (
	DefaultScanWorkers     = 4
	DefaultScanMaxFileSize = 1 << 20
	DefaultReportFormat    = "text"
	DefaultLayersFile      = "layers.yaml"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("scan.workers must be non-negative")
	// ErrInvalidMaxFileSize indicates the file size cap is negative.
	ErrInvalidMaxFileSize = errors.New("scan.max_file_size must be non-negative")
	// ErrInvalidFormat indicates the report format is not supported.
	ErrInvalidFormat = errors.New("report.format must be text or json")
	// ErrEmptyLayersFile indicates the layer definition path is empty.
	ErrEmptyLayersFile = errors.New("layers file path must not be empty")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Layers == "" {
		return ErrEmptyLayersFile
	}

	if c.Scan.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Scan.MaxFileSize < 0 {
		return ErrInvalidMaxFileSize
	}

	if c.Report.Format != "text" && c.Report.Format != "json" {
		return ErrInvalidFormat
	}

	return nil
}
