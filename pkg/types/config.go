// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DefaultMaxFileSize is the upload limit applied by transports (20 MiB).
const DefaultMaxFileSize int64 = 20 * 1024 * 1024

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// Strategies lists extraction strategy names in the order they are tried
	// (tabula, pdftext, mupdf).
	Strategies []string `json:"strategies" yaml:"strategies" mapstructure:"strategies"`
}

// OfficeConfig holds settings for the external document converter.
type OfficeConfig struct {
	// Binaries lists converter executables in preference order.
	Binaries []string `json:"binaries" yaml:"binaries" mapstructure:"binaries"`

	// Timeout bounds a single converter invocation.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// ProbeInterval is how long an availability probe result is reused.
	ProbeInterval time.Duration `json:"probe_interval" yaml:"probe_interval" mapstructure:"probe_interval"`

	// Disabled skips the converter entirely and always uses the rename
	// fallback.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// LimitsConfig holds input validation limits enforced by transports.
type LimitsConfig struct {
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size" mapstructure:"max_file_size"`
}

// ServerConfig holds settings for the HTTP upload service.
type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`

	// APIToken, when set, is required as a bearer token on conversion
	// requests. It is normally loaded from .secrets/api-token.
	APIToken string `json:"-" yaml:"-" mapstructure:"api_token"`
}

// LogConfig selects the log level and output format (console or json).
type LogConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level"`
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for the pdf2doc binary.
type Config struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Office     OfficeConfig     `json:"office" yaml:"office" mapstructure:"office"`
	Limits     LimitsConfig     `json:"limits" yaml:"limits" mapstructure:"limits"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() Config {
	return Config{
		Extraction: ExtractionConfig{
			Strategies: []string{"tabula", "pdftext"},
		},
		Office: OfficeConfig{
			Binaries:      []string{"libreoffice", "soffice"},
			Timeout:       60 * time.Second,
			ProbeInterval: 30 * time.Second,
		},
		Limits: LimitsConfig{
			MaxFileSize: DefaultMaxFileSize,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
