// Package config provides configuration management for the LeapGate CLI.
//
// Values are layered, lowest to highest precedence: built-in defaults, the
// leapgate.yaml file, LEAPGATE_ environment variables and explicitly set
// command-line flags.
package config

import (
	"time"

	"github.com/leapstack-labs/leapgate/internal/classifier"
	"github.com/leapstack-labs/leapgate/internal/telemetry"
)

// Config holds all CLI configuration options.
type Config struct {
	OutputFormat string            `koanf:"output" json:"output" yaml:"output"`
	Verbose      bool              `koanf:"verbose" json:"verbose" yaml:"verbose"`
	LogLevel     string            `koanf:"log_level" json:"log_level" yaml:"log_level"`
	LedgerPath   string            `koanf:"ledger_path" json:"ledger_path" yaml:"ledger_path"`
	UploadDir    string            `koanf:"upload_dir" json:"upload_dir" yaml:"upload_dir"`
	Diagnostics  DiagnosticsConfig `koanf:"diagnostics" json:"diagnostics" yaml:"diagnostics"`
	Loader       LoaderConfig      `koanf:"loader" json:"loader" yaml:"loader"`
	Server       ServerConfig      `koanf:"server" json:"server" yaml:"server"`
	Telemetry    telemetry.Config  `koanf:"telemetry" json:"telemetry" yaml:"telemetry"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-" json:"config_file,omitempty" yaml:"config_file,omitempty"`
}

// DiagnosticsConfig configures the diagnostic pipeline. Thresholds are
// fixed for the lifetime of each session built from this configuration.
type DiagnosticsConfig struct {
	Budget     time.Duration         `koanf:"budget" json:"budget" yaml:"budget"`
	Workers    int                   `koanf:"workers" json:"workers" yaml:"workers"`
	Complexity bool                  `koanf:"complexity" json:"complexity" yaml:"complexity"`
	Disabled   []string              `koanf:"disabled" json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Thresholds classifier.Thresholds `koanf:"thresholds" json:"thresholds" yaml:"thresholds"`
}

// LoaderConfig configures dataset file ingestion.
type LoaderConfig struct {
	MaxFileMB  int               `koanf:"max_file_mb" json:"max_file_mb" yaml:"max_file_mb"`
	Extensions []string          `koanf:"extensions" json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Settings   map[string]string `koanf:"settings" json:"settings,omitempty" yaml:"settings,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`
}

// Default configuration values.
const (
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel   = "warn"
	DefaultLedgerPath = ".leapgate/ledger.db"
	DefaultUploadDir  = ".leapgate/uploads"
	DefaultBudget     = 60 * time.Second
	DefaultMaxFileMB  = 512
	DefaultServerAddr = ":8080"
)

// AdapterParams returns the DuckDB adapter params for the loader section.
func (l LoaderConfig) AdapterParams() map[string]any {
	params := map[string]any{}
	if len(l.Extensions) > 0 {
		params["extensions"] = l.Extensions
	}
	if len(l.Settings) > 0 {
		params["settings"] = l.Settings
	}
	return params
}

// DisabledChecks returns the disabled check names as a set.
func (d DiagnosticsConfig) DisabledChecks() map[string]bool {
	if len(d.Disabled) == 0 {
		return nil
	}
	set := make(map[string]bool, len(d.Disabled))
	for _, name := range d.Disabled {
		set[name] = true
	}
	return set
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		LedgerPath:   DefaultLedgerPath,
		UploadDir:    DefaultUploadDir,
		Diagnostics: DiagnosticsConfig{
			Budget:     DefaultBudget,
			Thresholds: classifier.DefaultThresholds(),
		},
		Loader: LoaderConfig{MaxFileMB: DefaultMaxFileMB},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}
