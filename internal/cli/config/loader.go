package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapgate/internal/classifier"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: LEAPGATE_DIAGNOSTICS__BUDGET=30s.
const EnvPrefix = "LEAPGATE_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configNames = []string{"leapgate.yaml", "leapgate.yml"}

// flagKeys maps command-line flags onto config keys. Flags not listed here
// are command arguments, not configuration.
var flagKeys = map[string]string{
	"output":      "output",
	"verbose":     "verbose",
	"log-level":   "log_level",
	"ledger":      "ledger_path",
	"upload-dir":  "upload_dir",
	"budget":      "diagnostics.budget",
	"workers":     "diagnostics.workers",
	"complexity":  "diagnostics.complexity",
	"disable":     "diagnostics.disabled",
	"max-file-mb": "loader.max_file_mb",
	"addr":        "server.addr",
	"otel":        "telemetry.endpoint",
}

// pathFlags are resolved against the working directory, not the config file.
var pathFlags = map[string]string{
	"ledger":     "ledger_path",
	"upload-dir": "upload_dir",
}

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store config in context.
type configKey struct{}

// findConfigFile returns the explicit path, or the first leapgate config
// found searching upward from startDir.
func findConfigFile(explicit, startDir string) string {
	if explicit != "" {
		return explicit
	}
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		for _, name := range configNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, ":memory:" or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func defaults() map[string]any {
	d := Default()
	m := map[string]any{
		"output":                 d.OutputFormat,
		"verbose":                false,
		"log_level":              d.LogLevel,
		"ledger_path":            d.LedgerPath,
		"upload_dir":             d.UploadDir,
		"diagnostics.budget":     d.Diagnostics.Budget.String(),
		"diagnostics.workers":    0,
		"diagnostics.complexity": false,
		"loader.max_file_mb":     d.Loader.MaxFileMB,
		"server.addr":            d.Server.Addr,
		"telemetry.endpoint":     "",
		"telemetry.disabled":     false,
	}
	for name, band := range thresholdBands(d.Diagnostics.Thresholds) {
		m["diagnostics.thresholds."+name+".warning"] = band.Warning
		m["diagnostics.thresholds."+name+".critical"] = band.Critical
	}
	return m
}

func thresholdBands(t classifier.Thresholds) map[string]classifier.Band {
	return map[string]classifier.Band{
		"missing":           t.Missing,
		"duplicates":        t.Duplicates,
		"constant":          t.Constant,
		"schema_anomaly":    t.SchemaAnomaly,
		"cardinality":       t.Cardinality,
		"outliers":          t.Outliers,
		"multicollinearity": t.Multicollinearity,
	}
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	configFile := findConfigFile(cfgFile, cwd)
	baseDir := cwd
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		if abs, err := filepath.Abs(configFile); err == nil {
			baseDir = filepath.Dir(abs)
		}
	}

	// 3. Environment variables
	// Transform: LEAPGATE_DIAGNOSTICS__BUDGET -> diagnostics.budget
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority), only those explicitly set
	flagPaths := map[string]string{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			if cfgKey, isPath := pathFlags[f.Name]; isPath {
				v := f.Value.String()
				if abs, err := filepath.Abs(v); err == nil && v != ":memory:" {
					v = abs
				}
				flagPaths[cfgKey] = v
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = configFile

	cfg.LedgerPath = resolvePathRelativeTo(cfg.LedgerPath, baseDir)
	cfg.UploadDir = resolvePathRelativeTo(cfg.UploadDir, baseDir)
	if v, ok := flagPaths["ledger_path"]; ok {
		cfg.LedgerPath = v
	}
	if v, ok := flagPaths["upload_dir"]; ok {
		cfg.UploadDir = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from the command context, or the defaults.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok && c != nil {
		return c
	}
	return Default()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// NewLogger builds the CLI logger: a text handler at the configured level,
// forced to debug by verbose.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
