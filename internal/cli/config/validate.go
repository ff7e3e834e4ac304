package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapgate/internal/classifier"
)

var outputModes = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if !contains(outputModes, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("output must be one of %s, got %q", strings.Join(outputModes, ", "), c.OutputFormat))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Diagnostics.Budget <= 0 {
		errs = append(errs, fmt.Errorf("diagnostics.budget must be positive, got %s", c.Diagnostics.Budget))
	}
	if c.Diagnostics.Workers < 0 {
		errs = append(errs, fmt.Errorf("diagnostics.workers must not be negative, got %d", c.Diagnostics.Workers))
	}
	if err := c.Diagnostics.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("diagnostics.thresholds: %w", err))
	}
	if err := classifier.ValidateDisabled(c.Diagnostics.Disabled); err != nil {
		errs = append(errs, fmt.Errorf("diagnostics.disabled: %w", err))
	}
	if c.Loader.MaxFileMB <= 0 {
		errs = append(errs, fmt.Errorf("loader.max_file_mb must be positive, got %d", c.Loader.MaxFileMB))
	}

	return errors.Join(errs...)
}

// ParseLevel converts a log_level value into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", s)
	}
	return level, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
