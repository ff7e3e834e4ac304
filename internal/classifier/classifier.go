// Package classifier maps profiler metrics onto severity-rated findings.
//
// Classification is a pure lookup: every applicable check emits exactly one
// finding, SAFE included, so the passed set is explicit rather than inferred
// by absence.
package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/leapgate/internal/profiler"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

// Config holds classifier configuration.
type Config struct {
	// Thresholds takes the default for every band left zero.
	Thresholds Thresholds
	// DisabledChecks contains check names to skip. Only complexity and
	// optional checks may be disabled.
	DisabledChecks map[string]bool
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Classifier evaluates the built-in checks against a set of metrics.
type Classifier struct {
	thresholds Thresholds
	checks     []Check
	logger     *slog.Logger
}

// New creates a classifier. Thresholds are validated once and fixed for the
// classifier's lifetime.
func New(cfg Config) (*Classifier, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := cfg.Thresholds.WithDefaults()
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	disabled := make([]string, 0, len(cfg.DisabledChecks))
	for name, off := range cfg.DisabledChecks {
		if off {
			disabled = append(disabled, name)
		}
	}
	sort.Strings(disabled)
	if err := ValidateDisabled(disabled); err != nil {
		return nil, fmt.Errorf("invalid disabled checks: %w", err)
	}

	var checks []Check
	for _, c := range Checks() {
		if cfg.DisabledChecks[c.Name] {
			continue
		}
		checks = append(checks, c)
	}

	return &Classifier{thresholds: t, checks: checks, logger: logger}, nil
}

// Thresholds returns the threshold table in effect.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify evaluates every applicable check and returns findings in check order.
// Complexity checks run only when m carries a complexity profile.
func (c *Classifier) Classify(m *profiler.Metrics) ([]core.Finding, error) {
	if m == nil {
		return nil, errors.New("no metrics to classify")
	}

	findings := make([]core.Finding, 0, len(c.checks))
	for _, check := range c.checks {
		if check.Complexity && m.Complexity == nil {
			continue
		}
		if check.Applies != nil && !check.Applies(m) {
			continue
		}
		f := check.Evaluate(m, c.thresholds)
		f.CheckName = check.Name
		f.Title = check.Title
		f.Category = check.Category
		findings = append(findings, f.Clone())

		c.logger.Debug("check evaluated",
			slog.String("check", check.Name),
			slog.String("severity", f.Severity.String()),
			slog.Float64("metric", f.Metric))
	}
	return findings, nil
}
