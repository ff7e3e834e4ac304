package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapgate/internal/classifier"
	"github.com/leapstack-labs/leapgate/internal/cli/output"
	"github.com/leapstack-labs/leapgate/internal/loader"
	"github.com/leapstack-labs/leapgate/internal/session"
	"github.com/leapstack-labs/leapgate/pkg/core"
)

var titleCaser = cases.Title(language.English)

// categoryTitle turns "constant-features" into "Constant Features".
func categoryTitle(c core.Category) string {
	return titleCaser.String(strings.ReplaceAll(string(c), "-", " "))
}

func verdictStyle(styles *output.Styles, v core.Verdict) lipgloss.Style {
	switch v {
	case core.VerdictAllowed:
		return styles.Success.Bold(true)
	case core.VerdictConstrained:
		return styles.Warning.Bold(true)
	case core.VerdictBlocked:
		return styles.Error.Bold(true)
	default:
		return styles.Muted
	}
}

func formatMetric(f core.Finding) string {
	switch f.Category {
	case core.CategorySize:
		return strconv.Itoa(int(f.Metric)) + " rows"
	case core.CategoryFeatureMix:
		return strconv.Itoa(int(f.Metric)) + " features"
	default:
		return fmt.Sprintf("%.1f%%", f.Metric*100)
	}
}

func findingDetail(f core.Finding) string {
	detail := f.Details
	if len(f.AffectedColumns) > 0 {
		detail += " [" + strings.Join(f.AffectedColumns, ", ") + "]"
	}
	return detail
}

// renderReport writes a diagnostic report in the renderer's mode.
func renderReport(r *output.Renderer, rep core.Report) error {
	if ok, err := r.Structured(rep); ok {
		return err
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		renderReportMarkdown(r, rep)
		return nil
	}
	renderReportText(r, rep)
	return nil
}

func renderReportText(r *output.Renderer, rep core.Report) {
	styles := r.Styles()
	facts := rep.KeyFacts

	r.Println("")
	r.Header(1, "Diagnostic Report")
	r.Printf("   Dataset: %s | Target: %s\n", rep.Dataset, rep.Target)
	r.Printf("   Verdict: %s\n", verdictStyle(styles, rep.Verdict).Render(rep.Verdict.String()))
	r.Printf("   Checks: %d | %s | %s | %s\n",
		rep.Summary.Total,
		styles.Error.Render(fmt.Sprintf("%d critical", rep.Summary.Critical)),
		styles.Warning.Render(fmt.Sprintf("%d warning", rep.Summary.Warning)),
		styles.Success.Render(fmt.Sprintf("%d safe", rep.Summary.Safe)))
	r.Println("")

	r.Header(2, "Key Facts")
	r.Printf("   Size: %s (%s)\n", facts.Size.Shape, facts.Size.Scale)
	r.Printf("   Memory: %.2f MB (%s)\n", facts.Memory.UsageMB, facts.Memory.Class)
	r.Printf("   Feature mix: %s (%.0f%% numeric, %.0f%% categorical)\n",
		facts.FeatureMix.Type, facts.FeatureMix.NumericRatio*100, facts.FeatureMix.CategoricalRatio*100)
	r.Println("")

	sections := []struct {
		title    string
		status   string
		findings []core.Finding
	}{
		{"Critical", "failed", rep.Critical},
		{"Warnings", "warning", rep.Warning},
		{"Passed", "success", rep.Passed},
	}
	for _, sec := range sections {
		if len(sec.findings) == 0 {
			continue
		}
		r.Header(2, fmt.Sprintf("%s (%d)", sec.title, len(sec.findings)))
		for _, f := range sec.findings {
			r.StatusLine(fmt.Sprintf("%s: %s", categoryTitle(f.Category), f.Title), sec.status, formatMetric(f))
			if sec.status != "success" {
				r.Println("      " + findingDetail(f))
			}
		}
		r.Println("")
	}
}

func renderReportMarkdown(r *output.Renderer, rep core.Report) {
	facts := rep.KeyFacts

	r.Header(1, "Diagnostic Report")
	r.Println(output.FormatKeyValue("Dataset", rep.Dataset))
	r.Println(output.FormatKeyValue("Target", rep.Target))
	r.Println(output.FormatKeyValue("Verdict", rep.Verdict.String()))
	r.Println(output.FormatKeyValue("Checks", fmt.Sprintf("%d total, %d critical, %d warning, %d safe",
		rep.Summary.Total, rep.Summary.Critical, rep.Summary.Warning, rep.Summary.Safe)))
	r.Println("")

	r.Header(2, "Key Facts")
	r.Println(output.FormatKeyValue("Size", fmt.Sprintf("%s (%s)", facts.Size.Shape, facts.Size.Scale)))
	r.Println(output.FormatKeyValue("Memory", fmt.Sprintf("%.2f MB (%s)", facts.Memory.UsageMB, facts.Memory.Class)))
	r.Println(output.FormatKeyValue("Feature mix", facts.FeatureMix.Type))
	r.Println("")

	r.Header(2, "Findings")
	var rows [][]string
	for _, group := range [][]core.Finding{rep.Critical, rep.Warning, rep.Passed} {
		for _, f := range group {
			rows = append(rows, []string{
				f.Severity.String(), f.CheckName, categoryTitle(f.Category), formatMetric(f), findingDetail(f),
			})
		}
	}
	r.Table([]string{"Severity", "Check", "Category", "Metric", "Details"}, rows)
	r.Println("")
}

// renderColumns writes the inferred column schema.
func renderColumns(r *output.Renderer, dataset string, cols []core.Column) error {
	if ok, err := r.Structured(map[string]any{"dataset": dataset, "columns": cols}); ok {
		return err
	}
	r.Header(1, fmt.Sprintf("Columns of %s (%d)", dataset, len(cols)))
	rows := make([][]string, len(cols))
	for i, c := range cols {
		rows[i] = []string{strconv.Itoa(i + 1), c.Name, string(c.Type)}
	}
	r.Table([]string{"#", "Column", "Type"}, rows)
	return nil
}

// renderSnapshot writes the session state in one line.
func renderSnapshot(r *output.Renderer, snap session.Snapshot) error {
	if ok, err := r.Structured(snap); ok {
		return err
	}
	parts := []string{"state " + snap.State.String()}
	if snap.Dataset != "" {
		parts = append(parts, fmt.Sprintf("dataset %s (%d x %d)", snap.Dataset, snap.Rows, snap.Columns))
	}
	if snap.Target != "" {
		parts = append(parts, "target "+snap.Target)
	}
	if snap.Verdict.IsSet() {
		parts = append(parts, "verdict "+snap.Verdict.String())
	}
	r.Println(strings.Join(parts, " | "))
	return nil
}

// renderRecords writes ledger entries, newest first.
func renderRecords(r *output.Renderer, records []core.DiagnosticRecord) error {
	if records == nil {
		records = []core.DiagnosticRecord{}
	}
	if ok, err := r.Structured(records); ok {
		return err
	}
	r.Header(1, fmt.Sprintf("Decision History (%d)", len(records)))
	if len(records) == 0 {
		r.Muted("No decisions recorded yet.")
		return nil
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		event := "diagnostics"
		if rec.Authorized != nil {
			event = "authorization denied"
			if *rec.Authorized {
				event = "authorization granted"
			}
		}
		rows[i] = []string{
			rec.CreatedAt.Local().Format(time.DateTime),
			event,
			rec.Dataset,
			rec.Target,
			rec.Verdict.String(),
			fmt.Sprintf("%d/%d/%d", rec.Summary.Critical, rec.Summary.Warning, rec.Summary.Safe),
			shortID(rec.ID),
		}
	}
	r.Table([]string{"Time", "Event", "Dataset", "Target", "Verdict", "C/W/S", "ID"}, rows)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// renderThresholds writes the effective classification thresholds.
func renderThresholds(r *output.Renderer, t classifier.Thresholds) error {
	if ok, err := r.Structured(t); ok {
		return err
	}
	r.Header(1, "Classification Thresholds")
	bands := []struct {
		name string
		band classifier.Band
	}{
		{"missing", t.Missing},
		{"duplicates", t.Duplicates},
		{"constant", t.Constant},
		{"schema_anomaly", t.SchemaAnomaly},
		{"cardinality", t.Cardinality},
		{"outliers", t.Outliers},
		{"multicollinearity", t.Multicollinearity},
	}
	rows := make([][]string, len(bands))
	for i, b := range bands {
		rows[i] = []string{b.name, percent(b.band.Warning), percent(b.band.Critical)}
	}
	r.Table([]string{"Metric", "Warning from", "Critical from"}, rows)
	return nil
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', -1, 64) + "%"
}

// renderFormats writes the supported dataset formats.
func renderFormats(r *output.Renderer, formats []loader.FormatInfo) error {
	if ok, err := r.Structured(formats); ok {
		return err
	}
	r.Header(1, "Supported Formats")
	rows := make([][]string, len(formats))
	for i, f := range formats {
		rows[i] = []string{string(f.Format), f.Kind, strings.Join(f.Extensions, " "), f.Description}
	}
	r.Table([]string{"Format", "Kind", "Extensions", "Description"}, rows)
	return nil
}
