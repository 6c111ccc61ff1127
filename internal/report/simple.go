package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/leaklens/leaklens/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting and a severity-ordered finding list.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.PrivacyReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeScore(&sb, report)
	w.writeSummary(&sb, report)
	w.writeProbes(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.PrivacyReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         LEAKLENS REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Scan ID:   %s\n", report.ID))
	sb.WriteString(fmt.Sprintf("Scan Date: %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST")))
	if report.SnapshotPath != "" {
		sb.WriteString(fmt.Sprintf("Snapshot:  %s\n", report.SnapshotPath))
	}

	if report.TimedOut {
		sb.WriteString("Status:    TIMED OUT (partial results)\n")
	} else if report.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:    ERROR - %s\n", report.ErrorMessage))
	} else {
		sb.WriteString("Status:    Complete\n")
	}

	sb.WriteString("\n")
}

// writeScore writes the privacy score and its category breakdown.
func (w *SimpleWriter) writeScore(sb *strings.Builder, report *model.PrivacyReport) {
	score := report.DisplayScore()
	if score == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PRIVACY SCORE\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Score:      %d / %d\n", score.Total, model.MaxTotal))
	sb.WriteString(fmt.Sprintf("  Risk Level: %s\n", strings.ToUpper(score.RiskLevelText)))
	if report.ServerScore != nil && report.Score != nil &&
		report.ServerScore.Total != report.Score.Total {
		sb.WriteString(fmt.Sprintf("  (local score %d differs from server cross-check)\n", report.Score.Total))
	}
	sb.WriteString("\n")

	b := score.Breakdown
	sb.WriteString(fmt.Sprintf("  IP Privacy:             %s\n", scoreBar(b.IPPrivacy, model.MaxIPPrivacy)))
	sb.WriteString(fmt.Sprintf("  DNS Privacy:            %s\n", scoreBar(b.DNSPrivacy, model.MaxDNSPrivacy)))
	sb.WriteString(fmt.Sprintf("  WebRTC Privacy:         %s\n", scoreBar(b.WebRTCPrivacy, model.MaxWebRTCPrivacy)))
	sb.WriteString(fmt.Sprintf("  Fingerprint Resistance: %s\n", scoreBar(b.FingerprintResistance, model.MaxFingerprintResistance)))
	sb.WriteString(fmt.Sprintf("  Browser Configuration:  %s\n", scoreBar(b.BrowserConfig, model.MaxBrowserConfig)))
	sb.WriteString("\n")
}

// scoreBar renders a fixed-width bar with the numeric value alongside.
func scoreBar(value, maxValue int) string {
	const width = 20

	filled := 0
	if maxValue > 0 {
		filled = value * width / maxValue
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return fmt.Sprintf("[%s%s] %2d/%d",
		strings.Repeat("#", filled),
		strings.Repeat(".", width-filled),
		value, maxValue)
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.PrivacyReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  CRITICAL: %d\n", report.CriticalCount))
	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", report.HighCount))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", report.MediumCount))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", report.LowCount))
	sb.WriteString(fmt.Sprintf("  INFO:     %d\n", report.InfoCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n", len(report.Findings)))
	sb.WriteString("\n")
}

// writeProbes writes the per-probe lifecycle table.
func (w *SimpleWriter) writeProbes(sb *strings.Builder, report *model.PrivacyReport) {
	if len(report.Probes) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PROBES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	names := make([]string, 0, len(report.Probes))
	for name := range report.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		record := report.Probes[name]
		line := fmt.Sprintf("  %-14s %-8s %s", name, record.Status, record.Duration.Round(time.Millisecond))
		if record.Error != "" {
			line += "  (" + record.Error + ")"
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.PrivacyReport) {
	if len(report.Findings) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := findingsBySeverity(report, severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// findingsBySeverity returns report findings at exactly the given severity.
func findingsBySeverity(report *model.PrivacyReport, severity model.Severity) []model.Finding {
	var out []model.Finding
	for _, f := range report.Findings {
		if f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	indicator := w.getSeverityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, severity.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s\n", finding.Title))
		if finding.Value != "" {
			sb.WriteString(fmt.Sprintf("    Value: %s\n", finding.Value))
		}
		if finding.Source != "" {
			sb.WriteString(fmt.Sprintf("    Source: %s\n", finding.Source))
		}
		if finding.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("    Recommendation: %s\n", finding.Recommendation))
		}
		if w.verbose && finding.Impact != "" {
			sb.WriteString(fmt.Sprintf("    Impact: %s\n", finding.Impact))
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by leaklens\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
