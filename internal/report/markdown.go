package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/leaklens/leaklens/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.PrivacyReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeScore(md, report)
	w.writeSummary(md, report)
	w.writeNetwork(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.PrivacyReport) {
	md.H1("LeakLens Privacy Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scan ID", "`" + report.ID + "`"},
			{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.PrivacyReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeScore writes the privacy score section with its category breakdown.
func (w *MarkdownWriter) writeScore(md *markdown.Markdown, report *model.PrivacyReport) {
	score := report.DisplayScore()
	if score == nil {
		return
	}

	md.H2("Privacy Score")
	md.PlainText("")

	b := score.Breakdown
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score", "Maximum"},
		Rows: [][]string{
			{"IP Privacy", strconv.Itoa(b.IPPrivacy), strconv.Itoa(model.MaxIPPrivacy)},
			{"DNS Privacy", strconv.Itoa(b.DNSPrivacy), strconv.Itoa(model.MaxDNSPrivacy)},
			{"WebRTC Privacy", strconv.Itoa(b.WebRTCPrivacy), strconv.Itoa(model.MaxWebRTCPrivacy)},
			{"Fingerprint Resistance", strconv.Itoa(b.FingerprintResistance), strconv.Itoa(model.MaxFingerprintResistance)},
			{"Browser Configuration", strconv.Itoa(b.BrowserConfig), strconv.Itoa(model.MaxBrowserConfig)},
			{"**Total**", "**" + strconv.Itoa(score.Total) + "**", "**" + strconv.Itoa(model.MaxTotal) + "**"},
		},
	})
	md.PlainText("")

	switch score.RiskLevel {
	case model.RiskLow:
		md.Tipf("Risk level: **low** (%d/%d). Your configuration leaks little.", score.Total, model.MaxTotal)
	case model.RiskMedium:
		md.Notef("Risk level: **medium** (%d/%d). Some exposure detected.", score.Total, model.MaxTotal)
	case model.RiskHigh:
		md.Warningf("Risk level: **high** (%d/%d). Significant exposure detected.", score.Total, model.MaxTotal)
	case model.RiskCritical:
		md.Cautionf("Risk level: **critical** (%d/%d). Your configuration is highly identifiable.", score.Total, model.MaxTotal)
	}
	md.PlainText("")
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.PrivacyReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount)},
			{"🟠 High", strconv.Itoa(report.HighCount)},
			{"🟡 Medium", strconv.Itoa(report.MediumCount)},
			{"🔵 Low", strconv.Itoa(report.LowCount)},
			{"⚪ Info", strconv.Itoa(report.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(len(report.Findings)) + "**"},
		},
	})
	md.PlainText("")

	if len(report.Findings) > 0 {
		w.writePieChart(md, report)
	}
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.PrivacyReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	if report.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(report.CriticalCount))
	}
	if report.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(report.HighCount))
	}
	if report.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(report.MediumCount))
	}
	if report.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(report.LowCount))
	}
	if report.InfoCount > 0 {
		chart.LabelAndIntValue("Info", uint64(report.InfoCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeNetwork writes the network exposure section covering the IP, DNS,
// and WebRTC probe results.
func (w *MarkdownWriter) writeNetwork(md *markdown.Markdown, report *model.PrivacyReport) {
	if report.IP == nil && report.DNS == nil && report.WebRTC == nil {
		return
	}

	md.H2("Network Exposure")
	md.PlainText("")

	var rows [][]string
	if ip := report.IP; ip != nil {
		anonymized := "no"
		if ip.Anonymized() {
			anonymized = "yes"
		}
		rows = append(rows, []string{"Public IP", "`" + ip.IP + "`"})
		rows = append(rows, []string{"Location", strings.TrimPrefix(ip.City+", "+ip.Country, ", ")})
		rows = append(rows, []string{"Anonymized", anonymized})
	}
	if dns := report.DNS; dns != nil {
		rows = append(rows, []string{"DNS Leak", string(dns.LeakType)})
		rows = append(rows, []string{"DNS Resolvers", strconv.Itoa(len(dns.Resolvers))})
	}
	if rtc := report.WebRTC; rtc != nil {
		leak := "no"
		if rtc.IsLeak {
			leak = "yes"
		}
		rows = append(rows, []string{"WebRTC Leak", leak})
		rows = append(rows, []string{"NAT Type", string(rtc.NATType)})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.PrivacyReport) {
	md.H2("Findings")
	md.PlainText("")

	if len(report.Findings) == 0 {
		md.PlainText("No privacy findings detected.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}

	for _, sev := range severities {
		findings := findingsBySeverity(report, sev.level)
		if len(findings) == 0 {
			continue
		}

		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	headers := []string{"Title", "Value", "Source", "Recommendation"}

	rows := make([][]string, len(findings))
	for i, f := range findings {
		value := f.Value
		if value == "" {
			value = "-"
		}
		source := f.Source
		if source == "" {
			source = "-"
		}
		rec := f.Recommendation
		if rec == "" {
			rec = "-"
		}

		rows[i] = []string{
			f.Title,
			truncateString(value, 50),
			truncateString(source, 20),
			truncateString(rec, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Impact != "" {
			md.Details(f.Title, f.Impact)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by leaklens*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
