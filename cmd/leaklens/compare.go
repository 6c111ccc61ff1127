package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leaklens/leaklens/internal/config"
	"github.com/leaklens/leaklens/internal/database"
	"github.com/leaklens/leaklens/internal/model"
)

// Constants for risk direction and summary messages.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
	noFindingsMessage      = "No findings"
)

// NewCompareCmd creates the compare command.
// This command compares scan results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare scan results with historical data",
		Long: `Compare displays differences between the current and previous scan results.

This command retrieves historical scan data from the database and shows:
- New findings that appeared since the last scan
- Resolved findings that are no longer present
- Changes in the privacy score and severity levels

The comparison requires at least two saved scans. Use 'leaklens scan' to
perform scans; reports are saved automatically unless --no-save is given.

Examples:
  # Compare the latest two scans
  leaklens compare

  # List all saved scans
  leaklens compare --list

  # Compare the latest scan with a specific saved scan
  leaklens compare --with-id 3f2a9c60-...

  # Output comparison in JSON format
  leaklens compare --json`,
		Args: cobra.NoArgs,
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List saved scans in the history database")

	// Comparison target flags
	cmd.Flags().StringP("with-id", "i", "",
		"Compare the latest scan with a specific scan by report ID (use --list to see IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")

	// Database location
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no scan history available: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listScanHistory(ctx, db)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	withID, err := cmd.Flags().GetString("with-id")
	if err != nil {
		return err
	}

	return runComparison(ctx, db, withID, jsonOutput)
}

// listScanHistory lists all saved scans with their scores and findings.
func listScanHistory(ctx context.Context, db *database.HistoryDB) error {
	metas, err := db.ListReports(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	if len(metas) == 0 {
		fmt.Println("No saved scans found.")
		fmt.Println("\nUse 'leaklens scan' to run a scan; reports are saved automatically.")
		return nil
	}

	fmt.Printf("Saved scans (%d):\n\n", len(metas))
	fmt.Printf("  %-38s  %-20s  %-6s  %-9s  %s\n", "ID", "Date", "Score", "Risk", "Findings")
	fmt.Println("  " + strings.Repeat("-", 90))

	for _, meta := range metas {
		fmt.Printf("  %-38s  %-20s  %-6d  %-9s  %s\n",
			meta.ReportID,
			meta.DateScanned.Format("2006-01-02 15:04:05"),
			meta.TotalScore,
			meta.RiskLevel,
			formatSeverityCounts(meta.SeverityCounts),
		)
	}

	fmt.Println("\nUse 'leaklens compare' to compare the latest two scans.")
	fmt.Println("Use 'leaklens compare --with-id <id>' to compare with a specific scan.")

	return nil
}

// formatSeverityCounts formats severity counts into a compact string.
func formatSeverityCounts(counts map[string]int) string {
	if counts == nil {
		return "N/A"
	}

	var parts []string
	if v := counts["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := counts["high"]; v > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", v))
	}
	if v := counts["medium"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := counts["low"]; v > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", v))
	}
	if v := counts["info"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between saved reports.
func runComparison(ctx context.Context, db *database.HistoryDB, withID string, jsonOutput bool) error {
	var current, previous *model.PrivacyReport

	if withID != "" {
		var err error
		current, err = db.GetLatestReport(ctx)
		if err != nil {
			return fmt.Errorf("failed to get latest report: %w", err)
		}
		if current == nil {
			return fmt.Errorf("no saved scans found")
		}

		previous, err = db.GetReport(ctx, withID)
		if err != nil {
			return fmt.Errorf("failed to get report %s: %w", withID, err)
		}
		if previous == nil {
			return fmt.Errorf("no saved scan with ID %s", withID)
		}
		if previous.ID == current.ID {
			return fmt.Errorf("cannot compare a scan with itself")
		}
	} else {
		reports, err := db.LatestReports(ctx, 2)
		if err != nil {
			return fmt.Errorf("failed to get latest reports: %w", err)
		}
		if len(reports) < 2 {
			return fmt.Errorf("at least 2 saved scans are required for comparison (found %d)", len(reports))
		}
		current, previous = reports[0], reports[1]
	}

	comparison := compareReports(previous, current)

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two scan reports.
type ComparisonResult struct {
	// PreviousScan contains metadata about the previous scan.
	PreviousScan ScanMetadata `json:"previous_scan"`

	// CurrentScan contains metadata about the current scan.
	CurrentScan ScanMetadata `json:"current_scan"`

	// NewFindings contains findings that are new in the current scan.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings that were in the previous scan but not in current.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings that remain unchanged.
	UnchangedCount int `json:"unchanged_count"`

	// ScoreDelta is the change in the composite privacy score.
	ScoreDelta int `json:"score_delta"`

	// RiskChange describes the overall change in risk level.
	RiskChange RiskChange `json:"risk_change"`
}

// ScanMetadata contains metadata about a scan for comparison display.
type ScanMetadata struct {
	// ReportID is the scan's unique identifier.
	ReportID string `json:"report_id"`

	// DateScanned is when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// TotalScore is the composite privacy score.
	TotalScore int `json:"total_score"`

	// RiskLevel is the human-readable risk tier.
	RiskLevel string `json:"risk_level"`

	// TotalFindings is the total number of findings in this scan.
	TotalFindings int `json:"total_findings"`

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// HighCount is the number of high severity findings.
	HighCount int `json:"high_count"`

	// MediumCount is the number of medium severity findings.
	MediumCount int `json:"medium_count"`

	// LowCount is the number of low severity findings.
	LowCount int `json:"low_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`
}

// RiskChange describes the change in risk level between scans.
type RiskChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// CriticalDelta is the change in critical findings count.
	CriticalDelta int `json:"critical_delta"`

	// HighDelta is the change in high severity findings count.
	HighDelta int `json:"high_delta"`

	// MediumDelta is the change in medium severity findings count.
	MediumDelta int `json:"medium_delta"`

	// LowDelta is the change in low severity findings count.
	LowDelta int `json:"low_delta"`

	// InfoDelta is the change in informational findings count.
	InfoDelta int `json:"info_delta"`
}

// compareReports compares two scan reports and generates a comparison result.
func compareReports(previous, current *model.PrivacyReport) *ComparisonResult {
	result := &ComparisonResult{
		PreviousScan: scanMetadata(previous),
		CurrentScan:  scanMetadata(current),
	}

	previousFindings := make(map[string]model.Finding)
	currentFindings := make(map[string]model.Finding)

	for _, f := range previous.Findings {
		previousFindings[findingKey(f)] = f
	}
	for _, f := range current.Findings {
		currentFindings[findingKey(f)] = f
	}

	for key, finding := range currentFindings {
		if _, exists := previousFindings[key]; !exists {
			result.NewFindings = append(result.NewFindings, finding)
		}
	}
	for key, finding := range previousFindings {
		if _, exists := currentFindings[key]; !exists {
			result.ResolvedFindings = append(result.ResolvedFindings, finding)
		} else {
			result.UnchangedCount++
		}
	}

	result.ScoreDelta = result.CurrentScan.TotalScore - result.PreviousScan.TotalScore
	result.RiskChange = calculateRiskChange(result.PreviousScan, result.CurrentScan)

	return result
}

// scanMetadata extracts comparison metadata from a report.
func scanMetadata(r *model.PrivacyReport) ScanMetadata {
	meta := ScanMetadata{
		ReportID:      r.ID,
		DateScanned:   r.DateScanned,
		TotalFindings: len(r.Findings),
		CriticalCount: r.CriticalCount,
		HighCount:     r.HighCount,
		MediumCount:   r.MediumCount,
		LowCount:      r.LowCount,
		InfoCount:     r.InfoCount,
	}
	if score := r.DisplayScore(); score != nil {
		meta.TotalScore = score.Total
		meta.RiskLevel = score.RiskLevelText
	}
	return meta
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Value + "|" + f.Source
}

// calculateRiskChange calculates the change in risk between two scans.
func calculateRiskChange(previous, current ScanMetadata) RiskChange {
	change := RiskChange{
		CriticalDelta: current.CriticalCount - previous.CriticalCount,
		HighDelta:     current.HighCount - previous.HighCount,
		MediumDelta:   current.MediumCount - previous.MediumCount,
		LowDelta:      current.LowCount - previous.LowCount,
		InfoDelta:     current.InfoCount - previous.InfoCount,
	}

	// A higher privacy score is better; fall back to a severity-weighted
	// finding score when either scan carries no composite score.
	switch {
	case current.TotalScore != previous.TotalScore && current.TotalScore > 0 && previous.TotalScore > 0:
		if current.TotalScore > previous.TotalScore {
			change.Direction = riskDirectionImproved
		} else {
			change.Direction = riskDirectionWorsened
		}
	default:
		previousWeight := previous.CriticalCount*100 + previous.HighCount*50 + previous.MediumCount*10 + previous.LowCount*5 + previous.InfoCount
		currentWeight := current.CriticalCount*100 + current.HighCount*50 + current.MediumCount*10 + current.LowCount*5 + current.InfoCount

		if currentWeight < previousWeight {
			change.Direction = riskDirectionImproved
		} else if currentWeight > previousWeight {
			change.Direction = riskDirectionWorsened
		} else {
			change.Direction = riskDirectionUnchanged
		}
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Println("Scan Comparison")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nRisk Status: %s\n", formatRiskDirection(result.RiskChange.Direction))
	fmt.Printf("Score:       %d -> %d (%s)\n",
		result.PreviousScan.TotalScore,
		result.CurrentScan.TotalScore,
		formatDelta(result.ScoreDelta))

	fmt.Printf("\nPrevious scan: %s (%s)\n",
		result.PreviousScan.DateScanned.Format("2006-01-02 15:04:05"),
		result.PreviousScan.ReportID)
	fmt.Printf("Current scan:  %s (%s)\n",
		result.CurrentScan.DateScanned.Format("2006-01-02 15:04:05"),
		result.CurrentScan.ReportID)

	fmt.Println("\nFindings Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Severity", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Critical",
		result.PreviousScan.CriticalCount, result.CurrentScan.CriticalCount,
		formatDelta(result.RiskChange.CriticalDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "High",
		result.PreviousScan.HighCount, result.CurrentScan.HighCount,
		formatDelta(result.RiskChange.HighDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Medium",
		result.PreviousScan.MediumCount, result.CurrentScan.MediumCount,
		formatDelta(result.RiskChange.MediumDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Low",
		result.PreviousScan.LowCount, result.CurrentScan.LowCount,
		formatDelta(result.RiskChange.LowDelta))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Info",
		result.PreviousScan.InfoCount, result.CurrentScan.InfoCount,
		formatDelta(result.RiskChange.InfoDelta))
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousScan.TotalFindings, result.CurrentScan.TotalFindings,
		formatDelta(result.CurrentScan.TotalFindings-result.PreviousScan.TotalFindings))

	if len(result.NewFindings) > 0 {
		fmt.Printf("\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Printf("  [+] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Printf("\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Printf("  [-] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (privacy increased)"
	case riskDirectionWorsened:
		return "WORSENED (privacy decreased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
