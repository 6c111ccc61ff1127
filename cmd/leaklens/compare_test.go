package main

import (
	"context"
	"testing"
	"time"

	"github.com/leaklens/leaklens/internal/database"
	"github.com/leaklens/leaklens/internal/model"
)

// TestNewCompareCmd tests the compare command definition.
func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	if cmd.Use != "compare" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}

	flagsWithShort := map[string]string{
		"list":    "l",
		"with-id": "i",
		"json":    "j",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}

	if cmd.Flags().Lookup("db-dir") == nil {
		t.Error("expected db-dir flag")
	}
}

// comparisonReport builds a report with the given score and findings.
func comparisonReport(t *testing.T, total int, scanned time.Time, findings ...model.Finding) *model.PrivacyReport {
	t.Helper()

	report := model.NewPrivacyReport()
	report.DateScanned = scanned
	report.Score = &model.PrivacyScore{
		Total:         total,
		RiskLevelText: "medium",
	}
	for _, f := range findings {
		report.AddFinding(f)
	}
	return report
}

// TestCompareReports tests finding diffing between two reports.
func TestCompareReports(t *testing.T) {
	t.Parallel()

	shared := model.Finding{
		Type: "dns_resolver_unencrypted", Severity: model.SeverityMedium,
		Title: "Unencrypted DNS", Source: "dns",
	}
	resolved := model.Finding{
		Type: "webrtc_local_ip_leak", Severity: model.SeverityHigh,
		Title: "WebRTC local address exposure", Value: "192.168.1.50", Source: "webrtc",
	}
	introduced := model.Finding{
		Type: "ip_no_anonymization", Severity: model.SeverityHigh,
		Title: "No anonymization detected", Value: "203.0.113.9", Source: "ip",
	}

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	previous := comparisonReport(t, 60, base, shared, resolved)
	current := comparisonReport(t, 75, base.Add(time.Hour), shared, introduced)

	result := compareReports(previous, current)

	if len(result.NewFindings) != 1 || result.NewFindings[0].Type != "ip_no_anonymization" {
		t.Errorf("new findings = %+v, want ip_no_anonymization", result.NewFindings)
	}
	if len(result.ResolvedFindings) != 1 || result.ResolvedFindings[0].Type != "webrtc_local_ip_leak" {
		t.Errorf("resolved findings = %+v, want webrtc_local_ip_leak", result.ResolvedFindings)
	}
	if result.UnchangedCount != 1 {
		t.Errorf("unchanged count = %d, want 1", result.UnchangedCount)
	}
	if result.ScoreDelta != 15 {
		t.Errorf("score delta = %d, want 15", result.ScoreDelta)
	}
	if result.RiskChange.Direction != riskDirectionImproved {
		t.Errorf("direction = %q, want improved (score rose)", result.RiskChange.Direction)
	}
}

// TestCalculateRiskChange tests the direction heuristic.
func TestCalculateRiskChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		previous ScanMetadata
		current  ScanMetadata
		want     string
	}{
		{
			name:     "higher score improves",
			previous: ScanMetadata{TotalScore: 50},
			current:  ScanMetadata{TotalScore: 80},
			want:     riskDirectionImproved,
		},
		{
			name:     "lower score worsens",
			previous: ScanMetadata{TotalScore: 80},
			current:  ScanMetadata{TotalScore: 50},
			want:     riskDirectionWorsened,
		},
		{
			name:     "equal scores fall back to severity weights",
			previous: ScanMetadata{TotalScore: 70, CriticalCount: 1},
			current:  ScanMetadata{TotalScore: 70},
			want:     riskDirectionImproved,
		},
		{
			name:     "no scores uses severity weights",
			previous: ScanMetadata{HighCount: 1},
			current:  ScanMetadata{HighCount: 2},
			want:     riskDirectionWorsened,
		},
		{
			name:     "identical is unchanged",
			previous: ScanMetadata{TotalScore: 70, MediumCount: 2},
			current:  ScanMetadata{TotalScore: 70, MediumCount: 2},
			want:     riskDirectionUnchanged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := calculateRiskChange(tt.previous, tt.current)
			if got.Direction != tt.want {
				t.Errorf("direction = %q, want %q", got.Direction, tt.want)
			}
		})
	}
}

// TestRunComparison tests comparison against a real history database.
func TestRunComparison(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("fewer than two scans errors", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		if err := db.SaveReport(ctx, model.NewPrivacyReport()); err != nil {
			t.Fatal(err)
		}

		if err := runComparison(ctx, db, "", true); err == nil {
			t.Error("expected error with a single saved scan")
		}
	})

	t.Run("compares latest two", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
		if err := db.SaveReport(ctx, comparisonReport(t, 60, base)); err != nil {
			t.Fatal(err)
		}
		if err := db.SaveReport(ctx, comparisonReport(t, 75, base.Add(time.Hour))); err != nil {
			t.Fatal(err)
		}

		if err := runComparison(ctx, db, "", true); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown with-id errors", func(t *testing.T) {
		t.Parallel()

		db, err := database.Open(t.TempDir(), database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		if err := db.SaveReport(ctx, model.NewPrivacyReport()); err != nil {
			t.Fatal(err)
		}

		if err := runComparison(ctx, db, "no-such-id", true); err == nil {
			t.Error("expected error for unknown report ID")
		}
	})
}

// TestFormatHelpers tests the small display formatting functions.
func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	if got := formatDelta(3); got != "+3" {
		t.Errorf("formatDelta(3) = %q, want %q", got, "+3")
	}
	if got := formatDelta(-2); got != "-2" {
		t.Errorf("formatDelta(-2) = %q, want %q", got, "-2")
	}
	if got := formatDelta(0); got != "0" {
		t.Errorf("formatDelta(0) = %q, want %q", got, "0")
	}

	if got := formatSeverityCounts(nil); got != "N/A" {
		t.Errorf("formatSeverityCounts(nil) = %q, want N/A", got)
	}
	if got := formatSeverityCounts(map[string]int{}); got != noFindingsMessage {
		t.Errorf("formatSeverityCounts(empty) = %q, want %q", got, noFindingsMessage)
	}
	if got := formatSeverityCounts(map[string]int{"critical": 1, "low": 2}); got != "C:1 L:2" {
		t.Errorf("formatSeverityCounts = %q, want %q", got, "C:1 L:2")
	}

	if got := formatRiskDirection(riskDirectionImproved); got != "IMPROVED (privacy increased)" {
		t.Errorf("formatRiskDirection = %q", got)
	}
}
