package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/leaklens/leaklens/internal/config"
	"github.com/leaklens/leaklens/internal/database"
	"github.com/leaklens/leaklens/internal/model"
	"github.com/leaklens/leaklens/internal/report"
)

// newScanCmdForTest creates a scan command with the root's verbose flag
// attached, as it is when wired under the root command.
func newScanCmdForTest() *cobra.Command {
	cmd := NewScanCmd()
	cmd.Flags().Bool("verbose", false, "")
	return cmd
}

// TestNewScanCmd tests the scan command definition.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	if cmd.Use != "scan" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}

	flagsWithShort := map[string]string{
		"snapshot": "s",
		"proxy":    "p",
		"timeout":  "t",
		"json":     "j",
		"markdown": "m",
		"output":   "o",
		"config":   "c",
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

	for _, flag := range []string{"backend", "embedded-tor", "stun", "scan-timeout", "claimed-vpn", "server-score", "no-save", "metrics"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected flag %q to exist", flag)
		}
	}
}

// TestBuildConfig tests flag-to-config translation.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		cmd := newScanCmdForTest()
		if err := cmd.Flags().Set("snapshot", "browser.json"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.SnapshotPath != "browser.json" {
			t.Errorf("snapshot = %q, want %q", cfg.SnapshotPath, "browser.json")
		}
		if cfg.BackendURL != config.DefaultBackendURL {
			t.Errorf("backend = %q, want default", cfg.BackendURL)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("timeout = %v, want default", cfg.Timeout)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB true by default")
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to default to XDG data directory")
		}
	})

	t.Run("flags override", func(t *testing.T) {
		t.Parallel()

		cmd := newScanCmdForTest()
		for flag, value := range map[string]string{
			"snapshot":     "env.json",
			"proxy":        "127.0.0.1:9050",
			"timeout":      "30s",
			"scan-timeout": "2m",
			"claimed-vpn":  "true",
			"no-save":      "true",
		} {
			if err := cmd.Flags().Set(flag, value); err != nil {
				t.Fatal(err)
			}
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.ProxyAddress != "127.0.0.1:9050" {
			t.Errorf("proxy = %q", cfg.ProxyAddress)
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("timeout = %v, want 30s", cfg.Timeout)
		}
		if cfg.ScanTimeout != 2*time.Minute {
			t.Errorf("scan timeout = %v, want 2m", cfg.ScanTimeout)
		}
		if !cfg.ClaimedVPN {
			t.Error("expected ClaimedVPN true")
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB false with --no-save")
		}
	})

	t.Run("config file applies and flags win", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".leaklens")
		content := strings.Join([]string{
			"backend_url: https://backend.example.com",
			"snapshot: file-snapshot.json",
			"claimed_vpn: true",
			"thresholds:",
			"  low: 85",
			"  medium: 65",
			"  high: 45",
		}, "\n")
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := newScanCmdForTest()
		if err := cmd.Flags().Set("config", configPath); err != nil {
			t.Fatal(err)
		}
		if err := cmd.Flags().Set("snapshot", "flag-snapshot.json"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BackendURL != "https://backend.example.com" {
			t.Errorf("backend = %q, want file value", cfg.BackendURL)
		}
		if cfg.SnapshotPath != "flag-snapshot.json" {
			t.Errorf("snapshot = %q, want flag value", cfg.SnapshotPath)
		}
		if !cfg.ClaimedVPN {
			t.Error("expected ClaimedVPN from file")
		}
		if cfg.Thresholds.Low != 85 {
			t.Errorf("low threshold = %d, want 85", cfg.Thresholds.Low)
		}
	})

	t.Run("missing explicit config file errors", func(t *testing.T) {
		t.Parallel()

		cmd := newScanCmdForTest()
		if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
			t.Fatal(err)
		}

		if _, err := buildConfig(cmd); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

// TestOutputReport tests format selection and file output.
func TestOutputReport(t *testing.T) {
	t.Parallel()

	scanReport := model.NewPrivacyReport()
	scanReport.Score = &model.PrivacyScore{
		Total:         88,
		RiskLevel:     model.RiskLow,
		RiskLevelText: model.RiskLow.String(),
	}

	t.Run("json to file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "out", "report.json")

		if err := outputReport(cfg, scanReport); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report file: %v", err)
		}

		var wrapped report.JSONReport
		if err := json.Unmarshal(data, &wrapped); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if wrapped.Report == nil || wrapped.Report.ID != scanReport.ID {
			t.Error("expected wrapped report with matching ID")
		}

		info, err := os.Stat(cfg.ReportFile)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("report permissions = %o, want 0600", perm)
		}
	})

	t.Run("markdown to file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.md")

		if err := outputReport(cfg, scanReport); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "# LeakLens Privacy Report") {
			t.Error("expected markdown header in report")
		}
	})

	t.Run("text to file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.txt")

		if err := outputReport(cfg, scanReport); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "LEAKLENS REPORT") {
			t.Error("expected text header in report")
		}
	})
}

// TestSaveReport tests persistence through the scan command path.
func TestSaveReport(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.DBDir = t.TempDir()

	scanReport := model.NewPrivacyReport()
	logger := slog.New(slog.DiscardHandler)

	if err := saveReport(context.Background(), cfg, scanReport, logger); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	db, err := database.Open(cfg.DBDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer db.Close()

	got, err := db.GetReport(context.Background(), scanReport.ID)
	if err != nil {
		t.Fatalf("failed to load report: %v", err)
	}
	if got == nil {
		t.Fatal("expected saved report")
	}
}
