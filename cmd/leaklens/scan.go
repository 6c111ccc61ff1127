package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leaklens/leaklens/internal/browserenv"
	"github.com/leaklens/leaklens/internal/config"
	"github.com/leaklens/leaklens/internal/database"
	"github.com/leaklens/leaklens/internal/leakapi"
	"github.com/leaklens/leaklens/internal/log"
	"github.com/leaklens/leaklens/internal/metrics"
	"github.com/leaklens/leaklens/internal/model"
	"github.com/leaklens/leaklens/internal/report"
	"github.com/leaklens/leaklens/internal/scan"
	"github.com/leaklens/leaklens/internal/score"
	"github.com/leaklens/leaklens/internal/tunnel"
	"github.com/leaklens/leaklens/internal/webrtc"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a browser environment for privacy exposure",
		Long: `Scan replays a recorded browser environment and analyzes it for:
- Fingerprinting surface (canvas, WebGL, audio, installed fonts)
- WebRTC address disclosure (local, public, mDNS, IPv6)
- DNS resolver leaks and unencrypted DNS
- Public IP exposure and anonymization status

Results are aggregated into a composite 0-100 privacy score.

Examples:
  # Scan a recorded environment snapshot
  leaklens scan --snapshot browser.json

  # Route backend traffic through an existing SOCKS5 proxy
  leaklens scan --snapshot browser.json --proxy 127.0.0.1:9050

  # Scan through an embedded Tor daemon as a clean baseline
  leaklens scan --snapshot browser.json --embedded-tor

  # Declare that a VPN should be active; a mismatch becomes critical
  leaklens scan --snapshot browser.json --claimed-vpn

  # Output JSON report to a file
  leaklens scan --snapshot browser.json --json -o report.json`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Environment flags
	cmd.Flags().StringP("snapshot", "s", "",
		"Path to the recorded browser environment snapshot (required)")

	// Network path flags
	cmd.Flags().String("backend", config.DefaultBackendURL,
		"Analysis backend base URL (empty disables backend probes)")
	cmd.Flags().StringP("proxy", "p", "",
		"Route backend traffic through a SOCKS5 proxy at this address (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("embedded-tor", false,
		"Start an embedded Tor daemon and route the scan through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().StringSlice("stun", nil,
		"STUN servers for WebRTC candidate gathering (default: built-in list)")

	// Scan behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request budget for backend calls")
	cmd.Flags().Duration("scan-timeout", config.DefaultScanTimeout,
		"Overall budget for the whole scan run")
	cmd.Flags().Bool("claimed-vpn", false,
		"Declare an active VPN; absence of anonymization is then reported as critical")
	cmd.Flags().Bool("server-score", false,
		"Ask the backend to score the results as a cross-check")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .leaklens in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not save the report to the history database")

	// Observability flags
	cmd.Flags().String("metrics", "",
		"Serve Prometheus metrics on this address during the scan (e.g., :9090)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with address redaction
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	return runScan(ctx, cfg, logger)
}

// buildConfig creates a Config from the config file and cobra flags.
// File values apply first; explicitly set flags override them.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	// If the user explicitly specified a config file, it must exist.
	found := config.FindConfigFile(cfg.ConfigFilePath)
	if found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		file.ApplyTo(cfg)
	} else if configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	flags := cmd.Flags()

	if flags.Changed("snapshot") || cfg.SnapshotPath == "" {
		if cfg.SnapshotPath, err = flags.GetString("snapshot"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("backend") || cfg.BackendURL == "" {
		if cfg.BackendURL, err = flags.GetString("backend"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if cfg.UseEmbeddedTor, err = flags.GetBool("embedded-tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if flags.Changed("stun") {
		if cfg.STUNServers, err = flags.GetStringSlice("stun"); err != nil {
			return nil, err
		}
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ScanTimeout, err = flags.GetDuration("scan-timeout"); err != nil {
		return nil, err
	}
	if flags.Changed("claimed-vpn") {
		if cfg.ClaimedVPN, err = flags.GetBool("claimed-vpn"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("server-score") {
		if cfg.ServerScoreCheck, err = flags.GetBool("server-score"); err != nil {
			return nil, err
		}
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.MetricsAddr, err = flags.GetString("metrics"); err != nil {
		return nil, err
	}

	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	env, err := browserenv.LoadSnapshot(cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("failed to load environment snapshot: %w", err)
	}
	defer env.Close()

	// Resolve the network path: direct, external SOCKS5, or embedded Tor.
	proxyAddr, cleanup, err := resolveProxy(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var client *leakapi.Client
	if cfg.BackendURL != "" {
		clientOpts := []leakapi.Option{leakapi.WithTimeout(cfg.Timeout)}
		if proxyAddr != "" {
			clientOpts = append(clientOpts, leakapi.WithSOCKS5(proxyAddr))
		}
		client, err = leakapi.NewClient(cfg.BackendURL, clientOpts...)
		if err != nil {
			return fmt.Errorf("failed to set up backend client: %w", err)
		}
	}

	scoreOpts := score.DefaultOptions()
	scoreOpts.LowPct = cfg.Thresholds.Low
	scoreOpts.MediumPct = cfg.Thresholds.Medium
	scoreOpts.HighPct = cfg.Thresholds.High

	scanner := scan.NewScanner(env,
		scan.WithLogger(logger),
		scan.WithBackend(client),
		scan.WithGatherer(&webrtc.NetworkGatherer{STUNServers: cfg.STUNServers}),
		scan.WithScoreOptions(scoreOpts),
		scan.WithTimeout(cfg.ScanTimeout),
		scan.WithClaimedVPN(cfg.ClaimedVPN),
		scan.WithServerScoreCheck(cfg.ServerScoreCheck),
		scan.WithProgress(func(p scan.Progress) {
			if p.Status == model.ProbePassed || p.Status == model.ProbeFailed {
				fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", p.Completed, p.Total, p.Probe, p.Status)
			}
		}),
	)

	fmt.Fprintf(os.Stderr, "Scanning %s...\n", cfg.SnapshotPath)
	startTime := time.Now()

	scanReport, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	scanReport.SnapshotPath = cfg.SnapshotPath

	fmt.Fprintf(os.Stderr, "Scan completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	metrics.RecordReport(scanReport)

	if err := outputReport(cfg, scanReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveReport(ctx, cfg, scanReport, logger); err != nil {
			logger.Error("failed to save report", "error", err)
		}
	}

	return nil
}

// resolveProxy establishes the SOCKS5 path the scan should use.
// It returns the proxy address ("" for direct connection) and a cleanup
// function that stops any embedded Tor daemon.
func resolveProxy(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, func(), error) {
	noop := func() {}

	if cfg.ProxyAddress != "" {
		client, err := tunnel.NewClient(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return "", noop, fmt.Errorf("failed to create proxy client: %w", err)
		}

		status := client.CheckConnection(ctx)
		if status != tunnel.StatusOK {
			return "", noop, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s)",
				status, cfg.ProxyAddress)
		}

		logger.Info("proxy connection verified", "proxy", cfg.ProxyAddress)
		return cfg.ProxyAddress, noop, nil
	}

	if cfg.UseEmbeddedTor {
		fmt.Fprintln(os.Stderr, "Starting embedded Tor daemon...")
		fmt.Fprintln(os.Stderr, "This may take 1-3 minutes while Tor bootstraps.")

		embedded := tunnel.NewEmbeddedTor(
			tunnel.WithStartupTimeout(cfg.TorStartupTimeout),
		)
		if err := embedded.Start(ctx); err != nil {
			return "", noop, fmt.Errorf("failed to start embedded Tor: %w", err)
		}

		cleanup := func() {
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}

		client, err := embedded.NewClient(cfg.Timeout)
		if err != nil {
			cleanup()
			return "", noop, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tunnel.StatusOK {
			cleanup()
			return "", noop, fmt.Errorf("embedded Tor proxy check failed: %s", status)
		}

		logger.Info("embedded Tor daemon started", "socksAddr", embedded.SocksAddr())
		return embedded.SocksAddr(), cleanup, nil
	}

	return "", noop, nil
}

// outputReport outputs the scan report in the requested format.
func outputReport(cfg *config.Config, scanReport *model.PrivacyReport) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports contain addresses and fingerprint hashes; owner-only.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(scanReport)
	return err
}

// saveReport saves the scan report to the history database.
func saveReport(ctx context.Context, cfg *config.Config, scanReport *model.PrivacyReport, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.SaveReport(ctx, scanReport); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	logger.Info("report saved to history", "id", scanReport.ID, "dir", cfg.DBDir)
	return nil
}
