// Package main provides the entry point for the LeakLens CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for LeakLens.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaklens",
		Short: "Privacy diagnostic tool for browser environments",
		Long: `LeakLens analyzes a recorded browser environment for privacy exposure.

It runs fingerprint collectors (canvas, WebGL, audio, fonts), probes for
WebRTC, DNS, and IP leaks, and aggregates the results into a composite
0-100 privacy score with actionable findings.

Scans can optionally route through a SOCKS5 proxy or an embedded Tor
daemon so the analysis observes the anonymization path you actually
browse through.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
