package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBackendURL is the public analysis backend. The backend needs
	// its own network vantage point to see which resolvers answered and
	// what reputation the apparent address carries, so it cannot be
	// replaced by local logic.
	DefaultBackendURL = "https://api.leaklens.dev"

	// DefaultTimeout is the per-request budget for backend calls. The
	// analysis endpoints answer in well under a second on a healthy
	// connection; fifteen seconds leaves room for Tor-grade latency when
	// the scan runs through a tunnel.
	DefaultTimeout = 15 * time.Second

	// DefaultScanTimeout bounds the whole run. Every probe is expected to
	// finish in a few seconds; a minute means a stuck probe cannot hang
	// the scan indefinitely.
	DefaultScanTimeout = 60 * time.Second

	// DefaultTorStartupTimeout is the maximum time to wait for the
	// embedded Tor daemon to bootstrap. 3 minutes is typically sufficient
	// but may need to be increased on slow connections.
	DefaultTorStartupTimeout = 3 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "leaklens"
)

// DefaultSTUNServers are the binding servers the WebRTC probe queries
// when the user does not configure their own.
var DefaultSTUNServers = []string{
	"stun.l.google.com:19302",
	"stun.cloudflare.com:3478",
}

// Thresholds are the risk tier breakpoints as percentages of the
// maximum score. A score at exactly a breakpoint resolves to the
// better tier.
type Thresholds struct {
	Low    int `yaml:"low"`
	Medium int `yaml:"medium"`
	High   int `yaml:"high"`
}

// DefaultThresholds returns the standard 80/60/40 breakpoints.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 80, Medium: 60, High: 40}
}

// Config holds all configuration options for LeakLens. It is populated
// from the config file and CLI flags and passed through the application
// via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested
// structs for simplicity. The number of options is manageable, and
// nesting would add complexity without significant benefit.
type Config struct {
	// BackendURL is the analysis backend's base URL.
	BackendURL string

	// SnapshotPath is the recorded browser environment the fingerprint
	// collectors replay. Required for scanning.
	SnapshotPath string

	// ProxyAddress is an optional SOCKS5 endpoint ("host:port") through
	// which all backend traffic is routed, so the scan observes the
	// anonymization path the user actually browses through. Empty means
	// direct connection.
	ProxyAddress string

	// UseEmbeddedTor launches an embedded Tor daemon and routes the scan
	// through it, giving a known-clean baseline to compare against.
	// Mutually exclusive with ProxyAddress.
	UseEmbeddedTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon to bootstrap. Only used when UseEmbeddedTor is true.
	TorStartupTimeout time.Duration

	// Timeout is the per-request budget for backend calls.
	Timeout time.Duration

	// ScanTimeout bounds the whole scan run.
	ScanTimeout time.Duration

	// STUNServers lists the binding servers for ICE candidate gathering.
	// Empty means DefaultSTUNServers.
	STUNServers []string

	// ClaimedVPN records that the user claims an active VPN. A scan that
	// then finds no anonymization reports the mismatch as critical.
	ClaimedVPN bool

	// ServerScoreCheck also asks the backend to score the results as a
	// cross-check of the local aggregator.
	ServerScoreCheck bool

	// Thresholds are the risk tier breakpoints.
	Thresholds Thresholds

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. When set, the
	// report is written there instead of stdout.
	ReportFile string

	// DBDir is the directory for the SQLite history database. When set,
	// reports are saved for later comparison. Defaults to the XDG data
	// directory when SaveToDB is enabled without an explicit path.
	DBDir string

	// SaveToDB indicates whether to save reports to the history database.
	SaveToDB bool

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .leaklens in the current directory and then in
	// the user's home directory.
	ConfigFilePath string

	// MetricsAddr is the listen address for the Prometheus metrics
	// endpoint. Empty disables the endpoint.
	MetricsAddr string
}

// NewConfig creates a new Config with default values. Users can
// override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BackendURL:        DefaultBackendURL,
		Timeout:           DefaultTimeout,
		ScanTimeout:       DefaultScanTimeout,
		TorStartupTimeout: DefaultTorStartupTimeout,
		STUNServers:       append([]string(nil), DefaultSTUNServers...),
		Thresholds:        DefaultThresholds(),
	}
}

// XDGDataDir returns the XDG data directory for LeakLens.
// On Linux: ~/.local/share/leaklens
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for LeakLens.
// On Linux: ~/.config/leaklens
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid. It returns a specific
// error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast with clear messages. Called once after CLI
// parsing, before any scanning begins. We return the first error found
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.SnapshotPath == "" {
		return ErrNoSnapshot
	}

	if c.Timeout <= 0 || c.ScanTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.ProxyAddress != "" && c.UseEmbeddedTor {
		return ErrProxyWithEmbeddedTor
	}

	t := c.Thresholds
	if t.Low > 100 || t.Low <= t.Medium || t.Medium <= t.High || t.High <= 0 {
		return ErrInvalidThresholds
	}

	return nil
}
