package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSnapshot is returned when no environment snapshot is specified.
	// The fingerprint collectors read the browser surfaces from a recorded
	// snapshot; without one there is nothing to scan.
	ErrNoSnapshot = errors.New("no snapshot specified: provide a snapshot file with --snapshot")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidThresholds is returned when the risk tier breakpoints are
	// not strictly decreasing percentages within (0, 100].
	ErrInvalidThresholds = errors.New("invalid risk thresholds: must satisfy 100 >= low > medium > high > 0")

	// ErrProxyWithEmbeddedTor is returned when both an external proxy and
	// the embedded Tor baseline are requested. The scan runs through one
	// path at a time so results stay attributable.
	ErrProxyWithEmbeddedTor = errors.New("conflicting tunnel options: --proxy and --tor cannot be used together")
)
