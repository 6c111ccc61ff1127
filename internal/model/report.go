package model

import (
	"time"

	"github.com/google/uuid"
)

// ProbeStatus is the lifecycle state of one probe within a scan run.
type ProbeStatus string

// Probe lifecycle states. A probe always reaches a terminal state
// (passed or failed); the engine never leaves a probe running forever.
const (
	ProbeIdle    ProbeStatus = "idle"
	ProbeRunning ProbeStatus = "running"
	ProbePassed  ProbeStatus = "passed"
	ProbeFailed  ProbeStatus = "failed"
)

// ProbeRecord captures the lifecycle of one probe within a run.
type ProbeRecord struct {
	// Status is the probe's current lifecycle state.
	Status ProbeStatus `json:"status"`

	// Error is the failure message when Status is ProbeFailed.
	Error string `json:"error,omitempty"`

	// StartedAt is when the probe began executing.
	StartedAt time.Time `json:"started_at,omitzero"`

	// Duration is how long the probe ran before reaching a terminal state.
	Duration time.Duration `json:"duration"`
}

// PrivacyReport is the main scan result structure. It binds the outputs
// of every collector and probe from one scan run together with the
// composite score and the per-probe lifecycle records.
//
// Design decision: We use a single large struct rather than many small
// ones to simplify serialization and history storage. Nil pointers mean
// "probe did not produce data"; the scorer treats those categories
// optimistically.
type PrivacyReport struct {
	// ID uniquely identifies this scan run.
	ID string `json:"id"`

	// DateScanned is when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// SnapshotPath records which environment snapshot the fingerprint
	// collectors consumed, when one was provided.
	SnapshotPath string `json:"snapshot_path,omitempty"`

	// === Fingerprint samples ===

	Canvas *FingerprintSample `json:"canvas,omitempty"`
	WebGL  *FingerprintSample `json:"webgl,omitempty"`
	Audio  *FingerprintSample `json:"audio,omitempty"`
	Fonts  *FingerprintSample `json:"fonts,omitempty"`

	// === Network probe results ===

	IP     *IPLeakResult     `json:"ip,omitempty"`
	DNS    *DNSLeakResult    `json:"dns,omitempty"`
	WebRTC *WebRTCLeakResult `json:"webrtc,omitempty"`

	// Insights holds latency/speed telemetry. Never scored.
	Insights *NetworkInsights `json:"insights,omitempty"`

	// === Derived ===

	// Score is the locally computed composite privacy score.
	Score *PrivacyScore `json:"score,omitempty"`

	// ServerScore is the backend's cross-check score when requested.
	// When both are present the server value is authoritative for display.
	ServerScore *PrivacyScore `json:"server_score,omitempty"`

	// === Run state ===

	// Probes maps probe name to its lifecycle record.
	Probes map[string]ProbeRecord `json:"probes,omitempty"`

	// Findings contains all categorized findings with severity counts below.
	Findings []Finding `json:"findings,omitempty"`

	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
	MediumCount   int `json:"medium_count"`
	LowCount      int `json:"low_count"`
	InfoCount     int `json:"info_count"`

	// TimedOut is true if the run was terminated by its overall deadline.
	TimedOut bool `json:"timed_out"`

	// ErrorMessage records a run-level failure, if any. Individual probe
	// failures live in Probes and never fail the run.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// Finding represents a single categorized finding in the report.
type Finding struct {
	// Type is the finding type identifier, mapping into the
	// finding-info table in severity.go.
	Type string `json:"type"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains the privacy implications of this finding.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the specific value found (address, hash, hostname).
	Value string `json:"value,omitempty"`

	// Source names the probe or collector that produced the finding.
	Source string `json:"source,omitempty"`
}

// NewPrivacyReport creates a fresh report for one scan run.
func NewPrivacyReport() *PrivacyReport {
	return &PrivacyReport{
		ID:          uuid.NewString(),
		DateScanned: time.Now(),
		Probes:      make(map[string]ProbeRecord),
	}
}

// AddFinding appends a finding, skipping duplicates with the same type,
// value, and source, and keeps the severity counters in sync.
func (r *PrivacyReport) AddFinding(finding Finding) {
	for _, f := range r.Findings {
		if f.Type == finding.Type && f.Value == finding.Value && f.Source == finding.Source {
			return
		}
	}

	r.Findings = append(r.Findings, finding)

	switch finding.Severity {
	case SeverityCritical:
		r.CriticalCount++
	case SeverityHigh:
		r.HighCount++
	case SeverityMedium:
		r.MediumCount++
	case SeverityLow:
		r.LowCount++
	case SeverityInfo:
		r.InfoCount++
	}
}

// FindingsAtOrAbove returns findings with severity >= the given level,
// preserving report order.
func (r *PrivacyReport) FindingsAtOrAbove(level Severity) []Finding {
	out := make([]Finding, 0, len(r.Findings))
	for _, f := range r.Findings {
		if f.Severity >= level {
			out = append(out, f)
		}
	}
	return out
}

// DisplayScore returns the score the presentation layer should show: the
// server cross-check when available, otherwise the local score.
func (r *PrivacyReport) DisplayScore() *PrivacyScore {
	if r.ServerScore != nil {
		return r.ServerScore
	}
	return r.Score
}
