// Package score computes the composite privacy score.
//
// The aggregator is a pure function over whatever probe results exist:
// every category starts at its maximum and loses fixed points for each
// adverse condition observed. Missing data is scored optimistically (a
// probe that never ran costs nothing), so the score is total over any
// subset of inputs and independent of the order probes finished in.
package score

import (
	"github.com/leaklens/leaklens/internal/model"
)

// Fixed per-condition deductions. Deductions within a category are
// independent and additive, then the category is clamped to
// [0, categoryMax].
const (
	deductWebRTCLocal   = 3
	deductWebRTCPublic  = 5
	deductWebRTCMDNS    = 4
	deductWebRTCIPv6    = 3
	deductWebRTCHostNAT = 5

	deductCanvasUnique = 5
	deductWebGLUnique  = 5
	deductAudioUnique  = 3
	deductFontsUnique  = 2

	// A complete anonymization failure forfeits the whole IP category,
	// and a full DNS leak the whole DNS category: an unprotected
	// connection with leaking resolvers must land in the high/critical
	// tiers even when every fingerprint surface is clean.
	deductIPNoAnonymization = 20
	deductIPDatacenter      = 5

	deductDNSFullLeak    = 15
	deductDNSPartialLeak = 5

	deductBrowserPlainDNS           = 5
	deductBrowserWebRTCExposed      = 5
	deductBrowserFingerprintSurface = 5
)

// Inputs is the superset of probe and collector outputs available for
// scoring. Any field may be nil (probe absent, failed, or skipped);
// unsupported fingerprint samples count as absent.
type Inputs struct {
	Canvas *model.FingerprintSample
	WebGL  *model.FingerprintSample
	Audio  *model.FingerprintSample
	Fonts  *model.FingerprintSample

	IP     *model.IPLeakResult
	DNS    *model.DNSLeakResult
	WebRTC *model.WebRTCLeakResult
}

// Options tunes the aggregator. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	// LowPct, MediumPct, HighPct are the tier breakpoints as percentages
	// of the maximum total. A score at exactly a breakpoint resolves to
	// the better tier.
	LowPct    int
	MediumPct int
	HighPct   int

	// Per-family entropy thresholds above which a fingerprint sample
	// counts as high-uniqueness and draws its deduction.
	CanvasEntropyThreshold float64
	WebGLEntropyThreshold  float64
	AudioEntropyThreshold  float64
	FontsEntropyThreshold  float64
}

// DefaultOptions returns the standard breakpoints (80/60/40) and
// uniqueness thresholds.
func DefaultOptions() Options {
	return Options{
		LowPct:    80,
		MediumPct: 60,
		HighPct:   40,

		CanvasEntropyThreshold: 9.0,
		WebGLEntropyThreshold:  8.0,
		AudioEntropyThreshold:  5.0,
		FontsEntropyThreshold:  6.0,
	}
}

// Score aggregates all available results into a PrivacyScore.
func Score(in Inputs, opts Options) model.PrivacyScore {
	breakdown := model.ScoreBreakdown{
		IPPrivacy:             scoreIP(in.IP),
		DNSPrivacy:            scoreDNS(in.DNS),
		WebRTCPrivacy:         scoreWebRTC(in.WebRTC),
		FingerprintResistance: scoreFingerprint(in, opts),
		BrowserConfig:         scoreBrowserConfig(in),
	}

	total := breakdown.Sum()
	level := tierFor(total, opts)

	return model.PrivacyScore{
		Total:         total,
		RiskLevel:     level,
		RiskLevelText: level.String(),
		Breakdown:     breakdown,
	}
}

func scoreIP(r *model.IPLeakResult) int {
	if r == nil {
		return model.MaxIPPrivacy
	}
	s := model.MaxIPPrivacy
	if !r.Anonymized() {
		s -= deductIPNoAnonymization
	}
	if r.Privacy.IsDatacenter && !r.Anonymized() {
		// A datacenter address without a recognized anonymization flag
		// suggests an unclassified proxy of unknown trustworthiness.
		s -= deductIPDatacenter
	}
	return clamp(s, model.MaxIPPrivacy)
}

func scoreDNS(r *model.DNSLeakResult) int {
	if r == nil {
		return model.MaxDNSPrivacy
	}
	s := model.MaxDNSPrivacy
	if r.IsLeak {
		switch r.LeakType {
		case model.LeakTypeFull:
			s -= deductDNSFullLeak
		default:
			s -= deductDNSPartialLeak
		}
	}
	return clamp(s, model.MaxDNSPrivacy)
}

func scoreWebRTC(r *model.WebRTCLeakResult) int {
	if r == nil || !r.Supported {
		// No WebRTC means no WebRTC leak surface.
		return model.MaxWebRTCPrivacy
	}
	s := model.MaxWebRTCPrivacy
	if len(r.LocalAddresses) > 0 {
		s -= deductWebRTCLocal
	}
	if len(r.PublicAddresses) > 0 {
		s -= deductWebRTCPublic
	}
	if len(r.MDNSHostnames) > 0 {
		s -= deductWebRTCMDNS
	}
	if len(r.IPv6Addresses) > 0 {
		s -= deductWebRTCIPv6
	}
	if r.NATType == model.NATTypeHost {
		// The browser sits directly on a public interface with nothing
		// shielding it.
		s -= deductWebRTCHostNAT
	}
	return clamp(s, model.MaxWebRTCPrivacy)
}

func scoreFingerprint(in Inputs, opts Options) int {
	s := model.MaxFingerprintResistance
	if unique(in.Canvas, opts.CanvasEntropyThreshold) {
		s -= deductCanvasUnique
	}
	if unique(in.WebGL, opts.WebGLEntropyThreshold) {
		s -= deductWebGLUnique
	}
	if unique(in.Audio, opts.AudioEntropyThreshold) {
		s -= deductAudioUnique
	}
	if unique(in.Fonts, opts.FontsEntropyThreshold) {
		s -= deductFontsUnique
	}
	return clamp(s, model.MaxFingerprintResistance)
}

// scoreBrowserConfig grades configuration hygiene from signals the
// other probes already carry: resolver encryption, whether WebRTC was
// left exposing addresses, and whether the full fingerprinting surface
// is reachable.
func scoreBrowserConfig(in Inputs) int {
	s := model.MaxBrowserConfig
	if in.DNS != nil && !in.DNS.DoHDetected && !in.DNS.DoTDetected {
		s -= deductBrowserPlainDNS
	}
	if in.WebRTC != nil && in.WebRTC.Supported && in.WebRTC.IsLeak {
		s -= deductBrowserWebRTCExposed
	}
	if supported(in.Canvas) && supported(in.WebGL) && supported(in.Audio) && supported(in.Fonts) {
		s -= deductBrowserFingerprintSurface
	}
	return clamp(s, model.MaxBrowserConfig)
}

func unique(sample *model.FingerprintSample, threshold float64) bool {
	return sample != nil && sample.Supported && sample.Entropy >= threshold
}

func supported(sample *model.FingerprintSample) bool {
	return sample != nil && sample.Supported
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func tierFor(total int, opts Options) model.RiskLevel {
	pct := total * 100 / model.MaxTotal
	switch {
	case pct >= opts.LowPct:
		return model.RiskLow
	case pct >= opts.MediumPct:
		return model.RiskMedium
	case pct >= opts.HighPct:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}
