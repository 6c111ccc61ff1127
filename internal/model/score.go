package model

// RiskLevel is the discrete tier derived from the composite privacy score.
//
// Design decision: iota ordering runs from best to worst so that
// comparisons read naturally (level >= RiskHigh means "bad or worse").
type RiskLevel int

const (
	// RiskLow means the score is at or above 80% of the maximum.
	RiskLow RiskLevel = iota

	// RiskMedium means the score is at or above 60% of the maximum.
	RiskMedium

	// RiskHigh means the score is at or above 40% of the maximum.
	RiskHigh

	// RiskCritical means the score is below 40% of the maximum.
	RiskCritical
)

// String returns a human-readable representation of the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Category maxima for the score breakdown. The weights reflect how much
// each leak vector contributes to real-world re-identification.
const (
	// MaxIPPrivacy is the ceiling for the IP exposure category.
	MaxIPPrivacy = 20

	// MaxDNSPrivacy is the ceiling for the DNS leak category.
	MaxDNSPrivacy = 15

	// MaxWebRTCPrivacy is the ceiling for the WebRTC leak category.
	MaxWebRTCPrivacy = 15

	// MaxFingerprintResistance is the ceiling for fingerprint resistance.
	// It carries the largest weight because fingerprinting works even
	// when every network-level leak is plugged.
	MaxFingerprintResistance = 30

	// MaxBrowserConfig is the ceiling for browser configuration hygiene.
	MaxBrowserConfig = 20

	// MaxTotal is the maximum achievable total score.
	MaxTotal = MaxIPPrivacy + MaxDNSPrivacy + MaxWebRTCPrivacy +
		MaxFingerprintResistance + MaxBrowserConfig
)

// ScoreBreakdown holds the per-category scores. Each value is clamped to
// [0, categoryMax]; deductions within a category are independent and
// additive before clamping.
type ScoreBreakdown struct {
	IPPrivacy             int `json:"ip_privacy"`
	DNSPrivacy            int `json:"dns_privacy"`
	WebRTCPrivacy         int `json:"webrtc_privacy"`
	FingerprintResistance int `json:"fingerprint_resistance"`
	BrowserConfig         int `json:"browser_config"`
}

// Sum returns the total of all category scores.
func (b ScoreBreakdown) Sum() int {
	return b.IPPrivacy + b.DNSPrivacy + b.WebRTCPrivacy +
		b.FingerprintResistance + b.BrowserConfig
}

// PrivacyScore is the weighted composite 0-100 index derived from all
// probe and collector outputs.
//
// Total always equals Breakdown.Sum(), and RiskLevel is a monotonic
// step function of Total/MaxTotal. The score has no identity beyond the
// run that produced it.
type PrivacyScore struct {
	// Total is the composite score in [0, MaxTotal].
	Total int `json:"total"`

	// RiskLevel is the discrete tier for Total.
	RiskLevel RiskLevel `json:"risk_level"`

	// RiskLevelText is the human-readable tier for serialization.
	RiskLevelText string `json:"risk_level_text"`

	// Breakdown holds the per-category scores.
	Breakdown ScoreBreakdown `json:"breakdown"`
}
