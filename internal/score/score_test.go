package score

import (
	"testing"

	"github.com/leaklens/leaklens/internal/model"
)

func TestScoreEmptyInputsIsOptimistic(t *testing.T) {
	t.Parallel()

	got := Score(Inputs{}, DefaultOptions())

	if got.Total != model.MaxTotal {
		t.Errorf("Total = %d, want %d (absent inputs score at maximum)", got.Total, model.MaxTotal)
	}
	if got.RiskLevel != model.RiskLow {
		t.Errorf("RiskLevel = %v, want low", got.RiskLevel)
	}
	if got.Total != got.Breakdown.Sum() {
		t.Errorf("Total %d != Breakdown.Sum() %d", got.Total, got.Breakdown.Sum())
	}
}

func TestScoreCategoryBounds(t *testing.T) {
	t.Parallel()

	// Every adverse condition at once: each category must clamp at zero
	// rather than going negative, and the total must stay the sum.
	in := Inputs{
		Canvas: &model.FingerprintSample{Supported: true, Entropy: 12},
		WebGL:  &model.FingerprintSample{Supported: true, Entropy: 11},
		Audio:  &model.FingerprintSample{Supported: true, Entropy: 5.4},
		Fonts:  &model.FingerprintSample{Supported: true, Entropy: 8},
		IP: &model.IPLeakResult{
			IP:      "203.0.113.9",
			Privacy: model.PrivacyFlags{IsDatacenter: true},
		},
		DNS: &model.DNSLeakResult{IsLeak: true, LeakType: model.LeakTypeFull},
		WebRTC: &model.WebRTCLeakResult{
			Supported:       true,
			IsLeak:          true,
			LocalAddresses:  []string{"192.168.1.105"},
			PublicAddresses: []string{"203.0.113.9"},
			MDNSHostnames:   []string{"a1b2.local"},
			IPv6Addresses:   []string{"2001:db8::1"},
		},
	}

	got := Score(in, DefaultOptions())

	if got.Breakdown.WebRTCPrivacy != 0 {
		t.Errorf("WebRTCPrivacy = %d, want 0 (15 in deductions against a 15 maximum)", got.Breakdown.WebRTCPrivacy)
	}
	for name, pair := range map[string][2]int{
		"ip":          {got.Breakdown.IPPrivacy, model.MaxIPPrivacy},
		"dns":         {got.Breakdown.DNSPrivacy, model.MaxDNSPrivacy},
		"webrtc":      {got.Breakdown.WebRTCPrivacy, model.MaxWebRTCPrivacy},
		"fingerprint": {got.Breakdown.FingerprintResistance, model.MaxFingerprintResistance},
		"browser":     {got.Breakdown.BrowserConfig, model.MaxBrowserConfig},
	} {
		if pair[0] < 0 || pair[0] > pair[1] {
			t.Errorf("%s category %d outside [0, %d]", name, pair[0], pair[1])
		}
	}
	if got.Total != got.Breakdown.Sum() {
		t.Errorf("Total %d != Breakdown.Sum() %d", got.Total, got.Breakdown.Sum())
	}
	if got.Total >= 50 {
		t.Errorf("fully leaking environment scored %d, want below 50", got.Total)
	}
	if got.RiskLevel != model.RiskHigh && got.RiskLevel != model.RiskCritical {
		t.Errorf("RiskLevel = %v, want high or critical", got.RiskLevel)
	}
}

func TestScoreUnprotectedConnection(t *testing.T) {
	t.Parallel()

	// A bare connection with nothing anonymizing it: no VPN on the
	// apparent address, every DNS query leaking, and WebRTC disclosing a
	// private address straight off a host interface. No fingerprint
	// samples exist, so that category scores at its maximum.
	in := Inputs{
		IP: &model.IPLeakResult{IP: "203.0.113.9"},
		DNS: &model.DNSLeakResult{
			IsLeak:   true,
			LeakType: model.LeakTypeFull,
		},
		WebRTC: &model.WebRTCLeakResult{
			Supported:      true,
			IsLeak:         true,
			NATType:        model.NATTypeHost,
			LocalAddresses: []string{"192.168.1.5"},
		},
	}

	got := Score(in, DefaultOptions())

	if got.Breakdown.IPPrivacy != 0 {
		t.Errorf("IPPrivacy = %d, want 0 for an unanonymized address", got.Breakdown.IPPrivacy)
	}
	if got.Breakdown.DNSPrivacy != 0 {
		t.Errorf("DNSPrivacy = %d, want 0 for a full leak", got.Breakdown.DNSPrivacy)
	}
	if got.Breakdown.FingerprintResistance != model.MaxFingerprintResistance {
		t.Errorf("FingerprintResistance = %d, want %d (absent samples score at maximum)",
			got.Breakdown.FingerprintResistance, model.MaxFingerprintResistance)
	}
	if got.Total >= 50 {
		t.Errorf("unprotected connection scored %d, want below 50", got.Total)
	}
	if got.RiskLevel != model.RiskHigh && got.RiskLevel != model.RiskCritical {
		t.Errorf("RiskLevel = %v, want high or critical", got.RiskLevel)
	}
}

func TestScoreCleanTorProfile(t *testing.T) {
	t.Parallel()

	in := Inputs{
		Canvas: model.NewUnsupportedSample("canvas"),
		WebGL:  model.NewUnsupportedSample("webgl"),
		Audio:  model.NewUnsupportedSample("audio"),
		Fonts:  model.NewUnsupportedSample("fonts"),
		IP: &model.IPLeakResult{
			IP:      "198.51.100.33",
			Privacy: model.PrivacyFlags{IsTor: true},
		},
		DNS:    &model.DNSLeakResult{IsLeak: false, LeakType: model.LeakTypeNone, DoHDetected: true},
		WebRTC: &model.WebRTCLeakResult{Supported: false, NATType: model.NATTypeUnknown},
	}

	got := Score(in, DefaultOptions())

	if got.Total < 90 {
		t.Errorf("clean hardened profile scored %d, want at least 90", got.Total)
	}
	if got.RiskLevel != model.RiskLow {
		t.Errorf("RiskLevel = %v, want low", got.RiskLevel)
	}
}

func TestScoreWebRTCDeductions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result *model.WebRTCLeakResult
		want   int
	}{
		{
			name:   "absent scores at maximum",
			result: nil,
			want:   model.MaxWebRTCPrivacy,
		},
		{
			name:   "unsupported scores at maximum",
			result: &model.WebRTCLeakResult{Supported: false},
			want:   model.MaxWebRTCPrivacy,
		},
		{
			name: "local exposure",
			result: &model.WebRTCLeakResult{
				Supported:      true,
				LocalAddresses: []string{"192.168.1.105"},
			},
			want: model.MaxWebRTCPrivacy - 3,
		},
		{
			name: "public exposure",
			result: &model.WebRTCLeakResult{
				Supported:       true,
				PublicAddresses: []string{"203.0.113.9"},
			},
			want: model.MaxWebRTCPrivacy - 5,
		},
		{
			name: "mdns leak",
			result: &model.WebRTCLeakResult{
				Supported:     true,
				MDNSHostnames: []string{"a1b2.local"},
			},
			want: model.MaxWebRTCPrivacy - 4,
		},
		{
			name: "ipv6 leak",
			result: &model.WebRTCLeakResult{
				Supported:     true,
				IPv6Addresses: []string{"2001:db8::1"},
			},
			want: model.MaxWebRTCPrivacy - 3,
		},
		{
			name: "host nat exposure",
			result: &model.WebRTCLeakResult{
				Supported: true,
				NATType:   model.NATTypeHost,
			},
			want: model.MaxWebRTCPrivacy - 5,
		},
		{
			name: "deductions are additive",
			result: &model.WebRTCLeakResult{
				Supported:       true,
				LocalAddresses:  []string{"192.168.1.105"},
				PublicAddresses: []string{"203.0.113.9"},
			},
			want: model.MaxWebRTCPrivacy - 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Score(Inputs{WebRTC: tt.result}, DefaultOptions())
			if got.Breakdown.WebRTCPrivacy != tt.want {
				t.Errorf("WebRTCPrivacy = %d, want %d", got.Breakdown.WebRTCPrivacy, tt.want)
			}
		})
	}
}

func TestScoreFingerprintDeductions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()

	tests := []struct {
		name string
		in   Inputs
		want int
	}{
		{
			name: "below thresholds draws nothing",
			in: Inputs{
				Canvas: &model.FingerprintSample{Supported: true, Entropy: opts.CanvasEntropyThreshold - 1},
				Audio:  &model.FingerprintSample{Supported: true, Entropy: opts.AudioEntropyThreshold - 1},
			},
			want: model.MaxFingerprintResistance,
		},
		{
			name: "canvas and webgl unique",
			in: Inputs{
				Canvas: &model.FingerprintSample{Supported: true, Entropy: opts.CanvasEntropyThreshold},
				WebGL:  &model.FingerprintSample{Supported: true, Entropy: opts.WebGLEntropyThreshold},
			},
			want: model.MaxFingerprintResistance - 10,
		},
		{
			name: "audio and fonts unique",
			in: Inputs{
				Audio: &model.FingerprintSample{Supported: true, Entropy: opts.AudioEntropyThreshold + 1},
				Fonts: &model.FingerprintSample{Supported: true, Entropy: opts.FontsEntropyThreshold + 1},
			},
			want: model.MaxFingerprintResistance - 5,
		},
		{
			name: "unsupported sample counts as absent",
			in: Inputs{
				Canvas: model.NewUnsupportedSample("canvas"),
			},
			want: model.MaxFingerprintResistance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Score(tt.in, DefaultOptions())
			if got.Breakdown.FingerprintResistance != tt.want {
				t.Errorf("FingerprintResistance = %d, want %d", got.Breakdown.FingerprintResistance, tt.want)
			}
		})
	}
}

func TestTierBreakpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total int
		want  model.RiskLevel
	}{
		{95, model.RiskLow},
		{80, model.RiskLow}, // exact boundary resolves to the better tier
		{75, model.RiskMedium},
		{60, model.RiskMedium},
		{55, model.RiskHigh},
		{40, model.RiskHigh},
		{35, model.RiskCritical},
		{0, model.RiskCritical},
	}

	for _, tt := range tests {
		if got := tierFor(tt.total, DefaultOptions()); got != tt.want {
			t.Errorf("tierFor(%d) = %v, want %v", tt.total, got, tt.want)
		}
	}
}

func TestTierConfigurableBreakpoints(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.LowPct = 90

	if got := tierFor(85, opts); got != model.RiskMedium {
		t.Errorf("tierFor(85) with LowPct=90 = %v, want medium", got)
	}
}

func TestScoreOrderIndependence(t *testing.T) {
	t.Parallel()

	// The aggregator takes a struct, so "order" means which probes
	// finished: scoring a superset built two different ways must agree.
	webrtc := &model.WebRTCLeakResult{
		Supported:      true,
		IsLeak:         true,
		LocalAddresses: []string{"10.0.0.4", "192.168.1.105"},
	}
	dns := &model.DNSLeakResult{IsLeak: true, LeakType: model.LeakTypePartial, DoHDetected: true}

	a := Score(Inputs{WebRTC: webrtc, DNS: dns}, DefaultOptions())
	b := Score(Inputs{DNS: dns, WebRTC: webrtc}, DefaultOptions())

	if a != b {
		t.Errorf("score differs between identical input sets: %+v vs %+v", a, b)
	}
}
