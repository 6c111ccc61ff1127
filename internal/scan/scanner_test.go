package scan

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/leaklens/leaklens/internal/browserenv"
	"github.com/leaklens/leaklens/internal/leakapi"
	"github.com/leaklens/leaklens/internal/model"
	"github.com/leaklens/leaklens/internal/score"
	"github.com/leaklens/leaklens/internal/webrtc"
)

func testEnv() browserenv.Environment {
	return browserenv.NewSnapshot(browserenv.SnapshotData{
		Capabilities: map[string]bool{"webrtc": true},
		Canvas: &browserenv.CanvasSnapshot{
			Width:  280,
			Height: 60,
			Pixels: base64.StdEncoding.EncodeToString([]byte("pixel data")),
		},
		WebGL: &browserenv.WebGLSnapshot{
			Vendor:   "WebKit",
			Renderer: "WebKit WebGL",
		},
		Audio: &browserenv.AudioSnapshot{
			SampleRate: 44100,
			Samples:    []float64{0.0001, 0.0042, -0.0031},
		},
		Fonts: &browserenv.FontSnapshot{
			Baselines:    map[string]float64{"monospace": 120},
			Measurements: map[string]map[string]float64{"Arial": {"monospace": 113.2}},
		},
	})
}

func testBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, data any) {
		raw, _ := json.Marshal(data)
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": json.RawMessage(raw)})
	}
	mux.HandleFunc("/api/v1/ip", func(w http.ResponseWriter, _ *http.Request) {
		write(w, model.IPLeakResult{IP: "203.0.113.9", Country: "Netherlands", CountryCode: "NL"})
	})
	mux.HandleFunc("/api/v1/dns-leak", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserIP      string `json:"user_ip"`
			UserCountry string `json:"user_country"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode dns request: %v", err)
		}
		if body.UserIP != "203.0.113.9" || body.UserCountry != "NL" {
			t.Errorf("dns probe anchors = %+v, want the IP probe's result", body)
		}
		write(w, model.DNSLeakResult{IsLeak: false, LeakType: model.LeakTypeNone, DoHDetected: true})
	})
	mux.HandleFunc("/api/v1/webrtc-leak", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			LocalIPs []string `json:"local_ips"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		write(w, model.WebRTCLeakResult{
			Supported:      true,
			IsLeak:         len(body.LocalIPs) > 0,
			NATType:        model.NATTypeSrflx,
			LocalAddresses: body.LocalIPs,
		})
	})
	mux.HandleFunc("/api/v1/privacy-score", func(w http.ResponseWriter, _ *http.Request) {
		write(w, model.PrivacyScore{Total: 88, RiskLevel: model.RiskLow, RiskLevelText: "low"})
	})
	mux.HandleFunc("/api/v1/network-insights", func(w http.ResponseWriter, _ *http.Request) {
		write(w, model.NetworkInsights{LatencyMillis: 23.5})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestScanFullRun(t *testing.T) {
	t.Parallel()

	srv := testBackend(t)

	backend, err := leakapi.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("backend client: %v", err)
	}

	var mu sync.Mutex
	var events []Progress

	scanner := NewScanner(testEnv(),
		WithBackend(backend),
		WithGatherer(&webrtc.StaticGatherer{Candidates: []model.ICECandidate{
			{Type: model.CandidateHost, Address: "192.168.1.105", Port: 54400, Protocol: "udp"},
			{Type: model.CandidateSrflx, Address: "203.0.113.9", Port: 61234, Protocol: "udp"},
		}}),
		WithServerScoreCheck(true),
		WithProgress(func(p Progress) {
			mu.Lock()
			events = append(events, p)
			mu.Unlock()
		}),
	)

	report, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"canvas", "webgl", "audio", "fonts", "webrtc", "ip", "dns", "insights"} {
		record, ok := report.Probes[name]
		if !ok {
			t.Errorf("no lifecycle record for probe %q", name)
			continue
		}
		if record.Status != model.ProbePassed {
			t.Errorf("probe %q status = %v (%s), want passed", name, record.Status, record.Error)
		}
	}

	if report.Canvas == nil || !report.Canvas.Supported || report.Canvas.Hash == "" {
		t.Error("canvas sample missing or unsupported")
	}
	if report.IP == nil || report.IP.IP != "203.0.113.9" {
		t.Errorf("IP result = %+v, want 203.0.113.9", report.IP)
	}
	if report.WebRTC == nil || !report.WebRTC.IsLeak {
		t.Error("webrtc result should flag the private address as a leak")
	}
	if report.Score == nil {
		t.Fatal("local score missing")
	}
	if report.Score.Total != report.Score.Breakdown.Sum() {
		t.Errorf("Total %d != Breakdown.Sum() %d", report.Score.Total, report.Score.Breakdown.Sum())
	}
	if report.ServerScore == nil || report.ServerScore.Total != 88 {
		t.Errorf("ServerScore = %+v, want the backend cross-check", report.ServerScore)
	}
	if report.DisplayScore() != report.ServerScore {
		t.Error("DisplayScore must prefer the server cross-check")
	}
	if len(report.Findings) == 0 {
		t.Error("expected findings for a leaking WebRTC result")
	}
	if report.TimedOut {
		t.Error("run should not be marked timed out")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) == 0 {
		t.Fatal("no progress events delivered")
	}
	last := events[len(events)-1]
	if last.Completed != last.Total {
		t.Errorf("final progress %d/%d, want all probes terminal", last.Completed, last.Total)
	}
}

func TestScanWithoutBackend(t *testing.T) {
	t.Parallel()

	scanner := NewScanner(testEnv(),
		WithGatherer(&webrtc.StaticGatherer{}),
	)

	report, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"ip", "dns", "insights"} {
		if _, ok := report.Probes[name]; ok {
			t.Errorf("probe %q should not run without a backend", name)
		}
	}
	if report.IP != nil {
		t.Error("IP result should be absent without a backend")
	}
	if report.Score == nil {
		t.Fatal("local score missing")
	}
	// Absent network probes score optimistically.
	if report.Score.Breakdown.IPPrivacy != model.MaxIPPrivacy {
		t.Errorf("IPPrivacy = %d, want %d", report.Score.Breakdown.IPPrivacy, model.MaxIPPrivacy)
	}
}

func TestScanCancellationDiscardsResults(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewScanner(testEnv(),
		WithGatherer(&webrtc.StaticGatherer{Candidates: []model.ICECandidate{
			{Type: model.CandidateHost, Address: "192.168.1.105", Port: 54400},
		}}),
	)

	report, err := scanner.Scan(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Canvas != nil || report.WebRTC != nil {
		t.Error("results arriving after cancellation must be discarded")
	}
	for name, record := range report.Probes {
		if record.Status != model.ProbeFailed {
			t.Errorf("probe %q status = %v, want failed after cancellation", name, record.Status)
		}
	}
}

func TestScanWebRTCUnsupportedEnvironment(t *testing.T) {
	t.Parallel()

	env := browserenv.NewSnapshot(browserenv.SnapshotData{
		Capabilities: map[string]bool{"webrtc": false},
		Canvas: &browserenv.CanvasSnapshot{
			Width: 1, Height: 1,
			Pixels: base64.StdEncoding.EncodeToString([]byte{0}),
		},
	})

	scanner := NewScanner(env)

	report, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.WebRTC == nil {
		t.Fatal("webrtc result missing")
	}
	if report.WebRTC.Supported {
		t.Error("webrtc must report unsupported when the capability is absent")
	}
	if record := report.Probes["webrtc"]; record.Status != model.ProbePassed {
		t.Errorf("unsupported WebRTC is a passed probe, got %v", record.Status)
	}

	found := false
	for _, f := range report.Findings {
		if f.Type == "webrtc_unsupported" {
			found = true
		}
	}
	if !found {
		t.Error("expected a webrtc_unsupported informational finding")
	}
}

func TestDeriveFindings(t *testing.T) {
	t.Parallel()

	report := model.NewPrivacyReport()
	report.IP = &model.IPLeakResult{IP: "198.51.100.7"}
	report.DNS = &model.DNSLeakResult{IsLeak: true, LeakType: model.LeakTypeFull,
		Resolvers: []model.DNSResolver{{IP: "192.0.2.53"}}}
	report.WebRTC = &model.WebRTCLeakResult{
		Supported:      true,
		IsLeak:         true,
		NATType:        model.NATTypeHost,
		LocalAddresses: []string{"192.168.1.105"},
	}

	deriveFindings(report, true, score.DefaultOptions())

	want := map[string]model.Severity{
		"ip_no_anonymization":      model.SeverityHigh,
		"vpn_claimed_not_detected": model.SeverityCritical,
		"dns_leak_full":            model.SeverityCritical,
		"dns_resolver_unencrypted": model.SeverityLow,
		"webrtc_local_ip":          model.SeverityHigh,
		"webrtc_host_exposure":     model.SeverityHigh,
	}

	got := make(map[string]model.Severity, len(report.Findings))
	for _, f := range report.Findings {
		got[f.Type] = f.Severity
	}
	for typ, severity := range want {
		if got[typ] != severity {
			t.Errorf("finding %q severity = %v, want %v (present: %v)", typ, got[typ], severity, got)
		}
	}
	if report.CriticalCount != 2 {
		t.Errorf("CriticalCount = %d, want 2", report.CriticalCount)
	}
}

func TestDeriveFindingsConfiguredThresholds(t *testing.T) {
	t.Parallel()

	sample := func() *model.FingerprintSample {
		return &model.FingerprintSample{
			Family:    "canvas",
			Supported: true,
			Hash:      "3f1a9c2e77b04d58aa10",
			Entropy:   7.5,
		}
	}

	hasCanvasUnique := func(report *model.PrivacyReport) bool {
		for _, f := range report.Findings {
			if f.Type == "canvas_unique" {
				return true
			}
		}
		return false
	}

	report := model.NewPrivacyReport()
	report.Canvas = sample()
	deriveFindings(report, false, score.DefaultOptions())
	if hasCanvasUnique(report) {
		t.Error("entropy 7.5 below the default threshold must not draw canvas_unique")
	}

	// Lowering the threshold has to move the finding with it: the same
	// sample that draws a deduction must draw the finding.
	opts := score.DefaultOptions()
	opts.CanvasEntropyThreshold = 7.0

	report = model.NewPrivacyReport()
	report.Canvas = sample()
	deriveFindings(report, false, opts)
	if !hasCanvasUnique(report) {
		t.Error("entropy 7.5 above a configured 7.0 threshold must draw canvas_unique")
	}

	// The same options must drive the aggregator the same way: a sample
	// that draws a finding also draws its deduction.
	scored := score.Score(score.Inputs{Canvas: report.Canvas}, opts)
	if scored.Breakdown.FingerprintResistance == model.MaxFingerprintResistance {
		t.Error("configured threshold must also drive the aggregator's deduction")
	}
}
