package leakapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leaklens/leaklens/internal/model"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()

	client, err := NewClient(baseURL, opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func respond(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    json.RawMessage(raw),
	}); err != nil {
		t.Fatalf("write response: %v", err)
	}
}

func TestDetectIP(t *testing.T) {
	t.Parallel()

	t.Run("own address uses POST", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/v1/ip" {
				t.Errorf("got %s %s, want POST /api/v1/ip", r.Method, r.URL.Path)
			}
			respond(t, w, model.IPLeakResult{
				IP:      "203.0.113.9",
				Country: "Netherlands",
				Privacy: model.PrivacyFlags{IsVPN: true},
			})
		}))
		defer srv.Close()

		result, err := newTestClient(t, srv.URL).DetectIP(context.Background(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IP != "203.0.113.9" {
			t.Errorf("IP = %s, want 203.0.113.9", result.IP)
		}
		if !result.Anonymized() {
			t.Error("VPN-flagged result must report Anonymized() = true")
		}
	})

	t.Run("specific address uses GET", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/api/v1/ip/198.51.100.7" {
				t.Errorf("got %s %s, want GET /api/v1/ip/198.51.100.7", r.Method, r.URL.Path)
			}
			respond(t, w, model.IPLeakResult{IP: "198.51.100.7"})
		}))
		defer srv.Close()

		result, err := newTestClient(t, srv.URL).DetectIP(context.Background(), "198.51.100.7")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IP != "198.51.100.7" {
			t.Errorf("IP = %s, want 198.51.100.7", result.IP)
		}
	})
}

func TestDetectDNSLeak(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserIP      string `json:"user_ip"`
			UserCountry string `json:"user_country"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.UserIP != "203.0.113.9" || body.UserCountry != "NL" {
			t.Errorf("anchors = %+v, want claimed IP and country", body)
		}
		respond(t, w, model.DNSLeakResult{
			IsLeak:   true,
			LeakType: model.LeakTypePartial,
			Resolvers: []model.DNSResolver{
				{IP: "192.0.2.53", ISP: "Example ISP", Country: "DE"},
			},
		})
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).DetectDNSLeak(context.Background(), "203.0.113.9", "NL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsLeak || result.LeakType != model.LeakTypePartial {
		t.Errorf("got %+v, want partial leak", result)
	}
}

func TestDetectWebRTCLeak(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			LocalIPs   []string             `json:"local_ips"`
			Candidates []model.ICECandidate `json:"candidates"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Candidates) != 1 {
			t.Errorf("got %d candidates, want 1", len(body.Candidates))
		}
		respond(t, w, model.WebRTCLeakResult{
			Supported: true,
			IsLeak:    true,
			NATType:   model.NATTypeSrflx,
		})
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv.URL).DetectWebRTCLeak(
		context.Background(),
		[]string{"192.168.1.105"},
		[]model.ICECandidate{{Type: model.CandidateHost, Address: "192.168.1.105", Port: 54400}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NATType != model.NATTypeSrflx {
		t.Errorf("NATType = %v, want srflx", result.NATType)
	}
}

func TestCalculatePrivacyScore(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, model.PrivacyScore{
			Total:     72,
			RiskLevel: model.RiskMedium,
			Breakdown: model.ScoreBreakdown{
				IPPrivacy:             20,
				DNSPrivacy:            15,
				WebRTCPrivacy:         7,
				FingerprintResistance: 20,
				BrowserConfig:         10,
			},
		})
	}))
	defer srv.Close()

	score, err := newTestClient(t, srv.URL).CalculatePrivacyScore(context.Background(), ScoreRequest{
		IPLeak: &model.IPLeakResult{IP: "203.0.113.9"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score.Total != 72 {
		t.Errorf("Total = %d, want 72", score.Total)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		// Closed server: connection refused.
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		_, err := newTestClient(t, srv.URL).GetNetworkInsights(context.Background())
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("got %T, want *TransportError", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("<html>not json</html>"))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).GetNetworkInsights(context.Background())
		var malformedErr *MalformedResponseError
		if !errors.As(err, &malformedErr) {
			t.Fatalf("got %T, want *MalformedResponseError", err)
		}
	})

	t.Run("envelope refusal", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "rate limited",
			})
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).GetNetworkInsights(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("got %T, want *APIError", err)
		}
		if apiErr.Message != "rate limited" {
			t.Errorf("Message = %q, want %q", apiErr.Message, "rate limited")
		}
	})

	t.Run("status refusal", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).GetNetworkInsights(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("got %T, want *APIError", err)
		}
		if apiErr.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
		}
	})

	t.Run("request budget enforced", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-release
		}))
		defer srv.Close()
		defer close(release)

		client := newTestClient(t, srv.URL, WithTimeout(50*time.Millisecond))
		start := time.Now()
		_, err := client.GetNetworkInsights(context.Background())
		if err == nil {
			t.Fatal("expected timeout error")
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("request ran %v, budget was 50ms", elapsed)
		}
	})
}

func TestNewClientOptionErrors(t *testing.T) {
	t.Parallel()

	t.Run("failing option aborts construction", func(t *testing.T) {
		t.Parallel()

		// A client whose options could not be applied must not come back
		// half-configured on a direct connection.
		boom := errors.New("no proxy for you")
		client, err := NewClient("http://api.example", func(*Client) error { return boom })
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want the option's error", err)
		}
		if client != nil {
			t.Error("client must be nil when an option fails")
		}
	})

	t.Run("socks5 installs a dedicated transport", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient("http://api.example", WithSOCKS5("127.0.0.1:9050"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.httpClient.Transport == nil {
			t.Error("proxied client must not keep the default direct transport")
		}
	})
}
