package leakapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"github.com/leaklens/leaklens/internal/model"
)

// DefaultTimeout is the hard per-request budget. Every operation on the
// client is bounded by it in addition to any caller-supplied context
// deadline.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a backend response is read. The
// analysis payloads are small; anything larger is malformed.
const maxResponseBytes = 1 << 20

// Client calls the backend analysis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client. Options that cannot be applied return an
// error, which NewClient propagates.
type Option func(*Client) error

// WithHTTPClient replaces the underlying HTTP client. Used by tests and
// by callers that need custom transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithTimeout overrides the per-request budget.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d > 0 {
			c.timeout = d
		}
		return nil
	}
}

// WithSOCKS5 routes all backend requests through the SOCKS5 proxy at
// addr. This lets the probes run through the anonymization path under
// test so the backend sees what a site would see. A proxy that cannot
// be set up fails client construction: silently probing over a direct
// connection would report on the wrong network path.
func WithSOCKS5(addr string) Option {
	return func(c *Client) error {
		dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
		if err != nil {
			return fmt.Errorf("socks5 proxy %s: %w", addr, err)
		}
		ctxDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("socks5 proxy %s: dialer does not support context dialing", addr)
		}
		c.httpClient = &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
					return ctxDialer.DialContext(ctx, network, address)
				},
			},
		}
		return nil
	}
}

// NewClient creates a backend client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("leakapi: %w", err)
		}
	}
	return c, nil
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// DetectIP analyzes an address. An empty ip probes the caller's own
// apparent address (the backend reads it off the connection); a
// non-empty ip asks about that specific address.
func (c *Client) DetectIP(ctx context.Context, ip string) (*model.IPLeakResult, error) {
	var result model.IPLeakResult
	if ip == "" {
		if err := c.do(ctx, "detect_ip", http.MethodPost, "/api/v1/ip", nil, &result); err != nil {
			return nil, err
		}
	} else {
		path := "/api/v1/ip/" + url.PathEscape(ip)
		if err := c.do(ctx, "detect_ip", http.MethodGet, path, nil, &result); err != nil {
			return nil, err
		}
	}
	return &result, nil
}

// DetectDNSLeak asks the backend to correlate the resolvers it observed
// against the user's claimed address and country. Both anchors are
// optional; without them the backend classifies on resolver reputation
// alone.
func (c *Client) DetectDNSLeak(ctx context.Context, userIP, userCountry string) (*model.DNSLeakResult, error) {
	body := struct {
		UserIP      string `json:"user_ip,omitempty"`
		UserCountry string `json:"user_country,omitempty"`
	}{UserIP: userIP, UserCountry: userCountry}

	var result model.DNSLeakResult
	if err := c.do(ctx, "detect_dns_leak", http.MethodPost, "/api/v1/dns-leak", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DetectWebRTCLeak submits locally gathered ICE candidates for the
// backend's classification. The engine computes its own assessment too;
// when both exist the backend's remediation text wins.
func (c *Client) DetectWebRTCLeak(ctx context.Context, localIPs []string, candidates []model.ICECandidate) (*model.WebRTCLeakResult, error) {
	body := struct {
		LocalIPs   []string             `json:"local_ips"`
		Candidates []model.ICECandidate `json:"candidates"`
	}{LocalIPs: localIPs, Candidates: candidates}

	var result model.WebRTCLeakResult
	if err := c.do(ctx, "detect_webrtc_leak", http.MethodPost, "/api/v1/webrtc-leak", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ScoreRequest carries the probe results submitted for the backend's
// score cross-check. Nil fields mean the probe did not run.
type ScoreRequest struct {
	IPLeak     *model.IPLeakResult     `json:"ip_leak,omitempty"`
	DNSLeak    *model.DNSLeakResult    `json:"dns_leak,omitempty"`
	WebRTCLeak *model.WebRTCLeakResult `json:"webrtc_leak,omitempty"`
}

// CalculatePrivacyScore asks the backend to score the supplied results.
// The backend is the source of truth when both it and the local
// aggregator produce a score.
func (c *Client) CalculatePrivacyScore(ctx context.Context, req ScoreRequest) (*model.PrivacyScore, error) {
	var result model.PrivacyScore
	if err := c.do(ctx, "calculate_privacy_score", http.MethodPost, "/api/v1/privacy-score", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetNetworkInsights fetches latency/speed telemetry. Informational
// only; never part of the privacy score.
func (c *Client) GetNetworkInsights(ctx context.Context) (*model.NetworkInsights, error) {
	var result model.NetworkInsights
	if err := c.do(ctx, "get_network_insights", http.MethodGet, "/api/v1/network-insights", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs one request/response cycle: marshal, send under the
// request budget, check the status line, unwrap the envelope, decode
// into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("leakapi: %s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("leakapi: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			apiErr.Message = env.Error
		}
		return apiErr
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	if !env.Success {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: env.Error}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &MalformedResponseError{Op: op, Err: err}
	}
	return nil
}
