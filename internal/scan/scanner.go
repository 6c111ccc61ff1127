package scan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leaklens/leaklens/internal/browserenv"
	"github.com/leaklens/leaklens/internal/fingerprint"
	"github.com/leaklens/leaklens/internal/leakapi"
	"github.com/leaklens/leaklens/internal/model"
	"github.com/leaklens/leaklens/internal/score"
	"github.com/leaklens/leaklens/internal/webrtc"
)

// DefaultScanTimeout bounds a whole run when the caller does not set
// its own deadline.
const DefaultScanTimeout = 60 * time.Second

// Scanner runs privacy scans. Construct with NewScanner; the zero value
// is not usable.
type Scanner struct {
	env        browserenv.Environment
	client     *leakapi.Client
	gatherer   webrtc.Gatherer
	scoreOpts  score.Options
	logger     *slog.Logger
	progress   ProgressFunc
	timeout    time.Duration
	claimedVPN bool
	crossCheck bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets a custom logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithBackend enables the network probes (IP, DNS, insights) and the
// server-side half of the WebRTC assessment through the given client.
// Without a backend only local collectors run.
func WithBackend(client *leakapi.Client) Option {
	return func(s *Scanner) {
		s.client = client
	}
}

// WithGatherer sets the ICE candidate source. Defaults to the live
// network stack.
func WithGatherer(g webrtc.Gatherer) Option {
	return func(s *Scanner) {
		s.gatherer = g
	}
}

// WithScoreOptions overrides the aggregator's thresholds.
func WithScoreOptions(opts score.Options) Option {
	return func(s *Scanner) {
		s.scoreOpts = opts
	}
}

// WithProgress registers a callback for probe lifecycle events.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scanner) {
		s.progress = fn
	}
}

// WithTimeout overrides the overall run deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClaimedVPN records that the user claims an active VPN. When the
// IP probe then finds no anonymization, the mismatch is reported as a
// critical finding.
func WithClaimedVPN(claimed bool) Option {
	return func(s *Scanner) {
		s.claimedVPN = claimed
	}
}

// WithServerScoreCheck also asks the backend to score the results. The
// server value is authoritative for display when both exist.
func WithServerScoreCheck(enabled bool) Option {
	return func(s *Scanner) {
		s.crossCheck = enabled
	}
}

// NewScanner creates a Scanner reading browser surfaces from env.
func NewScanner(env browserenv.Environment, opts ...Option) *Scanner {
	s := &Scanner{
		env:       env,
		gatherer:  &webrtc.NetworkGatherer{},
		scoreOpts: score.DefaultOptions(),
		timeout:   DefaultScanTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Scan executes one full run: fingerprint collectors, the WebRTC probe,
// and (with a backend) the IP, DNS, and insights probes, fanned out
// concurrently except for the IP-before-DNS ordering. The returned
// report is complete even when individual probes failed; a non-nil
// error means the run itself could not execute.
func (s *Scanner) Scan(ctx context.Context) (*model.PrivacyReport, error) {
	if s.env == nil {
		return nil, errors.New("scan: no browser environment configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report := model.NewPrivacyReport()
	probes := s.buildProbes()

	// The composite ip+dns probe produces two lifecycle records.
	total := 0
	for _, p := range probes {
		if p.Name() == "ip+dns" {
			total += 2
			continue
		}
		total++
	}

	run := newRun(report, s.scoreOpts, s.progress, total)

	s.logger.Info("scan started", "id", report.ID, "probes", total)

	// Probes record their own failures; the group only propagates a
	// run-level abort, which no probe currently raises.
	var g errgroup.Group
	for _, p := range probes {
		g.Go(func() error {
			return p.Do(ctx, run)
		})
	}
	if err := g.Wait(); err != nil {
		report.ErrorMessage = err.Error()
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		report.TimedOut = true
	}

	run.mu.Lock()
	run.recomputeLocked()
	run.mu.Unlock()

	deriveFindings(report, s.claimedVPN, s.scoreOpts)

	if s.crossCheck && s.client != nil && ctx.Err() == nil {
		server, err := s.client.CalculatePrivacyScore(ctx, leakapi.ScoreRequest{
			IPLeak:     report.IP,
			DNSLeak:    report.DNS,
			WebRTCLeak: report.WebRTC,
		})
		if err != nil {
			s.logger.Warn("server score cross-check failed", "error", err)
		} else {
			report.ServerScore = server
		}
	}

	s.logger.Info("scan finished",
		"id", report.ID,
		"score", report.DisplayScore().Total,
		"risk", report.DisplayScore().RiskLevelText,
		"findings", len(report.Findings),
		"timed_out", report.TimedOut,
	)

	return report, nil
}

func (s *Scanner) buildProbes() []Probe {
	probes := []Probe{
		&fingerprintProbe{
			collector: fingerprint.NewCanvasCollector(s.env),
			assign:    func(r *model.PrivacyReport, sample *model.FingerprintSample) { r.Canvas = sample },
		},
		&fingerprintProbe{
			collector: fingerprint.NewWebGLCollector(s.env),
			assign:    func(r *model.PrivacyReport, sample *model.FingerprintSample) { r.WebGL = sample },
		},
		&fingerprintProbe{
			collector: fingerprint.NewAudioCollector(s.env),
			assign:    func(r *model.PrivacyReport, sample *model.FingerprintSample) { r.Audio = sample },
		},
		&fingerprintProbe{
			collector: fingerprint.NewFontCollector(s.env),
			assign:    func(r *model.PrivacyReport, sample *model.FingerprintSample) { r.Fonts = sample },
		},
	}

	var gatherer webrtc.Gatherer
	if s.env.Capabilities().Has(browserenv.CapWebRTC) {
		gatherer = s.gatherer
	}
	probes = append(probes, &webrtcProbe{
		detector: webrtc.NewDetector(gatherer),
		client:   s.client,
	})

	if s.client != nil {
		probes = append(probes,
			&ipDNSProbe{client: s.client},
			&insightsProbe{client: s.client},
		)
	}

	return probes
}
