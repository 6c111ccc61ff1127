package scan

import (
	"context"

	"github.com/leaklens/leaklens/internal/fingerprint"
	"github.com/leaklens/leaklens/internal/leakapi"
	"github.com/leaklens/leaklens/internal/model"
	"github.com/leaklens/leaklens/internal/webrtc"
)

// Probe is one unit of work within a scan run. Implementations record
// their own lifecycle on the Run and must return instead of running on
// after ctx is cancelled.
//
// Design decision: We use an interface rather than function types
// because probes carry configuration (collectors, clients), need a
// Name() for lifecycle records and logging, and because the ordering
// constraint between the IP and DNS probes is easiest to express as a
// composite probe.
type Probe interface {
	// Do executes the probe against the run. Failures are recorded in
	// the run's probe records; Do itself returns nil unless the whole
	// run should abort.
	Do(ctx context.Context, run *Run) error

	// Name returns the probe's name for lifecycle records.
	Name() string
}

// fingerprintProbe wraps one fingerprint collector family.
type fingerprintProbe struct {
	collector fingerprint.Collector
	assign    func(*model.PrivacyReport, *model.FingerprintSample)
}

// Name implements Probe.
func (p *fingerprintProbe) Name() string { return p.collector.Name() }

// Do implements Probe. An unsupported environment yields a passed probe
// carrying an unsupported sample; only a render failure marks the probe
// failed.
func (p *fingerprintProbe) Do(ctx context.Context, run *Run) error {
	run.start(p.Name())

	sample, err := p.collector.Detect(ctx)
	if err != nil {
		run.finish(ctx, p.Name(), nil, err)
		return nil
	}
	run.finish(ctx, p.Name(), func(r *model.PrivacyReport) {
		p.assign(r, sample)
	}, nil)
	return nil
}

// webrtcProbe gathers ICE candidates and assesses the exposure. When a
// backend client is configured the server's classification replaces the
// local one; the backend owns remediation text.
type webrtcProbe struct {
	detector *webrtc.Detector
	client   *leakapi.Client
}

// Name implements Probe.
func (p *webrtcProbe) Name() string { return "webrtc" }

// Do implements Probe.
func (p *webrtcProbe) Do(ctx context.Context, run *Run) error {
	run.start(p.Name())

	result, err := p.detector.DetectAll(ctx)
	if err != nil {
		run.finish(ctx, p.Name(), nil, err)
		return nil
	}

	if p.client != nil && result.Supported {
		server, err := p.client.DetectWebRTCLeak(ctx, result.LocalAddresses, result.Candidates)
		if err == nil {
			// Keep the locally gathered candidates; the backend never
			// sees more than we sent it.
			server.Candidates = result.Candidates
			result = server
		}
		// A backend failure is not a probe failure: the local
		// assessment stands on its own.
	}

	run.finish(ctx, p.Name(), func(r *model.PrivacyReport) {
		r.WebRTC = result
	}, nil)
	return nil
}

// ipDNSProbe runs the public IP lookup, then the DNS leak check.
//
// The ordering is a hard dependency: the DNS probe submits the apparent
// address and country as correlation anchors, so it can only run after
// the IP result exists. Both halves keep separate lifecycle records.
type ipDNSProbe struct {
	client *leakapi.Client
}

// Name implements Probe.
func (p *ipDNSProbe) Name() string { return "ip+dns" }

// Do implements Probe.
func (p *ipDNSProbe) Do(ctx context.Context, run *Run) error {
	run.start("ip")
	ipResult, err := p.client.DetectIP(ctx, "")
	if err != nil {
		run.finish(ctx, "ip", nil, err)
	} else {
		run.finish(ctx, "ip", func(r *model.PrivacyReport) {
			r.IP = ipResult
		}, nil)
	}

	run.start("dns")
	var userIP, userCountry string
	if anchor := run.snapshotIP(); anchor != nil {
		userIP = anchor.IP
		userCountry = anchor.CountryCode
	}
	dnsResult, err := p.client.DetectDNSLeak(ctx, userIP, userCountry)
	if err != nil {
		run.finish(ctx, "dns", nil, err)
		return nil
	}
	run.finish(ctx, "dns", func(r *model.PrivacyReport) {
		r.DNS = dnsResult
	}, nil)
	return nil
}

// insightsProbe fetches latency/speed telemetry. Informational only.
type insightsProbe struct {
	client *leakapi.Client
}

// Name implements Probe.
func (p *insightsProbe) Name() string { return "insights" }

// Do implements Probe.
func (p *insightsProbe) Do(ctx context.Context, run *Run) error {
	run.start(p.Name())

	insights, err := p.client.GetNetworkInsights(ctx)
	if err != nil {
		run.finish(ctx, p.Name(), nil, err)
		return nil
	}
	run.finish(ctx, p.Name(), func(r *model.PrivacyReport) {
		r.Insights = insights
	}, nil)
	return nil
}
