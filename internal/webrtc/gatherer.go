package webrtc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/leaklens/leaklens/internal/model"
)

// DefaultSTUNServers are the public binding servers queried when the
// caller does not supply its own list.
var DefaultSTUNServers = []string{
	"stun.l.google.com:19302",
	"stun.cloudflare.com:3478",
}

// DefaultGatherTimeout bounds the whole candidate-gathering phase.
const DefaultGatherTimeout = 5 * time.Second

// Gatherer collects ICE candidates from some source: the live network
// stack, a recorded SDP exchange, or a fixture.
type Gatherer interface {
	// Gather returns the candidates observed before ctx is done or the
	// gatherer's own timeout elapses, whichever comes first. An empty
	// slice with a nil error means the gatherer ran but saw nothing.
	Gather(ctx context.Context) ([]model.ICECandidate, error)
}

// StaticGatherer replays a fixed candidate list. It backs snapshot
// based scans and tests.
type StaticGatherer struct {
	Candidates []model.ICECandidate
}

// Gather implements Gatherer.
func (s *StaticGatherer) Gather(_ context.Context) ([]model.ICECandidate, error) {
	out := make([]model.ICECandidate, len(s.Candidates))
	copy(out, s.Candidates)
	return out, nil
}

// SDPGatherer parses candidates out of raw SDP attribute lines, the
// form a browser hands back from an RTCPeerConnection offer.
type SDPGatherer struct {
	Lines []string
}

// Gather implements Gatherer. Unparseable lines are skipped rather
// than failing the whole gather; a single garbled candidate must not
// hide the rest of the exposure.
func (s *SDPGatherer) Gather(_ context.Context) ([]model.ICECandidate, error) {
	candidates := make([]model.ICECandidate, 0, len(s.Lines))
	for _, line := range s.Lines {
		c, err := ParseCandidate(line)
		if err != nil {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// NetworkGatherer probes the live network stack the way a browser's
// ICE agent would: host candidates from local interface addresses and
// server-reflexive candidates from STUN binding round-trips.
type NetworkGatherer struct {
	// STUNServers lists host:port binding servers. Empty means
	// DefaultSTUNServers.
	STUNServers []string
	// Timeout bounds the whole gather. Zero means DefaultGatherTimeout.
	Timeout time.Duration
}

// Gather implements Gatherer.
func (g *NetworkGatherer) Gather(ctx context.Context) ([]model.ICECandidate, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultGatherTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	candidates, err := hostCandidates()
	if err != nil {
		return nil, err
	}

	servers := g.STUNServers
	if len(servers) == 0 {
		servers = DefaultSTUNServers
	}

	// Servers are tried in order until one answers. They all report the
	// same reflexive address, so one success is enough.
	for _, server := range servers {
		if ctx.Err() != nil {
			break
		}
		ap, err := bindingRoundTrip(ctx, server, timeout)
		if err != nil {
			continue
		}
		candidates = append(candidates, model.ICECandidate{
			Type:     model.CandidateSrflx,
			Address:  ap.Addr().Unmap().String(),
			Port:     int(ap.Port()),
			Protocol: "udp",
			Raw:      fmt.Sprintf("srflx via %s", server),
		})
		break
	}

	return candidates, nil
}

// hostCandidates lists the addresses a browser would expose as host
// candidates: every non-loopback unicast address on an up interface.
func hostCandidates() ([]model.ICECandidate, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}

	var candidates []model.ICECandidate
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP == nil {
				continue
			}
			candidates = append(candidates, model.ICECandidate{
				Type:     model.CandidateHost,
				Address:  ipNet.IP.String(),
				Protocol: "udp",
				Raw:      fmt.Sprintf("host on %s", iface.Name),
			})
		}
	}
	return candidates, nil
}
