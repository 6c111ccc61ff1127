package webrtc

import (
	"context"
	"fmt"

	"github.com/leaklens/leaklens/internal/model"
)

// Detector turns gathered ICE candidates into a leak assessment.
type Detector struct {
	gatherer Gatherer
}

// NewDetector creates a Detector reading candidates from g. A nil g
// means WebRTC is unavailable and every detection reports an
// unsupported result.
func NewDetector(g Gatherer) *Detector {
	return &Detector{gatherer: g}
}

// DetectAll gathers candidates and classifies every disclosed address.
//
// Design decision: absence of WebRTC is itself a (benign) result, not
// an error. Only a gatherer failure, meaning the network stack refused
// to enumerate at all, returns a non-nil error.
func (d *Detector) DetectAll(ctx context.Context) (*model.WebRTCLeakResult, error) {
	if d.gatherer == nil {
		return &model.WebRTCLeakResult{
			Supported: false,
			NATType:   model.NATTypeUnknown,
		}, nil
	}

	candidates, err := d.gatherer.Gather(ctx)
	if err != nil {
		return nil, fmt.Errorf("gather ice candidates: %w", err)
	}

	return Assess(candidates), nil
}

// Assess classifies an already-gathered candidate list. It is pure:
// same candidates in, same result out, in any order.
func Assess(candidates []model.ICECandidate) *model.WebRTCLeakResult {
	result := &model.WebRTCLeakResult{
		Supported:  true,
		NATType:    natTypeFor(candidates),
		Candidates: candidates,
	}

	seenLocal := make(map[string]bool)
	seenPublic := make(map[string]bool)
	seenMDNS := make(map[string]bool)
	seenIPv6 := make(map[string]bool)

	for _, c := range candidates {
		addr := c.Address
		switch classifyAddress(addr) {
		case classLocal:
			if !seenLocal[addr] {
				seenLocal[addr] = true
				result.LocalAddresses = append(result.LocalAddresses, addr)
			}
		case classPublic:
			if !seenPublic[addr] {
				seenPublic[addr] = true
				result.PublicAddresses = append(result.PublicAddresses, addr)
			}
		case classMDNS:
			if !seenMDNS[addr] {
				seenMDNS[addr] = true
				result.MDNSHostnames = append(result.MDNSHostnames, addr)
			}
		}
		if isIPv6(addr) && !seenIPv6[addr] {
			seenIPv6[addr] = true
			result.IPv6Addresses = append(result.IPv6Addresses, addr)
		}
	}

	// Any concrete address surfacing through ICE is a leak. mDNS
	// hostnames alone are not: they exist precisely to hide the address,
	// though they still carry device-name risk recorded below.
	result.IsLeak = len(result.LocalAddresses) > 0 || len(result.PublicAddresses) > 0

	result.Risks, result.Recommendations = deriveRisks(result)
	return result
}

// deriveRisks builds the risk list most-severe-first and one
// recommendation per actionable risk.
func deriveRisks(r *model.WebRTCLeakResult) ([]model.Risk, []string) {
	var risks []model.Risk
	var recs []string

	if len(r.PublicAddresses) > 0 {
		risks = append(risks, model.Risk{
			Severity:    model.GetSeverity("webrtc_public_ip"),
			Title:       "Public IP exposed via WebRTC",
			Description: fmt.Sprintf("ICE gathering disclosed %d public address(es), bypassing any proxy or VPN tunnel.", len(r.PublicAddresses)),
		})
		recs = append(recs, "Disable WebRTC or force it to use only relayed (TURN) candidates.")
	}
	if len(r.LocalAddresses) > 0 {
		risks = append(risks, model.Risk{
			Severity:    model.GetSeverity("webrtc_local_ip"),
			Title:       "Local network address exposed via WebRTC",
			Description: fmt.Sprintf("ICE gathering disclosed %d private-range address(es), revealing internal network topology.", len(r.LocalAddresses)),
		})
		recs = append(recs, "Enable mDNS candidate obfuscation in the browser or restrict WebRTC in site permissions.")
	}
	if r.NATType == model.NATTypeHost {
		risks = append(risks, model.Risk{
			Severity:    model.GetSeverity("webrtc_host_exposure"),
			Title:       "Direct host exposure",
			Description: "Only host candidates were observed: the device address is reachable without any NAT or relay indirection.",
		})
		recs = append(recs, "Route WebRTC traffic through a TURN relay to hide the device address.")
	}
	if len(r.IPv6Addresses) > 0 {
		risks = append(risks, model.Risk{
			Severity:    model.GetSeverity("webrtc_ipv6"),
			Title:       "IPv6 address exposed via WebRTC",
			Description: "IPv6 candidates were disclosed. Many VPNs tunnel IPv4 only, leaving IPv6 traffic outside the tunnel.",
		})
		recs = append(recs, "Disable IPv6 or verify the VPN tunnels IPv6 traffic.")
	}
	if len(r.MDNSHostnames) > 0 {
		risks = append(risks, model.Risk{
			Severity:    model.GetSeverity("webrtc_mdns_hostname"),
			Title:       "mDNS hostname disclosed",
			Description: "Obfuscated .local hostnames were disclosed. They hide the address but can still identify the device across sites.",
		})
	}

	return risks, recs
}
