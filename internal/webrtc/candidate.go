package webrtc

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/leaklens/leaklens/internal/model"
)

// ParseCandidate parses one SDP candidate line into an ICECandidate.
// The line format (RFC 5245 §15.1) is:
//
//	candidate:<foundation> <component> <transport> <priority> <address> <port> typ <type> ...
//
// The leading "candidate:" prefix and a trailing "a=" attribute marker
// are both tolerated because browsers differ in what they hand over.
func ParseCandidate(line string) (model.ICECandidate, error) {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "a=")
	s = strings.TrimPrefix(s, "candidate:")

	fields := strings.Fields(s)
	if len(fields) < 8 {
		return model.ICECandidate{}, fmt.Errorf("candidate line has %d fields, need at least 8", len(fields))
	}

	port, err := strconv.Atoi(fields[5])
	if err != nil || port < 0 || port > 65535 {
		return model.ICECandidate{}, fmt.Errorf("invalid candidate port %q", fields[5])
	}

	if fields[6] != "typ" {
		return model.ICECandidate{}, fmt.Errorf("expected \"typ\" marker, got %q", fields[6])
	}

	typ := model.CandidateType(fields[7])
	switch typ {
	case model.CandidateHost, model.CandidateSrflx, model.CandidatePrflx, model.CandidateRelay:
	default:
		return model.ICECandidate{}, fmt.Errorf("unknown candidate type %q", fields[7])
	}

	return model.ICECandidate{
		Type:     typ,
		Address:  fields[4],
		Port:     port,
		Protocol: strings.ToLower(fields[2]),
		Raw:      strings.TrimSpace(line),
	}, nil
}

// addressClass partitions a candidate address into the exposure
// categories the detector reports on.
type addressClass int

const (
	classLocal  addressClass = iota // private, link-local, loopback, CGNAT
	classPublic                     // globally routable
	classMDNS                       // .local hostname hiding the real address
	classOther                      // unparseable or unspecified
)

// cgnat is the RFC 6598 carrier-grade NAT range. Addresses here are not
// globally routable but netip does not flag them as private.
var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// classifyAddress determines the exposure category for an address.
func classifyAddress(addr string) addressClass {
	if strings.HasSuffix(strings.ToLower(addr), ".local") {
		return classMDNS
	}

	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return classOther
	}

	switch {
	case ip.IsUnspecified():
		return classOther
	case ip.IsPrivate(), ip.IsLoopback(), ip.IsLinkLocalUnicast():
		return classLocal
	case ip.Is4() && cgnat.Contains(ip):
		return classLocal
	default:
		return classPublic
	}
}

// isIPv6 reports whether the address is an IPv6 literal. IPv6 exposure
// is tracked as its own leak category because many VPNs tunnel IPv4 only.
func isIPv6(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	return err == nil && ip.Is6() && !ip.Is4In6()
}

// natTypeFor applies the reporting precedence to the observed candidate
// types: relay > srflx > prflx > host, unknown when nothing arrived.
func natTypeFor(candidates []model.ICECandidate) model.NATType {
	seen := make(map[model.CandidateType]bool, len(candidates))
	for _, c := range candidates {
		seen[c.Type] = true
	}

	switch {
	case seen[model.CandidateRelay]:
		return model.NATTypeRelay
	case seen[model.CandidateSrflx]:
		return model.NATTypeSrflx
	case seen[model.CandidatePrflx]:
		return model.NATTypePrflx
	case seen[model.CandidateHost]:
		return model.NATTypeHost
	default:
		return model.NATTypeUnknown
	}
}
