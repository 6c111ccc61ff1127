package scan

import (
	"fmt"
	"strings"

	"github.com/leaklens/leaklens/internal/model"
	"github.com/leaklens/leaklens/internal/score"
)

// deriveFindings maps every probe result already on the report to a
// categorized finding. The severity, impact, and remediation text come
// from the finding-info table in the model package; this function only
// decides which finding types fire and with what value. The uniqueness
// thresholds come from the same options the aggregator scored with, so
// a sample draws a finding exactly when it drew a deduction.
func deriveFindings(report *model.PrivacyReport, claimedVPN bool, opts score.Options) {
	deriveIPFindings(report, claimedVPN)
	deriveDNSFindings(report)
	deriveWebRTCFindings(report)
	deriveFingerprintFindings(report, opts)
}

// findingTitles gives each finding type a short display title. Impact
// and remediation text live in the model's finding-info table.
var findingTitles = map[string]string{
	"webrtc_public_ip":         "Public IP exposed via WebRTC",
	"webrtc_local_ip":          "Local network address exposed via WebRTC",
	"webrtc_mdns_hostname":     "mDNS hostname disclosed",
	"webrtc_ipv6":              "IPv6 address exposed via WebRTC",
	"webrtc_host_exposure":     "Direct host exposure",
	"webrtc_unsupported":       "WebRTC unavailable",
	"dns_leak_full":            "Full DNS leak",
	"dns_leak_partial":         "Partial DNS leak",
	"dns_resolver_unencrypted": "Unencrypted DNS resolver",
	"ip_no_anonymization":      "No anonymization detected",
	"vpn_claimed_not_detected": "Claimed VPN not detected",
	"ip_datacenter":            "Datacenter IP address",
	"ip_tor_exit":              "Tor exit relay",
	"ip_vpn_detected":          "VPN provider address",
	"canvas_unique":            "Highly unique canvas fingerprint",
	"webgl_unique":             "Highly unique WebGL fingerprint",
	"audio_unique":             "Audio fingerprint available",
	"fonts_enumerable":         "Installed fonts enumerable",
	"fingerprint_api_blocked":  "Fingerprinting surface blocked",
}

func newFinding(findingType, value, source string) model.Finding {
	info := model.GetFindingInfo(findingType)
	return model.Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          findingTitles[findingType],
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          value,
		Source:         source,
	}
}

func deriveIPFindings(report *model.PrivacyReport, claimedVPN bool) {
	ip := report.IP
	if ip == nil {
		return
	}

	switch {
	case ip.Privacy.IsTor:
		report.AddFinding(newFinding("ip_tor_exit", ip.IP, "ip"))
	case ip.Privacy.IsVPN, ip.Privacy.IsProxy:
		report.AddFinding(newFinding("ip_vpn_detected", ip.IP, "ip"))
	default:
		report.AddFinding(newFinding("ip_no_anonymization", ip.IP, "ip"))
		if claimedVPN {
			report.AddFinding(newFinding("vpn_claimed_not_detected", ip.IP, "ip"))
		}
	}

	if ip.Privacy.IsDatacenter && !ip.Anonymized() {
		report.AddFinding(newFinding("ip_datacenter", ip.IP, "ip"))
	}
}

func deriveDNSFindings(report *model.PrivacyReport) {
	dns := report.DNS
	if dns == nil {
		return
	}

	if dns.IsLeak {
		resolvers := make([]string, 0, len(dns.Resolvers))
		for _, r := range dns.Resolvers {
			resolvers = append(resolvers, r.IP)
		}
		value := strings.Join(resolvers, ", ")

		findingType := "dns_leak_partial"
		if dns.LeakType == model.LeakTypeFull {
			findingType = "dns_leak_full"
		}
		report.AddFinding(newFinding(findingType, value, "dns"))
	}

	if !dns.DoHDetected && !dns.DoTDetected {
		report.AddFinding(newFinding("dns_resolver_unencrypted", "", "dns"))
	}
}

func deriveWebRTCFindings(report *model.PrivacyReport) {
	rtc := report.WebRTC
	if rtc == nil {
		return
	}

	if !rtc.Supported {
		report.AddFinding(newFinding("webrtc_unsupported", "", "webrtc"))
		return
	}

	for _, addr := range rtc.PublicAddresses {
		report.AddFinding(newFinding("webrtc_public_ip", addr, "webrtc"))
	}
	for _, addr := range rtc.LocalAddresses {
		report.AddFinding(newFinding("webrtc_local_ip", addr, "webrtc"))
	}
	for _, host := range rtc.MDNSHostnames {
		report.AddFinding(newFinding("webrtc_mdns_hostname", host, "webrtc"))
	}
	for _, addr := range rtc.IPv6Addresses {
		report.AddFinding(newFinding("webrtc_ipv6", addr, "webrtc"))
	}
	if rtc.NATType == model.NATTypeHost {
		report.AddFinding(newFinding("webrtc_host_exposure", "", "webrtc"))
	}
}

func deriveFingerprintFindings(report *model.PrivacyReport, opts score.Options) {
	samples := []struct {
		sample      *model.FingerprintSample
		uniqueType  string
		source      string
		uniqueAbove float64
	}{
		{report.Canvas, "canvas_unique", "canvas", opts.CanvasEntropyThreshold},
		{report.WebGL, "webgl_unique", "webgl", opts.WebGLEntropyThreshold},
		{report.Audio, "audio_unique", "audio", opts.AudioEntropyThreshold},
		{report.Fonts, "fonts_enumerable", "fonts", opts.FontsEntropyThreshold},
	}

	blocked := 0
	for _, s := range samples {
		if s.sample == nil {
			continue
		}
		if !s.sample.Supported {
			blocked++
			continue
		}
		if s.sample.Entropy >= s.uniqueAbove {
			value := s.sample.Hash
			if len(value) > 16 {
				value = value[:16]
			}
			report.AddFinding(newFinding(s.uniqueType, value, s.source))
		}
	}

	if blocked > 0 {
		report.AddFinding(newFinding("fingerprint_api_blocked",
			fmt.Sprintf("%d of 4 surfaces unavailable", blocked), "fingerprint"))
	}
}
