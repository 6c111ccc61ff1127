package model

// Severity represents the risk level of a privacy finding.
// It allows categorizing findings by their potential impact on the
// user's anonymity and re-identifiability.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct privacy impact.
	// Examples: WebRTC unsupported, fingerprint APIs blocked by the browser.
	// These often indicate a hardened browser rather than a problem.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: font enumeration possible, audio fingerprint available.
	// These add re-identification entropy but rarely identify a user alone.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: highly unique canvas/WebGL fingerprints, IPv6 surfacing
	// alongside an IPv4-only tunnel.
	SeverityMedium

	// SeverityHigh indicates serious issues that significantly risk privacy.
	// Examples: local RFC1918 addresses disclosed through ICE candidates,
	// DNS queries bypassing the configured resolver.
	SeverityHigh

	// SeverityCritical indicates severe issues that likely defeat anonymization.
	// Examples: the real public IP surfacing while a VPN is claimed active,
	// a full DNS leak revealing the ISP behind a tunnel.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping ensures consistent risk assessment across the
// engine and the report writers.
//
// Design decision: We use a map rather than embedding severity in each
// finding type because:
//  1. It allows updating risk assessments without modifying type definitions
//  2. It provides a single source of truth for risk levels
//  3. It makes it easy to generate severity documentation
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL - anonymization likely defeated
	"webrtc_public_ip": {
		Severity:       SeverityCritical,
		Impact:         "A globally routable address surfaced through ICE candidate gathering, bypassing any active VPN or proxy tunnel.",
		Recommendation: "Disable WebRTC or enforce a relay-only (TURN) ICE policy in the browser.",
	},
	"dns_leak_full": {
		Severity:       SeverityCritical,
		Impact:         "All observed DNS resolvers belong to the local ISP, revealing the real network even when traffic is tunneled.",
		Recommendation: "Configure the VPN client to force all DNS through the tunnel, or enable DNS-over-HTTPS.",
	},
	"vpn_claimed_not_detected": {
		Severity:       SeverityCritical,
		Impact:         "The apparent public IP does not belong to any known VPN, proxy, or Tor range despite the user claiming an anonymized connection.",
		Recommendation: "Verify the VPN is connected and that a kill switch blocks traffic outside the tunnel.",
	},

	// HIGH - significant exposure
	"webrtc_local_ip": {
		Severity:       SeverityHigh,
		Impact:         "A private-range local address was disclosed via ICE candidates, enabling cross-site device correlation regardless of VPN state.",
		Recommendation: "Set the browser's WebRTC policy to disable non-proxied UDP.",
	},
	"dns_leak_partial": {
		Severity:       SeverityHigh,
		Impact:         "Some DNS queries reached resolvers outside the anonymization path, partially revealing browsing activity.",
		Recommendation: "Force all DNS through the tunnel and disable OS-level fallback resolvers.",
	},
	"ip_no_anonymization": {
		Severity:       SeverityHigh,
		Impact:         "The public IP is directly attributable to a residential or mobile ISP account.",
		Recommendation: "Use a trustworthy VPN, a proxy, or Tor when anonymity is required.",
	},
	"webrtc_host_exposure": {
		Severity:       SeverityHigh,
		Impact:         "Host candidates expose the device address directly; the NAT provides no masking.",
		Recommendation: "Prefer relay-only ICE policies when using WebRTC applications.",
	},

	// MEDIUM - adds correlation surface
	"webrtc_mdns_hostname": {
		Severity:       SeverityMedium,
		Impact:         "An mDNS .local hostname surfaced through ICE candidates; device names are often personally identifying.",
		Recommendation: "Rename the device generically or disable mDNS candidate generation.",
	},
	"webrtc_ipv6": {
		Severity:       SeverityMedium,
		Impact:         "An IPv6 address surfaced while many VPNs tunnel IPv4 only, allowing traffic correlation over IPv6.",
		Recommendation: "Disable IPv6 or choose a VPN with full IPv6 tunnel support.",
	},
	"canvas_unique": {
		Severity:       SeverityMedium,
		Impact:         "The canvas rendering hash is estimated to be highly unique, contributing strongly to a re-identification fingerprint.",
		Recommendation: "Use a browser that standardizes or randomizes canvas output.",
	},
	"webgl_unique": {
		Severity:       SeverityMedium,
		Impact:         "The GPU vendor/renderer combination and capability limits form a highly distinctive identifier.",
		Recommendation: "Block the WebGL debug renderer extension or use a hardened browser profile.",
	},
	"ip_datacenter": {
		Severity:       SeverityMedium,
		Impact:         "The apparent IP belongs to a datacenter range, which many services treat as suspicious and some block outright.",
		Recommendation: "No action needed for privacy; expect elevated friction with anti-fraud systems.",
	},

	// LOW - minor contribution
	"audio_unique": {
		Severity:       SeverityLow,
		Impact:         "The audio pipeline rendering hash contributes additional fingerprint entropy.",
		Recommendation: "Browsers with audio API noise injection reduce this surface.",
	},
	"fonts_enumerable": {
		Severity:       SeverityLow,
		Impact:         "Installed fonts were inferred through width measurement; unusual font sets are identifying.",
		Recommendation: "Limit installed fonts to the operating system defaults, or use a browser that reports a fixed font list.",
	},
	"dns_resolver_unencrypted": {
		Severity:       SeverityLow,
		Impact:         "DNS queries travel unencrypted and are visible to on-path observers.",
		Recommendation: "Enable DNS-over-HTTPS or DNS-over-TLS.",
	},

	// INFO - neutral observations
	"webrtc_unsupported": {
		Severity:       SeverityInfo,
		Impact:         "WebRTC is unavailable, which closes the ICE address-disclosure vector entirely.",
		Recommendation: "No action needed.",
	},
	"fingerprint_api_blocked": {
		Severity:       SeverityInfo,
		Impact:         "A fingerprinting API is blocked or standardized, reducing re-identification surface.",
		Recommendation: "No action needed.",
	},
	"ip_tor_exit": {
		Severity:       SeverityInfo,
		Impact:         "Traffic exits through a known Tor relay; the real address is hidden from visited sites.",
		Recommendation: "No action needed.",
	},
	"ip_vpn_detected": {
		Severity:       SeverityInfo,
		Impact:         "The apparent IP belongs to a known VPN provider; the real address is masked.",
		Recommendation: "No action needed.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess risk.",
	}
}
