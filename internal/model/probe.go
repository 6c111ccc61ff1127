package model

// LeakType classifies the extent of a DNS leak.
type LeakType string

const (
	// LeakTypeNone means every observed resolver is consistent with the
	// anonymization path.
	LeakTypeNone LeakType = "none"

	// LeakTypePartial means some resolvers fall outside the anonymization
	// path while others do not.
	LeakTypePartial LeakType = "partial"

	// LeakTypeFull means every observed resolver bypasses the
	// anonymization path.
	LeakTypeFull LeakType = "full"
)

// NATType is the best-available classification of how the host's address
// is exposed through NAT, inferred from which ICE candidate types were
// observed during gathering.
type NATType string

const (
	// NATTypeUnknown means no candidates arrived before the gathering timeout.
	NATTypeUnknown NATType = "unknown"

	// NATTypeHost means only host candidates were seen: the device address
	// is exposed directly (worst case).
	NATTypeHost NATType = "host"

	// NATTypeSrflx means server-reflexive candidates were seen: the public
	// address is visible via STUN.
	NATTypeSrflx NATType = "srflx"

	// NATTypePrflx means peer-reflexive candidates were seen.
	NATTypePrflx NATType = "prflx"

	// NATTypeRelay means relayed candidates were seen: the real address is
	// hidden behind a TURN relay (best case).
	NATTypeRelay NATType = "relay"
)

// CandidateType is the ICE candidate discovery method from the SDP
// candidate line ("host", "srflx", "prflx", "relay").
type CandidateType string

// ICE candidate types in SDP order of typical appearance.
const (
	CandidateHost  CandidateType = "host"
	CandidateSrflx CandidateType = "srflx"
	CandidatePrflx CandidateType = "prflx"
	CandidateRelay CandidateType = "relay"
)

// ICECandidate is one discovered address/port pair a peer connection
// could use, tagged by discovery method.
type ICECandidate struct {
	// Type is the candidate discovery method.
	Type CandidateType `json:"type"`

	// Address is the candidate address. May be an IP literal or an mDNS
	// .local hostname.
	Address string `json:"address"`

	// Port is the candidate port.
	Port int `json:"port"`

	// Protocol is the transport ("udp" or "tcp").
	Protocol string `json:"protocol"`

	// Raw is the original SDP candidate line when available.
	Raw string `json:"raw,omitempty"`
}

// Risk is one adverse condition discovered by a probe, ordered by the
// probe from most to least severe.
type Risk struct {
	// Severity is the assessed risk level.
	Severity Severity `json:"severity"`

	// Title is a short description of the risk.
	Title string `json:"title"`

	// Description provides detail about why this condition matters.
	Description string `json:"description"`
}

// WebRTCLeakResult is the outcome of the WebRTC leak probe.
//
// IsLeak is true whenever any disclosed address bypasses the
// user's claimed anonymization path. A private-range local address
// surfacing through ICE is a leak even when an active VPN hides the
// public address.
type WebRTCLeakResult struct {
	// Supported reports whether WebRTC was available at all. Absence of
	// WebRTC is a low-risk finding, not a failure.
	Supported bool `json:"supported"`

	// IsLeak is true if any address disclosed is inconsistent with a
	// fully-relayed topology.
	IsLeak bool `json:"is_leak"`

	// NATType is the inferred NAT classification. Precedence when multiple
	// candidate types were observed: relay > srflx > prflx > host.
	NATType NATType `json:"nat_type"`

	// LocalAddresses are disclosed private-range or link-local addresses.
	LocalAddresses []string `json:"local_addresses,omitempty"`

	// PublicAddresses are disclosed globally routable addresses.
	PublicAddresses []string `json:"public_addresses,omitempty"`

	// MDNSHostnames are disclosed .local hostnames. Device names are a
	// distinct leak category because they often identify the owner.
	MDNSHostnames []string `json:"mdns_hostnames,omitempty"`

	// IPv6Addresses are disclosed IPv6 addresses, tracked separately
	// because many VPNs tunnel IPv4 only.
	IPv6Addresses []string `json:"ipv6_addresses,omitempty"`

	// Candidates are all ICE candidates gathered before completion or timeout.
	Candidates []ICECandidate `json:"candidates,omitempty"`

	// Risks are the derived adverse conditions, most severe first.
	Risks []Risk `json:"risks,omitempty"`

	// Recommendations are remediation strings, one per actionable risk.
	Recommendations []string `json:"recommendations,omitempty"`
}

// DNSResolver describes one resolver observed answering the bait-domain
// queries issued by the analysis backend.
type DNSResolver struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname,omitempty"`
	ISP      string `json:"isp,omitempty"`
	Country  string `json:"country,omitempty"`
}

// DNSLeakResult is the outcome of the DNS leak probe. The analysis
// backend is authoritative for the leak classification; the engine only
// sequences the request and surfaces the returned remediation text.
type DNSLeakResult struct {
	// IsLeak is true if any resolver bypasses the anonymization path.
	IsLeak bool `json:"is_leak"`

	// LeakType classifies the extent of the leak.
	LeakType LeakType `json:"leak_type"`

	// Resolvers lists the resolvers that answered the bait queries.
	Resolvers []DNSResolver `json:"resolvers,omitempty"`

	// DoHDetected reports whether DNS-over-HTTPS was in use.
	DoHDetected bool `json:"doh_detected"`

	// DoTDetected reports whether DNS-over-TLS was in use.
	DoTDetected bool `json:"dot_detected"`

	Risks           []Risk   `json:"risks,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// PrivacyFlags are the reputation flags the analysis backend attaches to
// an IP address.
type PrivacyFlags struct {
	IsVPN        bool `json:"is_vpn"`
	IsProxy      bool `json:"is_proxy"`
	IsTor        bool `json:"is_tor"`
	IsDatacenter bool `json:"is_datacenter"`
}

// IPLeakResult is the outcome of the public IP probe: geo, network, and
// reputation data for the caller's apparent address.
type IPLeakResult struct {
	// IP is the apparent public address.
	IP string `json:"ip"`

	// Country and CountryCode locate the address geographically.
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	City        string `json:"city,omitempty"`

	// ASN and ISP identify the owning network.
	ASN int    `json:"asn,omitempty"`
	ISP string `json:"isp,omitempty"`

	// Privacy holds the reputation flags (VPN/proxy/Tor/datacenter).
	Privacy PrivacyFlags `json:"privacy"`

	Risks           []Risk   `json:"risks,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Anonymized reports whether the address is masked by any recognized
// anonymization technology.
func (r *IPLeakResult) Anonymized() bool {
	return r.Privacy.IsVPN || r.Privacy.IsProxy || r.Privacy.IsTor
}

// NetworkInsights carries latency/speed telemetry from the backend.
// It is informational only and never contributes to the privacy score.
type NetworkInsights struct {
	LatencyMillis float64 `json:"latency_ms"`
	DownloadMbps  float64 `json:"download_mbps"`
	UploadMbps    float64 `json:"upload_mbps"`
}
