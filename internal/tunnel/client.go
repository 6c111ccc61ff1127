package tunnel

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout is the timeout for checking that the tunnel
// endpoint is reachable. Short because this is just a connectivity
// check, not a request through the tunnel.
const checkProxyTimeout = 2 * time.Second

// Client provides connectivity through a SOCKS5 tunnel endpoint.
// It wraps a SOCKS5 dialer and produces HTTP clients and raw TCP
// connections routed through the tunnel.
type Client struct {
	// proxyAddress is the SOCKS5 endpoint in "host:port" format.
	proxyAddress string

	// dialer is the SOCKS5 dialer. Cached to avoid recreating it for
	// each connection.
	dialer proxy.Dialer

	// timeout is the default timeout for HTTP clients created here.
	timeout time.Duration
}

// NewClient creates a tunnel client for the SOCKS5 endpoint at
// proxyAddress ("host:port", e.g. "127.0.0.1:9050" for a local Tor
// daemon or the VPN client's SOCKS port).
//
// The address format is validated but the endpoint is not contacted.
// Call CheckConnection to verify it is actually a SOCKS5 proxy.
//
// Design decision: We don't connect in the constructor because:
// 1. It allows creating the client before the tunnel is up
// 2. It separates object creation from network operations
// 3. It allows for better testing with mock proxies
func NewClient(proxyAddress string, timeout time.Duration) (*Client, error) {
	if !isValidProxyAddress(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// nil auth: local tunnel endpoints do not normally require it.
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, err
	}

	return &Client{
		proxyAddress: proxyAddress,
		dialer:       dialer,
		timeout:      timeout,
	}, nil
}

// isValidProxyAddress checks if the address is in "host:port" format.
// A simple check rather than a full URL parser because the format is
// very specific (no scheme, no path).
func isValidProxyAddress(address string) bool {
	parts := strings.Split(address, ":")
	if len(parts) != 2 {
		return false
	}

	host := parts[0]
	port := parts[1]

	if host == "" || port == "" {
		return false
	}

	portNum := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
		portNum = portNum*10 + int(c-'0')
		if portNum > 65535 {
			return false
		}
	}

	return portNum >= 1
}

// SOCKS5 protocol constants.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
	socks5CmdConnect   = 0x01
	socks5AddrDomain   = 0x03

	// socks5CheckHost is a synthetic hostname used for the CONNECT
	// verification. Intentionally unresolvable: we only need the proxy
	// to process a SOCKS5 CONNECT request, not to succeed at it.
	socks5CheckHost = "connectivity-check.invalid"
)

// CheckConnection verifies that the tunnel endpoint is running and
// speaks SOCKS5. It returns a Status describing the result.
//
// The check performs a real SOCKS5 handshake:
// 1. version negotiation offering no-auth
// 2. a CONNECT request to a synthetic hostname
//
// Security note: This is more robust than checking banner strings; a
// service that is not a SOCKS5 proxy cannot easily mimic the protocol
// exchange.
func (c *Client) CheckConnection(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return StatusTimeout
		}
		return StatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return StatusCannotConnect
	}

	// Version negotiation: version + method count + methods (no-auth only).
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return StatusCannotConnect
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return StatusTimeout
		}
		return StatusWrongType
	}

	if authResp[0] != socks5Version {
		return StatusWrongType
	}
	if authResp[1] == socks5AuthNoAccept || authResp[1] != socks5AuthNone {
		return StatusWrongType
	}

	// CONNECT to a synthetic host. Any well-formed reply, success or
	// failure code, proves the endpoint actually processes SOCKS5
	// requests rather than just echoing the handshake.
	connectReq := []byte{
		socks5Version,
		socks5CmdConnect,
		0x00, // reserved
		socks5AddrDomain,
		byte(len(socks5CheckHost)),
	}
	connectReq = append(connectReq, []byte(socks5CheckHost)...)
	connectReq = append(connectReq, 0x00, 0x50) // port 80

	if _, err := conn.Write(connectReq); err != nil {
		return StatusCannotConnect
	}

	connectResp := make([]byte, 4)
	if _, err := io.ReadFull(conn, connectResp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return StatusTimeout
		}
		return StatusWrongType
	}

	if connectResp[0] != socks5Version {
		return StatusWrongType
	}

	return StatusOK
}

// NewHTTPClient creates an HTTP client that routes every request
// through the tunnel. TLS verification stays on: the backend presents a
// normal certificate, and a tunnel that breaks TLS is itself a finding
// the user should hear about, not something to paper over.
func (c *Client) NewHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: func(_ context.Context, network, addr string) (net.Conn, error) {
			return c.dialer.Dial(network, addr)
		},
		// Smaller pool than default: tunnel circuits are a limited
		// resource, especially over Tor.
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		// Compressed response sizes are a side channel; on an
		// anonymity-focused path the bandwidth saving is not worth it.
		DisableCompression: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// DialContext establishes a TCP connection through the tunnel with
// context support.
//
// Design decision: We wrap the basic Dial with context support because
// the proxy.Dialer interface doesn't support context directly. If the
// context is cancelled, the goroutine returns the error but the
// underlying connection attempt may continue briefly.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := c.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProxyAddress returns the configured endpoint address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// Dialer returns the underlying proxy dialer for callers that need raw
// TCP connections through the tunnel (the STUN round-trips cannot use
// it: SOCKS5 CONNECT carries TCP only, which is itself why WebRTC leaks
// past tunnels).
func (c *Client) Dialer() proxy.Dialer {
	return c.dialer
}
