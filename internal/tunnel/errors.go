package tunnel

import "errors"

// Tunnel connectivity errors.
//
// Design decision: We define specific error types rather than wrapping all
// errors generically. This allows callers to handle different failure modes
// appropriately (e.g., retry on timeout, but fail fast on wrong proxy type).
var (
	// ErrNotSOCKS5 is returned when the configured proxy address responds
	// but does not speak the SOCKS5 protocol. This typically happens when
	// pointing at an HTTP proxy or an unrelated service.
	ErrNotSOCKS5 = errors.New("proxy is not a SOCKS5 proxy")

	// ErrCannotConnect is returned when no TCP connection to the proxy
	// address can be established. The tunnel endpoint is down or the
	// address is wrong.
	ErrCannotConnect = errors.New("cannot connect to tunnel proxy")

	// ErrTimeout is returned when the connection to the proxy times out.
	ErrTimeout = errors.New("timeout connecting to tunnel proxy")

	// ErrInvalidProxyAddress is returned when the proxy address format is
	// invalid. Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// Status represents the result of checking the tunnel endpoint.
type Status int

const (
	// StatusOK indicates the endpoint is a working SOCKS5 proxy.
	StatusOK Status = iota

	// StatusWrongType indicates the endpoint responded but is not a
	// SOCKS5 proxy.
	StatusWrongType

	// StatusCannotConnect indicates no connection could be established.
	StatusCannotConnect

	// StatusTimeout indicates the connection attempt timed out.
	StatusTimeout
)

// String returns a human-readable description of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWrongType:
		return "wrong type (not SOCKS5)"
	case StatusCannotConnect:
		return "cannot connect"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error returns the appropriate error for this status, or nil if OK.
func (s Status) Error() error {
	switch s {
	case StatusOK:
		return nil
	case StatusWrongType:
		return ErrNotSOCKS5
	case StatusCannotConnect:
		return ErrCannotConnect
	case StatusTimeout:
		return ErrTimeout
	default:
		return errors.New("unknown tunnel status")
	}
}
