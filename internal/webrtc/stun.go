package webrtc

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// STUN binding protocol constants (RFC 5389).
const (
	stunBindingRequest  = 0x0001
	stunBindingSuccess  = 0x0101
	stunMagicCookie     = 0x2112A442
	stunHeaderSize      = 20
	stunAttrMappedAddr  = 0x0001
	stunAttrXorMapped   = 0x0020
	stunFamilyIPv4      = 0x01
	stunFamilyIPv6      = 0x02
	stunResponseMaxSize = 1500
)

// ErrNoMappedAddress is returned when a STUN response carries no
// (XOR-)MAPPED-ADDRESS attribute.
var ErrNoMappedAddress = errors.New("stun response has no mapped address")

// bindingRoundTrip sends one STUN binding request to the server and
// returns the reflexive address the server observed.
//
// Design decision: We implement the binding request directly over UDP
// rather than pulling in a full ICE stack. The engine only needs the
// server-reflexive address and a bounded round-trip; twenty bytes of
// header plus one attribute parse is the whole protocol surface we use.
func bindingRoundTrip(ctx context.Context, server string, timeout time.Duration) (netip.AddrPort, error) {
	var zero netip.AddrPort

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", server)
	if err != nil {
		return zero, fmt.Errorf("stun dial %s: %w", server, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return zero, fmt.Errorf("stun deadline: %w", err)
	}

	// Header: type(2) + length(2) + magic cookie(4) + transaction ID(12).
	req := make([]byte, stunHeaderSize)
	binary.BigEndian.PutUint16(req[0:2], stunBindingRequest)
	binary.BigEndian.PutUint16(req[2:4], 0) // no attributes
	binary.BigEndian.PutUint32(req[4:8], stunMagicCookie)
	txID := req[8:20]
	if _, err := rand.Read(txID); err != nil {
		return zero, fmt.Errorf("stun transaction id: %w", err)
	}

	if _, err := conn.Write(req); err != nil {
		return zero, fmt.Errorf("stun write: %w", err)
	}

	resp := make([]byte, stunResponseMaxSize)
	n, err := conn.Read(resp)
	if err != nil {
		return zero, fmt.Errorf("stun read: %w", err)
	}

	return parseBindingResponse(resp[:n], txID)
}

// parseBindingResponse extracts the mapped address from a binding
// success response, preferring XOR-MAPPED-ADDRESS over the legacy
// MAPPED-ADDRESS attribute.
func parseBindingResponse(resp, txID []byte) (netip.AddrPort, error) {
	var zero netip.AddrPort

	if len(resp) < stunHeaderSize {
		return zero, fmt.Errorf("stun response too short: %d bytes", len(resp))
	}
	if binary.BigEndian.Uint16(resp[0:2]) != stunBindingSuccess {
		return zero, fmt.Errorf("stun response type 0x%04x is not a binding success", binary.BigEndian.Uint16(resp[0:2]))
	}
	if binary.BigEndian.Uint32(resp[4:8]) != stunMagicCookie {
		return zero, errors.New("stun response magic cookie mismatch")
	}
	if string(resp[8:20]) != string(txID) {
		return zero, errors.New("stun response transaction id mismatch")
	}

	attrLen := int(binary.BigEndian.Uint16(resp[2:4]))
	if stunHeaderSize+attrLen > len(resp) {
		attrLen = len(resp) - stunHeaderSize
	}

	var plain netip.AddrPort
	attrs := resp[stunHeaderSize : stunHeaderSize+attrLen]
	for len(attrs) >= 4 {
		attrType := binary.BigEndian.Uint16(attrs[0:2])
		valueLen := int(binary.BigEndian.Uint16(attrs[2:4]))
		if 4+valueLen > len(attrs) {
			break
		}
		value := attrs[4 : 4+valueLen]

		switch attrType {
		case stunAttrXorMapped:
			if ap, err := decodeMappedAddress(value, txID, true); err == nil {
				return ap, nil
			}
		case stunAttrMappedAddr:
			if ap, err := decodeMappedAddress(value, txID, false); err == nil {
				plain = ap
			}
		}

		// Attributes are padded to 32-bit boundaries.
		advance := 4 + valueLen
		if pad := advance % 4; pad != 0 {
			advance += 4 - pad
		}
		if advance > len(attrs) {
			break
		}
		attrs = attrs[advance:]
	}

	if plain.IsValid() {
		return plain, nil
	}
	return zero, ErrNoMappedAddress
}

// decodeMappedAddress decodes a (XOR-)MAPPED-ADDRESS attribute value:
// reserved(1) + family(1) + port(2) + address(4 or 16).
func decodeMappedAddress(value, txID []byte, xored bool) (netip.AddrPort, error) {
	var zero netip.AddrPort

	if len(value) < 4 {
		return zero, errors.New("mapped address attribute too short")
	}

	family := value[1]
	port := binary.BigEndian.Uint16(value[2:4])
	raw := value[4:]

	var addrLen int
	switch family {
	case stunFamilyIPv4:
		addrLen = 4
	case stunFamilyIPv6:
		addrLen = 16
	default:
		return zero, fmt.Errorf("unknown address family 0x%02x", family)
	}
	if len(raw) < addrLen {
		return zero, errors.New("mapped address truncated")
	}

	addr := make([]byte, addrLen)
	copy(addr, raw[:addrLen])

	if xored {
		port ^= uint16(stunMagicCookie >> 16)
		var key [16]byte
		binary.BigEndian.PutUint32(key[0:4], stunMagicCookie)
		copy(key[4:], txID)
		for i := range addr {
			addr[i] ^= key[i]
		}
	}

	ip, ok := netip.AddrFromSlice(addr)
	if !ok {
		return zero, errors.New("invalid mapped address bytes")
	}
	return netip.AddrPortFrom(ip, port), nil
}
