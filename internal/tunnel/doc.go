// Package tunnel routes scan traffic through the anonymization path
// under test.
//
// A leak scan is only meaningful from the network vantage point the
// user actually browses from. When the user claims a VPN, proxy, or Tor
// connection exposed as a SOCKS5 endpoint, this package dials the
// backend through it, verifies at the protocol level that the endpoint
// really is a SOCKS5 proxy, and can alternatively launch an embedded
// Tor daemon so a scan can be rerun through a known-clean path as a
// baseline for comparison.
package tunnel
