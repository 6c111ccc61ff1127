// Package webrtc implements the WebRTC leak detector: ICE candidate
// gathering against public STUN servers, candidate classification, and
// derivation of local/public address exposure and NAT topology.
//
// Gathering is bounded by a hard timeout. Absence of WebRTC support and
// a timeout with zero candidates are both typed results (NAT type
// unknown), never errors; nothing in this package panics or escapes as
// an uncaught failure to the orchestration layer.
package webrtc
