// Package main provides the entry point for the LeakLens CLI.
//
// LeakLens is a privacy diagnostic tool. It replays a recorded browser
// environment through fingerprint collectors, probes for WebRTC, DNS,
// and IP leaks, and aggregates everything into a 0-100 privacy score.
//
// Usage:
//
//	leaklens scan --snapshot <file>
//	leaklens compare
//
// See --help for all available options.
package main

// main is the entry point for LeakLens.
func main() {
	Execute()
}
