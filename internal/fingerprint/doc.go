// Package fingerprint implements the passive fingerprint collectors:
// canvas rendering, WebGL parameters, audio-stack rendering, and
// installed-font inference.
//
// Each collector reduces its observation to a stable SHA3-256 digest plus
// raw features and a rough entropy estimate. Collectors are stateless
// across calls: Detect is idempotent for a fixed environment, and an
// environment lacking the relevant API yields a typed unsupported sample,
// never an error.
package fingerprint
