// Package scan orchestrates one privacy scan run.
//
// A run fans independent probes out concurrently, keeps the composite
// score recomputed as results land, and binds everything into a single
// PrivacyReport. The run owns the only piece of mutable state in the
// engine; collectors and probes themselves are stateless.
package scan
