// Package leakapi is the HTTP client for the backend analysis service.
//
// The engine delegates the parts of leak analysis that need a network
// vantage point it does not have: which resolvers answered the bait
// queries, what reputation an address carries, whether a claimed VPN is
// actually in the path. This package wraps those operations behind
// typed results so the rest of the engine never touches wire formats.
package leakapi
