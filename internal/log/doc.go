// Package log provides privacy-preserving logging built on the standard
// slog package.
//
// A leak scanner handles exactly the data it warns users about: public
// and private IP addresses, mDNS device hostnames, and fingerprint
// hashes. None of that may end up verbatim in log files that get shared
// in bug reports. The SecureHandler masks those values in every record
// before the underlying handler sees them:
//   - IPv4 addresses keep their first two octets ("203.0.x.x")
//   - IPv6 addresses keep their first two hextets ("2001:db8:x:x")
//   - .local mDNS hostnames are fully masked
//   - credential-like keys and values (tokens, passwords, API keys)
//     are fully masked
//
// Even in verbose mode the masking stays on; debug output is the most
// likely to be pasted somewhere public.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("candidate gathered",
//	    "address", "192.168.1.105",  // logged as "192.168.x.x"
//	    "type", "host",
//	)
//
//	slog.SetDefault(logger)
package log
