package log

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys whose values are always fully
// masked, regardless of content.
var sensitiveKeys = map[string]bool{
	// Authentication
	"authorization": true,
	"cookie":        true,
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"access_token":  true,
	"private_key":   true,
	"credential":    true,
	"credentials":   true,
	"auth":          true,

	// Session
	"session":    true,
	"session_id": true,
	"sid":        true,

	// Identity the scanner itself collects
	"hostname":      true,
	"mdns":          true,
	"mdns_hostname": true,
	"device_name":   true,
}

// addressKeys contains attribute keys whose values are IP addresses.
// Those are partially masked so logs stay diagnosable (network prefix
// survives) without recording the full address.
var addressKeys = map[string]bool{
	"ip":         true,
	"address":    true,
	"addr":       true,
	"public_ip":  true,
	"local_ip":   true,
	"user_ip":    true,
	"resolver":   true,
	"remote":     true,
	"remote_ip":  true,
	"stun_reply": true,
}

// sensitivePatterns contains regex patterns that indicate credential
// values. Values matching these are fully masked regardless of key.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// mdnsPattern matches the obfuscated .local hostnames ICE gathering
// produces; they frequently embed the device's real name.
var mdnsPattern = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9-]*(\.[a-z0-9-]+)*\.local$`)

// MaskValue is the string used to replace fully masked values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler and masks addresses, hostnames,
// and credentials in every record before the underlying handler sees
// them.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Libraries that accept a *slog.Logger (tornago included) inherit
//     the masking for free
type SecureHandler struct {
	// handler is the underlying slog handler that receives masked records.
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, the returned SecureHandler uses slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it to the underlying handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, masked)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are masked before being added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = h.maskAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(maskedAttrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// maskAttr masks a single attribute, recursively handling groups.
func (h *SecureHandler) maskAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		maskedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			maskedAttrs[i] = h.maskAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(maskedAttrs...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	value := a.Value.String()

	if addressKeys[keyLower] {
		return slog.String(a.Key, MaskAddress(value))
	}
	if mdnsPattern.MatchString(value) {
		return slog.String(a.Key, MaskValue)
	}
	if _, err := netip.ParseAddr(value); err == nil {
		// An address under any key name is still an address.
		return slog.String(a.Key, MaskAddress(value))
	}
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return slog.String(a.Key, MaskValue)
		}
	}

	return a
}

// containsSensitiveKeyword checks if the key contains credential keywords.
// Note: We intentionally exclude the bare "key" keyword as it causes false
// positives (e.g., "primary_key", "keyboard"). Specific key-related names
// like "api_key" and "private_key" are covered by the sensitiveKeys map.
func containsSensitiveKeyword(key string) bool {
	sensitiveKeywords := []string{
		"password", "passwd", "secret", "token", "auth", "credential",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// MaskAddress partially masks an IP address: IPv4 keeps the first two
// octets, IPv6 the first two hextets. Non-address values are fully
// masked since an address key held something unexpected.
func MaskAddress(value string) string {
	ip, err := netip.ParseAddr(value)
	if err != nil {
		return MaskValue
	}

	if ip.Is4() || ip.Is4In6() {
		parts := strings.Split(ip.Unmap().String(), ".")
		return parts[0] + "." + parts[1] + ".x.x"
	}

	hextets := strings.SplitN(ip.StringExpanded(), ":", 3)
	return hextets[0] + ":" + hextets[1] + ":x:x"
}

// NewSecureLogger creates a text-format slog.Logger with masking.
// If verbose is true the level is Debug, otherwise Warn. The returned
// logger can be installed with slog.SetDefault or passed to components
// that accept a *slog.Logger.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(NewSecureHandler(slog.NewTextHandler(w, opts)))
}

// NewSecureJSONLogger creates a JSON-format slog.Logger with masking.
// Useful for structured log aggregation.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, opts)))
}
