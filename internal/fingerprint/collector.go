package fingerprint

import (
	"context"
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/leaklens/leaklens/internal/model"
)

// Collector defines the interface for fingerprint collector families.
//
// Design decision: We use an interface rather than concrete types because:
//  1. The orchestrator treats all collector families uniformly
//  2. It enables testing the orchestrator with stub collectors
//  3. New families (e.g. speech voices, media codecs) slot in without
//     touching the scan loop
type Collector interface {
	// Name returns the collector family name ("canvas", "webgl", ...).
	Name() string

	// Detect produces a sample for the injected environment.
	// An environment lacking the relevant API yields a sample with
	// Supported=false and a nil error. A non-nil error means the recorded
	// environment data itself was malformed.
	//
	// Detect must be idempotent: the same environment always produces a
	// byte-identical hash, and no state survives between calls.
	Detect(ctx context.Context) (*model.FingerprintSample, error)
}

// digest reduces an arbitrary byte buffer to the collector hash format.
// SHA3-256 is used for its short, well-distributed output; the hash is a
// pseudo-identifier for comparison, not a security primitive.
func digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digestFeatures canonicalizes a feature map into "key=value" lines in
// sorted key order before hashing, so the digest is independent of map
// iteration order and changes whenever any single feature changes.
func digestFeatures(features map[string]string) string {
	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(features[k])
		b.WriteByte('\n')
	}
	return digest([]byte(b.String()))
}
