package model

// FingerprintSample is the output of one fingerprint collector family
// (canvas, WebGL, audio, fonts).
//
// Hash is deterministic for a fixed environment and changes whenever
// any contributing raw feature changes. When the underlying browser API
// is unavailable, Supported is false and Hash is empty; that state is a
// normal typed outcome, never an error.
//
// Design decision: RawFeatures uses string values rather than interface{}
// because every feature we collect is already a rendered scalar (dimension,
// vendor string, count, flag), and string values keep the hash input
// canonical without reflection-based serialization.
type FingerprintSample struct {
	// Family is the collector family that produced this sample
	// ("canvas", "webgl", "audio", "fonts").
	Family string `json:"family"`

	// Supported reports whether the underlying browser API was available.
	Supported bool `json:"supported"`

	// Hash is the stable digest of the rendering or measurement output.
	// Empty when Supported is false.
	Hash string `json:"hash"`

	// RawFeatures holds collector-specific features keyed by name:
	// dimensions, vendor/renderer strings, extension lists, font counts,
	// rendering-quirk flags. All values are their canonical string form.
	RawFeatures map[string]string `json:"raw_features,omitempty"`

	// Entropy is a rough information-theoretic estimate, in bits, of how
	// identifying this sample is. It is an illustrative approximation
	// (e.g. log2(fontCount) + log2(referenceListSize) for fonts), not a
	// calibrated measurement.
	Entropy float64 `json:"entropy"`
}

// NewUnsupportedSample returns the canonical sample for an environment
// where the collector's API family is unavailable.
func NewUnsupportedSample(family string) *FingerprintSample {
	return &FingerprintSample{
		Family:    family,
		Supported: false,
		Hash:      "",
	}
}

// Feature returns the named raw feature value, or "" if absent.
func (s *FingerprintSample) Feature(name string) string {
	if s.RawFeatures == nil {
		return ""
	}
	return s.RawFeatures[name]
}
