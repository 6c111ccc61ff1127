package fingerprint

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/leaklens/leaklens/internal/browserenv"
	"github.com/leaklens/leaklens/internal/model"
)

// FamilyWebGL is the WebGL collector family name.
const FamilyWebGL = "webgl"

// capabilityParameters is the fixed set of numeric capability limits the
// collector reads. The list is fixed so the hash input is stable across
// runs; unknown parameters are recorded as absent rather than skipped
// silently, which keeps the hash sensitive to parameter disappearance.
var capabilityParameters = []string{
	"MAX_TEXTURE_SIZE",
	"MAX_CUBE_MAP_TEXTURE_SIZE",
	"MAX_RENDERBUFFER_SIZE",
	"MAX_VIEWPORT_DIMS",
	"MAX_VERTEX_ATTRIBS",
	"MAX_VERTEX_UNIFORM_VECTORS",
	"MAX_FRAGMENT_UNIFORM_VECTORS",
	"MAX_VARYING_VECTORS",
	"MAX_COMBINED_TEXTURE_IMAGE_UNITS",
	"ALIASED_LINE_WIDTH_RANGE",
	"ALIASED_POINT_SIZE_RANGE",
}

// WebGLCollector reduces the rendering context's vendor/renderer strings,
// extension list, and capability limits to a sample.
type WebGLCollector struct {
	env browserenv.Environment
}

// NewWebGLCollector creates a WebGL collector over the given environment.
func NewWebGLCollector(env browserenv.Environment) *WebGLCollector {
	return &WebGLCollector{env: env}
}

// Name returns the collector family name.
func (c *WebGLCollector) Name() string { return FamilyWebGL }

// Detect reads the context parameters and reduces them to a sample.
// Context-creation failure (headless or old browsers) is a typed
// unsupported outcome, never an error.
func (c *WebGLCollector) Detect(_ context.Context) (*model.FingerprintSample, error) {
	port := c.env.WebGL()
	if !c.env.Capabilities().Has(browserenv.CapWebGL) || port == nil {
		return model.NewUnsupportedSample(FamilyWebGL), nil
	}

	features := map[string]string{
		"vendor":   port.Vendor(),
		"renderer": port.Renderer(),
	}

	// The unmasked strings identify the real GPU/driver pair and dominate
	// the identifying power of this family when present.
	unmasked := false
	if v, ok := port.UnmaskedVendor(); ok {
		features["unmasked_vendor"] = v
		unmasked = true
	}
	if r, ok := port.UnmaskedRenderer(); ok {
		features["unmasked_renderer"] = r
		unmasked = true
	}

	extensions := append([]string(nil), port.Extensions()...)
	sort.Strings(extensions)
	features["extensions"] = strings.Join(extensions, ",")
	features["extension_count"] = strconv.Itoa(len(extensions))

	for _, name := range capabilityParameters {
		if v, ok := port.Parameter(name); ok {
			features["param_"+name] = v
		} else {
			features["param_"+name] = "absent"
		}
	}

	// Illustrative estimate: extension sets and capability limits each
	// contribute on a log scale; the unmasked renderer string is worth a
	// flat bonus because it names the concrete GPU.
	entropy := math.Log2(float64(len(extensions)+1)) + math.Log2(float64(len(capabilityParameters)+1))
	if unmasked {
		entropy += 6
	} else {
		entropy += 2
	}

	return &model.FingerprintSample{
		Family:      FamilyWebGL,
		Supported:   true,
		Hash:        digestFeatures(features),
		RawFeatures: features,
		Entropy:     entropy,
	}, nil
}
