package fingerprint

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/leaklens/leaklens/internal/browserenv"
	"github.com/leaklens/leaklens/internal/model"
)

// FamilyCanvas is the canvas collector family name.
const FamilyCanvas = "canvas"

// canvasBaseEntropy is the illustrative entropy contribution of a canvas
// render before fidelity flags, in bits. Derived from published browser
// fingerprinting surveys; treat it as an approximation, not a measurement.
const canvasBaseEntropy = 8.0

// CanvasCollector hashes the pixel buffer of the fixed 2D probe scene.
//
// Two environments with identical GPU, driver, OS font rasterizer, and
// anti-aliasing stacks produce the identical hash. Any difference in that
// stack changes the pixel data and therefore the hash with high
// probability. Collision resistance only needs to support scoring tier
// distinctions; this is not a cryptographic identity.
type CanvasCollector struct {
	env browserenv.Environment
}

// NewCanvasCollector creates a canvas collector over the given environment.
func NewCanvasCollector(env browserenv.Environment) *CanvasCollector {
	return &CanvasCollector{env: env}
}

// Name returns the collector family name.
func (c *CanvasCollector) Name() string { return FamilyCanvas }

// Detect renders the probe scene and reduces the pixel data to a sample.
func (c *CanvasCollector) Detect(_ context.Context) (*model.FingerprintSample, error) {
	port := c.env.Canvas()
	if !c.env.Capabilities().Has(browserenv.CapCanvas) || port == nil {
		return model.NewUnsupportedSample(FamilyCanvas), nil
	}

	pixels, err := port.RenderProbe()
	if err != nil {
		return model.NewUnsupportedSample(FamilyCanvas), fmt.Errorf("canvas probe render: %w", err)
	}

	width, height := port.Dimensions()
	flags := port.FeatureFlags()

	features := map[string]string{
		"width":  strconv.Itoa(width),
		"height": strconv.Itoa(height),
	}
	entropy := canvasBaseEntropy
	for _, name := range sortedFlagNames(flags) {
		features["render_"+name] = strconv.FormatBool(flags[name])
		if flags[name] {
			// Each fidelity quirk that renders distinguishes roughly
			// another couple of bits of rasterizer behavior.
			entropy += 2
		}
	}

	// The hash covers the serialized pixel data plus the dimensions, so a
	// same-pixels render at a different canvas size still differs.
	hashInput := make([]byte, 0, len(pixels)+16)
	hashInput = append(hashInput, []byte(fmt.Sprintf("%dx%d:", width, height))...)
	hashInput = append(hashInput, pixels...)

	return &model.FingerprintSample{
		Family:      FamilyCanvas,
		Supported:   true,
		Hash:        digest(hashInput),
		RawFeatures: features,
		Entropy:     entropy,
	}, nil
}

func sortedFlagNames(flags map[string]bool) []string {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
