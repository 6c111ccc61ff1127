package fingerprint

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/leaklens/leaklens/internal/browserenv"
	"github.com/leaklens/leaklens/internal/model"
)

// FamilyFonts is the font collector family name.
const FamilyFonts = "fonts"

// widthEpsilon is the tolerance for comparing measured text widths.
// Sub-pixel layout engines report fractional widths; differences below
// this threshold are rendering noise, not a different font.
const widthEpsilon = 0.01

// fallbackFamilies are the generic families each candidate font is
// stacked over. A candidate is present when its stacked width differs
// from the fallback-only baseline for at least one family.
var fallbackFamilies = []string{"monospace", "sans-serif", "serif"}

// referenceFonts is the fixed candidate list: common system, office, and
// design fonts across Windows, macOS, and Linux. The list length feeds
// the entropy estimate, so changing it changes reported entropy.
var referenceFonts = []string{
	// Windows core
	"Arial", "Arial Black", "Arial Narrow", "Calibri", "Cambria",
	"Cambria Math", "Candara", "Comic Sans MS", "Consolas", "Constantia",
	"Corbel", "Courier New", "Ebrima", "Franklin Gothic Medium", "Gabriola",
	"Georgia", "Impact", "Lucida Console", "Lucida Sans Unicode",
	"Microsoft Sans Serif", "MS Gothic", "Palatino Linotype", "Segoe Print",
	"Segoe Script", "Segoe UI", "Segoe UI Symbol", "Sylfaen", "Tahoma",
	"Times New Roman", "Trebuchet MS", "Verdana", "Webdings", "Wingdings",

	// macOS core
	"American Typewriter", "Andale Mono", "Apple Chancery", "AppleGothic",
	"Avenir", "Avenir Next", "Baskerville", "Big Caslon", "Chalkboard",
	"Cochin", "Copperplate", "Didot", "Futura", "Geneva", "Gill Sans",
	"Helvetica", "Helvetica Neue", "Herculanum", "Hoefler Text", "Menlo",
	"Monaco", "Optima", "Palatino", "Papyrus", "Skia", "Zapfino",

	// Linux / free
	"Bitstream Vera Sans", "Cantarell", "DejaVu Sans", "DejaVu Sans Mono",
	"DejaVu Serif", "Liberation Mono", "Liberation Sans", "Liberation Serif",
	"Noto Sans", "Noto Serif", "Ubuntu", "Ubuntu Mono",

	// Office / design
	"Book Antiqua", "Bookman Old Style", "Century Gothic", "Garamond",
	"Lucida Bright", "Lucida Handwriting", "Rockwell", "Source Code Pro",
	"Source Sans Pro",
}

// FontCollector infers installed fonts through width measurement and
// hashes the sorted detected list.
type FontCollector struct {
	env browserenv.Environment
}

// NewFontCollector creates a font collector over the given environment.
func NewFontCollector(env browserenv.Environment) *FontCollector {
	return &FontCollector{env: env}
}

// Name returns the collector family name.
func (c *FontCollector) Name() string { return FamilyFonts }

// ReferenceListSize returns the size of the fixed candidate list.
func ReferenceListSize() int { return len(referenceFonts) }

// Detect measures every candidate font against the fallback baselines and
// reduces the detected set to a sample.
//
// The entropy estimate log2(fontCount) + log2(referenceListSize) is a
// rough information-theoretic approximation, not a precise calculation.
func (c *FontCollector) Detect(_ context.Context) (*model.FingerprintSample, error) {
	port := c.env.Fonts()
	if !c.env.Capabilities().Has(browserenv.CapFonts) || port == nil {
		return model.NewUnsupportedSample(FamilyFonts), nil
	}

	detected := make([]string, 0, len(referenceFonts))
	for _, font := range referenceFonts {
		if c.fontPresent(port, font) {
			// Normalize before hashing so composed and decomposed forms
			// of the same name produce the same digest.
			detected = append(detected, norm.NFC.String(font))
		}
	}
	sort.Strings(detected)

	entropy := 0.0
	if len(detected) > 0 {
		entropy = math.Log2(float64(len(detected))) + math.Log2(float64(len(referenceFonts)))
	}

	return &model.FingerprintSample{
		Family:    FamilyFonts,
		Supported: true,
		Hash:      digest([]byte(strings.Join(detected, "\n"))),
		RawFeatures: map[string]string{
			"detected_fonts": strings.Join(detected, ","),
			"font_count":     strconv.Itoa(len(detected)),
			"reference_size": strconv.Itoa(len(referenceFonts)),
		},
		Entropy: entropy,
	}, nil
}

// fontPresent reports whether the candidate font changed the rendered
// width relative to any fallback-only baseline.
func (c *FontCollector) fontPresent(port browserenv.FontPort, font string) bool {
	for _, fallback := range fallbackFamilies {
		baseline, ok := port.BaselineWidth(fallback)
		if !ok {
			continue
		}
		measured, ok := port.MeasureWidth(font, fallback)
		if !ok {
			continue
		}
		if math.Abs(measured-baseline) > widthEpsilon {
			return true
		}
	}
	return false
}
