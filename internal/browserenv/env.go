package browserenv

// Environment is the injected port bundle collectors observe a browser
// through. Port accessors return nil when the corresponding capability is
// absent; collectors must consult Capabilities() before dereferencing.
//
// Design decision: We expose one aggregate interface rather than passing
// four ports separately because every collector also needs the capability
// table, and a single injection point keeps orchestration wiring flat.
type Environment interface {
	// Capabilities returns the feature table resolved for this environment.
	Capabilities() Capabilities

	// Canvas returns the 2D canvas port, or nil when CapCanvas is absent.
	Canvas() CanvasPort

	// WebGL returns the WebGL port, or nil when CapWebGL is absent.
	WebGL() WebGLPort

	// Audio returns the offline audio port, or nil when CapAudio is absent.
	Audio() AudioPort

	// Fonts returns the text measurement port, or nil when CapFonts is absent.
	Fonts() FontPort

	// Close releases any native resources the environment holds.
	// Closing is advisory: implementations must not leak when a caller
	// never invokes it.
	Close() error
}

// CanvasPort exposes deterministic 2D rendering with pixel readback.
type CanvasPort interface {
	// Dimensions returns the probe canvas size in pixels.
	Dimensions() (width, height int)

	// RenderProbe draws the fixed probe scene (glyph strings, emoji,
	// gradient fills at fixed font and canvas size) and returns the raw
	// RGBA pixel buffer. The pixel data, not the display, is what gets
	// hashed downstream.
	RenderProbe() ([]byte, error)

	// FeatureFlags reports rendering fidelity quirks observed while
	// drawing the probe scene (text, emoji, gradient support).
	FeatureFlags() map[string]bool
}

// WebGLPort exposes the rendering context parameters a fingerprinter reads.
type WebGLPort interface {
	// Vendor and Renderer are the standard context strings.
	Vendor() string
	Renderer() string

	// UnmaskedVendor and UnmaskedRenderer come from the debug-renderer
	// extension. The second return is false when the extension is absent.
	UnmaskedVendor() (string, bool)
	UnmaskedRenderer() (string, bool)

	// Extensions returns every supported extension name.
	Extensions() []string

	// Parameter returns the canonical string form of a numeric capability
	// limit (max texture size, max viewport dims, aliased line width
	// range, ...). The second return is false for unknown parameters.
	Parameter(name string) (string, bool)
}

// AudioPort exposes offline rendering of the fixed oscillator/compressor
// probe graph.
type AudioPort interface {
	// SampleRate returns the context sample rate in Hz.
	SampleRate() int

	// RenderProbeGraph renders the fixed oscillator -> dynamics-compressor
	// -> analyser graph and returns the output sample buffer.
	RenderProbeGraph() ([]float64, error)
}

// FontPort exposes text width measurement for indirect font detection.
// Browsers refuse to enumerate installed fonts, so presence is inferred
// by measuring a probe string with a candidate font stacked over a
// known-absent fallback and comparing against the fallback-only baseline.
type FontPort interface {
	// MeasureWidth returns the rendered width of the fixed probe string
	// using the candidate font stacked over the given fallback family.
	// The second return is false when no measurement was recorded.
	MeasureWidth(font, fallback string) (float64, bool)

	// BaselineWidth returns the rendered width of the probe string using
	// only the fallback family.
	BaselineWidth(fallback string) (float64, bool)
}
