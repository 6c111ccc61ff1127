package browserenv

// Capability names a browser feature the engine probes for.
type Capability string

// Capabilities the engine cares about. Each is resolved exactly once per
// run; collectors consume the resulting table as data rather than
// re-checking at every call site.
const (
	// CapCanvas is 2D canvas rendering with pixel readback.
	CapCanvas Capability = "canvas"

	// CapWebGL is WebGL context creation.
	CapWebGL Capability = "webgl"

	// CapWebGLDebugRenderer is the unmasked vendor/renderer extension.
	CapWebGLDebugRenderer Capability = "webgl_debug_renderer"

	// CapAudio is offline audio rendering.
	CapAudio Capability = "audio"

	// CapFonts is text width measurement for font inference.
	CapFonts Capability = "fonts"

	// CapWebRTC is peer connection construction.
	CapWebRTC Capability = "webrtc"
)

// Capabilities is the per-run feature table.
//
// Design decision: A plain map rather than a struct of booleans keeps the
// table open to capabilities the snapshot format may add later, and makes
// "absent means false" the natural default.
type Capabilities map[Capability]bool

// Has reports whether the capability was present in the probed environment.
// Unknown capabilities report false.
func (c Capabilities) Has(cap Capability) bool {
	return c[cap]
}
