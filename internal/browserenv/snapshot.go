package browserenv

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

// SnapshotData is the wire format of a recorded browser environment.
// The browser-side capture half of the product serializes one of these
// per visit; the engine replays it through the Environment ports.
type SnapshotData struct {
	// Capabilities is the captured feature table. When omitted, each
	// capability is inferred from the presence of its section below.
	Capabilities map[string]bool `json:"capabilities,omitempty"`

	Canvas *CanvasSnapshot `json:"canvas,omitempty"`
	WebGL  *WebGLSnapshot  `json:"webgl,omitempty"`
	Audio  *AudioSnapshot  `json:"audio,omitempty"`
	Fonts  *FontSnapshot   `json:"fonts,omitempty"`
}

// CanvasSnapshot records a canvas probe render.
type CanvasSnapshot struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Pixels is the base64-encoded RGBA buffer of the probe scene.
	Pixels string `json:"pixels"`

	// Features records rendering fidelity flags (text/emoji/gradient).
	Features map[string]bool `json:"features,omitempty"`
}

// WebGLSnapshot records the WebGL context parameters.
type WebGLSnapshot struct {
	Vendor           string            `json:"vendor"`
	Renderer         string            `json:"renderer"`
	UnmaskedVendor   string            `json:"unmasked_vendor,omitempty"`
	UnmaskedRenderer string            `json:"unmasked_renderer,omitempty"`
	Extensions       []string          `json:"extensions,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
}

// AudioSnapshot records an offline render of the audio probe graph.
type AudioSnapshot struct {
	SampleRate int       `json:"sample_rate"`
	Samples    []float64 `json:"samples"`
}

// FontSnapshot records text width measurements for font inference.
type FontSnapshot struct {
	// Baselines maps fallback family name to the probe string width
	// rendered with only that fallback.
	Baselines map[string]float64 `json:"baselines"`

	// Measurements maps candidate font name to its per-fallback widths.
	Measurements map[string]map[string]float64 `json:"measurements"`
}

// Snapshot is an Environment backed by recorded data. It is the
// production implementation (replaying a browser capture) and doubles as
// the test fake: tests construct SnapshotData directly.
type Snapshot struct {
	data SnapshotData
	caps Capabilities
}

// LoadSnapshot reads and parses a snapshot file.
func LoadSnapshot(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // User-provided snapshot path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var data SnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	return NewSnapshot(data), nil
}

// NewSnapshot builds a Snapshot environment from parsed data.
// The capability table is resolved here, once, so collectors can treat
// it as immutable data for the rest of the run.
func NewSnapshot(data SnapshotData) *Snapshot {
	caps := make(Capabilities)

	if data.Capabilities != nil {
		for name, present := range data.Capabilities {
			caps[Capability(name)] = present
		}
	}

	// Sections present in the capture imply the capability even when the
	// table omits them; an explicit false in the table wins.
	inferCap := func(cap Capability, present bool) {
		if _, declared := caps[cap]; !declared {
			caps[cap] = present
		}
	}
	inferCap(CapCanvas, data.Canvas != nil)
	inferCap(CapWebGL, data.WebGL != nil)
	inferCap(CapAudio, data.Audio != nil)
	inferCap(CapFonts, data.Fonts != nil)
	if data.WebGL != nil {
		inferCap(CapWebGLDebugRenderer, data.WebGL.UnmaskedRenderer != "")
	}

	return &Snapshot{data: data, caps: caps}
}

// Capabilities returns the resolved feature table.
func (s *Snapshot) Capabilities() Capabilities {
	return s.caps
}

// Canvas returns the recorded canvas port, or nil when absent.
func (s *Snapshot) Canvas() CanvasPort {
	if !s.caps.Has(CapCanvas) || s.data.Canvas == nil {
		return nil
	}
	return (*snapshotCanvas)(s.data.Canvas)
}

// WebGL returns the recorded WebGL port, or nil when absent.
func (s *Snapshot) WebGL() WebGLPort {
	if !s.caps.Has(CapWebGL) || s.data.WebGL == nil {
		return nil
	}
	return snapshotWebGL{d: s.data.WebGL}
}

// Audio returns the recorded audio port, or nil when absent.
func (s *Snapshot) Audio() AudioPort {
	if !s.caps.Has(CapAudio) || s.data.Audio == nil {
		return nil
	}
	return snapshotAudio{d: s.data.Audio}
}

// Fonts returns the recorded font measurement port, or nil when absent.
func (s *Snapshot) Fonts() FontPort {
	if !s.caps.Has(CapFonts) || s.data.Fonts == nil {
		return nil
	}
	return (*snapshotFonts)(s.data.Fonts)
}

// Close is a no-op: a snapshot holds no native resources.
func (s *Snapshot) Close() error { return nil }

type snapshotCanvas CanvasSnapshot

func (c *snapshotCanvas) Dimensions() (int, int) {
	return c.Width, c.Height
}

func (c *snapshotCanvas) RenderProbe() ([]byte, error) {
	pixels, err := base64.StdEncoding.DecodeString(c.Pixels)
	if err != nil {
		return nil, fmt.Errorf("invalid canvas pixel encoding: %w", err)
	}
	return pixels, nil
}

func (c *snapshotCanvas) FeatureFlags() map[string]bool {
	return c.Features
}

// snapshotWebGL wraps the recorded struct rather than converting it
// because the port method names collide with the snapshot field names.
type snapshotWebGL struct {
	d *WebGLSnapshot
}

func (w snapshotWebGL) Vendor() string   { return w.d.Vendor }
func (w snapshotWebGL) Renderer() string { return w.d.Renderer }

func (w snapshotWebGL) UnmaskedVendor() (string, bool) {
	return w.d.UnmaskedVendor, w.d.UnmaskedVendor != ""
}

func (w snapshotWebGL) UnmaskedRenderer() (string, bool) {
	return w.d.UnmaskedRenderer, w.d.UnmaskedRenderer != ""
}

func (w snapshotWebGL) Extensions() []string { return w.d.Extensions }

func (w snapshotWebGL) Parameter(name string) (string, bool) {
	v, ok := w.d.Parameters[name]
	return v, ok
}

type snapshotAudio struct {
	d *AudioSnapshot
}

func (a snapshotAudio) SampleRate() int { return a.d.SampleRate }

func (a snapshotAudio) RenderProbeGraph() ([]float64, error) {
	return a.d.Samples, nil
}

type snapshotFonts FontSnapshot

func (f *snapshotFonts) MeasureWidth(font, fallback string) (float64, bool) {
	widths, ok := (*FontSnapshot)(f).Measurements[font]
	if !ok {
		return 0, false
	}
	w, ok := widths[fallback]
	return w, ok
}

func (f *snapshotFonts) BaselineWidth(fallback string) (float64, bool) {
	w, ok := (*FontSnapshot)(f).Baselines[fallback]
	return w, ok
}
