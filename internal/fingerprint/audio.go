package fingerprint

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/leaklens/leaklens/internal/browserenv"
	"github.com/leaklens/leaklens/internal/model"
)

// FamilyAudio is the audio collector family name.
const FamilyAudio = "audio"

// audioEntropyEstimate is the illustrative identifying power of an audio
// pipeline render, in bits. Audio stacks cluster heavily by OS and
// hardware, so the estimate is modest.
const audioEntropyEstimate = 5.4

// AudioCollector hashes the output of the fixed offline
// oscillator -> dynamics-compressor -> analyser probe graph.
//
// The graph parameters (oscillator frequency, compressor knee/ratio/
// attack/release, sample count) are fixed by the capture contract, so the
// rendered float buffer is a deterministic function of the audio stack.
// Offline contexts are released by the capture side immediately after
// sampling; the engine only ever sees the recorded buffer.
type AudioCollector struct {
	env browserenv.Environment
}

// NewAudioCollector creates an audio collector over the given environment.
func NewAudioCollector(env browserenv.Environment) *AudioCollector {
	return &AudioCollector{env: env}
}

// Name returns the collector family name.
func (c *AudioCollector) Name() string { return FamilyAudio }

// Detect renders the probe graph and reduces the sample buffer to a hash.
func (c *AudioCollector) Detect(_ context.Context) (*model.FingerprintSample, error) {
	port := c.env.Audio()
	if !c.env.Capabilities().Has(browserenv.CapAudio) || port == nil {
		return model.NewUnsupportedSample(FamilyAudio), nil
	}

	samples, err := port.RenderProbeGraph()
	if err != nil {
		return model.NewUnsupportedSample(FamilyAudio), fmt.Errorf("audio probe render: %w", err)
	}

	// Canonical serialization: shortest round-trip float formatting joined
	// by commas. Two stacks that differ in any single sample differ here.
	var b strings.Builder
	b.WriteString(strconv.Itoa(port.SampleRate()))
	b.WriteByte(':')
	for i, s := range samples {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(s, 'g', -1, 64))
	}

	return &model.FingerprintSample{
		Family:    FamilyAudio,
		Supported: true,
		Hash:      digest([]byte(b.String())),
		RawFeatures: map[string]string{
			"sample_rate":  strconv.Itoa(port.SampleRate()),
			"sample_count": strconv.Itoa(len(samples)),
		},
		Entropy: audioEntropyEstimate,
	}, nil
}
