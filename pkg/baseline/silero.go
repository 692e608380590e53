//go:build vad

package baseline

import (
	"fmt"
	"math"

	silero "github.com/streamer45/silero-vad-go/speech"

	"github.com/realtime-ai/vadseg/pkg/segment"
	"github.com/realtime-ai/vadseg/pkg/speech"
)

// Silero runs the streamer45/silero-vad-go detector over whole clips.
type Silero struct {
	detector *silero.Detector
}

// NewSilero loads the model at modelPath. Only the options the library
// understands are passed on: threshold, minimum silence and padding.
func NewSilero(modelPath string, opts speech.Options) (*Silero, error) {
	detector, err := silero.NewDetector(silero.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           speech.SampleRate,
		Threshold:            opts.Threshold,
		MinSilenceDurationMs: opts.MinSilenceDurationMs,
		SpeechPadMs:          opts.SpeechPadMs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create silero detector: %w", err)
	}
	return &Silero{detector: detector}, nil
}

// Timestamps segments audio and converts the library's seconds to sample
// offsets. A segment the library leaves open runs to the end of the clip.
func (s *Silero) Timestamps(audio []float32) ([]segment.Segment, error) {
	if err := s.detector.Reset(); err != nil {
		return nil, fmt.Errorf("reset detector: %w", err)
	}

	found, err := s.detector.Detect(audio)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}

	segs := make([]segment.Segment, 0, len(found))
	for _, f := range found {
		sg := segment.Segment{
			Start: toSamples(f.SpeechStartAt),
			End:   len(audio),
		}
		if f.SpeechEndAt > 0 {
			sg.End = min(len(audio), toSamples(f.SpeechEndAt))
		}
		segs = append(segs, sg)
	}
	return segs, nil
}

// Close releases the model.
func (s *Silero) Close() error {
	return s.detector.Destroy()
}

func toSamples(seconds float64) int {
	return int(math.Round(seconds * speech.SampleRate))
}
