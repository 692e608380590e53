// Package speech turns raw 16 kHz audio into speech segments: it scores the clip
// window by window with a vad.Source, runs the segmentation state machine over
// the probabilities and pads the result.
package speech

import (
	"errors"
	"fmt"
	"math"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/realtime-ai/vadseg/pkg/segment"
)

// HysteresisGap is how far below Threshold speech must drop to end.
const HysteresisGap = segment.HysteresisGap

// SampleRate is the only rate the models and the duration conversions use.
const SampleRate = 16000

// supportedWindowSizes are the window lengths the models were validated on.
var supportedWindowSizes = []int{512, 1024, 1536}

// Options controls segmentation. Durations are in the units callers think in and
// are converted to samples at SampleRate.
type Options struct {
	// Threshold is the probability at or above which a window counts as speech.
	// Speech ends only below Threshold - 0.15.
	Threshold float32 `json:"threshold" yaml:"threshold"`
	// MinSpeechDurationMs drops segments that are not longer than this.
	MinSpeechDurationMs int `json:"min_speech_duration_ms" yaml:"min_speech_duration_ms"`
	// MaxSpeechDurationS splits longer segments; +Inf disables splitting.
	MaxSpeechDurationS float64 `json:"max_speech_duration_s" yaml:"max_speech_duration_s"`
	// MinSilenceDurationMs is how long a silence must last to end a segment.
	MinSilenceDurationMs int `json:"min_silence_duration_ms" yaml:"min_silence_duration_ms"`
	WindowSizeSamples    int `json:"window_size_samples" yaml:"window_size_samples"`
	SpeechPadMs          int `json:"speech_pad_ms" yaml:"speech_pad_ms"`
}

// DefaultOptions returns the settings the models were tuned with.
func DefaultOptions() Options {
	return Options{
		Threshold:            0.5,
		MinSpeechDurationMs:  50,
		MaxSpeechDurationS:   math.Inf(1),
		MinSilenceDurationMs: 2000,
		WindowSizeSamples:    1024,
		SpeechPadMs:          100,
	}
}

// Params converts o to sample-domain parameters for a clip of totalSamples.
func (o Options) Params(totalSamples int) segment.Params {
	return segment.NewParams(o.Threshold, segment.Durations{
		MinSpeechMs:  o.MinSpeechDurationMs,
		MaxSpeechS:   o.MaxSpeechDurationS,
		MinSilenceMs: o.MinSilenceDurationMs,
		SpeechPadMs:  o.SpeechPadMs,
	}, o.WindowSizeSamples, SampleRate, totalSamples)
}

// Validate rejects values the segmentation cannot work with. The threshold
// must leave the closing threshold above zero. Every problem is reported.
func (o Options) Validate() error {
	var errs []error
	if math.IsNaN(float64(o.Threshold)) || o.Threshold <= HysteresisGap || o.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %v must be in (%v, 1]", o.Threshold, HysteresisGap))
	}
	if o.MinSpeechDurationMs < 0 {
		errs = append(errs, fmt.Errorf("min_speech_duration_ms %d must not be negative", o.MinSpeechDurationMs))
	}
	if math.IsNaN(o.MaxSpeechDurationS) || o.MaxSpeechDurationS <= 0 {
		errs = append(errs, fmt.Errorf("max_speech_duration_s %v must be positive, +Inf disables splitting", o.MaxSpeechDurationS))
	}
	if o.MinSilenceDurationMs < 0 {
		errs = append(errs, fmt.Errorf("min_silence_duration_ms %d must not be negative", o.MinSilenceDurationMs))
	}
	if o.WindowSizeSamples <= 0 {
		errs = append(errs, fmt.Errorf("window_size_samples %d must be positive", o.WindowSizeSamples))
	}
	if o.SpeechPadMs < 0 {
		errs = append(errs, fmt.Errorf("speech_pad_ms %d must not be negative", o.SpeechPadMs))
	}
	return errors.Join(errs...)
}

// warnWindowSize logs when size is not one the models were validated on.
// Processing goes on with the given size.
func warnWindowSize(logger log.FieldLogger, size int) {
	if slices.Contains(supportedWindowSizes, size) {
		return
	}
	logger.WithField("window_size", size).
		Warnf("unusual window size, supported sizes are %v; results may be inaccurate", supportedWindowSizes)
}
