package segment

import "math"

const (
	// HysteresisGap is the fixed distance between the threshold that opens a
	// segment and the one that lets it close.
	HysteresisGap = 0.15

	// maxSpeechSilenceMs is how long a silence must last before it becomes a
	// split candidate for the max-duration rule.
	maxSpeechSilenceMs = 98
)

// Params holds the segmentation thresholds with every duration already converted
// to samples. Build it with NewParams rather than by hand so the derived fields
// stay consistent.
type Params struct {
	WindowSize int
	Threshold  float64
	// NegThreshold is always Threshold - HysteresisGap.
	NegThreshold float64

	MinSpeech int
	// MaxSpeech is a float so that +Inf disables the forced split.
	MaxSpeech             float64
	MinSilence            int
	MinSilenceAtMaxSpeech int
	SpeechPad             int

	TotalSamples int
}

// Durations are the caller-facing knobs, in the units people think in.
type Durations struct {
	MinSpeechMs  int
	MaxSpeechS   float64
	MinSilenceMs int
	SpeechPadMs  int
}

// NewParams derives sample-domain parameters for one clip of totalSamples samples.
func NewParams(threshold float32, d Durations, windowSize, sampleRate, totalSamples int) Params {
	speechPad := sampleRate * d.SpeechPadMs / 1000

	maxSpeech := math.Inf(1)
	if !math.IsInf(d.MaxSpeechS, 1) {
		maxSpeech = float64(sampleRate)*d.MaxSpeechS - float64(windowSize) - float64(2*speechPad)
	}

	return Params{
		WindowSize:            windowSize,
		Threshold:             float64(threshold),
		NegThreshold:          float64(threshold) - HysteresisGap,
		MinSpeech:             sampleRate * d.MinSpeechMs / 1000,
		MaxSpeech:             maxSpeech,
		MinSilence:            sampleRate * d.MinSilenceMs / 1000,
		MinSilenceAtMaxSpeech: sampleRate * maxSpeechSilenceMs / 1000,
		SpeechPad:             speechPad,
		TotalSamples:          totalSamples,
	}
}
