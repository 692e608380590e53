package speech

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	tests := []struct {
		name   string
		modify func(*Options)
		want   string
	}{
		{"threshold at gap", func(o *Options) { o.Threshold = 0.15 }, "threshold"},
		{"threshold above one", func(o *Options) { o.Threshold = 1.01 }, "threshold"},
		{"threshold nan", func(o *Options) { o.Threshold = float32(math.NaN()) }, "threshold"},
		{"negative min speech", func(o *Options) { o.MinSpeechDurationMs = -1 }, "min_speech_duration_ms"},
		{"zero max speech", func(o *Options) { o.MaxSpeechDurationS = 0 }, "max_speech_duration_s"},
		{"negative min silence", func(o *Options) { o.MinSilenceDurationMs = -1 }, "min_silence_duration_ms"},
		{"zero window", func(o *Options) { o.WindowSizeSamples = 0 }, "window_size_samples"},
		{"negative pad", func(o *Options) { o.SpeechPadMs = -10 }, "speech_pad_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestOptionsValidateAcceptsUnusualWindow(t *testing.T) {
	opts := DefaultOptions()
	opts.WindowSizeSamples = 700
	assert.NoError(t, opts.Validate())
}
