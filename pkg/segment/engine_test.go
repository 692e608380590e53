package segment

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(p float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = p
	}
	return out
}

func concat(parts ...[]float32) []float32 {
	var out []float32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func testParams(window, total int, d Durations) Params {
	return NewParams(0.5, d, window, 16000, total)
}

func TestNewParams(t *testing.T) {
	p := NewParams(0.5, Durations{
		MinSpeechMs:  50,
		MaxSpeechS:   10,
		MinSilenceMs: 2000,
		SpeechPadMs:  100,
	}, 1024, 16000, 48000)

	assert.Equal(t, 1024, p.WindowSize)
	assert.Equal(t, 0.5, p.Threshold)
	assert.Equal(t, p.Threshold-HysteresisGap, p.NegThreshold)
	assert.Equal(t, 800, p.MinSpeech)
	assert.Equal(t, 1600, p.SpeechPad)
	assert.Equal(t, float64(160000-1024-3200), p.MaxSpeech)
	assert.Equal(t, 32000, p.MinSilence)
	assert.Equal(t, 1568, p.MinSilenceAtMaxSpeech)
	assert.Equal(t, 48000, p.TotalSamples)

	t.Run("infinite max speech", func(t *testing.T) {
		p := NewParams(0.6, Durations{MaxSpeechS: math.Inf(1)}, 512, 16000, 0)
		assert.True(t, math.IsInf(p.MaxSpeech, 1))
		assert.InDelta(t, 0.45, p.NegThreshold, 1e-6)
	})
}

func TestDetect(t *testing.T) {
	inf := math.Inf(1)

	tests := []struct {
		name   string
		window int
		total  int
		d      Durations
		probs  []float32
		want   []Segment
	}{
		{
			name:   "speech then silence",
			window: 1024,
			total:  10240,
			d:      Durations{MaxSpeechS: inf, MinSilenceMs: 200},
			probs:  concat(repeat(0.9, 5), repeat(0.1, 5)),
			want:   []Segment{{Start: 0, End: 5120}},
		},
		{
			name:   "all silence",
			window: 512,
			total:  5120,
			d:      Durations{MinSpeechMs: 50, MaxSpeechS: inf, MinSilenceMs: 100},
			probs:  repeat(0.1, 10),
			want:   nil,
		},
		{
			name:   "no windows",
			window: 512,
			total:  0,
			d:      Durations{MaxSpeechS: inf},
			probs:  nil,
			want:   nil,
		},
		{
			name:   "short burst dropped",
			window: 512,
			total:  2048,
			d:      Durations{MinSpeechMs: 50, MaxSpeechS: inf},
			probs:  []float32{0.9, 0.1, 0.1, 0.1},
			want:   nil,
		},
		{
			name:   "drop below negative threshold closes immediately",
			window: 512,
			total:  2048,
			d:      Durations{MaxSpeechS: inf},
			probs:  []float32{0.9, 0.9, 0.2, 0.2},
			want:   []Segment{{Start: 0, End: 1024}},
		},
		{
			name:   "silence shorter than minimum keeps segment open",
			window: 512,
			total:  6144,
			d:      Durations{MaxSpeechS: inf, MinSilenceMs: 100},
			probs:  concat(repeat(0.1, 2), repeat(0.9, 3), repeat(0.1, 2), repeat(0.9, 2), repeat(0.1, 3)),
			want:   []Segment{{Start: 1024, End: 6144}},
		},
		{
			name:   "trailing speech closes at end of audio",
			window: 512,
			total:  3000,
			d:      Durations{MinSpeechMs: 50, MaxSpeechS: inf, MinSilenceMs: 100},
			probs:  concat(repeat(0.1, 2), repeat(0.9, 4)),
			want:   []Segment{{Start: 1024, End: 3000}},
		},
		{
			name:   "trailing tail too short",
			window: 512,
			total:  3072,
			d:      Durations{MinSpeechMs: 50, MaxSpeechS: inf, MinSilenceMs: 100},
			probs:  concat(repeat(0.1, 5), repeat(0.9, 1)),
			want:   nil,
		},
		{
			name:   "speech from first sample to end",
			window: 512,
			total:  2560,
			d:      Durations{MinSpeechMs: 50, MaxSpeechS: inf},
			probs:  repeat(0.9, 5),
			want:   []Segment{{Start: 0, End: 2560}},
		},
		{
			name:   "max speech aggressive split",
			window: 512,
			total:  5120,
			d:      Durations{MaxSpeechS: 0.1, MinSilenceMs: 2000},
			probs:  repeat(0.9, 10),
			want: []Segment{
				{Start: 0, End: 1536},
				{Start: 2048, End: 3584},
				{Start: 4096, End: 5120},
			},
		},
		{
			name:   "max speech splits at earlier silence",
			window: 512,
			total:  9728,
			d:      Durations{MaxSpeechS: 0.5, MinSilenceMs: 2000},
			probs:  concat(repeat(0.9, 4), repeat(0.1, 5), repeat(0.9, 10)),
			want: []Segment{
				{Start: 0, End: 2048},
				{Start: 4608, End: 9728},
			},
		},
		{
			name:   "max speech split while still silent",
			window: 512,
			total:  10240,
			d:      Durations{MaxSpeechS: 0.5, MinSilenceMs: 2000},
			probs:  concat(repeat(0.9, 4), repeat(0.1, 14), repeat(0.9, 2)),
			want: []Segment{
				{Start: 0, End: 2048},
				{Start: 9216, End: 10240},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.probs, testParams(tt.window, tt.total, tt.d))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectHysteresis(t *testing.T) {
	p := testParams(512, 0, Durations{MaxSpeechS: math.Inf(1)})
	require.Equal(t, p.Threshold-0.15, p.NegThreshold)

	// Hovering just above the negative threshold must never close the segment,
	// even with a zero minimum silence.
	above := float32(p.NegThreshold + 0.01)
	probs := []float32{0.9}
	for i := 0; i < 50; i++ {
		probs = append(probs, above, float32(p.Threshold))
	}
	p.TotalSamples = len(probs) * p.WindowSize

	got := Detect(probs, p)
	assert.Equal(t, []Segment{{Start: 0, End: p.TotalSamples}}, got)
}

func TestDetectProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		window := []int{512, 1024, 1536}[rng.Intn(3)]
		n := rng.Intn(400)
		total := n*window - rng.Intn(window)
		if total < 0 {
			total = 0
		}

		probs := make([]float32, n)
		speaking := false
		for i := range probs {
			if rng.Float64() < 0.1 {
				speaking = !speaking
			}
			if speaking {
				probs[i] = 0.4 + 0.6*rng.Float32()
			} else {
				probs[i] = 0.5 * rng.Float32()
			}
		}

		d := Durations{
			MinSpeechMs:  rng.Intn(300),
			MaxSpeechS:   math.Inf(1),
			MinSilenceMs: rng.Intn(500),
			SpeechPadMs:  rng.Intn(200),
		}
		p := testParams(window, total, d)
		segs := Detect(probs, p)

		for i, s := range segs {
			require.Less(t, s.Start, s.End, "run %d segment %d", run, i)
			assert.Greater(t, s.Len(), p.MinSpeech, "run %d segment %d", run, i)
			if i > 0 {
				require.LessOrEqual(t, segs[i-1].End, s.Start, "run %d segment %d", run, i)
			}
		}

		padded := Pad(segs, p.SpeechPad, p.TotalSamples)
		for i, s := range padded {
			assert.GreaterOrEqual(t, s.Start, 0, "run %d segment %d", run, i)
			assert.LessOrEqual(t, s.End, p.TotalSamples, "run %d segment %d", run, i)
			if i > 0 {
				assert.LessOrEqual(t, padded[i-1].End, s.Start, "run %d segment %d", run, i)
			}
		}
	}
}
