package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip is a decoded mono recording.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// DecodeWAV reads a PCM WAV file, mixes it down to mono and, when targetRate
// is non-zero and differs from the file's rate, resamples it to targetRate.
func DecodeWAV(r io.ReadSeeker, targetRate int) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("read PCM buffer: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return Clip{}, fmt.Errorf("%w: missing format chunk", ErrUnsupportedFormat)
	}

	samples, err := mixDown(buf)
	if err != nil {
		return Clip{}, err
	}

	clip := Clip{Samples: samples, SampleRate: buf.Format.SampleRate}
	if targetRate == 0 || clip.SampleRate == targetRate {
		return clip, nil
	}

	resampled, err := Resample(clip.Samples, clip.SampleRate, targetRate)
	if err != nil {
		return Clip{}, err
	}
	return Clip{Samples: resampled, SampleRate: targetRate}, nil
}

// mixDown averages interleaved channels and scales integer samples to [-1, 1).
func mixDown(buf *goaudio.IntBuffer) ([]float32, error) {
	depth := buf.SourceBitDepth
	if depth != 16 && depth != 24 && depth != 32 {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, depth)
	}
	scale := float64(int64(1) << (depth - 1))

	channels := buf.Format.NumChannels
	out := make([]float32, len(buf.Data)/channels)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) / scale
		}
		out[i] = float32(sum / float64(channels))
	}
	return out, nil
}

// EncodeWAV writes samples as a 16-bit mono WAV file.
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(floatToInt16(s))
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}
	return nil
}
