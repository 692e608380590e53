//go:build !ffmpeg

package audio

import "fmt"

// Resample converts a whole clip from one rate to another. This build has no
// resampler, so only same-rate conversions succeed.
func Resample(samples []float32, from, to int) ([]float32, error) {
	if from == to {
		return samples, nil
	}
	return nil, fmt.Errorf("%w: %d Hz audio needs resampling to %d Hz, rebuild with -tags ffmpeg",
		ErrUnsupportedFormat, from, to)
}
