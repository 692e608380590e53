package vad

import (
	"context"
	"fmt"
)

// Windows splits audio into consecutive, non-overlapping windows of size samples.
// The last window is shorter when len(audio) is not a multiple of size. The
// windows share audio's backing array.
func Windows(audio []float32, size int) [][]float32 {
	if size <= 0 || len(audio) == 0 {
		return nil
	}

	n := (len(audio) + size - 1) / size
	out := make([][]float32, 0, n)
	for start := 0; start < len(audio); start += size {
		end := min(start+size, len(audio))
		out = append(out, audio[start:end:end])
	}
	return out
}

// Probabilities runs src over every window of audio, in order, threading the
// recurrent state from one call to the next, and returns one probability per
// window. Cancelling ctx stops the scan between two windows.
func Probabilities(ctx context.Context, src Source, audio []float32, windowSize int) ([]float32, error) {
	windows := Windows(audio, windowSize)
	probs := make([]float32, 0, len(windows))

	st := src.InitialState()
	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, next, err := src.Infer(w, st)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		probs = append(probs, p)
		st = next
	}
	return probs, nil
}
