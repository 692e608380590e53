package segment

// CollectSamples concatenates audio[s.Start:s.End] for every segment, in order.
// Segment ends past the end of audio are clamped.
func CollectSamples(audio []float32, segs []Segment) []float32 {
	n := 0
	for _, s := range segs {
		n += max(0, min(s.End, len(audio))-s.Start)
	}

	out := make([]float32, 0, n)
	for _, s := range segs {
		end := min(s.End, len(audio))
		if s.Start >= end {
			continue
		}
		out = append(out, audio[s.Start:end]...)
	}
	return out
}

// Duration returns the total speech time covered by segs, in seconds.
func Duration(segs []Segment, sampleRate int) float64 {
	total := 0
	for _, s := range segs {
		total += s.Len()
	}
	return float64(total) / float64(sampleRate)
}
