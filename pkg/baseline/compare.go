// Package baseline compares segmentations, typically ours against the
// streamer45/silero-vad-go reference detector.
package baseline

import (
	"math"

	"github.com/realtime-ai/vadseg/pkg/segment"
)

// Report summarizes how two segmentations of the same clip agree.
type Report struct {
	Segments      [2]int  `json:"segments"`
	SpeechSamples [2]int  `json:"speech_samples"`
	Overlap       int     `json:"overlap_samples"`
	IoU           float64 `json:"iou"`
	// MeanBoundaryDelta is the mean distance, in samples, from each boundary
	// of a to the nearest boundary of the same kind in b.
	MeanBoundaryDelta float64 `json:"mean_boundary_delta"`
}

// Compare measures a against b. Both must be ordered and non-overlapping.
func Compare(a, b []segment.Segment) Report {
	r := Report{
		Segments:      [2]int{len(a), len(b)},
		SpeechSamples: [2]int{speechSamples(a), speechSamples(b)},
		Overlap:       overlap(a, b),
	}

	union := r.SpeechSamples[0] + r.SpeechSamples[1] - r.Overlap
	if union > 0 {
		r.IoU = float64(r.Overlap) / float64(union)
	} else {
		r.IoU = 1
	}

	if len(a) > 0 && len(b) > 0 {
		var sum float64
		for _, s := range a {
			sum += nearest(s.Start, b, func(x segment.Segment) int { return x.Start })
			sum += nearest(s.End, b, func(x segment.Segment) int { return x.End })
		}
		r.MeanBoundaryDelta = sum / float64(2*len(a))
	}
	return r
}

func speechSamples(segs []segment.Segment) int {
	n := 0
	for _, s := range segs {
		n += s.Len()
	}
	return n
}

// overlap walks both lists once.
func overlap(a, b []segment.Segment) int {
	total := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := max(a[i].Start, b[j].Start)
		hi := min(a[i].End, b[j].End)
		if hi > lo {
			total += hi - lo
		}
		if a[i].End < b[j].End {
			i++
		} else {
			j++
		}
	}
	return total
}

func nearest(v int, segs []segment.Segment, key func(segment.Segment) int) float64 {
	best := math.Inf(1)
	for _, s := range segs {
		best = min(best, math.Abs(float64(v-key(s))))
	}
	return best
}
