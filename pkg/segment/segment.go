// Package segment turns a per-window speech probability sequence into speech
// segments expressed as sample offsets.
//
// The pipeline is split in two pure steps:
//
//	segs := segment.Detect(probs, params) // hysteresis state machine
//	segs = segment.Pad(segs, params.SpeechPad, params.TotalSamples)
//
// Neither step allocates state outside its return value, so both are safe to call
// from any number of goroutines on independent inputs.
package segment

import "fmt"

// Segment is a contiguous region of speech, in samples. Start is inclusive and End
// is exclusive.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of samples covered by the segment.
func (s Segment) Len() int {
	return s.End - s.Start
}

// Seconds converts the segment boundaries to seconds at the given sample rate.
func (s Segment) Seconds(sampleRate int) (start, end float64) {
	return float64(s.Start) / float64(sampleRate), float64(s.End) / float64(sampleRate)
}

func (s Segment) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}
