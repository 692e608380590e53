package segment

// Pad widens finalized segments by pad samples on each side, in place, and returns
// the same slice. When the silence between two segments is shorter than 2*pad it is
// shared evenly between them instead, so neighbours may touch but never overlap.
// Boundaries are clamped to [0, total].
//
// Pad looks ahead at the next segment, so it must only run once Detect has
// returned the complete list.
func Pad(segs []Segment, pad, total int) []Segment {
	for i := range segs {
		if i == 0 {
			segs[i].Start = max(0, segs[i].Start-pad)
		}

		if i == len(segs)-1 {
			segs[i].End = min(total, segs[i].End+pad)
			continue
		}

		gap := segs[i+1].Start - segs[i].End
		if gap < 2*pad {
			segs[i].End += gap / 2
			segs[i+1].Start = max(0, segs[i+1].Start-gap/2)
		} else {
			segs[i].End = min(total, segs[i].End+pad)
			segs[i+1].Start = max(0, segs[i+1].Start-pad)
		}
	}
	return segs
}
