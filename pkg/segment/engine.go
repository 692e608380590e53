package segment

// Detect walks the probability sequence once and returns the raw speech segments,
// before padding. probs[i] covers samples [i*WindowSize, (i+1)*WindowSize).
//
// The scan is a hysteresis state machine: a window at or above Threshold opens a
// segment, and only a run of windows below NegThreshold lasting MinSilence samples
// closes it. Segments growing past MaxSpeech are split, preferring the last silence
// longer than MinSilenceAtMaxSpeech and cutting at the current window otherwise.
// Segments not longer than MinSpeech are dropped, except for a trailing segment
// still open at the end of the clip, which is closed at TotalSamples if its tail is
// longer than MinSpeech. That holds for a segment starting at sample 0 too.
func Detect(probs []float32, p Params) []Segment {
	var (
		segs      []Segment
		current   Segment
		triggered bool

		// tempEnd marks where the current silence started, prevEnd the last
		// silence long enough to split on and nextStart where speech resumed
		// after it. Zero means unset.
		tempEnd   int
		prevEnd   int
		nextStart int
	)

	for i, prob := range probs {
		off := i * p.WindowSize
		speech := float64(prob) >= p.Threshold

		if speech && tempEnd != 0 {
			tempEnd = 0
			if nextStart < prevEnd {
				nextStart = off
			}
		}

		if speech && !triggered {
			triggered = true
			current = Segment{Start: off}
			continue
		}

		if triggered && float64(off-current.Start) > p.MaxSpeech {
			if prevEnd > 0 {
				current.End = prevEnd
				segs = append(segs, current)
				if nextStart < prevEnd {
					// still silent since prevEnd
					triggered = false
				} else {
					current = Segment{Start: nextStart}
				}
				prevEnd, nextStart, tempEnd = 0, 0, 0
			} else {
				current.End = off
				segs = append(segs, current)
				prevEnd, nextStart, tempEnd = 0, 0, 0
				triggered = false
				continue
			}
		}

		if triggered && float64(prob) < p.NegThreshold {
			if tempEnd == 0 {
				tempEnd = off
			}
			if off-tempEnd > p.MinSilenceAtMaxSpeech {
				prevEnd = tempEnd
			}
			if off-tempEnd >= p.MinSilence {
				current.End = tempEnd
				if current.Len() > p.MinSpeech {
					segs = append(segs, current)
				}
				prevEnd, nextStart, tempEnd = 0, 0, 0
				triggered = false
			}
		}
	}

	if triggered && p.TotalSamples-current.Start > p.MinSpeech {
		current.End = p.TotalSamples
		segs = append(segs, current)
	}

	return segs
}
