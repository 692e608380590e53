package segment

import (
	"math"
	"sort"
)

// DefaultTimePrecision is the number of decimals OriginalTime rounds to.
const DefaultTimePrecision = 2

// TimestampMap maps times measured on audio that had its silences cut out (for
// instance by concatenating CollectSamples output) back to the untrimmed audio.
// It is built from the chunks that were kept, in original-audio samples.
type TimestampMap struct {
	SampleRate    int
	TimePrecision int

	// ChunkEndSample[i] is where chunk i ends in the trimmed stream.
	ChunkEndSample []int
	// TotalSilenceBefore[i] is the silence removed before chunk i, in whole
	// seconds.
	TotalSilenceBefore []int
}

// NewTimestampMap builds the lookup table in a single pass over chunks, which must
// be ordered and non-overlapping. A timePrecision below zero selects
// DefaultTimePrecision.
func NewTimestampMap(chunks []Segment, sampleRate, timePrecision int) *TimestampMap {
	if timePrecision < 0 {
		timePrecision = DefaultTimePrecision
	}

	m := &TimestampMap{
		SampleRate:         sampleRate,
		TimePrecision:      timePrecision,
		ChunkEndSample:     make([]int, 0, len(chunks)),
		TotalSilenceBefore: make([]int, 0, len(chunks)),
	}

	previousEnd := 0
	silentSamples := 0
	for _, c := range chunks {
		silentSamples += c.Start - previousEnd
		previousEnd = c.End
		m.ChunkEndSample = append(m.ChunkEndSample, c.End-silentSamples)
		m.TotalSilenceBefore = append(m.TotalSilenceBefore, silentSamples/sampleRate)
	}
	return m
}

// ChunkIndex returns the chunk a trimmed-stream time t (seconds) falls into. When
// isEnd is set and t lands exactly on a chunk end, that chunk is returned rather
// than the following one. It returns -1 for an empty map.
func (m *TimestampMap) ChunkIndex(t float64, isEnd bool) int {
	if len(m.ChunkEndSample) == 0 {
		return -1
	}

	sample := int(t * float64(m.SampleRate))
	idx := sort.Search(len(m.ChunkEndSample), func(i int) bool {
		return m.ChunkEndSample[i] > sample
	})
	if isEnd && idx > 0 && m.ChunkEndSample[idx-1] == sample {
		return idx - 1
	}
	return min(idx, len(m.ChunkEndSample)-1)
}

// OriginalTime converts a trimmed-stream time to the untrimmed stream.
func (m *TimestampMap) OriginalTime(t float64, isEnd bool) float64 {
	idx := m.ChunkIndex(t, isEnd)
	if idx < 0 {
		return m.round(t)
	}
	return m.OriginalTimeInChunk(t, idx)
}

// OriginalTimeInChunk is OriginalTime for callers that already know the chunk.
func (m *TimestampMap) OriginalTimeInChunk(t float64, chunk int) float64 {
	return m.round(float64(m.TotalSilenceBefore[chunk]) + t)
}

func (m *TimestampMap) round(v float64) float64 {
	scale := math.Pow(10, float64(m.TimePrecision))
	return math.Round(v*scale) / scale
}
