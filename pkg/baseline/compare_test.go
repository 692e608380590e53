package baseline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/realtime-ai/vadseg/pkg/segment"
)

func TestCompareIdentical(t *testing.T) {
	segs := []segment.Segment{{Start: 0, End: 100}, {Start: 200, End: 300}}

	r := Compare(segs, segs)
	assert.Equal(t, [2]int{2, 2}, r.Segments)
	assert.Equal(t, [2]int{200, 200}, r.SpeechSamples)
	assert.Equal(t, 200, r.Overlap)
	assert.Equal(t, 1.0, r.IoU)
	assert.Equal(t, 0.0, r.MeanBoundaryDelta)
}

func TestComparePartial(t *testing.T) {
	a := []segment.Segment{{Start: 0, End: 100}, {Start: 200, End: 300}}
	b := []segment.Segment{{Start: 50, End: 250}}

	r := Compare(a, b)
	// overlap 50 + 50, union 200 + 200 - 100
	assert.Equal(t, 100, r.Overlap)
	assert.InDelta(t, 100.0/300, r.IoU, 1e-12)
	// starts: |0-50| + |200-50|, ends: |100-250| + |300-250|
	assert.InDelta(t, (50.0+150+150+50)/4, r.MeanBoundaryDelta, 1e-12)
}

func TestCompareEmpty(t *testing.T) {
	r := Compare(nil, nil)
	assert.Equal(t, 1.0, r.IoU)
	assert.Equal(t, 0.0, r.MeanBoundaryDelta)

	r = Compare([]segment.Segment{{Start: 0, End: 10}}, nil)
	assert.Equal(t, 0.0, r.IoU)
}
