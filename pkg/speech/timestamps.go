package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/realtime-ai/vadseg/pkg/metrics"
	"github.com/realtime-ai/vadseg/pkg/segment"
	"github.com/realtime-ai/vadseg/pkg/trace"
	"github.com/realtime-ai/vadseg/pkg/vad"
)

// ErrNoSource is returned when no vad.Source is given.
var ErrNoSource = errors.New("speech: no vad source")

// Timestamps returns the padded speech segments of audio, a mono clip sampled
// at SampleRate with samples in [-1, 1]. Segment bounds are sample offsets.
// Empty audio yields no segments and no error.
func Timestamps(ctx context.Context, src vad.Source, audio []float32, opts Options) ([]segment.Segment, error) {
	if src == nil {
		return nil, ErrNoSource
	}
	warnWindowSize(log.StandardLogger(), opts.WindowSizeSamples)
	return timestamps(ctx, src, audio, opts, log.StandardLogger(), nil)
}

func timestamps(ctx context.Context, src vad.Source, audio []float32, opts Options, logger log.FieldLogger, m *metrics.Metrics) ([]segment.Segment, error) {
	if len(audio) == 0 {
		return nil, nil
	}

	windows := 0
	if opts.WindowSizeSamples > 0 {
		windows = (len(audio) + opts.WindowSizeSamples - 1) / opts.WindowSizeSamples
	}

	inferCtx, span := trace.InstrumentInference(ctx, opts.WindowSizeSamples, windows, opts.Threshold)
	start := time.Now()
	probs, err := vad.Probabilities(inferCtx, src, audio, opts.WindowSizeSamples)
	m.ObserveInference(time.Since(start), err)
	if err != nil {
		trace.RecordError(span, err)
		span.End()
		return nil, fmt.Errorf("speech: scoring audio: %w", err)
	}
	span.End()

	_, span = trace.InstrumentSegmentation(ctx, len(probs))
	defer span.End()

	p := opts.Params(len(audio))
	segs := segment.Pad(segment.Detect(probs, p), p.SpeechPad, len(audio))

	speechSeconds := segment.Duration(segs, SampleRate)
	span.SetAttributes(trace.SegmentAttrs(len(segs), speechSeconds)...)
	if len(segs) == 0 {
		trace.AddEvent(span, "no_speech", attribute.Float64(trace.AttrVADThreshold, float64(opts.Threshold)))
	}
	m.ObserveClip(len(probs), len(segs), float64(len(audio))/SampleRate, speechSeconds)

	trace.Logger(ctx, logger).WithFields(log.Fields{
		"samples":  len(audio),
		"windows":  len(probs),
		"segments": len(segs),
	}).Debug("segmented clip")

	return segs, nil
}
