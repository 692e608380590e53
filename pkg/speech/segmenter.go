package speech

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/realtime-ai/vadseg/pkg/metrics"
	"github.com/realtime-ai/vadseg/pkg/segment"
	"github.com/realtime-ai/vadseg/pkg/vad"
)

// Segmenter owns a vad.Source for its whole lifetime and segments clips with
// it, one at a time. Close releases the source; after that, segmenting a
// non-empty clip fails with vad.ErrClosed.
//
// A Segmenter is not safe for concurrent use.
type Segmenter struct {
	src     vad.Source
	opts    Options
	logger  log.FieldLogger
	metrics *metrics.Metrics

	closeOnce sync.Once
	closeErr  error
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(logger log.FieldLogger) SegmenterOption {
	return func(s *Segmenter) { s.logger = logger }
}

// WithMetrics makes the Segmenter report to m.
func WithMetrics(m *metrics.Metrics) SegmenterOption {
	return func(s *Segmenter) { s.metrics = m }
}

// NewSegmenter takes ownership of src.
func NewSegmenter(src vad.Source, opts Options, options ...SegmenterOption) (*Segmenter, error) {
	if src == nil {
		return nil, ErrNoSource
	}

	s := &Segmenter{
		src:    src,
		opts:   opts,
		logger: log.StandardLogger(),
	}
	for _, o := range options {
		o(s)
	}

	warnWindowSize(s.logger, opts.WindowSizeSamples)
	return s, nil
}

// Options returns the options the Segmenter was created with.
func (s *Segmenter) Options() Options {
	return s.opts
}

// Timestamps segments audio with the Segmenter's options.
func (s *Segmenter) Timestamps(ctx context.Context, audio []float32) ([]segment.Segment, error) {
	return s.TimestampsWith(ctx, audio, s.opts)
}

// TimestampsWith segments audio with opts instead of the Segmenter's options.
func (s *Segmenter) TimestampsWith(ctx context.Context, audio []float32, opts Options) ([]segment.Segment, error) {
	if opts.WindowSizeSamples != s.opts.WindowSizeSamples {
		warnWindowSize(s.logger, opts.WindowSizeSamples)
	}
	return timestamps(ctx, s.src, audio, opts, s.logger, s.metrics)
}

// Speech returns the segments of audio along with the samples they cover,
// concatenated in order.
func (s *Segmenter) Speech(ctx context.Context, audio []float32) ([]segment.Segment, []float32, error) {
	segs, err := s.Timestamps(ctx, audio)
	if err != nil {
		return nil, nil, err
	}
	return segs, segment.CollectSamples(audio, segs), nil
}

// Close releases the source. Only the first call does any work; later calls
// return the same result.
func (s *Segmenter) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.src.Close()
	})
	return s.closeErr
}
