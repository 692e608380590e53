package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/realtime-ai/vadseg/pkg/audio"
	"github.com/realtime-ai/vadseg/pkg/segment"
	"github.com/realtime-ai/vadseg/pkg/speech"
	"github.com/realtime-ai/vadseg/pkg/trace"
)

// SegmentJSON is one speech segment in a response.
type SegmentJSON struct {
	Start  int     `json:"start"`
	End    int     `json:"end"`
	StartS float64 `json:"start_s"`
	EndS   float64 `json:"end_s"`
}

// TimestampsResponse is the body of a successful POST /v1/timestamps.
type TimestampsResponse struct {
	ID         string        `json:"id"`
	SampleRate int           `json:"sample_rate"`
	DurationS  float64       `json:"duration_s"`
	Segments   []SegmentJSON `json:"segments"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// NewTimestampsResponse converts segments of a clip of samples samples.
func NewTimestampsResponse(id string, samples int, segs []segment.Segment) TimestampsResponse {
	resp := TimestampsResponse{
		ID:         id,
		SampleRate: speech.SampleRate,
		DurationS:  float64(samples) / speech.SampleRate,
		Segments:   make([]SegmentJSON, 0, len(segs)),
	}
	for _, sg := range segs {
		start, end := sg.Seconds(speech.SampleRate)
		resp.Segments = append(resp.Segments, SegmentJSON{
			Start:  sg.Start,
			End:    sg.End,
			StartS: start,
			EndS:   end,
		})
	}
	return resp
}

func (s *Server) handleTimestamps(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	w.Header().Set("X-Request-ID", id)

	ctx, span := trace.InstrumentRequest(r.Context(), "http.timestamps", id)
	defer span.End()
	logger := trace.Logger(ctx, s.logger).WithField("request_id", id)

	fail := func(code int, err error) {
		span.SetAttributes(trace.ErrorAttrs(http.StatusText(code), err.Error())...)
		if code >= http.StatusInternalServerError {
			trace.RecordError(span, err)
			logger.WithError(err).Error("request failed")
		} else {
			logger.WithError(err).Debug("request rejected")
		}
		writeJSON(w, logger, code, ErrorResponse{ID: id, Error: err.Error()})
	}

	query := r.URL.Query()
	format, err := audio.ParseFormat(query.Get("format"))
	if err != nil {
		fail(http.StatusUnsupportedMediaType, err)
		return
	}
	opts, err := parseOptions(query, s.config.Defaults)
	if err != nil {
		fail(http.StatusBadRequest, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(http.StatusRequestEntityTooLarge, fmt.Errorf("body larger than %d bytes", tooLarge.Limit))
			return
		}
		fail(http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}

	_, decodeSpan := trace.InstrumentDecode(ctx, string(format), len(body))
	clip, err := audio.Decode(format, body, speech.SampleRate)
	decodeSpan.End()
	if err != nil {
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			fail(http.StatusUnsupportedMediaType, err)
		} else {
			fail(http.StatusBadRequest, err)
		}
		return
	}
	span.SetAttributes(trace.AudioAttrs(clip.SampleRate, len(clip.Samples), string(format))...)

	seg, err := s.pool.Acquire(ctx)
	if err != nil {
		fail(http.StatusServiceUnavailable, fmt.Errorf("no segmenter available: %w", err))
		return
	}
	if s.metrics != nil {
		s.metrics.BusyWorkers.Inc()
	}
	segs, err := seg.TimestampsWith(ctx, clip.Samples, opts)
	if s.metrics != nil {
		s.metrics.BusyWorkers.Dec()
	}
	s.pool.Release(seg)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// client went away, nobody is listening
			logger.Debug("request cancelled")
			return
		}
		fail(http.StatusInternalServerError, err)
		return
	}

	logger.WithFields(log.Fields{
		"format":   format,
		"samples":  len(clip.Samples),
		"segments": len(segs),
	}).Info("segmented")
	writeJSON(w, logger, http.StatusOK, NewTimestampsResponse(id, len(clip.Samples), segs))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]any{
		"status":  "ok",
		"workers": s.pool.Size(),
		"idle":    s.pool.Idle(),
	})
}

// parseOptions overrides defaults with the query parameters that are set.
func parseOptions(q url.Values, defaults speech.Options) (speech.Options, error) {
	opts := defaults
	var errs []error

	parseInt := func(key string, dst *int) {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}

	if v := q.Get("threshold"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			errs = append(errs, fmt.Errorf("threshold: %q is not a number", v))
		} else {
			opts.Threshold = float32(f)
		}
	}
	if v := q.Get("max_speech_duration_s"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("max_speech_duration_s: %q is not a number", v))
		} else {
			opts.MaxSpeechDurationS = f
		}
	}
	parseInt("min_speech_duration_ms", &opts.MinSpeechDurationMs)
	parseInt("min_silence_duration_ms", &opts.MinSilenceDurationMs)
	parseInt("window_size_samples", &opts.WindowSizeSamples)
	parseInt("speech_pad_ms", &opts.SpeechPadMs)

	if err := errors.Join(errs...); err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}

// writeJSON sends v with status code. Encode errors are logged at debug level.
func writeJSON(w http.ResponseWriter, logger log.FieldLogger, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Debug("write response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency for path.
func (s *Server) instrument(path string, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.HTTPRequests.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	})
}
