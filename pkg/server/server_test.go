package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/realtime-ai/vadseg/pkg/audio"
	"github.com/realtime-ai/vadseg/pkg/metrics"
	"github.com/realtime-ai/vadseg/pkg/speech"
	"github.com/realtime-ai/vadseg/pkg/trace"
	"github.com/realtime-ai/vadseg/pkg/vad"
)

// speechThenSilence scores five 1024-sample windows as speech, then five as silence.
var speechThenSilence = []float32{0.9, 0.9, 0.9, 0.9, 0.9, 0.1, 0.1, 0.1, 0.1, 0.1}

func newTestServer(t *testing.T, workers int) (*Server, *metrics.Metrics) {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger, _ := test.NewNullLogger()

	factory := func() (*speech.Segmenter, error) {
		return speech.NewSegmenter(vad.NewMockDetectorWithSequence(speechThenSilence), speech.DefaultOptions(),
			speech.WithMetrics(m), speech.WithLogger(logger))
	}
	pool, err := NewPool(workers, factory)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	defaults := speech.DefaultOptions()
	defaults.MinSilenceDurationMs = 200
	defaults.SpeechPadMs = 0

	s := New(Config{MaxBodyBytes: 1 << 20, Defaults: defaults}, pool, m, reg, logger)
	return s, m
}

func post(t *testing.T, h http.Handler, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTimestampsPCM16(t *testing.T) {
	s, m := newTestServer(t, 1)

	rec := post(t, s.Handler(), "/v1/timestamps?format=pcm16", make([]byte, 10240*2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp TimestampsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rec.Header().Get("X-Request-ID"), resp.ID)
	assert.Len(t, resp.ID, 36)
	assert.Equal(t, 16000, resp.SampleRate)
	assert.InDelta(t, 0.64, resp.DurationS, 1e-9)
	assert.Equal(t, []SegmentJSON{{Start: 0, End: 5120, StartS: 0, EndS: 0.32}}, resp.Segments)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/v1/timestamps", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClipsProcessed))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BusyWorkers))
}

func TestTimestampsWAV(t *testing.T) {
	s, _ := newTestServer(t, 1)

	var buf writeSeeker
	require.NoError(t, audio.EncodeWAV(&buf, make([]float32, 10240), 16000))

	rec := post(t, s.Handler(), "/v1/timestamps", buf.Bytes())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TimestampsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Segments, 1)
}

func TestTimestampsQueryOverrides(t *testing.T) {
	s, _ := newTestServer(t, 1)

	rec := post(t, s.Handler(), "/v1/timestamps?format=mulaw&speech_pad_ms=100", bytes.Repeat([]byte{0xFF}, 10240))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TimestampsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Segments, 1)
	assert.Equal(t, 6720, resp.Segments[0].End)
}

func TestTimestampsNoSpeech(t *testing.T) {
	s, _ := newTestServer(t, 1)

	// one window only: the first one is speech but far too short
	rec := post(t, s.Handler(), "/v1/timestamps?format=f32&min_speech_duration_ms=100", make([]byte, 1024*4))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[]`, extractSegments(t, rec.Body.Bytes()))
}

func TestTimestampsErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   []byte
		code   int
		want   string
	}{
		{"unknown format", "/v1/timestamps?format=ogg", []byte{1, 2}, http.StatusUnsupportedMediaType, "unsupported format"},
		{"odd pcm16", "/v1/timestamps?format=pcm16", []byte{1, 2, 3}, http.StatusUnsupportedMediaType, "odd length"},
		{"not a wav", "/v1/timestamps", []byte("hello"), http.StatusUnsupportedMediaType, "not a valid WAV"},
		{"bad threshold", "/v1/timestamps?format=pcm16&threshold=0.1", []byte{0, 0}, http.StatusBadRequest, "threshold"},
		{"bad integer", "/v1/timestamps?format=pcm16&window_size_samples=big", []byte{0, 0}, http.StatusBadRequest, "window_size_samples"},
		{"too large", "/v1/timestamps?format=pcm16", make([]byte, 2<<20), http.StatusRequestEntityTooLarge, "larger than"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, 1)
			rec := post(t, s.Handler(), tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, tt.want)
			assert.NotEmpty(t, resp.ID)
		})
	}
}

func TestTimestampsPoolClosed(t *testing.T) {
	s, _ := newTestServer(t, 1)
	require.NoError(t, s.pool.Close())

	rec := post(t, s.Handler(), "/v1/timestamps?format=pcm16", make([]byte, 2048))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTimestampsMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, 1)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/timestamps", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, 3)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","workers":3,"idle":3}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, 1)
	post(t, s.Handler(), "/v1/timestamps?format=pcm16", make([]byte, 10240*2))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vadseg_segments_total 1")
	assert.Contains(t, rec.Body.String(), `vadseg_http_requests_total{code="200",path="/v1/timestamps"} 1`)
}

func TestStartStop(t *testing.T) {
	s, _ := newTestServer(t, 1)
	s.config.Addr = "127.0.0.1:0"

	require.NoError(t, s.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))

	_, err := s.pool.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestNewTimestampsResponseEmpty(t *testing.T) {
	resp := NewTimestampsResponse("id", 0, nil)
	assert.NotNil(t, resp.Segments)
	assert.Equal(t, 0.0, resp.DurationS)
	assert.False(t, math.IsNaN(resp.DurationS))
}

func extractSegments(t *testing.T, body []byte) string {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &raw))
	return strings.TrimSpace(string(raw["segments"]))
}

// writeSeeker is an in-memory io.WriteSeeker for the WAV encoder.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = w.pos
	case io.SeekEnd:
		base = len(w.buf)
	}
	w.pos = base + int(offset)
	return int64(w.pos), nil
}

func (w *writeSeeker) Bytes() []byte { return w.buf }

func TestRejectedRequestSpanAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		tp.Shutdown(context.Background())
	})

	s, _ := newTestServer(t, 1)
	resp := post(t, s.Handler(), "/v1/timestamps?format=ogg", []byte{1, 2})
	require.Equal(t, http.StatusUnsupportedMediaType, resp.Code)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "http.timestamps", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(),
		attribute.String(trace.AttrErrorType, http.StatusText(http.StatusUnsupportedMediaType)))
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)

	w := brokenWriter{httptest.NewRecorder()}
	writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.DebugLevel, hook.LastEntry().Level)
	assert.Equal(t, "write response", hook.LastEntry().Message)
	assert.ErrorIs(t, hook.LastEntry().Data[log.ErrorKey].(error), io.ErrClosedPipe)
}
