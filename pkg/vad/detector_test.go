//go:build vad

package vad

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getModelPath(t *testing.T) string {
	paths := []string{
		os.Getenv("VADSEG_MODEL_PATH"),
		"../../models/silero_vad.onnx",
		"models/silero_vad.onnx",
		"/tmp/silero_vad.onnx",
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		absPath, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return absPath
		}
	}

	t.Skip("silero_vad.onnx model not found, skipping test")
	return ""
}

func TestDetectorConfigIsValid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DetectorConfig
		wantErr bool
	}{
		{
			name:    "valid config 16kHz",
			cfg:     DetectorConfig{ModelPath: "/path/to/model.onnx", SampleRate: 16000},
			wantErr: false,
		},
		{
			name:    "valid config 8kHz v4",
			cfg:     DetectorConfig{ModelPath: "/path/to/model.onnx", SampleRate: 8000, Version: ModelV4},
			wantErr: false,
		},
		{
			name:    "empty model path",
			cfg:     DetectorConfig{SampleRate: 16000},
			wantErr: true,
		},
		{
			name:    "invalid sample rate",
			cfg:     DetectorConfig{ModelPath: "/path/to/model.onnx", SampleRate: 44100},
			wantErr: true,
		},
		{
			name:    "unknown version",
			cfg:     DetectorConfig{ModelPath: "/path/to/model.onnx", SampleRate: 16000, Version: 7},
			wantErr: true,
		},
		{
			name:    "negative window",
			cfg:     DetectorConfig{ModelPath: "/path/to/model.onnx", SampleRate: 16000, WindowSize: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.IsValid()
			if (err != nil) != tt.wantErr {
				t.Errorf("IsValid() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func newTestDetector(t *testing.T) *Detector {
	d, err := NewDetector(DetectorConfig{
		ModelPath:  getModelPath(t),
		SampleRate: 16000,
		WindowSize: 512,
	})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestDetectorInfer(t *testing.T) {
	d := newTestDetector(t)

	st := d.InitialState()
	prob, next, err := d.Infer(make([]float32, 512), st)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, prob, float32(0))
	assert.LessOrEqual(t, prob, float32(1))
	assert.Equal(t, 1, next.Steps())
	assert.Equal(t, 0, st.Steps(), "input state must not change")
}

func TestDetectorDeterministic(t *testing.T) {
	d := newTestDetector(t)

	samples := make([]float32, 512*8)
	for i := range samples {
		samples[i] = float32(0.5) * float32(i%36) / 18.0
		if i%36 >= 18 {
			samples[i] = float32(0.5) * float32(36-i%36) / 18.0
		}
	}

	first, err := Probabilities(context.Background(), d, samples, 512)
	require.NoError(t, err)
	second, err := Probabilities(context.Background(), d, samples, 512)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDetectorShortTail(t *testing.T) {
	d := newTestDetector(t)

	probs, err := Probabilities(context.Background(), d, make([]float32, 512+100), 512)
	require.NoError(t, err)
	assert.Len(t, probs, 2)
}

func TestDetectorClose(t *testing.T) {
	d := newTestDetector(t)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	_, _, err := d.Infer(make([]float32, 512), d.InitialState())
	assert.ErrorIs(t, err, ErrClosed)
}
