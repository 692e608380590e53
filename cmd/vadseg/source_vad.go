//go:build vad

package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/realtime-ai/vadseg/pkg/baseline"
	"github.com/realtime-ai/vadseg/pkg/config"
	"github.com/realtime-ai/vadseg/pkg/speech"
	"github.com/realtime-ai/vadseg/pkg/vad"
)

// newSource loads the ONNX model described by cfg.
func newSource(cfg *config.Config) (vad.Source, error) {
	if err := vad.InitRuntime(cfg.VAD.ONNXLibPath); err != nil {
		return nil, err
	}

	version := vad.ModelV5
	if cfg.VAD.ModelVersion == "v4" {
		version = vad.ModelV4
	}

	d, err := vad.NewDetector(vad.DetectorConfig{
		ModelPath:  cfg.VAD.ModelPath,
		SampleRate: speech.SampleRate,
		Version:    version,
		WindowSize: cfg.Segment.WindowSizeSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create VAD detector: %w", err)
	}
	return d, nil
}

func newBaseline(cfg *config.Config) (baselineDetector, error) {
	return baseline.NewSilero(cfg.VAD.ModelPath, cfg.Segment.Options())
}

func releaseRuntime() {
	if err := vad.DestroyRuntime(); err != nil {
		log.Printf("Failed to destroy ONNX runtime: %v", err)
	}
}
