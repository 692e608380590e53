//go:build !vad

package main

import (
	"errors"

	"github.com/realtime-ai/vadseg/pkg/config"
	"github.com/realtime-ai/vadseg/pkg/vad"
)

var errNoModel = errors.New("model inference is not available: rebuild with -tags vad")

func newSource(*config.Config) (vad.Source, error) {
	return nil, errNoModel
}

func newBaseline(*config.Config) (baselineDetector, error) {
	return nil, errNoModel
}

func releaseRuntime() {}
