package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/realtime-ai/vadseg/pkg/baseline"
	"github.com/realtime-ai/vadseg/pkg/config"
	"github.com/realtime-ai/vadseg/pkg/segment"
	"github.com/realtime-ai/vadseg/pkg/speech"
	"github.com/realtime-ai/vadseg/pkg/trace"
)

// baselineDetector is the reference segmenter compare runs next to ours.
type baselineDetector interface {
	Timestamps(audio []float32) ([]segment.Segment, error)
	Close() error
}

// comparison is the JSON printed by the compare command.
type comparison struct {
	Input    string            `json:"input"`
	Ours     []segment.Segment `json:"ours"`
	Baseline []segment.Segment `json:"baseline"`
	Report   baseline.Report   `json:"report"`
}

func runCompare(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var inFmt string
	cfg, fs, err := loadConfig("compare", args, stderr, func(_ *config.Config, fs *flag.FlagSet) {
		fs.StringVar(&inFmt, "format", "", "input format: wav, pcm16, f32 or mulaw (default from extension)")
	})
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("compare: expected one input file, got %d", fs.NArg())
	}
	input := fs.Arg(0)

	shutdown, err := startTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	clip, err := readClip(input, inFmt)
	if err != nil {
		return err
	}

	defer releaseRuntime()
	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	seg, err := speech.NewSegmenter(src, cfg.Segment.Options())
	if err != nil {
		src.Close()
		return err
	}
	defer seg.Close()

	ours, err := seg.Timestamps(ctx, clip.Samples)
	if err != nil {
		return fmt.Errorf("segment %s: %w", input, err)
	}

	ref, err := newBaseline(cfg)
	if err != nil {
		return err
	}
	defer ref.Close()

	var theirs []segment.Segment
	err = trace.WithSpan(ctx, "baseline.timestamps", func(context.Context) error {
		var err error
		theirs, err = ref.Timestamps(clip.Samples)
		return err
	})
	if err != nil {
		return fmt.Errorf("baseline %s: %w", input, err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(comparison{
		Input:    input,
		Ours:     ours,
		Baseline: theirs,
		Report:   baseline.Compare(ours, theirs),
	})
}
