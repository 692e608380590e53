package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/realtime-ai/vadseg/pkg/audio"
	"github.com/realtime-ai/vadseg/pkg/config"
	"github.com/realtime-ai/vadseg/pkg/segment"
	"github.com/realtime-ai/vadseg/pkg/server"
	"github.com/realtime-ai/vadseg/pkg/speech"
	"github.com/realtime-ai/vadseg/pkg/trace"
)

type detectFlags struct {
	output  string
	speech  string
	outFmt  string
	inFmt   string
	precise int
	mapped  bool
}

func runDetect(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var df detectFlags
	cfg, fs, err := loadConfig("detect", args, stderr, func(_ *config.Config, fs *flag.FlagSet) {
		fs.StringVar(&df.output, "o", "text", "output: text or json")
		fs.StringVar(&df.speech, "out", "", "write the speech-only audio to this file")
		fs.StringVar(&df.outFmt, "out-format", "", "format of -out: wav, pcm16, f32 or mulaw (default from extension)")
		fs.BoolVar(&df.mapped, "map", false, "text output also prints each segment's span in the speech-only audio")
		fs.StringVar(&df.inFmt, "format", "", "input format: wav, pcm16, f32 or mulaw (default from extension)")
		fs.IntVar(&df.precise, "precision", segment.DefaultTimePrecision, "decimals of the times printed in text output")
	})
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("detect: expected one input file, got %d", fs.NArg())
	}

	shutdown, err := startTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

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

	return detect(ctx, seg, fs.Arg(0), df, stdout)
}

func detect(ctx context.Context, seg *speech.Segmenter, input string, df detectFlags, stdout io.Writer) error {
	id := uuid.NewString()
	ctx, span := trace.InstrumentRequest(ctx, "cli.detect", id)
	defer span.End()

	clip, err := readClip(input, df.inFmt)
	if err != nil {
		return err
	}

	segs, samples, err := seg.Speech(ctx, clip.Samples)
	if err != nil {
		return fmt.Errorf("segment %s: %w", input, err)
	}
	log.WithFields(log.Fields{
		"run_id":   id,
		"input":    input,
		"segments": len(segs),
		"speech_s": segment.Duration(segs, speech.SampleRate),
	}).Info("detected speech")

	if df.speech != "" {
		if err := writeSpeech(df.speech, df.outFmt, samples); err != nil {
			return err
		}
	}

	switch df.output {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(server.NewTimestampsResponse(id, len(clip.Samples), segs))
	case "text", "":
		if df.mapped {
			return writeMap(stdout, segs, df.precise)
		}
		return writeText(stdout, segs, df.precise)
	default:
		return fmt.Errorf("unknown output %q", df.output)
	}
}

// readClip decodes input, guessing the format from the extension when none is given.
func readClip(input, format string) (audio.Clip, error) {
	f, err := pickFormat(input, format)
	if err != nil {
		return audio.Clip{}, err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("read input: %w", err)
	}
	clip, err := audio.Decode(f, data, speech.SampleRate)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("decode %s: %w", input, err)
	}
	return clip, nil
}

func pickFormat(path, name string) (audio.Format, error) {
	if name == "" {
		return audio.FormatForPath(path), nil
	}
	return audio.ParseFormat(name)
}

func writeSpeech(path, format string, samples []float32) (err error) {
	f, err := pickFormat(path, format)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	return audio.Encode(out, f, samples, speech.SampleRate)
}

// writeText prints one "start end" line per segment, in seconds.
func writeText(w io.Writer, segs []segment.Segment, precision int) error {
	for _, s := range segs {
		start, end := s.Seconds(speech.SampleRate)
		if _, err := fmt.Fprintf(w, "%.*f\t%.*f\n", precision, start, precision, end); err != nil {
			return err
		}
	}
	return nil
}

// writeMap prints, per segment, where it lies in the speech-only audio followed
// by the original times recovered from that position.
func writeMap(w io.Writer, segs []segment.Segment, precision int) error {
	m := segment.NewTimestampMap(segs, speech.SampleRate, precision)
	offset := 0
	for i, s := range segs {
		start := float64(offset) / speech.SampleRate
		offset += s.Len()
		end := float64(offset) / speech.SampleRate

		if _, err := fmt.Fprintf(w, "%.*f\t%.*f\t%.*f\t%.*f\n",
			precision, start, precision, end,
			precision, m.OriginalTimeInChunk(start, i), precision, m.OriginalTimeInChunk(end, i)); err != nil {
			return err
		}
	}
	return nil
}
