package config

import (
	"flag"
	"strconv"
	"strings"
)

// BindFlags defines flags for the commonly tuned settings on fs, using the
// current values of c as defaults. Parsing fs writes straight into c, so call
// it after Load.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.VAD.ModelPath, "model", c.VAD.ModelPath, "path to the Silero VAD ONNX model")
	fs.StringVar(&c.VAD.ModelVersion, "model-version", c.VAD.ModelVersion, "model layout: v4 or v5")
	fs.StringVar(&c.VAD.ONNXLibPath, "onnx-lib", c.VAD.ONNXLibPath, "path to the onnxruntime shared library")

	fs.Var((*float32Value)(&c.Segment.Threshold), "threshold", "speech probability threshold")
	fs.IntVar(&c.Segment.MinSpeechDurationMs, "min-speech-ms", c.Segment.MinSpeechDurationMs, "drop segments not longer than this")
	fs.Float64Var(&c.Segment.MaxSpeechDurationS, "max-speech-s", c.Segment.MaxSpeechDurationS, "split segments longer than this (inf disables)")
	fs.IntVar(&c.Segment.MinSilenceDurationMs, "min-silence-ms", c.Segment.MinSilenceDurationMs, "silence needed to end a segment")
	fs.IntVar(&c.Segment.WindowSizeSamples, "window", c.Segment.WindowSizeSamples, "samples per model window (512, 1024 or 1536)")
	fs.IntVar(&c.Segment.SpeechPadMs, "pad-ms", c.Segment.SpeechPadMs, "padding added on each side of a segment")

	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log format: text or json")
	fs.StringVar(&c.Trace.Exporter, "trace", c.Trace.Exporter, "trace exporter: none, stdout or otlp")
}

// BindServerFlags defines the flags only the HTTP server uses.
func (c *Config) BindServerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Server.Addr, "addr", c.Server.Addr, "listen address")
	fs.IntVar(&c.Server.Workers, "workers", c.Server.Workers, "number of models loaded, i.e. concurrent requests")
	fs.Int64Var(&c.Server.MaxBodyBytes, "max-body", c.Server.MaxBodyBytes, "largest accepted request body in bytes")
}

// LookupFlag finds the value of flag name in args without parsing the rest,
// so that -config can be read before the flags it provides defaults for are
// defined. Both -name value and -name=value forms are recognized.
func LookupFlag(args []string, name string) (string, bool) {
	for i, a := range args {
		if a == "--" {
			break
		}
		if !strings.HasPrefix(a, "-") {
			continue
		}
		n, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if n != name {
			continue
		}
		if hasValue {
			return value, true
		}
		if i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

type float32Value float32

func (f *float32Value) Set(s string) error {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return err
	}
	*f = float32Value(v)
	return nil
}

func (f *float32Value) String() string {
	if f == nil {
		return "0"
	}
	return strconv.FormatFloat(float64(*f), 'g', -1, 32)
}
