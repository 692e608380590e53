// Package config loads the vadseg settings.
//
// Values are layered, each source overriding the previous one: built-in
// defaults, an optional YAML file, a .env file, VADSEG_* environment variables
// and finally command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/realtime-ai/vadseg/pkg/speech"
	"github.com/realtime-ai/vadseg/pkg/trace"
)

// EnvPrefix prefixes every environment variable, e.g. VADSEG_VAD_MODEL_PATH.
// Field names map to upper snake case under their section.
const EnvPrefix = "VADSEG"

type Config struct {
	VAD     VADConfig     `yaml:"vad" split_words:"true"`
	Segment SegmentConfig `yaml:"segment" split_words:"true"`
	Server  ServerConfig  `yaml:"server" split_words:"true"`
	Trace   TraceConfig   `yaml:"trace" split_words:"true"`
	Log     LogConfig     `yaml:"log" split_words:"true"`
}

type VADConfig struct {
	ModelPath    string `yaml:"model_path" split_words:"true"`
	ModelVersion string `yaml:"model_version" split_words:"true"` // v4 or v5
	// ONNXLibPath is the onnxruntime shared library; empty means search the
	// usual locations.
	ONNXLibPath string `yaml:"onnx_lib_path" split_words:"true"`
}

type SegmentConfig struct {
	Threshold            float32 `yaml:"threshold" split_words:"true"`
	MinSpeechDurationMs  int     `yaml:"min_speech_duration_ms" split_words:"true"`
	MaxSpeechDurationS   float64 `yaml:"max_speech_duration_s" split_words:"true"`
	MinSilenceDurationMs int     `yaml:"min_silence_duration_ms" split_words:"true"`
	WindowSizeSamples    int     `yaml:"window_size_samples" split_words:"true"`
	SpeechPadMs          int     `yaml:"speech_pad_ms" split_words:"true"`
}

type ServerConfig struct {
	Addr         string `yaml:"addr" split_words:"true"`
	Workers      int    `yaml:"workers" split_words:"true"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" split_words:"true"`
}

type TraceConfig struct {
	Exporter     string  `yaml:"exporter" split_words:"true"` // none, stdout or otlp
	Endpoint     string  `yaml:"endpoint" split_words:"true"`
	SamplingRate float64 `yaml:"sampling_rate" split_words:"true"`
	Environment  string  `yaml:"environment" split_words:"true"`
}

type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"` // text or json
}

// Default returns the built-in settings.
func Default() *Config {
	opts := speech.DefaultOptions()
	return &Config{
		VAD: VADConfig{
			ModelPath:    "models/silero_vad.onnx",
			ModelVersion: "v5",
		},
		Segment: SegmentConfig{
			Threshold:            opts.Threshold,
			MinSpeechDurationMs:  opts.MinSpeechDurationMs,
			MaxSpeechDurationS:   opts.MaxSpeechDurationS,
			MinSilenceDurationMs: opts.MinSilenceDurationMs,
			WindowSizeSamples:    opts.WindowSizeSamples,
			SpeechPadMs:          opts.SpeechPadMs,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			Workers:      2,
			MaxBodyBytes: 64 << 20,
		},
		Trace: TraceConfig{
			Exporter:     trace.ExporterNone,
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "development",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), the .env file at envFile (a missing file is ignored) and
// the environment. Flags are applied separately with BindFlags.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()

		if err := cfg.decodeYAML(f); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables that are already set
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %q: %w", envFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r on top of the defaults. Useful in tests.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decodeYAML(r); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// Options converts the segment section.
func (c SegmentConfig) Options() speech.Options {
	return speech.Options{
		Threshold:            c.Threshold,
		MinSpeechDurationMs:  c.MinSpeechDurationMs,
		MaxSpeechDurationS:   c.MaxSpeechDurationS,
		MinSilenceDurationMs: c.MinSilenceDurationMs,
		WindowSizeSamples:    c.WindowSizeSamples,
		SpeechPadMs:          c.SpeechPadMs,
	}
}

// TraceConfig converts the trace section.
func (c *Config) TraceConfig(serviceVersion string) *trace.Config {
	return &trace.Config{
		ServiceName:    "vadseg",
		ServiceVersion: serviceVersion,
		Environment:    c.Trace.Environment,
		Exporter:       c.Trace.Exporter,
		Endpoint:       c.Trace.Endpoint,
		SamplingRate:   c.Trace.SamplingRate,
	}
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.VAD.ModelVersion {
	case "v4", "v5":
	default:
		errs = append(errs, fmt.Errorf("vad.model_version %q is invalid; valid values: v4, v5", c.VAD.ModelVersion))
	}
	if c.VAD.ModelPath == "" {
		errs = append(errs, errors.New("vad.model_path is required"))
	}

	if err := c.Segment.Options().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("segment: %w", err))
	}

	if c.Server.Workers < 1 {
		errs = append(errs, fmt.Errorf("server.workers %d must be at least 1", c.Server.Workers))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes %d must be positive", c.Server.MaxBodyBytes))
	}

	switch c.Trace.Exporter {
	case "", trace.ExporterNone, trace.ExporterStdout, trace.ExporterOTLP:
	default:
		errs = append(errs, fmt.Errorf("trace.exporter %q is invalid; valid values: none, stdout, otlp", c.Trace.Exporter))
	}
	if c.Trace.SamplingRate < 0 || c.Trace.SamplingRate > 1 {
		errs = append(errs, fmt.Errorf("trace.sampling_rate %v must be in [0, 1]", c.Trace.SamplingRate))
	}

	if err := c.Log.validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
