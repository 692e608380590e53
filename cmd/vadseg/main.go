// Command vadseg finds the speech in audio files with a Silero VAD model.
//
// Usage:
//
//	vadseg detect [flags] input.wav     print speech segments
//	vadseg serve [flags]                run the HTTP service
//	vadseg compare [flags] input.wav    compare against silero-vad-go
//
// Every command accepts -config file.yaml and -env file. Settings are read
// from defaults, the YAML file, the .env file, VADSEG_* variables and flags,
// in that order. Model inference needs a binary built with -tags vad.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/realtime-ai/vadseg/pkg/config"
	"github.com/realtime-ai/vadseg/pkg/trace"
)

var version = "dev"

const usage = `usage: vadseg <command> [flags]

commands:
  detect   print the speech segments of an audio file
  serve    run the HTTP segmentation service
  compare  compare segments with the silero-vad-go detector
  version  print the version

run "vadseg <command> -h" for the flags of a command
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "detect":
		return runDetect(ctx, args, stdout, stderr)
	case "serve":
		return runServe(ctx, args, stderr)
	case "compare":
		return runCompare(ctx, args, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, version)
		return nil
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// loadConfig loads the layered configuration, binds its flags on a new flag
// set for cmd and parses args. bind adds command-specific flags.
func loadConfig(cmd string, args []string, stderr io.Writer, bind func(*config.Config, *flag.FlagSet)) (*config.Config, *flag.FlagSet, error) {
	envFile := ".env"
	if v, ok := config.LookupFlag(args, "env"); ok {
		envFile = v
	}
	configPath, _ := config.LookupFlag(args, "config")

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, nil, err
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("config", "", "YAML configuration file")
	fs.String("env", envFile, ".env file; a missing file is ignored")
	cfg.BindFlags(fs)
	if bind != nil {
		bind(cfg, fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	if err := cfg.Log.Apply(log.StandardLogger()); err != nil {
		return nil, nil, err
	}
	return cfg, fs, nil
}

// startTracing initializes the tracer and returns the matching shutdown.
func startTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	if err := trace.Initialize(ctx, cfg.TraceConfig(version)); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return func() {
		if err := trace.Shutdown(context.Background()); err != nil {
			log.Printf("Failed to shutdown tracing: %v", err)
		}
	}, nil
}
