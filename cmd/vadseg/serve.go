package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/realtime-ai/vadseg/pkg/config"
	"github.com/realtime-ai/vadseg/pkg/metrics"
	"github.com/realtime-ai/vadseg/pkg/server"
	"github.com/realtime-ai/vadseg/pkg/speech"
)

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, _, err := loadConfig("serve", args, stderr, func(c *config.Config, fs *flag.FlagSet) {
		c.BindServerFlags(fs)
	})
	if err != nil {
		return err
	}

	shutdown, err := startTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdown()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	defer releaseRuntime()
	opts := cfg.Segment.Options()
	pool, err := server.NewPool(cfg.Server.Workers, func() (*speech.Segmenter, error) {
		src, err := newSource(cfg)
		if err != nil {
			return nil, err
		}
		return speech.NewSegmenter(src, opts, speech.WithMetrics(m))
	})
	if err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}

	srv := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Defaults:     opts,
	}, pool, m, reg, log.StandardLogger())

	if err := srv.Start(ctx); err != nil {
		pool.Close()
		return err
	}

	<-ctx.Done()
	log.Println("Shutting down...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(stopCtx)
}
