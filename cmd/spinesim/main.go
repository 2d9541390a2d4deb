// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command spinesim sweeps every select code over a chain of row units,
// checks exclusivity, and compares the gate-level chain against the
// reference model.
//
//	spinesim -config spine.toml -listen :9090
//
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/db47h/spinesim/internal/config"
	"github.com/db47h/spinesim/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "spine description `file` (TOML); defaults apply when empty")
		logLevel   = flag.String("log-level", "info", "log `level`")
		listen     = flag.String("listen", "", "serve prometheus metrics on `addr` after the sweep")
		gate       = flag.Bool("gate", true, "compare the gate-level chain against the reference model")
	)
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := observability.InitLogger("spinesim", level)
	observability.RegisterMetrics()

	spine := config.Default()
	if *configPath != "" {
		if spine, err = config.Load(*configPath); err != nil {
			log.Fatal().Err(err).Msg("failed to load spine config")
		}
		log.Info().Str("path", *configPath).Msg("loaded spine config")
	}

	start := time.Now()
	sum, err := sweep(spine, *gate, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("sweep failed")
	}
	log.Info().
		Int("codes", sum.Codes).
		Int("driven", sum.Driven).
		Int("floating", sum.Floating).
		Int("contentions", sum.Contentions).
		Int("violations", sum.Violations).
		Int("mismatches", sum.Mismatches).
		Interface("max_settle_steps", sum.MaxSteps).
		Dur("elapsed", time.Since(start)).
		Msg("sweep done")

	if *listen != "" {
		serveMetrics(*listen)
	}
	if !sum.OK() {
		os.Exit(1)
	}
}

func serveMetrics(addr string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
