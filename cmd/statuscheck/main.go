// SPDX-License-Identifier: MIT

// Command statuscheck annotates a video link list with online/offline status.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/videolinks/statuscheck/internal/config"
	"github.com/videolinks/statuscheck/internal/jobs"
	xglog "github.com/videolinks/statuscheck/internal/log"
	"github.com/videolinks/statuscheck/internal/telemetry"
	"github.com/videolinks/statuscheck/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("statuscheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "path to config file (YAML)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	// Safe defaults until config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Output:  stderr,
		Version: version.Version,
	})
	logger := xglog.WithComponent("main")

	cfg, err := config.NewLoader(strings.TrimSpace(*configPath), version.Version).Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str(xglog.FieldPath, *configPath).
			Msg("failed to load configuration")
		return 1
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  stderr,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("main")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "statuscheck",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "telemetry.init_failed").Msg("failed to initialise tracing")
		return 1
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "telemetry.shutdown_failed").Msg("failed to flush traces")
		}
	}()

	ctx = xglog.ContextWithRunID(ctx, uuid.NewString())
	logger = xglog.WithContext(ctx, logger)

	st, err := jobs.Run(ctx, cfg)
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "run.failed").
			Str(xglog.FieldPath, cfg.LinksPath).
			Msg("status check failed")
		return 1
	}

	logger.Debug().
		Str(xglog.FieldEvent, "run.finished").
		Int("online", st.Online).
		Int("offline", st.Offline).
		Bool("written", st.Written).
		Dur("duration", st.Duration).
		Msg("status check finished")
	return 0
}
