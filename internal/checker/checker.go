// SPDX-License-Identifier: MIT

// Package checker classifies list entries as online or offline.
//
// Entries are checked in fixed-size batches. Checks inside a batch run
// concurrently and the batch is awaited as a whole; a fixed pause separates
// consecutive batches. Every check is isolated: errors, timeouts and panics
// collapse to offline for that entry only.
package checker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/videolinks/statuscheck/internal/config"
	"github.com/videolinks/statuscheck/internal/links"
	xglog "github.com/videolinks/statuscheck/internal/log"
	"github.com/videolinks/statuscheck/internal/metrics"
	"github.com/videolinks/statuscheck/internal/platform/httpx"
	"github.com/videolinks/statuscheck/internal/probe"
	"github.com/videolinks/statuscheck/internal/telemetry"
)

// Config carries the run tunables.
type Config struct {
	BatchSize        int
	BatchDelay       time.Duration
	RequestTimeout   time.Duration
	MaxResponseBytes int64
	UserAgent        string
	TwitchBaseURL    string
	KickAPIBaseURL   string
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return ConfigFromApp(config.Defaults())
}

// ConfigFromApp extracts the checker tunables from the application config.
func ConfigFromApp(cfg config.AppConfig) Config {
	return Config{
		BatchSize:        cfg.BatchSize,
		BatchDelay:       cfg.BatchDelay,
		RequestTimeout:   cfg.RequestTimeout,
		MaxResponseBytes: cfg.MaxResponseBytes,
		UserAgent:        cfg.UserAgent,
		TwitchBaseURL:    cfg.TwitchBaseURL,
		KickAPIBaseURL:   cfg.KickAPIBaseURL,
	}
}

// PauseFunc waits d between batches or returns early with ctx's error.
type PauseFunc func(ctx context.Context, d time.Duration) error

// Checker runs status checks.
type Checker struct {
	cfg     Config
	client  *http.Client
	probers map[string]probe.Prober
	custom  []probe.Prober
	pause   PauseFunc
	tracer  trace.Tracer
}

// Option customises a Checker.
type Option func(*Checker)

// WithClient sets the HTTP client used by the built-in probers.
func WithClient(client *http.Client) Option {
	return func(c *Checker) { c.client = client }
}

// WithProber replaces the prober registered under p.Name().
func WithProber(p probe.Prober) Option {
	return func(c *Checker) { c.custom = append(c.custom, p) }
}

// WithPause replaces the inter-batch wait.
func WithPause(fn PauseFunc) Option {
	return func(c *Checker) { c.pause = fn }
}

// New creates a Checker. Non-positive batch size is treated as 1.
func New(cfg Config, opts ...Option) *Checker {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	c := &Checker{
		cfg:     cfg,
		probers: make(map[string]probe.Prober, 3),
		pause:   sleep,
		tracer:  telemetry.Tracer("statuscheck/checker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = httpx.NewClient(cfg.RequestTimeout)
	}
	po := probe.Options{Client: c.client, UserAgent: cfg.UserAgent, MaxBodyBytes: cfg.MaxResponseBytes}
	c.probers[probe.ProviderGeneric] = probe.NewHead(po)
	c.probers[probe.ProviderTwitch] = probe.NewTwitch(po, cfg.TwitchBaseURL)
	c.probers[probe.ProviderKick] = probe.NewKick(po, cfg.KickAPIBaseURL)
	for _, p := range c.custom {
		c.probers[p.Name()] = p
	}
	return c
}

// Report is the outcome of a run.
type Report struct {
	// Entries mirrors the input order; every Status is online or offline.
	Entries []links.Entry
	Online  int
	Offline int
	Batches int
}

// Run checks every entry and returns annotated copies in input order. The
// input slice is not modified. A non-nil error means ctx was cancelled and
// the report must not be persisted.
func (c *Checker) Run(ctx context.Context, entries []links.Entry) (Report, error) {
	logger := xglog.WithComponentFromContext(ctx, "checker")

	ctx, span := c.tracer.Start(ctx, "statuscheck.run",
		trace.WithAttributes(telemetry.RunAttributes(xglog.RunIDFromContext(ctx), len(entries))...))
	defer span.End()

	out := make([]links.Entry, len(entries))
	copy(out, entries)

	batches := batchCount(len(out), c.cfg.BatchSize)
	logger.Info().
		Str(xglog.FieldEvent, "run.start").
		Int("entries", len(out)).
		Int(xglog.FieldBatches, batches).
		Msgf("Checking status for %d streams", len(out))

	for b := 0; b < batches; b++ {
		start := b * c.cfg.BatchSize
		end := min(start+c.cfg.BatchSize, len(out))

		logger.Info().
			Str(xglog.FieldEvent, "batch.start").
			Int(xglog.FieldBatch, b+1).
			Int(xglog.FieldBatches, batches).
			Msgf("Processing batch %d/%d", b+1, batches)

		c.runBatch(ctx, b+1, start, out[start:end])
		metrics.IncBatch()

		if err := ctx.Err(); err != nil {
			return c.abort(span, logger, err)
		}
		if b+1 < batches {
			if err := c.pause(ctx, c.cfg.BatchDelay); err != nil {
				return c.abort(span, logger, err)
			}
		}
	}

	report := Report{Entries: out, Batches: batches}
	for _, e := range out {
		if e.Status == links.StatusOnline {
			report.Online++
		} else {
			report.Offline++
		}
	}
	span.SetAttributes(telemetry.SummaryAttributes(report.Online, report.Offline)...)
	logger.Info().
		Str(xglog.FieldEvent, "run.complete").
		Int("online", report.Online).
		Int("offline", report.Offline).
		Msgf("Status check complete: %d online, %d offline", report.Online, report.Offline)
	return report, nil
}

func (c *Checker) abort(span trace.Span, logger zerolog.Logger, err error) (Report, error) {
	span.SetStatus(codes.Error, "cancelled")
	logger.Warn().Err(err).Str(xglog.FieldEvent, "run.cancelled").Msg("status check cancelled")
	return Report{}, fmt.Errorf("status check cancelled: %w", err)
}

// runBatch checks batch concurrently; offset is the list index of batch[0].
// Each goroutine writes only its own slot.
func (c *Checker) runBatch(ctx context.Context, index, offset int, batch []links.Entry) {
	ctx, span := c.tracer.Start(ctx, "statuscheck.batch",
		trace.WithAttributes(telemetry.BatchAttributes(index, len(batch))...))
	defer span.End()

	var g errgroup.Group
	for i := range batch {
		g.Go(func() error {
			batch[i].Status = c.Check(ctx, offset+i, batch[i])
			return nil
		})
	}
	_ = g.Wait()
}

// Check classifies a single entry. It never fails: any error, timeout or
// panic yields offline. idx is used for diagnostics only.
func (c *Checker) Check(ctx context.Context, idx int, entry links.Entry) (status links.Status) {
	logger := xglog.WithComponentFromContext(ctx, "checker").With().
		Int(xglog.FieldIndex, idx).
		Str(xglog.FieldName, entry.Name).
		Str(xglog.FieldURL, entry.URL).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			status = links.StatusOffline
			logger.Error().
				Str(xglog.FieldEvent, "check.panic").
				Interface("panic", r).
				Msg("check panicked, marking offline")
		}
	}()

	route, err := Resolve(entry.URL)
	if urlErr := entry.URLErr(); urlErr != nil {
		route, err = Route{}, fmt.Errorf("%w: %w", ErrInvalidURL, urlErr)
	}
	if err != nil {
		provider := route.Provider
		if provider == "" {
			provider = "none"
		}
		logger.Warn().Err(err).
			Str(xglog.FieldEvent, "check.invalid_url").
			Str(xglog.FieldProvider, provider).
			Msg("cannot check link, marking offline")
		metrics.RecordProbe(provider, metrics.OutcomeInvalid, 0)
		return links.StatusOffline
	}

	prober, ok := c.probers[route.Provider]
	if !ok {
		logger.Error().
			Str(xglog.FieldEvent, "check.no_prober").
			Str(xglog.FieldProvider, route.Provider).
			Msg("no prober registered, marking offline")
		return links.StatusOffline
	}
	return c.runProbe(ctx, logger, idx, route, prober)
}

func (c *Checker) runProbe(ctx context.Context, logger zerolog.Logger, idx int, route Route, prober probe.Prober) (status links.Status) {
	ctx, span := c.tracer.Start(ctx, "statuscheck.check",
		trace.WithAttributes(telemetry.CheckAttributes(idx, route.Provider, route.Host)...))
	defer span.End()

	logger = logger.With().Str(xglog.FieldProvider, route.Provider).Logger()
	started := time.Now()
	outcome := metrics.OutcomeOffline
	httpStatus := 0
	defer func() {
		if r := recover(); r != nil {
			status = links.StatusOffline
			outcome = metrics.OutcomePanic
			span.SetStatus(codes.Error, "panic")
			logger.Error().
				Str(xglog.FieldEvent, "check.panic").
				Interface("panic", r).
				Msg("check panicked, marking offline")
		}
		metrics.RecordProbe(route.Provider, outcome, time.Since(started))
		span.SetAttributes(telemetry.ResultAttributes(string(status), httpStatus)...)
	}()

	checkCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	res, err := prober.Probe(checkCtx, route.Target)
	httpStatus = res.StatusCode
	if err != nil {
		kind := probe.Kind(err)
		outcome = metrics.OutcomeError
		if errors.Is(err, probe.ErrTimeout) {
			outcome = metrics.OutcomeTimeout
		}
		span.SetAttributes(telemetry.ErrorAttributes(err, kind)...)
		span.SetStatus(codes.Error, kind)
		evt := logger.Warn().Err(err).
			Str(xglog.FieldEvent, "check.failed").
			Int(xglog.FieldHTTPCode, res.StatusCode).
			Str("kind", kind)
		var perr *probe.Error
		if errors.As(err, &perr) && perr.Cause() != nil {
			evt = evt.Str("cause", perr.Cause().Error())
		}
		evt.Msg("check failed, marking offline")
		return links.StatusOffline
	}

	status = links.StatusOf(res.Live)
	outcome = string(status)
	logger.Debug().
		Str(xglog.FieldEvent, "check.done").
		Int(xglog.FieldHTTPCode, res.StatusCode).
		Str(xglog.FieldStatus, string(status)).
		Msg("check finished")
	return status
}

func batchCount(n, size int) int {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}

// sleep is the default PauseFunc.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
