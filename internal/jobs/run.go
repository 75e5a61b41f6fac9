// SPDX-License-Identifier: MIT

// Package jobs runs a complete status check: load the list, check every
// entry, write the annotated list back.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/videolinks/statuscheck/internal/checker"
	"github.com/videolinks/statuscheck/internal/config"
	"github.com/videolinks/statuscheck/internal/links"
	xglog "github.com/videolinks/statuscheck/internal/log"
	"github.com/videolinks/statuscheck/internal/metrics"
)

// Status summarises a finished run.
type Status struct {
	LastRun  time.Time     `json:"last_run"`
	Duration time.Duration `json:"duration"`
	Entries  int           `json:"entries"`
	Online   int           `json:"online"`
	Offline  int           `json:"offline"`
	Written  bool          `json:"written"`
}

// Deps are the collaborators of a run. Zero values are filled with defaults.
type Deps struct {
	Checker *checker.Checker
	Clock   func() time.Time
}

// Run performs one status check cycle for cfg.
func Run(ctx context.Context, cfg config.AppConfig) (*Status, error) {
	return RunWithDeps(ctx, cfg, Deps{})
}

// RunWithDeps is Run with injectable collaborators.
//
// The list file is written once, after every check has finished. Any error
// returned leaves the file untouched.
func RunWithDeps(ctx context.Context, cfg config.AppConfig, deps Deps) (*Status, error) {
	if deps.Checker == nil {
		deps.Checker = checker.New(checker.ConfigFromApp(cfg))
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	logger := xglog.WithComponentFromContext(ctx, "jobs")
	started := deps.Clock()
	if cfg.MetricsTextfile != "" {
		defer exportMetrics(ctx, cfg.MetricsTextfile)
	}

	entries, err := links.Load(cfg.LinksPath)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	logger.Debug().
		Str(xglog.FieldEvent, "list.loaded").
		Str(xglog.FieldPath, cfg.LinksPath).
		Int("entries", len(entries)).
		Msg("list loaded")

	report, err := deps.Checker.Run(ctx, entries)
	if err != nil {
		return nil, err
	}

	finished := deps.Clock()
	status := &Status{
		LastRun:  finished,
		Duration: finished.Sub(started),
		Entries:  len(report.Entries),
		Online:   report.Online,
		Offline:  report.Offline,
	}
	metrics.RecordRun(report.Online, report.Offline, status.Duration)

	if cfg.DryRun {
		logger.Info().
			Str(xglog.FieldEvent, "list.write_skipped").
			Str(xglog.FieldPath, cfg.LinksPath).
			Msg("dry run, list not written")
		return status, nil
	}

	if err := links.Save(ctx, cfg.LinksPath, report.Entries); err != nil {
		return nil, fmt.Errorf("save links: %w", err)
	}
	status.Written = true
	metrics.MarkSuccess(finished)
	logger.Info().
		Str(xglog.FieldEvent, "list.write").
		Str(xglog.FieldPath, cfg.LinksPath).
		Msgf("Updated %s", cfg.LinksPath)
	return status, nil
}

func exportMetrics(ctx context.Context, path string) {
	logger := xglog.WithComponentFromContext(ctx, "jobs")
	if err := metrics.WriteTextfile(path); err != nil {
		logger.Warn().Err(err).
			Str(xglog.FieldEvent, "metrics.write_failed").
			Str(xglog.FieldPath, path).
			Msg("failed to write metrics textfile")
		return
	}
	logger.Debug().
		Str(xglog.FieldEvent, "metrics.written").
		Str(xglog.FieldPath, path).
		Msg("metrics textfile written")
}
