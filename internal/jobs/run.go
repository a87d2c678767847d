// SPDX-License-Identifier: MIT

// Package jobs orchestrates a processing run: fetch the feed, apply the
// timeshift, publish the result atomically, and persist configuration
// side effects. One run at a time, start to finish.
package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"epgshift/internal/config"
	"epgshift/internal/epg"
	"epgshift/internal/fetch"
	xglog "epgshift/internal/log"
	"epgshift/internal/metrics"
	"epgshift/internal/transform"
	"epgshift/internal/validate"
	"epgshift/internal/version"
)

// Paths locates the run's filesystem surface.
type Paths struct {
	ConfigPath string
	DataDir    string
}

// Validate checks the paths before any network work starts. A missing data
// directory is created rather than rejected, so a fresh install works with a
// bare --data-dir flag.
func (p Paths) Validate() error {
	v := validate.New()
	v.NotEmpty("config_path", p.ConfigPath)
	v.Directory("data_dir", p.DataDir, false)
	return v.Err()
}

// Status summarises a completed run.
type Status struct {
	RunID      string    `json:"run_id"`
	LastRun    time.Time `json:"last_run"`
	Channels   int       `json:"channels"`
	Programmes int       `json:"programmes"`
	Modified   int       `json:"modified"`
	Errors     int       `json:"errors"`
	FromCache  bool      `json:"from_cache"`
}

// Run executes one full processing cycle. Either it fully succeeds (new
// output published, metrics reported) or it fully fails and the previous
// valid output stays untouched.
func Run(ctx context.Context, cfg *config.Config, paths Paths) (*Status, error) {
	runID := uuid.NewString()
	ctx = xglog.ContextWithRunID(ctx, runID)
	logger := xglog.WithComponentFromContext(ctx, "jobs")
	start := time.Now()

	logger.Info().Str("event", "run.start").Msg("starting processing run")

	if err := cfg.Validate(); err != nil {
		return nil, fail(logger, "config", fmt.Errorf("invalid configuration: %w", err))
	}
	if err := paths.Validate(); err != nil {
		return nil, fail(logger, "config", fmt.Errorf("invalid paths: %w", err))
	}

	outPath := filepath.Join(paths.DataDir, cfg.Output.Filename)
	cleanupStaleTemp(ctx, paths, cfg.Output.Filename)

	// Fetch
	urls := append([]string{cfg.Source.URL}, cfg.Source.BackupURLs...)
	cacheDir := ""
	if cfg.Processing.EnableCache {
		cacheDir = paths.DataDir
	}
	client := fetch.New(fetch.Options{
		URLs:       urls,
		Timeout:    time.Duration(cfg.Source.TimeoutSeconds) * time.Second,
		Attempts:   cfg.Source.RetryAttempts,
		RetryDelay: time.Duration(cfg.Source.RetryDelaySeconds) * time.Second,
		CacheDir:   cacheDir,
		CacheTTL:   time.Duration(cfg.Processing.CacheDurationHours) * time.Hour,
	})
	raw, fromCache, err := client.Fetch(ctx)
	if err != nil {
		return nil, fail(logger, "fetch", err)
	}

	// Parse
	doc, err := epg.Parse(raw)
	if err != nil {
		return nil, fail(logger, "parse", err)
	}

	// Structural validation: reject the whole feed, never publish.
	if ok, violations := transform.Validate(doc); !ok {
		for _, v := range violations {
			logger.Error().Str("event", "validate.violation").Msg(v)
		}
		return nil, fail(logger, "validate",
			fmt.Errorf("structural validation failed: %s", strings.Join(violations, "; ")))
	}

	// Transform
	res, terr := transform.Apply(ctx, doc, cfg.Timeshift, time.Now())
	metrics.RecordRun(res.Channels, res.Programmes, res.Modified, res.Errors)

	// The resolver observed a lapsed forced offset: the run owns the
	// configuration and must write the clear back before it ends.
	if res.ClearForced {
		cfg.Timeshift.ClearForced()
		if err := config.Save(paths.ConfigPath, cfg); err != nil {
			logger.Warn().Err(err).Msg("failed to persist cleared forced offset")
		} else {
			logger.Info().Str("event", "config.forced_cleared").
				Msg("expired forced offset cleared")
		}
	}

	if terr != nil {
		return nil, fail(logger, "transform", terr)
	}

	if cfg.Output.IncludeMetadata {
		doc.StampProcessing("epgshift", version.Version, time.Now())
	}

	out, err := doc.Marshal()
	if err != nil {
		return nil, fail(logger, "write", err)
	}

	// Optional re-parse of the serialized output before publishing it.
	if cfg.Processing.ValidateXML {
		if _, err := epg.Parse(out); err != nil {
			return nil, fail(logger, "validate", fmt.Errorf("output not well-formed: %w", err))
		}
	}

	// Publish
	rotateBackups(ctx, outPath, cfg.Output.KeepBackups)
	if err := writeFileAtomic(ctx, outPath, out); err != nil {
		return nil, fail(logger, "write", err)
	}
	logger.Info().Str("event", "output.write").Str("path", outPath).
		Int("bytes", len(out)).Msg("output written")

	if cfg.Processing.CompressOutput {
		gzPath := outPath + ".gz"
		if err := writeGzipAtomic(ctx, gzPath, out); err != nil {
			return nil, fail(logger, "write", err)
		}
		logger.Info().Str("event", "output.compress").Str("path", gzPath).
			Msg("compressed artifact written")
	}

	status := &Status{
		RunID:      runID,
		LastRun:    time.Now(),
		Channels:   res.Channels,
		Programmes: res.Programmes,
		Modified:   res.Modified,
		Errors:     res.Errors,
		FromCache:  fromCache,
	}

	if cfg.Processing.GenerateMetrics {
		report := Report{
			RunID:           runID,
			Timestamp:       time.Now().Format(time.RFC3339),
			DurationSeconds: time.Since(start).Seconds(),
			Channels:        res.Channels,
			Programmes:      res.Programmes,
			Modified:        res.Modified,
			Errors:          res.Errors,
			FromCache:       fromCache,
			ConfigVersion:   cfg.AppVersion,
		}
		reportPath := filepath.Join(paths.DataDir, reportFilename)
		if err := writeJSONAtomic(ctx, reportPath, report); err != nil {
			logger.Warn().Err(err).Str("path", reportPath).Msg("failed to write metrics report")
		}
	}

	// Record the run in the configuration (last-update stamp).
	if err := config.Save(paths.ConfigPath, cfg); err != nil {
		logger.Warn().Err(err).Msg("failed to save configuration after run")
	}

	metrics.IncRunOutcome("success")
	metrics.ObserveRunDuration(time.Since(start))
	logger.Info().
		Str("event", "run.success").
		Int("channels", status.Channels).
		Int("programmes", status.Programmes).
		Int("modified", status.Modified).
		Int("errors", status.Errors).
		Dur("duration", time.Since(start)).
		Msg("processing run completed")

	return status, nil
}

// fail records the failed stage in the run metrics and returns the error
// annotated with the stage name.
func fail(logger zerolog.Logger, stage string, err error) error {
	metrics.IncRunFailure(stage)
	metrics.IncRunOutcome("failure")
	logger.Error().Err(err).Str("event", "run.failure").Str("stage", stage).
		Msg("processing run failed")
	return fmt.Errorf("%s: %w", stage, err)
}
