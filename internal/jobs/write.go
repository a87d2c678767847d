// SPDX-License-Identifier: MIT

package jobs

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	xglog "epgshift/internal/log"
)

// writeFileAtomic publishes data at path with atomic + durable semantics:
// fsync before rename, so a crash never leaves a half-written output.
func writeFileAtomic(ctx context.Context, path string, data []byte) error {
	logger := xglog.WithComponentFromContext(ctx, "jobs")

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("cleanup pending file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

// writeGzipAtomic publishes a gzip-framed copy of data at path.
func writeGzipAtomic(ctx context.Context, path string, data []byte) error {
	logger := xglog.WithComponentFromContext(ctx, "jobs")

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("cleanup pending file")
		}
	}()

	zw := gzip.NewWriter(pending)
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("compress output: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish gzip stream: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

// writeJSONAtomic publishes v as indented JSON at path.
func writeJSONAtomic(ctx context.Context, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(ctx, path, append(data, '\n'))
}

// cleanupStaleTemp removes pending-file leftovers of a run that was killed
// mid-way. Pending files are dot-prefixed siblings of their target, so every
// atomic-write target of a run is swept: the XML output, its gzip artifact,
// the metrics report and the config file.
func cleanupStaleTemp(ctx context.Context, paths Paths, outputName string) {
	logger := xglog.WithComponentFromContext(ctx, "jobs")

	targets := []string{
		filepath.Join(paths.DataDir, outputName),
		filepath.Join(paths.DataDir, outputName+".gz"),
		filepath.Join(paths.DataDir, reportFilename),
		paths.ConfigPath,
	}
	for _, target := range targets {
		dir, base := filepath.Split(target)
		matches, err := filepath.Glob(filepath.Join(dir, "."+base+"*"))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil {
				logger.Warn().Err(err).Str("path", m).Msg("failed to remove stale temp file")
				continue
			}
			logger.Info().Str("path", m).Msg("removed stale temp file")
		}
	}
}
