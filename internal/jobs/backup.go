// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	xglog "epgshift/internal/log"
)

const backupTimeFormat = "20060102_150405"

// rotateBackups moves an existing output aside as a timestamped backup and
// prunes old backups beyond keep. Backup failures are logged, never fatal:
// the worst case is overwriting the previous output.
func rotateBackups(ctx context.Context, outputPath string, keep int) {
	logger := xglog.WithComponentFromContext(ctx, "jobs")

	if _, err := os.Stat(outputPath); err != nil {
		return
	}

	backup := fmt.Sprintf("%s.backup_%s", outputPath, time.Now().Format(backupTimeFormat))
	if err := os.Rename(outputPath, backup); err != nil {
		logger.Warn().Err(err).Str("path", outputPath).Msg("failed to create backup")
		return
	}
	logger.Info().Str("event", "backup.create").Str("path", backup).Msg("backup created")

	pruneBackups(ctx, outputPath, keep)
}

// pruneBackups removes all but the newest keep backups of outputPath.
func pruneBackups(ctx context.Context, outputPath string, keep int) {
	logger := xglog.WithComponentFromContext(ctx, "jobs")

	dir, base := filepath.Split(outputPath)
	if dir == "" {
		dir = "."
	}
	prefix := base + ".backup_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dir).Msg("failed to list backups")
		return
	}

	var backups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			backups = append(backups, e.Name())
		}
	}
	// Timestamped names sort chronologically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	if keep < 0 {
		keep = 0
	}
	for _, name := range backups[min(keep, len(backups)):] {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to remove old backup")
			continue
		}
		logger.Info().Str("event", "backup.prune").Str("path", path).Msg("old backup removed")
	}
}
