// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupStaleTempSweepsAllPendingArtifacts(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{ConfigPath: filepath.Join(dir, "config.json"), DataDir: dir}

	// Pending-file leftovers of a run that was killed mid-way, one per
	// atomic-write target.
	stale := []string{
		".epg_processed.xml1234",
		".epg_processed.xml.gz1234",
		".metrics_report.json1234",
		".config.json1234",
	}
	for _, name := range stale {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	// Published artifacts must survive the sweep.
	keep := []string{"epg_processed.xml", "epg_processed.xml.gz", "metrics_report.json", "config.json"}
	for _, name := range keep {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	cleanupStaleTemp(context.Background(), paths, "epg_processed.xml")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	sort.Strings(keep)
	assert.Equal(t, keep, names)
}

func TestCleanupStaleTempMissingDirIsHarmless(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		ConfigPath: filepath.Join(dir, "missing", "config.json"),
		DataDir:    filepath.Join(dir, "missing"),
	}
	cleanupStaleTemp(context.Background(), paths, "epg_processed.xml")
}
