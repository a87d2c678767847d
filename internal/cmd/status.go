// SPDX-License-Identifier: MIT

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"epgshift/internal/jobs"
)

// StatusCommand prints the configured offsets and the last recorded run.
func StatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured offsets and the last processing run",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, paths, err := loadConfig()
			if err != nil {
				return err
			}
			out := c.OutOrStdout()

			fmt.Fprintf(out, "default offset: %ds\n", cfg.Timeshift.DefaultOffsetSeconds)
			if cfg.Timeshift.ForceOffset != nil && cfg.Timeshift.ForceOffsetExpiry != nil {
				fmt.Fprintf(out, "forced offset: %ds (until %s)\n",
					*cfg.Timeshift.ForceOffset,
					cfg.Timeshift.ForceOffsetExpiry.Format(time.RFC3339))
			}
			if len(cfg.Timeshift.PerChannel) > 0 {
				ids := make([]string, 0, len(cfg.Timeshift.PerChannel))
				for id := range cfg.Timeshift.PerChannel {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				fmt.Fprintln(out, "channel offsets:")
				for _, id := range ids {
					fmt.Fprintf(out, "  %s: %ds\n", id, cfg.Timeshift.PerChannel[id])
				}
			}

			reportPath := filepath.Join(paths.DataDir, "metrics_report.json")
			data, err := os.ReadFile(reportPath) // #nosec G304 -- path derives from the data-dir flag
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(out, "no processing run recorded yet")
				return nil
			}
			if err != nil {
				return fmt.Errorf("read run report: %w", err)
			}
			var report jobs.Report
			if err := json.Unmarshal(data, &report); err != nil {
				return fmt.Errorf("decode run report: %w", err)
			}
			fmt.Fprintf(out, "last run %s at %s: %d programmes across %d channels (%d modified, %d errors)\n",
				report.RunID, report.Timestamp, report.Programmes, report.Channels,
				report.Modified, report.Errors)
			return nil
		},
	}
}
