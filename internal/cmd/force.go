// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"epgshift/internal/config"
	"epgshift/internal/jobs"
)

// ForceCommand returns the forced-offset command: install a temporary
// offset that overrides all other rules, then process immediately.
func ForceCommand() *cobra.Command {
	var hours int

	forceCmd := &cobra.Command{
		Use:   "force <seconds>",
		Short: "Force a temporary offset for all channels and run once",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid offset %q: %w", args[0], err)
			}
			cfg, paths, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Timeshift.Force(seconds, time.Duration(hours)*time.Hour, time.Now())
			if err := config.Save(paths.ConfigPath, cfg); err != nil {
				return err
			}
			fmt.Printf("forced offset %ds for %dh\n", seconds, hours)

			status, err := jobs.Run(c.Context(), cfg, paths)
			if err != nil {
				return err
			}
			fmt.Printf("processed %d programmes across %d channels (%d modified, %d errors)\n",
				status.Programmes, status.Channels, status.Modified, status.Errors)
			return nil
		},
	}
	forceCmd.Flags().IntVar(&hours, "hours", 24, "how long the forced offset stays active")

	return forceCmd
}
