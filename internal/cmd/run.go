// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"epgshift/internal/jobs"
)

// RunCommand returns the run-once command.
func RunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch, timeshift and republish the feed once",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, paths, err := loadConfig()
			if err != nil {
				return err
			}
			status, err := jobs.Run(c.Context(), cfg, paths)
			if err != nil {
				return err
			}
			fmt.Printf("processed %d programmes across %d channels (%d modified, %d errors)\n",
				status.Programmes, status.Channels, status.Modified, status.Errors)
			return nil
		},
	}
}
