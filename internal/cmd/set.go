// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"epgshift/internal/config"
)

// SetCommand returns the offset configuration commands.
func SetCommand() *cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update timeshift offsets in the configuration",
	}

	setCmd.AddCommand(&cobra.Command{
		Use:   "default <seconds>",
		Short: "Set the baseline offset applied when no override matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid offset %q: %w", args[0], err)
			}
			cfg, paths, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Timeshift.DefaultOffsetSeconds = seconds
			if err := config.Save(paths.ConfigPath, cfg); err != nil {
				return err
			}
			fmt.Printf("default offset set to %ds\n", seconds)
			return nil
		},
	})

	setCmd.AddCommand(&cobra.Command{
		Use:   "channel <channel-id> <seconds>",
		Short: "Set a per-channel offset override",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid offset %q: %w", args[1], err)
			}
			cfg, paths, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Timeshift.SetChannel(args[0], seconds)
			if err := config.Save(paths.ConfigPath, cfg); err != nil {
				return err
			}
			fmt.Printf("offset for channel %s set to %ds\n", args[0], seconds)
			return nil
		},
	})

	return setCmd
}
