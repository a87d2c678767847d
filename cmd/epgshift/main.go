// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"epgshift/internal/cmd"
)

var rootCmd = &cobra.Command{
	Use:   "epgshift",
	Short: "EPG timeshift processor",
	Long: `epgshift fetches a compressed XMLTV feed, shifts every programme's
start/stop timestamps by configured offsets (global, per-channel or
temporarily forced) and republishes the result for guide clients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmd.ConfigPath, "config", "config.json",
		"path to the JSON configuration file")
	rootCmd.PersistentFlags().StringVar(&cmd.DataDir, "data-dir", ".",
		"directory for output, cache and backup files")
	rootCmd.PersistentFlags().BoolVar(&cmd.Verbose, "verbose", false,
		"enable debug logging")

	rootCmd.AddCommand(cmd.RunCommand())
	rootCmd.AddCommand(cmd.StatusCommand())
	rootCmd.AddCommand(cmd.SetCommand())
	rootCmd.AddCommand(cmd.ForceCommand())
	rootCmd.AddCommand(cmd.ServeCommand())
	rootCmd.AddCommand(cmd.VersionCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
