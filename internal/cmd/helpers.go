// SPDX-License-Identifier: MIT

// Package cmd implements the epgshift CLI commands.
package cmd

import (
	"epgshift/internal/config"
	"epgshift/internal/jobs"
	xglog "epgshift/internal/log"
)

// Flags shared by all commands; bound as persistent flags on the root.
var (
	ConfigPath string
	DataDir    string
	Verbose    bool
)

// loadConfig configures logging and loads the configuration, creating the
// default file if none exists.
func loadConfig() (*config.Config, jobs.Paths, error) {
	paths := jobs.Paths{ConfigPath: ConfigPath, DataDir: DataDir}

	level := ""
	if Verbose {
		level = "debug"
	}
	xglog.Configure(xglog.Config{Level: level})

	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		return nil, paths, err
	}
	if !Verbose && cfg.Logging.Level != "" {
		xglog.SetLevel(cfg.Logging.Level)
	}
	return cfg, paths, nil
}
