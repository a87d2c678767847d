// SPDX-License-Identifier: MIT

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/renameio/v2"

	xglog "epgshift/internal/log"
	"epgshift/internal/version"
)

// Load reads the configuration at path. A missing file creates and persists
// the defaults. A file that cannot be parsed falls back to the defaults with
// a diagnostic but is left on disk untouched. Legacy flat shapes are
// migrated to the layered structure and persisted back.
func Load(path string) (*Config, error) {
	logger := xglog.WithComponent("config")

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI flag
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("persist default config: %w", err)
		}
		logger.Info().Str("path", path).Msg("config file missing, wrote defaults")
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, migrated, err := parse(data)
	if err != nil {
		logger.Error().Err(err).Str("path", path).
			Msg("config unreadable, falling back to defaults")
		return Default(), nil
	}
	if migrated {
		logger.Info().Str("path", path).Msg("migrated legacy config to layered shape")
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("persist migrated config: %w", err)
		}
	}
	return cfg, nil
}

// parse decodes a config document, detecting the legacy flat shape by the
// presence of a top-level offset_seconds without a timeshift section.
func parse(data []byte) (*Config, bool, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false, err
	}

	if _, layered := probe["timeshift"]; !layered {
		if _, flat := probe["offset_seconds"]; flat {
			cfg, err := migrateLegacy(data)
			return cfg, true, err
		}
	}

	// Decode over the defaults so absent sections keep their default values.
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, false, err
	}
	if cfg.Timeshift.PerChannel == nil {
		cfg.Timeshift.PerChannel = map[string]int{}
	}
	return cfg, false, nil
}

// migrateLegacy lifts a flat configuration into the layered structure,
// preserving the flat offset as the new baseline.
func migrateLegacy(data []byte) (*Config, error) {
	var legacy struct {
		OffsetSeconds  int            `json:"offset_seconds"`
		ChannelOffsets map[string]int `json:"channel_offsets"`
		SourceURL      string         `json:"source_url"`
		LastUpdate     string         `json:"last_update"`
		AppVersion     string         `json:"app_version"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("decode legacy config: %w", err)
	}

	cfg := Default()
	cfg.Timeshift.DefaultOffsetSeconds = legacy.OffsetSeconds
	if legacy.ChannelOffsets != nil {
		cfg.Timeshift.PerChannel = legacy.ChannelOffsets
	}
	if legacy.SourceURL != "" {
		cfg.Source.URL = legacy.SourceURL
	}
	if legacy.LastUpdate != "" {
		cfg.LastUpdate = legacy.LastUpdate
	}
	if legacy.AppVersion != "" {
		cfg.AppVersion = legacy.AppVersion
	}
	return cfg, nil
}

// Save stamps the configuration with the current time as the last-update
// marker and writes it atomically.
func Save(path string, cfg *Config) error {
	cfg.LastUpdate = time.Now().Format(time.RFC3339)
	if cfg.AppVersion == "" {
		cfg.AppVersion = version.Version
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
