// SPDX-License-Identifier: MIT

// Package config holds the processor configuration: layered timeshift
// offsets, feed source, processing toggles and output settings. The file on
// disk is a single JSON object; legacy flat shapes are migrated on load.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"epgshift/internal/validate"
	"epgshift/internal/version"
)

// Config is the full processor configuration.
type Config struct {
	AppVersion string     `json:"app_version"`
	LastUpdate string     `json:"last_update,omitempty"`
	Timeshift  Timeshift  `json:"timeshift"`
	Source     Source     `json:"source"`
	Processing Processing `json:"processing"`
	Output     Output     `json:"output"`
	Scheduling Scheduling `json:"scheduling"`
	API        API        `json:"api"`
	Logging    Logging    `json:"logging"`
}

// Timeshift is the layered offset state. Resolution priority is
// forced > per-channel > default; the forced layer is only active while
// both fields are set and the expiry lies in the future.
type Timeshift struct {
	DefaultOffsetSeconds int            `json:"default_offset_seconds"`
	PerChannel           map[string]int `json:"per_channel"`
	ForceOffset          *int           `json:"force_offset"`
	ForceOffsetExpiry    *time.Time     `json:"force_offset_expiry"`
}

// Source describes where the feed comes from and how stubborn to be about it.
type Source struct {
	URL               string   `json:"url"`
	BackupURLs        []string `json:"backup_urls"`
	TimeoutSeconds    int      `json:"timeout"`
	RetryAttempts     int      `json:"retry_attempts"`
	RetryDelaySeconds int      `json:"retry_delay_seconds"`
}

// Processing holds the per-run behaviour toggles.
type Processing struct {
	EnableCache        bool `json:"enable_cache"`
	CacheDurationHours int  `json:"cache_duration_hours"`
	ValidateXML        bool `json:"validate_xml"`
	GenerateMetrics    bool `json:"generate_metrics"`
	CompressOutput     bool `json:"compress_output"`
}

// Output controls where and how the processed document is published.
type Output struct {
	Filename        string `json:"filename"`
	KeepBackups     int    `json:"keep_backups"`
	IncludeMetadata bool   `json:"include_metadata"`
}

// Scheduling configures the daily run in serve mode.
type Scheduling struct {
	AutoRun  bool   `json:"auto_run"`
	RunTime  string `json:"run_time"` // HH:MM, local to Timezone
	Timezone string `json:"timezone"`
}

// API configures the companion-app HTTP interface.
type API struct {
	Enabled           bool   `json:"enabled"`
	Port              int    `json:"port"`
	APIKey            string `json:"api_key,omitempty"`
	AllowRemoteConfig bool   `json:"allow_remote_config"`
}

// Logging configures log output.
type Logging struct {
	Level string `json:"level"`
}

// Default returns the baseline configuration written when no file exists.
func Default() *Config {
	return &Config{
		AppVersion: version.Version,
		Timeshift: Timeshift{
			DefaultOffsetSeconds: 30,
			PerChannel:           map[string]int{},
		},
		Source: Source{
			URL:               "https://epgshare01.online/epgshare01/epg_ripper_PT1.xml.gz",
			TimeoutSeconds:    300,
			RetryAttempts:     3,
			RetryDelaySeconds: 5,
		},
		Processing: Processing{
			EnableCache:        true,
			CacheDurationHours: 24,
			ValidateXML:        true,
			GenerateMetrics:    true,
			CompressOutput:     true,
		},
		Output: Output{
			Filename:        "epg_processed.xml",
			KeepBackups:     3,
			IncludeMetadata: true,
		},
		Scheduling: Scheduling{
			AutoRun:  true,
			RunTime:  "06:00",
			Timezone: "Europe/Lisbon",
		},
		API: API{
			Enabled:           false,
			Port:              8080,
			AllowRemoteConfig: true,
		},
		Logging: Logging{Level: "info"},
	}
}

// UnmarshalJSON accepts both the canonical field names and the legacy
// aliases (`channel_offsets` for `per_channel`) and tolerates expiry
// timestamps written without a timezone.
func (t *Timeshift) UnmarshalJSON(data []byte) error {
	var aux struct {
		DefaultOffsetSeconds *int           `json:"default_offset_seconds"`
		PerChannel           map[string]int `json:"per_channel"`
		ChannelOffsets       map[string]int `json:"channel_offsets"`
		ForceOffset          *int           `json:"force_offset"`
		ForceOffsetExpiry    *string        `json:"force_offset_expiry"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.DefaultOffsetSeconds != nil {
		t.DefaultOffsetSeconds = *aux.DefaultOffsetSeconds
	}
	switch {
	case aux.PerChannel != nil:
		t.PerChannel = aux.PerChannel
	case aux.ChannelOffsets != nil:
		t.PerChannel = aux.ChannelOffsets
	}
	if t.PerChannel == nil {
		t.PerChannel = map[string]int{}
	}
	t.ForceOffset = aux.ForceOffset
	t.ForceOffsetExpiry = nil
	if aux.ForceOffsetExpiry != nil && *aux.ForceOffsetExpiry != "" {
		ts, err := ParseISOTime(*aux.ForceOffsetExpiry)
		if err != nil {
			return fmt.Errorf("force_offset_expiry: %w", err)
		}
		t.ForceOffsetExpiry = &ts
	}
	return nil
}

// ParseISOTime parses an ISO-8601 timestamp, accepting both RFC 3339 and
// the zone-less form older config writers produced.
func ParseISOTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local)
}

// SetChannel records a per-channel override.
func (t *Timeshift) SetChannel(channelID string, seconds int) {
	if t.PerChannel == nil {
		t.PerChannel = map[string]int{}
	}
	t.PerChannel[channelID] = seconds
}

// Force installs a temporary forced offset lasting for the given duration.
func (t *Timeshift) Force(seconds int, duration time.Duration, now time.Time) {
	expiry := now.Add(duration)
	t.ForceOffset = &seconds
	t.ForceOffsetExpiry = &expiry
}

// ClearForced drops the forced offset layer.
func (t *Timeshift) ClearForced() {
	t.ForceOffset = nil
	t.ForceOffsetExpiry = nil
}

// Validate checks the configuration for publishable values. All violations
// are accumulated and returned together.
func (c *Config) Validate() error {
	v := validate.New()

	v.URL("source.url", c.Source.URL, []string{"http", "https"})
	for i, u := range c.Source.BackupURLs {
		v.URL(fmt.Sprintf("source.backup_urls[%d]", i), u, []string{"http", "https"})
	}
	v.Positive("source.timeout", c.Source.TimeoutSeconds)
	v.NonNegative("source.retry_attempts", c.Source.RetryAttempts)
	v.NonNegative("source.retry_delay_seconds", c.Source.RetryDelaySeconds)

	if c.Processing.EnableCache {
		v.Positive("processing.cache_duration_hours", c.Processing.CacheDurationHours)
	}

	v.Filename("output.filename", c.Output.Filename)
	v.NonNegative("output.keep_backups", c.Output.KeepBackups)

	if c.Logging.Level != "" {
		v.OneOf("logging.level", strings.ToLower(c.Logging.Level),
			[]string{"trace", "debug", "info", "warn", "error"})
	}

	if c.API.Enabled {
		v.Range("api.port", c.API.Port, 1, 65535)
	}

	if c.Scheduling.AutoRun {
		if _, err := time.Parse("15:04", c.Scheduling.RunTime); err != nil {
			v.AddError("scheduling.run_time", "must be HH:MM", c.Scheduling.RunTime)
		}
		if c.Scheduling.Timezone != "" {
			if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
				v.AddError("scheduling.timezone", "unknown timezone", c.Scheduling.Timezone)
			}
		}
	}

	return v.Err()
}
