// SPDX-License-Identifier: MIT

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Timeshift.DefaultOffsetSeconds)
	assert.Empty(t, cfg.Timeshift.PerChannel)
	assert.Nil(t, cfg.Timeshift.ForceOffset)
	assert.Nil(t, cfg.Timeshift.ForceOffsetExpiry)

	// The defaults must have been persisted.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Contains(t, onDisk, "timeshift")
	assert.Contains(t, onDisk, "last_update")
}

func TestLoadMalformedFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Timeshift.DefaultOffsetSeconds, cfg.Timeshift.DefaultOffsetSeconds)

	// The corrupt file must not be overwritten.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestLoadMigratesLegacyFlatShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	legacy := `{"offset_seconds": 45, "source_url": "http://example.com/feed.xml.gz"}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Timeshift.DefaultOffsetSeconds)
	assert.Empty(t, cfg.Timeshift.PerChannel)
	assert.Equal(t, "http://example.com/feed.xml.gz", cfg.Source.URL)

	// Re-saving must produce the layered shape.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Contains(t, onDisk, "timeshift")
	assert.NotContains(t, onDisk, "offset_seconds")

	// A second load must not migrate again.
	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45, again.Timeshift.DefaultOffsetSeconds)
}

func TestLoadAcceptsChannelOffsetsAlias(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{"timeshift": {"default_offset_seconds": 5, "channel_offsets": {"RTP1": 10}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Timeshift.DefaultOffsetSeconds)
	assert.Equal(t, map[string]int{"RTP1": 10}, cfg.Timeshift.PerChannel)
}

func TestLoadParsesForcedOffsetExpiry(t *testing.T) {
	tests := []struct {
		name   string
		expiry string
	}{
		{"rfc3339", `"2030-01-02T15:04:05Z"`},
		{"zone-less iso", `"2030-01-02T15:04:05"`},
		{"fractional seconds", `"2030-01-02T15:04:05.123456"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			doc := `{"timeshift": {"default_offset_seconds": 5, "force_offset": 99,
				"force_offset_expiry": ` + tt.expiry + `}}`
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

			cfg, err := Load(path)
			require.NoError(t, err)
			require.NotNil(t, cfg.Timeshift.ForceOffset)
			assert.Equal(t, 99, *cfg.Timeshift.ForceOffset)
			require.NotNil(t, cfg.Timeshift.ForceOffsetExpiry)
			assert.Equal(t, 2030, cfg.Timeshift.ForceOffsetExpiry.Year())
		})
	}
}

func TestSaveStampsLastUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.LastUpdate = ""

	require.NoError(t, Save(path, cfg))
	assert.NotEmpty(t, cfg.LastUpdate)

	stamp, err := time.Parse(time.RFC3339, cfg.LastUpdate)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), stamp, time.Minute)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Timeshift.DefaultOffsetSeconds, reloaded.Timeshift.DefaultOffsetSeconds)
}

func TestTimeshiftForceAndClear(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var ts Timeshift

	ts.Force(120, 24*time.Hour, now)
	require.NotNil(t, ts.ForceOffset)
	assert.Equal(t, 120, *ts.ForceOffset)
	require.NotNil(t, ts.ForceOffsetExpiry)
	assert.Equal(t, now.Add(24*time.Hour), *ts.ForceOffsetExpiry)

	ts.ClearForced()
	assert.Nil(t, ts.ForceOffset)
	assert.Nil(t, ts.ForceOffsetExpiry)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"empty source url", func(c *Config) { c.Source.URL = "" }, true},
		{"ftp source url", func(c *Config) { c.Source.URL = "ftp://example.com/feed" }, true},
		{"zero timeout", func(c *Config) { c.Source.TimeoutSeconds = 0 }, true},
		{"negative retries", func(c *Config) { c.Source.RetryAttempts = -1 }, true},
		{"filename with directory", func(c *Config) { c.Output.Filename = "../out.xml" }, true},
		{"bad run time", func(c *Config) { c.Scheduling.RunTime = "25:99" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"api port out of range", func(c *Config) {
			c.API.Enabled = true
			c.API.Port = 70000
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
