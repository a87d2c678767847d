// SPDX-License-Identifier: MIT

// Package transform walks a parsed feed document and applies the timeshift
// to every programme record, tolerating malformed records without aborting
// the batch.
package transform

import (
	"context"
	"errors"
	"time"

	"epgshift/internal/config"
	"epgshift/internal/epg"
	xglog "epgshift/internal/log"
	"epgshift/internal/timeshift"
)

// ErrNothingModified marks a run where programmes were present but not a
// single timestamp changed; downstream must not publish the output.
var ErrNothingModified = errors.New("no programme timestamp was modified")

// Result carries the per-run counters.
type Result struct {
	Channels   int `json:"channels"`
	Programmes int `json:"programmes"`
	// Modified counts timestamp attributes that actually changed, on
	// records with no malformed timestamps. A zero offset over a valid
	// record is neither modified nor an error.
	Modified int `json:"modified"`
	// Errors counts records where at least one timestamp was malformed.
	Errors int `json:"errors"`
	// ClearForced is set when the resolver observed a lapsed forced
	// offset; the caller owns the configuration and must apply the clear.
	ClearForced bool `json:"-"`
}

// Apply rewrites the start/stop attributes of every programme in doc. The
// effective offset is resolved once per channel id and memoized for the
// pass, so the expiry decision is stable across a single run.
func Apply(ctx context.Context, doc *epg.TV, ts config.Timeshift, now time.Time) (*Result, error) {
	logger := xglog.WithComponentFromContext(ctx, "transform")

	res := &Result{Channels: len(doc.Channels)}
	offsets := make(map[string]int)

	for i := range doc.Programmes {
		p := &doc.Programmes[i]
		res.Programmes++

		off, ok := offsets[p.Channel]
		if !ok {
			var clear bool
			off, clear = timeshift.Resolve(p.Channel, ts, now)
			if clear {
				res.ClearForced = true
			}
			offsets[p.Channel] = off
		}

		changed, failed := 0, false
		if p.Start != "" {
			adjusted, err := timeshift.Adjust(p.Start, off)
			switch {
			case err != nil:
				failed = true
				logger.Debug().Err(err).Str("channel", p.Channel).
					Str("start", p.Start).Msg("malformed start timestamp")
			case adjusted != p.Start:
				p.Start = adjusted
				changed++
			}
		}
		if p.Stop != "" {
			adjusted, err := timeshift.Adjust(p.Stop, off)
			switch {
			case err != nil:
				failed = true
				logger.Debug().Err(err).Str("channel", p.Channel).
					Str("stop", p.Stop).Msg("malformed stop timestamp")
			case adjusted != p.Stop:
				p.Stop = adjusted
				changed++
			}
		}

		if failed {
			res.Errors++
			continue
		}
		res.Modified += changed
	}

	logger.Info().
		Int("channels", res.Channels).
		Int("programmes", res.Programmes).
		Int("modified", res.Modified).
		Int("errors", res.Errors).
		Msg("timeshift applied")

	if res.Programmes > 0 && res.Modified == 0 {
		return res, ErrNothingModified
	}
	return res, nil
}
