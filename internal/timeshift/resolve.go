// SPDX-License-Identifier: MIT

package timeshift

import (
	"time"

	"epgshift/internal/config"
)

// Resolve returns the effective offset for a channel under the layered
// rules: an unexpired forced offset wins over everything, then an exact
// per-channel match, then the default.
//
// Resolve is pure. When the forced layer has lapsed (now at or past the
// expiry) clearForced is true and the caller must drop both forced fields
// from its owned configuration and persist the change.
func Resolve(channelID string, ts config.Timeshift, now time.Time) (offset int, clearForced bool) {
	if ts.ForceOffset != nil && ts.ForceOffsetExpiry != nil {
		if now.Before(*ts.ForceOffsetExpiry) {
			return *ts.ForceOffset, false
		}
		clearForced = true
	}
	if off, ok := ts.PerChannel[channelID]; ok {
		return off, clearForced
	}
	return ts.DefaultOffsetSeconds, clearForced
}
