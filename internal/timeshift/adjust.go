// SPDX-License-Identifier: MIT

// Package timeshift implements the timestamp shift and the layered offset
// resolution rules (forced > per-channel > default).
package timeshift

import (
	"errors"
	"strings"
	"time"
)

// layout is the broadcast timestamp form: 14 fixed-width digits, optionally
// followed by a timezone token ("20240229235959 +0000").
const layout = "20060102150405"

// Classified soft-failure reasons. Callers count these per record; they
// never abort a batch.
var (
	ErrTooShort  = errors.New("timestamp shorter than 14 characters")
	ErrNotDigits = errors.New("timestamp date-time portion is not numeric")
	ErrBadTime   = errors.New("timestamp is not a valid calendar date-time")
)

// Adjust shifts the 14-digit date-time prefix of raw by offsetSeconds using
// calendar arithmetic and re-appends any trailing token (typically a
// timezone offset) verbatim. The token is never reinterpreted relative to
// the shifted instant.
//
// On malformed input the original string is returned unchanged together
// with a classified error.
func Adjust(raw string, offsetSeconds int) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < 14 {
		return raw, ErrTooShort
	}

	datePart, rest := trimmed[:14], trimmed[14:]
	for i := 0; i < len(datePart); i++ {
		if datePart[i] < '0' || datePart[i] > '9' {
			return raw, ErrNotDigits
		}
	}

	dt, err := time.Parse(layout, datePart)
	if err != nil {
		return raw, ErrBadTime
	}

	shifted := dt.Add(time.Duration(offsetSeconds) * time.Second)
	out := shifted.Format(layout)
	if token := strings.TrimSpace(rest); token != "" {
		out += " " + token
	}
	return out, nil
}
