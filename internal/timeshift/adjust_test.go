// SPDX-License-Identifier: MIT

package timeshift

import (
	"errors"
	"testing"
)

func TestAdjust(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		offset  int
		want    string
		wantErr error
	}{
		{
			name:   "positive offset",
			raw:    "20240101120000 +0100",
			offset: 90,
			want:   "20240101120130 +0100",
		},
		{
			name:   "leap day rollover preserves timezone token",
			raw:    "20240229235959 +0000",
			offset: 2,
			want:   "20240301000001 +0000",
		},
		{
			name:   "negative offset rolls back a day without token",
			raw:    "20240101000010",
			offset: -20,
			want:   "20231231235950",
		},
		{
			name:   "year rollover",
			raw:    "20231231235959 +0100",
			offset: 61,
			want:   "20240101000100 +0100",
		},
		{
			name:   "zero offset keeps value",
			raw:    "20240615083000 +0200",
			offset: 0,
			want:   "20240615083000 +0200",
		},
		{
			name:   "surrounding whitespace is trimmed",
			raw:    "  20240101120000 +0100 ",
			offset: 0,
			want:   "20240101120000 +0100",
		},
		{
			name:    "too short",
			raw:     "20240101",
			offset:  60,
			want:    "20240101",
			wantErr: ErrTooShort,
		},
		{
			name:    "non-digit date portion",
			raw:     "2024010112000x +0100",
			offset:  60,
			want:    "2024010112000x +0100",
			wantErr: ErrNotDigits,
		},
		{
			name:    "month 13 is not a calendar date",
			raw:     "20241301000000 +0000",
			offset:  60,
			want:    "20241301000000 +0000",
			wantErr: ErrBadTime,
		},
		{
			name:    "february 30th is not a calendar date",
			raw:     "20240230120000",
			offset:  1,
			want:    "20240230120000",
			wantErr: ErrBadTime,
		},
		{
			name:    "empty string",
			raw:     "",
			offset:  1,
			want:    "",
			wantErr: ErrTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Adjust(tt.raw, tt.offset)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Adjust(%q, %d) error = %v, want %v", tt.raw, tt.offset, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("Adjust(%q, %d) = %q, want %q", tt.raw, tt.offset, got, tt.want)
			}
		})
	}
}

func TestAdjustRoundTrip(t *testing.T) {
	inputs := []string{
		"20240229235959 +0000",
		"20240101000000",
		"20231231235959 -0330",
		"20240615120000 +0200",
	}
	offsets := []int{-86400, -3661, -1, 0, 1, 59, 3600, 86399, 86400}

	for _, in := range inputs {
		for _, n := range offsets {
			shifted, err := Adjust(in, n)
			if err != nil {
				t.Fatalf("Adjust(%q, %d) unexpected error: %v", in, n, err)
			}
			back, err := Adjust(shifted, -n)
			if err != nil {
				t.Fatalf("Adjust(%q, %d) unexpected error: %v", shifted, -n, err)
			}
			if back != in {
				t.Fatalf("round trip of %q with offset %d = %q, want original", in, n, back)
			}
		}
	}
}
