// SPDX-License-Identifier: MIT

package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"epgshift/internal/epg"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		doc            func() *epg.TV
		wantOK         bool
		wantViolations int
	}{
		{
			name: "well-formed document",
			doc: func() *epg.TV {
				d := buildDoc(1)
				return d
			},
			wantOK: true,
		},
		{
			name: "wrong root tag",
			doc: func() *epg.TV {
				d := buildDoc(1)
				d.XMLName.Local = "guide"
				return d
			},
			wantOK:         false,
			wantViolations: 1,
		},
		{
			name: "no channels",
			doc: func() *epg.TV {
				d := buildDoc(1)
				d.Channels = nil
				return d
			},
			wantOK:         false,
			wantViolations: 1,
		},
		{
			name: "no programmes",
			doc: func() *epg.TV {
				d := buildDoc(0)
				return d
			},
			wantOK:         false,
			wantViolations: 1,
		},
		{
			name: "everything wrong at once",
			doc: func() *epg.TV {
				return &epg.TV{}
			},
			wantOK:         false,
			wantViolations: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, violations := Validate(tt.doc())
			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, violations, tt.wantViolations)
		})
	}
}
