// SPDX-License-Identifier: MIT

package transform

import (
	"fmt"

	"epgshift/internal/epg"
)

// Validate runs the structural sanity checks on a parsed document: expected
// root tag, at least one channel, at least one programme. Violations are
// returned for the caller to decide on, never raised.
func Validate(doc *epg.TV) (bool, []string) {
	var violations []string
	if doc.XMLName.Local != epg.RootTag {
		violations = append(violations,
			fmt.Sprintf("root element is %q, expected %q", doc.XMLName.Local, epg.RootTag))
	}
	if len(doc.Channels) == 0 {
		violations = append(violations, "document contains no channel records")
	}
	if len(doc.Programmes) == 0 {
		violations = append(violations, "document contains no programme records")
	}
	return len(violations) == 0, violations
}
