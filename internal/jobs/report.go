// SPDX-License-Identifier: MIT

package jobs

// reportFilename is the per-run metrics document written next to the output.
const reportFilename = "metrics_report.json"

// Report is the per-run metrics document written next to the output.
type Report struct {
	RunID           string  `json:"run_id"`
	Timestamp       string  `json:"timestamp"`
	DurationSeconds float64 `json:"duration_seconds"`
	Channels        int     `json:"channels"`
	Programmes      int     `json:"programmes"`
	Modified        int     `json:"modified"`
	Errors          int     `json:"errors"`
	FromCache       bool    `json:"from_cache"`
	ConfigVersion   string  `json:"config_version"`
}
