// SPDX-License-Identifier: MIT

// Package metrics registers the prometheus collectors for run outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	channelsProcessed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epgshift_channels_processed",
		Help: "Channel records seen in the last run",
	})

	programmesProcessed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epgshift_programmes_processed",
		Help: "Programme records seen in the last run",
	})

	programmesModified = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epgshift_programmes_modified",
		Help: "Timestamp attributes changed in the last run",
	})

	programmeErrors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epgshift_programme_errors",
		Help: "Programme records with malformed timestamps in the last run",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgshift_runs_total",
		Help: "Processing runs by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	runFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgshift_run_failures_total",
		Help: "Processing run failures by stage",
	}, []string{"stage"}) // stage=fetch|parse|validate|transform|write|config

	feedCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epgshift_feed_cache_total",
		Help: "Feed cache lookups by result",
	}, []string{"result"}) // result=hit|miss

	fetchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epgshift_fetch_retries_total",
		Help: "Feed download attempts beyond the first",
	})

	runDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "epgshift_run_duration_seconds",
		Help:    "End-to-end processing run duration",
		Buckets: prometheus.DefBuckets,
	})
)

// RecordRun publishes the counters of a completed transformation pass.
func RecordRun(channels, programmes, modified, errs int) {
	channelsProcessed.Set(float64(channels))
	programmesProcessed.Set(float64(programmes))
	programmesModified.Set(float64(modified))
	programmeErrors.Set(float64(errs))
}

// IncRunOutcome counts a finished run ("success" or "failure").
func IncRunOutcome(outcome string) { runsTotal.WithLabelValues(outcome).Inc() }

// IncRunFailure counts a run failure attributed to a pipeline stage.
func IncRunFailure(stage string) { runFailuresTotal.WithLabelValues(stage).Inc() }

// IncFeedCache counts a cache lookup result ("hit" or "miss").
func IncFeedCache(result string) { feedCacheTotal.WithLabelValues(result).Inc() }

// IncFetchRetry counts a download retry.
func IncFetchRetry() { fetchRetriesTotal.Inc() }

// ObserveRunDuration records how long a run took.
func ObserveRunDuration(d time.Duration) { runDurationSeconds.Observe(d.Seconds()) }
