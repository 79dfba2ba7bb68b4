// Package metrics declares the Prometheus instruments of the progression engine.
//
// Instruments are registered on the default registry at init time and
// exposed by cmd/server on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "progression"

// ─── Leveling ───────────────────────────────────────────────────────────────

// XPCredited tracks XP credited after multipliers.
var XPCredited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "xp",
	Name:      "credited_total",
	Help:      "Total XP credited to users after multipliers.",
})

// XPAwards tracks award calls by outcome.
var XPAwards = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "xp",
	Name:      "awards_total",
	Help:      "Total AwardXP calls by outcome.",
}, []string{"outcome"})

// LevelUps tracks level transitions.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "leveling",
	Name:      "level_ups_total",
	Help:      "Total level-up transitions.",
})

// Prestiges tracks prestige resets.
var Prestiges = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "leveling",
	Name:      "prestiges_total",
	Help:      "Total prestige resets.",
})

// VersionConflicts tracks optimistic concurrency retries on user progress.
var VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "leveling",
	Name:      "version_conflicts_total",
	Help:      "Total compare-and-set conflicts while saving user progress.",
})

// ─── Rewards & Events ───────────────────────────────────────────────────────

// RewardsDispatched tracks reward grants handed to the ledger by kind and result.
var RewardsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "rewards",
	Name:      "dispatched_total",
	Help:      "Total reward grants dispatched to the ledger.",
}, []string{"kind", "result"})

// EventsDropped tracks domain events dropped because a subscriber buffer was full.
var EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "events",
	Name:      "dropped_total",
	Help:      "Total domain events dropped on full subscriber buffers.",
})

// ─── Streaks ────────────────────────────────────────────────────────────────

// StreakActions tracks streak actions by action.
var StreakActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "streaks",
	Name:      "actions_total",
	Help:      "Total streak actions applied.",
}, []string{"action"})

// FreezeTokensConsumed tracks freeze tokens spent to save a streak.
var FreezeTokensConsumed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "streaks",
	Name:      "freeze_tokens_consumed_total",
	Help:      "Total freeze tokens consumed by break actions.",
})

// ─── Leaderboards ───────────────────────────────────────────────────────────

// RecomputeDuration tracks leaderboard recomputation latency.
var RecomputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "leaderboard",
	Name:      "recompute_seconds",
	Help:      "Leaderboard recomputation duration in seconds.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
}, []string{"category"})

// Recomputes tracks recomputation outcomes.
var Recomputes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "leaderboard",
	Name:      "recomputes_total",
	Help:      "Total leaderboard recomputations by outcome.",
}, []string{"outcome"})

// SnapshotEntries tracks the size of the last published snapshot per leaderboard.
var SnapshotEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "leaderboard",
	Name:      "snapshot_entries",
	Help:      "Number of entries in the last published snapshot.",
}, []string{"leaderboard"})

// CachePublishFailures tracks failed ranking cache publishes.
var CachePublishFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "leaderboard",
	Name:      "cache_publish_failures_total",
	Help:      "Total failures publishing a snapshot to the ranking cache.",
})

// Resets tracks periodic leaderboard resets.
var Resets = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "leaderboard",
	Name:      "resets_total",
	Help:      "Total periodic leaderboard resets by frequency.",
}, []string{"frequency"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests tracks read API requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by route and status.",
}, []string{"route", "status"})

// HTTPDuration tracks read API latency by route pattern.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})
