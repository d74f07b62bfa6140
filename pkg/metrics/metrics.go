// Package metrics exposes Prometheus instrumentation for the model
// engine, grounded on the teacher's prometheus.NewGaugeVec/
// NewHistogramVec var-block style (pkg/metrics/metrics.go) and
// Timer helper.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// EpochDuration measures one worker epoch (drain+size+aggregate+evaluate, §4.4/§4.5).
	EpochDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskquota_epoch_duration_seconds",
			Help:    "Time taken for one worker epoch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"database"},
	)

	EpochsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskquota_epochs_total",
			Help: "Total number of completed worker epochs",
		},
		[]string{"database"},
	)

	EpochFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskquota_epoch_failures_total",
			Help: "Total number of epochs that failed and were retried (§7 Transient)",
		},
		[]string{"database"},
	)

	// ActiveTableMapSize is the current occupancy of the active-file map (§3, §4.1).
	ActiveTableMapSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskquota_active_table_map_size",
			Help: "Current number of entries in the active-file map",
		},
		[]string{"database"},
	)

	ActiveTableOverflowTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskquota_active_table_overflow_total",
			Help: "Total number of probe entries dropped due to active-file map capacity (§7 Overflow)",
		},
		[]string{"database"},
	)

	// RelationCacheSize is the current occupancy of the relation cache (§4.2).
	RelationCacheSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskquota_relation_cache_size",
			Help: "Current number of entries in the relation cache",
		},
		[]string{"database"},
	)

	// BlocklistSize is the current size of the blocklist (§4.5, §4.6).
	BlocklistSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskquota_blocklist_size",
			Help: "Current number of relations on the blocklist",
		},
		[]string{"database"},
	)

	// TargetUsedBytes is the last-evaluated usage for a quota target (§4.5).
	TargetUsedBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskquota_target_used_bytes",
			Help: "Aggregated size of a quota target's relations",
		},
		[]string{"database", "quota_type", "target"},
	)

	// TargetLimitBytes is the configured limit for a quota target (§3 QuotaConfig).
	TargetLimitBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "diskquota_target_limit_bytes",
			Help: "Configured limit for a quota target, -1 if unlimited",
		},
		[]string{"database", "quota_type", "target"},
	)

	// FanoutRPCDuration measures one segment RPC within an epoch's fanout (§4.4).
	FanoutRPCDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskquota_fanout_rpc_duration_seconds",
			Help:    "Time taken for one coordinator-to-segment fetch_table_stat RPC",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"segment", "mode"},
	)

	FanoutRPCFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskquota_fanout_rpc_failures_total",
			Help: "Total number of segment RPC failures tolerated by fanout (§7 Transient)",
		},
		[]string{"segment", "mode"},
	)

	// MonitoredDatabasesTotal is the current size of MonitoredDbSet (§5).
	MonitoredDatabasesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "diskquota_monitored_databases_total",
			Help: "Total number of databases currently monitored by the launcher",
		},
	)

	// RaftIsLeader reports whether this coordinator replica is the Raft leader (coordhost HA).
	RaftIsLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "diskquota_raft_is_leader",
			Help: "Whether this coordinator replica is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	MailboxCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskquota_mailbox_commands_total",
			Help: "Total number of ExtensionDDLMessage commands processed by the launcher",
		},
		[]string{"command", "result"},
	)
)

// Timer measures an operation's duration and records it to a
// *prometheus.HistogramVec on ObserveDuration, mirroring the teacher's
// Timer helper.
type Timer struct {
	start  time.Time
	vec    *prometheus.HistogramVec
	labels []string
}

// NewTimer starts a Timer against vec with the given label values.
func NewTimer(vec *prometheus.HistogramVec, labels ...string) *Timer {
	return &Timer{start: time.Now(), vec: vec, labels: labels}
}

// ObserveDuration records the elapsed time since NewTimer was called.
func (t *Timer) ObserveDuration() time.Duration {
	elapsed := time.Since(t.start)
	t.vec.WithLabelValues(t.labels...).Observe(elapsed.Seconds())
	return elapsed
}

// MustRegisterAll registers every metric in this package with r.
func MustRegisterAll(r prometheus.Registerer) {
	r.MustRegister(
		EpochDuration,
		EpochsTotal,
		EpochFailuresTotal,
		ActiveTableMapSize,
		ActiveTableOverflowTotal,
		RelationCacheSize,
		BlocklistSize,
		TargetUsedBytes,
		TargetLimitBytes,
		FanoutRPCDuration,
		FanoutRPCFailuresTotal,
		MonitoredDatabasesTotal,
		RaftIsLeader,
		MailboxCommandsTotal,
	)
}
