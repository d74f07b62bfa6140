package metrics

import (
	"time"
)

// DatabaseSnapshot is one monitored database's point-in-time stats, as
// returned by Source.DatabaseSnapshots (§4.7). pkg/launcher fills only
// DatabaseID and BlocklistSize; the other sizes stay 0.
type DatabaseSnapshot struct {
	DatabaseID        string
	ActiveTableMapSize int
	RelationCacheSize  int
	BlocklistSize      int
}

// Source is the view the collector needs onto the launcher and its
// workers; pkg/launcher.Launcher implements it.
type Source interface {
	IsLeader() bool
	MonitoredDatabaseCount() int
	DatabaseSnapshots() []DatabaseSnapshot
}

// Collector periodically samples a Source and updates the package's
// gauges, mirroring the teacher's ticker-driven collect() loop
// (pkg/metrics/collector.go).
type Collector struct {
	source   Source
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a Collector that samples source every interval.
func NewCollector(source Source, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{source: source, interval: interval, stopCh: make(chan struct{})}
}

// Start begins the sampling loop in a new goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the sampling loop.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if c.source.IsLeader() {
		RaftIsLeader.Set(1)
	} else {
		RaftIsLeader.Set(0)
	}

	MonitoredDatabasesTotal.Set(float64(c.source.MonitoredDatabaseCount()))

	for _, snap := range c.source.DatabaseSnapshots() {
		ActiveTableMapSize.WithLabelValues(snap.DatabaseID).Set(float64(snap.ActiveTableMapSize))
		RelationCacheSize.WithLabelValues(snap.DatabaseID).Set(float64(snap.RelationCacheSize))
		BlocklistSize.WithLabelValues(snap.DatabaseID).Set(float64(snap.BlocklistSize))
	}
}
