package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

type fakeSource struct {
	leader    bool
	dbCount   int
	snapshots []DatabaseSnapshot
}

func (f *fakeSource) IsLeader() bool                        { return f.leader }
func (f *fakeSource) MonitoredDatabaseCount() int            { return f.dbCount }
func (f *fakeSource) DatabaseSnapshots() []DatabaseSnapshot { return f.snapshots }

func TestCollectorUpdatesGaugesOnStart(t *testing.T) {
	src := &fakeSource{
		leader:  true,
		dbCount: 2,
		snapshots: []DatabaseSnapshot{
			{DatabaseID: "16param", ActiveTableMapSize: 5, RelationCacheSize: 3, BlocklistSize: 1},
		},
	}

	c := NewCollector(src, time.Hour)
	c.Start()
	defer c.Stop()

	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(RaftIsLeader))
	assert.Equal(t, float64(2), testutil.ToFloat64(MonitoredDatabasesTotal))
	assert.Equal(t, float64(5), testutil.ToFloat64(ActiveTableMapSize.WithLabelValues("16param")))
}

func TestNewCollectorDefaultsInterval(t *testing.T) {
	c := NewCollector(&fakeSource{}, 0)
	assert.Equal(t, 15*time.Second, c.interval)
}
