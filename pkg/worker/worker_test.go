package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentdb/diskquota/pkg/blocklist"
	"github.com/segmentdb/diskquota/pkg/catalog"
	"github.com/segmentdb/diskquota/pkg/fanout"
	"github.com/segmentdb/diskquota/pkg/types"
)

type fakeStore struct {
	configs     []types.QuotaConfig
	targets     []types.QuotaTarget
	tableSizes  map[string]types.TableSizeRow
	paused      bool
	deletedRels []types.RelationID
}

func newFakeStore() *fakeStore {
	return &fakeStore{tableSizes: make(map[string]types.TableSizeRow)}
}

func tsKey(relationID types.RelationID, segID types.SegmentID) string {
	return fmt.Sprintf("%d:%d", relationID, segID)
}

func (s *fakeStore) UpsertQuotaConfig(types.QuotaConfig) error                    { return nil }
func (s *fakeStore) GetQuotaConfig(types.TargetID, types.QuotaType) (types.QuotaConfig, bool, error) {
	return types.QuotaConfig{}, false, nil
}
func (s *fakeStore) ListQuotaConfigs() ([]types.QuotaConfig, error) { return s.configs, nil }
func (s *fakeStore) DeleteQuotaConfig(types.TargetID, types.QuotaType) error { return nil }

func (s *fakeStore) UpsertQuotaTarget(types.QuotaTarget) error    { return nil }
func (s *fakeStore) ListQuotaTargets() ([]types.QuotaTarget, error) { return s.targets, nil }

func (s *fakeStore) UpsertTableSize(row types.TableSizeRow) error {
	s.tableSizes[tsKey(row.RelationID, row.SegID)] = row
	return nil
}
func (s *fakeStore) LoadTableSize() ([]types.TableSizeRow, error) {
	rows := make([]types.TableSizeRow, 0, len(s.tableSizes))
	for _, row := range s.tableSizes {
		rows = append(rows, row)
	}
	return rows, nil
}
func (s *fakeStore) DeleteTableSizesForRelation(relationID types.RelationID) error {
	s.deletedRels = append(s.deletedRels, relationID)
	for k, row := range s.tableSizes {
		if row.RelationID == relationID {
			delete(s.tableSizes, k)
		}
	}
	return nil
}

func (s *fakeStore) SetPaused(types.DatabaseID, bool) error { return nil }
func (s *fakeStore) IsPaused(types.DatabaseID) (bool, error) { return s.paused, nil }

func (s *fakeStore) ListMonitoredDatabases() ([]types.MonitoredDatabase, error) { return nil, nil }
func (s *fakeStore) AddMonitoredDatabase(types.DatabaseID) error                { return nil }
func (s *fakeStore) RemoveMonitoredDatabase(types.DatabaseID) error             { return nil }
func (s *fakeStore) Close() error                                              { return nil }

func TestWorkerColdStartReadsLastKnownSizes(t *testing.T) {
	store := newFakeStore()
	store.tableSizes[tsKey(100, types.ClusterTotalSeg)] = types.TableSizeRow{RelationID: 100, SegID: types.ClusterTotalSeg, SizeBytes: 4096}

	cat := catalog.NewStaticCatalog()
	cat.Put(1, catalog.RelationInfo{RelationID: 100, PrimaryRelationID: 100, NamespaceID: 2200})

	w := New(1, 10*time.Millisecond, fanout.New(nil, types.SchemaVersionV2), blocklist.New(), cat, store)
	require.NoError(t, w.runEpoch(context.Background()))
	assert.False(t, w.coldStart)
	assert.Equal(t, int64(4096), w.known[100])
}

func TestAdvanceEpochUnblocksWaiter(t *testing.T) {
	store := newFakeStore()
	cat := catalog.NewStaticCatalog()
	w := New(1, 10*time.Millisecond, fanout.New(nil, types.SchemaVersionV2), blocklist.New(), cat, store)

	done := make(chan int64, 1)
	go func() {
		epoch, err := w.WaitForNewEpoch(context.Background(), 0)
		require.NoError(t, err)
		done <- epoch
	}()

	time.Sleep(5 * time.Millisecond)
	w.advanceEpoch()

	select {
	case epoch := <-done:
		assert.Equal(t, int64(1), epoch)
	case <-time.After(time.Second):
		t.Fatal("WaitForNewEpoch did not unblock")
	}
}

func TestRunEpochExpiresOnlyRelationsDroppedFromCatalog(t *testing.T) {
	store := newFakeStore()
	cat := catalog.NewStaticCatalog() // relation 100 is NOT registered: it was dropped

	w := New(1, 10*time.Millisecond, fanout.New(nil, types.SchemaVersionV2), blocklist.New(), cat, store)
	w.coldStart = false
	w.known[100] = 4096

	require.NoError(t, w.runEpoch(context.Background()))
	assert.Contains(t, store.deletedRels, types.RelationID(100))
	assert.NotContains(t, w.known, types.RelationID(100))
}

func TestRunEpochKeepsSizeOfRelationInactiveButNotDropped(t *testing.T) {
	store := newFakeStore()
	cat := catalog.NewStaticCatalog()
	cat.Put(1, catalog.RelationInfo{RelationID: 100, PrimaryRelationID: 100, NamespaceID: 2200})
	store.configs = []types.QuotaConfig{{
		Target:  types.TargetID{PrimaryID: 2200},
		Type:    types.QuotaTypeSchema,
		LimitMB: 1,
	}}

	// No live segments: the fanout drain/size phase returns nothing active
	// this epoch, the way it would if relation 100 simply had no write
	// activity (e.g. because it is already blocked).
	w := New(1, 10*time.Millisecond, fanout.New(nil, types.SchemaVersionV2), blocklist.New(), cat, store)
	w.coldStart = false
	w.known[100] = 2 * 1024 * 1024 // over the 1MB schema quota

	require.NoError(t, w.runEpoch(context.Background()))

	assert.NotContains(t, store.deletedRels, types.RelationID(100))
	assert.Contains(t, w.known, types.RelationID(100))
	_, blocked := w.Blocklist.Snapshot()[100]
	assert.True(t, blocked, "relation over quota must stay blocked even when inactive this epoch")
}
