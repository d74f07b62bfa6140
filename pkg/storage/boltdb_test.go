package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentdb/diskquota/pkg/types"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestQuotaConfigUpsertGetDelete(t *testing.T) {
	store := newTestStore(t)
	target := types.TargetID{PrimaryID: 42}
	cfg := types.QuotaConfig{Target: target, Type: types.QuotaTypeSchema, LimitMB: 1024}

	require.NoError(t, store.UpsertQuotaConfig(cfg))

	got, found, err := store.GetQuotaConfig(target, types.QuotaTypeSchema)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, cfg, got)

	_, found, err = store.GetQuotaConfig(types.TargetID{PrimaryID: 99}, types.QuotaTypeSchema)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.DeleteQuotaConfig(target, types.QuotaTypeSchema))
	_, found, err = store.GetQuotaConfig(target, types.QuotaTypeSchema)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListQuotaConfigsReturnsAll(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpsertQuotaConfig(types.QuotaConfig{Target: types.TargetID{PrimaryID: 1}, Type: types.QuotaTypeSchema, LimitMB: 10}))
	require.NoError(t, store.UpsertQuotaConfig(types.QuotaConfig{Target: types.TargetID{PrimaryID: 2}, Type: types.QuotaTypeRole, LimitMB: 20}))

	configs, err := store.ListQuotaConfigs()
	require.NoError(t, err)
	assert.Len(t, configs, 2)
}

func TestQuotaTargetUpsertAndList(t *testing.T) {
	store := newTestStore(t)
	target := types.QuotaTarget{Type: types.QuotaTypeSchemaTablespace, PrimaryID: 7, TablespaceID: 1663}
	require.NoError(t, store.UpsertQuotaTarget(target))

	targets, err := store.ListQuotaTargets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, target, targets[0])
}

func TestTableSizeUpsertLoadDelete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.UpsertTableSize(types.TableSizeRow{RelationID: 100, SegID: 0, SizeBytes: 4096}))
	require.NoError(t, store.UpsertTableSize(types.TableSizeRow{RelationID: 100, SegID: 1, SizeBytes: 8192}))
	require.NoError(t, store.UpsertTableSize(types.TableSizeRow{RelationID: 100, SegID: types.ClusterTotalSeg, SizeBytes: 12288}))
	require.NoError(t, store.UpsertTableSize(types.TableSizeRow{RelationID: 200, SegID: 0, SizeBytes: 1024}))

	rows, err := store.LoadTableSize()
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	require.NoError(t, store.DeleteTableSizesForRelation(100))
	rows, err = store.LoadTableSize()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, types.RelationID(200), rows[0].RelationID)
}

func TestPausedFlagDefaultsFalse(t *testing.T) {
	store := newTestStore(t)
	paused, err := store.IsPaused(16)
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, store.SetPaused(16, true))
	paused, err = store.IsPaused(16)
	require.NoError(t, err)
	assert.True(t, paused)

	require.NoError(t, store.SetPaused(16, false))
	paused, err = store.IsPaused(16)
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestMonitoredDatabasesAddListRemoveIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddMonitoredDatabase(16))
	require.NoError(t, store.AddMonitoredDatabase(16))
	require.NoError(t, store.AddMonitoredDatabase(17))

	dbs, err := store.ListMonitoredDatabases()
	require.NoError(t, err)
	assert.Len(t, dbs, 2)

	require.NoError(t, store.RemoveMonitoredDatabase(16))
	dbs, err = store.ListMonitoredDatabases()
	require.NoError(t, err)
	require.Len(t, dbs, 1)
	assert.Equal(t, types.DatabaseID(17), dbs[0].DatabaseID)
}
