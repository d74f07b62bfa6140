package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentdb/diskquota/internal/rpcpb"
	"github.com/segmentdb/diskquota/pkg/storage"
	"github.com/segmentdb/diskquota/pkg/types"
)

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewServer(store, store, nil), store
}

func TestSetSchemaQuotaPersists(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.SetSchemaQuota(context.Background(), &rpcpb.SetSchemaQuotaRequest{Schema: "s", SizeStr: "1 MB"})
	require.NoError(t, err)
	assert.True(t, resp.OK)
}

func TestSetSchemaQuotaRejectsBadSizeStr(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.SetSchemaQuota(context.Background(), &rpcpb.SetSchemaQuotaRequest{Schema: "s", SizeStr: "garbage"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
}

func TestPauseAndResumeRoundTrip(t *testing.T) {
	srv, store := newTestServer(t)

	resp, err := srv.Pause(context.Background(), &rpcpb.PauseRequest{DatabaseID: 16})
	require.NoError(t, err)
	assert.True(t, resp.OK)

	paused, err := store.IsPaused(16)
	require.NoError(t, err)
	assert.True(t, paused)

	resp, err = srv.Resume(context.Background(), &rpcpb.PauseRequest{DatabaseID: 16})
	require.NoError(t, err)
	assert.True(t, resp.OK)

	paused, err = store.IsPaused(16)
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestWritesRejectedWhenNotLeader(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.IsLeader = func() bool { return false }

	resp, err := srv.SetSchemaQuota(context.Background(), &rpcpb.SetSchemaQuotaRequest{Schema: "s", SizeStr: "1 MB"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "not the leader")
}

func TestSetPerSegmentQuotaRequiresExistingConfig(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.SetPerSegmentQuota(context.Background(), &rpcpb.SetPerSegmentQuotaRequest{Target: "s", Ratio: 0.2})
	require.NoError(t, err)
	assert.False(t, resp.OK)
}

func TestInitTableSizeTableReportsRowCount(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.UpsertTableSize(types.TableSizeRow{RelationID: 100, SegID: types.ClusterTotalSeg, SizeBytes: 4096}))

	resp, err := srv.InitTableSizeTable(context.Background(), &rpcpb.InitTableSizeTableRequest{DatabaseID: 16})
	require.NoError(t, err)
	assert.Equal(t, int32(1), resp.RowsWritten)
}
