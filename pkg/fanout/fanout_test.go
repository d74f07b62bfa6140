package fanout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/segmentdb/diskquota/internal/rpcpb"
	"github.com/segmentdb/diskquota/pkg/health"
	"github.com/segmentdb/diskquota/pkg/types"
)

type fakeSegmentClient struct {
	oidResp  *rpcpb.FetchTableStatResponse
	oidErr   error
	sizeResp *rpcpb.FetchTableStatResponse
	sizeErr  error
}

func (f *fakeSegmentClient) FetchTableStat(_ context.Context, req *rpcpb.FetchTableStatRequest, _ ...grpc.CallOption) (*rpcpb.FetchTableStatResponse, error) {
	if req.Mode == rpcpb.FetchModeActiveOID {
		return f.oidResp, f.oidErr
	}
	return f.sizeResp, f.sizeErr
}

func (f *fakeSegmentClient) RelationSizeLocal(context.Context, *rpcpb.RelationSizeLocalRequest, ...grpc.CallOption) (*rpcpb.RelationSizeLocalResponse, error) {
	return &rpcpb.RelationSizeLocalResponse{}, nil
}

func TestDrainUnionsAcrossSegments(t *testing.T) {
	segs := []Segment{
		{ID: 0, Client: &fakeSegmentClient{oidResp: &rpcpb.FetchTableStatResponse{RelationIDs: []int64{100, 101}}}},
		{ID: 1, Client: &fakeSegmentClient{oidResp: &rpcpb.FetchTableStatResponse{RelationIDs: []int64{101, 102}}}},
	}
	f := New(segs, types.SchemaVersionV2)

	active, err := f.Drain(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 3)
	assert.Contains(t, active, types.RelationID(100))
	assert.Contains(t, active, types.RelationID(101))
	assert.Contains(t, active, types.RelationID(102))
}

func TestDrainToleratesSegmentFailure(t *testing.T) {
	segs := []Segment{
		{ID: 0, Client: &fakeSegmentClient{oidResp: &rpcpb.FetchTableStatResponse{RelationIDs: []int64{100}}}},
		{ID: 1, Client: &fakeSegmentClient{oidErr: errors.New("segment unreachable")}},
	}
	f := New(segs, types.SchemaVersionV2)

	active, err := f.Drain(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestDrainSkipsSegmentThatFailsLivenessProbe(t *testing.T) {
	segs := []Segment{
		{ID: 0, Client: &fakeSegmentClient{oidResp: &rpcpb.FetchTableStatResponse{RelationIDs: []int64{100}}}},
		{
			ID: 1,
			// Reserved by RFC 5737 test-net-1: guaranteed unreachable, so the
			// liveness probe always fails without depending on local port state.
			Address: "192.0.2.1:1",
			Client:  &fakeSegmentClient{oidResp: &rpcpb.FetchTableStatResponse{RelationIDs: []int64{999}}},
		},
	}
	f := New(segs, types.SchemaVersionV2)
	f.HealthConfig = health.Config{Interval: time.Second, Timeout: 50 * time.Millisecond, Retries: 1}

	active, err := f.Drain(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Contains(t, active, types.RelationID(100))
	assert.NotContains(t, active, types.RelationID(999))
}

func TestDrainUsesHealthzEndpointWhenConfigured(t *testing.T) {
	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	segs := []Segment{
		{ID: 0, HealthURL: healthy.URL + "/healthz", Client: &fakeSegmentClient{oidResp: &rpcpb.FetchTableStatResponse{RelationIDs: []int64{100}}}},
		{ID: 1, HealthURL: unhealthy.URL + "/healthz", Client: &fakeSegmentClient{oidResp: &rpcpb.FetchTableStatResponse{RelationIDs: []int64{999}}}},
	}
	f := New(segs, types.SchemaVersionV2)
	f.HealthConfig = health.Config{Interval: time.Second, Timeout: time.Second, Retries: 1}

	active, err := f.Drain(context.Background())
	require.NoError(t, err)
	assert.Contains(t, active, types.RelationID(100))
	assert.NotContains(t, active, types.RelationID(999))
}

func TestSizeAggregatesPerSegmentIntoClusterTotal(t *testing.T) {
	segs := []Segment{
		{ID: 0, Client: &fakeSegmentClient{sizeResp: &rpcpb.FetchTableStatResponse{
			Rows: []rpcpb.TableStatRow{{RelationID: 100, SizeBytes: 4096, SegID: 0}},
		}}},
		{ID: 1, Client: &fakeSegmentClient{sizeResp: &rpcpb.FetchTableStatResponse{
			Rows: []rpcpb.TableStatRow{{RelationID: 100, SizeBytes: 8192, SegID: 1}},
		}}},
	}
	f := New(segs, types.SchemaVersionV2)

	result, err := f.Size(context.Background(), []types.RelationID{100})
	require.NoError(t, err)
	assert.Equal(t, int64(12288), result.TotalByRelation[100])

	var sawTotalRow bool
	for _, row := range result.Rows {
		if row.SegID == types.ClusterTotalSeg {
			sawTotalRow = true
			assert.Equal(t, int64(12288), row.SizeBytes)
		}
	}
	assert.True(t, sawTotalRow)
	assert.Len(t, result.Rows, 3) // 2 per-segment rows + 1 total row
}

func TestRunDrainsThenSizes(t *testing.T) {
	segs := []Segment{
		{ID: 0, Client: &fakeSegmentClient{
			oidResp:  &rpcpb.FetchTableStatResponse{RelationIDs: []int64{100}},
			sizeResp: &rpcpb.FetchTableStatResponse{Rows: []rpcpb.TableStatRow{{RelationID: 100, SizeBytes: 1024, SegID: 0}}},
		}},
	}
	f := New(segs, types.SchemaVersionV1)

	result, err := f.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1024), result.TotalByRelation[100])
}
