package client

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/segmentdb/diskquota/internal/rpcpb"
	"github.com/segmentdb/diskquota/pkg/api"
	"github.com/segmentdb/diskquota/pkg/storage"
)

// newTestClient starts an in-process ManagementService backed by a real
// BoltStore and dials it over a bufconn listener, exercising the same
// codec wiring a coordinator connection would use.
func newTestClient(t *testing.T) *Client {
	t.Helper()

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := grpc.NewServer()
	rpcpb.RegisterManagementServiceServer(srv, api.NewServer(store, store, nil))

	lis := bufconn.Listen(1024 * 1024)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(rpcpb.CallOption()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &Client{conn: conn, client: rpcpb.NewManagementServiceClient(conn)}
}

func TestSetSchemaQuotaRoundTrip(t *testing.T) {
	c := newTestClient(t)
	err := c.SetSchemaQuota(context.Background(), "payments", "10 GB")
	require.NoError(t, err)
}

func TestSetSchemaQuotaRejectsBadSizeStr(t *testing.T) {
	c := newTestClient(t)
	err := c.SetSchemaQuota(context.Background(), "payments", "garbage")
	assert.Error(t, err)
}

func TestPauseAndResumeRoundTrip(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.Pause(context.Background(), 7))
	require.NoError(t, c.Resume(context.Background(), 7))
}

func TestInitTableSizeTableReturnsRowCount(t *testing.T) {
	c := newTestClient(t)
	rows, err := c.InitTableSizeTable(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int32(0), rows)
}

func TestSetPerSegmentQuotaWithoutExistingConfigFails(t *testing.T) {
	c := newTestClient(t)
	err := c.SetPerSegmentQuota(context.Background(), "payments", 0.2)
	assert.Error(t, err)
}
