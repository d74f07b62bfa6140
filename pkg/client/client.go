// Package client is a thin typed wrapper around rpcpb.ManagementServiceClient
// for diskquota-ctl and other management-plane callers: it dials the
// coordinator, selects the rpcpb JSON codec, and exposes one method per
// §6 management function.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/segmentdb/diskquota/internal/rpcpb"
)

// Client is a connection to a coordinator's ManagementService.
type Client struct {
	conn   *grpc.ClientConn
	client rpcpb.ManagementServiceClient
}

// New dials addr (host:port of the current raft leader or a single-node
// coordinator) and returns a ready-to-use Client.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(rpcpb.CallOption()),
	)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, client: rpcpb.NewManagementServiceClient(conn)}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SetSchemaQuota sets a schema-level quota (§6 set_schema_quota).
func (c *Client) SetSchemaQuota(ctx context.Context, schema, sizeStr string) error {
	resp, err := c.client.SetSchemaQuota(ctx, &rpcpb.SetSchemaQuotaRequest{Schema: schema, SizeStr: sizeStr})
	if err != nil {
		return err
	}
	return responseError(resp.OK, resp.Error)
}

// SetRoleQuota sets a role-level quota (§6 set_role_quota).
func (c *Client) SetRoleQuota(ctx context.Context, role, sizeStr string) error {
	resp, err := c.client.SetRoleQuota(ctx, &rpcpb.SetRoleQuotaRequest{Role: role, SizeStr: sizeStr})
	if err != nil {
		return err
	}
	return responseError(resp.OK, resp.Error)
}

// SetSchemaTablespaceQuota sets a (schema, tablespace) quota (§6
// set_schema_tablespace_quota).
func (c *Client) SetSchemaTablespaceQuota(ctx context.Context, schema, tablespace, sizeStr string) error {
	resp, err := c.client.SetSchemaTablespaceQuota(ctx, &rpcpb.SetSchemaTablespaceQuotaRequest{
		Schema: schema, Tablespace: tablespace, SizeStr: sizeStr,
	})
	if err != nil {
		return err
	}
	return responseError(resp.OK, resp.Error)
}

// SetRoleTablespaceQuota sets a (role, tablespace) quota (§6
// set_role_tablespace_quota).
func (c *Client) SetRoleTablespaceQuota(ctx context.Context, role, tablespace, sizeStr string) error {
	resp, err := c.client.SetRoleTablespaceQuota(ctx, &rpcpb.SetRoleTablespaceQuotaRequest{
		Role: role, Tablespace: tablespace, SizeStr: sizeStr,
	})
	if err != nil {
		return err
	}
	return responseError(resp.OK, resp.Error)
}

// SetPerSegmentQuota sets the seg_ratio balance threshold for an
// existing target (§6 set_per_segment_quota).
func (c *Client) SetPerSegmentQuota(ctx context.Context, target string, ratio float64) error {
	resp, err := c.client.SetPerSegmentQuota(ctx, &rpcpb.SetPerSegmentQuotaRequest{Target: target, Ratio: float32(ratio)})
	if err != nil {
		return err
	}
	return responseError(resp.OK, resp.Error)
}

// Pause suspends enforcement for databaseID without clearing the
// blocklist (§6 pause, P6 pause neutrality).
func (c *Client) Pause(ctx context.Context, databaseID int64) error {
	resp, err := c.client.Pause(ctx, &rpcpb.PauseRequest{DatabaseID: databaseID})
	if err != nil {
		return err
	}
	return responseError(resp.OK, "")
}

// Resume resumes enforcement for databaseID (§6 resume).
func (c *Client) Resume(ctx context.Context, databaseID int64) error {
	resp, err := c.client.Resume(ctx, &rpcpb.PauseRequest{DatabaseID: databaseID})
	if err != nil {
		return err
	}
	return responseError(resp.OK, "")
}

// InitTableSizeTable returns the number of rows the coordinator currently
// holds in table_size (§6 init_table_size_table). The coordinator does not
// recompute or write sizes for this call.
func (c *Client) InitTableSizeTable(ctx context.Context, databaseID int64) (int32, error) {
	resp, err := c.client.InitTableSizeTable(ctx, &rpcpb.InitTableSizeTableRequest{DatabaseID: databaseID})
	if err != nil {
		return 0, err
	}
	return resp.RowsWritten, nil
}

// WaitForWorkerNewEpoch blocks until databaseID's worker completes an
// epoch past sinceEpoch, returning the epoch reached (§6
// wait_for_worker_new_epoch, used by the §8 test scenarios).
func (c *Client) WaitForWorkerNewEpoch(ctx context.Context, databaseID, sinceEpoch int64) (int64, error) {
	resp, err := c.client.WaitForWorkerNewEpoch(ctx, &rpcpb.WaitForWorkerNewEpochRequest{
		DatabaseID: databaseID, SinceEpoch: sinceEpoch,
	})
	if err != nil {
		return 0, err
	}
	return resp.Epoch, nil
}

func responseError(ok bool, errStr string) error {
	if ok {
		return nil
	}
	if errStr == "" {
		errStr = "request rejected"
	}
	return fmt.Errorf("client: %s", errStr)
}
