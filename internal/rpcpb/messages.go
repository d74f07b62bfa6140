// Package rpcpb is the wire package for internal/rpcpb/rpc.proto (§6
// "Internal RPC"). No protoc toolchain produced these types: the
// generated pb.go this service would normally depend on was not part of
// the retrieved reference material, so the messages below are authored
// directly against rpc.proto's documented shape, and framed over gRPC
// using a JSON codec (codec.go) instead of the usual protobuf wire
// format. google.golang.org/protobuf's well-known types are still used
// where a real timestamp crosses the wire (CollectedAt below), so the
// dependency is exercised rather than merely declared.
package rpcpb

import "google.golang.org/protobuf/types/known/timestamppb"

// FetchMode mirrors §4.3's two fetch_table_stat modes.
type FetchMode int32

const (
	FetchModeActiveOID  FetchMode = 0
	FetchModeActiveSize FetchMode = 1
)

// FetchTableStatRequest is the request message for SegmentService.FetchTableStat.
type FetchTableStatRequest struct {
	Mode          FetchMode `json:"mode"`
	RelationIDs   []int64   `json:"relation_ids"`
	SchemaVersion int32     `json:"schema_version"`
}

// TableStatRow is one (relation_id, size_bytes, seg_id) tuple (§4.4).
type TableStatRow struct {
	RelationID  int64                  `json:"relation_id"`
	SizeBytes   int64                  `json:"size_bytes"`
	SegID       int32                  `json:"seg_id"`
	CollectedAt *timestamppb.Timestamp `json:"collected_at,omitempty"`
}

// FetchTableStatResponse is the response message for
// SegmentService.FetchTableStat. RelationIDs is populated for
// FETCH_ACTIVE_OID; Rows is populated for FETCH_ACTIVE_SIZE.
type FetchTableStatResponse struct {
	RelationIDs []int64        `json:"relation_ids,omitempty"`
	Rows        []TableStatRow `json:"rows,omitempty"`
}

// RelationSizeLocalRequest is the request message for
// SegmentService.RelationSizeLocal (§4.3 relation_size_local).
type RelationSizeLocalRequest struct {
	TablespaceID  int64 `json:"tablespace_id"`
	RelfilenodeID int64 `json:"relfilenode_id"`
	IsTemp        bool  `json:"is_temp"`
}

// RelationSizeLocalResponse is the response message for
// SegmentService.RelationSizeLocal.
type RelationSizeLocalResponse struct {
	SizeBytes int64 `json:"size_bytes"`
}

// SetSchemaQuotaRequest is the request message for
// ManagementService.SetSchemaQuota.
type SetSchemaQuotaRequest struct {
	Schema  string `json:"schema"`
	SizeStr string `json:"size_str"`
}

// SetRoleQuotaRequest is the request message for
// ManagementService.SetRoleQuota.
type SetRoleQuotaRequest struct {
	Role    string `json:"role"`
	SizeStr string `json:"size_str"`
}

// SetSchemaTablespaceQuotaRequest is the request message for
// ManagementService.SetSchemaTablespaceQuota.
type SetSchemaTablespaceQuotaRequest struct {
	Schema     string `json:"schema"`
	Tablespace string `json:"tablespace"`
	SizeStr    string `json:"size_str"`
}

// SetRoleTablespaceQuotaRequest is the request message for
// ManagementService.SetRoleTablespaceQuota.
type SetRoleTablespaceQuotaRequest struct {
	Role       string `json:"role"`
	Tablespace string `json:"tablespace"`
	SizeStr    string `json:"size_str"`
}

// SetPerSegmentQuotaRequest is the request message for
// ManagementService.SetPerSegmentQuota.
type SetPerSegmentQuotaRequest struct {
	Target string  `json:"target"`
	Ratio  float32 `json:"ratio"`
}

// SetQuotaResponse is the shared response message for every
// ManagementService Set*Quota RPC.
type SetQuotaResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PauseRequest is the request message for ManagementService.Pause and Resume.
type PauseRequest struct {
	DatabaseID int64 `json:"database_id"`
}

// PauseResponse is the response message for ManagementService.Pause and Resume.
type PauseResponse struct {
	OK bool `json:"ok"`
}

// InitTableSizeTableRequest is the request message for
// ManagementService.InitTableSizeTable.
type InitTableSizeTableRequest struct {
	DatabaseID int64 `json:"database_id"`
}

// InitTableSizeTableResponse is the response message for
// ManagementService.InitTableSizeTable.
type InitTableSizeTableResponse struct {
	RowsWritten int32 `json:"rows_written"`
}

// WaitForWorkerNewEpochRequest is the request message for
// ManagementService.WaitForWorkerNewEpoch.
type WaitForWorkerNewEpochRequest struct {
	DatabaseID int64 `json:"database_id"`
	SinceEpoch int64 `json:"since_epoch"`
}

// WaitForWorkerNewEpochResponse is the response message for
// ManagementService.WaitForWorkerNewEpoch.
type WaitForWorkerNewEpochResponse struct {
	Epoch int64 `json:"epoch"`
}
