// Package api implements the gRPC ManagementService (§6): the write
// operations a cluster admin or the diskquota-ctl CLI issues, plus the
// read-only wait_for_worker_new_epoch RPC the test scenarios in §8 rely
// on to make the epoch boundary observable.
package api

import (
	"context"
	"fmt"

	"github.com/segmentdb/diskquota/internal/rpcpb"
	"github.com/segmentdb/diskquota/pkg/launcher"
	"github.com/segmentdb/diskquota/pkg/sizestr"
	"github.com/segmentdb/diskquota/pkg/storage"
	"github.com/segmentdb/diskquota/pkg/types"
)

// Replicator is the write path for management-plane state: either a
// coordhost.Node (replicated via raft, HA mode) or a storage.Store
// directly (single-node mode) — storage.Store's CRUD methods already
// match this interface's shape.
type Replicator interface {
	UpsertQuotaConfig(cfg types.QuotaConfig) error
	DeleteQuotaConfig(target types.TargetID, quotaType types.QuotaType) error
	UpsertQuotaTarget(target types.QuotaTarget) error
	SetPaused(databaseID types.DatabaseID, paused bool) error
}

// Server implements rpcpb.ManagementServiceServer.
type Server struct {
	rpcpb.UnimplementedManagementServiceServer

	Replicator Replicator
	Store      storage.Store
	Launcher   *launcher.Launcher

	// IsLeader gates every write RPC: only the raft leader accepts
	// writes (§11). Defaults to always-true for single-node mode.
	IsLeader func() bool
}

// NewServer builds a Server. In single-node mode pass store as both
// replicator and store.
func NewServer(replicator Replicator, store storage.Store, l *launcher.Launcher) *Server {
	return &Server{
		Replicator: replicator,
		Store:      store,
		Launcher:   l,
		IsLeader:   func() bool { return true },
	}
}

func (s *Server) ensureLeader() error {
	if !s.IsLeader() {
		return fmt.Errorf("not the leader; retry against the current leader")
	}
	return nil
}

func (s *Server) setQuota(target types.TargetID, quotaType types.QuotaType, sizeStr string) (*rpcpb.SetQuotaResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return &rpcpb.SetQuotaResponse{OK: false, Error: err.Error()}, nil
	}
	limitMB, err := sizestr.ParseMB(sizeStr)
	if err != nil {
		return &rpcpb.SetQuotaResponse{OK: false, Error: err.Error()}, nil
	}
	cfg := types.QuotaConfig{Target: target, Type: quotaType, LimitMB: limitMB, SegRatio: types.NoLimit}
	if err := s.Replicator.UpsertQuotaConfig(cfg); err != nil {
		return &rpcpb.SetQuotaResponse{OK: false, Error: err.Error()}, nil
	}
	return &rpcpb.SetQuotaResponse{OK: true}, nil
}

// SetSchemaQuota implements ManagementService.SetSchemaQuota.
func (s *Server) SetSchemaQuota(_ context.Context, req *rpcpb.SetSchemaQuotaRequest) (*rpcpb.SetQuotaResponse, error) {
	return s.setQuota(types.TargetID{PrimaryID: hashName(req.Schema)}, types.QuotaTypeSchema, req.SizeStr)
}

// SetRoleQuota implements ManagementService.SetRoleQuota.
func (s *Server) SetRoleQuota(_ context.Context, req *rpcpb.SetRoleQuotaRequest) (*rpcpb.SetQuotaResponse, error) {
	return s.setQuota(types.TargetID{PrimaryID: hashName(req.Role)}, types.QuotaTypeRole, req.SizeStr)
}

// SetSchemaTablespaceQuota implements ManagementService.SetSchemaTablespaceQuota.
func (s *Server) SetSchemaTablespaceQuota(_ context.Context, req *rpcpb.SetSchemaTablespaceQuotaRequest) (*rpcpb.SetQuotaResponse, error) {
	target := types.TargetID{PrimaryID: hashName(req.Schema), TablespaceID: types.TablespaceID(hashName(req.Tablespace))}
	if err := s.ensureLeader(); err != nil {
		return &rpcpb.SetQuotaResponse{OK: false, Error: err.Error()}, nil
	}
	if err := s.Replicator.UpsertQuotaTarget(types.QuotaTarget{Type: types.QuotaTypeSchemaTablespace, PrimaryID: target.PrimaryID, TablespaceID: target.TablespaceID}); err != nil {
		return &rpcpb.SetQuotaResponse{OK: false, Error: err.Error()}, nil
	}
	return s.setQuota(target, types.QuotaTypeSchemaTablespace, req.SizeStr)
}

// SetRoleTablespaceQuota implements ManagementService.SetRoleTablespaceQuota.
func (s *Server) SetRoleTablespaceQuota(_ context.Context, req *rpcpb.SetRoleTablespaceQuotaRequest) (*rpcpb.SetQuotaResponse, error) {
	target := types.TargetID{PrimaryID: hashName(req.Role), TablespaceID: types.TablespaceID(hashName(req.Tablespace))}
	if err := s.ensureLeader(); err != nil {
		return &rpcpb.SetQuotaResponse{OK: false, Error: err.Error()}, nil
	}
	if err := s.Replicator.UpsertQuotaTarget(types.QuotaTarget{Type: types.QuotaTypeRoleTablespace, PrimaryID: target.PrimaryID, TablespaceID: target.TablespaceID}); err != nil {
		return &rpcpb.SetQuotaResponse{OK: false, Error: err.Error()}, nil
	}
	return s.setQuota(target, types.QuotaTypeRoleTablespace, req.SizeStr)
}

// SetPerSegmentQuota implements ManagementService.SetPerSegmentQuota.
func (s *Server) SetPerSegmentQuota(_ context.Context, req *rpcpb.SetPerSegmentQuotaRequest) (*rpcpb.SetQuotaResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return &rpcpb.SetQuotaResponse{OK: false, Error: err.Error()}, nil
	}
	if req.Ratio <= 0 {
		return &rpcpb.SetQuotaResponse{OK: false, Error: "ratio must be > 0"}, nil
	}

	target := types.TargetID{PrimaryID: hashName(req.Target)}
	for _, qt := range []types.QuotaType{types.QuotaTypeSchema, types.QuotaTypeRole, types.QuotaTypeSchemaTablespace, types.QuotaTypeRoleTablespace} {
		cfg, found, err := s.Store.GetQuotaConfig(target, qt)
		if err != nil || !found {
			continue
		}
		cfg.SegRatio = req.Ratio
		if err := s.Replicator.UpsertQuotaConfig(cfg); err != nil {
			return &rpcpb.SetQuotaResponse{OK: false, Error: err.Error()}, nil
		}
		return &rpcpb.SetQuotaResponse{OK: true}, nil
	}
	return &rpcpb.SetQuotaResponse{OK: false, Error: "no existing quota config found for target"}, nil
}

// Pause implements ManagementService.Pause.
func (s *Server) Pause(_ context.Context, req *rpcpb.PauseRequest) (*rpcpb.PauseResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return &rpcpb.PauseResponse{OK: false}, err
	}
	if err := s.Replicator.SetPaused(types.DatabaseID(req.DatabaseID), true); err != nil {
		return &rpcpb.PauseResponse{OK: false}, err
	}
	return &rpcpb.PauseResponse{OK: true}, nil
}

// Resume implements ManagementService.Resume.
func (s *Server) Resume(_ context.Context, req *rpcpb.PauseRequest) (*rpcpb.PauseResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return &rpcpb.PauseResponse{OK: false}, err
	}
	if err := s.Replicator.SetPaused(types.DatabaseID(req.DatabaseID), false); err != nil {
		return &rpcpb.PauseResponse{OK: false}, err
	}
	return &rpcpb.PauseResponse{OK: true}, nil
}

// InitTableSizeTable implements ManagementService.InitTableSizeTable: it
// reports, as RowsWritten, the number of rows currently stored in
// table_size (§6). It does not recompute or write any sizes; table_size
// is filled by the worker epoch loop.
func (s *Server) InitTableSizeTable(ctx context.Context, req *rpcpb.InitTableSizeTableRequest) (*rpcpb.InitTableSizeTableResponse, error) {
	if err := s.ensureLeader(); err != nil {
		return nil, err
	}
	rows, err := s.Store.LoadTableSize()
	if err != nil {
		return nil, err
	}
	return &rpcpb.InitTableSizeTableResponse{RowsWritten: int32(len(rows))}, nil
}

// WaitForWorkerNewEpoch implements ManagementService.WaitForWorkerNewEpoch,
// the hook the §8 test scenarios use to make epoch completion observable.
func (s *Server) WaitForWorkerNewEpoch(ctx context.Context, req *rpcpb.WaitForWorkerNewEpochRequest) (*rpcpb.WaitForWorkerNewEpochResponse, error) {
	epoch, err := s.Launcher.WaitForNewEpoch(ctx, types.DatabaseID(req.DatabaseID), req.SinceEpoch)
	if err != nil {
		return nil, err
	}
	return &rpcpb.WaitForWorkerNewEpochResponse{Epoch: epoch}, nil
}

// hashName derives a stable int64 id from a schema/role/tablespace name
// for tests and single-node deployments where no live catalog lookup is
// wired; a real host integration would resolve the name via Catalog
// instead.
func hashName(name string) int64 {
	var h uint64 = 14695981039346656037 // FNV-1a offset basis
	for _, b := range []byte(name) {
		h ^= uint64(b)
		h *= 1099511628211
	}
	id := int64(h & 0x7fffffffffffffff) // clear sign bit; always non-negative
	return id
}
