// Package segmentrpc implements the segment-local size service (§4.3):
// fetch_table_stat's two modes and the relation_size_local primitive,
// exposed over gRPC as rpcpb.SegmentService. Grounded on the gRPC
// server wiring in the teacher's pkg/worker/worker.go (NewServer +
// credentials setup),
// generalized from a worker-control API to a size-reporting one.
package segmentrpc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/segmentdb/diskquota/internal/rpcpb"
	"github.com/segmentdb/diskquota/pkg/activetable"
	"github.com/segmentdb/diskquota/pkg/catalog"
	"github.com/segmentdb/diskquota/pkg/log"
	"github.com/segmentdb/diskquota/pkg/probes"
	"github.com/segmentdb/diskquota/pkg/relcache"
	"github.com/segmentdb/diskquota/pkg/types"
)

// SizeComputer computes the on-disk size of a relation's forks given a
// tablespace id and relfilenode, tolerating ENOENT as zero (§4.3,
// relation_size_local). The default implementation walks a data
// directory; tests substitute a fake.
type SizeComputer func(tablespaceID types.TablespaceID, relfilenodeID types.RelfilenodeID, isTemp bool) (int64, error)

// Server implements rpcpb.SegmentServiceServer against a segment's
// local active-file store, relation cache, and host catalog.
type Server struct {
	rpcpb.UnimplementedSegmentServiceServer
	Role          probes.Role
	SegID         types.SegmentID
	DatabaseID    types.DatabaseID
	ActiveFiles   *activetable.Store
	RelationCache *relcache.Cache
	Catalog       catalog.HostCatalog
	ComputeSize   SizeComputer
}

// NewServer builds a segmentrpc.Server. computeSize is stored as given;
// NewServer supplies no default, so callers pass one such as
// StatSizeComputer(dataDir).
func NewServer(role probes.Role, segID types.SegmentID, databaseID types.DatabaseID, activeFiles *activetable.Store, relCache *relcache.Cache, cat catalog.HostCatalog, computeSize SizeComputer) *Server {
	return &Server{
		Role:          role,
		SegID:         segID,
		DatabaseID:    databaseID,
		ActiveFiles:   activeFiles,
		RelationCache: relCache,
		Catalog:       cat,
		ComputeSize:   computeSize,
	}
}

// FetchTableStat implements both FETCH_ACTIVE_OID and FETCH_ACTIVE_SIZE
// (§4.3). The coordinator and mirror replicas return an empty response.
func (s *Server) FetchTableStat(ctx context.Context, req *rpcpb.FetchTableStatRequest) (*rpcpb.FetchTableStatResponse, error) {
	if s.Role == probes.RoleCoordinator || s.Role == probes.RoleMirror {
		return &rpcpb.FetchTableStatResponse{}, nil
	}

	switch rpcpb.FetchMode(req.Mode) {
	case rpcpb.FetchModeActiveOID:
		return s.fetchActiveOID(), nil
	case rpcpb.FetchModeActiveSize:
		return s.fetchActiveSize(ctx, req.RelationIDs), nil
	default:
		return nil, fmt.Errorf("segmentrpc: unknown fetch mode %d", req.Mode)
	}
}

func (s *Server) fetchActiveOID() *rpcpb.FetchTableStatResponse {
	resolved := s.ActiveFiles.Drain(func(key types.ActiveFileKey) (types.RelationID, bool) {
		if key.DatabaseID != s.DatabaseID {
			return 0, false
		}
		relationID, ok := s.RelationCache.LookupByRelfilenode(key.DatabaseID, key.TablespaceID, key.RelfilenodeID)
		if !ok {
			return 0, false
		}
		primary, ok := s.RelationCache.LookupPrimary(relationID)
		if !ok {
			return 0, false
		}
		return primary, true
	})

	ids := make([]int64, 0, len(resolved))
	for relationID := range resolved {
		ids = append(ids, int64(relationID))
	}
	return &rpcpb.FetchTableStatResponse{RelationIDs: ids}
}

// fetchActiveSize computes, for each input relation id, the sum of the
// primary plus every auxiliary relation's on-disk size. Each relation's
// computation is isolated so one failure yields size 0 for that
// relation without affecting the others (§4.3 "scoped sub-transaction").
func (s *Server) fetchActiveSize(ctx context.Context, relationIDs []int64) *rpcpb.FetchTableStatResponse {
	rows := make([]rpcpb.TableStatRow, 0, len(relationIDs))
	now := timestamppb.Now()

	for _, rid := range relationIDs {
		relationID := types.RelationID(rid)
		size, err := s.computeRelationSize(ctx, relationID)
		if err != nil {
			log.WithRelation(fmt.Sprint(relationID)).Warn().Err(err).Msg("size computation failed, reporting 0 for this epoch")
			size = 0
		}
		rows = append(rows, rpcpb.TableStatRow{
			RelationID:  rid,
			SizeBytes:   size,
			SegID:       int32(s.SegID),
			CollectedAt: now,
		})
	}
	return &rpcpb.FetchTableStatResponse{Rows: rows}
}

func (s *Server) computeRelationSize(ctx context.Context, relationID types.RelationID) (int64, error) {
	entry, ok := s.RelationCache.Get(relationID)
	if !ok {
		info, err := s.Catalog.LookupRelation(ctx, s.DatabaseID, relationID)
		if err != nil {
			return 0, fmt.Errorf("lookup relation %d: %w", relationID, err)
		}
		size, err := s.ComputeSize(info.TablespaceID, info.RelfilenodeID, false)
		return size, err
	}

	total, err := s.ComputeSize(entry.TablespaceID, entry.RelfilenodeID, entry.BackendID != 0)
	if err != nil {
		return 0, err
	}
	for auxID := range entry.AuxiliaryRelationIDs {
		auxEntry, ok := s.RelationCache.Get(auxID)
		if !ok {
			continue
		}
		auxSize, err := s.ComputeSize(auxEntry.TablespaceID, auxEntry.RelfilenodeID, auxEntry.BackendID != 0)
		if err != nil {
			continue
		}
		total += auxSize
	}
	return total, nil
}

// RelationSizeLocal implements the low-level relation_size_local
// primitive (§4.3): walks the forks on disk by direct stat, tolerating
// ENOENT as 0.
func (s *Server) RelationSizeLocal(_ context.Context, req *rpcpb.RelationSizeLocalRequest) (*rpcpb.RelationSizeLocalResponse, error) {
	size, err := s.ComputeSize(types.TablespaceID(req.TablespaceID), types.RelfilenodeID(req.RelfilenodeID), req.IsTemp)
	if err != nil {
		return nil, err
	}
	return &rpcpb.RelationSizeLocalResponse{SizeBytes: size}, nil
}

// relationForkSuffixes are the on-disk fork suffixes a relation's main
// file may have alongside the unsuffixed main fork (heap main, fsm, vm).
var relationForkSuffixes = []string{"", "_fsm", "_vm"}

// StatSizeComputer returns a SizeComputer that walks dataDir/<tablespaceID>/<relfilenodeID>[_fork]
// and sums st.Size() across forks, tolerating a missing fork as 0 bytes
// (§4.3, §8 P7).
func StatSizeComputer(dataDir string) SizeComputer {
	return func(tablespaceID types.TablespaceID, relfilenodeID types.RelfilenodeID, _ bool) (int64, error) {
		var total int64
		for _, suffix := range relationForkSuffixes {
			path := filepath.Join(dataDir, fmt.Sprint(tablespaceID), fmt.Sprintf("%d%s", relfilenodeID, suffix))
			info, err := os.Stat(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return 0, fmt.Errorf("stat %s: %w", path, err)
			}
			total += info.Size()
		}
		return total, nil
	}
}
