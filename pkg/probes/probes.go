// Package probes implements the storage-event subscription points the
// host's storage manager invokes synchronously on create/extend/
// truncate/unlink of a storage file, plus the post-object-create probe
// that captures the relfilenode→relation mapping at creation time
// (§4.1). Grounded on the teacher's mailbox/event dispatch pattern in
// pkg/events/events.go, adapted from a pub/sub bus to direct,
// synchronous hook calls.
package probes

import (
	"context"

	"github.com/segmentdb/diskquota/pkg/catalog"
	"github.com/segmentdb/diskquota/pkg/log"
	"github.com/segmentdb/diskquota/pkg/relcache"
	"github.com/segmentdb/diskquota/pkg/shmem"
	"github.com/segmentdb/diskquota/pkg/types"
)

// ReservedOIDBoundary is the host's dividing line between system and
// user-visible object ids; the post-object-create probe ignores
// anything at or below it (§4.1).
const ReservedOIDBoundary types.RelationID = 16384

// Role distinguishes a process's position in the cluster so the file
// probes can no-op on the coordinator and on mirror replicas (§4.1).
type Role int

const (
	RolePrimarySegment Role = iota
	RoleCoordinator
	RoleMirror
)

// Hooks implements the four storage-event probes and the post-create
// object probe against a process-local active-file map and relation
// cache.
type Hooks struct {
	Role            Role
	MonitoredDBs    *shmem.BoundedMap[types.DatabaseID, struct{}]
	ActiveFiles     *shmem.BoundedMap[types.ActiveFileKey, struct{}]
	RelationCache   *relcache.Cache
	Catalog         catalog.HostCatalog
}

// NewHooks builds a Hooks bound to the given shared active-file map,
// monitored-database set, and relation cache.
func NewHooks(role Role, monitoredDBs *shmem.BoundedMap[types.DatabaseID, struct{}], activeFiles *shmem.BoundedMap[types.ActiveFileKey, struct{}], relCache *relcache.Cache, cat catalog.HostCatalog) *Hooks {
	return &Hooks{
		Role:          role,
		MonitoredDBs:  monitoredDBs,
		ActiveFiles:   activeFiles,
		RelationCache: relCache,
		Catalog:       cat,
	}
}

func (h *Hooks) shouldSkip(databaseID types.DatabaseID) bool {
	if h.Role == RoleCoordinator || h.Role == RoleMirror {
		return true
	}
	_, monitored := h.MonitoredDBs.Get(databaseID)
	return !monitored
}

func (h *Hooks) recordActiveFile(key types.ActiveFileKey) {
	if !h.ActiveFiles.Set(key, struct{}{}) {
		log.Logger.Warn().
			Int64("database_id", int64(key.DatabaseID)).
			Int32("relfilenode_id", int32(key.RelfilenodeID)).
			Msg("active-table map at capacity, dropping probe entry")
	}
}

// OnCreate handles the storage manager's create-relation-file event.
func (h *Hooks) OnCreate(databaseID types.DatabaseID, tablespaceID types.TablespaceID, relfilenodeID types.RelfilenodeID, _ types.BackendID) {
	if h.shouldSkip(databaseID) {
		return
	}
	h.recordActiveFile(types.ActiveFileKey{DatabaseID: databaseID, TablespaceID: tablespaceID, RelfilenodeID: relfilenodeID})
}

// OnExtend handles the storage manager's extend-relation-file event.
func (h *Hooks) OnExtend(databaseID types.DatabaseID, tablespaceID types.TablespaceID, relfilenodeID types.RelfilenodeID, _ types.BackendID) {
	if h.shouldSkip(databaseID) {
		return
	}
	h.recordActiveFile(types.ActiveFileKey{DatabaseID: databaseID, TablespaceID: tablespaceID, RelfilenodeID: relfilenodeID})
}

// OnTruncate handles the storage manager's truncate-relation-file event.
func (h *Hooks) OnTruncate(databaseID types.DatabaseID, tablespaceID types.TablespaceID, relfilenodeID types.RelfilenodeID, _ types.BackendID) {
	if h.shouldSkip(databaseID) {
		return
	}
	h.recordActiveFile(types.ActiveFileKey{DatabaseID: databaseID, TablespaceID: tablespaceID, RelfilenodeID: relfilenodeID})
}

// OnUnlink handles the storage manager's unlink-relation-file event. In
// addition to recording the active file, it evicts any relation cache
// entry still pointing at the unlinked relfilenode.
func (h *Hooks) OnUnlink(databaseID types.DatabaseID, tablespaceID types.TablespaceID, relfilenodeID types.RelfilenodeID, backendID types.BackendID) {
	if h.shouldSkip(databaseID) {
		return
	}
	h.recordActiveFile(types.ActiveFileKey{DatabaseID: databaseID, TablespaceID: tablespaceID, RelfilenodeID: relfilenodeID})
	h.RelationCache.EvictByRelfilenode(databaseID, tablespaceID, relfilenodeID)
}

// OnPostObjectCreate handles the OAT_POST_CREATE object-access probe.
// It is filtered by the caller to relation-class objects; here we only
// apply the reserved-oid boundary check (§4.1) before refreshing the
// relation cache entry.
func (h *Hooks) OnPostObjectCreate(ctx context.Context, databaseID types.DatabaseID, relationID types.RelationID) {
	if h.shouldSkip(databaseID) {
		return
	}
	if relationID <= ReservedOIDBoundary {
		return
	}
	if err := h.RelationCache.Update(ctx, h.Catalog, databaseID, relationID); err != nil {
		log.Logger.Debug().
			Int64("relation_id", int64(relationID)).
			Err(err).
			Msg("post-create relation cache update deferred")
	}
}
