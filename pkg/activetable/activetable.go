// Package activetable wraps the bounded active-file map (§3
// ActiveFileEntry) with the drain-into-local-buffer-then-commit pattern
// the segment-local size service needs: entries that cannot yet be
// resolved to a relation_id are put back for a later epoch rather than
// lost (§4.3 FETCH_ACTIVE_OID).
package activetable

import (
	"github.com/segmentdb/diskquota/pkg/shmem"
	"github.com/segmentdb/diskquota/pkg/types"
)

// Store is the process-local active-file map a segment's probes write
// into and the segment-local size service drains from.
type Store struct {
	entries *shmem.BoundedMap[types.ActiveFileKey, struct{}]
}

// New creates a Store bounded to capacity entries (diskquota_max_active_tables).
func New(capacity int) *Store {
	return &Store{entries: shmem.NewBoundedMap[types.ActiveFileKey, struct{}](capacity)}
}

// Record inserts key, a no-op if already present. It reports false if
// the map was at capacity and the entry was dropped (§4.1).
func (s *Store) Record(key types.ActiveFileKey) bool {
	return s.entries.Set(key, struct{}{})
}

// Len returns the number of currently-tracked active files.
func (s *Store) Len() int { return s.entries.Len() }

// Full reports whether the map is at capacity.
func (s *Store) Full() bool { return s.entries.Full() }

// Resolver maps a storage-level key to a primary relation id, returning
// ok=false when the relation cannot yet be resolved (dropped, or the
// catalog row isn't committed yet).
type Resolver func(key types.ActiveFileKey) (primaryRelationID types.RelationID, ok bool)

// Drain empties the store under the writer lock and resolves each entry
// via resolve. Unresolved entries are put back into the map for a later
// epoch instead of being discarded (§4.3). It returns the set of
// resolved primary relation ids.
func (s *Store) Drain(resolve Resolver) map[types.RelationID]struct{} {
	drained := s.entries.DrainAll()

	resolved := make(map[types.RelationID]struct{}, len(drained))
	for key := range drained {
		primaryID, ok := resolve(key)
		if !ok {
			s.entries.Set(key, struct{}{})
			continue
		}
		resolved[primaryID] = struct{}{}
	}
	return resolved
}
