// Package catalog defines the view the model engine needs onto the host
// database's system catalog: relation metadata, the default tablespace
// lookup, and relfilenode resolution (§4.2). The probes and relation
// cache consult a HostCatalog instead of talking to the host directly, so
// tests can substitute a fixed, in-memory fake.
package catalog

import (
	"context"
	"fmt"

	"github.com/segmentdb/diskquota/pkg/types"
)

// RelationInfo is the catalog row the relation cache needs to resolve a
// relfilenode back to a relation and discover its auxiliary relations
// (§3, §4.2).
type RelationInfo struct {
	RelationID        types.RelationID
	PrimaryRelationID types.RelationID
	OwnerID           types.RoleID
	NamespaceID       types.SchemaID
	TablespaceID      types.TablespaceID
	RelfilenodeID     types.RelfilenodeID
	StorageKind       types.StorageKind
	AuxiliaryRelationIDs []types.RelationID
}

// HostCatalog is the read-only view onto the host's system catalog that
// the probes and relation cache depend on.
type HostCatalog interface {
	// LookupRelation resolves a relation id to its RelationInfo. It
	// returns an error if the relation has since been dropped.
	LookupRelation(ctx context.Context, databaseID types.DatabaseID, relationID types.RelationID) (RelationInfo, error)

	// LookupByRelfilenode resolves a relfilenode back to its owning
	// relation id within a tablespace (§4.2, the reverse mapping probes
	// need when all they have is an ActiveFileKey).
	LookupByRelfilenode(ctx context.Context, databaseID types.DatabaseID, tablespaceID types.TablespaceID, relfilenodeID types.RelfilenodeID) (types.RelationID, error)

	// DefaultTablespace returns the database's default tablespace, used
	// when a relation has no explicit tablespace set.
	DefaultTablespace(ctx context.Context, databaseID types.DatabaseID) (types.TablespaceID, error)
}

// ErrNotFound is returned by a HostCatalog when the requested object no
// longer exists (the relation was dropped between the probe firing and
// the cache lookup — expected and non-fatal, §4.2).
var ErrNotFound = fmt.Errorf("catalog: object not found")

// StaticCatalog is an in-memory HostCatalog fixture for tests and for
// exercising the worker/fanout loop without a live host connection.
type StaticCatalog struct {
	Relations          map[types.RelationID]RelationInfo
	Relfilenodes       map[relfilenodeKey]types.RelationID
	DefaultTablespaces map[types.DatabaseID]types.TablespaceID
}

type relfilenodeKey struct {
	databaseID    types.DatabaseID
	tablespaceID  types.TablespaceID
	relfilenodeID types.RelfilenodeID
}

// NewStaticCatalog creates an empty StaticCatalog ready for Put calls.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		Relations:          make(map[types.RelationID]RelationInfo),
		Relfilenodes:       make(map[relfilenodeKey]types.RelationID),
		DefaultTablespaces: make(map[types.DatabaseID]types.TablespaceID),
	}
}

// Put registers a relation and indexes it by relfilenode for reverse
// lookups.
func (c *StaticCatalog) Put(databaseID types.DatabaseID, info RelationInfo) {
	c.Relations[info.RelationID] = info
	c.Relfilenodes[relfilenodeKey{databaseID, info.TablespaceID, info.RelfilenodeID}] = info.RelationID
}

func (c *StaticCatalog) LookupRelation(_ context.Context, _ types.DatabaseID, relationID types.RelationID) (RelationInfo, error) {
	info, ok := c.Relations[relationID]
	if !ok {
		return RelationInfo{}, ErrNotFound
	}
	return info, nil
}

func (c *StaticCatalog) LookupByRelfilenode(_ context.Context, databaseID types.DatabaseID, tablespaceID types.TablespaceID, relfilenodeID types.RelfilenodeID) (types.RelationID, error) {
	relationID, ok := c.Relfilenodes[relfilenodeKey{databaseID, tablespaceID, relfilenodeID}]
	if !ok {
		return 0, ErrNotFound
	}
	return relationID, nil
}

func (c *StaticCatalog) DefaultTablespace(_ context.Context, databaseID types.DatabaseID) (types.TablespaceID, error) {
	ts, ok := c.DefaultTablespaces[databaseID]
	if !ok {
		return 0, ErrNotFound
	}
	return ts, nil
}
