// Package types holds the data model shared across the disk-quota model
// engine: quota configuration, the active-table and relation caches, and
// the persisted table-size and blocklist rows.
package types

import "time"

// QuotaType enumerates the four target categories a quota can be declared
// against.
type QuotaType string

const (
	QuotaTypeSchema            QuotaType = "SCHEMA"
	QuotaTypeRole              QuotaType = "ROLE"
	QuotaTypeSchemaTablespace  QuotaType = "SCHEMA_TABLESPACE"
	QuotaTypeRoleTablespace    QuotaType = "ROLE_TABLESPACE"
)

// IsTablespaceQualified reports whether q requires a QuotaTarget row to
// resolve which tablespace a relation's contribution counts against.
func (q QuotaType) IsTablespaceQualified() bool {
	return q == QuotaTypeSchemaTablespace || q == QuotaTypeRoleTablespace
}

// NoLimit is the seg_ratio/limit sentinel meaning "quota disabled for this
// target" per the §6 size-string grammar (-1 means no limit).
const NoLimit int64 = -1

// DenyAll is the limit value meaning "reject every write-path request
// unconditionally" per the §6 size-string grammar (0 means deny all).
const DenyAll int64 = 0

// SchemaID, RoleID, TablespaceID, DatabaseID and RelationID are all host
// catalog object identifiers. They are distinct types only to keep call
// sites self-documenting; the host assigns them and the core never
// constructs new ones.
type (
	SchemaID     int64
	RoleID       int64
	TablespaceID int64
	DatabaseID   int64
	RelationID   int64
	RelfilenodeID int64
	BackendID    int32
	SegmentID    int32
)

// ClusterTotalSeg is the seg_id used for a relation's cluster-wide total
// row in TableSizeRow (§3).
const ClusterTotalSeg SegmentID = -1

// TargetID identifies the subject of a quota: a schema id, a role id, or
// (for tablespace-qualified types) a composite of the primary id and the
// tablespace id. QuotaConfig and QuotaTarget key off this pair together
// with a QuotaType.
type TargetID struct {
	PrimaryID    int64
	TablespaceID TablespaceID // zero for non-tablespace-qualified types
}

// QuotaConfig is a persisted (target_id, quota_type) -> limit mapping
// (§3, §6 quota_config table).
type QuotaConfig struct {
	Target   TargetID
	Type     QuotaType
	LimitMB  int64
	SegRatio float32 // default NoLimit; >0 enables the per-segment balance check (§4.5)
}

// LimitBytes converts LimitMB to bytes, or NoLimit/DenyAll unchanged.
func (c QuotaConfig) LimitBytes() int64 {
	switch c.LimitMB {
	case NoLimit, DenyAll:
		return c.LimitMB
	default:
		return c.LimitMB * 1024 * 1024
	}
}

// QuotaTarget records, for tablespace-qualified quota types only, that a
// given schema/role has a distinct limit on a given tablespace (§3, §6
// target table).
type QuotaTarget struct {
	Type         QuotaType
	PrimaryID    int64
	TablespaceID TablespaceID
}

// StorageKind distinguishes the physical storage format of a relation,
// which drives how its auxiliary relations are discovered (§3, §4.2).
type StorageKind string

const (
	StorageKindHeap     StorageKind = "heap"
	StorageKindAO       StorageKind = "ao"
	StorageKindExternal StorageKind = "external"
)

// ActiveFileKey is the (db, tablespace, relfilenode) triple the storage
// probes record (§3 ActiveFileEntry). It has no associated value: the
// active-table structure is a set.
type ActiveFileKey struct {
	DatabaseID    DatabaseID
	TablespaceID  TablespaceID
	RelfilenodeID RelfilenodeID
}

// RelationCacheEntry resolves a relation to its primary/auxiliary
// relationship and physical location (§3, §4.2).
type RelationCacheEntry struct {
	RelationID        RelationID
	PrimaryRelationID RelationID // equal to RelationID when this entry IS the primary
	OwnerID           RoleID
	NamespaceID       SchemaID
	BackendID         BackendID // non-zero for temp relations
	TablespaceID      TablespaceID
	DatabaseID        DatabaseID
	RelfilenodeID     RelfilenodeID
	StorageKind       StorageKind
	AuxiliaryRelationIDs map[RelationID]struct{}
}

// IsPrimary reports whether e is its own primary.
func (e *RelationCacheEntry) IsPrimary() bool {
	return e.PrimaryRelationID == e.RelationID
}

// TableSizeRow is a persisted per-(relation, segment) size snapshot (§3,
// §6 table_size table). ClusterTotalSeg holds the cross-segment sum (P3).
type TableSizeRow struct {
	RelationID RelationID
	SegID      SegmentID
	SizeBytes  int64
}

// BlockReason names why a relation was placed on the blocklist (§3
// BlocklistEntry, §4.5).
type BlockReason string

const (
	ReasonLimitExceeded          BlockReason = "LIMIT_EXCEEDED"
	ReasonNoFreeSpaceOnTablespace BlockReason = "NO_FREE_SPACE_ON_TABLESPACE"
)

// BlocklistEntry is the shared-memory value consulted by the write-path
// enforcement gate (§3, §4.6).
type BlocklistEntry struct {
	RelationID RelationID
	Target     TargetID
	Type       QuotaType
	Reason     BlockReason
	LimitMB    int64
	UsedBytes  int64
}

// SchemaVersion distinguishes the two persisted schema/RPC shapes
// described in §9 "Version bifurcation": v1 has no per-segment rows, v2
// adds seg_id. Fanout sends it in every FetchTableStat request instead of
// maintaining two code paths; segmentrpc does not read it and always
// answers in the v2 shape.
type SchemaVersion int

const (
	SchemaVersionV1 SchemaVersion = 1
	SchemaVersionV2 SchemaVersion = 2
)

// FetchMode selects the behavior of the segment-local fetch_table_stat
// RPC (§4.3, §6).
type FetchMode int

const (
	FetchActiveOID FetchMode = iota
	FetchActiveSize
)

// MonitoredDatabase is a MonitoredDbSet entry (§3): a database for which
// a worker is (or should be) running.
type MonitoredDatabase struct {
	DatabaseID DatabaseID
	Paused     bool
	AddedAt    time.Time
}
