package storage

import (
	"github.com/segmentdb/diskquota/pkg/types"
)

// Store defines the interface for the coordinator's persisted state:
// the §6 quota_config/target/table_size/state tables plus the
// monitored-database list the launcher consults at startup.
type Store interface {
	// Quota configuration (quota_config table)
	UpsertQuotaConfig(cfg types.QuotaConfig) error
	GetQuotaConfig(target types.TargetID, quotaType types.QuotaType) (types.QuotaConfig, bool, error)
	ListQuotaConfigs() ([]types.QuotaConfig, error)
	DeleteQuotaConfig(target types.TargetID, quotaType types.QuotaType) error

	// Quota targets (target table)
	UpsertQuotaTarget(target types.QuotaTarget) error
	ListQuotaTargets() ([]types.QuotaTarget, error)

	// Table sizes (table_size table)
	UpsertTableSize(row types.TableSizeRow) error
	LoadTableSize() ([]types.TableSizeRow, error)
	DeleteTableSizesForRelation(relationID types.RelationID) error

	// Per-database paused state (state table analogue)
	SetPaused(databaseID types.DatabaseID, paused bool) error
	IsPaused(databaseID types.DatabaseID) (bool, error)

	// Monitored databases (launcher startup list, §4.7)
	ListMonitoredDatabases() ([]types.MonitoredDatabase, error)
	AddMonitoredDatabase(databaseID types.DatabaseID) error
	RemoveMonitoredDatabase(databaseID types.DatabaseID) error

	Close() error
}
