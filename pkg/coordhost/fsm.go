package coordhost

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/raft"

	"github.com/segmentdb/diskquota/pkg/storage"
	"github.com/segmentdb/diskquota/pkg/types"
)

// FSM applies replicated management-plane commands to the local store:
// QuotaConfig, QuotaTarget, the per-database paused flag, and
// MonitoredDbSet membership (§6 management functions, §11 Open Question
// on HA scope). Table-size rows are intentionally NOT replicated: they
// are each worker's local working set, rebuilt every epoch from segment
// fanout, not cluster configuration.
type FSM struct {
	mu    sync.RWMutex
	store storage.Store
}

// NewFSM wraps store as a raft.FSM.
func NewFSM(store storage.Store) *FSM {
	return &FSM{store: store}
}

// Command is the envelope written to the raft log for every replicated
// operation.
type Command struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

const (
	OpUpsertQuotaConfig     = "upsert_quota_config"
	OpDeleteQuotaConfig     = "delete_quota_config"
	OpUpsertQuotaTarget     = "upsert_quota_target"
	OpSetPaused             = "set_paused"
	OpAddMonitoredDatabase  = "add_monitored_database"
	OpRemoveMonitoredDatabase = "remove_monitored_database"
)

type deleteQuotaConfigPayload struct {
	Target types.TargetID  `json:"target"`
	Type   types.QuotaType `json:"type"`
}

type setPausedPayload struct {
	DatabaseID types.DatabaseID `json:"database_id"`
	Paused     bool             `json:"paused"`
}

type databaseIDPayload struct {
	DatabaseID types.DatabaseID `json:"database_id"`
}

// Apply applies one committed raft log entry to the local store.
func (f *FSM) Apply(log *raft.Log) interface{} {
	var cmd Command
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return fmt.Errorf("coordhost: failed to unmarshal command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd.Op {
	case OpUpsertQuotaConfig:
		var cfg types.QuotaConfig
		if err := json.Unmarshal(cmd.Data, &cfg); err != nil {
			return err
		}
		return f.store.UpsertQuotaConfig(cfg)

	case OpDeleteQuotaConfig:
		var payload deleteQuotaConfigPayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			return err
		}
		return f.store.DeleteQuotaConfig(payload.Target, payload.Type)

	case OpUpsertQuotaTarget:
		var target types.QuotaTarget
		if err := json.Unmarshal(cmd.Data, &target); err != nil {
			return err
		}
		return f.store.UpsertQuotaTarget(target)

	case OpSetPaused:
		var payload setPausedPayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			return err
		}
		return f.store.SetPaused(payload.DatabaseID, payload.Paused)

	case OpAddMonitoredDatabase:
		var payload databaseIDPayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			return err
		}
		return f.store.AddMonitoredDatabase(payload.DatabaseID)

	case OpRemoveMonitoredDatabase:
		var payload databaseIDPayload
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			return err
		}
		return f.store.RemoveMonitoredDatabase(payload.DatabaseID)

	default:
		return fmt.Errorf("coordhost: unknown command %q", cmd.Op)
	}
}

// Snapshot captures the entire replicated state for log compaction.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	configs, err := f.store.ListQuotaConfigs()
	if err != nil {
		return nil, fmt.Errorf("coordhost: list quota configs: %w", err)
	}
	targets, err := f.store.ListQuotaTargets()
	if err != nil {
		return nil, fmt.Errorf("coordhost: list quota targets: %w", err)
	}
	dbs, err := f.store.ListMonitoredDatabases()
	if err != nil {
		return nil, fmt.Errorf("coordhost: list monitored databases: %w", err)
	}

	return &snapshot{Configs: configs, Targets: targets, Databases: dbs}, nil
}

// Restore replaces local state with a previously captured snapshot.
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var snap snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return fmt.Errorf("coordhost: decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, cfg := range snap.Configs {
		if err := f.store.UpsertQuotaConfig(cfg); err != nil {
			return fmt.Errorf("coordhost: restore quota config: %w", err)
		}
	}
	for _, target := range snap.Targets {
		if err := f.store.UpsertQuotaTarget(target); err != nil {
			return fmt.Errorf("coordhost: restore quota target: %w", err)
		}
	}
	for _, db := range snap.Databases {
		if err := f.store.AddMonitoredDatabase(db.DatabaseID); err != nil {
			return fmt.Errorf("coordhost: restore monitored database: %w", err)
		}
		if db.Paused {
			if err := f.store.SetPaused(db.DatabaseID, true); err != nil {
				return fmt.Errorf("coordhost: restore paused flag: %w", err)
			}
		}
	}
	return nil
}

// snapshot is the point-in-time replicated state (§11 HA scope).
type snapshot struct {
	Configs   []types.QuotaConfig        `json:"configs"`
	Targets   []types.QuotaTarget        `json:"targets"`
	Databases []types.MonitoredDatabase  `json:"databases"`
}

func (s *snapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

func (s *snapshot) Release() {}
