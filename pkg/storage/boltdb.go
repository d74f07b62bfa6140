package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/segmentdb/diskquota/pkg/types"
)

var (
	bucketQuotaConfig  = []byte("quota_config")
	bucketQuotaTarget  = []byte("target")
	bucketTableSize    = []byte("table_size")
	bucketPaused       = []byte("paused")
	bucketMonitoredDBs = []byte("monitored_databases")
)

// BoltStore is the coordinator's persisted Store, backed by bbolt.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) the diskquota database under
// dataDir and ensures every bucket this package uses exists.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "diskquota.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketQuotaConfig,
			bucketQuotaTarget,
			bucketTableSize,
			bucketPaused,
			bucketMonitoredDBs,
		}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// quotaConfigKey composes a (target, quota_type) pair into a single bolt
// key: "<type>:<primary_id>:<tablespace_id>".
func quotaConfigKey(target types.TargetID, quotaType types.QuotaType) []byte {
	return []byte(fmt.Sprintf("%s:%d:%d", quotaType, target.PrimaryID, target.TablespaceID))
}

func (s *BoltStore) UpsertQuotaConfig(cfg types.QuotaConfig) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(cfg)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketQuotaConfig).Put(quotaConfigKey(cfg.Target, cfg.Type), data)
	})
}

func (s *BoltStore) GetQuotaConfig(target types.TargetID, quotaType types.QuotaType) (types.QuotaConfig, bool, error) {
	var cfg types.QuotaConfig
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketQuotaConfig).Get(quotaConfigKey(target, quotaType))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &cfg)
	})
	return cfg, found, err
}

func (s *BoltStore) ListQuotaConfigs() ([]types.QuotaConfig, error) {
	var configs []types.QuotaConfig
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQuotaConfig).ForEach(func(k, v []byte) error {
			var cfg types.QuotaConfig
			if err := json.Unmarshal(v, &cfg); err != nil {
				return err
			}
			configs = append(configs, cfg)
			return nil
		})
	})
	return configs, err
}

func (s *BoltStore) DeleteQuotaConfig(target types.TargetID, quotaType types.QuotaType) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQuotaConfig).Delete(quotaConfigKey(target, quotaType))
	})
}

// quotaTargetKey composes a QuotaTarget row into a single bolt key:
// "<type>:<primary_id>:<tablespace_id>".
func quotaTargetKey(target types.QuotaTarget) []byte {
	return []byte(fmt.Sprintf("%s:%d:%d", target.Type, target.PrimaryID, target.TablespaceID))
}

func (s *BoltStore) UpsertQuotaTarget(target types.QuotaTarget) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(target)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketQuotaTarget).Put(quotaTargetKey(target), data)
	})
}

func (s *BoltStore) ListQuotaTargets() ([]types.QuotaTarget, error) {
	var targets []types.QuotaTarget
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQuotaTarget).ForEach(func(k, v []byte) error {
			var target types.QuotaTarget
			if err := json.Unmarshal(v, &target); err != nil {
				return err
			}
			targets = append(targets, target)
			return nil
		})
	})
	return targets, err
}

// tableSizeKey composes a (relation_id, seg_id) pair into a single bolt
// key: "<relation_id>:<seg_id>".
func tableSizeKey(relationID types.RelationID, segID types.SegmentID) []byte {
	return []byte(fmt.Sprintf("%d:%d", relationID, segID))
}

func (s *BoltStore) UpsertTableSize(row types.TableSizeRow) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTableSize).Put(tableSizeKey(row.RelationID, row.SegID), data)
	})
}

func (s *BoltStore) LoadTableSize() ([]types.TableSizeRow, error) {
	var rows []types.TableSizeRow
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTableSize).ForEach(func(k, v []byte) error {
			var row types.TableSizeRow
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
	})
	return rows, err
}

func (s *BoltStore) DeleteTableSizesForRelation(relationID types.RelationID) error {
	prefix := []byte(fmt.Sprintf("%d:", relationID))
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTableSize)
		c := b.Cursor()
		var stale [][]byte
		for k, _ := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) SetPaused(databaseID types.DatabaseID, paused bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		val := []byte("0")
		if paused {
			val = []byte("1")
		}
		return tx.Bucket(bucketPaused).Put(databaseIDKey(databaseID), val)
	})
}

func (s *BoltStore) IsPaused(databaseID types.DatabaseID) (bool, error) {
	paused := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPaused).Get(databaseIDKey(databaseID))
		paused = len(data) == 1 && data[0] == '1'
		return nil
	})
	return paused, err
}

func (s *BoltStore) ListMonitoredDatabases() ([]types.MonitoredDatabase, error) {
	var dbs []types.MonitoredDatabase
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMonitoredDBs).ForEach(func(k, v []byte) error {
			var db types.MonitoredDatabase
			if err := json.Unmarshal(v, &db); err != nil {
				return err
			}
			dbs = append(dbs, db)
			return nil
		})
	})
	return dbs, err
}

func (s *BoltStore) AddMonitoredDatabase(databaseID types.DatabaseID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMonitoredDBs)
		key := databaseIDKey(databaseID)
		if existing := b.Get(key); existing != nil {
			return nil
		}
		data, err := json.Marshal(types.MonitoredDatabase{DatabaseID: databaseID})
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (s *BoltStore) RemoveMonitoredDatabase(databaseID types.DatabaseID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMonitoredDBs).Delete(databaseIDKey(databaseID))
	})
}

func databaseIDKey(databaseID types.DatabaseID) []byte {
	return []byte(strconv.FormatInt(int64(databaseID), 10))
}
