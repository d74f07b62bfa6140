// Package coordhost provides the coordinator's raft-backed high
// availability: a cluster of coordinator replicas replicates quota
// configuration, quota targets, the per-database paused flag, and
// MonitoredDbSet membership, so a replica failover does not lose
// management-plane state (§11 Open Question on HA scope).
package coordhost

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"

	"github.com/segmentdb/diskquota/pkg/storage"
	"github.com/segmentdb/diskquota/pkg/types"
)

// Config holds the parameters needed to stand up a coordhost Node.
type Config struct {
	NodeID   string
	BindAddr string
	DataDir  string
}

// Node wraps a hashicorp/raft instance replicating management-plane state
// into the local storage.Store.
type Node struct {
	nodeID   string
	bindAddr string
	dataDir  string

	raft  *raft.Raft
	fsm   *FSM
	store storage.Store
}

// NewNode builds a Node over store; call Bootstrap or Join before Apply.
func NewNode(cfg Config, store storage.Store) (*Node, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("coordhost: create data dir: %w", err)
	}
	return &Node{
		nodeID:   cfg.NodeID,
		bindAddr: cfg.BindAddr,
		dataDir:  cfg.DataDir,
		fsm:      NewFSM(store),
		store:    store,
	}, nil
}

func raftConfig(nodeID string) *raft.Config {
	cfg := raft.DefaultConfig()
	cfg.LocalID = raft.ServerID(nodeID)
	// The control plane only needs sub-10s failover, not WAN-grade
	// conservatism; tighten the hashicorp/raft defaults accordingly.
	cfg.HeartbeatTimeout = 500 * time.Millisecond
	cfg.ElectionTimeout = 500 * time.Millisecond
	cfg.CommitTimeout = 50 * time.Millisecond
	cfg.LeaderLeaseTimeout = 250 * time.Millisecond
	return cfg
}

// Bootstrap initializes a new single-node raft cluster with this Node as
// the only member. Call Join on the other replicas instead.
func (n *Node) Bootstrap() error {
	r, transport, err := n.newRaft()
	if err != nil {
		return err
	}
	n.raft = r

	configuration := raft.Configuration{
		Servers: []raft.Server{
			{ID: raft.ServerID(n.nodeID), Address: transport.LocalAddr()},
		},
	}
	future := n.raft.BootstrapCluster(configuration)
	if err := future.Error(); err != nil {
		return fmt.Errorf("coordhost: bootstrap cluster: %w", err)
	}
	return nil
}

// Join starts raft for this Node without bootstrapping; the caller must
// separately call AddVoter for this node on the current leader's Node;
// the management API has no join call.
func (n *Node) Join() error {
	r, _, err := n.newRaft()
	if err != nil {
		return err
	}
	n.raft = r
	return nil
}

func (n *Node) newRaft() (*raft.Raft, *raft.NetworkTransport, error) {
	cfg := raftConfig(n.nodeID)

	addr, err := net.ResolveTCPAddr("tcp", n.bindAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("coordhost: resolve bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(n.bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("coordhost: create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(n.dataDir, 2, os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("coordhost: create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(n.dataDir, "raft-log.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("coordhost: create log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(n.dataDir, "raft-stable.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("coordhost: create stable store: %w", err)
	}

	r, err := raft.NewRaft(cfg, n.fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, nil, fmt.Errorf("coordhost: create raft: %w", err)
	}
	return r, transport, nil
}

// AddVoter adds another replica to the cluster; must be called on the
// current leader.
func (n *Node) AddVoter(nodeID, addr string) error {
	future := n.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(addr), 0, 10*time.Second)
	return future.Error()
}

// IsLeader reports whether this Node is the current raft leader.
func (n *Node) IsLeader() bool {
	return n.raft != nil && n.raft.State() == raft.Leader
}

// apply marshals cmd and applies it through raft, blocking until
// committed (or returning an error if this Node isn't the leader).
func (n *Node) apply(op string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("coordhost: marshal command payload: %w", err)
	}
	cmd, err := json.Marshal(Command{Op: op, Data: payload})
	if err != nil {
		return fmt.Errorf("coordhost: marshal command: %w", err)
	}

	future := n.raft.Apply(cmd, 10*time.Second)
	if err := future.Error(); err != nil {
		return fmt.Errorf("coordhost: apply command: %w", err)
	}
	if resp := future.Response(); resp != nil {
		if err, ok := resp.(error); ok && err != nil {
			return fmt.Errorf("coordhost: fsm apply: %w", err)
		}
	}
	return nil
}

// UpsertQuotaConfig replicates a quota_config upsert to every replica.
func (n *Node) UpsertQuotaConfig(cfg types.QuotaConfig) error {
	return n.apply(OpUpsertQuotaConfig, cfg)
}

// DeleteQuotaConfig replicates a quota_config deletion.
func (n *Node) DeleteQuotaConfig(target types.TargetID, quotaType types.QuotaType) error {
	return n.apply(OpDeleteQuotaConfig, deleteQuotaConfigPayload{Target: target, Type: quotaType})
}

// UpsertQuotaTarget replicates a target-table upsert.
func (n *Node) UpsertQuotaTarget(target types.QuotaTarget) error {
	return n.apply(OpUpsertQuotaTarget, target)
}

// SetPaused replicates a per-database paused flag change.
func (n *Node) SetPaused(databaseID types.DatabaseID, paused bool) error {
	return n.apply(OpSetPaused, setPausedPayload{DatabaseID: databaseID, Paused: paused})
}

// AddMonitoredDatabase replicates a MonitoredDbSet addition.
func (n *Node) AddMonitoredDatabase(databaseID types.DatabaseID) error {
	return n.apply(OpAddMonitoredDatabase, databaseIDPayload{DatabaseID: databaseID})
}

// RemoveMonitoredDatabase replicates a MonitoredDbSet removal.
func (n *Node) RemoveMonitoredDatabase(databaseID types.DatabaseID) error {
	return n.apply(OpRemoveMonitoredDatabase, databaseIDPayload{DatabaseID: databaseID})
}

// Shutdown stops raft for this Node.
func (n *Node) Shutdown() error {
	if n.raft == nil {
		return nil
	}
	return n.raft.Shutdown().Error()
}
