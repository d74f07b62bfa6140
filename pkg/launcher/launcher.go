// Package launcher implements the §4.7/§5 launcher singleton: it starts
// one worker per monitored database at startup and reacts to
// ExtensionDDLMessage mailbox commands to add or remove databases at
// runtime.
package launcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/segmentdb/diskquota/pkg/blocklist"
	"github.com/segmentdb/diskquota/pkg/catalog"
	"github.com/segmentdb/diskquota/pkg/config"
	"github.com/segmentdb/diskquota/pkg/fanout"
	"github.com/segmentdb/diskquota/pkg/log"
	"github.com/segmentdb/diskquota/pkg/metrics"
	"github.com/segmentdb/diskquota/pkg/quotaerrors"
	"github.com/segmentdb/diskquota/pkg/storage"
	"github.com/segmentdb/diskquota/pkg/types"
	"github.com/segmentdb/diskquota/pkg/worker"
)

// Command is an ExtensionDDLMessage opcode (§4.7).
type Command int

const (
	CmdCreateExtension Command = iota
	CmdDropExtension
)

// MailboxRequest is the (launcher_pid, req_pid, cmd, dbid) tuple a
// requester writes under the message lock (§4.7 mailbox protocol). RequestID
// is a google/uuid value used only for log correlation; the protocol
// itself keys off DatabaseID.
type MailboxRequest struct {
	RequestID  uuid.UUID
	Cmd        Command
	DatabaseID types.DatabaseID
	Reply      chan MailboxResult
}

// MailboxResult is the requester's PENDING -> non-PENDING transition
// (ERR_OK / ERR_EXCEED in spec terms, represented here as error).
type MailboxResult struct {
	Err error
}

// entry bundles a running worker (which holds its own blocklist) with the
// cancel func of that worker's context.
type entry struct {
	w      *worker.Worker
	cancel context.CancelFunc
}

// Launcher is the singleton launcher process (§4.7, §5).
type Launcher struct {
	Store   storage.Store
	Config  config.Config
	Catalog catalog.HostCatalog
	Segments []fanout.Segment

	// LeaderFunc reports this replica's raft leadership (wired to
	// pkg/coordhost; defaults to always-true for a single-node
	// deployment). It is read only by IsLeader for the metrics
	// collector; the launcher starts workers whatever it returns.
	LeaderFunc func() bool

	mu      sync.Mutex
	workers map[types.DatabaseID]*entry

	mailbox chan MailboxRequest
}

// New builds a Launcher. Call Start to load the persisted monitored-db
// list and begin serving mailbox commands.
func New(store storage.Store, cfg config.Config, cat catalog.HostCatalog, segments []fanout.Segment) *Launcher {
	return &Launcher{
		Store:      store,
		Config:     cfg,
		Catalog:    cat,
		Segments:   segments,
		LeaderFunc: func() bool { return true },
		workers:    make(map[types.DatabaseID]*entry),
		mailbox:    make(chan MailboxRequest, 1), // single-slot mailbox (§4.7)
	}
}

// Start reads the persisted MonitoredDbSet and starts one worker per
// database, then begins serving mailbox commands until ctx is done.
func (l *Launcher) Start(ctx context.Context) error {
	llog := log.WithComponent("launcher")

	dbs, err := l.Store.ListMonitoredDatabases()
	if err != nil {
		return quotaerrors.Fatal("launcher.Start", err)
	}
	for _, db := range dbs {
		if err := l.startWorker(ctx, db.DatabaseID); err != nil {
			llog.Warn().Err(err).Int64("database_id", int64(db.DatabaseID)).Msg("failed to start worker at startup")
		}
	}

	go l.serveMailbox(ctx)
	return nil
}

// Submit is how a requester issues a CMD_CREATE_EXTENSION /
// CMD_DROP_EXTENSION command and blocks for the reply (§4.7 mailbox
// protocol: write, signal, wait for non-PENDING).
func (l *Launcher) Submit(ctx context.Context, cmd Command, databaseID types.DatabaseID) error {
	req := MailboxRequest{
		RequestID:  uuid.New(),
		Cmd:        cmd,
		DatabaseID: databaseID,
		Reply:      make(chan MailboxResult, 1),
	}
	select {
	case l.mailbox <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case result := <-req.Reply:
		return result.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Launcher) serveMailbox(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-l.mailbox:
			err := l.handle(ctx, req)
			req.Reply <- MailboxResult{Err: err}
		}
	}
}

func (l *Launcher) handle(ctx context.Context, req MailboxRequest) error {
	var err error
	switch req.Cmd {
	case CmdCreateExtension:
		err = l.createExtension(ctx, req.DatabaseID)
	case CmdDropExtension:
		err = l.dropExtension(req.DatabaseID)
	default:
		err = quotaerrors.Configuration("launcher.handle", fmt.Errorf("unknown command %d", req.Cmd))
	}
	metrics.MailboxCommandsTotal.WithLabelValues(commandName(req.Cmd), resultLabel(err)).Inc()
	return err
}

func (l *Launcher) createExtension(ctx context.Context, databaseID types.DatabaseID) error {
	l.mu.Lock()
	if _, exists := l.workers[databaseID]; exists {
		l.mu.Unlock()
		return nil
	}
	if len(l.workers) >= l.Config.MaxMonitoredDatabases {
		l.mu.Unlock()
		return quotaerrors.Configuration("launcher.createExtension", fmt.Errorf("MonitoredDbSet at capacity (%d)", l.Config.MaxMonitoredDatabases))
	}
	l.mu.Unlock()

	if err := l.Store.AddMonitoredDatabase(databaseID); err != nil {
		return quotaerrors.Transient("launcher.persistMonitoredDatabase", err)
	}
	return l.startWorker(ctx, databaseID)
}

func (l *Launcher) dropExtension(databaseID types.DatabaseID) error {
	l.mu.Lock()
	e, exists := l.workers[databaseID]
	delete(l.workers, databaseID)
	l.mu.Unlock()

	if exists {
		e.cancel()
		e.w.Stop()
	}
	if err := l.Store.RemoveMonitoredDatabase(databaseID); err != nil {
		return quotaerrors.Transient("launcher.unpersistMonitoredDatabase", err)
	}
	return nil
}

func (l *Launcher) startWorker(ctx context.Context, databaseID types.DatabaseID) error {
	l.mu.Lock()
	if _, exists := l.workers[databaseID]; exists {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	workerCtx, cancel := context.WithCancel(ctx)
	w := worker.New(databaseID, l.Config.DiskquotaNaptime, fanout.New(l.Segments, types.SchemaVersionV2), blocklist.New(), l.Catalog, l.Store)

	l.mu.Lock()
	l.workers[databaseID] = &entry{w: w, cancel: cancel}
	l.mu.Unlock()

	go w.Run(workerCtx)
	return nil
}

// WaitForNewEpoch blocks until databaseID's worker completes an epoch
// past sinceEpoch, for the management API's wait_for_worker_new_epoch
// (§6). Returns an error if no worker is running for databaseID.
func (l *Launcher) WaitForNewEpoch(ctx context.Context, databaseID types.DatabaseID, sinceEpoch int64) (int64, error) {
	l.mu.Lock()
	e, ok := l.workers[databaseID]
	l.mu.Unlock()
	if !ok {
		return 0, quotaerrors.Configuration("launcher.WaitForNewEpoch", fmt.Errorf("no worker running for database %d", databaseID))
	}
	return e.w.WaitForNewEpoch(ctx, sinceEpoch)
}

// BlocklistSnapshot returns the current blocklist contents for
// databaseID, for the §12 diagnostic views. Returns an error if no
// worker is running for databaseID.
func (l *Launcher) BlocklistSnapshot(databaseID types.DatabaseID) (map[types.RelationID]types.BlocklistEntry, error) {
	l.mu.Lock()
	e, ok := l.workers[databaseID]
	l.mu.Unlock()
	if !ok {
		return nil, quotaerrors.Configuration("launcher.BlocklistSnapshot", fmt.Errorf("no worker running for database %d", databaseID))
	}
	return e.w.Blocklist.Snapshot(), nil
}

// IsLeader implements metrics.Source.
func (l *Launcher) IsLeader() bool {
	return l.LeaderFunc()
}

// MonitoredDatabaseCount implements metrics.Source.
func (l *Launcher) MonitoredDatabaseCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.workers)
}

// DatabaseSnapshots implements metrics.Source.
func (l *Launcher) DatabaseSnapshots() []metrics.DatabaseSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshots := make([]metrics.DatabaseSnapshot, 0, len(l.workers))
	for databaseID, e := range l.workers {
		snapshots = append(snapshots, metrics.DatabaseSnapshot{
			DatabaseID:        fmt.Sprintf("%d", databaseID),
			BlocklistSize:     e.w.Blocklist.Len(),
		})
	}
	return snapshots
}

func commandName(cmd Command) string {
	switch cmd {
	case CmdCreateExtension:
		return "create_extension"
	case CmdDropExtension:
		return "drop_extension"
	default:
		return "unknown"
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
