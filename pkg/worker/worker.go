// Package worker implements the §4.7 per-database worker loop: sleep,
// pause check, fanout + evaluate, epoch increment, shutdown test.
package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/segmentdb/diskquota/pkg/blocklist"
	"github.com/segmentdb/diskquota/pkg/catalog"
	"github.com/segmentdb/diskquota/pkg/fanout"
	"github.com/segmentdb/diskquota/pkg/log"
	"github.com/segmentdb/diskquota/pkg/metrics"
	"github.com/segmentdb/diskquota/pkg/quota"
	"github.com/segmentdb/diskquota/pkg/quotaerrors"
	"github.com/segmentdb/diskquota/pkg/storage"
	"github.com/segmentdb/diskquota/pkg/types"
)

// Worker drives one monitored database's epoch loop.
type Worker struct {
	DatabaseID types.DatabaseID
	Naptime    time.Duration

	Fanout    *fanout.Fanout
	Blocklist *blocklist.Blocklist
	Catalog   catalog.HostCatalog
	Store     storage.Store

	mu        sync.Mutex
	epoch     int64
	newEpoch  chan struct{} // closed and replaced whenever epoch advances
	coldStart bool

	// known and knownBySegment hold the last known size of every relation
	// this worker has ever seen active, regardless of whether it was
	// active in the most recent epoch (§4.4 step 4: "relations not seen
	// this epoch keep their previous rows"). A fresh drain's sizes
	// overwrite an active relation's entry; relations absent from the
	// drain keep their prior entry until the catalog confirms they were
	// actually dropped.
	known          map[types.RelationID]int64
	knownBySegment map[types.RelationID]map[types.SegmentID]int64

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Worker for databaseID, ready to Run.
func New(databaseID types.DatabaseID, naptime time.Duration, f *fanout.Fanout, bl *blocklist.Blocklist, cat catalog.HostCatalog, store storage.Store) *Worker {
	return &Worker{
		DatabaseID:     databaseID,
		Naptime:        naptime,
		Fanout:         f,
		Blocklist:      bl,
		Catalog:        cat,
		Store:          store,
		newEpoch:       make(chan struct{}),
		coldStart:      true,
		known:          make(map[types.RelationID]int64),
		knownBySegment: make(map[types.RelationID]map[types.SegmentID]int64),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Epoch reports the number of completed epochs, for wait_for_worker_new_epoch.
func (w *Worker) Epoch() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.epoch
}

// WaitForNewEpoch blocks until the worker's epoch counter exceeds
// sinceEpoch, or ctx is done (§6 wait_for_worker_new_epoch).
func (w *Worker) WaitForNewEpoch(ctx context.Context, sinceEpoch int64) (int64, error) {
	for {
		w.mu.Lock()
		epoch := w.epoch
		ch := w.newEpoch
		w.mu.Unlock()

		if epoch > sinceEpoch {
			return epoch, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return epoch, ctx.Err()
		}
	}
}

// Stop signals the epoch loop to exit and waits for it to do so.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// Run is the per-database loop (§4.7): sleep, pause check, fanout+eval,
// epoch increment, shutdown test. It returns when Stop is called, when ctx
// is cancelled, or after an epoch fails with a KindFatal error.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.doneCh)
	wlog := log.WithDatabase(databaseIDString(w.DatabaseID))

	timer := time.NewTimer(w.Naptime)
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		paused, err := w.Store.IsPaused(w.DatabaseID)
		if err != nil {
			wlog.Warn().Err(err).Msg("failed to read paused flag, assuming unpaused")
			paused = false
		}
		w.Blocklist.SetPaused(paused)

		if !paused {
			epochTimer := metrics.NewTimer(metrics.EpochDuration, databaseIDString(w.DatabaseID))
			if err := w.runEpoch(ctx); err != nil {
				metrics.EpochFailuresTotal.WithLabelValues(databaseIDString(w.DatabaseID)).Inc()
				wlog.Warn().Err(err).Msg("epoch failed, retrying next tick")
				if quotaerrors.Is(err, quotaerrors.KindFatal) {
					epochTimer.ObserveDuration()
					wlog.Error().Err(err).Msg("fatal error, worker exiting for launcher restart")
					return
				}
			} else {
				metrics.EpochsTotal.WithLabelValues(databaseIDString(w.DatabaseID)).Inc()
			}
			epochTimer.ObserveDuration()
		}

		w.advanceEpoch()
		timer.Reset(w.Naptime)
	}
}

func (w *Worker) advanceEpoch() {
	w.mu.Lock()
	w.epoch++
	ch := w.newEpoch
	w.newEpoch = make(chan struct{})
	w.mu.Unlock()
	close(ch)
}

// runEpoch performs §4.4 (fanout) + §4.5 (evaluate) + persistence for one
// epoch. On cold start it skips the drain and reads the last-known sizes
// from the store instead (load_table_size). A relation absent from this
// epoch's active set keeps contributing its last known size to the
// evaluator until the catalog confirms it was actually dropped (§4.4 step
// 4, §3 blocklist lifecycle): "not active this epoch" is not "dropped".
func (w *Worker) runEpoch(ctx context.Context) error {
	if w.coldStart {
		rows, err := w.Store.LoadTableSize()
		if err != nil {
			return quotaerrors.Transient("worker.loadTableSize", err)
		}
		for _, row := range rows {
			if row.SegID == types.ClusterTotalSeg {
				w.known[row.RelationID] = row.SizeBytes
				continue
			}
			if w.knownBySegment[row.RelationID] == nil {
				w.knownBySegment[row.RelationID] = make(map[types.SegmentID]int64)
			}
			w.knownBySegment[row.RelationID][row.SegID] = row.SizeBytes
		}
		w.coldStart = false
	} else {
		result, err := w.Fanout.Run(ctx)
		if err != nil {
			return quotaerrors.Transient("worker.fanout", err)
		}
		for relationID, total := range result.TotalByRelation {
			w.known[relationID] = total
			w.knownBySegment[relationID] = make(map[types.SegmentID]int64)
		}
		for _, row := range result.Rows {
			if row.SegID == types.ClusterTotalSeg {
				continue
			}
			w.knownBySegment[row.RelationID][row.SegID] += row.SizeBytes
		}
		for _, row := range result.Rows {
			if err := w.Store.UpsertTableSize(row); err != nil {
				return quotaerrors.Transient("worker.upsertTableSize", err)
			}
		}
	}

	relations := make(map[types.RelationID]quota.RelationInfo, len(w.known))
	dropped := make([]types.RelationID, 0)
	for relationID := range w.known {
		info, err := w.Catalog.LookupRelation(ctx, w.DatabaseID, relationID)
		if err != nil {
			dropped = append(dropped, relationID)
			continue
		}
		relations[relationID] = quota.RelationInfo{
			RelationID:   relationID,
			OwnerID:      info.OwnerID,
			NamespaceID:  info.NamespaceID,
			TablespaceID: info.TablespaceID,
		}
	}

	configs, err := w.Store.ListQuotaConfigs()
	if err != nil {
		return quotaerrors.Transient("worker.listQuotaConfigs", err)
	}
	targets, err := w.Store.ListQuotaTargets()
	if err != nil {
		return quotaerrors.Transient("worker.listQuotaTargets", err)
	}

	desired := quota.Evaluate(quota.Input{
		TotalByRelation: w.known,
		SizeBySegment:   w.knownBySegment,
		Relations:       relations,
		Configs:         configs,
		Targets:         targets,
	})

	current := w.Blocklist.Snapshot()
	add, remove := quota.Diff(current, desired)
	w.Blocklist.Apply(add, remove)
	metrics.BlocklistSize.WithLabelValues(databaseIDString(w.DatabaseID)).Set(float64(w.Blocklist.Len()))

	for _, relationID := range dropped {
		delete(w.known, relationID)
		delete(w.knownBySegment, relationID)
		if err := w.Store.DeleteTableSizesForRelation(relationID); err != nil {
			return quotaerrors.Transient("worker.expireTableSize", err)
		}
	}

	return nil
}

func databaseIDString(id types.DatabaseID) string {
	return strconv.FormatInt(int64(id), 10)
}
