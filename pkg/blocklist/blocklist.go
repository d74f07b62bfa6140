// Package blocklist implements the §4.6 shared-memory blocklist and the
// synchronous write-path enforcement gate consulted on every
// relation-open-for-write.
package blocklist

import (
	"sync"

	"github.com/segmentdb/diskquota/pkg/quotaerrors"
	"github.com/segmentdb/diskquota/pkg/types"
)

// Blocklist is the per-database map from relation_id to BlocklistEntry,
// guarded by a reader/writer lock: the evaluator writes it once per
// epoch, the enforcement gate reads it on every write attempt (§4.5 last
// paragraph, §4.6).
type Blocklist struct {
	mu      sync.RWMutex
	entries map[types.RelationID]types.BlocklistEntry
	paused  bool
}

// New returns an empty Blocklist.
func New() *Blocklist {
	return &Blocklist{entries: make(map[types.RelationID]types.BlocklistEntry)}
}

// Apply applies one epoch's diff (quota.Diff output) under the writer
// lock.
func (b *Blocklist) Apply(add []types.BlocklistEntry, remove []types.RelationID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, entry := range add {
		b.entries[entry.RelationID] = entry
	}
	for _, relationID := range remove {
		delete(b.entries, relationID)
	}
}

// Replace swaps the entire blocklist contents under the writer lock,
// used on the first epoch after a restart or resume (§4.6 Pause).
func (b *Blocklist) Replace(entries map[types.RelationID]types.BlocklistEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = entries
}

// SetPaused sets the per-database paused flag consulted by Check.
func (b *Blocklist) SetPaused(paused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = paused
}

// Paused reports the current paused flag.
func (b *Blocklist) Paused() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.paused
}

// Snapshot returns a copy of the current blocklist contents, for diffing
// against a newly evaluated desired state (§4.5 last paragraph).
func (b *Blocklist) Snapshot() map[types.RelationID]types.BlocklistEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snapshot := make(map[types.RelationID]types.BlocklistEntry, len(b.entries))
	for k, v := range b.entries {
		snapshot[k] = v
	}
	return snapshot
}

// Len reports the current blocklist size, for metrics.
func (b *Blocklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Check is the enforcement gate: it decides deny/allow for a
// relation-extending operation in O(1) under the reader lock (§4.5 last
// paragraph). While paused it always allows, but the blocklist content is
// left untouched so evaluation can resume from current state (§4.6 Pause,
// P6).
func (b *Blocklist) Check(relationID types.RelationID) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.paused {
		return nil
	}

	entry, blocked := b.entries[relationID]
	if !blocked {
		return nil
	}
	return &quotaerrors.QuotaViolationError{
		RelationID: int64(relationID),
		LimitMB:    entry.LimitMB,
		UsedBytes:  entry.UsedBytes,
		Reason:     string(entry.Reason),
	}
}
