// Package fanout implements the coordinator's per-epoch segment fanout
// and aggregation (§4.4): drain active relation OIDs from every segment,
// fetch their sizes, and roll per-segment rows into cluster-wide totals.
package fanout

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/segmentdb/diskquota/internal/rpcpb"
	"github.com/segmentdb/diskquota/pkg/health"
	"github.com/segmentdb/diskquota/pkg/metrics"
	"github.com/segmentdb/diskquota/pkg/types"
)

// Segment is one segment the coordinator fans out to. Address is the
// segment's gRPC dial address (host:port), used for a TCP liveness probe
// when HealthURL is unset. HealthURL, when set, is the segment's
// /healthz endpoint and takes precedence, probed with an HTTP GET.
// Leaving both empty disables liveness checking for that segment (e.g.
// the in-process bufconn segment used in tests).
type Segment struct {
	ID        types.SegmentID
	Client    rpcpb.SegmentServiceClient
	Address   string
	HealthURL string
}

// SizeSet holds one epoch's aggregated per-relation sizes: a cluster-wide
// total row (SegID = ClusterTotalSeg) plus the per-segment rows it was
// built from (§4.4 step 3).
type SizeSet struct {
	TotalByRelation map[types.RelationID]int64
	Rows            []types.TableSizeRow
}

// Fanout drives one epoch's drain+size+aggregate cycle over segments, for
// a single database at the given SchemaVersion (§9 bifurcation).
type Fanout struct {
	Segments      []Segment
	SchemaVersion types.SchemaVersion

	// HealthConfig governs the per-segment liveness probe (HTTP or TCP,
	// see segmentChecker) run before each RPC dispatch. A segment whose
	// probes have failed HealthConfig.Retries consecutive times is skipped
	// for that dispatch rather than stalling the whole drain/size phase on
	// one unreachable node; it is probed again at every later dispatch.
	HealthConfig health.Config

	healthMu sync.Mutex
	health   map[types.SegmentID]*health.Status
}

// New builds a Fanout over segments.
func New(segments []Segment, schemaVersion types.SchemaVersion) *Fanout {
	return &Fanout{
		Segments:      segments,
		SchemaVersion: schemaVersion,
		HealthConfig:  health.DefaultConfig(),
		health:        make(map[types.SegmentID]*health.Status),
	}
}

// segmentHealthy probes seg's liveness and returns whether fanout should
// dispatch an RPC to it this round. A segment with neither HealthURL nor
// Address configured skips the probe entirely and is always considered
// dispatchable.
func (f *Fanout) segmentHealthy(ctx context.Context, seg Segment) bool {
	checker := segmentChecker(seg, f.HealthConfig.Timeout)
	if checker == nil {
		return true
	}

	f.healthMu.Lock()
	status, ok := f.health[seg.ID]
	if !ok {
		status = health.NewStatus()
		f.health[seg.ID] = status
	}
	f.healthMu.Unlock()

	if status.InStartPeriod(f.HealthConfig) {
		return true
	}

	result := checker.Check(ctx)
	status.Update(result, f.HealthConfig)
	if !status.Healthy {
		metrics.FanoutRPCFailuresTotal.WithLabelValues(segLabel(seg.ID), "health_check").Inc()
	}
	return status.Healthy
}

// segmentChecker picks seg's liveness checker: its /healthz endpoint when
// HealthURL is set, otherwise a bare TCP dial to Address. Returns nil when
// neither is configured.
func segmentChecker(seg Segment, timeout time.Duration) health.Checker {
	switch {
	case seg.HealthURL != "":
		return health.NewHTTPChecker(seg.HealthURL).WithTimeout(timeout)
	case seg.Address != "":
		return health.NewTCPChecker(seg.Address).WithTimeout(timeout)
	default:
		return nil
	}
}

// Drain performs §4.4 step 1: parallel FETCH_ACTIVE_OID RPCs, unioned into
// a single relation_id set. A segment RPC failure is tolerated: that
// segment's entries simply stay in its own active-file map for the next
// epoch's drain, so fanout proceeds with whatever segments answered.
func (f *Fanout) Drain(ctx context.Context) (map[types.RelationID]struct{}, error) {
	union := make(map[types.RelationID]struct{})
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, seg := range f.Segments {
		seg := seg
		g.Go(func() error {
			if !f.segmentHealthy(gctx, seg) {
				return nil
			}
			timer := metrics.NewTimer(metrics.FanoutRPCDuration, segLabel(seg.ID), "active_oid")
			resp, err := seg.Client.FetchTableStat(gctx, &rpcpb.FetchTableStatRequest{
				Mode:          rpcpb.FetchModeActiveOID,
				SchemaVersion: int32(f.SchemaVersion),
			})
			timer.ObserveDuration()
			if err != nil {
				metrics.FanoutRPCFailuresTotal.WithLabelValues(segLabel(seg.ID), "active_oid").Inc()
				return nil
			}
			mu.Lock()
			for _, id := range resp.RelationIDs {
				union[types.RelationID(id)] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return union, nil
}

// Size performs §4.4 step 2+3: parallel FETCH_ACTIVE_SIZE RPCs over the
// unioned relation set, then sums per-segment rows into cluster totals.
func (f *Fanout) Size(ctx context.Context, relationIDs []types.RelationID) (SizeSet, error) {
	ids := make([]int64, len(relationIDs))
	for i, id := range relationIDs {
		ids[i] = int64(id)
	}

	var mu sync.Mutex
	result := SizeSet{TotalByRelation: make(map[types.RelationID]int64)}

	g, gctx := errgroup.WithContext(ctx)
	for _, seg := range f.Segments {
		seg := seg
		g.Go(func() error {
			if !f.segmentHealthy(gctx, seg) {
				return nil
			}
			timer := metrics.NewTimer(metrics.FanoutRPCDuration, segLabel(seg.ID), "active_size")
			resp, err := seg.Client.FetchTableStat(gctx, &rpcpb.FetchTableStatRequest{
				Mode:          rpcpb.FetchModeActiveSize,
				RelationIDs:   ids,
				SchemaVersion: int32(f.SchemaVersion),
			})
			timer.ObserveDuration()
			if err != nil {
				metrics.FanoutRPCFailuresTotal.WithLabelValues(segLabel(seg.ID), "active_size").Inc()
				return nil
			}
			mu.Lock()
			for _, row := range resp.Rows {
				relationID := types.RelationID(row.RelationID)
				result.TotalByRelation[relationID] += row.SizeBytes
				result.Rows = append(result.Rows, types.TableSizeRow{
					RelationID: relationID,
					SegID:      types.SegmentID(row.SegID),
					SizeBytes:  row.SizeBytes,
				})
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SizeSet{}, err
	}

	for relationID, total := range result.TotalByRelation {
		result.Rows = append(result.Rows, types.TableSizeRow{
			RelationID: relationID,
			SegID:      types.ClusterTotalSeg,
			SizeBytes:  total,
		})
	}
	return result, nil
}

// Run performs one full epoch: drain, then size the drained set (§4.4
// steps 1-3). Persisting the result (step 4, including expiring dropped
// relations) is the caller's responsibility — it needs the store and the
// previous epoch's relation set, which fanout does not own.
func (f *Fanout) Run(ctx context.Context) (SizeSet, error) {
	active, err := f.Drain(ctx)
	if err != nil {
		return SizeSet{}, err
	}
	relationIDs := make([]types.RelationID, 0, len(active))
	for id := range active {
		relationIDs = append(relationIDs, id)
	}
	return f.Size(ctx, relationIDs)
}

func segLabel(id types.SegmentID) string {
	return "seg-" + strconv.FormatInt(int64(id), 10)
}
