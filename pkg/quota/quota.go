// Package quota implements the §4.5 evaluator: it rolls a database's
// active relation sizes up into the four per-target totals, checks each
// target's limit and per-segment balance, and produces the desired
// blocklist for that epoch.
package quota

import (
	"github.com/segmentdb/diskquota/pkg/types"
)

// RelationInfo is the subset of a relation cache entry the evaluator
// needs to attribute a relation's size to its targets.
type RelationInfo struct {
	RelationID   types.RelationID
	OwnerID      types.RoleID
	NamespaceID  types.SchemaID
	TablespaceID types.TablespaceID
}

// Input bundles one epoch's evaluator inputs (§4.5).
type Input struct {
	// TotalByRelation is the cluster-wide (seg_id = -1) size for each
	// active relation, from fanout.SizeSet.
	TotalByRelation map[types.RelationID]int64
	// SizeBySegment is each active relation's per-segment sizes, used
	// only for the seg_ratio balance check.
	SizeBySegment map[types.RelationID]map[types.SegmentID]int64
	Relations     map[types.RelationID]RelationInfo
	Configs       []types.QuotaConfig
	Targets       []types.QuotaTarget
}

type targetTotal struct {
	used      int64
	bySegment map[types.SegmentID]int64
	relations map[types.RelationID]struct{}
}

// Evaluate computes the desired blocklist for one epoch (§4.5), keyed by
// relation_id as the enforcement gate requires (exploded from target to
// member relations per §4.6).
func Evaluate(in Input) map[types.RelationID]types.BlocklistEntry {
	qualified := make(map[types.TargetID]struct{}, len(in.Targets))
	for _, t := range in.Targets {
		qualified[types.TargetID{PrimaryID: t.PrimaryID, TablespaceID: t.TablespaceID}] = struct{}{}
	}

	totals := make(map[types.QuotaType]map[types.TargetID]*targetTotal)
	for _, qt := range []types.QuotaType{
		types.QuotaTypeSchema, types.QuotaTypeRole,
		types.QuotaTypeSchemaTablespace, types.QuotaTypeRoleTablespace,
	} {
		totals[qt] = make(map[types.TargetID]*targetTotal)
	}

	for relationID, used := range in.TotalByRelation {
		info, ok := in.Relations[relationID]
		if !ok {
			continue
		}
		addContribution(totals[types.QuotaTypeSchema], types.TargetID{PrimaryID: int64(info.NamespaceID)}, relationID, used, in.SizeBySegment[relationID])
		addContribution(totals[types.QuotaTypeRole], types.TargetID{PrimaryID: int64(info.OwnerID)}, relationID, used, in.SizeBySegment[relationID])

		tablespaceTarget := types.TargetID{PrimaryID: int64(info.NamespaceID), TablespaceID: info.TablespaceID}
		if _, ok := qualified[tablespaceTarget]; ok {
			addContribution(totals[types.QuotaTypeSchemaTablespace], tablespaceTarget, relationID, used, in.SizeBySegment[relationID])
		}
		roleTablespaceTarget := types.TargetID{PrimaryID: int64(info.OwnerID), TablespaceID: info.TablespaceID}
		if _, ok := qualified[roleTablespaceTarget]; ok {
			addContribution(totals[types.QuotaTypeRoleTablespace], roleTablespaceTarget, relationID, used, in.SizeBySegment[relationID])
		}
	}

	blocklist := make(map[types.RelationID]types.BlocklistEntry)
	for _, cfg := range in.Configs {
		tt, ok := totals[cfg.Type][cfg.Target]
		if !ok {
			continue
		}

		limitBytes := cfg.LimitBytes()
		reason := types.BlockReason("")
		switch {
		case limitBytes == types.DenyAll:
			reason = types.ReasonLimitExceeded
		case limitBytes == types.NoLimit:
			// no limit configured; the seg_ratio check below is skipped too
		case tt.used > limitBytes:
			reason = types.ReasonLimitExceeded
		}

		if reason == "" && cfg.SegRatio > 0 && limitBytes != types.NoLimit {
			share := int64(cfg.SegRatio * float32(limitBytes))
			for _, segUsed := range tt.bySegment {
				if segUsed > share {
					reason = types.ReasonNoFreeSpaceOnTablespace
					break
				}
			}
		}

		if reason == "" {
			continue
		}

		for relationID := range tt.relations {
			blocklist[relationID] = types.BlocklistEntry{
				RelationID: relationID,
				Target:     cfg.Target,
				Type:       cfg.Type,
				Reason:     reason,
				LimitMB:    cfg.LimitMB,
				UsedBytes:  tt.used,
			}
		}
	}

	return blocklist
}

func addContribution(totals map[types.TargetID]*targetTotal, target types.TargetID, relationID types.RelationID, used int64, bySegment map[types.SegmentID]int64) {
	tt, ok := totals[target]
	if !ok {
		tt = &targetTotal{bySegment: make(map[types.SegmentID]int64), relations: make(map[types.RelationID]struct{})}
		totals[target] = tt
	}
	tt.used += used
	tt.relations[relationID] = struct{}{}
	for segID, size := range bySegment {
		tt.bySegment[segID] += size
	}
}

// Diff computes the additions and removals needed to move current to
// desired under the blocklist writer lock (§4.5 last paragraph).
func Diff(current, desired map[types.RelationID]types.BlocklistEntry) (add []types.BlocklistEntry, remove []types.RelationID) {
	for relationID, entry := range desired {
		if existing, ok := current[relationID]; !ok || existing != entry {
			add = append(add, entry)
		}
	}
	for relationID := range current {
		if _, ok := desired[relationID]; !ok {
			remove = append(remove, relationID)
		}
	}
	return add, remove
}
