package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/segmentdb/diskquota/pkg/types"
)

func TestEvaluateFlagsSchemaOverLimit(t *testing.T) {
	in := Input{
		TotalByRelation: map[types.RelationID]int64{100: 200 * 1024 * 1024},
		Relations: map[types.RelationID]RelationInfo{
			100: {RelationID: 100, NamespaceID: 2200},
		},
		Configs: []types.QuotaConfig{
			{Target: types.TargetID{PrimaryID: 2200}, Type: types.QuotaTypeSchema, LimitMB: 100},
		},
	}

	blocklist := Evaluate(in)
	entry, ok := blocklist[100]
	assert.True(t, ok)
	assert.Equal(t, types.ReasonLimitExceeded, entry.Reason)
	assert.Equal(t, int64(200*1024*1024), entry.UsedBytes)
}

func TestEvaluateAllowsUnderLimit(t *testing.T) {
	in := Input{
		TotalByRelation: map[types.RelationID]int64{100: 10 * 1024 * 1024},
		Relations: map[types.RelationID]RelationInfo{
			100: {RelationID: 100, NamespaceID: 2200},
		},
		Configs: []types.QuotaConfig{
			{Target: types.TargetID{PrimaryID: 2200}, Type: types.QuotaTypeSchema, LimitMB: 100},
		},
	}

	blocklist := Evaluate(in)
	assert.Empty(t, blocklist)
}

func TestEvaluateDenyAllBlocksRegardlessOfSize(t *testing.T) {
	in := Input{
		TotalByRelation: map[types.RelationID]int64{100: 0},
		Relations: map[types.RelationID]RelationInfo{
			100: {RelationID: 100, OwnerID: 10},
		},
		Configs: []types.QuotaConfig{
			{Target: types.TargetID{PrimaryID: 10}, Type: types.QuotaTypeRole, LimitMB: types.DenyAll},
		},
	}

	blocklist := Evaluate(in)
	_, ok := blocklist[100]
	assert.True(t, ok)
}

func TestEvaluateIgnoresTablespaceQuotaWithoutTargetRow(t *testing.T) {
	in := Input{
		TotalByRelation: map[types.RelationID]int64{100: 500 * 1024 * 1024},
		Relations: map[types.RelationID]RelationInfo{
			100: {RelationID: 100, NamespaceID: 2200, TablespaceID: 1663},
		},
		Configs: []types.QuotaConfig{
			{Target: types.TargetID{PrimaryID: 2200, TablespaceID: 1663}, Type: types.QuotaTypeSchemaTablespace, LimitMB: 1},
		},
		// no QuotaTarget row registering (2200, 1663) as qualified
	}

	blocklist := Evaluate(in)
	assert.Empty(t, blocklist)
}

func TestEvaluateSegRatioFlagsSingleSegmentImbalance(t *testing.T) {
	in := Input{
		TotalByRelation: map[types.RelationID]int64{100: 25 * 1024 * 1024},
		SizeBySegment: map[types.RelationID]map[types.SegmentID]int64{
			100: {0: 25 * 1024 * 1024, 1: 0, 2: 0, 3: 0},
		},
		Relations: map[types.RelationID]RelationInfo{
			100: {RelationID: 100, NamespaceID: 2200, TablespaceID: 1663},
		},
		Configs: []types.QuotaConfig{
			{Target: types.TargetID{PrimaryID: 2200, TablespaceID: 1663}, Type: types.QuotaTypeSchemaTablespace, LimitMB: 100, SegRatio: 0.2},
		},
		Targets: []types.QuotaTarget{
			{Type: types.QuotaTypeSchemaTablespace, PrimaryID: 2200, TablespaceID: 1663},
		},
	}

	blocklist := Evaluate(in)
	entry, ok := blocklist[100]
	assert.True(t, ok)
	assert.Equal(t, types.ReasonNoFreeSpaceOnTablespace, entry.Reason)
}

func TestDiffComputesAddAndRemove(t *testing.T) {
	current := map[types.RelationID]types.BlocklistEntry{
		100: {RelationID: 100, Reason: types.ReasonLimitExceeded},
		200: {RelationID: 200, Reason: types.ReasonLimitExceeded},
	}
	desired := map[types.RelationID]types.BlocklistEntry{
		100: {RelationID: 100, Reason: types.ReasonLimitExceeded},
		300: {RelationID: 300, Reason: types.ReasonNoFreeSpaceOnTablespace},
	}

	add, remove := Diff(current, desired)
	assert.Len(t, add, 1)
	assert.Equal(t, types.RelationID(300), add[0].RelationID)
	assert.Equal(t, []types.RelationID{200}, remove)
}
