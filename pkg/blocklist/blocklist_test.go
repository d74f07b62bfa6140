package blocklist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentdb/diskquota/pkg/quotaerrors"
	"github.com/segmentdb/diskquota/pkg/types"
)

func TestCheckAllowsUnlistedRelation(t *testing.T) {
	b := New()
	assert.NoError(t, b.Check(100))
}

func TestCheckDeniesListedRelation(t *testing.T) {
	b := New()
	b.Apply([]types.BlocklistEntry{
		{RelationID: 100, Reason: types.ReasonLimitExceeded, LimitMB: 10, UsedBytes: 20 * 1024 * 1024},
	}, nil)

	err := b.Check(100)
	require.Error(t, err)
	var violation *quotaerrors.QuotaViolationError
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, int64(100), violation.RelationID)
}

func TestPauseShortCircuitsToAllow(t *testing.T) {
	b := New()
	b.Apply([]types.BlocklistEntry{{RelationID: 100, Reason: types.ReasonLimitExceeded}}, nil)
	b.SetPaused(true)

	assert.NoError(t, b.Check(100))
	assert.Equal(t, 1, b.Len(), "paused enforcement still leaves the blocklist content intact")
}

func TestApplyAddsAndRemoves(t *testing.T) {
	b := New()
	b.Apply([]types.BlocklistEntry{{RelationID: 100}, {RelationID: 200}}, nil)
	assert.Equal(t, 2, b.Len())

	b.Apply(nil, []types.RelationID{100})
	assert.Equal(t, 1, b.Len())
	assert.NoError(t, b.Check(100))
	assert.Error(t, b.Check(200))
}

func TestReplaceSwapsContents(t *testing.T) {
	b := New()
	b.Apply([]types.BlocklistEntry{{RelationID: 100}}, nil)
	b.Replace(map[types.RelationID]types.BlocklistEntry{300: {RelationID: 300}})

	assert.NoError(t, b.Check(100))
	assert.Error(t, b.Check(300))
}
