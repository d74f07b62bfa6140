package activetable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/segmentdb/diskquota/pkg/types"
)

func key(rf int64) types.ActiveFileKey {
	return types.ActiveFileKey{DatabaseID: 1, TablespaceID: 1663, RelfilenodeID: types.RelfilenodeID(rf)}
}

func TestRecordRespectsCapacity(t *testing.T) {
	s := New(1)
	assert.True(t, s.Record(key(100)))
	assert.False(t, s.Record(key(200)))
	assert.True(t, s.Full())
}

func TestDrainResolvesAndReturnsPrimaryIDs(t *testing.T) {
	s := New(10)
	s.Record(key(100))
	s.Record(key(200))

	resolved := s.Drain(func(k types.ActiveFileKey) (types.RelationID, bool) {
		return types.RelationID(k.RelfilenodeID) * 10, true
	})

	assert.Contains(t, resolved, types.RelationID(1000))
	assert.Contains(t, resolved, types.RelationID(2000))
	assert.Equal(t, 0, s.Len())
}

func TestDrainRequeuesUnresolvedEntries(t *testing.T) {
	s := New(10)
	s.Record(key(100))

	resolved := s.Drain(func(k types.ActiveFileKey) (types.RelationID, bool) {
		return 0, false
	})

	assert.Empty(t, resolved)
	assert.Equal(t, 1, s.Len())
}
