package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentdb/diskquota/pkg/types"
)

func TestStaticCatalogLookupRelation(t *testing.T) {
	c := NewStaticCatalog()
	c.Put(1, RelationInfo{
		RelationID:        100,
		PrimaryRelationID: 100,
		NamespaceID:       5,
		TablespaceID:      1663,
		RelfilenodeID:     100,
		StorageKind:       types.StorageKindHeap,
	})

	info, err := c.LookupRelation(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Equal(t, types.SchemaID(5), info.NamespaceID)
}

func TestStaticCatalogLookupRelationNotFound(t *testing.T) {
	c := NewStaticCatalog()
	_, err := c.LookupRelation(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaticCatalogLookupByRelfilenode(t *testing.T) {
	c := NewStaticCatalog()
	c.Put(1, RelationInfo{
		RelationID:    200,
		TablespaceID:  1663,
		RelfilenodeID: 200,
	})

	relID, err := c.LookupByRelfilenode(context.Background(), 1, 1663, 200)
	require.NoError(t, err)
	assert.Equal(t, types.RelationID(200), relID)

	_, err = c.LookupByRelfilenode(context.Background(), 1, 1663, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaticCatalogDefaultTablespace(t *testing.T) {
	c := NewStaticCatalog()
	c.DefaultTablespaces[1] = 1663

	ts, err := c.DefaultTablespace(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, types.TablespaceID(1663), ts)
}
