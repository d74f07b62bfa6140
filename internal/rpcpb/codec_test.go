package rpcpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodecRoundTrip(t *testing.T) {
	c := jsonCodec{}
	req := &FetchTableStatRequest{Mode: FetchModeActiveSize, RelationIDs: []int64{1, 2, 3}, SchemaVersion: 2}

	data, err := c.Marshal(req)
	require.NoError(t, err)

	got := new(FetchTableStatRequest)
	require.NoError(t, c.Unmarshal(data, got))
	assert.Equal(t, req.Mode, got.Mode)
	assert.Equal(t, req.RelationIDs, got.RelationIDs)
	assert.Equal(t, req.SchemaVersion, got.SchemaVersion)
}

func TestJSONCodecName(t *testing.T) {
	assert.Equal(t, "rpcpb-json", jsonCodec{}.Name())
}
