package sizestr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentdb/diskquota/pkg/types"
)

func TestParseMBUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1 MB", 1},
		{"1MB", 1},
		{"1GB", 1024},
		{"1TB", 1024 * 1024},
		{"1024kB", 1},
		{"100 MB", 100},
	}
	for _, c := range cases {
		got, err := ParseMB(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseMBSentinels(t *testing.T) {
	noLimit, err := ParseMB("-1")
	require.NoError(t, err)
	assert.Equal(t, types.NoLimit, noLimit)

	denyAll, err := ParseMB("0")
	require.NoError(t, err)
	assert.Equal(t, types.DenyAll, denyAll)
}

func TestParseMBRejectsGarbage(t *testing.T) {
	_, err := ParseMB("lots")
	assert.Error(t, err)

	_, err = ParseMB("5")
	assert.Error(t, err, "bare non-sentinel integers must be rejected")

	_, err = ParseMB("-5MB")
	assert.Error(t, err)
}
