package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionEvenSplit(t *testing.T) {
	chunks := Partition(1024, 8)

	require.Len(t, chunks, 8)
	for i, c := range chunks {
		assert.Equal(t, int64(128), c.Length, "chunk %d", i)
		assert.Equal(t, int64(i)*128, c.Offset, "chunk %d", i)
	}
}

func TestPartitionRemainderGoesToLastChunk(t *testing.T) {
	chunks := Partition(1001, 8)

	require.Len(t, chunks, 8)
	for i := 0; i < 7; i++ {
		assert.Equal(t, int64(125), chunks[i].Length)
	}
	assert.Equal(t, int64(126), chunks[7].Length)
}

func TestPartitionCoversRangeExactly(t *testing.T) {
	cases := []struct {
		total int64
		n     int
	}{
		{1, 1}, {1, 8}, {7, 8}, {100, 3}, {1 << 20, 32}, {999999, 16},
	}

	for _, tc := range cases {
		chunks := Partition(tc.total, tc.n)

		var sum int64
		var next int64
		for _, c := range chunks {
			require.Equal(t, next, c.Offset, "total=%d n=%d: chunks must be contiguous", tc.total, tc.n)
			require.Greater(t, c.Length, int64(0))
			sum += c.Length
			next = c.Offset + c.Length
		}
		assert.Equal(t, tc.total, sum, "total=%d n=%d", tc.total, tc.n)
	}
}

func TestPartitionFewerChunksThanWorkersForTinyFiles(t *testing.T) {
	chunks := Partition(3, 8)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, int64(1), c.Length)
	}
}

func TestPartitionEmpty(t *testing.T) {
	assert.Nil(t, Partition(0, 8))
	assert.Nil(t, Partition(-5, 4))
}
