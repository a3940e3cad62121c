package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolWindows(t *testing.T) {
	ix := New()
	ix.UpsertPool("pool-1", 100)
	ix.UpsertPool("pool-2", 50)
	ix.UpsertPool("pool-3", 100)
	ix.UpsertPool("pool-4", 0)

	require.Equal(t, []string{"pool-2", "pool-1", "pool-3"}, ix.ActivePools(10))
	require.Equal(t, []string{"pool-1", "pool-3"}, ix.ActivePools(50))
	require.Empty(t, ix.ActivePools(100))

	// refunding moves the pool to its new end
	ix.UpsertPool("pool-2", 200)
	require.Equal(t, []string{"pool-1", "pool-3", "pool-2"}, ix.ActivePools(10))
	require.Equal(t, []string{"pool-4", "pool-1", "pool-3"}, ix.EndingBetween(0, 101))
}

func TestLeaderboard(t *testing.T) {
	ix := New()
	require.Nil(t, ix.TopStakers("pool-1", 10))

	ix.SetStake("pool-1", "alice", 300)
	ix.SetStake("pool-1", "bob", 500)
	ix.SetStake("pool-1", "carol", 300)
	ix.SetStake("pool-2", "dave", 1)

	tests := []struct {
		name string
		n    int
		want []Staker
	}{
		{"top one", 1, []Staker{{"bob", 500}}},
		{"ties by owner", 3, []Staker{{"bob", 500}, {"alice", 300}, {"carol", 300}}},
		{"n beyond size", 10, []Staker{{"bob", 500}, {"alice", 300}, {"carol", 300}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ix.TopStakers("pool-1", tc.n))
		})
	}

	ix.SetStake("pool-1", "alice", 900)
	ix.SetStake("pool-1", "bob", 0)
	require.Equal(t, []Staker{{"alice", 900}, {"carol", 300}}, ix.TopStakers("pool-1", 10))
	require.Equal(t, 2, ix.StakerCount("pool-1"))
	require.Equal(t, 1, ix.StakerCount("pool-2"))
}
