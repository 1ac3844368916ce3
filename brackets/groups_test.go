package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupName(t *testing.T) {
	assert.Equal(t, "Group A", GroupName(0))
	assert.Equal(t, "Group B", GroupName(1))
	assert.Equal(t, "Group Z", GroupName(25))
	assert.Equal(t, "Group AA", GroupName(26))
}

func TestPartitionPlayers(t *testing.T) {
	testCases := []struct {
		name          string
		players       int
		maxGroupSize  int
		expectedCount int
	}{
		{"exact fit", 8, 4, 2},
		{"one remainder", 9, 4, 3},
		{"single group", 3, 4, 1},
		{"ten by four", 10, 4, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			groups := PartitionPlayers(playerRange(tc.players), tc.maxGroupSize)
			require.Len(t, groups, tc.expectedCount)

			total := 0
			minSize, maxSize := tc.players, 0
			seen := make(map[int]struct{})
			for _, g := range groups {
				total += len(g)
				if len(g) < minSize {
					minSize = len(g)
				}
				if len(g) > maxSize {
					maxSize = len(g)
				}
				for _, id := range g {
					_, dup := seen[id]
					assert.False(t, dup, "player %d assigned twice", id)
					seen[id] = struct{}{}
				}
			}
			assert.Equal(t, tc.players, total, "partition must cover every player exactly once")
			assert.LessOrEqual(t, maxSize-minSize, 1, "group sizes may differ by at most one")
		})
	}
}

func TestPartitionPlayersRoundRobinAssignment(t *testing.T) {
	groups := PartitionPlayers([]int{1, 2, 3, 4, 5, 6}, 3)
	require.Len(t, groups, 2)
	assert.Equal(t, []int{1, 3, 5}, groups[0])
	assert.Equal(t, []int{2, 4, 6}, groups[1])
}

func TestPartitionPlayersEdgeCases(t *testing.T) {
	assert.Nil(t, PartitionPlayers(nil, 4))
	assert.Nil(t, PartitionPlayers([]int{1, 2}, 0))
}
