package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinpoint/ttleague-backend/models"
)

func matchesFromPairs(pairs []Pair) []models.Match {
	matches := make([]models.Match, 0, len(pairs))
	for _, p := range pairs {
		matches = append(matches, models.Match{Player1ID: p.Player1ID, Player2ID: p.Player2ID})
	}
	return matches
}

func TestMissingPairsFullGeneration(t *testing.T) {
	testCases := []struct {
		name    string
		members int
	}{
		{"two members", 2},
		{"four members", 4},
		{"seven members", 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pairs := MissingPairs(playerRange(tc.members), nil)
			assert.Len(t, pairs, tc.members*(tc.members-1)/2)

			seen := make(map[Pair]struct{})
			for _, p := range pairs {
				assert.Less(t, p.Player1ID, p.Player2ID, "pairs must be canonical")
				_, dup := seen[p]
				assert.False(t, dup, "duplicate pair %v", p)
				seen[p] = struct{}{}
			}
		})
	}
}

func TestMissingPairsIdempotent(t *testing.T) {
	members := playerRange(4)

	first := MissingPairs(members, nil)
	require.Len(t, first, 6)

	second := MissingPairs(members, matchesFromPairs(first))
	assert.Empty(t, second, "regeneration over complete fixtures must add nothing")
}

func TestMissingPairsSlotOrderIndependent(t *testing.T) {
	members := []int{1, 2, 3}
	existing := []models.Match{
		{Player1ID: 2, Player2ID: 1}, // reversed slots
		{Player1ID: 1, Player2ID: 3},
	}

	pairs := MissingPairs(members, existing)
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Player1ID: 2, Player2ID: 3}, pairs[0])
}

func TestMissingPairsAfterMemberRemoval(t *testing.T) {
	// Группа из четырех: шесть пар. После ухода игрока 4 три его пары
	// остаются историей, генерация ничего не досоздает.
	full := MissingPairs(playerRange(4), nil)
	require.Len(t, full, 6)

	remaining := MissingPairs([]int{1, 2, 3}, matchesFromPairs(full))
	assert.Empty(t, remaining)
}
