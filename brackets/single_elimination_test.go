package brackets

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerRange(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

func TestBuildBracketShape(t *testing.T) {
	testCases := []struct {
		name            string
		players         int
		expectedRounds  int
		expectedBracket int
	}{
		{name: "2 players", players: 2, expectedRounds: 1, expectedBracket: 2},
		{name: "3 players", players: 3, expectedRounds: 2, expectedBracket: 4},
		{name: "4 players", players: 4, expectedRounds: 2, expectedBracket: 4},
		{name: "5 players", players: 5, expectedRounds: 3, expectedBracket: 8},
		{name: "8 players", players: 8, expectedRounds: 3, expectedBracket: 8},
		{name: "9 players", players: 9, expectedRounds: 4, expectedBracket: 16},
		{name: "16 players", players: 16, expectedRounds: 4, expectedBracket: 16},
		{name: "33 players", players: 33, expectedRounds: 6, expectedBracket: 64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rounds, err := BuildBracket(playerRange(tc.players))
			require.NoError(t, err)
			require.Len(t, rounds, tc.expectedRounds)

			totalMatches := 0
			for i, round := range rounds {
				assert.Equal(t, i+1, round.Order)
				expectedMatches := tc.expectedBracket / int(math.Pow(2, float64(i+1)))
				assert.Len(t, round.Matches, expectedMatches, "round %d", round.Order)
				totalMatches += len(round.Matches)
			}
			assert.Equal(t, tc.expectedBracket-1, totalMatches, "total matches must be bracketSize-1")
		})
	}
}

func TestBuildBracketFivePlayers(t *testing.T) {
	rounds, err := BuildBracket([]int{10, 20, 30, 40, 50})
	require.NoError(t, err)
	require.Len(t, rounds, 3)

	assert.Equal(t, "quarterfinals", rounds[0].Name)
	assert.Equal(t, "semifinals", rounds[1].Name)
	assert.Equal(t, "final", rounds[2].Name)

	require.Len(t, rounds[0].Matches, 4)
	require.Len(t, rounds[1].Matches, 2)
	require.Len(t, rounds[2].Matches, 1)

	// Игроков 5 при размере сетки 8: три пустых слота первого раунда,
	// два из четырех матчей неполные.
	byeMatches := 0
	emptySlots := 0
	for _, m := range rounds[0].Matches {
		if m.IsBye {
			byeMatches++
		}
		if m.Player1ID == nil {
			emptySlots++
		}
		if m.Player2ID == nil {
			emptySlots++
		}
	}
	assert.Equal(t, 2, byeMatches)
	assert.Equal(t, 3, emptySlots)

	// Пары первого раунда позиционные.
	first := rounds[0].Matches[0]
	require.NotNil(t, first.Player1ID)
	require.NotNil(t, first.Player2ID)
	assert.Equal(t, 10, *first.Player1ID)
	assert.Equal(t, 20, *first.Player2ID)

	third := rounds[0].Matches[2]
	require.NotNil(t, third.Player1ID)
	assert.Equal(t, 50, *third.Player1ID)
	assert.Nil(t, third.Player2ID)
	assert.True(t, third.IsBye)
}

func TestBuildBracketLinks(t *testing.T) {
	rounds, err := BuildBracket(playerRange(8))
	require.NoError(t, err)
	require.Len(t, rounds, 3)

	for _, m := range rounds[0].Matches {
		require.NotNil(t, m.NextMatchKey)
		expected := rounds[1].Matches[m.Position/2].Key
		assert.Equal(t, expected, *m.NextMatchKey)
	}
	for _, m := range rounds[1].Matches {
		require.NotNil(t, m.NextMatchKey)
		assert.Equal(t, rounds[2].Matches[0].Key, *m.NextMatchKey)
	}
	assert.Nil(t, rounds[2].Matches[0].NextMatchKey, "final has no successor")

	// Слоты заполняются только в первом раунде.
	for _, round := range rounds[1:] {
		for _, m := range round.Matches {
			assert.Nil(t, m.Player1ID)
			assert.Nil(t, m.Player2ID)
		}
	}
}

func TestBuildBracketNotEnoughPlayers(t *testing.T) {
	testCases := []struct {
		name    string
		players []int
	}{
		{name: "empty", players: nil},
		{name: "single player", players: []int{7}},
		{name: "duplicates collapse to one", players: []int{7, 7, 7}},
		{name: "only invalid ids", players: []int{0, -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rounds, err := BuildBracket(tc.players)
			assert.Nil(t, rounds)
			assert.ErrorIs(t, err, ErrNotEnoughPlayers)
		})
	}
}

func TestDedupePlayers(t *testing.T) {
	got := DedupePlayers([]int{3, 0, 1, 3, -5, 2, 1})
	assert.Equal(t, []int{3, 1, 2}, got)
}
