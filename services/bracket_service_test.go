package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinpoint/ttleague-backend/brackets"
	"github.com/spinpoint/ttleague-backend/models"
)

// bracketFor строит сохраненную сетку для списка игроков так, как ее
// записал бы persistBracket.
func bracketFor(t *testing.T, competitionID int, playerIDs []int) []models.KnockoutMatch {
	t.Helper()

	rounds, err := brackets.BuildBracket(playerIDs)
	require.NoError(t, err)

	id := 0
	matches := make([]models.KnockoutMatch, 0)
	for _, round := range rounds {
		for _, m := range round.Matches {
			id++
			matches = append(matches, models.KnockoutMatch{
				ID:            id,
				CompetitionID: competitionID,
				RoundName:     round.Name,
				RoundOrder:    round.Order,
				Player1ID:     m.Player1ID,
				Player2ID:     m.Player2ID,
			})
		}
	}
	return matches
}

func withWinner(matches []models.KnockoutMatch, index, winnerID int) []models.KnockoutMatch {
	out := make([]models.KnockoutMatch, len(matches))
	copy(out, matches)
	out[index].WinnerID = &winnerID
	return out
}

func TestRosterDrift(t *testing.T) {
	bracket := bracketFor(t, 1, []int{1, 2, 3, 4})

	removed, added := rosterDrift(bracket, []int{1, 2, 3, 4})
	assert.Zero(t, removed)
	assert.Zero(t, added)

	removed, added = rosterDrift(bracket, []int{1, 2, 3, 5})
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, added)

	removed, added = rosterDrift(bracket, []int{5, 6, 7, 8})
	assert.Equal(t, 4, removed)
	assert.Equal(t, 4, added)
}

func TestReconcileDecision(t *testing.T) {
	roster := []int{1, 2, 3, 4}
	bracket := bracketFor(t, 1, roster)

	testCases := []struct {
		name      string
		existing  []models.KnockoutMatch
		qualified []int
		winners   int
		expected  reconcileAction
	}{
		{
			name:      "no bracket yet",
			existing:  nil,
			qualified: roster,
			expected:  actionBuild,
		},
		{
			name:      "clean bracket",
			existing:  bracket,
			qualified: roster,
			expected:  actionNoop,
		},
		{
			name:      "single swap within tolerance",
			existing:  bracket,
			qualified: []int{1, 2, 3, 5},
			expected:  actionTolerate,
		},
		{
			name:      "drift beyond tolerance regenerates",
			existing:  bracket,
			qualified: []int{5, 6, 7, 8},
			expected:  actionRegenerate,
		},
		{
			name:      "drift beyond tolerance with results is blocked",
			existing:  bracket,
			qualified: []int{5, 6, 7, 8},
			winners:   1,
			expected:  actionBlocked,
		},
		{
			name:      "roster grew past bracket size",
			existing:  bracket,
			qualified: []int{1, 2, 3, 4, 5},
			expected:  actionRegenerate,
		},
		{
			name:      "roster grew but final already played",
			existing:  withWinner(bracket, 2, 1),
			qualified: []int{1, 2, 3, 4, 5},
			winners:   1,
			expected:  actionBlocked,
		},
		{
			name:      "roster shrank below bracket size",
			existing:  bracket,
			qualified: []int{1, 2},
			expected:  actionRegenerate,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			action := reconcileDecision(tc.existing, tc.qualified, 1, tc.winners)
			assert.Equal(t, tc.expected, action)
		})
	}
}

func TestReconcileDecisionToleranceParameter(t *testing.T) {
	roster := []int{1, 2, 3, 4}
	bracket := bracketFor(t, 1, roster)

	// Два выбывших: при tolerance=1 перестройка, при tolerance=2 нет.
	drifted := []int{1, 2, 5, 6}
	assert.Equal(t, actionRegenerate, reconcileDecision(bracket, drifted, 1, 0))
	assert.Equal(t, actionTolerate, reconcileDecision(bracket, drifted, 2, 0))
}

func TestCurrentBracketSize(t *testing.T) {
	assert.Equal(t, 4, currentBracketSize(bracketFor(t, 1, []int{1, 2, 3, 4})))
	assert.Equal(t, 8, currentBracketSize(bracketFor(t, 1, []int{1, 2, 3, 4, 5})))
}

func TestAssignSlotFills(t *testing.T) {
	t.Run("fills open slots in order", func(t *testing.T) {
		open := []models.KnockoutMatch{
			{ID: 10, Player1ID: intPtr(1)},
			{ID: 11},
		}

		fills := assignSlotFills(open, []int{7, 8, 9})
		require.Len(t, fills, 2)

		assert.Equal(t, 0, fills[0].matchIndex)
		assert.Equal(t, 1, *fills[0].player1ID)
		assert.Equal(t, 7, *fills[0].player2ID)

		assert.Equal(t, 1, fills[1].matchIndex)
		assert.Equal(t, 8, *fills[1].player1ID)
		assert.Equal(t, 9, *fills[1].player2ID)
	})

	t.Run("skips players already seated", func(t *testing.T) {
		open := []models.KnockoutMatch{
			{ID: 10, Player1ID: intPtr(5)},
		}

		fills := assignSlotFills(open, []int{5, 6})
		require.Len(t, fills, 1)
		assert.Equal(t, 5, *fills[0].player1ID)
		assert.Equal(t, 6, *fills[0].player2ID)
	})

	t.Run("no open slots", func(t *testing.T) {
		open := []models.KnockoutMatch{
			{ID: 10, Player1ID: intPtr(1), Player2ID: intPtr(2)},
		}
		assert.Empty(t, assignSlotFills(open, []int{7}))
	})
}
