package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinpoint/ttleague-backend/models"
)

func TestStageName(t *testing.T) {
	testCases := []struct {
		name       string
		players    int
		roundIndex int
		expected   string
	}{
		{"2 players final", 2, 0, "final"},
		{"4 players first round", 4, 0, "semifinals"},
		{"4 players last round", 4, 1, "final"},
		{"5 players spans three rounds", 5, 0, "quarterfinals"},
		{"16 players opener", 16, 0, "one_eighth_finals"},
		{"32 players opener", 32, 0, "one_sixteenth_finals"},
		{"64 players opener", 64, 0, "one_thirty_second_finals"},
		{"128 players opener", 128, 0, "one_sixty_fourth_finals"},
		{"256 players falls back to round_N", 256, 0, "round_1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StageName(tc.players, tc.roundIndex))
		})
	}
}

func TestExpectedRounds(t *testing.T) {
	t.Run("too few players", func(t *testing.T) {
		assert.Empty(t, ExpectedRounds(0))
		assert.Empty(t, ExpectedRounds(1))
	})

	t.Run("five players", func(t *testing.T) {
		rounds := ExpectedRounds(5)
		require.Len(t, rounds, 3)
		assert.Equal(t, RoundMeta{Order: 1, Name: "quarterfinals", MatchCount: 4}, rounds[0])
		assert.Equal(t, RoundMeta{Order: 2, Name: "semifinals", MatchCount: 2}, rounds[1])
		assert.Equal(t, RoundMeta{Order: 3, Name: "final", MatchCount: 1}, rounds[2])
	})
}

func persistedBracket(rounds []RoundMeta) []models.KnockoutMatch {
	var matches []models.KnockoutMatch
	id := 1
	for _, round := range rounds {
		for i := 0; i < round.MatchCount; i++ {
			matches = append(matches, models.KnockoutMatch{
				ID:         id,
				RoundName:  round.Name,
				RoundOrder: round.Order,
			})
			id++
		}
	}
	return matches
}

func TestStructureMismatch(t *testing.T) {
	expected := ExpectedRounds(5)

	t.Run("matching shape", func(t *testing.T) {
		existing := persistedBracket(expected)
		assert.False(t, StructureMismatch(existing, expected))
	})

	t.Run("missing round", func(t *testing.T) {
		existing := persistedBracket(expected[:2])
		assert.True(t, StructureMismatch(existing, expected))
	})

	t.Run("round short of matches", func(t *testing.T) {
		existing := persistedBracket(expected)
		existing = existing[1:] // drop one quarterfinal
		assert.True(t, StructureMismatch(existing, expected))
	})

	t.Run("round name disagrees", func(t *testing.T) {
		existing := persistedBracket(expected)
		existing[0].RoundName = "semifinals"
		assert.True(t, StructureMismatch(existing, expected))
	})

	t.Run("single renamed row among correct siblings", func(t *testing.T) {
		existing := persistedBracket(expected)
		existing[2].RoundName = "final"
		assert.True(t, StructureMismatch(existing, expected),
			"one corrupted row must not hide behind correctly named siblings")
	})

	t.Run("blank names do not count as disagreement", func(t *testing.T) {
		existing := persistedBracket(expected)
		existing[1].RoundName = ""
		assert.False(t, StructureMismatch(existing, expected))
	})

	t.Run("unexpected extra round", func(t *testing.T) {
		existing := persistedBracket(expected)
		existing = append(existing, models.KnockoutMatch{ID: 99, RoundName: "round_4", RoundOrder: 4})
		assert.True(t, StructureMismatch(existing, expected))
	})

	t.Run("empty expectation rejects any bracket", func(t *testing.T) {
		assert.True(t, StructureMismatch([]models.KnockoutMatch{{ID: 1}}, nil))
		assert.False(t, StructureMismatch(nil, nil))
	})
}
