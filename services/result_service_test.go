package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spinpoint/ttleague-backend/models"
	"github.com/spinpoint/ttleague-backend/repositories"
)

func TestMatchWinner(t *testing.T) {
	winner := matchWinner(1, 2, 3, 1)
	require.NotNil(t, winner)
	assert.Equal(t, 1, *winner)

	winner = matchWinner(1, 2, 0, 3)
	require.NotNil(t, winner)
	assert.Equal(t, 2, *winner)

	assert.Nil(t, matchWinner(1, 2, 2, 2), "tie must not produce a winner")
}

func TestChooseSuccessorSlots(t *testing.T) {
	testCases := []struct {
		name             string
		next             models.KnockoutMatch
		winnerID         int
		previousWinnerID *int
		sourcePosition   int
		expectedP1       *int
		expectedP2       *int
		expectedOK       bool
	}{
		{
			name:           "both empty, even source position takes slot 1",
			next:           models.KnockoutMatch{},
			winnerID:       7,
			sourcePosition: 0,
			expectedP1:     intPtr(7),
			expectedOK:     true,
		},
		{
			name:           "both empty, odd source position takes slot 2",
			next:           models.KnockoutMatch{},
			winnerID:       7,
			sourcePosition: 1,
			expectedP2:     intPtr(7),
			expectedOK:     true,
		},
		{
			name:           "only slot 2 free",
			next:           models.KnockoutMatch{Player1ID: intPtr(3)},
			winnerID:       7,
			sourcePosition: 0,
			expectedP1:     intPtr(3),
			expectedP2:     intPtr(7),
			expectedOK:     true,
		},
		{
			name:           "only slot 1 free",
			next:           models.KnockoutMatch{Player2ID: intPtr(3)},
			winnerID:       7,
			sourcePosition: 1,
			expectedP1:     intPtr(7),
			expectedP2:     intPtr(3),
			expectedOK:     true,
		},
		{
			name:             "correction replaces the slot of the previous winner",
			next:             models.KnockoutMatch{Player1ID: intPtr(5), Player2ID: intPtr(3)},
			winnerID:         7,
			previousWinnerID: intPtr(5),
			sourcePosition:   0,
			expectedP1:       intPtr(7),
			expectedP2:       intPtr(3),
			expectedOK:       true,
		},
		{
			name:             "correction in slot 2",
			next:             models.KnockoutMatch{Player1ID: intPtr(3), Player2ID: intPtr(5)},
			winnerID:         7,
			previousWinnerID: intPtr(5),
			sourcePosition:   1,
			expectedP1:       intPtr(3),
			expectedP2:       intPtr(7),
			expectedOK:       true,
		},
		{
			name:           "winner already seated is a no-op",
			next:           models.KnockoutMatch{Player1ID: intPtr(7)},
			winnerID:       7,
			sourcePosition: 0,
			expectedP1:     intPtr(7),
			expectedOK:     false,
		},
		{
			name:           "both slots taken by other players",
			next:           models.KnockoutMatch{Player1ID: intPtr(3), Player2ID: intPtr(4)},
			winnerID:       7,
			sourcePosition: 0,
			expectedP1:     intPtr(3),
			expectedP2:     intPtr(4),
			expectedOK:     false,
		},
		{
			name: "recorded result blocks the correction path",
			next: models.KnockoutMatch{
				Player1ID: intPtr(5),
				Player2ID: intPtr(3),
				WinnerID:  intPtr(3),
			},
			winnerID:         7,
			previousWinnerID: intPtr(5),
			sourcePosition:   0,
			expectedP1:       intPtr(5),
			expectedP2:       intPtr(3),
			expectedOK:       false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p1, p2, ok := chooseSuccessorSlots(&tc.next, tc.winnerID, tc.previousWinnerID, tc.sourcePosition)

			assert.Equal(t, tc.expectedOK, ok)
			if tc.expectedP1 == nil {
				assert.Nil(t, p1)
			} else {
				require.NotNil(t, p1)
				assert.Equal(t, *tc.expectedP1, *p1)
			}
			if tc.expectedP2 == nil {
				assert.Nil(t, p2)
			} else {
				require.NotNil(t, p2)
				assert.Equal(t, *tc.expectedP2, *p2)
			}
		})
	}
}

// stubMatchRepository перекрывает только методы, нужные upsertFixture;
// остальные падают через nil-вставку интерфейса.
type stubMatchRepository struct {
	repositories.MatchRepository

	pending       *models.Match
	lookups       int
	created       []models.Match
	updatedID     int
	updatedScores [2]int
}

func (s *stubMatchRepository) FindPendingByPair(ctx context.Context, exec repositories.SQLExecutor, competitionID int, groupID *int, player1ID, player2ID int) (*models.Match, error) {
	s.lookups++
	if s.pending == nil {
		return nil, repositories.ErrMatchNotFound
	}
	return s.pending, nil
}

func (s *stubMatchRepository) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	match.ID = 100 + len(s.created)
	s.created = append(s.created, *match)
	return nil
}

func (s *stubMatchRepository) UpdateScores(ctx context.Context, exec repositories.SQLExecutor, id, player1Score, player2Score int) error {
	s.updatedID = id
	s.updatedScores = [2]int{player1Score, player2Score}
	return nil
}

func TestUpsertFixture(t *testing.T) {
	t.Run("staged result never reuses a pending group fixture", func(t *testing.T) {
		groupID := 11
		repo := &stubMatchRepository{
			pending: &models.Match{ID: 50, GroupID: &groupID, Player1ID: 1, Player2ID: 2},
		}
		svc := &resultService{matchRepo: repo}

		stage := "final"
		match, err := svc.upsertFixture(context.Background(), nil, RecordResultInput{
			CompetitionID: 1,
			Stage:         &stage,
			Player1ID:     1,
			Player2ID:     2,
			Player1Score:  3,
			Player2Score:  1,
		})
		require.NoError(t, err)

		assert.Zero(t, repo.lookups, "staged result must not look up pending fixtures")
		require.Len(t, repo.created, 1)
		assert.NotEqual(t, 50, match.ID)
		assert.Nil(t, match.GroupID)
		assert.Zero(t, repo.updatedID, "pending group row must stay untouched")
	})

	t.Run("group result reuses the pending row with slot-aligned scores", func(t *testing.T) {
		groupID := 11
		repo := &stubMatchRepository{
			// Слоты сохраненной строки в обратном порядке относительно ввода.
			pending: &models.Match{ID: 50, GroupID: &groupID, Player1ID: 2, Player2ID: 1},
		}
		svc := &resultService{matchRepo: repo}

		match, err := svc.upsertFixture(context.Background(), nil, RecordResultInput{
			CompetitionID: 1,
			GroupID:       &groupID,
			Player1ID:     1,
			Player2ID:     2,
			Player1Score:  3,
			Player2Score:  1,
		})
		require.NoError(t, err)

		assert.Equal(t, 50, match.ID)
		assert.Empty(t, repo.created)
		assert.Equal(t, 50, repo.updatedID)
		assert.Equal(t, [2]int{1, 3}, repo.updatedScores)
	})
}

func TestQualifiedFromStandings(t *testing.T) {
	standings := []models.GroupStandingRow{
		{GroupName: "Group A", PlayerID: 1, Ranking: 1},
		{GroupName: "Group A", PlayerID: 2, Ranking: 2},
		{GroupName: "Group A", PlayerID: 3, Ranking: 3},
		{GroupName: "Group B", PlayerID: 4, Ranking: 1},
		{GroupName: "Group B", PlayerID: 5, Ranking: 2},
		{GroupName: "Group B", PlayerID: 4, Ranking: 2}, // дубликат не проходит дважды
	}

	assert.Equal(t, []int{1, 2, 4, 5}, qualifiedFromStandings(standings, 2))
	assert.Equal(t, []int{1, 4}, qualifiedFromStandings(standings, 1))
	assert.Empty(t, qualifiedFromStandings(nil, 2))
}
