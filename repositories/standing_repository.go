package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spinpoint/ttleague-backend/models"
)

// StandingRepository читает агрегированную статистику, посчитанную на стороне
// базы: fn_get_groups_with_stats, v_ranking_by_competition и fn_apply_match_elo.
type StandingRepository interface {
	GroupStandings(ctx context.Context, competitionID int) ([]models.GroupStandingRow, error)
	Ranking(ctx context.Context, competitionID int) ([]models.RankingRow, error)
	ApplyMatchElo(ctx context.Context, exec SQLExecutor, matchID int) error
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) GroupStandings(ctx context.Context, competitionID int) ([]models.GroupStandingRow, error) {
	query := `
		SELECT group_id, group_name, competition_id, player_id, name, lastname, nickname,
			image_url, matches_played, wins, losses, draws, score_difference, points, ranking
		FROM fn_get_groups_with_stats($1)
		ORDER BY group_name ASC, ranking ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group standings for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	standings := make([]models.GroupStandingRow, 0)
	for rows.Next() {
		var s models.GroupStandingRow
		if scanErr := rows.Scan(
			&s.GroupID, &s.GroupName, &s.CompetitionID, &s.PlayerID,
			&s.Name, &s.Lastname, &s.Nickname, &s.ImageURL,
			&s.MatchesPlayed, &s.Wins, &s.Losses, &s.Draws,
			&s.ScoreDifference, &s.Points, &s.Ranking,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group standing row: %w", scanErr)
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group standing rows iteration: %w", err)
	}
	return standings, nil
}

func (r *postgresStandingRepository) Ranking(ctx context.Context, competitionID int) ([]models.RankingRow, error) {
	query := `
		SELECT competition_id, player_id, nickname, image_url, rating, rank
		FROM v_ranking_by_competition
		WHERE competition_id = $1
		ORDER BY rank ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	ranking := make([]models.RankingRow, 0)
	for rows.Next() {
		var row models.RankingRow
		if scanErr := rows.Scan(&row.CompetitionID, &row.PlayerID, &row.Nickname, &row.ImageURL, &row.Rating, &row.Rank); scanErr != nil {
			return nil, fmt.Errorf("failed to scan ranking row: %w", scanErr)
		}
		ranking = append(ranking, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during ranking rows iteration: %w", err)
	}
	return ranking, nil
}

// ApplyMatchElo пересчитывает рейтинг обоих игроков матча (K = 32 внутри
// функции) в той же транзакции, где записан результат.
func (r *postgresStandingRepository) ApplyMatchElo(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `SELECT fn_apply_match_elo($1)`, matchID); err != nil {
		return fmt.Errorf("failed to apply elo for match %d: %w", matchID, err)
	}
	return nil
}
