package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/spinpoint/ttleague-backend/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrMatchConflict = errors.New("match references unknown player or group")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	InsertBatch(ctx context.Context, exec SQLExecutor, matches []models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	FindPendingByPair(ctx context.Context, exec SQLExecutor, competitionID int, groupID *int, player1ID, player2ID int) (*models.Match, error)
	UpdateScores(ctx context.Context, exec SQLExecutor, id, player1Score, player2Score int) error
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]models.Match, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]models.Match, error)
	ListPending(ctx context.Context, competitionID int) ([]models.Match, error)
	SetDate(ctx context.Context, id int, date time.Time) error
	DeleteUnplayedByGroups(ctx context.Context, exec SQLExecutor, competitionID int) error
	CreateSets(ctx context.Context, exec SQLExecutor, matchID int, sets []models.MatchSet) error
	ListSets(ctx context.Context, matchID int) ([]models.MatchSet, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, competition_id, group_id, player1_id, player2_id,
	player1_score, player2_score, stage, date, created`

func scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := rowScanner.Scan(
		&m.ID, &m.CompetitionID, &m.GroupID, &m.Player1ID, &m.Player2ID,
		&m.Player1Score, &m.Player2Score, &m.Stage, &m.Date, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (competition_id, group_id, player1_id, player2_id, player1_score, player2_score, stage, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created`

	err := executor.QueryRowContext(ctx, query,
		match.CompetitionID,
		match.GroupID,
		match.Player1ID,
		match.Player2ID,
		match.Player1Score,
		match.Player2Score,
		match.Stage,
		match.Date,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

// InsertBatch вставляет запланированные матчи одной командой.
func (r *postgresMatchRepository) InsertBatch(ctx context.Context, exec SQLExecutor, matches []models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	executor := r.getExecutor(exec)

	competitionIDs := make([]int, len(matches))
	groupIDs := make([]sql.NullInt64, len(matches))
	player1IDs := make([]int, len(matches))
	player2IDs := make([]int, len(matches))
	for i, m := range matches {
		competitionIDs[i] = m.CompetitionID
		if m.GroupID != nil {
			groupIDs[i] = sql.NullInt64{Int64: int64(*m.GroupID), Valid: true}
		}
		player1IDs[i] = m.Player1ID
		player2IDs[i] = m.Player2ID
	}

	query := `
		INSERT INTO matches (competition_id, group_id, player1_id, player2_id)
		SELECT * FROM unnest($1::int[], $2::int[], $3::int[], $4::int[])`

	_, err := executor.ExecContext(ctx, query,
		pq.Array(competitionIDs), pq.Array(groupIDs), pq.Array(player1IDs), pq.Array(player2IDs))
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(executor.QueryRowContext(ctx, query, id))
}

// FindPendingByPair ищет несыгранный матч пары в любом порядке слотов.
// Фильтр группы точный: nil означает строку без группы, а не любую —
// иначе результат плей-офф мог бы перезаписать групповой матч той же пары.
func (r *postgresMatchRepository) FindPendingByPair(ctx context.Context, exec SQLExecutor, competitionID int, groupID *int, player1ID, player2ID int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE competition_id = $1
		  AND (($2::int IS NULL AND group_id IS NULL) OR group_id = $2)
		  AND player1_score IS NULL AND player2_score IS NULL
		  AND ((player1_id = $3 AND player2_id = $4) OR (player1_id = $4 AND player2_id = $3))
		ORDER BY id ASC
		LIMIT 1`
	return scanMatch(executor.QueryRowContext(ctx, query, competitionID, groupID, player1ID, player2ID))
}

func (r *postgresMatchRepository) UpdateScores(ctx context.Context, exec SQLExecutor, id, player1Score, player2Score int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET player1_score = $1, player2_score = $2 WHERE id = $3`,
		player1Score, player2Score, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID int) ([]models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE group_id = $1 ORDER BY id ASC`
	return r.queryMatches(ctx, executor, query, groupID)
}

func (r *postgresMatchRepository) ListByCompetition(ctx context.Context, competitionID int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE competition_id = $1 ORDER BY id ASC`
	return r.queryMatches(ctx, r.db, query, competitionID)
}

// ListPending возвращает еще не сыгранные матчи вместе с именем группы.
func (r *postgresMatchRepository) ListPending(ctx context.Context, competitionID int) ([]models.Match, error) {
	query := `
		SELECT m.id, m.competition_id, m.group_id, m.player1_id, m.player2_id,
			m.player1_score, m.player2_score, m.stage, m.date, m.created,
			g.name
		FROM matches m
		LEFT JOIN groups g ON g.id = m.group_id
		WHERE m.competition_id = $1
		  AND m.player1_score IS NULL AND m.player2_score IS NULL
		ORDER BY m.date ASC NULLS LAST, m.id ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending matches for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := rows.Scan(
			&m.ID, &m.CompetitionID, &m.GroupID, &m.Player1ID, &m.Player2ID,
			&m.Player1Score, &m.Player2Score, &m.Stage, &m.Date, &m.CreatedAt,
			&m.GroupName,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan pending match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pending match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) SetDate(ctx context.Context, id int, date time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET date = $1 WHERE id = $2`, date, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// DeleteUnplayedByGroups удаляет несыгранные групповые матчи соревнования.
// Сыгранные строки остаются ради истории рейтинга.
func (r *postgresMatchRepository) DeleteUnplayedByGroups(ctx context.Context, exec SQLExecutor, competitionID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		DELETE FROM matches
		WHERE competition_id = $1 AND group_id IS NOT NULL
		  AND player1_score IS NULL AND player2_score IS NULL`,
		competitionID)
	if err != nil {
		return fmt.Errorf("failed to delete unplayed group matches for competition %d: %w", competitionID, err)
	}
	return nil
}

func (r *postgresMatchRepository) CreateSets(ctx context.Context, exec SQLExecutor, matchID int, sets []models.MatchSet) error {
	if len(sets) == 0 {
		return nil
	}

	executor := r.getExecutor(exec)
	query := `INSERT INTO match_sets (match_id, player1_score, player2_score) VALUES ($1, $2, $3)`
	for _, s := range sets {
		if _, err := executor.ExecContext(ctx, query, matchID, s.Player1Score, s.Player2Score); err != nil {
			return r.handleMatchError(err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) ListSets(ctx context.Context, matchID int) ([]models.MatchSet, error) {
	query := `SELECT id, match_id, player1_score, player2_score FROM match_sets WHERE match_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sets for match %d: %w", matchID, err)
	}
	defer rows.Close()

	sets := make([]models.MatchSet, 0)
	for rows.Next() {
		var s models.MatchSet
		if scanErr := rows.Scan(&s.ID, &s.MatchID, &s.Player1Score, &s.Player2Score); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match set row: %w", scanErr)
		}
		sets = append(sets, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match set rows iteration: %w", err)
	}
	return sets, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_competition_id_fkey":
			return ErrCompetitionNotFound
		case "matches_player1_id_fkey", "matches_player2_id_fkey":
			return ErrPlayerNotFound
		case "matches_group_id_fkey":
			return ErrGroupNotFound
		case "match_sets_match_id_fkey":
			return ErrMatchNotFound
		}
	}
	return err
}
