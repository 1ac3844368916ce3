package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/spinpoint/ttleague-backend/models"
)

var (
	ErrKnockoutMatchNotFound = errors.New("knockout match not found")
	ErrKnockoutSlotConflict  = errors.New("knockout match slot conflict")
)

type KnockoutRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.KnockoutMatch) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.KnockoutMatch, error)
	ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.KnockoutMatch, error)
	CountWinners(ctx context.Context, exec SQLExecutor, competitionID int) (int, error)

	UpdateLink(ctx context.Context, exec SQLExecutor, id int, nextMatchID *int) error
	UpdateSlots(ctx context.Context, exec SQLExecutor, id int, player1ID, player2ID *int) error
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, player1Score, player2Score int, winnerID *int, matchID *int) error

	FindByRoundAndPair(ctx context.Context, exec SQLExecutor, competitionID int, roundName string, player1ID, player2ID int) (*models.KnockoutMatch, error)
	ListOpenByRoundOrder(ctx context.Context, exec SQLExecutor, competitionID, roundOrder int) ([]models.KnockoutMatch, error)
	ListOpenSlotMatches(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.KnockoutMatch, error)

	ClearPlayerSlots(ctx context.Context, exec SQLExecutor, competitionID, playerID int) error
	DeleteEmpty(ctx context.Context, exec SQLExecutor, competitionID int) error
	DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) error
}

type postgresKnockoutRepository struct {
	db *sql.DB
}

func NewPostgresKnockoutRepository(db *sql.DB) KnockoutRepository {
	return &postgresKnockoutRepository{db: db}
}

func (r *postgresKnockoutRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const knockoutColumns = `id, competition_id, round_name, round_order, player1_id, player2_id,
	player1_score, player2_score, winner_id, next_match_id, match_id`

func scanKnockoutMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.KnockoutMatch, error) {
	var m models.KnockoutMatch
	err := rowScanner.Scan(
		&m.ID, &m.CompetitionID, &m.RoundName, &m.RoundOrder,
		&m.Player1ID, &m.Player2ID, &m.Player1Score, &m.Player2Score,
		&m.WinnerID, &m.NextMatchID, &m.MatchID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKnockoutMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresKnockoutRepository) Create(ctx context.Context, exec SQLExecutor, match *models.KnockoutMatch) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO knockout_matches (competition_id, round_name, round_order, player1_id, player2_id, winner_id, next_match_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		match.CompetitionID,
		match.RoundName,
		match.RoundOrder,
		match.Player1ID,
		match.Player2ID,
		match.WinnerID,
		match.NextMatchID,
	).Scan(&match.ID)

	return r.handleKnockoutError(err)
}

func (r *postgresKnockoutRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.KnockoutMatch, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + knockoutColumns + ` FROM knockout_matches WHERE id = $1`
	return scanKnockoutMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresKnockoutRepository) queryMatches(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]models.KnockoutMatch, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query knockout matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.KnockoutMatch, 0)
	for rows.Next() {
		m, scanErr := scanKnockoutMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan knockout match row: %w", scanErr)
		}
		matches = append(matches, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during knockout match rows iteration: %w", err)
	}
	return matches, nil
}

// ListByCompetition возвращает сетку в детерминированном порядке:
// по раундам от первого к финалу, внутри раунда — по id вставки.
func (r *postgresKnockoutRepository) ListByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.KnockoutMatch, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + knockoutColumns + `
		FROM knockout_matches
		WHERE competition_id = $1
		ORDER BY round_order ASC, id ASC`
	return r.queryMatches(ctx, executor, query, competitionID)
}

func (r *postgresKnockoutRepository) CountWinners(ctx context.Context, exec SQLExecutor, competitionID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(*) FROM knockout_matches WHERE competition_id = $1 AND winner_id IS NOT NULL`

	var count int
	if err := executor.QueryRowContext(ctx, query, competitionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count knockout winners for competition %d: %w", competitionID, err)
	}
	return count, nil
}

func (r *postgresKnockoutRepository) UpdateLink(ctx context.Context, exec SQLExecutor, id int, nextMatchID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE knockout_matches SET next_match_id = $1 WHERE id = $2`, nextMatchID, id)
	if err != nil {
		return r.handleKnockoutError(err)
	}
	return checkAffectedRows(result, ErrKnockoutMatchNotFound)
}

func (r *postgresKnockoutRepository) UpdateSlots(ctx context.Context, exec SQLExecutor, id int, player1ID, player2ID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE knockout_matches SET player1_id = $1, player2_id = $2 WHERE id = $3`,
		player1ID, player2ID, id)
	if err != nil {
		return r.handleKnockoutError(err)
	}
	return checkAffectedRows(result, ErrKnockoutMatchNotFound)
}

func (r *postgresKnockoutRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, player1Score, player2Score int, winnerID *int, matchID *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE knockout_matches
		SET player1_score = $1, player2_score = $2, winner_id = $3, match_id = $4
		WHERE id = $5`,
		player1Score, player2Score, winnerID, matchID, id)
	if err != nil {
		return r.handleKnockoutError(err)
	}
	return checkAffectedRows(result, ErrKnockoutMatchNotFound)
}

// FindByRoundAndPair ищет узел раунда по паре игроков в любом порядке слотов.
func (r *postgresKnockoutRepository) FindByRoundAndPair(ctx context.Context, exec SQLExecutor, competitionID int, roundName string, player1ID, player2ID int) (*models.KnockoutMatch, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + knockoutColumns + `
		FROM knockout_matches
		WHERE competition_id = $1 AND round_name = $2
		  AND ((player1_id = $3 AND player2_id = $4) OR (player1_id = $4 AND player2_id = $3))
		LIMIT 1`
	return scanKnockoutMatch(executor.QueryRowContext(ctx, query, competitionID, roundName, player1ID, player2ID))
}

// ListOpenByRoundOrder возвращает матчи раунда без записанного победителя
// и хотя бы с одним свободным слотом. Используется как запасной путь
// продвижения, когда next_match_id у источника не заполнен.
func (r *postgresKnockoutRepository) ListOpenByRoundOrder(ctx context.Context, exec SQLExecutor, competitionID, roundOrder int) ([]models.KnockoutMatch, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + knockoutColumns + `
		FROM knockout_matches
		WHERE competition_id = $1 AND round_order = $2
		  AND winner_id IS NULL
		  AND (player1_id IS NULL OR player2_id IS NULL)
		ORDER BY id ASC`
	return r.queryMatches(ctx, executor, query, competitionID, roundOrder)
}

// ListOpenSlotMatches возвращает все матчи соревнования со свободным слотом
// и без победителя, от ранних раундов к поздним.
func (r *postgresKnockoutRepository) ListOpenSlotMatches(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.KnockoutMatch, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + knockoutColumns + `
		FROM knockout_matches
		WHERE competition_id = $1
		  AND winner_id IS NULL
		  AND (player1_id IS NULL OR player2_id IS NULL)
		ORDER BY round_order ASC, id ASC`
	return r.queryMatches(ctx, executor, query, competitionID)
}

// ClearPlayerSlots освобождает слоты удаляемого игрока только в матчах без
// победителя. Строки с записанным результатом не трогаем.
func (r *postgresKnockoutRepository) ClearPlayerSlots(ctx context.Context, exec SQLExecutor, competitionID, playerID int) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx, `
		UPDATE knockout_matches SET player1_id = NULL
		WHERE competition_id = $1 AND player1_id = $2 AND winner_id IS NULL`,
		competitionID, playerID); err != nil {
		return fmt.Errorf("failed to clear player1 slots for player %d: %w", playerID, err)
	}

	if _, err := executor.ExecContext(ctx, `
		UPDATE knockout_matches SET player2_id = NULL
		WHERE competition_id = $1 AND player2_id = $2 AND winner_id IS NULL`,
		competitionID, playerID); err != nil {
		return fmt.Errorf("failed to clear player2 slots for player %d: %w", playerID, err)
	}
	return nil
}

// DeleteEmpty удаляет полностью пустые узлы: оба слота свободны, победителя
// и реализованного матча нет. Частично заполненные узлы остаются.
func (r *postgresKnockoutRepository) DeleteEmpty(ctx context.Context, exec SQLExecutor, competitionID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `
		DELETE FROM knockout_matches
		WHERE competition_id = $1
		  AND player1_id IS NULL AND player2_id IS NULL
		  AND winner_id IS NULL AND match_id IS NULL`,
		competitionID)
	if err != nil {
		return fmt.Errorf("failed to delete empty knockout matches for competition %d: %w", competitionID, err)
	}
	return nil
}

func (r *postgresKnockoutRepository) DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) error {
	executor := r.getExecutor(exec)

	// Ссылки next_match_id внутри сетки мешают прямому DELETE, сбрасываем их первыми.
	if _, err := executor.ExecContext(ctx,
		`UPDATE knockout_matches SET next_match_id = NULL WHERE competition_id = $1`, competitionID); err != nil {
		return fmt.Errorf("failed to unlink knockout matches for competition %d: %w", competitionID, err)
	}

	if _, err := executor.ExecContext(ctx,
		`DELETE FROM knockout_matches WHERE competition_id = $1`, competitionID); err != nil {
		return fmt.Errorf("failed to delete knockout matches for competition %d: %w", competitionID, err)
	}
	return nil
}

func (r *postgresKnockoutRepository) handleKnockoutError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "knockout_matches_competition_id_fkey":
			return ErrCompetitionNotFound
		case "knockout_matches_player1_id_fkey", "knockout_matches_player2_id_fkey", "knockout_matches_winner_id_fkey":
			return ErrPlayerNotFound
		case "knockout_matches_next_match_id_fkey", "knockout_matches_match_id_fkey":
			return ErrKnockoutSlotConflict
		}
	}
	return err
}
