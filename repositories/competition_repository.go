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
	ErrCompetitionNotFound       = errors.New("competition not found")
	ErrCompetitionNameConflict   = errors.New("competition name already exists")
	ErrCompetitionPlayerConflict = errors.New("player is already registered for this competition")
)

type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	List(ctx context.Context) ([]*models.Competition, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error

	AddPlayer(ctx context.Context, exec SQLExecutor, competitionID, playerID int) error
	RemovePlayer(ctx context.Context, exec SQLExecutor, competitionID, playerID int) error
	ListPlayerIDs(ctx context.Context, exec SQLExecutor, competitionID int) ([]int, error)
	ListPlayers(ctx context.Context, competitionID int) ([]*models.Player, error)
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

func (r *postgresCompetitionRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const competitionColumns = `id, name, type, sets_type, points_type, start_date, end_date, created_by, created_at`

func (r *postgresCompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	query := `
		INSERT INTO competitions (name, type, sets_type, points_type, start_date, end_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		competition.Name,
		competition.Type,
		competition.SetsType,
		competition.PointsType,
		competition.StartDate,
		competition.EndDate,
		competition.CreatedByID,
	).Scan(&competition.ID, &competition.CreatedAt)

	return r.handleCompetitionError(err)
}

func (r *postgresCompetitionRepository) scanCompetition(rowScanner interface{ Scan(...interface{}) error }) (*models.Competition, error) {
	var c models.Competition
	err := rowScanner.Scan(
		&c.ID, &c.Name, &c.Type, &c.SetsType, &c.PointsType,
		&c.StartDate, &c.EndDate, &c.CreatedByID, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`
	return r.scanCompetition(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresCompetitionRepository) List(ctx context.Context) ([]*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitions: %w", err)
	}
	defer rows.Close()

	competitions := make([]*models.Competition, 0)
	for rows.Next() {
		c, scanErr := r.scanCompetition(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan competition row: %w", scanErr)
		}
		competitions = append(competitions, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competition rows iteration: %w", err)
	}
	return competitions, nil
}

func (r *postgresCompetitionRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM competitions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}

func (r *postgresCompetitionRepository) AddPlayer(ctx context.Context, exec SQLExecutor, competitionID, playerID int) error {
	executor := r.getExecutor(exec)
	query := `INSERT INTO competitions_players (competition_id, player_id) VALUES ($1, $2)`
	_, err := executor.ExecContext(ctx, query, competitionID, playerID)
	return r.handleCompetitionError(err)
}

func (r *postgresCompetitionRepository) RemovePlayer(ctx context.Context, exec SQLExecutor, competitionID, playerID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM competitions_players WHERE competition_id = $1 AND player_id = $2`
	result, err := executor.ExecContext(ctx, query, competitionID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresCompetitionRepository) ListPlayerIDs(ctx context.Context, exec SQLExecutor, competitionID int) ([]int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT player_id FROM competitions_players
		WHERE competition_id = $1
		ORDER BY player_id ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query competition players: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan competition player row: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competition player rows iteration: %w", err)
	}
	return ids, nil
}

func (r *postgresCompetitionRepository) ListPlayers(ctx context.Context, competitionID int) ([]*models.Player, error) {
	query := `
		SELECT p.id, p.name, p.lastname, p.nickname, p.auth_user_id, p.image_key, p.created_at
		FROM players p
		JOIN competitions_players cp ON cp.player_id = p.id
		WHERE cp.competition_id = $1
		ORDER BY p.id ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.Lastname, &p.Nickname, &p.AuthUserID, &p.ImageKey, &p.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		players = append(players, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresCompetitionRepository) handleCompetitionError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "competitions_name_key":
			return ErrCompetitionNameConflict
		case "competitions_players_pkey":
			return ErrCompetitionPlayerConflict
		case "competitions_players_competition_id_fkey":
			return ErrCompetitionNotFound
		case "competitions_players_player_id_fkey":
			return ErrPlayerNotFound
		}
	}
	return err
}
