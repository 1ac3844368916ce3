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
	ErrGroupNotFound      = errors.New("group not found")
	ErrGroupMemberInvalid = errors.New("group member conflict or invalid")
)

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.Group) error
	GetByID(ctx context.Context, id int) (*models.Group, error)
	AddMember(ctx context.Context, exec SQLExecutor, groupID, playerID int) error
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Group, error)
	ListMembers(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.GroupMember, error)
	ListMemberIDs(ctx context.Context, groupID int) ([]int, error)
	DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) error
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.Group) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO groups (competition_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, group.CompetitionID, group.Name).
		Scan(&group.ID, &group.CreatedAt)
	return r.handleGroupError(err)
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, id int) (*models.Group, error) {
	query := `SELECT id, competition_id, name, created_at FROM groups WHERE id = $1`

	var g models.Group
	err := r.db.QueryRowContext(ctx, query, id).Scan(&g.ID, &g.CompetitionID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to scan group by id %d: %w", id, err)
	}
	return &g, nil
}

func (r *postgresGroupRepository) AddMember(ctx context.Context, exec SQLExecutor, groupID, playerID int) error {
	executor := r.getExecutor(exec)
	query := `INSERT INTO groups_players (group_id, player_id) VALUES ($1, $2)`
	_, err := executor.ExecContext(ctx, query, groupID, playerID)
	return r.handleGroupError(err)
}

func (r *postgresGroupRepository) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Group, error) {
	query := `
		SELECT id, competition_id, name, created_at
		FROM groups
		WHERE competition_id = $1
		ORDER BY name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		var g models.Group
		if scanErr := rows.Scan(&g.ID, &g.CompetitionID, &g.Name, &g.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", scanErr)
		}
		groups = append(groups, &g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group rows iteration: %w", err)
	}
	return groups, nil
}

func (r *postgresGroupRepository) ListMembers(ctx context.Context, exec SQLExecutor, competitionID int) ([]models.GroupMember, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT gp.group_id, gp.player_id
		FROM groups_players gp
		JOIN groups g ON g.id = gp.group_id
		WHERE g.competition_id = $1
		ORDER BY gp.group_id ASC, gp.player_id ASC`

	rows, err := executor.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group members for competition %d: %w", competitionID, err)
	}
	defer rows.Close()

	members := make([]models.GroupMember, 0)
	for rows.Next() {
		var m models.GroupMember
		if scanErr := rows.Scan(&m.GroupID, &m.PlayerID); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group member row: %w", scanErr)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group member rows iteration: %w", err)
	}
	return members, nil
}

func (r *postgresGroupRepository) ListMemberIDs(ctx context.Context, groupID int) ([]int, error) {
	query := `SELECT player_id FROM groups_players WHERE group_id = $1 ORDER BY player_id ASC`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members of group %d: %w", groupID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group member row: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group member rows iteration: %w", err)
	}
	return ids, nil
}

// DeleteByCompetition удаляет группы соревнования вместе с членством.
// Вызывается только из пути полной перестройки групп.
func (r *postgresGroupRepository) DeleteByCompetition(ctx context.Context, exec SQLExecutor, competitionID int) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx, `
		DELETE FROM groups_players
		WHERE group_id IN (SELECT id FROM groups WHERE competition_id = $1)`, competitionID); err != nil {
		return fmt.Errorf("failed to delete group memberships for competition %d: %w", competitionID, err)
	}

	if _, err := executor.ExecContext(ctx, `DELETE FROM groups WHERE competition_id = $1`, competitionID); err != nil {
		return fmt.Errorf("failed to delete groups for competition %d: %w", competitionID, err)
	}
	return nil
}

func (r *postgresGroupRepository) handleGroupError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "groups_competition_id_fkey":
			return ErrCompetitionNotFound
		case "groups_players_group_id_fkey":
			return ErrGroupNotFound
		case "groups_players_player_id_fkey", "groups_players_pkey":
			return ErrGroupMemberInvalid
		}
	}
	return err
}
