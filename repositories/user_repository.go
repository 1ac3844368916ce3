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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("email is already registered")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	SetActiveCompetition(ctx context.Context, userID int, competitionID *int) error
	GetActiveCompetition(ctx context.Context, userID int) (*int, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "users_email_key" {
			return ErrUserEmailConflict
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) scanUser(rowScanner interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := rowScanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// SetActiveCompetition запоминает «текущее» соревнование пользователя.
// NULL сбрасывает выбор.
func (r *postgresUserRepository) SetActiveCompetition(ctx context.Context, userID int, competitionID *int) error {
	query := `
		INSERT INTO user_active_competitions (user_id, competition_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET competition_id = EXCLUDED.competition_id`

	_, err := r.db.ExecContext(ctx, query, userID, competitionID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "user_active_competitions_user_id_fkey":
				return ErrUserNotFound
			case "user_active_competitions_competition_id_fkey":
				return ErrCompetitionNotFound
			}
		}
		return fmt.Errorf("failed to set active competition for user %d: %w", userID, err)
	}
	return nil
}

func (r *postgresUserRepository) GetActiveCompetition(ctx context.Context, userID int) (*int, error) {
	query := `SELECT competition_id FROM user_active_competitions WHERE user_id = $1`

	var competitionID *int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&competitionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query active competition for user %d: %w", userID, err)
	}
	return competitionID, nil
}
