package models

import "time"

// User — учетная запись для входа. Игрок (Player) может быть связан с
// пользователем через players.auth_user_id, но это не обязательно.
type User struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	ActiveCompetitionID *int `json:"active_competition_id,omitempty" db:"-"`
}
