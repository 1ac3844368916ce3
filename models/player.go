package models

import "time"

// Player представляет игрока. Игроки создаются организатором или через
// регистрацию; внутри движка сеток они участвуют только по ID.
type Player struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Lastname   string    `json:"lastname" db:"lastname"`
	Nickname   string    `json:"nickname" db:"nickname"`
	AuthUserID *int      `json:"auth_user_id,omitempty" db:"auth_user_id"`
	ImageKey   *string   `json:"-" db:"image_key"`
	ImageURL   *string   `json:"image_url,omitempty" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
