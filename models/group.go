package models

import "time"

// Group — групповой этап (girone). Членство хранится в groups_players;
// группы одного соревнования не пересекаются и вместе покрывают весь
// активный состав.
type Group struct {
	ID            int       `json:"id" db:"id"`
	CompetitionID int       `json:"competition_id" db:"competition_id"`
	Name          string    `json:"name" db:"name"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// GroupMember — строка связи groups_players.
type GroupMember struct {
	GroupID  int `json:"group_id" db:"group_id"`
	PlayerID int `json:"player_id" db:"player_id"`
}
