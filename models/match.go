package models

import "time"

// Match — реальный сыгранный или запланированный матч (групповой этап или
// лига). Нулевые счета означают «еще не сыгран». Для пары игроков внутри
// одной группы существует не более одной такой строки независимо от порядка
// слотов.
type Match struct {
	ID            int        `json:"id" db:"id"`
	CompetitionID int        `json:"competition_id" db:"competition_id"`
	GroupID       *int       `json:"group_id,omitempty" db:"group_id"`
	Player1ID     int        `json:"player1_id" db:"player1_id"`
	Player2ID     int        `json:"player2_id" db:"player2_id"`
	Player1Score  *int       `json:"player1_score,omitempty" db:"player1_score"`
	Player2Score  *int       `json:"player2_score,omitempty" db:"player2_score"`
	Stage         *string    `json:"stage,omitempty" db:"stage"`
	Date          *time.Time `json:"date,omitempty" db:"date"`
	CreatedAt     time.Time  `json:"created" db:"created"`

	GroupName *string `json:"group_name,omitempty" db:"-"`
	Player1   *Player `json:"player1,omitempty" db:"-"`
	Player2   *Player `json:"player2,omitempty" db:"-"`
}

// MatchSet — счет отдельного сета матча.
type MatchSet struct {
	ID           int `json:"id" db:"id"`
	MatchID      int `json:"match_id" db:"match_id"`
	Player1Score int `json:"player1_score" db:"player1_score"`
	Player2Score int `json:"player2_score" db:"player2_score"`
}
