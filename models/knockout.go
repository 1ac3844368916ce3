package models

// KnockoutMatch — узел сетки на вылет. Слоты игроков допускают NULL
// (незаполненный слот или bye). Победитель, если записан, защищен от
// перегенерации: такая строка не удаляется и ее слоты не переназначаются.
type KnockoutMatch struct {
	ID            int    `json:"id" db:"id"`
	CompetitionID int    `json:"competition_id" db:"competition_id"`
	RoundName     string `json:"round_name" db:"round_name"`
	RoundOrder    int    `json:"round_order" db:"round_order"`
	Player1ID     *int   `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID     *int   `json:"player2_id,omitempty" db:"player2_id"`
	Player1Score  *int   `json:"player1_score,omitempty" db:"player1_score"`
	Player2Score  *int   `json:"player2_score,omitempty" db:"player2_score"`
	WinnerID      *int   `json:"winner_id,omitempty" db:"winner_id"`
	NextMatchID   *int   `json:"next_match_id,omitempty" db:"next_match_id"`
	MatchID       *int   `json:"match_id,omitempty" db:"match_id"`

	Player1 *Player `json:"player1,omitempty" db:"-"`
	Player2 *Player `json:"player2,omitempty" db:"-"`
	Winner  *Player `json:"winner,omitempty" db:"-"`
}

// HasPlayer reports whether the player occupies either slot of the match.
func (m *KnockoutMatch) HasPlayer(playerID int) bool {
	return (m.Player1ID != nil && *m.Player1ID == playerID) ||
		(m.Player2ID != nil && *m.Player2ID == playerID)
}
