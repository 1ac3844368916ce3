package models

// GroupStandingRow — плоская строка из хранимой функции
// fn_get_groups_with_stats: игрок внутри группы со статистикой и местом.
type GroupStandingRow struct {
	GroupID         int     `json:"group_id" db:"group_id"`
	GroupName       string  `json:"group_name" db:"group_name"`
	CompetitionID   int     `json:"competition_id" db:"competition_id"`
	PlayerID        int     `json:"player_id" db:"player_id"`
	Name            string  `json:"name" db:"name"`
	Lastname        string  `json:"lastname" db:"lastname"`
	Nickname        string  `json:"nickname" db:"nickname"`
	ImageURL        *string `json:"image_url,omitempty" db:"image_url"`
	MatchesPlayed   int     `json:"matches_played" db:"matches_played"`
	Wins            int     `json:"wins" db:"wins"`
	Losses          int     `json:"losses" db:"losses"`
	Draws           int     `json:"draws" db:"draws"`
	ScoreDifference int     `json:"score_difference" db:"score_difference"`
	Points          int     `json:"points" db:"points"`
	Ranking         int     `json:"ranking" db:"ranking"`
}

// RankingRow — строка из представления v_ranking_by_competition (ELO).
type RankingRow struct {
	CompetitionID int     `json:"competition_id" db:"competition_id"`
	PlayerID      int     `json:"player_id" db:"player_id"`
	Nickname      string  `json:"nickname" db:"nickname"`
	ImageURL      *string `json:"image_url,omitempty" db:"image_url"`
	Rating        int     `json:"rating" db:"rating"`
	Rank          int     `json:"rank" db:"rank"`
}
