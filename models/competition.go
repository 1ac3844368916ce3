package models

import "time"

// CompetitionType определяет, какие части движка применимы к соревнованию.
type CompetitionType string

const (
	// CompetitionLeague — только круговые матчи, без сетки.
	CompetitionLeague CompetitionType = "league"
	// CompetitionElimination — сетка на вылет без группового этапа.
	CompetitionElimination CompetitionType = "elimination"
	// CompetitionGroupKnockout — групповой этап, затем сетка на вылет.
	CompetitionGroupKnockout CompetitionType = "group_knockout"
)

func (t CompetitionType) Valid() bool {
	switch t {
	case CompetitionLeague, CompetitionElimination, CompetitionGroupKnockout:
		return true
	}
	return false
}

// HasKnockoutStage reports whether the bracket engine applies to this type.
func (t CompetitionType) HasKnockoutStage() bool {
	return t == CompetitionElimination || t == CompetitionGroupKnockout
}

// HasGroupStage reports whether round-robin groups apply to this type.
func (t CompetitionType) HasGroupStage() bool {
	return t == CompetitionLeague || t == CompetitionGroupKnockout
}

type Competition struct {
	ID          int             `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Type        CompetitionType `json:"type" db:"type"`
	SetsType    int             `json:"sets_type" db:"sets_type"`     // best-of (3, 5, 7)
	PointsType  int             `json:"points_type" db:"points_type"` // points to win a set (11, 21)
	StartDate   *time.Time      `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty" db:"end_date"`
	CreatedByID int             `json:"created_by" db:"created_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`

	// Состав загружается отдельно и не мапится напрямую.
	Players []Player `json:"players,omitempty" db:"-"`
}
