package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/spinpoint/ttleague-backend/brackets"
	"github.com/spinpoint/ttleague-backend/models"
	"github.com/spinpoint/ttleague-backend/repositories"
)

// RecordResultInput — результат одного сыгранного матча. Stage заполняется
// для матчей плей-офф (имя раунда), GroupID — для групповых.
type RecordResultInput struct {
	CompetitionID int               `json:"competition_id"`
	GroupID       *int              `json:"group_id,omitempty"`
	Stage         *string           `json:"stage,omitempty"`
	Player1ID     int               `json:"player1_id"`
	Player2ID     int               `json:"player2_id"`
	Player1Score  int               `json:"player1_score"`
	Player2Score  int               `json:"player2_score"`
	Sets          []models.MatchSet `json:"sets,omitempty"`
}

type RecordResultOutput struct {
	Match      *models.Match         `json:"match"`
	Knockout   *models.KnockoutMatch `json:"knockout_match,omitempty"`
	WinnerID   *int                  `json:"winner_id,omitempty"`
	Propagated bool                  `json:"propagated"`
}

type ResultService interface {
	RecordResult(ctx context.Context, input RecordResultInput) (*RecordResultOutput, error)
}

type resultService struct {
	db           *sql.DB
	matchRepo    repositories.MatchRepository
	knockoutRepo repositories.KnockoutRepository
	standingRepo repositories.StandingRepository
	hub          *brackets.Hub
	logger       *slog.Logger
}

func NewResultService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	knockoutRepo repositories.KnockoutRepository,
	standingRepo repositories.StandingRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:           db,
		matchRepo:    matchRepo,
		knockoutRepo: knockoutRepo,
		standingRepo: standingRepo,
		hub:          hub,
		logger:       logger,
	}
}

// matchWinner — строго больший счет. Ничья не дает победителя, и продвижение
// по сетке не выполняется.
func matchWinner(player1ID, player2ID, player1Score, player2Score int) *int {
	switch {
	case player1Score > player2Score:
		return &player1ID
	case player2Score > player1Score:
		return &player2ID
	default:
		return nil
	}
}

// chooseSuccessorSlots выбирает слот для победителя в следующем матче.
// Возвращает новые значения слотов и признак, что назначение возможно.
//
// Приоритет: исправление (слот, где стоял прежний победитель) ->
// оба слота пусты (четная позиция источника -> слот 1) -> единственный
// пустой слот. Если победитель уже стоит в матче, это no-op с ok=false.
// Матч с записанным результатом слоты не меняет: иначе исправление
// раннего матча оставило бы победителя вне состава участников.
func chooseSuccessorSlots(next *models.KnockoutMatch, winnerID int, previousWinnerID *int, sourcePosition int) (player1ID, player2ID *int, ok bool) {
	if next.HasPlayer(winnerID) {
		return next.Player1ID, next.Player2ID, false
	}
	if next.WinnerID != nil {
		return next.Player1ID, next.Player2ID, false
	}

	p1, p2 := next.Player1ID, next.Player2ID

	if previousWinnerID != nil {
		if p1 != nil && *p1 == *previousWinnerID {
			return &winnerID, p2, true
		}
		if p2 != nil && *p2 == *previousWinnerID {
			return p1, &winnerID, true
		}
	}

	switch {
	case p1 == nil && p2 == nil:
		if sourcePosition%2 == 0 {
			return &winnerID, nil, true
		}
		return nil, &winnerID, true
	case p1 == nil:
		return &winnerID, p2, true
	case p2 == nil:
		return p1, &winnerID, true
	default:
		return p1, p2, false
	}
}

func (s *resultService) RecordResult(ctx context.Context, input RecordResultInput) (*RecordResultOutput, error) {
	if input.Player1ID == input.Player2ID {
		return nil, ErrPlayersIdentical
	}
	if input.Player1Score < 0 || input.Player2Score < 0 {
		return nil, ErrScoresRequired
	}

	output := &RecordResultOutput{}
	output.WinnerID = matchWinner(input.Player1ID, input.Player2ID, input.Player1Score, input.Player2Score)

	err := inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if lockErr := repositories.AcquireCompetitionLock(ctx, tx, input.CompetitionID); lockErr != nil {
			return lockErr
		}

		match, matchErr := s.upsertFixture(ctx, tx, input)
		if matchErr != nil {
			return matchErr
		}
		output.Match = match

		if input.Stage != nil {
			if koErr := s.recordKnockout(ctx, tx, input, match.ID, output); koErr != nil {
				return koErr
			}
		}

		if eloErr := s.standingRepo.ApplyMatchElo(ctx, tx, match.ID); eloErr != nil {
			return eloErr
		}

		return s.matchRepo.CreateSets(ctx, tx, match.ID, input.Sets)
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	s.hub.BroadcastEvent(input.CompetitionID, brackets.Event{
		Type:          brackets.EventResultRecorded,
		CompetitionID: input.CompetitionID,
		Payload:       output,
	})
	return output, nil
}

// upsertFixture записывает счет в существующий несыгранный матч пары или
// создает новую строку. Для пары в группе держится не больше одной строки.
// Матч плей-офф всегда получает свежую строку: у той же пары может
// оставаться несыгранный групповой матч, и его трогать нельзя.
func (s *resultService) upsertFixture(ctx context.Context, tx *sql.Tx, input RecordResultInput) (*models.Match, error) {
	var existing *models.Match
	if input.Stage == nil {
		found, err := s.matchRepo.FindPendingByPair(ctx, tx, input.CompetitionID, input.GroupID, input.Player1ID, input.Player2ID)
		if err != nil && !errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, err
		}
		existing = found
	}

	if existing != nil {
		// Счет выравнивается по порядку слотов сохраненной строки.
		s1, s2 := input.Player1Score, input.Player2Score
		if existing.Player1ID == input.Player2ID {
			s1, s2 = s2, s1
		}
		if updErr := s.matchRepo.UpdateScores(ctx, tx, existing.ID, s1, s2); updErr != nil {
			return nil, updErr
		}
		existing.Player1Score = &s1
		existing.Player2Score = &s2
		return existing, nil
	}

	match := &models.Match{
		CompetitionID: input.CompetitionID,
		GroupID:       input.GroupID,
		Player1ID:     input.Player1ID,
		Player2ID:     input.Player2ID,
		Player1Score:  &input.Player1Score,
		Player2Score:  &input.Player2Score,
		Stage:         input.Stage,
	}
	if createErr := s.matchRepo.Create(ctx, tx, match); createErr != nil {
		return nil, createErr
	}
	return match, nil
}

func (s *resultService) recordKnockout(ctx context.Context, tx *sql.Tx, input RecordResultInput, matchID int, output *RecordResultOutput) error {
	knockout, err := s.knockoutRepo.FindByRoundAndPair(ctx, tx, input.CompetitionID, *input.Stage, input.Player1ID, input.Player2ID)
	if err != nil {
		return err
	}

	// Прежний победитель нужен для исправления уже продвинутого результата.
	previousWinnerID := knockout.WinnerID

	// Счет выравнивается по порядку слотов узла сетки.
	s1, s2 := input.Player1Score, input.Player2Score
	if knockout.Player1ID != nil && *knockout.Player1ID == input.Player2ID {
		s1, s2 = s2, s1
	}

	if updErr := s.knockoutRepo.UpdateResult(ctx, tx, knockout.ID, s1, s2, output.WinnerID, &matchID); updErr != nil {
		return updErr
	}
	knockout.Player1Score = &s1
	knockout.Player2Score = &s2
	knockout.WinnerID = output.WinnerID
	knockout.MatchID = &matchID
	output.Knockout = knockout

	if output.WinnerID == nil {
		return nil
	}
	return s.propagateWinner(ctx, tx, input.CompetitionID, knockout, *output.WinnerID, previousWinnerID, output)
}

// propagateWinner продвигает победителя в матч следующего раунда: по ссылке
// next_match_id, а при ее отсутствии — в единственный открытый матч
// следующего раунда.
func (s *resultService) propagateWinner(ctx context.Context, tx *sql.Tx, competitionID int, source *models.KnockoutMatch, winnerID int, previousWinnerID *int, output *RecordResultOutput) error {
	var next *models.KnockoutMatch

	if source.NextMatchID != nil {
		loaded, err := s.knockoutRepo.GetByID(ctx, tx, *source.NextMatchID)
		if err != nil {
			return err
		}
		next = loaded
	} else {
		open, err := s.knockoutRepo.ListOpenByRoundOrder(ctx, tx, competitionID, source.RoundOrder+1)
		if err != nil {
			return err
		}
		if len(open) == 1 {
			next = &open[0]
		}
	}

	if next == nil {
		// Финал или неоднозначный преемник: продвигать некуда.
		if source.NextMatchID == nil && source.RoundName != brackets.StageFinal {
			s.logger.WarnContext(ctx, "no unambiguous successor match for winner",
				slog.Int("competition_id", competitionID),
				slog.Int("knockout_match_id", source.ID))
		}
		return nil
	}

	position, err := s.sourcePosition(ctx, tx, competitionID, source)
	if err != nil {
		return err
	}

	p1, p2, ok := chooseSuccessorSlots(next, winnerID, previousWinnerID, position)
	if !ok {
		switch {
		case next.HasPlayer(winnerID):
			output.Propagated = true
		case next.WinnerID != nil:
			s.logger.WarnContext(ctx, "successor match already has a recorded result, slot kept",
				slog.Int("competition_id", competitionID),
				slog.Int("knockout_match_id", source.ID),
				slog.Int("next_match_id", next.ID))
		default:
			s.logger.WarnContext(ctx, "successor match has no free slot for winner",
				slog.Int("competition_id", competitionID),
				slog.Int("knockout_match_id", source.ID),
				slog.Int("next_match_id", next.ID))
		}
		return nil
	}

	if updErr := s.knockoutRepo.UpdateSlots(ctx, tx, next.ID, p1, p2); updErr != nil {
		return updErr
	}
	output.Propagated = true
	return nil
}

// sourcePosition — позиция матча внутри своего раунда (0-based, по порядку id).
func (s *resultService) sourcePosition(ctx context.Context, tx *sql.Tx, competitionID int, source *models.KnockoutMatch) (int, error) {
	all, err := s.knockoutRepo.ListByCompetition(ctx, tx, competitionID)
	if err != nil {
		return 0, err
	}
	position := 0
	for i := range all {
		if all[i].RoundOrder != source.RoundOrder {
			continue
		}
		if all[i].ID == source.ID {
			return position, nil
		}
		position++
	}
	return 0, nil
}
