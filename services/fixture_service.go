package services

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/spinpoint/ttleague-backend/brackets"
	"github.com/spinpoint/ttleague-backend/models"
	"github.com/spinpoint/ttleague-backend/repositories"
)

type FixtureService interface {
	// GenerateGroupFixtures досоздает недостающие матчи круговой системы
	// внутри группы. Возвращает число новых строк; повторный вызов ничего
	// не добавляет.
	GenerateGroupFixtures(ctx context.Context, groupID int) (int, error)

	// NextMatches гарантирует полноту расписания всех групп соревнования
	// и возвращает несыгранные матчи.
	NextMatches(ctx context.Context, competitionID int) ([]models.Match, error)

	// GetMatch возвращает матч с игроками и партиями.
	GetMatch(ctx context.Context, matchID int) (*MatchView, error)

	// SetMatchDate назначает дату несыгранному матчу.
	SetMatchDate(ctx context.Context, matchID int, date time.Time) error
}

type MatchView struct {
	models.Match
	Sets []models.MatchSet `json:"sets"`
}

type fixtureService struct {
	db         *sql.DB
	matchRepo  repositories.MatchRepository
	groupRepo  repositories.GroupRepository
	playerRepo repositories.PlayerRepository
	hub        *brackets.Hub
	logger     *slog.Logger
}

func NewFixtureService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	groupRepo repositories.GroupRepository,
	playerRepo repositories.PlayerRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) FixtureService {
	return &fixtureService{
		db:         db,
		matchRepo:  matchRepo,
		groupRepo:  groupRepo,
		playerRepo: playerRepo,
		hub:        hub,
		logger:     logger,
	}
}

func (s *fixtureService) GenerateGroupFixtures(ctx context.Context, groupID int) (int, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return 0, mapRepositoryError(err)
	}

	created := 0
	err = inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if lockErr := repositories.AcquireCompetitionLock(ctx, tx, group.CompetitionID); lockErr != nil {
			return lockErr
		}
		n, genErr := s.generateForGroup(ctx, tx, group)
		created = n
		return genErr
	})
	if err != nil {
		return 0, mapRepositoryError(err)
	}

	if created > 0 {
		s.hub.BroadcastEvent(group.CompetitionID, brackets.Event{
			Type:          brackets.EventFixturesCreated,
			CompetitionID: group.CompetitionID,
			Payload:       map[string]int{"group_id": groupID, "created": created},
		})
	}
	return created, nil
}

func (s *fixtureService) generateForGroup(ctx context.Context, tx *sql.Tx, group *models.Group) (int, error) {
	memberIDs, err := s.groupRepo.ListMemberIDs(ctx, group.ID)
	if err != nil {
		return 0, err
	}

	existing, err := s.matchRepo.ListByGroup(ctx, tx, group.ID)
	if err != nil {
		return 0, err
	}

	missing := brackets.MissingPairs(memberIDs, existing)
	if len(missing) == 0 {
		return 0, nil
	}

	rows := make([]models.Match, 0, len(missing))
	for _, pair := range missing {
		groupID := group.ID
		rows = append(rows, models.Match{
			CompetitionID: group.CompetitionID,
			GroupID:       &groupID,
			Player1ID:     pair.Player1ID,
			Player2ID:     pair.Player2ID,
		})
	}
	if err := s.matchRepo.InsertBatch(ctx, tx, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *fixtureService) NextMatches(ctx context.Context, competitionID int) ([]models.Match, error) {
	groups, err := s.groupRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	createdTotal := 0
	err = inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if lockErr := repositories.AcquireCompetitionLock(ctx, tx, competitionID); lockErr != nil {
			return lockErr
		}
		for _, group := range groups {
			n, genErr := s.generateForGroup(ctx, tx, group)
			if genErr != nil {
				return genErr
			}
			createdTotal += n
		}
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	if createdTotal > 0 {
		s.logger.InfoContext(ctx, "generated missing group fixtures",
			slog.Int("competition_id", competitionID),
			slog.Int("created", createdTotal))
		s.hub.BroadcastEvent(competitionID, brackets.Event{
			Type:          brackets.EventFixturesCreated,
			CompetitionID: competitionID,
			Payload:       map[string]int{"created": createdTotal},
		})
	}

	pending, err := s.matchRepo.ListPending(ctx, competitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if err := s.populatePlayers(ctx, pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *fixtureService) populatePlayers(ctx context.Context, matches []models.Match) error {
	ids := make([]int, 0, len(matches)*2)
	seen := make(map[int]struct{})
	for i := range matches {
		for _, id := range []int{matches[i].Player1ID, matches[i].Player2ID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return mapRepositoryError(err)
	}
	byID := make(map[int]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	for i := range matches {
		matches[i].Player1 = byID[matches[i].Player1ID]
		matches[i].Player2 = byID[matches[i].Player2ID]
	}
	return nil
}

func (s *fixtureService) GetMatch(ctx context.Context, matchID int) (*MatchView, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	sets, err := s.matchRepo.ListSets(ctx, matchID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	view := &MatchView{Match: *match, Sets: sets}
	single := []models.Match{view.Match}
	if err := s.populatePlayers(ctx, single); err != nil {
		return nil, err
	}
	view.Match = single[0]
	return view, nil
}

func (s *fixtureService) SetMatchDate(ctx context.Context, matchID int, date time.Time) error {
	if err := s.matchRepo.SetDate(ctx, matchID, date); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}
