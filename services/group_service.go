package services

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"

	"github.com/spinpoint/ttleague-backend/brackets"
	"github.com/spinpoint/ttleague-backend/models"
	"github.com/spinpoint/ttleague-backend/repositories"
)

type GroupView struct {
	models.Group
	Players []*models.Player `json:"players"`
}

type GroupService interface {
	// RebuildGroups удаляет прежние группы соревнования и раскладывает
	// текущий состав заново. Несыгранные групповые матчи при этом
	// пропадают, сыгранные строки остаются.
	RebuildGroups(ctx context.Context, competitionID, maxGroupSize int) ([]GroupView, error)

	// ListGroups возвращает группы с составами.
	ListGroups(ctx context.Context, competitionID int) ([]GroupView, error)
}

type groupService struct {
	db              *sql.DB
	groupRepo       repositories.GroupRepository
	competitionRepo repositories.CompetitionRepository
	playerRepo      repositories.PlayerRepository
	matchRepo       repositories.MatchRepository
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewGroupService(
	db *sql.DB,
	groupRepo repositories.GroupRepository,
	competitionRepo repositories.CompetitionRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) GroupService {
	return &groupService{
		db:              db,
		groupRepo:       groupRepo,
		competitionRepo: competitionRepo,
		playerRepo:      playerRepo,
		matchRepo:       matchRepo,
		hub:             hub,
		logger:          logger,
	}
}

func (s *groupService) RebuildGroups(ctx context.Context, competitionID, maxGroupSize int) ([]GroupView, error) {
	if maxGroupSize <= 0 {
		return nil, ErrGroupSizeInvalid
	}

	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if !competition.Type.HasGroupStage() {
		return nil, ErrCompetitionHasNoGroups
	}

	err = inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if lockErr := repositories.AcquireCompetitionLock(ctx, tx, competitionID); lockErr != nil {
			return lockErr
		}

		playerIDs, listErr := s.competitionRepo.ListPlayerIDs(ctx, tx, competitionID)
		if listErr != nil {
			return listErr
		}

		// Несыгранные календарные матчи старых групп больше не актуальны.
		if delErr := s.matchRepo.DeleteUnplayedByGroups(ctx, tx, competitionID); delErr != nil {
			return delErr
		}
		if delErr := s.groupRepo.DeleteByCompetition(ctx, tx, competitionID); delErr != nil {
			return delErr
		}
		if len(playerIDs) == 0 {
			return nil
		}

		shuffled := make([]int, len(playerIDs))
		copy(shuffled, playerIDs)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		for index, members := range brackets.PartitionPlayers(shuffled, maxGroupSize) {
			group := models.Group{
				CompetitionID: competitionID,
				Name:          brackets.GroupName(index),
			}
			if createErr := s.groupRepo.Create(ctx, tx, &group); createErr != nil {
				return createErr
			}
			for _, playerID := range members {
				if addErr := s.groupRepo.AddMember(ctx, tx, group.ID, playerID); addErr != nil {
					return addErr
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	s.logger.InfoContext(ctx, "groups rebuilt",
		slog.Int("competition_id", competitionID),
		slog.Int("max_group_size", maxGroupSize))
	s.hub.BroadcastEvent(competitionID, brackets.Event{
		Type:          brackets.EventGroupsRebuilt,
		CompetitionID: competitionID,
	})

	return s.ListGroups(ctx, competitionID)
}

func (s *groupService) ListGroups(ctx context.Context, competitionID int) ([]GroupView, error) {
	groups, err := s.groupRepo.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	members, err := s.groupRepo.ListMembers(ctx, nil, competitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	playerIDs := make([]int, 0, len(members))
	for _, m := range members {
		playerIDs = append(playerIDs, m.PlayerID)
	}
	players, err := s.playerRepo.ListByIDs(ctx, playerIDs)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	playersByID := make(map[int]*models.Player, len(players))
	for _, p := range players {
		playersByID[p.ID] = p
	}

	views := make([]GroupView, 0, len(groups))
	byGroup := make(map[int]*GroupView, len(groups))
	for _, g := range groups {
		views = append(views, GroupView{Group: *g, Players: []*models.Player{}})
		byGroup[g.ID] = &views[len(views)-1]
	}
	for _, m := range members {
		view, ok := byGroup[m.GroupID]
		if !ok {
			continue
		}
		if p, found := playersByID[m.PlayerID]; found {
			view.Players = append(view.Players, p)
		}
	}
	return views, nil
}
