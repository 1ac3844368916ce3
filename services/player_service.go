package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spinpoint/ttleague-backend/models"
	"github.com/spinpoint/ttleague-backend/repositories"
	"github.com/spinpoint/ttleague-backend/storage"
)

const defaultMaxGroupSize = 4

type NewPlayerInput struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Nickname string `json:"nickname"`
}

type AddPlayersInput struct {
	CompetitionID int              `json:"competition_id"`
	MaxGroupSize  int              `json:"max_group_size,omitempty"`
	Players       []NewPlayerInput `json:"players"`
}

type PlayerService interface {
	// AddPlayers создает игроков пачкой, записывает их в соревнование и
	// приводит группы и сетку в соответствие новому составу.
	AddPlayers(ctx context.Context, input AddPlayersInput) ([]*models.Player, error)

	// RemoveFromCompetition выводит игрока из соревнования: членство,
	// свободные слоты сетки, перестройка групп.
	RemoveFromCompetition(ctx context.Context, competitionID, playerID, maxGroupSize int) error

	// Delete удаляет игрока целиком вместе с аватаром в хранилище.
	Delete(ctx context.Context, playerID int) error

	GetByID(ctx context.Context, id int) (*models.Player, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]*models.Player, error)
	UploadAvatar(ctx context.Context, playerID int, contentType string, reader io.Reader) (*models.Player, error)
}

type playerService struct {
	db              *sql.DB
	playerRepo      repositories.PlayerRepository
	competitionRepo repositories.CompetitionRepository
	groupService    GroupService
	bracketService  BracketService
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewPlayerService(
	db *sql.DB,
	playerRepo repositories.PlayerRepository,
	competitionRepo repositories.CompetitionRepository,
	groupService GroupService,
	bracketService BracketService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) PlayerService {
	return &playerService{
		db:              db,
		playerRepo:      playerRepo,
		competitionRepo: competitionRepo,
		groupService:    groupService,
		bracketService:  bracketService,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *playerService) AddPlayers(ctx context.Context, input AddPlayersInput) ([]*models.Player, error) {
	if len(input.Players) == 0 {
		return nil, ErrValidationFailed
	}
	for i := range input.Players {
		input.Players[i].Nickname = strings.TrimSpace(input.Players[i].Nickname)
		if input.Players[i].Nickname == "" {
			return nil, ErrValidationFailed
		}
	}
	if input.MaxGroupSize <= 0 {
		input.MaxGroupSize = defaultMaxGroupSize
	}

	competition, err := s.competitionRepo.GetByID(ctx, input.CompetitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	created := make([]*models.Player, 0, len(input.Players))
	err = inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		for _, np := range input.Players {
			player := &models.Player{
				Name:     strings.TrimSpace(np.Name),
				Lastname: strings.TrimSpace(np.Lastname),
				Nickname: np.Nickname,
			}
			if createErr := s.playerRepo.Create(ctx, tx, player); createErr != nil {
				return createErr
			}
			if joinErr := s.competitionRepo.AddPlayer(ctx, tx, competition.ID, player.ID); joinErr != nil {
				return joinErr
			}
			created = append(created, player)
		}
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	s.logger.InfoContext(ctx, "players added to competition",
		slog.Int("competition_id", competition.ID),
		slog.Int("count", len(created)))

	if competition.Type.HasGroupStage() {
		if _, rebuildErr := s.groupService.RebuildGroups(ctx, competition.ID, input.MaxGroupSize); rebuildErr != nil {
			return created, rebuildErr
		}
	}

	if competition.Type.HasKnockoutStage() {
		ids := make([]int, 0, len(created))
		for _, p := range created {
			ids = append(ids, p.ID)
		}
		if fillErr := s.bracketService.FillVacantSlots(ctx, competition.ID, ids); fillErr != nil {
			return created, fillErr
		}
	}

	return created, nil
}

func (s *playerService) RemoveFromCompetition(ctx context.Context, competitionID, playerID, maxGroupSize int) error {
	if maxGroupSize <= 0 {
		maxGroupSize = defaultMaxGroupSize
	}

	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		return mapRepositoryError(err)
	}

	err = inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		return s.competitionRepo.RemovePlayer(ctx, tx, competitionID, playerID)
	})
	if err != nil {
		return mapRepositoryError(err)
	}

	if competition.Type.HasKnockoutStage() {
		if remErr := s.bracketService.HandlePlayerRemoval(ctx, competitionID, playerID); remErr != nil {
			return remErr
		}
	}

	if competition.Type.HasGroupStage() {
		if _, rebuildErr := s.groupService.RebuildGroups(ctx, competitionID, maxGroupSize); rebuildErr != nil {
			return rebuildErr
		}
	}

	s.logger.InfoContext(ctx, "player removed from competition",
		slog.Int("competition_id", competitionID),
		slog.Int("player_id", playerID))
	return nil
}

func (s *playerService) Delete(ctx context.Context, playerID int) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return mapRepositoryError(err)
	}

	err = inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		return s.playerRepo.Delete(ctx, tx, playerID)
	})
	if err != nil {
		return mapRepositoryError(err)
	}

	if player.ImageKey != nil && *player.ImageKey != "" {
		if delErr := s.uploader.Delete(ctx, *player.ImageKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete avatar of removed player",
				slog.Int("player_id", playerID),
				slog.String("key", *player.ImageKey),
				slog.Any("error", delErr))
		}
	}

	s.logger.InfoContext(ctx, "player deleted", slog.Int("player_id", playerID))
	return nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	populatePlayerImageURL(player, s.uploader)
	return player, nil
}

func (s *playerService) ListByCompetition(ctx context.Context, competitionID int) ([]*models.Player, error) {
	players, err := s.competitionRepo.ListPlayers(ctx, competitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	populatePlayerListImageURLs(players, s.uploader)
	return players, nil
}

func (s *playerService) UploadAvatar(ctx context.Context, playerID int, contentType string, reader io.Reader) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if player.ImageKey != nil && *player.ImageKey != "" {
		if delErr := s.uploader.Delete(ctx, *player.ImageKey); delErr != nil {
			s.logger.WarnContext(ctx, "failed to delete previous avatar",
				slog.Int("player_id", playerID),
				slog.String("key", *player.ImageKey),
				slog.Any("error", delErr))
		}
	}

	key := fmt.Sprintf("players/%d/avatar%s", playerID, ext)
	uploadResult, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar for player %d: %w", playerID, err)
	}

	if err := s.playerRepo.UpdateImageKey(ctx, playerID, &uploadResult.Key); err != nil {
		return nil, mapRepositoryError(err)
	}
	player.ImageKey = &uploadResult.Key
	populatePlayerImageURL(player, s.uploader)
	return player, nil
}
