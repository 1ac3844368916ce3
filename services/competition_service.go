package services

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spinpoint/ttleague-backend/models"
	"github.com/spinpoint/ttleague-backend/repositories"
	"github.com/spinpoint/ttleague-backend/storage"
)

type CreateCompetitionInput struct {
	Name       string                 `json:"name"`
	Type       models.CompetitionType `json:"type"`
	SetsType   int                    `json:"sets_type"`
	PointsType int                    `json:"points_type"`
	StartDate  *time.Time             `json:"start_date,omitempty"`
	EndDate    *time.Time             `json:"end_date,omitempty"`
}

// CompetitionView — соревнование с составом и группами для детальной выдачи.
type CompetitionView struct {
	models.Competition
	Groups []GroupView `json:"groups"`
}

type CompetitionService interface {
	Create(ctx context.Context, input CreateCompetitionInput, createdByUserID int) (*models.Competition, error)
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	GetFullView(ctx context.Context, id int) (*CompetitionView, error)
	List(ctx context.Context) ([]*models.Competition, error)
	Delete(ctx context.Context, id int) error
}

type competitionService struct {
	db              *sql.DB
	competitionRepo repositories.CompetitionRepository
	groupService    GroupService
	uploader        storage.FileUploader
	logger          *slog.Logger
}

func NewCompetitionService(
	db *sql.DB,
	competitionRepo repositories.CompetitionRepository,
	groupService GroupService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) CompetitionService {
	return &competitionService{
		db:              db,
		competitionRepo: competitionRepo,
		groupService:    groupService,
		uploader:        uploader,
		logger:          logger,
	}
}

func (s *competitionService) Create(ctx context.Context, input CreateCompetitionInput, createdByUserID int) (*models.Competition, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	if !input.Type.Valid() {
		return nil, ErrCompetitionTypeInvalid
	}
	if input.SetsType <= 0 {
		input.SetsType = 5
	}
	if input.PointsType <= 0 {
		input.PointsType = 11
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, ErrValidationFailed
	}

	competition := &models.Competition{
		Name:        input.Name,
		Type:        input.Type,
		SetsType:    input.SetsType,
		PointsType:  input.PointsType,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CreatedByID: createdByUserID,
	}
	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		return nil, mapRepositoryError(err)
	}

	s.logger.InfoContext(ctx, "competition created",
		slog.Int("competition_id", competition.ID),
		slog.String("type", string(competition.Type)))
	return competition, nil
}

func (s *competitionService) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return competition, nil
}

// GetFullView собирает соревнование, состав и группы параллельно.
func (s *competitionService) GetFullView(ctx context.Context, id int) (*CompetitionView, error) {
	view := &CompetitionView{}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		competition, err := s.competitionRepo.GetByID(gCtx, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		view.Competition = *competition
		return nil
	})

	g.Go(func() error {
		players, err := s.competitionRepo.ListPlayers(gCtx, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		populatePlayerListImageURLs(players, s.uploader)
		view.Players = make([]models.Player, 0, len(players))
		for _, p := range players {
			view.Players = append(view.Players, *p)
		}
		return nil
	})

	g.Go(func() error {
		groups, err := s.groupService.ListGroups(gCtx, id)
		if err != nil {
			return err
		}
		view.Groups = groups
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *competitionService) List(ctx context.Context) ([]*models.Competition, error) {
	competitions, err := s.competitionRepo.List(ctx)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return competitions, nil
}

func (s *competitionService) Delete(ctx context.Context, id int) error {
	err := inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if lockErr := repositories.AcquireCompetitionLock(ctx, tx, id); lockErr != nil {
			return lockErr
		}
		return s.competitionRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return mapRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "competition deleted", slog.Int("competition_id", id))
	return nil
}
