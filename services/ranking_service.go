package services

import (
	"context"
	"fmt"

	"github.com/spinpoint/ttleague-backend/models"
	"github.com/spinpoint/ttleague-backend/repositories"
	"github.com/spinpoint/ttleague-backend/storage"
)

// defaultQualifyCutoff — сколько мест в группе проходит в плей-офф.
const defaultQualifyCutoff = 2

type RankingService interface {
	// QualifiedPlayers возвращает ID игроков, прошедших групповой этап,
	// в порядке (группа, место).
	QualifiedPlayers(ctx context.Context, competitionID int) ([]int, error)
	GroupStandings(ctx context.Context, competitionID int) ([]models.GroupStandingRow, error)
	CompetitionRanking(ctx context.Context, competitionID int) ([]models.RankingRow, error)
}

type rankingService struct {
	standingRepo  repositories.StandingRepository
	uploader      storage.FileUploader
	qualifyCutoff int
}

func NewRankingService(standingRepo repositories.StandingRepository, uploader storage.FileUploader, qualifyCutoff int) RankingService {
	if qualifyCutoff <= 0 {
		qualifyCutoff = defaultQualifyCutoff
	}
	return &rankingService{
		standingRepo:  standingRepo,
		uploader:      uploader,
		qualifyCutoff: qualifyCutoff,
	}
}

func (s *rankingService) QualifiedPlayers(ctx context.Context, competitionID int) ([]int, error) {
	standings, err := s.standingRepo.GroupStandings(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings for competition %d: %w", competitionID, err)
	}
	return qualifiedFromStandings(standings, s.qualifyCutoff), nil
}

// qualifiedFromStandings отбирает игроков с местом не ниже cutoff,
// сохраняя порядок и убирая повторы.
func qualifiedFromStandings(standings []models.GroupStandingRow, cutoff int) []int {
	qualified := make([]int, 0, len(standings))
	seen := make(map[int]struct{}, len(standings))
	for _, row := range standings {
		if row.Ranking > cutoff {
			continue
		}
		if _, dup := seen[row.PlayerID]; dup {
			continue
		}
		seen[row.PlayerID] = struct{}{}
		qualified = append(qualified, row.PlayerID)
	}
	return qualified
}

func (s *rankingService) GroupStandings(ctx context.Context, competitionID int) ([]models.GroupStandingRow, error) {
	standings, err := s.standingRepo.GroupStandings(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings for competition %d: %w", competitionID, err)
	}
	for i := range standings {
		if standings[i].ImageURL != nil && *standings[i].ImageURL != "" && s.uploader != nil {
			url := s.uploader.GetPublicURL(*standings[i].ImageURL)
			if url != "" {
				standings[i].ImageURL = &url
			}
		}
	}
	return standings, nil
}

func (s *rankingService) CompetitionRanking(ctx context.Context, competitionID int) ([]models.RankingRow, error) {
	ranking, err := s.standingRepo.Ranking(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranking for competition %d: %w", competitionID, err)
	}
	for i := range ranking {
		if ranking[i].ImageURL != nil && *ranking[i].ImageURL != "" && s.uploader != nil {
			url := s.uploader.GetPublicURL(*ranking[i].ImageURL)
			if url != "" {
				ranking[i].ImageURL = &url
			}
		}
	}
	return ranking, nil
}
