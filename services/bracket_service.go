package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spinpoint/ttleague-backend/brackets"
	"github.com/spinpoint/ttleague-backend/models"
	"github.com/spinpoint/ttleague-backend/repositories"
)

// reconcileAction — решение сверки сетки с актуальным составом.
type reconcileAction int

const (
	actionBuild reconcileAction = iota
	actionNoop
	actionTolerate
	actionRegenerate
	actionBlocked
)

// Результат Reconcile: что сделано и актуальная сетка.
const (
	ReconcileBuilt       = "built"
	ReconcileUnchanged   = "unchanged"
	ReconcileTolerated   = "tolerated"
	ReconcileRegenerated = "regenerated"
	ReconcileKept        = "kept_with_results"
)

type ReconcileResult struct {
	Action  string                 `json:"action"`
	Matches []models.KnockoutMatch `json:"matches"`
}

type BracketService interface {
	// Reconcile сверяет сохраненную сетку с текущим списком прошедших
	// групповой этап и строит, оставляет или перестраивает ее.
	Reconcile(ctx context.Context, competitionID int) (*ReconcileResult, error)

	// GetBracket возвращает сетку с заполненными данными игроков.
	GetBracket(ctx context.Context, competitionID int) ([]models.KnockoutMatch, error)

	// HandlePlayerRemoval освобождает слоты удаленного игрока и ужимает
	// сетку, если это можно сделать без потери результатов.
	HandlePlayerRemoval(ctx context.Context, competitionID, playerID int) error

	// FillVacantSlots расставляет новых игроков по свободным слотам
	// матчей без победителя.
	FillVacantSlots(ctx context.Context, competitionID int, newPlayerIDs []int) error
}

type bracketService struct {
	db             *sql.DB
	knockoutRepo   repositories.KnockoutRepository
	playerRepo     repositories.PlayerRepository
	rankingService RankingService
	hub            *brackets.Hub
	logger         *slog.Logger

	// driftTolerance — допустимый дрейф состава (выбывших и добавившихся)
	// без перестройки структурно целой сетки.
	driftTolerance int
}

func NewBracketService(
	db *sql.DB,
	knockoutRepo repositories.KnockoutRepository,
	playerRepo repositories.PlayerRepository,
	rankingService RankingService,
	hub *brackets.Hub,
	logger *slog.Logger,
	driftTolerance int,
) BracketService {
	if driftTolerance < 0 {
		driftTolerance = 1
	}
	return &bracketService{
		db:             db,
		knockoutRepo:   knockoutRepo,
		playerRepo:     playerRepo,
		rankingService: rankingService,
		hub:            hub,
		logger:         logger,
		driftTolerance: driftTolerance,
	}
}

// rosterDrift сравнивает игроков в слотах сетки с актуальным составом.
// removed — игроки в сетке, которых больше нет в составе;
// added — игроки состава, которых в сетке нет.
func rosterDrift(existing []models.KnockoutMatch, qualified []int) (removed, added int) {
	inBracket := make(map[int]struct{})
	for _, m := range existing {
		if m.Player1ID != nil {
			inBracket[*m.Player1ID] = struct{}{}
		}
		if m.Player2ID != nil {
			inBracket[*m.Player2ID] = struct{}{}
		}
	}

	inRoster := make(map[int]struct{}, len(qualified))
	for _, id := range qualified {
		inRoster[id] = struct{}{}
		if _, ok := inBracket[id]; !ok {
			added++
		}
	}
	for id := range inBracket {
		if _, ok := inRoster[id]; !ok {
			removed++
		}
	}
	return removed, added
}

// reconcileDecision — чистая политика сверки. Перестройка разрешена только
// для сетки без единого записанного победителя.
func reconcileDecision(existing []models.KnockoutMatch, qualified []int, tolerance, winners int) reconcileAction {
	if len(existing) == 0 {
		return actionBuild
	}

	expected := brackets.ExpectedRounds(len(qualified))
	mismatch := brackets.StructureMismatch(existing, expected)
	removed, added := rosterDrift(existing, qualified)

	if !mismatch {
		if removed == 0 && added == 0 {
			return actionNoop
		}
		if removed <= tolerance && added <= tolerance {
			return actionTolerate
		}
	}

	if winners == 0 {
		return actionRegenerate
	}
	return actionBlocked
}

func (s *bracketService) Reconcile(ctx context.Context, competitionID int) (*ReconcileResult, error) {
	qualified, err := s.rankingService.QualifiedPlayers(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	qualified = brackets.DedupePlayers(qualified)

	var result *ReconcileResult
	err = inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if lockErr := repositories.AcquireCompetitionLock(ctx, tx, competitionID); lockErr != nil {
			return lockErr
		}

		existing, listErr := s.knockoutRepo.ListByCompetition(ctx, tx, competitionID)
		if listErr != nil {
			return listErr
		}

		winners, countErr := s.knockoutRepo.CountWinners(ctx, tx, competitionID)
		if countErr != nil {
			return countErr
		}

		switch reconcileDecision(existing, qualified, s.driftTolerance, winners) {
		case actionBuild:
			if len(qualified) < 2 {
				return ErrNotEnoughQualifiedPlayers
			}
			matches, persistErr := s.persistBracket(ctx, tx, competitionID, qualified)
			if persistErr != nil {
				return persistErr
			}
			result = &ReconcileResult{Action: ReconcileBuilt, Matches: matches}

		case actionNoop:
			result = &ReconcileResult{Action: ReconcileUnchanged, Matches: existing}

		case actionTolerate:
			s.logger.InfoContext(ctx, "bracket roster drift within tolerance, keeping bracket",
				slog.Int("competition_id", competitionID),
				slog.Int("tolerance", s.driftTolerance))
			result = &ReconcileResult{Action: ReconcileTolerated, Matches: existing}

		case actionRegenerate:
			if len(qualified) < 2 {
				return ErrNotEnoughQualifiedPlayers
			}
			if delErr := s.knockoutRepo.DeleteByCompetition(ctx, tx, competitionID); delErr != nil {
				return delErr
			}
			matches, persistErr := s.persistBracket(ctx, tx, competitionID, qualified)
			if persistErr != nil {
				return persistErr
			}
			result = &ReconcileResult{Action: ReconcileRegenerated, Matches: matches}

		case actionBlocked:
			// Сетка с результатами не перестраивается, отдаем как есть.
			s.logger.WarnContext(ctx, "bracket out of sync but has recorded results, refusing to regenerate",
				slog.Int("competition_id", competitionID),
				slog.Int("winners", winners))
			result = &ReconcileResult{Action: ReconcileKept, Matches: existing}
			return ErrBracketHasResults
		}
		return nil
	})

	if err != nil {
		if result != nil && result.Action == ReconcileKept {
			// Транзакция откатилась, но ничего менять и не требовалось.
			return result, ErrBracketHasResults
		}
		return nil, mapRepositoryError(err)
	}

	if result.Action == ReconcileBuilt || result.Action == ReconcileRegenerated {
		s.hub.BroadcastEvent(competitionID, brackets.Event{
			Type:          brackets.EventBracketUpdated,
			CompetitionID: competitionID,
			Payload:       result,
		})
	}
	return result, nil
}

// persistBracket сохраняет построенную сетку в два прохода: сначала строки
// матчей, затем связи next_match_id по ключам построителя.
func (s *bracketService) persistBracket(ctx context.Context, tx *sql.Tx, competitionID int, qualified []int) ([]models.KnockoutMatch, error) {
	rounds, err := brackets.BuildBracket(qualified)
	if err != nil {
		return nil, err
	}

	keyToID := make(map[string]int)
	nextKeys := make([]*string, 0)
	persisted := make([]models.KnockoutMatch, 0)

	for _, round := range rounds {
		for _, m := range round.Matches {
			row := models.KnockoutMatch{
				CompetitionID: competitionID,
				RoundName:     round.Name,
				RoundOrder:    round.Order,
				Player1ID:     m.Player1ID,
				Player2ID:     m.Player2ID,
			}
			if createErr := s.knockoutRepo.Create(ctx, tx, &row); createErr != nil {
				return nil, createErr
			}
			keyToID[m.Key] = row.ID
			nextKeys = append(nextKeys, m.NextMatchKey)
			persisted = append(persisted, row)
		}
	}

	for i := range persisted {
		if nextKeys[i] == nil {
			continue
		}
		nextID, ok := keyToID[*nextKeys[i]]
		if !ok {
			return nil, fmt.Errorf("bracket link target %s was not persisted", *nextKeys[i])
		}
		if linkErr := s.knockoutRepo.UpdateLink(ctx, tx, persisted[i].ID, &nextID); linkErr != nil {
			return nil, linkErr
		}
		persisted[i].NextMatchID = &nextID
	}

	return persisted, nil
}

func (s *bracketService) GetBracket(ctx context.Context, competitionID int) ([]models.KnockoutMatch, error) {
	matches, err := s.knockoutRepo.ListByCompetition(ctx, nil, competitionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	ids := make([]int, 0, len(matches)*2)
	seen := make(map[int]struct{})
	collect := func(id *int) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	for i := range matches {
		collect(matches[i].Player1ID)
		collect(matches[i].Player2ID)
		collect(matches[i].WinnerID)
	}

	players, err := s.playerRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	byID := make(map[int]*models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	for i := range matches {
		if matches[i].Player1ID != nil {
			matches[i].Player1 = byID[*matches[i].Player1ID]
		}
		if matches[i].Player2ID != nil {
			matches[i].Player2 = byID[*matches[i].Player2ID]
		}
		if matches[i].WinnerID != nil {
			matches[i].Winner = byID[*matches[i].WinnerID]
		}
	}
	return matches, nil
}

func (s *bracketService) HandlePlayerRemoval(ctx context.Context, competitionID, playerID int) error {
	err := inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if lockErr := repositories.AcquireCompetitionLock(ctx, tx, competitionID); lockErr != nil {
			return lockErr
		}

		if clearErr := s.knockoutRepo.ClearPlayerSlots(ctx, tx, competitionID, playerID); clearErr != nil {
			return clearErr
		}

		existing, listErr := s.knockoutRepo.ListByCompetition(ctx, tx, competitionID)
		if listErr != nil {
			return listErr
		}
		if len(existing) == 0 {
			return nil
		}

		winners, countErr := s.knockoutRepo.CountWinners(ctx, tx, competitionID)
		if countErr != nil {
			return countErr
		}

		qualified, qualErr := s.rankingService.QualifiedPlayers(ctx, competitionID)
		if qualErr != nil {
			return qualErr
		}
		qualified = removePlayer(brackets.DedupePlayers(qualified), playerID)

		if winners == 0 && len(qualified) >= 2 && brackets.BracketSize(len(qualified)) < currentBracketSize(existing) {
			if delErr := s.knockoutRepo.DeleteByCompetition(ctx, tx, competitionID); delErr != nil {
				return delErr
			}
			_, persistErr := s.persistBracket(ctx, tx, competitionID, qualified)
			return persistErr
		}

		return s.knockoutRepo.DeleteEmpty(ctx, tx, competitionID)
	})
	if err != nil {
		return mapRepositoryError(err)
	}

	s.hub.BroadcastEvent(competitionID, brackets.Event{
		Type:          brackets.EventBracketUpdated,
		CompetitionID: competitionID,
	})
	return nil
}

func removePlayer(ids []int, playerID int) []int {
	out := ids[:0]
	for _, id := range ids {
		if id != playerID {
			out = append(out, id)
		}
	}
	return out
}

// currentBracketSize восстанавливает размер сетки по числу раундов.
func currentBracketSize(existing []models.KnockoutMatch) int {
	totalRounds := 0
	for _, m := range existing {
		if m.RoundOrder > totalRounds {
			totalRounds = m.RoundOrder
		}
	}
	return 1 << uint(totalRounds)
}

// slotFill — назначение игрока в конкретный слот матча.
type slotFill struct {
	matchIndex int
	player1ID  *int
	player2ID  *int
}

// assignSlotFills раздает новых игроков по свободным слотам матчей без
// победителя в порядке обхода. Игроки, уже стоящие в сетке, пропускаются.
func assignSlotFills(open []models.KnockoutMatch, newPlayerIDs []int) []slotFill {
	occupied := make(map[int]struct{})
	for _, m := range open {
		if m.Player1ID != nil {
			occupied[*m.Player1ID] = struct{}{}
		}
		if m.Player2ID != nil {
			occupied[*m.Player2ID] = struct{}{}
		}
	}

	fills := make([]slotFill, 0)
	next := 0
	for i := range open {
		if next >= len(newPlayerIDs) {
			break
		}
		p1 := open[i].Player1ID
		p2 := open[i].Player2ID
		changed := false

		for _, slot := range []**int{&p1, &p2} {
			if *slot != nil || next >= len(newPlayerIDs) {
				continue
			}
			for next < len(newPlayerIDs) {
				id := newPlayerIDs[next]
				next++
				if _, taken := occupied[id]; taken {
					continue
				}
				occupied[id] = struct{}{}
				v := id
				*slot = &v
				changed = true
				break
			}
		}

		if changed {
			fills = append(fills, slotFill{matchIndex: i, player1ID: p1, player2ID: p2})
		}
	}
	return fills
}

func (s *bracketService) FillVacantSlots(ctx context.Context, competitionID int, newPlayerIDs []int) error {
	newPlayerIDs = brackets.DedupePlayers(newPlayerIDs)
	if len(newPlayerIDs) == 0 {
		return nil
	}

	filled := false
	err := inTransaction(ctx, s.db, func(tx *sql.Tx) error {
		if lockErr := repositories.AcquireCompetitionLock(ctx, tx, competitionID); lockErr != nil {
			return lockErr
		}

		// Занятость проверяется по всей сетке, а не только по открытым матчам.
		all, listErr := s.knockoutRepo.ListByCompetition(ctx, tx, competitionID)
		if listErr != nil {
			return listErr
		}
		candidates := make([]int, 0, len(newPlayerIDs))
		for _, id := range newPlayerIDs {
			inBracket := false
			for i := range all {
				if all[i].HasPlayer(id) {
					inBracket = true
					break
				}
			}
			if !inBracket {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) == 0 {
			return nil
		}

		open, openErr := s.knockoutRepo.ListOpenSlotMatches(ctx, tx, competitionID)
		if openErr != nil {
			return openErr
		}

		for _, fill := range assignSlotFills(open, candidates) {
			m := open[fill.matchIndex]
			if updErr := s.knockoutRepo.UpdateSlots(ctx, tx, m.ID, fill.player1ID, fill.player2ID); updErr != nil {
				return updErr
			}
			filled = true
		}
		return nil
	})
	if err != nil {
		return mapRepositoryError(err)
	}

	if filled {
		s.hub.BroadcastEvent(competitionID, brackets.Event{
			Type:          brackets.EventBracketUpdated,
			CompetitionID: competitionID,
		})
	}
	return nil
}
