package brackets

import (
	"math"
	"strconv"

	"github.com/spinpoint/ttleague-backend/models"
)

// Имена раундов по удаленности от финала.
const (
	StageFinal              = "final"
	StageSemifinals         = "semifinals"
	StageQuarterfinals      = "quarterfinals"
	StageOneEighthFinals    = "one_eighth_finals"
	StageOneSixteenthFinals = "one_sixteenth_finals"
	StageOneThirtySecond    = "one_thirty_second_finals"
	StageOneSixtyFourth     = "one_sixty_fourth_finals"
)

// StageName возвращает имя раунда roundIndex (0-based) для сетки на
// totalPlayers игроков. Имя определяется расстоянием до финала, а не
// абсолютным номером раунда.
func StageName(totalPlayers, roundIndex int) string {
	totalRounds := int(math.Ceil(math.Log2(float64(max(totalPlayers, 2)))))
	switch totalRounds - roundIndex {
	case 1:
		return StageFinal
	case 2:
		return StageSemifinals
	case 3:
		return StageQuarterfinals
	case 4:
		return StageOneEighthFinals
	case 5:
		return StageOneSixteenthFinals
	case 6:
		return StageOneThirtySecond
	case 7:
		return StageOneSixtyFourth
	default:
		return "round_" + strconv.Itoa(roundIndex+1)
	}
}

// RoundMeta — ожидаемая форма одного раунда для текущего числа игроков.
type RoundMeta struct {
	Order      int
	Name       string
	MatchCount int
}

// ExpectedRounds считает форму сетки (число матчей и имя каждого раунда),
// которую построил бы BuildBracket для playerCount игроков. Для
// playerCount < 2 возвращает пустой срез.
func ExpectedRounds(playerCount int) []RoundMeta {
	if playerCount < 2 {
		return nil
	}

	bracketSize := BracketSize(playerCount)
	totalRounds := int(math.Log2(float64(bracketSize)))

	rounds := make([]RoundMeta, 0, totalRounds)
	matchesInRound := bracketSize / 2
	for roundIndex := 0; roundIndex < totalRounds; roundIndex++ {
		rounds = append(rounds, RoundMeta{
			Order:      roundIndex + 1,
			Name:       StageName(playerCount, roundIndex),
			MatchCount: matchesInRound,
		})
		if roundIndex < totalRounds-1 {
			matchesInRound = max(1, matchesInRound/2)
		}
	}
	return rounds
}

// StructureMismatch сравнивает сохраненную сетку с ожидаемой формой.
// Несовпадение: в каком-то раунде матчей меньше ожидаемого, имя раунда
// расходится, существуют раунды вне ожидаемого набора, либо общее число
// матчей меньше ожидаемого.
func StructureMismatch(existing []models.KnockoutMatch, expected []RoundMeta) bool {
	if len(expected) == 0 {
		return len(existing) > 0
	}

	type roundEntry struct {
		count int
		names map[string]struct{}
	}
	byOrder := make(map[int]*roundEntry)
	for _, m := range existing {
		entry, ok := byOrder[m.RoundOrder]
		if !ok {
			entry = &roundEntry{names: make(map[string]struct{})}
			byOrder[m.RoundOrder] = entry
		}
		entry.count++
		if m.RoundName != "" {
			entry.names[m.RoundName] = struct{}{}
		}
	}

	expectedOrders := make(map[int]struct{}, len(expected))
	expectedTotal := 0
	for _, round := range expected {
		expectedOrders[round.Order] = struct{}{}
		expectedTotal += round.MatchCount

		entry, ok := byOrder[round.Order]
		if !ok {
			return true
		}
		if entry.count < round.MatchCount {
			return true
		}
		// Любое непустое имя, отличное от ожидаемого, ломает раунд —
		// даже если соседние строки названы верно.
		for name := range entry.names {
			if name != round.Name {
				return true
			}
		}
	}

	for order, entry := range byOrder {
		if _, ok := expectedOrders[order]; !ok && entry.count > 0 {
			return true
		}
	}

	return len(existing) < expectedTotal
}
