package brackets

import (
	"errors"
	"fmt"
	"math"
)

// Match — один узел сетки. Слоты игроков заполнены только в первом раунде;
// дальше они закрываются продвижением победителей.
type Match struct {
	Key        string
	RoundIndex int // 0-based
	Position   int // 0-based внутри раунда

	Player1ID *int
	Player2ID *int

	// NextMatchKey указывает на матч следующего раунда, который получит
	// победителя. nil только у финала.
	NextMatchKey *string

	// IsBye: хотя бы один слот первого раунда пуст.
	IsBye bool
}

type Round struct {
	Name    string
	Order   int // 1-based, 1 = самый ранний раунд
	Matches []Match
}

var ErrNotEnoughPlayers = errors.New("not enough qualified players to build a bracket (minimum 2)")

// DedupePlayers отбрасывает нулевые и повторяющиеся ID, сохраняя порядок.
func DedupePlayers(playerIDs []int) []int {
	seen := make(map[int]struct{}, len(playerIDs))
	out := make([]int, 0, len(playerIDs))
	for _, id := range playerIDs {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// BracketSize возвращает ближайшую сверху степень двойки для числа игроков.
func BracketSize(playerCount int) int {
	if playerCount < 2 {
		playerCount = 2
	}
	return 1 << uint(math.Ceil(math.Log2(float64(playerCount))))
}

// BuildBracket строит полную сетку single elimination для списка игроков.
// Функция чистая: никакого внешнего состояния, результат полностью
// определяется входом. Раунд 1 получает игроков попарно по позициям
// (слоты 2i и 2i+1 -> матч i), недостающие слоты добиваются bye.
func BuildBracket(playerIDs []int) ([]Round, error) {
	players := DedupePlayers(playerIDs)
	n := len(players)
	if n < 2 {
		return nil, ErrNotEnoughPlayers
	}

	bracketSize := BracketSize(n)
	totalRounds := int(math.Log2(float64(bracketSize)))

	// Реальные игроки, затем bye-заглушки до полного размера сетки.
	slots := make([]*int, bracketSize)
	for i := range players {
		id := players[i]
		slots[i] = &id
	}

	rounds := make([]Round, 0, totalRounds)
	matchesInRound := bracketSize / 2

	for roundIndex := 0; roundIndex < totalRounds; roundIndex++ {
		matches := make([]Match, 0, matchesInRound)

		for pos := 0; pos < matchesInRound; pos++ {
			m := Match{
				Key:        matchKey(roundIndex, pos),
				RoundIndex: roundIndex,
				Position:   pos,
			}

			if roundIndex == 0 {
				m.Player1ID = slots[pos*2]
				m.Player2ID = slots[pos*2+1]
				m.IsBye = m.Player1ID == nil || m.Player2ID == nil
			}

			if matchesInRound > 1 {
				next := matchKey(roundIndex+1, pos/2)
				m.NextMatchKey = &next
			}

			matches = append(matches, m)
		}

		rounds = append(rounds, Round{
			Name:    StageName(n, roundIndex),
			Order:   roundIndex + 1,
			Matches: matches,
		})

		if roundIndex < totalRounds-1 {
			matchesInRound /= 2
		}
	}

	return rounds, nil
}

func matchKey(roundIndex, position int) string {
	return fmt.Sprintf("R%dM%d", roundIndex+1, position+1)
}
