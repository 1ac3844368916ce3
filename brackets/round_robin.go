package brackets

import (
	"github.com/spinpoint/ttleague-backend/models"
)

// Pair — неупорядоченная пара игроков одной группы. Канонический порядок:
// меньший ID первым, чтобы дедупликация не зависела от порядка слотов.
type Pair struct {
	Player1ID int
	Player2ID int
}

func canonicalPair(a, b int) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{Player1ID: a, Player2ID: b}
}

// MissingPairs возвращает все пары участников группы, для которых еще нет
// матча среди existing. Существующие матчи учитываются в обоих порядках
// слотов. Повторный вызов с теми же входами дает пустой результат после
// вставки сгенерированных пар — генерация идемпотентна.
func MissingPairs(memberIDs []int, existing []models.Match) []Pair {
	members := DedupePlayers(memberIDs)

	seen := make(map[Pair]struct{}, len(existing))
	for _, m := range existing {
		seen[canonicalPair(m.Player1ID, m.Player2ID)] = struct{}{}
	}

	pairs := make([]Pair, 0, len(members)*(len(members)-1)/2)
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			pair := canonicalPair(members[i], members[j])
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			pairs = append(pairs, pair)
		}
	}
	return pairs
}
