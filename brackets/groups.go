package brackets

// GroupName возвращает последовательное имя группы: Group A, Group B, …
// После Z продолжает Group AA, Group AB и так далее.
func GroupName(index int) string {
	name := ""
	for index >= 0 {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
	}
	return "Group " + name
}

// PartitionPlayers раскладывает игроков по ceil(N/maxGroupSize) группам.
// Назначение идет по индексу по модулю числа групп, а не смежными блоками,
// поэтому размеры групп отличаются не больше чем на один. Перемешивание —
// забота вызывающего: функция чистая и сохраняет поданный порядок.
func PartitionPlayers(playerIDs []int, maxGroupSize int) [][]int {
	players := DedupePlayers(playerIDs)
	if len(players) == 0 || maxGroupSize <= 0 {
		return nil
	}

	numGroups := (len(players) + maxGroupSize - 1) / maxGroupSize
	groups := make([][]int, numGroups)
	for idx, id := range players {
		g := idx % numGroups
		groups[g] = append(groups[g], id)
	}
	return groups
}
