package quiz

import "math/rand/v2"

const (
	// PerLevel is the number of questions drawn for each level.
	PerLevel = 7
	// BatterySize is the target battery length.
	BatterySize = PerLevel * 6
)

// BuildBattery draws a stratified, shuffled battery from bank. Each level
// contributes up to PerLevel questions, covering every area that has a
// question at that level before filling from leftovers. Short levels are
// topped up from the rest of the bank. The result is shuffled and each
// question's options and statements are shuffled too; classification items
// keep their order. bank is not modified.
func BuildBattery(bank []Question, rng *rand.Rand) []Question {
	if len(bank) == 0 {
		return nil
	}

	byLevel := make(map[Level][]int, len(levelOrder))
	for i, q := range bank {
		l := q.Level
		if !l.Valid() {
			l = A1
		}
		byLevel[l] = append(byLevel[l], i)
	}

	used := make([]bool, len(bank))
	selected := make([]int, 0, BatterySize)

	for _, l := range levelOrder {
		pool := byLevel[l]
		var perArea [AreaCount][]int
		for _, idx := range pool {
			if a := bank[idx].AreaIndex(); a != NoArea {
				perArea[a] = append(perArea[a], idx)
			}
		}

		picked := 0
		for a := range perArea {
			if len(perArea[a]) == 0 || picked == PerLevel {
				continue
			}
			idx := perArea[a][rng.IntN(len(perArea[a]))]
			used[idx] = true
			selected = append(selected, idx)
			picked++
		}

		leftovers := unused(pool, used)
		rng.Shuffle(len(leftovers), func(i, j int) { leftovers[i], leftovers[j] = leftovers[j], leftovers[i] })
		for _, idx := range leftovers {
			if picked == PerLevel {
				break
			}
			used[idx] = true
			selected = append(selected, idx)
			picked++
		}
	}

	if len(selected) < BatterySize {
		all := make([]int, len(bank))
		for i := range all {
			all[i] = i
		}
		rest := unused(all, used)
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		for _, idx := range rest {
			if len(selected) == BatterySize {
				break
			}
			used[idx] = true
			selected = append(selected, idx)
		}
	}

	rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })

	battery := make([]Question, 0, len(selected))
	for _, idx := range selected {
		battery = append(battery, shuffleOptions(bank[idx].clone(), rng))
	}
	return battery
}

func unused(pool []int, used []bool) []int {
	out := make([]int, 0, len(pool))
	for _, idx := range pool {
		if !used[idx] {
			out = append(out, idx)
		}
	}
	return out
}

func shuffleOptions(q Question, rng *rand.Rand) Question {
	switch q.Type {
	case SingleChoice:
		if q.Choice != nil {
			o := q.Choice.Options
			rng.Shuffle(len(o), func(i, j int) { o[i], o[j] = o[j], o[i] })
		}
	case TrueFalse:
		if q.TrueFalse != nil {
			s := q.TrueFalse.Statements
			rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		}
	}
	return q
}
