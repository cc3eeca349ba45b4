package brackets

import "github.com/google/uuid"

// byeSlot is the sentinel inserted into an odd field.
var byeSlot = uuid.Nil

// RoundRobin schedules every player against every other player exactly once
// using the circle method. An odd field gets one bye per round.
func RoundRobin(players []uuid.UUID) []Round {
	list := make([]uuid.UUID, len(players), len(players)+1)
	copy(list, players)
	if len(list)%2 != 0 {
		list = append(list, byeSlot)
	}

	n := len(list)
	if n < 2 {
		return nil
	}
	half := n / 2

	rounds := make([]Round, 0, n-1)
	for r := 0; r < n-1; r++ {
		round := make(Round, 0, half)
		for i := 0; i < half; i++ {
			a, b := list[i], list[n-1-i]
			switch {
			case a == byeSlot:
				round = append(round, bye(b))
			case b == byeSlot:
				round = append(round, bye(a))
			default:
				round = append(round, match(a, b))
			}
		}
		rounds = append(rounds, round)

		// First stays fixed, last moves to just after it.
		last := list[n-1]
		copy(list[2:], list[1:n-1])
		list[1] = last
	}
	return rounds
}
