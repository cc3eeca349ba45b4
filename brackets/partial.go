package brackets

import (
	"math/rand/v2"

	"github.com/google/uuid"
)

// PartialPairings builds roundsPerPlayer casual rounds by shuffling the field and
// popping pairs off the end. A pair already drawn in an earlier round is skipped
// and its players sit that round out, so coverage is not guaranteed.
func PartialPairings(players []uuid.UUID, roundsPerPlayer int, rng *rand.Rand) []Round {
	seen := make(PlayedPairs)
	rounds := make([]Round, 0, roundsPerPlayer)

	for r := 0; r < roundsPerPlayer; r++ {
		shuffled := make([]uuid.UUID, len(players))
		copy(shuffled, players)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		round := Round{}
		for len(shuffled) >= 2 {
			a := shuffled[len(shuffled)-1]
			b := shuffled[len(shuffled)-2]
			shuffled = shuffled[:len(shuffled)-2]

			if seen.Has(a, b) {
				continue
			}
			seen.Add(a, b)
			round = append(round, match(a, b))
		}
		rounds = append(rounds, round)
	}
	return rounds
}
