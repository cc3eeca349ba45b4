package brackets

import (
	"sort"

	"github.com/google/uuid"
)

// SwissEntry is the part of a standing that Swiss pairing looks at.
type SwissEntry struct {
	UserID uuid.UUID
	Points int
}

// SwissPairingsNoRepeat pairs players by points, each with the highest-ranked
// free opponent they have not met in pastMatches or earlier in this call. A player
// left without an eligible opponent gets a bye.
func SwissPairingsNoRepeat(standings []SwissEntry, pastMatches []Pairing, totalRounds int) []Round {
	played := make(PlayedPairs, len(pastMatches))
	for _, m := range pastMatches {
		if !m.Bye {
			played.Add(m.PlayerA, m.PlayerB)
		}
	}
	return swissRounds(standings, totalRounds, played)
}

// SwissPairings pairs players by points without rematch avoidance.
func SwissPairings(standings []SwissEntry, totalRounds int) []Round {
	return swissRounds(standings, totalRounds, nil)
}

// swissRounds does the greedy scan. A nil played set disables rematch checks.
func swissRounds(standings []SwissEntry, totalRounds int, played PlayedPairs) []Round {
	rounds := make([]Round, 0, totalRounds)

	for r := 0; r < totalRounds; r++ {
		sorted := make([]SwissEntry, len(standings))
		copy(sorted, standings)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Points > sorted[j].Points
		})

		paired := make(map[uuid.UUID]bool, len(sorted))
		round := make(Round, 0, (len(sorted)+1)/2)

		for i, a := range sorted {
			if paired[a.UserID] {
				continue
			}
			paired[a.UserID] = true

			opponent, found := uuid.Nil, false
			for _, b := range sorted[i+1:] {
				if paired[b.UserID] {
					continue
				}
				if played != nil && played.Has(a.UserID, b.UserID) {
					continue
				}
				opponent, found = b.UserID, true
				break
			}

			if !found {
				round = append(round, bye(a.UserID))
				continue
			}
			paired[opponent] = true
			if played != nil {
				played.Add(a.UserID, opponent)
			}
			round = append(round, match(a.UserID, opponent))
		}
		rounds = append(rounds, round)
	}
	return rounds
}
