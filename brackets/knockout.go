package brackets

import (
	"errors"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

var ErrNotEnoughForKnockout = errors.New("not enough participants to start the knockout stage (minimum 2)")

// DefaultKnockoutSize is the top cut taken from the standings.
const DefaultKnockoutSize = 8

// KnockoutFieldSize returns how many ranked players enter the bracket: the largest
// power of two not above min(ranked, limit). Every stage then pairs off completely.
func KnockoutFieldSize(ranked, limit int) int {
	n := ranked
	if limit > 0 && limit < n {
		n = limit
	}
	if n < 2 {
		return 0
	}
	size := 1
	for size*2 <= n {
		size *= 2
	}
	return size
}

// StageForFieldSize labels the first knockout stage from the number of entrants.
func StageForFieldSize(n int) models.MatchStage {
	switch {
	case n > 4:
		return models.StageQuarterFinal
	case n > 2:
		return models.StageSemiFinal
	default:
		return models.StageFinal
	}
}

// SeedKnockout pairs the ranked field best against worst: i with len-1-i.
// Self pairings are discarded.
func SeedKnockout(ranked []uuid.UUID) ([]Pairing, models.MatchStage, error) {
	if len(ranked) < 2 {
		return nil, "", ErrNotEnoughForKnockout
	}
	pairs := make([]Pairing, 0, len(ranked)/2)
	for i := 0; i < len(ranked)/2; i++ {
		a, b := ranked[i], ranked[len(ranked)-1-i]
		if a == b {
			continue
		}
		pairs = append(pairs, match(a, b))
	}
	if len(pairs) == 0 {
		return nil, "", ErrNotEnoughForKnockout
	}
	return pairs, StageForFieldSize(len(ranked)), nil
}

// PairWinners pairs stage winners in order: 0 v 1, 2 v 3, ... An odd trailing winner is dropped.
func PairWinners(winners []uuid.UUID) []Pairing {
	pairs := make([]Pairing, 0, len(winners)/2)
	for i := 0; i+1 < len(winners); i += 2 {
		pairs = append(pairs, match(winners[i], winners[i+1]))
	}
	return pairs
}
