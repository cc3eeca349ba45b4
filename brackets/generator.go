package brackets

import (
	"bytes"

	"github.com/google/uuid"
)

// Pairing is either a match between PlayerA and PlayerB or, when Bye is set,
// a round off for PlayerA.
type Pairing struct {
	PlayerA uuid.UUID
	PlayerB uuid.UUID
	Bye     bool
}

func match(a, b uuid.UUID) Pairing {
	return Pairing{PlayerA: a, PlayerB: b}
}

func bye(p uuid.UUID) Pairing {
	return Pairing{PlayerA: p, Bye: true}
}

// Round is the ordered pairings of one round.
type Round []Pairing

// Matches returns the non-bye pairings of the round.
func (r Round) Matches() []Pairing {
	out := make([]Pairing, 0, len(r))
	for _, p := range r {
		if !p.Bye {
			out = append(out, p)
		}
	}
	return out
}

// Byes returns the players that sit the round out.
func (r Round) Byes() []uuid.UUID {
	var out []uuid.UUID
	for _, p := range r {
		if p.Bye {
			out = append(out, p.PlayerA)
		}
	}
	return out
}

// PairKey identifies an unordered pair of players.
type PairKey [2]uuid.UUID

func NewPairKey(a, b uuid.UUID) PairKey {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return PairKey{a, b}
}

// PlayedPairs is a set of pairings that already happened.
type PlayedPairs map[PairKey]struct{}

func (p PlayedPairs) Add(a, b uuid.UUID) {
	p[NewPairKey(a, b)] = struct{}{}
}

func (p PlayedPairs) Has(a, b uuid.UUID) bool {
	_, ok := p[NewPairKey(a, b)]
	return ok
}
