package brackets

import (
	"math/rand/v2"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func players(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func TestRoundRobin_EvenFieldCoversEveryPairOnce(t *testing.T) {
	field := players(6)
	rounds := RoundRobin(field)
	require.Len(t, rounds, 5)

	seen := make(PlayedPairs)
	for _, round := range rounds {
		require.Len(t, round, 3)
		assert.Empty(t, round.Byes())

		inRound := make(map[uuid.UUID]bool)
		for _, p := range round {
			assert.False(t, seen.Has(p.PlayerA, p.PlayerB), "pair repeated")
			seen.Add(p.PlayerA, p.PlayerB)
			assert.False(t, inRound[p.PlayerA])
			assert.False(t, inRound[p.PlayerB])
			inRound[p.PlayerA], inRound[p.PlayerB] = true, true
		}
	}
	assert.Len(t, seen, 15)
}

func TestRoundRobin_OddFieldGivesOneByePerRound(t *testing.T) {
	field := players(5)
	rounds := RoundRobin(field)
	require.Len(t, rounds, 5)

	byes := make(map[uuid.UUID]int)
	seen := make(PlayedPairs)
	for _, round := range rounds {
		require.Len(t, round.Byes(), 1)
		byes[round.Byes()[0]]++
		for _, p := range round.Matches() {
			seen.Add(p.PlayerA, p.PlayerB)
		}
	}
	assert.Len(t, seen, 10)
	for _, p := range field {
		assert.Equal(t, 1, byes[p])
	}
}

func TestRoundRobin_TooFewPlayers(t *testing.T) {
	assert.Nil(t, RoundRobin(nil))

	rounds := RoundRobin(players(1))
	require.Len(t, rounds, 1)
	assert.Len(t, rounds[0].Byes(), 1)
}

func TestSwissPairingsNoRepeat_PairsByPoints(t *testing.T) {
	field := players(4)
	standings := []SwissEntry{
		{UserID: field[0], Points: 1},
		{UserID: field[1], Points: 4},
		{UserID: field[2], Points: 2},
		{UserID: field[3], Points: 3},
	}

	rounds := SwissPairingsNoRepeat(standings, nil, 1)
	require.Len(t, rounds, 1)
	assert.Equal(t, Round{
		{PlayerA: field[1], PlayerB: field[3]},
		{PlayerA: field[2], PlayerB: field[0]},
	}, rounds[0])
}

func TestSwissPairingsNoRepeat_AvoidsPastOpponents(t *testing.T) {
	field := players(4)
	standings := []SwissEntry{
		{UserID: field[0], Points: 4},
		{UserID: field[1], Points: 4},
		{UserID: field[2], Points: 2},
		{UserID: field[3], Points: 2},
	}
	past := []Pairing{match(field[0], field[1]), match(field[2], field[3])}

	rounds := SwissPairingsNoRepeat(standings, past, 1)
	require.Len(t, rounds, 1)
	for _, p := range rounds[0].Matches() {
		assert.NotEqual(t, NewPairKey(field[0], field[1]), NewPairKey(p.PlayerA, p.PlayerB))
		assert.NotEqual(t, NewPairKey(field[2], field[3]), NewPairKey(p.PlayerA, p.PlayerB))
	}
	assert.Len(t, rounds[0].Matches(), 2)
}

func TestSwissPairingsNoRepeat_DegradesToByes(t *testing.T) {
	field := players(2)
	standings := []SwissEntry{{UserID: field[0]}, {UserID: field[1]}}
	past := []Pairing{match(field[0], field[1])}

	rounds := SwissPairingsNoRepeat(standings, past, 1)
	require.Len(t, rounds, 1)
	assert.Empty(t, rounds[0].Matches())
	assert.ElementsMatch(t, field, rounds[0].Byes())
}

func TestSwissPairingsNoRepeat_MultipleRoundsNeverRepeat(t *testing.T) {
	field := players(6)
	standings := make([]SwissEntry, len(field))
	for i, p := range field {
		standings[i] = SwissEntry{UserID: p}
	}

	rounds := SwissPairingsNoRepeat(standings, nil, 3)
	seen := make(PlayedPairs)
	for _, round := range rounds {
		for _, p := range round.Matches() {
			assert.False(t, seen.Has(p.PlayerA, p.PlayerB))
			seen.Add(p.PlayerA, p.PlayerB)
		}
	}
}

func TestSwissPairings_OddFieldLastPlayerSitsOut(t *testing.T) {
	field := players(3)
	standings := []SwissEntry{
		{UserID: field[0], Points: 3},
		{UserID: field[1], Points: 2},
		{UserID: field[2], Points: 1},
	}

	rounds := SwissPairings(standings, 1)
	require.Len(t, rounds, 1)
	assert.Equal(t, []uuid.UUID{field[2]}, rounds[0].Byes())
	assert.Equal(t, []Pairing{{PlayerA: field[0], PlayerB: field[1]}}, rounds[0].Matches())
}

func TestPartialPairings_DeterministicWithSeed(t *testing.T) {
	field := players(6)

	first := PartialPairings(field, 3, rand.New(rand.NewPCG(7, 11)))
	second := PartialPairings(field, 3, rand.New(rand.NewPCG(7, 11)))
	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	seen := make(PlayedPairs)
	for _, round := range first {
		assert.LessOrEqual(t, len(round), 3)
		for _, p := range round {
			assert.False(t, seen.Has(p.PlayerA, p.PlayerB))
			seen.Add(p.PlayerA, p.PlayerB)
		}
	}
}

func TestKnockoutFieldSize(t *testing.T) {
	tests := []struct {
		ranked, limit, want int
	}{
		{ranked: 1, limit: 8, want: 0},
		{ranked: 2, limit: 8, want: 2},
		{ranked: 3, limit: 8, want: 2},
		{ranked: 5, limit: 8, want: 4},
		{ranked: 8, limit: 8, want: 8},
		{ranked: 9, limit: 8, want: 8},
		{ranked: 20, limit: 16, want: 16},
		{ranked: 6, limit: 0, want: 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KnockoutFieldSize(tt.ranked, tt.limit), "ranked=%d limit=%d", tt.ranked, tt.limit)
	}
}

func TestSeedKnockout(t *testing.T) {
	t.Run("eight seeds into quarter finals", func(t *testing.T) {
		field := players(8)
		pairs, stage, err := SeedKnockout(field)
		require.NoError(t, err)
		assert.Equal(t, models.StageQuarterFinal, stage)
		require.Len(t, pairs, 4)
		assert.Equal(t, match(field[0], field[7]), pairs[0])
		assert.Equal(t, match(field[3], field[4]), pairs[3])
	})

	t.Run("four seeds into semi finals", func(t *testing.T) {
		field := players(4)
		pairs, stage, err := SeedKnockout(field)
		require.NoError(t, err)
		assert.Equal(t, models.StageSemiFinal, stage)
		assert.Equal(t, []Pairing{match(field[0], field[3]), match(field[1], field[2])}, pairs)
	})

	t.Run("two seeds go straight to the final", func(t *testing.T) {
		field := players(2)
		pairs, stage, err := SeedKnockout(field)
		require.NoError(t, err)
		assert.Equal(t, models.StageFinal, stage)
		assert.Len(t, pairs, 1)
	})

	t.Run("one seed is rejected", func(t *testing.T) {
		_, _, err := SeedKnockout(players(1))
		assert.ErrorIs(t, err, ErrNotEnoughForKnockout)
	})
}

func TestPairWinners(t *testing.T) {
	winners := players(5)
	pairs := PairWinners(winners)
	assert.Equal(t, []Pairing{
		match(winners[0], winners[1]),
		match(winners[2], winners[3]),
	}, pairs)

	assert.Empty(t, PairWinners(players(1)))
}
