package services

import (
	"sort"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

// RankStandings orders standings by points desc, wins desc, losses asc and numbers them from 1.
// A non-nil champion is moved to position 1; everyone else keeps their relative order.
// The input is not modified.
func RankStandings(standings []*models.Standing, champion *uuid.UUID) []models.RankedStanding {
	sorted := make([]models.Standing, 0, len(standings))
	for _, s := range standings {
		if s != nil {
			sorted = append(sorted, *s)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return outranks(sorted[i], sorted[j])
	})

	if champion != nil {
		for i, s := range sorted {
			if s.UserID != *champion {
				continue
			}
			copy(sorted[1:i+1], sorted[:i])
			sorted[0] = s
			break
		}
	}

	ranked := make([]models.RankedStanding, len(sorted))
	for i, s := range sorted {
		ranked[i] = models.RankedStanding{Position: i + 1, Standing: s}
	}
	return ranked
}

func outranks(a, b models.Standing) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.Wins != b.Wins {
		return a.Wins > b.Wins
	}
	return a.Losses < b.Losses
}

// finalWinner returns the winner of the finished FINAL-stage match, if any.
func finalWinner(matches []*models.Match) *uuid.UUID {
	for _, m := range matches {
		if m.Stage == models.StageFinal && m.Status == models.MatchStatusFinished && m.WinnerID != nil {
			w := *m.WinnerID
			return &w
		}
	}
	return nil
}
