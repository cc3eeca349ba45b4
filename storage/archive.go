package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

// FinalStandings is the snapshot written once a tournament finishes.
type FinalStandings struct {
	TournamentID uuid.UUID               `json:"tournament_id"`
	Title        string                  `json:"title"`
	ChampionID   uuid.UUID               `json:"champion_id"`
	FinishedAt   time.Time               `json:"finished_at"`
	Standings    []models.RankedStanding `json:"standings"`
}

// ResultsArchiver persists final standings to object storage.
type ResultsArchiver struct {
	uploader FileUploader
}

func NewResultsArchiver(uploader FileUploader) *ResultsArchiver {
	return &ResultsArchiver{uploader: uploader}
}

func FinalStandingsKey(tournamentID uuid.UUID) string {
	return fmt.Sprintf("tournaments/%s/final-standings.json", tournamentID)
}

func (a *ResultsArchiver) Archive(ctx context.Context, snapshot FinalStandings) (*UploadResult, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode final standings for tournament %s: %w", snapshot.TournamentID, err)
	}
	return a.uploader.Upload(ctx, FinalStandingsKey(snapshot.TournamentID), "application/json", bytes.NewReader(body))
}
