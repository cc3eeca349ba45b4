package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
	"github.com/google/uuid"
)

type MatchGameHandler struct {
	gameService services.MatchGameService
}

func NewMatchGameHandler(gs services.MatchGameService) *MatchGameHandler {
	return &MatchGameHandler{gameService: gs}
}

type createGameInput struct {
	MatchID uuid.UUID `json:"match_id"`
	Code    string    `json:"code"`
}

type reportResultInput struct {
	WinnerID uuid.UUID `json:"winner_id"`
}

// CreateHandler обрабатывает POST /match-games
func (h *MatchGameHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var input createGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.MatchID == uuid.Nil {
		badRequestResponse(w, r, errors.New("match_id is required"))
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), actor, input.MatchID, input.Code)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /matches/{matchID}/games
func (h *MatchGameHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.gameService.ListGames(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptHandler обрабатывает PATCH /match-games/{gameID}/accept
func (h *MatchGameHandler) AcceptHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.AcceptGame(r.Context(), actor, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReportHandler обрабатывает PATCH /match-games/{gameID}/report
func (h *MatchGameHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input reportResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.ReportResult(r.Context(), actor, id, input.WinnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmHandler обрабатывает PATCH /match-games/{gameID}/confirm
func (h *MatchGameHandler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.ConfirmResult(r.Context(), actor, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
