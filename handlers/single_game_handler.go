package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
)

type SingleGameHandler struct {
	singleGameService services.SingleGameService
}

func NewSingleGameHandler(ss services.SingleGameService) *SingleGameHandler {
	return &SingleGameHandler{singleGameService: ss}
}

// CreateHandler обрабатывает POST /single
func (h *SingleGameHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}

	var input services.CreateSingleGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.singleGameService.CreateSingleGame(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"single_game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /single?limit=&offset=
func (h *SingleGameHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := readPagination(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.singleGameService.ListSingleGames(r.Context(), limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"single_games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
