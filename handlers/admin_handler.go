package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AdminHandler struct {
	adminService services.AdminService
}

func NewAdminHandler(s services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: s}
}

// NextRoundHandler обрабатывает POST /admin/tournaments/{tournamentID}/next-round
func (h *AdminHandler) NextRoundHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, func(actor models.Actor, id uuid.UUID) error {
		return h.adminService.NextRound(r.Context(), actor, id)
	})
}

// StartKnockoutHandler обрабатывает POST /admin/tournaments/{tournamentID}/knockout
func (h *AdminHandler) StartKnockoutHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, func(actor models.Actor, id uuid.UUID) error {
		return h.adminService.StartKnockout(r.Context(), actor, id)
	})
}

// AdvanceKnockoutHandler обрабатывает POST /admin/tournaments/{tournamentID}/knockout/{stage}/advance
func (h *AdminHandler) AdvanceKnockoutHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, func(actor models.Actor, id uuid.UUID) error {
		stage := models.MatchStage(chi.URLParam(r, "stage"))
		return h.adminService.AdvanceKnockout(r.Context(), actor, id, stage)
	})
}

// FinishHandler обрабатывает POST /admin/tournaments/{tournamentID}/finish
func (h *AdminHandler) FinishHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	finished, err := h.adminService.Finish(r.Context(), actor, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"finished": finished}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AuditTrailHandler обрабатывает GET /admin/tournaments/{tournamentID}/audit?game_id=
func (h *AdminHandler) AuditTrailHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var gameID *uuid.UUID
	if raw := r.URL.Query().Get("game_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid game_id query parameter"))
			return
		}
		gameID = &parsed
	}

	events, err := h.adminService.AuditTrail(r.Context(), actor, id, gameID)
	if errors.Is(err, services.ErrAuditLogDisabled) {
		errorResponse(w, r, http.StatusNotImplemented, err.Error())
		return
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"events": events}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) trigger(w http.ResponseWriter, r *http.Request, fn func(actor models.Actor, id uuid.UUID) error) {
	actor, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := fn(actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
