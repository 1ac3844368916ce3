package handlers

import (
	"errors"
	"net/http"

	"github.com/spinpoint/ttleague-backend/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bracketService services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bracketService}
}

// GetBracketHandler возвращает сетку плей-офф с данными игроков.
func (h *BracketHandler) GetBracketHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.bracketService.GetBracket(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReconcileBracketHandler сверяет сетку с актуальным составом. Сетку с
// записанными результатами не перестраивает: возвращает ее как есть с 409.
func (h *BracketHandler) ReconcileBracketHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.bracketService.Reconcile(r.Context(), competitionID)
	if err != nil {
		if errors.Is(err, services.ErrBracketHasResults) && result != nil {
			if writeErr := writeJSON(w, http.StatusConflict, jsonResponse{
				"error":   err.Error(),
				"bracket": result,
			}, nil); writeErr != nil {
				serverErrorResponse(w, r, writeErr)
			}
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
