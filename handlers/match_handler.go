package handlers

import (
	"net/http"
	"time"

	"github.com/spinpoint/ttleague-backend/services"
)

type MatchHandler struct {
	resultService  services.ResultService
	fixtureService services.FixtureService
}

func NewMatchHandler(resultService services.ResultService, fixtureService services.FixtureService) *MatchHandler {
	return &MatchHandler{
		resultService:  resultService,
		fixtureService: fixtureService,
	}
}

// RecordResultHandler записывает результат матча и, для плей-офф,
// продвигает победителя по сетке.
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RecordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.CompetitionID = competitionID

	output, err := h.resultService.RecordResult(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"result": output}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// NextMatchesHandler достраивает расписание групп и возвращает
// несыгранные матчи.
func (h *MatchHandler) NextMatchesHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.fixtureService.NextMatches(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.fixtureService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) SetMatchDateHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Date time.Time `json:"date"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.fixtureService.SetMatchDate(r.Context(), matchID, input.Date); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
