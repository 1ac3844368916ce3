package handlers

import (
	"net/http"

	"github.com/spinpoint/ttleague-backend/services"
)

type GroupHandler struct {
	groupService   services.GroupService
	fixtureService services.FixtureService
}

func NewGroupHandler(groupService services.GroupService, fixtureService services.FixtureService) *GroupHandler {
	return &GroupHandler{
		groupService:   groupService,
		fixtureService: fixtureService,
	}
}

func (h *GroupHandler) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.groupService.ListGroups(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GroupHandler) RebuildGroupsHandler(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		MaxGroupSize int `json:"max_group_size"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.groupService.RebuildGroups(r.Context(), competitionID, input.MaxGroupSize)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GroupHandler) GenerateFixturesHandler(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	created, err := h.fixtureService.GenerateGroupFixtures(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"created": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
