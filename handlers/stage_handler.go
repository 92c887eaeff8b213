package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
)

type StageHandler struct {
	stageService services.StageService
}

func NewStageHandler(ss services.StageService) *StageHandler {
	return &StageHandler{stageService: ss}
}

// AdvanceHandler godoc
// @Summary Advance a completed stage
// @Description Ranks the groups, seeds the next stage from the advancement rule and generates it.
// @Tags stages
// @Accept json
// @Produce json
// @Param stageID path string true "Stage ID"
// @Param input body services.AdvanceStageInput true "Advancement rule and next format"
// @Success 201 {object} models.Stage
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string "Stage open or already transitioned"
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /stages/{stageID}/advance [post]
func (h *StageHandler) AdvanceHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var input services.AdvanceStageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	next, err := h.stageService.AdvanceStage(r.Context(), id, input, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"stage": next})
}

func (h *StageHandler) StageStandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "stageID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tables, err := h.stageService.GetStageStandings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"groups": tables})
}

// GroupStandingsHandler godoc
// @Summary Group standings
// @Tags stages
// @Produce json
// @Param groupID path string true "Group ID"
// @Success 200 {object} models.GroupStandings
// @Failure 404 {object} map[string]string
// @Router /groups/{groupID}/standings [get]
func (h *StageHandler) GroupStandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	table, err := h.stageService.GetStandings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, table)
}
