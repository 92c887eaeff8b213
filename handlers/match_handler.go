package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/tournament-engine/services"
)

type MatchHandler struct {
	matchService   services.MatchService
	resultService  services.ResultService
	disputeService services.DisputeService
}

func NewMatchHandler(ms services.MatchService, rs services.ResultService, ds services.DisputeService) *MatchHandler {
	return &MatchHandler{
		matchService:   ms,
		resultService:  rs,
		disputeService: ds,
	}
}

// matchFromRequest reads the match id and the caller. It writes the error
// response itself.
func matchFromRequest(w http.ResponseWriter, r *http.Request) (string, services.Actor, bool) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return "", services.Actor{}, false
	}
	actor, ok := currentActor(w, r)
	if !ok {
		return "", services.Actor{}, false
	}
	return id, actor, true
}

func (h *MatchHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	details, err := h.matchService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, details)
}

func (h *MatchHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	history, err := h.matchService.History(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"transitions": history})
}

// SubmitResultHandler godoc
// @Summary Submit a match result
// @Description The caller submits a claim for its own side. The second claim completes or conflicts the match.
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param input body services.SubmitResultInput true "Claimed winner, score and proof"
// @Success 200 {object} map[string]interface{} "success, match_state, submission"
// @Failure 403 {object} map[string]string "Caller is not a participant"
// @Failure 409 {object} map[string]string "Match does not accept results"
// @Failure 422 {object} map[string]string "Invalid score or proof"
// @Security BearerAuth
// @Router /matches/{matchID}/results [post]
func (h *MatchHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := matchFromRequest(w, r)
	if !ok {
		return
	}

	var input services.SubmitResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	submission, match, err := h.resultService.Submit(r.Context(), id, actor.ID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{
		"success":     true,
		"match_state": match.State,
		"submission":  submission,
	})
}

// ConfirmResultHandler godoc
// @Summary Confirm the opponent's claim
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{} "success, match_state"
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /matches/{matchID}/confirm [post]
func (h *MatchHandler) ConfirmResultHandler(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := matchFromRequest(w, r)
	if !ok {
		return
	}

	match, err := h.resultService.Confirm(r.Context(), id, actor.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"success": true, "match_state": match.State})
}

// DisputeResultHandler godoc
// @Summary Dispute the opponent's claim
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param input body services.RaiseDisputeInput true "Reason, explanation and optional counter proof"
// @Success 201 {object} map[string]interface{} "success, dispute_id, match_state"
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /matches/{matchID}/disputes [post]
func (h *MatchHandler) DisputeResultHandler(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := matchFromRequest(w, r)
	if !ok {
		return
	}

	var input services.RaiseDisputeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dispute, match, err := h.disputeService.Raise(r.Context(), id, actor.ID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{
		"success":     true,
		"dispute_id":  dispute.ID,
		"match_state": match.State,
	})
}

func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := matchFromRequest(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.Start(r.Context(), id, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := matchFromRequest(w, r)
	if !ok {
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Cancel(r.Context(), id, input.Reason, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) FinalizeHandler(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := matchFromRequest(w, r)
	if !ok {
		return
	}

	var input services.FinalizeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Finalize(r.Context(), id, input, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

func (h *MatchHandler) ScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := matchFromRequest(w, r)
	if !ok {
		return
	}

	var input struct {
		ScheduledAt time.Time `json:"scheduled_at"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.Schedule(r.Context(), id, input.ScheduledAt, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"match": match})
}

// OverrideHandler replaces the result of a completed match.
func (h *MatchHandler) OverrideHandler(w http.ResponseWriter, r *http.Request) {
	id, actor, ok := matchFromRequest(w, r)
	if !ok {
		return
	}

	var input services.OverrideInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dispute, match, err := h.disputeService.Override(r.Context(), id, input, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{
		"success":     true,
		"match_state": match.State,
		"match":       match,
		"dispute":     dispute,
	})
}
