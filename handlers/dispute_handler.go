package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/services"
)

type DisputeHandler struct {
	disputeService services.DisputeService
}

func NewDisputeHandler(ds services.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: ds}
}

// ResolveHandler godoc
// @Summary Resolve a dispute
// @Description Organizer decision on a disputed or conflicted match.
// @Tags disputes
// @Accept json
// @Produce json
// @Param disputeID path string true "Dispute ID"
// @Param input body services.ResolveDisputeInput true "Decision, notes and the new result when overriding"
// @Success 200 {object} map[string]interface{} "success, match_state, dispute_status"
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string "Dispute closed, stale or downstream locked"
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /disputes/{disputeID}/resolve [post]
func (h *DisputeHandler) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "disputeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var input services.ResolveDisputeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dispute, match, err := h.disputeService.Resolve(r.Context(), id, input, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{
		"success":        true,
		"match_state":    match.State,
		"dispute_status": dispute.Status,
	})
}

func (h *DisputeHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "disputeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dispute, err := h.disputeService.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"dispute": dispute})
}

// OpenQueueHandler lists the disputes waiting for an organizer.
func (h *DisputeHandler) OpenQueueHandler(w http.ResponseWriter, r *http.Request) {
	disputes, err := h.disputeService.OpenQueue(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"disputes": disputes})
}
