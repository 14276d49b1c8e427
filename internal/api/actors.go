package api

import (
	"net/http"

	"github.com/jvidmar/kljucar/internal/custody"
	"github.com/jvidmar/kljucar/internal/model"
)

// ActorsHandler handles actor-scoped read endpoints.
type ActorsHandler struct {
	Service *custody.Service
}

// History handles GET /api/actors/{id}/history: every ledger event the
// actor took part in, as source, recipient or performer.
func (h *ActorsHandler) History(w http.ResponseWriter, r *http.Request) {
	actorID := r.PathValue("id")
	if actorID == "" {
		jsonError(w, http.StatusBadRequest, "invalid actor id")
		return
	}

	events, err := h.Service.ActorHistory(r.Context(), actorID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read actor history")
		return
	}
	if events == nil {
		events = []model.CustodyEvent{}
	}
	jsonResponse(w, http.StatusOK, events)
}

// Resources handles GET /api/actors/{id}/resources: the resources the
// actor currently holds.
func (h *ActorsHandler) Resources(w http.ResponseWriter, r *http.Request) {
	actorID := r.PathValue("id")
	if actorID == "" {
		jsonError(w, http.StatusBadRequest, "invalid actor id")
		return
	}

	resources, err := h.Service.ListResources(r.Context(), actorID, false)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list resources")
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	jsonResponse(w, http.StatusOK, resources)
}
