package api

import (
	"log/slog"
	"net/http"

	"github.com/jvidmar/kljucar/internal/custody"
	"github.com/jvidmar/kljucar/internal/imaging"
	"github.com/jvidmar/kljucar/internal/model"
)

// ResourcesHandler handles resource endpoints.
type ResourcesHandler struct {
	Service *custody.Service
}

type createResourceRequest struct {
	Code        string `json:"code"`
	Building    string `json:"building"`
	Room        string `json:"room"`
	Description string `json:"description"`
}

// Create handles POST /api/resources.
func (h *ResourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		jsonError(w, http.StatusBadRequest, "code is required")
		return
	}

	resource, err := h.Service.CreateResource(r.Context(), req.Code, req.Building, req.Room, req.Description)
	if err != nil {
		serviceError(w, err)
		return
	}

	actor, _ := GetActor(r.Context())
	slog.Info("resource created", "code", resource.Code, "by", actor.ID)
	jsonResponse(w, http.StatusCreated, resource)
}

// List handles GET /api/resources with optional holder= and unassigned=
// filters.
func (h *ResourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	holder := r.URL.Query().Get("holder")
	unassigned := r.URL.Query().Get("unassigned") == "1"

	resources, err := h.Service.ListResources(r.Context(), holder, unassigned)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list resources")
		return
	}
	if resources == nil {
		resources = []model.Resource{}
	}
	jsonResponse(w, http.StatusOK, resources)
}

// Get handles GET /api/resources/{id}.
func (h *ResourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	resource, err := h.Service.GetResource(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, resource)
}

// Delete handles DELETE /api/resources/{id}.
func (h *ResourcesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	if err := h.Service.DeleteResource(r.Context(), id); err != nil {
		serviceError(w, err)
		return
	}

	actor, _ := GetActor(r.Context())
	slog.Info("resource deleted", "id", id, "by", actor.ID)
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	Actor string `json:"actor"`
	Note  string `json:"note"`
}

// Assign handles POST /api/resources/{id}/assign.
func (h *ResourcesHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Actor == "" {
		jsonError(w, http.StatusBadRequest, "actor is required")
		return
	}

	actor, _ := GetActor(r.Context())
	resource, err := h.Service.Assign(r.Context(), actor, id, req.Actor, req.Note)
	if err != nil {
		serviceError(w, err)
		return
	}

	slog.Info("resource assigned", "code", resource.Code, "holder", req.Actor, "by", actor.ID)
	jsonResponse(w, http.StatusOK, resource)
}

type unassignRequest struct {
	Note string `json:"note"`
}

// Unassign handles POST /api/resources/{id}/unassign.
func (h *ResourcesHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	var req unassignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := GetActor(r.Context())
	resource, err := h.Service.Unassign(r.Context(), actor, id, req.Note)
	if err != nil {
		serviceError(w, err)
		return
	}

	slog.Info("resource unassigned", "code", resource.Code, "by", actor.ID)
	jsonResponse(w, http.StatusOK, resource)
}

// History handles GET /api/resources/{id}/history.
func (h *ResourcesHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	events, err := h.Service.History(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	if events == nil {
		events = []model.CustodyEvent{}
	}
	jsonResponse(w, http.StatusOK, events)
}

// Verify handles GET /api/resources/{id}/verify.
func (h *ResourcesHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	verified, err := h.Service.VerifyLedger(r.Context(), id)
	if err != nil {
		if status := errStatus(err); status != http.StatusInternalServerError {
			serviceError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{
			"valid":  false,
			"events": verified,
			"error":  err.Error(),
		})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"valid":  true,
		"events": verified,
	})
}

// UploadPhoto handles PUT /api/resources/{id}/photo.
func (h *ResourcesHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	data, mime, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.SetPhoto(r.Context(), id, data, mime); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPhoto handles GET /api/resources/{id}/photo.
func (h *ResourcesHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid resource id")
		return
	}

	photo, mime, err := h.Service.GetPhoto(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	if len(photo) == 0 {
		jsonError(w, http.StatusNotFound, "resource has no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Write(photo)
}
