package api

import (
	"log/slog"
	"net/http"

	"github.com/jvidmar/kljucar/internal/custody"
	"github.com/jvidmar/kljucar/internal/model"
)

// TransfersHandler handles transfer request endpoints.
type TransfersHandler struct {
	Service *custody.Service
}

type createTransferRequest struct {
	ResourceID int64  `json:"resource_id"`
	FromActor  string `json:"from_actor"`
	ToActor    string `json:"to_actor"`
	Note       string `json:"note"`
}

// Create handles POST /api/transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ResourceID <= 0 || req.FromActor == "" || req.ToActor == "" {
		jsonError(w, http.StatusBadRequest, "resource_id, from_actor and to_actor are required")
		return
	}

	actor, _ := GetActor(r.Context())
	transfer, err := h.Service.CreateTransfer(r.Context(), actor, req.ResourceID, req.FromActor, req.ToActor, req.Note)
	if err != nil {
		serviceError(w, err)
		return
	}

	slog.Info("transfer requested", "request", transfer.ID, "resource", transfer.ResourceCode,
		"from", transfer.FromActor, "to", transfer.ToActor, "by", actor.ID)
	jsonResponse(w, http.StatusCreated, transfer)
}

// List handles GET /api/transfers with from_actor=, to_actor= and
// status= filters. pending_for= is a shortcut for requests awaiting an
// actor's approval.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var transfers []model.TransferRequest
	var err error

	if pendingFor := q.Get("pending_for"); pendingFor != "" {
		transfers, err = h.Service.ListPendingFor(r.Context(), pendingFor)
	} else {
		transfers, err = h.Service.ListTransfers(r.Context(), q.Get("from_actor"), q.Get("to_actor"), q.Get("status"))
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list transfer requests")
		return
	}
	if transfers == nil {
		transfers = []model.TransferRequest{}
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transfer request id")
		return
	}

	transfer, err := h.Service.GetTransfer(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, transfer)
}

// Approve handles POST /api/transfers/{id}/approve.
func (h *TransfersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transfer request id")
		return
	}

	actor, _ := GetActor(r.Context())
	transfer, err := h.Service.ApproveTransfer(r.Context(), actor, id)
	if err != nil {
		serviceError(w, err)
		return
	}

	slog.Info("transfer approved", "request", transfer.ID, "resource", transfer.ResourceCode,
		"from", transfer.FromActor, "to", transfer.ToActor, "by", actor.ID)
	jsonResponse(w, http.StatusOK, transfer)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /api/transfers/{id}/reject.
func (h *TransfersHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transfer request id")
		return
	}

	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, _ := GetActor(r.Context())
	transfer, err := h.Service.RejectTransfer(r.Context(), actor, id, req.Reason)
	if err != nil {
		serviceError(w, err)
		return
	}

	slog.Info("transfer rejected", "request", transfer.ID, "reason", req.Reason, "by", actor.ID)
	jsonResponse(w, http.StatusOK, transfer)
}

// Cancel handles POST /api/transfers/{id}/cancel.
func (h *TransfersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transfer request id")
		return
	}

	actor, _ := GetActor(r.Context())
	transfer, err := h.Service.CancelTransfer(r.Context(), actor, id)
	if err != nil {
		serviceError(w, err)
		return
	}

	slog.Info("transfer cancelled", "request", transfer.ID, "by", actor.ID)
	jsonResponse(w, http.StatusOK, transfer)
}
