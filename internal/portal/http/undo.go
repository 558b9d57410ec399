package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/service"
	"github.com/openwaterco/agmdesk/pkg/agmsdk"
	"github.com/openwaterco/agmdesk/pkg/httpx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

type UndoHandler struct {
	UndoService *service.UndoService
}

// HandleCreate files a pending undo request on behalf of the caller.
func (h *UndoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req agmsdk.CreateUndoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	id, err := domain.ParseShareholderID(req.ShareholderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "shareholder_id is required")
		return
	}

	principal := principalFrom(r)
	created, err := h.UndoService.Request(ctx, id, req.ShareholderName, principal.Subject, req.Reason)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUndoRequest) {
			writeError(w, http.StatusBadRequest, "invalid_request", "shareholder_id and shareholder_name are required")
			return
		}
		log.Error("failed to file undo request", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to file undo request")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUndoRequestResponse(created))
}

// HandleListPending returns the admin review queue, oldest first.
func (h *UndoHandler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	pending, err := h.UndoService.ListPending(ctx, principalFrom(r))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			writeError(w, http.StatusForbidden, "forbidden", "Admin capability required")
			return
		}
		log.Error("failed to list undo requests", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to list undo requests")
		return
	}

	out := make([]agmsdk.UndoRequestResponse, len(pending))
	for i, req := range pending {
		out[i] = toUndoRequestResponse(req)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleResolve approves or rejects a pending request.
func (h *UndoHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	requestID := r.PathValue("id")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "undo request id is required")
		return
	}

	var req agmsdk.ResolveUndoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	resolved, err := h.UndoService.Resolve(ctx, principalFrom(r), requestID, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			writeError(w, http.StatusForbidden, "forbidden", "Admin capability required")
		case errors.Is(err, service.ErrInvalidUndoAction):
			writeError(w, http.StatusBadRequest, "invalid_request", `action must be "approve" or "reject"`)
		case errors.Is(err, service.ErrUndoRequestNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Undo request not found")
		case errors.Is(err, service.ErrUndoAlreadyResolved):
			writeError(w, http.StatusConflict, "invalid_state", "Undo request already resolved")
		default:
			log.Error("failed to resolve undo request", "error", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to resolve undo request")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUndoRequestResponse(resolved))
}
