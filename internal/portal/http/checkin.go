package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/service"
	"github.com/openwaterco/agmdesk/pkg/agmsdk"
	"github.com/openwaterco/agmdesk/pkg/httpx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

// signatures are small PNG scribbles; anything past this is not one
const maxSignatureBytes = 1 << 20

type CheckinHandler struct {
	CheckinService *service.CheckinService
}

// HandleCheckin marks a shareholder as present. The id usually comes
// straight from a barcode scan at the desk.
func (h *CheckinHandler) HandleCheckin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req agmsdk.CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	id, err := domain.ParseShareholderID(req.ShareholderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "shareholder_id is required")
		return
	}

	meeting, err := h.CheckinService.CheckIn(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShareholderNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Shareholder not found")
		case errors.Is(err, service.ErrMeetingNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Meeting not found")
		case errors.Is(err, service.ErrInvalidCheckinReq):
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid check-in request")
		default:
			log.Error("check-in failed", "error", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Check-in failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, agmsdk.CheckinResponse{
		ShareholderID:     id.String(),
		MeetingID:         meeting.ID,
		CheckedIn:         meeting.CheckedIn,
		TotalShareholders: meeting.TotalShareholders,
	})
}

// HandleSignature stores the signature image captured at the desk. The
// body is the raw image bytes, not JSON.
func (h *CheckinHandler) HandleSignature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, err := domain.ParseShareholderID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "shareholder id is required")
		return
	}

	image, err := io.ReadAll(io.LimitReader(r.Body, maxSignatureBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Could not read signature body")
		return
	}
	if len(image) > maxSignatureBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "invalid_request", "Signature image too large")
		return
	}

	if err := h.CheckinService.SaveSignature(ctx, id, image); err != nil {
		switch {
		case errors.Is(err, service.ErrShareholderNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Shareholder not found")
		case errors.Is(err, service.ErrInvalidSignature):
			writeError(w, http.StatusBadRequest, "invalid_request", "Signature image is empty")
		default:
			log.Error("failed to save signature", "error", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to save signature")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
