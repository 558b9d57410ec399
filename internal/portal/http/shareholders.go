package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/openwaterco/agmdesk/internal/portal/domain"
	"github.com/openwaterco/agmdesk/internal/portal/service"
	"github.com/openwaterco/agmdesk/pkg/agmsdk"
	"github.com/openwaterco/agmdesk/pkg/httpx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

type ShareholdersHandler struct {
	ShareholderService *service.ShareholderService
}

// HandleGet returns a shareholder with the properties they hold. This is
// the check-in desk lookup view.
func (h *ShareholdersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, err := domain.ParseShareholderID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "shareholder id is required")
		return
	}

	detail, err := h.ShareholderService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrShareholderNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Shareholder not found")
			return
		}
		log.Error("failed to fetch shareholder", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to fetch shareholder")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toShareholderResponse(detail.Shareholder, detail.Properties))
}

// HandleBarcode serves the shareholder's Code 128 barcode as a PNG, for
// desk reprints when someone loses their mailer.
func (h *ShareholdersHandler) HandleBarcode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, err := domain.ParseShareholderID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "shareholder id is required")
		return
	}

	// Confirm the shareholder exists before rendering anything.
	if _, err := h.ShareholderService.Get(ctx, id); err != nil {
		if errors.Is(err, service.ErrShareholderNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Shareholder not found")
			return
		}
		log.Error("failed to fetch shareholder", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to fetch shareholder")
		return
	}

	width, height := 600, 160
	if v, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && v >= 100 && v <= 2000 {
		width = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("height")); err == nil && v >= 40 && v <= 600 {
		height = v
	}

	data, err := service.BarcodePNG(id, width, height)
	if err != nil {
		log.Error("failed to render barcode", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to render barcode")
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleCreate registers a shareholder manually, outside bulk import.
func (h *ShareholdersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req agmsdk.CreateShareholderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	detail, err := h.ShareholderService.Create(ctx, service.CreateShareholderInput{
		ID:             req.ShareholderID,
		MeetingID:      req.MeetingID,
		Name:           req.Name,
		MailingStreet:  req.MailingStreet,
		MailingCity:    req.MailingCity,
		MailingState:   req.MailingState,
		MailingZip:     req.MailingZip,
		AccountNumber:  req.AccountNumber,
		ServiceAddress: req.ServiceAddress,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidShareholderReq):
			writeError(w, http.StatusBadRequest, "invalid_request", "name, meeting_id, and account_number are required")
		case errors.Is(err, service.ErrMeetingNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Meeting not found")
		case errors.Is(err, service.ErrShareholderIDTaken):
			writeError(w, http.StatusConflict, "already_exists", "Shareholder id already in use")
		default:
			log.Error("failed to create shareholder", "error", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to create shareholder")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toShareholderResponse(detail.Shareholder, detail.Properties))
}

// HandleUpdateMailingAddress replaces the mailing address fields.
func (h *ShareholdersHandler) HandleUpdateMailingAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, err := domain.ParseShareholderID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "shareholder id is required")
		return
	}

	var req agmsdk.UpdateMailingAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	sh, err := h.ShareholderService.UpdateMailingAddress(ctx, id, req.MailingStreet, req.MailingCity, req.MailingState, req.MailingZip)
	if err != nil {
		if errors.Is(err, service.ErrShareholderNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Shareholder not found")
			return
		}
		log.Error("failed to update mailing address", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to update mailing address")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toShareholderResponse(sh, nil))
}

// HandleDeleteProperty removes a property row. Ownership changes go
// through transfers; deletion is reserved for records that should never
// have existed.
func (h *ShareholdersHandler) HandleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	propertyID := r.PathValue("id")
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "property id is required")
		return
	}

	if err := h.ShareholderService.DeleteProperty(ctx, propertyID); err != nil {
		if errors.Is(err, service.ErrPropertyNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Property not found")
			return
		}
		log.Error("failed to delete property", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to delete property")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
