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

type TransferHandler struct {
	TransferService *service.TransferService
}

// HandleTransfer reassigns a property to an existing shareholder. A 200
// with warnings means the ownership change went through but a best-effort
// sub-step (audit record, orphan cleanup) did not.
func (h *TransferHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	propertyID := r.PathValue("id")
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "property id is required")
		return
	}

	var req agmsdk.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	targetID, err := domain.ParseShareholderID(req.TargetShareholderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "target_shareholder_id is required")
		return
	}

	ov := service.TransferOverrides{KeepExistingService: req.KeepExistingService}
	if req.OwnerName != "" || req.OwnerAddress != "" {
		ov.Owner = &domain.Party{Name: req.OwnerName, Address: req.OwnerAddress}
	}
	if req.ResidentName != "" || req.ResidentAddress != "" {
		ov.Resident = &domain.Party{Name: req.ResidentName, Address: req.ResidentAddress}
	}

	res, err := h.TransferService.Transfer(ctx, propertyID, targetID, ov)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPropertyNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Property not found")
		case errors.Is(err, service.ErrShareholderNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Target shareholder not found")
		default:
			log.Error("transfer failed", "error", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Transfer failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, agmsdk.TransferResponse{
		Property: toPropertyResponse(res.Property),
		Warnings: res.Warnings,
	})
}
