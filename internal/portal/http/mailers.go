package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/openwaterco/agmdesk/internal/portal/service"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

type MailersHandler struct {
	MailerService *service.MailerService
}

// HandleGenerate renders the full mailer batch for a meeting and streams
// the PDF back. Re-running regenerates the batch from current data.
func (h *MailersHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	meetingID := r.PathValue("id")
	if meetingID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "meeting id is required")
		return
	}

	batch, err := h.MailerService.GenerateMailers(ctx, meetingID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMeetingNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Meeting not found")
		case errors.Is(err, service.ErrNoShareholders):
			writeError(w, http.StatusConflict, "invalid_state", "Meeting has no shareholders to mail")
		default:
			log.Error("mailer generation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Mailer generation failed")
		}
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "mailers-"+meetingID+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(batch.PDF)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(batch.PDF)
}
