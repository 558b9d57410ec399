package http

import (
	"errors"
	"net/http"

	"github.com/openwaterco/agmdesk/internal/portal/service"
	"github.com/openwaterco/agmdesk/pkg/agmsdk"
	"github.com/openwaterco/agmdesk/pkg/httpx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

type MeetingsHandler struct {
	MeetingService *service.MeetingService
}

// HandleList returns every meeting, newest year first.
func (h *MeetingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	meetings, err := h.MeetingService.List(ctx)
	if err != nil {
		log.Error("failed to list meetings", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to list meetings")
		return
	}

	out := make([]agmsdk.MeetingResponse, len(meetings))
	for i, m := range meetings {
		out[i] = toMeetingResponse(m)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one meeting with its aggregate counters. The
// dashboard polls this for live attendance.
func (h *MeetingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	meeting, err := h.MeetingService.Get(ctx, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrMeetingNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "Meeting not found")
			return
		}
		log.Error("failed to fetch meeting", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to fetch meeting")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toMeetingResponse(meeting))
}
