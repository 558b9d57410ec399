package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/service"
	"github.com/openwaterco/agmdesk/pkg/agmsdk"
	"github.com/openwaterco/agmdesk/pkg/httpx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

// yearly exports run a few thousand rows; 32 MiB is generous headroom
const maxImportBytes = 32 << 20

type ImportHandler struct {
	ImportService *service.ImportService
}

// HandleImport seeds a meeting from the mailing-list CSV export. The
// request is multipart form data with a "file" part, plus "year" and an
// optional "date" (RFC 3339) field.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Expected multipart form data with a file part")
		return
	}

	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "year is required")
		return
	}

	meetingDate := time.Now().UTC()
	if v := r.FormValue("date"); v != "" {
		meetingDate, err = time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "date must be RFC 3339")
			return
		}
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", `A "file" part is required`)
		return
	}
	defer file.Close()

	summary, err := h.ImportService.ImportCSV(ctx, year, meetingDate, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImportYearInvalid):
			writeError(w, http.StatusBadRequest, "invalid_request", "year is out of range")
		case errors.Is(err, service.ErrInvalidImportFile):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			log.Error("bulk import failed", "error", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Bulk import failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, agmsdk.ImportResponse{
		MeetingID:           summary.MeetingID,
		Year:                summary.Year,
		ShareholdersCreated: summary.ShareholdersCreated,
		PropertiesCreated:   summary.PropertiesCreated,
		RowsSkipped:         summary.RowsSkipped,
	})
}
