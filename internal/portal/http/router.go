package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openwaterco/agmdesk/internal/portal/service"
	"github.com/openwaterco/agmdesk/internal/portal/store"
	"github.com/openwaterco/agmdesk/pkg/httpx"
	"github.com/openwaterco/agmdesk/pkg/jwtx"
	"github.com/openwaterco/agmdesk/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store              store.Store
	CheckinService     *service.CheckinService
	TransferService    *service.TransferService
	UndoService        *service.UndoService
	ImportService      *service.ImportService
	MailerService      *service.MailerService
	ShareholderService *service.ShareholderService
	MeetingService     *service.MeetingService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerCheckin()
	r.registerShareholders()
	r.registerTransfers()
	r.registerUndoRequests()
	r.registerMeetings()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerCheckin() {
	h := &CheckinHandler{CheckinService: r.CheckinService}

	// POST /checkin - moderate rate limit by user (desks scan all day)
	r.Mux.Handle("POST /v1/checkin",
		httpx.Chain(http.HandlerFunc(h.HandleCheckin),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("checkin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /shareholders/{id}/signature - moderate rate limit by user
	r.Mux.Handle("POST /v1/shareholders/{id}/signature",
		httpx.Chain(http.HandlerFunc(h.HandleSignature),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("checkin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerShareholders() {
	h := &ShareholdersHandler{ShareholderService: r.ShareholderService}

	// GET /shareholders/{id} - lenient; the desk looks people up constantly
	r.Mux.Handle("GET /v1/shareholders/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("checkin:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// GET /shareholders/{id}/barcode.png - lenient; desk reprints
	r.Mux.Handle("GET /v1/shareholders/{id}/barcode.png",
		httpx.Chain(http.HandlerFunc(h.HandleBarcode),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("checkin:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// POST /shareholders - moderate; manual additions are rare
	r.Mux.Handle("POST /v1/shareholders",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// PATCH /shareholders/{id}/mailing-address - moderate
	r.Mux.Handle("PATCH /v1/shareholders/{id}/mailing-address",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateMailingAddress),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// DELETE /properties/{id} - moderate; explicit admin action only
	r.Mux.Handle("DELETE /v1/properties/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDeleteProperty),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerTransfers() {
	h := &TransferHandler{TransferService: r.TransferService}

	// POST /properties/{id}/transfer - moderate rate limit by user
	r.Mux.Handle("POST /v1/properties/{id}/transfer",
		httpx.Chain(http.HandlerFunc(h.HandleTransfer),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUndoRequests() {
	h := &UndoHandler{UndoService: r.UndoService}

	// POST /undo-requests - moderate; clerks file these
	r.Mux.Handle("POST /v1/undo-requests",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("checkin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /undo-requests - moderate; admin review queue
	r.Mux.Handle("GET /v1/undo-requests",
		httpx.Chain(http.HandlerFunc(h.HandleListPending),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:read"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// POST /undo-requests/{id}/resolve - moderate; admin decision
	r.Mux.Handle("POST /v1/undo-requests/{id}/resolve",
		httpx.Chain(http.HandlerFunc(h.HandleResolve),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMeetings() {
	h := &MeetingsHandler{MeetingService: r.MeetingService}

	// GET /meetings and /meetings/{id} - lenient; dashboards poll these
	r.Mux.Handle("GET /v1/meetings",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("checkin:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/meetings/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("checkin:read"),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// POST /meetings/import - strict; a yearly operation, never bursty
	importHandler := &ImportHandler{ImportService: r.ImportService}
	r.Mux.Handle("POST /v1/meetings/import",
		httpx.Chain(http.HandlerFunc(importHandler.HandleImport),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:write"),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// POST /meetings/{id}/mailers - strict; batch render is expensive
	mailerHandler := &MailersHandler{MailerService: r.MailerService}
	r.Mux.Handle("POST /v1/meetings/{id}/mailers",
		httpx.Chain(http.HandlerFunc(mailerHandler.HandleGenerate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:write"),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
