package http

import (
	"net/http"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		if h.cfg.RateLimitRPS > 0 {
			lmt := tollbooth.NewLimiter(h.cfg.RateLimitRPS, &limiter.ExpirableOptions{})
			r.Use(func(next http.Handler) http.Handler {
				return tollbooth.LimitHandler(lmt, next)
			})
		}
		r.Post("/api/devices/enrol", h.enrolDevice)
		r.Get("/api/health", h.health)
	})

	// device-authenticated routes
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/users", h.registerUser)
		r.Get("/api/users/{userID}", h.getUser)
		r.Patch("/api/users/{userID}/status", h.setUserStatus)

		r.Post("/api/family/register", h.registerFamilyMember)
		r.Get("/api/family/link", h.getFamilyLink)
		r.Post("/api/family/revoke", h.revokeFamilyConsent)
		r.Get("/api/family/primary/{primaryID}", h.listFamilyByPrimary)

		r.Post("/api/audit/records", h.appendAuditRecord)
		r.Get("/api/audit/records", h.listAuditRecords)

		r.Post("/api/sync/transactions", h.receiveSyncBatch)
	})

	return router
}
