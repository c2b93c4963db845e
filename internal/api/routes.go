package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS - the admin UI runs on a separate origin in development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://biomathcore.com", "http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// Dispatch endpoints
		r.Post("/email/send", h.HandleSendTemplated)
		r.Post("/email/send-test", h.HandleSendTest)
		r.Get("/sends", h.HandleGetSendLogs)

		// Template administration
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.HandleListTemplates)
			r.Post("/", h.HandleCreateTemplate)
			r.Post("/seed", h.HandleSeedTemplates)
			r.Get("/export", h.HandleExportTemplates)
			r.Post("/import", h.HandleImportTemplates)
			r.Get("/{slug}", h.HandleGetTemplate)
			r.Put("/{id}", h.HandleUpdateTemplate)
			r.Delete("/{id}", h.HandleDeleteTemplate)
		})

		// Invitation administration and redemption lookup
		r.Route("/invitations", func(r chi.Router) {
			r.Get("/", h.HandleListInvitations)
			r.Post("/", h.HandleCreateInvitation)
			r.Get("/stats", h.HandleInvitationStats)
			r.Get("/redeem/{code}", h.HandleRedeemLookup)
			r.Post("/{id}/resend", h.HandleResendInvitation)
			r.Post("/{id}/revoke", h.HandleRevokeInvitation)
			r.Delete("/{id}", h.HandleDeleteInvitation)
		})
	})

	return r
}
