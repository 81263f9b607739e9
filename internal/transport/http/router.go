package http

import (
	"net/http"

	"github.com/glowdesk/notify/internal/application/delivery"
	"github.com/glowdesk/notify/internal/application/notification"
	"github.com/glowdesk/notify/internal/application/preference"
	"github.com/glowdesk/notify/internal/config"
	"github.com/glowdesk/notify/internal/domain"
	jwtinfra "github.com/glowdesk/notify/internal/infrastructure/jwt"
	"github.com/glowdesk/notify/internal/transport/http/handler"
	appmiddleware "github.com/glowdesk/notify/internal/transport/http/middleware"
	"github.com/glowdesk/notify/internal/transport/ws"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all collaborators the router needs.
type Deps struct {
	NotificationSvc notification.Service
	PreferenceSvc   preference.Service
	DeliverySvc     delivery.Service
	Gateway         *ws.Gateway
	Snapshotter     handler.Snapshotter
	JWTProvider     *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 10 upgrades/second with a burst of 20, so reconnect storms after a deploy
	// should not starve the rest of the API.
	wsRL := appmiddleware.NewRateLimiter(rate.Limit(10), 20)
	// Broadcast fan-out is expensive; keep admin tooling honest.
	broadcastRL := appmiddleware.NewRateLimiter(rate.Limit(1), 5)

	healthH := handler.NewHealthHandler()
	notifH := handler.NewNotificationHandler(deps.NotificationSvc)
	prefH := handler.NewPreferenceHandler(deps.PreferenceSvc)
	deliveryH := handler.NewDeliveryHandler(deps.DeliverySvc)
	systemH := handler.NewSystemHandler(deps.DeliverySvc, deps.Snapshotter)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(wsRL.Limit).Get("/ws", deps.Gateway.Handle)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkRead)
			r.Put("/notifications/{id}/archive", notifH.Archive)
			r.Delete("/notifications/{id}", notifH.Delete)

			r.Get("/preferences", prefH.Get)
			r.Put("/preferences", prefH.Update)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/notifications", notifH.Create)
				r.With(broadcastRL.Limit).Post("/broadcast", notifH.Broadcast)

				r.Get("/delivery/stats", deliveryH.Stats)
				r.Get("/delivery/logs", deliveryH.Logs)

				r.Get("/system/stats", systemH.Stats)
				r.Post("/system/snapshot", systemH.Snapshot)
			})
		})
	})

	return r
}
