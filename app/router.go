package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authservice "github.com/polp-online/schedule-service/app/modules/auth/application"
	authhandlers "github.com/polp-online/schedule-service/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/polp-online/schedule-service/app/modules/auth/infrastructure/jwt"
	scheduleservice "github.com/polp-online/schedule-service/app/modules/schedule/application"
	schedulehandlers "github.com/polp-online/schedule-service/app/modules/schedule/infrastructure/handlers"
	"github.com/polp-online/schedule-service/app/stream"
	"github.com/polp-online/schedule-service/config"
)

// RouterDeps carries everything the router assembly needs.
type RouterDeps struct {
	Config          *config.Config
	ScheduleService scheduleservice.Service
	AuthService     *authservice.Service
	JWTProvider     authjwt.Provider
	Registry        *stream.Registry
	Logger          *slog.Logger
}

// NewRouter assembles the HTTP surface. Everything under /api except
// the auth endpoints requires a bearer token; the boundary rejects
// unauthenticated calls before they reach the core.
func NewRouter(deps RouterDeps) http.Handler {
	scheduleH := schedulehandlers.NewHandlers(deps.ScheduleService, deps.Logger)
	streamH := schedulehandlers.NewStreamHandler(deps.Registry, deps.Logger)
	authH := authhandlers.NewHandlers(deps.AuthService, deps.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(authhandlers.CORSMiddleware(deps.Config.HTTP.AllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			limiter := authhandlers.NewIPRateLimiter(5, 10)
			r.Use(authhandlers.RateLimitMiddleware(limiter))
			r.Get("/login", authH.HandleLogin)
			r.Get("/callback", authH.HandleCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(authhandlers.BearerAuthMiddleware(deps.JWTProvider))

			r.Get("/ping", scheduleH.HandlePing)
			r.Get("/events", scheduleH.HandleListEvents)
			r.Post("/events/subscribe", scheduleH.HandleSubscribe)
			r.Post("/events/join", scheduleH.HandleJoin)
			r.Post("/events/leave", scheduleH.HandleLeave)
			r.Get("/events/{eventID}/rounds/{round}/users", scheduleH.HandleEventUsersStatus)
			r.Get("/counts/ws", streamH.HandleCountStream)
		})
	})

	return r
}
