package routes

import (
	"net/http"

	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Options struct {
	Auth           *middleware.Authenticator
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	gameHandler *handlers.MatchGameHandler,
	adminHandler *handlers.AdminHandler,
	singleGameHandler *handlers.SingleGameHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics)
	}

	router.Group(func(r chi.Router) {
		r.Use(opts.Auth.Authenticate)
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListHandler)
			r.Post("/", tournamentHandler.CreateHandler)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.GetByIDHandler)
				r.Put("/open", tournamentHandler.OpenEnrollmentHandler)
				r.Put("/start", tournamentHandler.StartHandler)
				r.Post("/enrollments", tournamentHandler.EnrollHandler)
				r.Get("/matches", tournamentHandler.ListMatchesHandler)
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/me", matchHandler.ListMineHandler)
			r.Get("/{matchID}", matchHandler.GetByIDHandler)
			r.Get("/{matchID}/games", gameHandler.ListHandler)
		})

		r.Route("/match-games", func(r chi.Router) {
			r.Post("/", gameHandler.CreateHandler)
			r.Patch("/{gameID}/accept", gameHandler.AcceptHandler)
			r.Patch("/{gameID}/report", gameHandler.ReportHandler)
			r.Patch("/{gameID}/confirm", gameHandler.ConfirmHandler)
		})

		r.Route("/single", func(r chi.Router) {
			r.Get("/", singleGameHandler.ListHandler)
			r.Post("/", singleGameHandler.CreateHandler)
		})

		// Ручные триггеры продвижения, только для администраторов
		r.Route("/admin/tournaments/{tournamentID}", func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/next-round", adminHandler.NextRoundHandler)
			r.Post("/knockout", adminHandler.StartKnockoutHandler)
			r.Post("/knockout/{stage}/advance", adminHandler.AdvanceKnockoutHandler)
			r.Post("/finish", adminHandler.FinishHandler)
			r.Get("/audit", adminHandler.AuditTrailHandler)
		})
	})
}
