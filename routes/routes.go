package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/tournament-engine/docs"
	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
)

type Handlers struct {
	Tournaments *handlers.TournamentHandler
	Matches     *handlers.MatchHandler
	Disputes    *handlers.DisputeHandler
	Stages      *handlers.StageHandler
	Proofs      *handlers.ProofHandler
	Dashboard   *handlers.DashboardHandler
	WebSocket   *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	authenticate := middleware.Authenticate(opts.JWTSecret)
	organizerOnly := middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin)

	router.Route("/api", func(r chi.Router) {
		r.Get("/tournaments", h.Tournaments.ListHandler)
		r.Get("/tournaments/{tournamentID}", h.Tournaments.GetByIDHandler)
		r.Get("/tournaments/{tournamentID}/bracket", h.Tournaments.GetBracketHandler)
		r.Get("/matches/{matchID}", h.Matches.GetHandler)
		r.Get("/matches/{matchID}/history", h.Matches.HistoryHandler)
		r.Get("/stages/{stageID}/standings", h.Stages.StageStandingsHandler)
		r.Get("/groups/{groupID}/standings", h.Stages.GroupStandingsHandler)
		r.Get("/proofs/{ref}", h.Proofs.GetHandler)

		// Participants act as themselves.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/matches/{matchID}/results", h.Matches.SubmitResultHandler)
			r.Post("/matches/{matchID}/confirm", h.Matches.ConfirmResultHandler)
			r.Post("/matches/{matchID}/disputes", h.Matches.DisputeResultHandler)
			r.Post("/matches/{matchID}/start", h.Matches.StartHandler)
			r.Post("/proofs", h.Proofs.UploadHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(organizerOnly)

			r.Post("/tournaments", h.Tournaments.CreateHandler)
			r.Post("/tournaments/{tournamentID}/structure", h.Tournaments.GenerateStructureHandler)
			r.Delete("/tournaments/{tournamentID}/structure", h.Tournaments.ResetStructureHandler)

			r.Post("/matches/{matchID}/cancel", h.Matches.CancelHandler)
			r.Post("/matches/{matchID}/finalize", h.Matches.FinalizeHandler)
			r.Post("/matches/{matchID}/schedule", h.Matches.ScheduleHandler)
			r.Post("/matches/{matchID}/override", h.Matches.OverrideHandler)

			r.Get("/disputes", h.Disputes.OpenQueueHandler)
			r.Get("/disputes/{disputeID}", h.Disputes.GetHandler)
			r.Post("/disputes/{disputeID}/resolve", h.Disputes.ResolveHandler)

			r.Post("/stages/{stageID}/advance", h.Stages.AdvanceHandler)
			r.Get("/dashboard", h.Dashboard.Stats)
		})
	})
}
