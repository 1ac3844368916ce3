package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/spinpoint/ttleague-backend/handlers"
	"github.com/spinpoint/ttleague-backend/middleware"
)

// SetupRoutes собирает все маршруты приложения. Мутации закрыты JWT,
// чтение и websocket открыты.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	competitionHandler *handlers.CompetitionHandler,
	playerHandler *handlers.PlayerHandler,
	groupHandler *handlers.GroupHandler,
	matchHandler *handlers.MatchHandler,
	bracketHandler *handlers.BracketHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.RegisterHandler)
		r.Post("/login", authHandler.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Get("/profile", authHandler.ProfileHandler)
			r.Put("/active-competition", authHandler.SetActiveCompetitionHandler)
		})
	})

	router.Route("/competitions", func(r chi.Router) {
		r.Get("/", competitionHandler.ListCompetitionsHandler)
		r.Get("/{competitionID}", competitionHandler.GetCompetitionHandler)
		r.Get("/{competitionID}/players", playerHandler.ListPlayersHandler)
		r.Get("/{competitionID}/groups", groupHandler.ListGroupsHandler)
		r.Get("/{competitionID}/standings", competitionHandler.GetStandingsHandler)
		r.Get("/{competitionID}/ranking", competitionHandler.GetRankingHandler)
		r.Get("/{competitionID}/matches/next", matchHandler.NextMatchesHandler)
		r.Get("/{competitionID}/bracket", bracketHandler.GetBracketHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", competitionHandler.CreateCompetitionHandler)
			r.Delete("/{competitionID}", competitionHandler.DeleteCompetitionHandler)

			r.Post("/{competitionID}/players", playerHandler.AddPlayersHandler)
			r.Delete("/{competitionID}/players/{playerID}", playerHandler.RemovePlayerHandler)

			r.Post("/{competitionID}/groups/rebuild", groupHandler.RebuildGroupsHandler)
			r.Post("/{competitionID}/results", matchHandler.RecordResultHandler)
			r.Post("/{competitionID}/bracket/reconcile", bracketHandler.ReconcileBracketHandler)
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Get("/{playerID}", playerHandler.GetPlayerHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Delete("/{playerID}", playerHandler.DeletePlayerHandler)
			r.Post("/{playerID}/avatar", playerHandler.UploadAvatarHandler)
		})
	})

	router.Route("/groups", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/{groupID}/fixtures", groupHandler.GenerateFixturesHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetMatchHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Put("/{matchID}/date", matchHandler.SetMatchDateHandler)
		})
	})

	router.Get("/ws/competitions/{competitionID}", webSocketHandler.ServeWs)
}
