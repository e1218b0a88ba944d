package routes

import (
	"net/http"

	"github.com/Dosada05/faculty-games/handlers"
	"github.com/Dosada05/faculty-games/middleware"
	"github.com/Dosada05/faculty-games/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Faculty     *handlers.FacultyHandler
	Competition *handlers.CompetitionHandler
	Match       *handlers.MatchHandler
	Medal       *handlers.MedalHandler
	Dashboard   *handlers.DashboardHandler
	Health      *handlers.HealthHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.Check)

	router.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard.Snapshot)

		r.Get("/faculties", h.Faculty.ListFaculties)
		r.Get("/faculties/{facultyID}", h.Faculty.GetFaculty)

		r.Route("/competitions", func(r chi.Router) {
			r.Get("/", h.Competition.ListCompetitions)
			r.Get("/{competitionID}", h.Competition.GetCompetition)
			r.Get("/{competitionID}/table", h.Competition.GetTable)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.Match.ListMatches)
			r.Get("/live", h.Match.ListLiveMatches)
			r.Get("/{matchID}", h.Match.GetMatch)
			r.Get("/{matchID}/arts-scores", h.Match.GetArtsScores)
		})

		r.Route("/medals", func(r chi.Router) {
			r.Get("/", h.Medal.GetMedalTally)
			r.Get("/standings", h.Medal.ListStandings)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Auth.Login)

			// Все остальное - только для администратора
			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate([]byte(opts.JWTSecret)))
				r.Use(middleware.Authorize(models.RoleAdmin))

				r.Post("/matches", h.Match.CreateMatch)
				r.Put("/matches/{matchID}", h.Match.UpdateMatch)
				r.Delete("/matches/{matchID}", h.Match.DeleteMatch)
				r.Patch("/matches/{matchID}/score", h.Match.UpdateScore)
				r.Put("/matches/{matchID}/arts-scores", h.Match.SaveArtsScores)

				r.Post("/medals/sync", h.Medal.Sync)
				r.Post("/medals/reset", h.Medal.Reset)

				r.Put("/competitions/{competitionID}/table", h.Competition.SaveTable)
				r.Delete("/table-standings", h.Competition.ClearTables)

				r.Post("/faculties/{facultyID}/logo", h.Faculty.UploadLogo)
			})
		})
	})
}
