package handlers

import (
	"log/slog"
	"net/http"

	"Reco/middleware"
	"Reco/services"
	"Reco/shared/logger"
	sharedmiddleware "Reco/shared/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Titles      services.TitleStore
	Genres      services.GenreStore
	Users       services.UserStore
	Source      services.MetadataSource
	Reviews     *services.ReviewService
	Recommender *services.Recommender
	Importer    *services.Importer
	Preferences *services.PreferenceService
	Auth        *services.AuthService
	Sessions    *services.SessionStore
	Logger      *slog.Logger
}

type Handler struct {
	Deps
	logger *slog.Logger
}

func New(d Deps) *Handler {
	return &Handler{Deps: d, logger: logger.Component(d.Logger, "http")}
}

// NewRouter wires every route of the JSON API.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(sharedmiddleware.Logging(h.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := middleware.RequireAuth(h.Sessions, h.Users)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Get("/titles", h.ListTitles)
		r.Get("/titles/{id}", h.GetTitle)
		r.Get("/titles/{id}/videos", h.TitleVideos)
		r.Get("/genres", h.ListGenres)
		r.Get("/recommendations", h.TopRated)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/titles/{id}/reviews", h.CreateReview)
			r.Get("/me", h.Me)
			r.Get("/me/reviews", h.MyReviews)
			r.Get("/me/recommendations", h.MyRecommendations)
			r.Get("/me/preferences", h.GetPreferences)
			r.Post("/me/preferences", h.SavePreferences)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireAdmin)
			r.Post("/admin/import", h.Import)
			r.Post("/admin/import/trending", h.ImportTrending)
		})
	})

	return r
}
