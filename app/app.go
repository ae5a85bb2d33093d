// Package app assembles stores and services from configuration for the
// server and worker binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"Reco/config"
	"Reco/database"
	"Reco/database/memory"
	"Reco/services"
	"Reco/shared/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// App holds every wired collaborator.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Titles   services.TitleStore
	Genres   services.GenreStore
	Users    services.UserStore
	Profiles services.ProfileStore
	Source   services.MetadataSource

	Events      *gochannel.GoChannel
	Reviews     *services.ReviewService
	Recommender *services.Recommender
	Importer    *services.Importer
	Preferences *services.PreferenceService
	Auth        *services.AuthService
	Sessions    *services.SessionStore
}

// New connects storage and builds the services. Close must be called when
// the app is no longer needed.
func New(ctx context.Context, cfg *config.Config, l *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: l}

	if cfg.UseMemoryStore() {
		l.Warn("Using in-memory stores, data will not survive a restart")
		a.Titles = memory.NewTitleStore()
		a.Genres = memory.NewGenreStore()
		a.Users = memory.NewUserStore()
		a.Profiles = memory.NewProfileStore()
	} else {
		if err := database.Connect(ctx, cfg); err != nil {
			return nil, err
		}
		if err := database.RunMigrations(ctx); err != nil {
			database.Close()
			return nil, err
		}
		a.Titles = database.NewTitleStore(database.DB)
		a.Genres = database.NewGenreStore(database.DB)
		a.Users = database.NewUserStore(database.DB)
		a.Profiles = database.NewProfileStore(database.DB)
	}

	if cfg.TMDBAPIKey != "" {
		client, err := services.NewTMDBClient(cfg.TMDBAPIKey, cfg.TMDBBaseURL, cfg.TMDBLanguage,
			services.WithHTTPClient(&http.Client{Timeout: cfg.TMDBTimeout}),
			services.WithRateLimit(cfg.TMDBRateLimit),
		)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create tmdb client: %w", err)
		}
		a.Source = client
	} else {
		l.Warn("TMDB_API_KEY not set, imports are disabled")
	}

	a.Events = gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger.Component(l, "watermill")))

	locks := services.NewTitleLocks()
	a.Reviews = services.NewReviewService(a.Titles, a.Users, services.NewWatermillPublisher(a.Events), locks, l)
	a.Importer = services.NewImporter(a.Titles, a.Genres, a.Source, locks,
		services.WithConcurrency(cfg.ImportConcurrency),
		services.WithImportLogger(l),
	)
	a.Recommender = services.NewRecommender(a.Titles, a.Profiles)
	a.Preferences = services.NewPreferenceService(a.Profiles, a.Genres)
	a.Auth = services.NewAuthService(a.Users)
	a.Sessions = services.NewSessionStore(cfg.SessionSecret, cfg.IsProduction())

	return a, nil
}

// Close releases the event bus and the database connection.
func (a *App) Close() {
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			a.Logger.Warn("Failed to close event bus", "error", err)
		}
	}
	if !a.Config.UseMemoryStore() {
		if err := database.Close(); err != nil {
			a.Logger.Warn("Failed to close database", "error", err)
		}
	}
}
