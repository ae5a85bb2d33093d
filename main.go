package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"Reco/app"
	"Reco/config"
	"Reco/handlers"
	"Reco/services"
	"Reco/shared/logger"
	"Reco/shared/server"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Environment, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Default()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	admin, err := a.Auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return err
	}
	if admin != nil {
		log.Info("Admin account ready", "email", admin.Email.String())
	}

	router := handlers.NewRouter(handlers.New(handlers.Deps{
		Titles:      a.Titles,
		Genres:      a.Genres,
		Users:       a.Users,
		Source:      a.Source,
		Reviews:     a.Reviews,
		Recommender: a.Recommender,
		Importer:    a.Importer,
		Preferences: a.Preferences,
		Auth:        a.Auth,
		Sessions:    a.Sessions,
		Logger:      log,
	}))

	srvCfg := server.DefaultConfig(":" + cfg.ServerPort)
	srv := server.CreateServer(srvCfg, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return services.LogReviewEvents(ctx, a.Events, log)
	})
	g.Go(func() error {
		return server.Run(ctx, srvCfg, srv)
	})
	return g.Wait()
}
