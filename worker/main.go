package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"Reco/app"
	"Reco/config"
	"Reco/services"
	"Reco/shared/logger"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reco-worker",
		Short:         "Catalog sync and import tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.AddCommand(newRunCommand(), newImportCommand(), newTrendingCommand())
	return rootCmd
}

// withApp loads configuration, wires the app and hands it to fn.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Init(cfg.Environment, cfg.Debug)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the periodic trending sync until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				lock := flock.New(a.Config.WorkerLockPath)
				ok, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire lock: %w", err)
				}
				if !ok {
					return errors.New("another sync worker is already running")
				}
				defer func() { _ = lock.Unlock() }()

				hook := (&sutureslog.Handler{Logger: a.Logger}).MustHook()
				sup := suture.New("reco-worker", suture.Spec{EventHook: hook})
				sup.Add(services.NewSyncWorker(a.Importer, a.Config.SyncInterval, a.Config.SyncPages, a.Logger))

				err = sup.Serve(cmd.Context())
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
}

func newImportCommand() *cobra.Command {
	var mediaKind string
	cmd := &cobra.Command{
		Use:   "import <tmdb-id>...",
		Short: "Import titles by TMDB id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs := make([]services.ImportRequest, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid tmdb id %q", arg)
				}
				reqs = append(reqs, services.ImportRequest{ExternalID: id, MediaKind: mediaKind})
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				results := a.Importer.ImportBatch(cmd.Context(), reqs)
				return printResults(cmd, results)
			})
		},
	}
	cmd.Flags().StringVarP(&mediaKind, "type", "t", "movie", "Media kind: movie or tv")
	return cmd
}

func newTrendingCommand() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Import one page of the weekly trending list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				results, err := a.Importer.ImportTrending(cmd.Context(), page)
				if err != nil {
					return err
				}
				return printResults(cmd, results)
			})
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Trending page to import")
	return cmd
}

func printResults(cmd *cobra.Command, results []services.ImportResult) error {
	fmt.Fprintln(cmd.OutOrStdout(), renderResults(results))
	if failed := countFailed(results); failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(results))
	}
	return nil
}
