package services

import (
	"context"
	"log/slog"
	"time"

	"Reco/shared/logger"
)

// SyncWorker pulls the trending lists into the catalog on a fixed interval.
// It implements suture.Service.
type SyncWorker struct {
	importer *Importer
	interval time.Duration
	pages    int
	logger   *slog.Logger
}

func NewSyncWorker(importer *Importer, interval time.Duration, pages int, l *slog.Logger) *SyncWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if pages < 1 {
		pages = 1
	}
	return &SyncWorker{
		importer: importer,
		interval: interval,
		pages:    pages,
		logger:   logger.Component(l, "sync"),
	}
}

// Serve runs a pass immediately and then every interval until ctx is done.
func (w *SyncWorker) Serve(ctx context.Context) error {
	w.logger.Info("Starting catalog sync worker", "interval", w.interval, "pages", w.pages)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("Catalog sync worker stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce imports every configured trending page. Failures are logged and
// counted, never returned.
func (w *SyncWorker) RunOnce(ctx context.Context) (imported, failed int) {
	start := time.Now()
	for page := 1; page <= w.pages; page++ {
		if ctx.Err() != nil {
			break
		}
		results, err := w.importer.ImportTrending(ctx, page)
		if err != nil {
			w.logger.Error("Trending fetch failed", "page", page, "error", err)
			failed++
			continue
		}
		for _, r := range results {
			if r.OK() {
				imported++
			} else {
				failed++
			}
		}
	}

	result := "ok"
	if failed > 0 {
		result = "partial"
	}
	syncRuns.WithLabelValues(result).Inc()
	w.logger.Info("Catalog sync pass complete", "imported", imported, "failed", failed, "duration", time.Since(start).Round(time.Millisecond))
	return imported, failed
}

func (w *SyncWorker) String() string {
	return "catalog-sync"
}
