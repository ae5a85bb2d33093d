package services

import (
	"errors"

	"Reco/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reviewsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reco_reviews_created_total",
		Help: "Reviews persisted.",
	})

	reviewsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_reviews_rejected_total",
		Help: "Review writes rejected, by error kind.",
	}, []string{"kind"})

	eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reco_event_publish_failures_total",
		Help: "Review events that could not be handed to the publisher.",
	})

	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_imports_total",
		Help: "Title imports by outcome (created, updated, failed).",
	}, []string{"outcome"})

	importDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reco_import_duration_seconds",
		Help:    "Time spent importing a single title.",
		Buckets: prometheus.DefBuckets,
	})

	tmdbRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_tmdb_requests_total",
		Help: "Requests to the metadata source by endpoint and result.",
	}, []string{"endpoint", "result"})

	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reco_sync_runs_total",
		Help: "Catalog sync passes by result.",
	}, []string{"result"})
)

// kindLabel reports the domain error kind of err, or "internal".
func kindLabel(err error) string {
	var de *models.Error
	if errors.As(err, &de) {
		return de.ErrorKind()
	}
	return "internal"
}
