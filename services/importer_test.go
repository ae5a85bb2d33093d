package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Reco/models"
	"Reco/shared/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImporter(f *fixture, opts ...ImporterOption) *Importer {
	opts = append([]ImporterOption{WithImportLogger(logger.Discard())}, opts...)
	return NewImporter(f.titles, f.genres, f.source, f.locks, opts...)
}

func TestImportCreatesTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	release := time.Date(1995, 12, 15, 0, 0, 0, 0, time.UTC)
	f.source.set(models.Metadata{
		ExternalID:  949,
		Name:        "Heat",
		Overview:    "A group of professional bank robbers",
		PosterPath:  "https://image.example/heat.jpg",
		ReleaseDate: release,
		Genres:      []string{"Crime", "Drama"},
		MediaKind:   "movie",
	})

	title, err := newImporter(f).Import(ctx, 949, "movie")
	require.NoError(t, err)
	assert.Equal(t, "Heat", title.Name)
	assert.Equal(t, models.TitleMovie, title.Type)
	assert.Equal(t, release, title.ReleaseDate)
	assert.Equal(t, []string{"Crime", "Drama"}, title.GenreNames())

	stored, err := f.titles.GetByExternalID(ctx, 949)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, title.ID, stored.ID)

	genres, err := f.genres.List(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 2)
}

func TestImportMissingMetadataIsNotFound(t *testing.T) {
	f := newFixture()
	_, err := newImporter(f).Import(context.Background(), 404, "movie")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestImportRenamesOnReimport(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	imp := newImporter(f)

	f.source.set(models.Metadata{ExternalID: 42, Name: "Old", MediaKind: "movie"})
	first, err := imp.Import(ctx, 42, "movie")
	require.NoError(t, err)

	f.source.set(models.Metadata{ExternalID: 42, Name: "New", MediaKind: "movie"})
	second, err := imp.Import(ctx, 42, "movie")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	all, err := f.titles.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "New", all[0].Name)
}

func TestImportDuplicateGenresInSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	imp := newImporter(f)
	f.source.set(models.Metadata{ExternalID: 7, Name: "Seven", Genres: []string{"Drama", "Drama"}, MediaKind: "movie"})

	for range 2 {
		_, err := imp.Import(ctx, 7, "movie")
		require.NoError(t, err)
	}

	stored, err := f.titles.GetByExternalID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Drama"}, stored.GenreNames())
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	imp := newImporter(f)
	md := models.Metadata{
		ExternalID:  11,
		Name:        "Star Wars",
		Overview:    "Princess Leia is captured",
		PosterPath:  "https://image.example/sw.jpg",
		ReleaseDate: time.Date(1977, 5, 25, 0, 0, 0, 0, time.UTC),
		Genres:      []string{"Adventure", "Action", "Science Fiction"},
		MediaKind:   "movie",
	}
	f.source.set(md)

	_, err := imp.Import(ctx, 11, "movie")
	require.NoError(t, err)
	_, err = imp.Import(ctx, 11, "movie")
	require.NoError(t, err)

	stored, err := f.titles.GetByExternalID(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, md.Name, stored.Name)
	assert.Equal(t, md.Overview, stored.Synopsis)
	assert.Equal(t, md.PosterPath, stored.PosterURL)
	assert.Equal(t, md.ReleaseDate, stored.ReleaseDate)
	assert.Equal(t, md.Genres, stored.GenreNames())

	genres, err := f.genres.List(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 3)
}

func TestImportNeverBlanksKnownFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	imp := newImporter(f)
	release := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

	f.source.set(models.Metadata{ExternalID: 3, Name: "Film", Overview: "Plot", PosterPath: "p.jpg", ReleaseDate: release, MediaKind: "movie"})
	_, err := imp.Import(ctx, 3, "movie")
	require.NoError(t, err)

	f.source.set(models.Metadata{ExternalID: 3, Name: "Film", Overview: "  ", MediaKind: "movie"})
	title, err := imp.Import(ctx, 3, "movie")
	require.NoError(t, err)

	assert.Equal(t, "Plot", title.Synopsis)
	assert.Equal(t, "p.jpg", title.PosterURL)
	assert.Equal(t, release, title.ReleaseDate)
}

func TestImportPreservesReviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	imp := newImporter(f)
	f.source.set(models.Metadata{ExternalID: 5, Name: "Before", Genres: []string{"Drama"}, MediaKind: "movie"})

	title, err := imp.Import(ctx, 5, "movie")
	require.NoError(t, err)

	user := mustUser(t, "u@example.com")
	require.NoError(t, f.users.Add(ctx, user))
	review, err := NewReviewService(f.titles, f.users, nil, f.locks, logger.Discard()).Create(ctx, title.ID, user.ID, 8, "")
	require.NoError(t, err)

	f.source.set(models.Metadata{ExternalID: 5, Name: "After", Genres: []string{"Drama", "Thriller"}, MediaKind: "movie"})
	_, err = imp.Import(ctx, 5, "movie")
	require.NoError(t, err)

	stored, err := f.titles.GetByExternalID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "After", stored.Name)
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, review.ID, stored.Reviews[0].ID)
	assert.Equal(t, []string{"Drama", "Thriller"}, stored.GenreNames())
}

func TestMergeStaleCallerKeepsNewerReviews(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	imp := newImporter(f)

	created, err := imp.Merge(ctx, &models.Metadata{ExternalID: 8, Name: "Eight", MediaKind: "movie"})
	require.NoError(t, err)

	// The merge must reload rather than trust anything the caller held.
	fresh, err := f.titles.GetByID(ctx, created.ID)
	require.NoError(t, err)
	addReviews(t, fresh, 7)
	require.NoError(t, f.titles.Upsert(ctx, fresh))

	_, err = imp.Merge(ctx, &models.Metadata{ExternalID: 8, Name: "Eight (Remastered)", MediaKind: "movie"})
	require.NoError(t, err)

	stored, err := f.titles.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Reviews, 1)
	assert.Equal(t, "Eight (Remastered)", stored.Name)
}

// reloadHookStore runs after once, right after the first GetByID returns.
type reloadHookStore struct {
	TitleStore
	fired atomic.Bool
	after func()
}

func (s *reloadHookStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Title, error) {
	title, err := s.TitleStore.GetByID(ctx, id)
	if s.fired.CompareAndSwap(false, true) {
		s.after()
	}
	return title, err
}

// The server and the sync worker hold separate lock sets, so the store must
// keep a review written between the importer's reload and its save.
func TestImportKeepsReviewWrittenByAnotherProcessMidMerge(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.source.set(models.Metadata{ExternalID: 9, Name: "Nine", MediaKind: "movie"})
	created, err := newImporter(f).Import(ctx, 9, "movie")
	require.NoError(t, err)

	user := mustUser(t, "u@example.com")
	require.NoError(t, f.users.Add(ctx, user))
	server := NewReviewService(f.titles, f.users, nil, NewTitleLocks(), logger.Discard())

	var review models.Review
	hooked := &reloadHookStore{TitleStore: f.titles, after: func() {
		review, err = server.Create(ctx, created.ID, user.ID, 6, "")
		require.NoError(t, err)
	}}
	worker := NewImporter(hooked, f.genres, f.source, NewTitleLocks(), WithImportLogger(logger.Discard()))

	f.source.set(models.Metadata{ExternalID: 9, Name: "Nine (Director's Cut)", MediaKind: "movie"})
	_, err = worker.Import(ctx, 9, "movie")
	require.NoError(t, err)

	stored, err := f.titles.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nine (Director's Cut)", stored.Name)
	require.Len(t, stored.Reviews, 1)
	assert.Equal(t, review.ID, stored.Reviews[0].ID)
}

func TestMergeValidation(t *testing.T) {
	ctx := context.Background()
	imp := newImporter(newFixture())

	_, err := imp.Merge(ctx, &models.Metadata{ExternalID: 1, Name: "   "})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = imp.Merge(ctx, &models.Metadata{ExternalID: 1, Name: "X", MediaKind: "podcast"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = imp.Merge(ctx, nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestMergeDefaultsToMovieAndSkipsBlankGenres(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	title, err := newImporter(f).Merge(ctx, &models.Metadata{ExternalID: 2, Name: "Two", Genres: []string{"", " ", "Horror"}})
	require.NoError(t, err)
	assert.Equal(t, models.TitleMovie, title.Type)
	assert.Equal(t, []string{"Horror"}, title.GenreNames())
}

func TestMergeSeriesFromTVKind(t *testing.T) {
	title, err := newImporter(newFixture()).Merge(context.Background(), &models.Metadata{ExternalID: 1399, Name: "Game of Thrones", MediaKind: "tv"})
	require.NoError(t, err)
	assert.Equal(t, models.TitleSeries, title.Type)
}

func TestMergeReusesExistingGenre(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	drama := models.Genre{Name: "Drama"}
	require.NoError(t, f.genres.Add(ctx, &drama))

	title, err := newImporter(f).Merge(ctx, &models.Metadata{ExternalID: 9, Name: "Nine", Genres: []string{"Drama"}})
	require.NoError(t, err)
	require.Len(t, title.Genres, 1)
	assert.Equal(t, drama.ID, title.Genres[0].ID)
}

func TestImportBatchIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.source.set(models.Metadata{ExternalID: 1, Name: "One", MediaKind: "movie"})
	f.source.set(models.Metadata{ExternalID: 3, Name: "Three", MediaKind: "movie"})

	results := newImporter(f, WithConcurrency(2)).ImportBatch(ctx, []ImportRequest{
		{ExternalID: 1, MediaKind: "movie"},
		{ExternalID: 2, MediaKind: "movie"},
		{ExternalID: 3, MediaKind: "movie"},
		{ExternalID: 1, MediaKind: "movie"},
	})

	require.Len(t, results, 4)
	assert.True(t, results[0].OK())
	assert.True(t, results[0].Created)
	assert.ErrorIs(t, results[1].Err, models.ErrNotFound)
	assert.True(t, results[2].OK())
	assert.Equal(t, "Three", results[2].Name)
	assert.Equal(t, results[0].TitleID, results[3].TitleID)

	all, err := f.titles.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 3, f.source.callCount(), "repeated ids are fetched once")
}

func TestMergeBatchRejectsSameIDWithOtherKind(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	results := newImporter(f).MergeBatch(ctx, []models.Metadata{
		{ExternalID: 1399, Name: "Some Film", MediaKind: "movie"},
		{ExternalID: 1399, Name: "Game of Thrones", MediaKind: "tv"},
		{ExternalID: 1399, Name: "Some Film", MediaKind: "movie"},
	})

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.ErrorIs(t, results[1].Err, models.ErrConflict)
	assert.Equal(t, "tv", results[1].MediaKind)
	assert.True(t, results[2].OK())
	assert.Equal(t, results[0].TitleID, results[2].TitleID)

	stored, err := f.titles.GetByExternalID(ctx, 1399)
	require.NoError(t, err)
	assert.Equal(t, models.TitleMovie, stored.Type)
	assert.Equal(t, "Some Film", stored.Name)
}

func TestImportCollapsesConcurrentCallsForSameID(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.source.set(models.Metadata{ExternalID: 77, Name: "Shared", MediaKind: "movie"})
	f.source.block = make(chan struct{})
	imp := newImporter(f)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := imp.Import(ctx, 77, "movie")
			assert.NoError(t, err)
		}()
	}
	// Give the goroutines time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(f.source.block)
	wg.Wait()

	all, err := f.titles.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestImportTrending(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.source.trending[1] = []models.Metadata{
		{ExternalID: 10, Name: "Movie", MediaKind: "movie", Genres: []string{"Action"}},
		{ExternalID: 20, Name: "Show", MediaKind: "tv", Genres: []string{"Action"}},
		{ExternalID: 30, Name: "", MediaKind: "movie"},
	}
	imp := newImporter(f)

	results, err := imp.ImportTrending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.True(t, results[1].OK())
	assert.ErrorIs(t, results[2].Err, models.ErrValidation)

	show, err := f.titles.GetByExternalID(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, models.TitleSeries, show.Type)

	_, err = imp.ImportTrending(ctx, 2)
	assert.Error(t, err)
}

func TestSyncWorkerRunOnceCounts(t *testing.T) {
	f := newFixture()
	f.source.trending[1] = []models.Metadata{
		{ExternalID: 10, Name: "Movie", MediaKind: "movie"},
		{ExternalID: 11, Name: "", MediaKind: "movie"},
	}
	w := NewSyncWorker(newImporter(f), time.Hour, 2, logger.Discard())

	imported, failed := w.RunOnce(context.Background())
	assert.Equal(t, 1, imported)
	// One bad item plus the missing second page.
	assert.Equal(t, 2, failed)
}

func TestSyncWorkerServeStopsOnCancel(t *testing.T) {
	f := newFixture()
	f.source.trending[1] = []models.Metadata{}
	w := NewSyncWorker(newImporter(f), time.Hour, 1, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
