package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"Reco/database/memory"
	"Reco/models"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	details  map[int]models.Metadata
	trending map[int][]models.Metadata
	videos   map[int][]models.VideoRef
	calls    int
	block    chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		details:  make(map[int]models.Metadata),
		trending: make(map[int][]models.Metadata),
		videos:   make(map[int][]models.VideoRef),
	}
}

func (f *fakeSource) set(md models.Metadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[md.ExternalID] = md
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) GetDetails(ctx context.Context, externalID int, _ string) (*models.Metadata, error) {
	f.mu.Lock()
	f.calls++
	md, ok := f.details[externalID]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, models.NotFound("no metadata for %d", externalID)
	}
	md.Genres = append([]string(nil), md.Genres...)
	return &md, nil
}

func (f *fakeSource) GetTrending(_ context.Context, page int) ([]models.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, ok := f.trending[page]
	if !ok {
		return nil, errors.New("no such page")
	}
	return items, nil
}

func (f *fakeSource) GetVideos(_ context.Context, externalID int, _ string) ([]models.VideoRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.videos[externalID], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ReviewCreated
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.ReviewCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []models.ReviewCreated {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ReviewCreated(nil), p.events...)
}

// failingTitleStore wraps a title store and fails every Upsert.
type failingTitleStore struct {
	TitleStore
	err error
}

func (s failingTitleStore) Upsert(context.Context, *models.Title) error {
	return s.err
}

func mustTitle(t *testing.T, externalID int, name string, genres ...models.Genre) *models.Title {
	t.Helper()
	title, err := models.NewTitle(externalID, models.TitleMovie, name)
	require.NoError(t, err)
	for _, g := range genres {
		title.AddGenre(g)
	}
	return title
}

func mustUser(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := models.NewUser(email, "hash", "")
	require.NoError(t, err)
	return u
}

// addReviews attaches one review per rating, each by a new user.
func addReviews(t *testing.T, title *models.Title, ratings ...int) {
	t.Helper()
	for i, r := range ratings {
		user := mustUser(t, "u"+string(rune('a'+i))+"@example.com")
		_, _, err := WriteReview(title, user, r, "")
		require.NoError(t, err)
	}
}

type fixture struct {
	titles   *memory.TitleStore
	genres   *memory.GenreStore
	users    *memory.UserStore
	profiles *memory.ProfileStore
	source   *fakeSource
	locks    *TitleLocks
}

func newFixture() *fixture {
	return &fixture{
		titles:   memory.NewTitleStore(),
		genres:   memory.NewGenreStore(),
		users:    memory.NewUserStore(),
		profiles: memory.NewProfileStore(),
		source:   newFakeSource(),
		locks:    NewTitleLocks(),
	}
}
