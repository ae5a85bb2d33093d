// Package memory holds map-backed stores with the same contracts as the
// Postgres ones. Values are copied on the way in and out so callers never
// share state with the store.
package memory

import (
	"context"
	"sort"
	"sync"

	"Reco/models"

	"github.com/google/uuid"
)

type TitleStore struct {
	mu     sync.RWMutex
	titles map[uuid.UUID]*models.Title
}

func NewTitleStore() *TitleStore {
	return &TitleStore{titles: make(map[uuid.UUID]*models.Title)}
}

func (s *TitleStore) GetByID(_ context.Context, id uuid.UUID) (*models.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.titles[id].Clone(), nil
}

func (s *TitleStore) GetByExternalID(_ context.Context, externalID int) (*models.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.titles {
		if t.ExternalID == externalID {
			return t.Clone(), nil
		}
	}
	return nil, nil
}

// Upsert replaces whatever is stored under title.ID except reviews, which
// are append-only: stored reviews missing from title are kept. A different
// title already holding the external id, or two reviews by one user, is a
// conflict.
func (s *TitleStore) Upsert(_ context.Context, title *models.Title) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.titles {
		if id != title.ID && t.ExternalID == title.ExternalID {
			return models.Errorf(models.KindConflict, "external id %d already belongs to title %s", title.ExternalID, id)
		}
	}

	merged := title.Clone()
	if stored, ok := s.titles[title.ID]; ok {
		incoming := make(map[uuid.UUID]bool, len(merged.Reviews))
		for _, r := range merged.Reviews {
			incoming[r.ID] = true
		}
		for _, r := range stored.Reviews {
			if !incoming[r.ID] {
				merged.Reviews = append(merged.Reviews, r)
			}
		}
	}

	seen := make(map[uuid.UUID]bool, len(merged.Reviews))
	for _, r := range merged.Reviews {
		if seen[r.UserID] {
			return models.Errorf(models.KindConflict, "title %s has two reviews by user %s", title.ID, r.UserID)
		}
		seen[r.UserID] = true
	}
	s.titles[title.ID] = merged
	return nil
}

func (s *TitleStore) ListAll(_ context.Context) ([]*models.Title, error) {
	return s.list(func(*models.Title) bool { return true }, 0), nil
}

func (s *TitleStore) ListByType(_ context.Context, typ models.TitleType) ([]*models.Title, error) {
	return s.list(func(t *models.Title) bool { return t.Type == typ }, 0), nil
}

func (s *TitleStore) SearchByGenre(_ context.Context, genreID int64, limit int) ([]*models.Title, error) {
	return s.list(func(t *models.Title) bool {
		for _, g := range t.Genres {
			if g.ID == genreID {
				return true
			}
		}
		return false
	}, limit), nil
}

// list returns matching titles ordered by name then id, like the SQL store.
func (s *TitleStore) list(match func(*models.Title) bool, limit int) []*models.Title {
	s.mu.RLock()
	out := []*models.Title{}
	for _, t := range s.titles {
		if match(t) {
			out = append(out, t.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type GenreStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Genre
}

func NewGenreStore() *GenreStore {
	return &GenreStore{byID: make(map[int64]models.Genre)}
}

func (s *GenreStore) GetByName(_ context.Context, name string) (*models.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.byID {
		if g.Name == name {
			found := g
			return &found, nil
		}
	}
	return nil, nil
}

func (s *GenreStore) GetByID(_ context.Context, id int64) (*models.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (s *GenreStore) Add(_ context.Context, genre *models.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.byID {
		if g.Name == genre.Name {
			return models.Errorf(models.KindConflict, "genre %q already exists", genre.Name)
		}
	}
	s.nextID++
	genre.ID = s.nextID
	s.byID[genre.ID] = *genre
	return nil
}

func (s *GenreStore) List(_ context.Context) ([]models.Genre, error) {
	s.mu.RLock()
	out := make([]models.Genre, 0, len(s.byID))
	for _, g := range s.byID {
		out = append(out, g)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]models.User)}
}

func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email.String() == email {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (s *UserStore) Add(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email.String() == user.Email.String() {
			return models.Errorf(models.KindConflict, "email %s is already registered", user.Email)
		}
	}
	s.users[user.ID] = *user
	return nil
}

type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*models.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[uuid.UUID]*models.Profile)}
}

func (s *ProfileStore) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID].Clone(), nil
}

func (s *ProfileStore) Save(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile.Clone()
	return nil
}
