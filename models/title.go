package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TitleType string

const (
	TitleMovie  TitleType = "movie"
	TitleSeries TitleType = "series"
)

// ParseTitleType maps a media kind as reported by the metadata source or an
// API caller to a TitleType.
func ParseTitleType(kind string) (TitleType, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "movie", "movies", "film":
		return TitleMovie, nil
	case "tv", "series", "show", "shows":
		return TitleSeries, nil
	}
	return "", Errorf(KindValidation, "unknown media kind %q", kind)
}

// MediaKind is the name the metadata source uses for this type.
func (t TitleType) MediaKind() string {
	if t == TitleSeries {
		return "tv"
	}
	return "movie"
}

// Title is the aggregate root for a catalog entry. Genres and reviews are
// owned by value; reviews point back to their title by id only.
type Title struct {
	ID          uuid.UUID `json:"id"`
	ExternalID  int       `json:"external_id"`
	Type        TitleType `json:"type"`
	Name        string    `json:"name"`
	Synopsis    string    `json:"synopsis,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	ReleaseDate time.Time `json:"release_date"`
	Genres      []Genre   `json:"genres"`
	Reviews     []Review  `json:"reviews"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTitle creates a title with a fresh id. The release date starts unset.
func NewTitle(externalID int, typ TitleType, name string) (*Title, error) {
	if strings.TrimSpace(name) == "" {
		return nil, Errorf(KindValidation, "title name cannot be empty")
	}
	if typ != TitleMovie && typ != TitleSeries {
		return nil, Errorf(KindValidation, "unknown title type %q", typ)
	}
	now := time.Now().UTC()
	return &Title{
		ID:         uuid.New(),
		ExternalID: externalID,
		Type:       typ,
		Name:       name,
		Genres:     []Genre{},
		Reviews:    []Review{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (t *Title) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return Errorf(KindValidation, "title name cannot be empty")
	}
	t.Name = name
	return nil
}

func (t *Title) SetSynopsis(s string) { t.Synopsis = s }

func (t *Title) SetPoster(url string) { t.PosterURL = url }

func (t *Title) SetType(typ TitleType) { t.Type = typ }

// SetReleaseDate stores date in UTC. A zero date leaves the current value alone.
func (t *Title) SetReleaseDate(date time.Time) {
	if date.IsZero() {
		return
	}
	t.ReleaseDate = date.UTC()
}

func (t *Title) HasReleaseDate() bool {
	return !t.ReleaseDate.IsZero()
}

// AddGenre appends g. Callers are responsible for de-duplication.
func (t *Title) AddGenre(g Genre) {
	t.Genres = append(t.Genres, g)
}

// HasGenreNamed reports whether a genre with exactly this name is attached.
func (t *Title) HasGenreNamed(name string) bool {
	for _, g := range t.Genres {
		if g.Name == name {
			return true
		}
	}
	return false
}

func (t *Title) GenreNames() []string {
	names := make([]string, 0, len(t.Genres))
	for _, g := range t.Genres {
		names = append(names, g.Name)
	}
	return names
}

// AddReview attaches review to the aggregate. It only checks that the review
// belongs to this title; the one-review-per-user rule is enforced by the
// review coordinator in services.
func (t *Title) AddReview(review Review) error {
	if review.TitleID != t.ID {
		return Errorf(KindIntegrity, "review %s belongs to title %s, not %s", review.ID, review.TitleID, t.ID)
	}
	t.Reviews = append(t.Reviews, review)
	return nil
}

// ReviewBy returns the review written by userID, if any.
func (t *Title) ReviewBy(userID uuid.UUID) (Review, bool) {
	for _, r := range t.Reviews {
		if r.UserID == userID {
			return r, true
		}
	}
	return Review{}, false
}

// AverageRating is the mean rating over all reviews, or 0 with none.
func (t *Title) AverageRating() float64 {
	if len(t.Reviews) == 0 {
		return 0.0
	}
	sum := 0
	for _, r := range t.Reviews {
		sum += r.Rating.Int()
	}
	return float64(sum) / float64(len(t.Reviews))
}

// Clone returns a deep copy of the aggregate.
func (t *Title) Clone() *Title {
	if t == nil {
		return nil
	}
	c := *t
	c.Genres = append([]Genre(nil), t.Genres...)
	c.Reviews = append([]Review(nil), t.Reviews...)
	if c.Genres == nil {
		c.Genres = []Genre{}
	}
	if c.Reviews == nil {
		c.Reviews = []Review{}
	}
	return &c
}
