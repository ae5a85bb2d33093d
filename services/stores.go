package services

import (
	"context"

	"Reco/models"

	"github.com/google/uuid"
)

// Lookups return (nil, nil) when the record does not exist.

// TitleStore persists Title aggregates. Upsert replaces everything stored
// under title.ID, reviews and genre links included, with the passed object.
type TitleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Title, error)
	GetByExternalID(ctx context.Context, externalID int) (*models.Title, error)
	Upsert(ctx context.Context, title *models.Title) error
	ListAll(ctx context.Context) ([]*models.Title, error)
	ListByType(ctx context.Context, typ models.TitleType) ([]*models.Title, error)
	SearchByGenre(ctx context.Context, genreID int64, limit int) ([]*models.Title, error)
}

// GenreStore resolves genres by exact, case-sensitive name.
type GenreStore interface {
	GetByName(ctx context.Context, name string) (*models.Genre, error)
	GetByID(ctx context.Context, id int64) (*models.Genre, error)
	// Add stores genre and fills in its id.
	Add(ctx context.Context, genre *models.Genre) error
	List(ctx context.Context) ([]models.Genre, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Add(ctx context.Context, user *models.User) error
}

// ProfileStore keeps one profile per user. Save replaces the stored
// preference lists with the ones on profile.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error
}

// MetadataSource is the upstream catalog (TMDB).
type MetadataSource interface {
	GetDetails(ctx context.Context, externalID int, mediaKind string) (*models.Metadata, error)
	GetTrending(ctx context.Context, page int) ([]models.Metadata, error)
	GetVideos(ctx context.Context, externalID int, mediaKind string) ([]models.VideoRef, error)
}

// EventPublisher hands events to downstream consumers. Delivery is not
// awaited beyond the publish call itself.
type EventPublisher interface {
	Publish(ctx context.Context, event models.ReviewCreated) error
}
