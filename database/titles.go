package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Reco/models"

	"github.com/google/uuid"
)

const titleColumns = "t.id, t.external_id, t.type, t.name, t.synopsis, t.poster_url, t.release_date, t.created_at, t.updated_at"

type scanner interface {
	Scan(dest ...any) error
}

// TitleStore keeps Title aggregates in Postgres. Genre links and reviews
// live in child tables that Upsert rewrites as a whole.
type TitleStore struct {
	db *sql.DB
}

func NewTitleStore(db *sql.DB) *TitleStore {
	return &TitleStore{db: db}
}

func scanTitle(row scanner) (*models.Title, error) {
	var (
		t       models.Title
		typ     string
		release sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.ExternalID, &typ, &t.Name, &t.Synopsis, &t.PosterURL, &release, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Type = models.TitleType(typ)
	if release.Valid {
		t.ReleaseDate = release.Time.UTC()
	}
	t.Genres = []models.Genre{}
	t.Reviews = []models.Review{}
	return &t, nil
}

func (s *TitleStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Title, error) {
	return s.getOne(ctx, "SELECT "+titleColumns+" FROM titles t WHERE t.id = $1", id)
}

func (s *TitleStore) GetByExternalID(ctx context.Context, externalID int) (*models.Title, error) {
	return s.getOne(ctx, "SELECT "+titleColumns+" FROM titles t WHERE t.external_id = $1", externalID)
}

func (s *TitleStore) getOne(ctx context.Context, query string, arg any) (*models.Title, error) {
	title, err := scanTitle(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load title: %w", err)
	}
	if err := s.loadChildren(ctx, title); err != nil {
		return nil, err
	}
	return title, nil
}

func (s *TitleStore) ListAll(ctx context.Context) ([]*models.Title, error) {
	return s.list(ctx, "SELECT "+titleColumns+" FROM titles t ORDER BY t.name, t.id")
}

func (s *TitleStore) ListByType(ctx context.Context, typ models.TitleType) ([]*models.Title, error) {
	return s.list(ctx, "SELECT "+titleColumns+" FROM titles t WHERE t.type = $1 ORDER BY t.name, t.id", string(typ))
}

// SearchByGenre returns titles linked to genreID. A limit of zero or less
// means no limit.
func (s *TitleStore) SearchByGenre(ctx context.Context, genreID int64, limit int) ([]*models.Title, error) {
	var max any
	if limit > 0 {
		max = limit
	}
	return s.list(ctx, `SELECT `+titleColumns+` FROM titles t
		JOIN title_genres tg ON tg.title_id = t.id
		WHERE tg.genre_id = $1
		ORDER BY t.name, t.id
		LIMIT $2`, genreID, max)
}

func (s *TitleStore) list(ctx context.Context, query string, args ...any) ([]*models.Title, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}

	titles := []*models.Title{}
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	rows.Close()

	for _, t := range titles {
		if err := s.loadChildren(ctx, t); err != nil {
			return nil, err
		}
	}
	return titles, nil
}

func (s *TitleStore) loadChildren(ctx context.Context, t *models.Title) error {
	genres, err := s.db.QueryContext(ctx, `SELECT g.id, g.name FROM title_genres tg
		JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = $1 ORDER BY tg.position`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load genres for title %s: %w", t.ID, err)
	}
	defer genres.Close()
	for genres.Next() {
		var g models.Genre
		if err := genres.Scan(&g.ID, &g.Name); err != nil {
			return fmt.Errorf("failed to scan genre: %w", err)
		}
		t.Genres = append(t.Genres, g)
	}
	if err := genres.Err(); err != nil {
		return fmt.Errorf("failed to load genres for title %s: %w", t.ID, err)
	}

	reviews, err := s.db.QueryContext(ctx, `SELECT id, user_id, rating, text, created_at FROM reviews
		WHERE title_id = $1 ORDER BY created_at, id`, t.ID)
	if err != nil {
		return fmt.Errorf("failed to load reviews for title %s: %w", t.ID, err)
	}
	defer reviews.Close()
	for reviews.Next() {
		var (
			r      models.Review
			rating int
		)
		if err := reviews.Scan(&r.ID, &r.UserID, &rating, &r.Text, &r.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan review: %w", err)
		}
		if r.Rating, err = models.NewRating(rating); err != nil {
			return fmt.Errorf("stored review %s: %w", r.ID, err)
		}
		r.TitleID = t.ID
		r.CreatedAt = r.CreatedAt.UTC()
		t.Reviews = append(t.Reviews, r)
	}
	if err := reviews.Err(); err != nil {
		return fmt.Errorf("failed to load reviews for title %s: %w", t.ID, err)
	}
	return nil
}

// Upsert writes title and replaces its genre links with the ones it
// carries. Reviews are append-only: rows already stored are left alone, so a
// stale copy written by another process never drops a review. Writers of
// one title are serialized by a transaction-scoped advisory lock.
func (s *TitleStore) Upsert(ctx context.Context, title *models.Title) error {
	var release any
	if title.HasReleaseDate() {
		release = title.ReleaseDate
	}

	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", title.ID.String()); err != nil {
			return fmt.Errorf("failed to lock title %s: %w", title.ID, err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO titles (id, external_id, type, name, synopsis, poster_url, release_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				external_id = EXCLUDED.external_id,
				type = EXCLUDED.type,
				name = EXCLUDED.name,
				synopsis = EXCLUDED.synopsis,
				poster_url = EXCLUDED.poster_url,
				release_date = EXCLUDED.release_date,
				updated_at = EXCLUDED.updated_at`,
			title.ID, title.ExternalID, string(title.Type), title.Name, title.Synopsis, title.PosterURL,
			release, title.CreatedAt, title.UpdatedAt)
		if err != nil {
			return mapError(err, "failed to save title")
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM title_genres WHERE title_id = $1", title.ID); err != nil {
			return mapError(err, "failed to clear title genres")
		}
		for i, g := range title.Genres {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO title_genres (title_id, genre_id, position) VALUES ($1, $2, $3)",
				title.ID, g.ID, i); err != nil {
				return mapError(err, "failed to link genre")
			}
		}

		for _, r := range title.Reviews {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO reviews (id, title_id, user_id, rating, text, created_at) VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (id) DO NOTHING`,
				r.ID, title.ID, r.UserID, r.Rating.Int(), r.Text, r.CreatedAt); err != nil {
				return mapError(err, "failed to save review")
			}
		}
		return nil
	})
}
