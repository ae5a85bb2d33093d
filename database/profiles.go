package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Reco/models"

	"github.com/google/uuid"
)

type ProfileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p := models.Profile{UserID: userID}
	err := s.db.QueryRowContext(ctx, "SELECT id, created_at FROM profiles WHERE user_id = $1", userID).Scan(&p.ID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	p.GenrePreferences = []models.GenrePreference{}
	p.PersonPreferences = []models.PersonPreference{}

	genres, err := s.db.QueryContext(ctx, "SELECT genre_id, name FROM genre_preferences WHERE profile_id = $1 ORDER BY position", p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load genre preferences: %w", err)
	}
	defer genres.Close()
	for genres.Next() {
		var g models.GenrePreference
		if err := genres.Scan(&g.GenreID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan genre preference: %w", err)
		}
		p.GenrePreferences = append(p.GenrePreferences, g)
	}
	if err := genres.Err(); err != nil {
		return nil, err
	}

	people, err := s.db.QueryContext(ctx, "SELECT person_id, name FROM person_preferences WHERE profile_id = $1 ORDER BY position", p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load person preferences: %w", err)
	}
	defer people.Close()
	for people.Next() {
		var pp models.PersonPreference
		if err := people.Scan(&pp.PersonID, &pp.Name); err != nil {
			return nil, fmt.Errorf("failed to scan person preference: %w", err)
		}
		p.PersonPreferences = append(p.PersonPreferences, pp)
	}
	return &p, people.Err()
}

// Save writes the profile and replaces both preference lists.
func (s *ProfileStore) Save(ctx context.Context, profile *models.Profile) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO profiles (id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING",
			profile.ID, profile.UserID, profile.CreatedAt)
		if err != nil {
			return mapError(err, "failed to save profile")
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM genre_preferences WHERE profile_id = $1", profile.ID); err != nil {
			return mapError(err, "failed to clear genre preferences")
		}
		for i, g := range profile.GenrePreferences {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO genre_preferences (profile_id, genre_id, name, position) VALUES ($1, $2, $3, $4)",
				profile.ID, g.GenreID, g.Name, i); err != nil {
				return mapError(err, "failed to save genre preference")
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM person_preferences WHERE profile_id = $1", profile.ID); err != nil {
			return mapError(err, "failed to clear person preferences")
		}
		for i, pp := range profile.PersonPreferences {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO person_preferences (profile_id, person_id, name, position) VALUES ($1, $2, $3, $4)",
				profile.ID, pp.PersonID, pp.Name, i); err != nil {
				return mapError(err, "failed to save person preference")
			}
		}
		return nil
	})
}
