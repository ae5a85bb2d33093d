package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Reco/models"
)

type GenreStore struct {
	db *sql.DB
}

func NewGenreStore(db *sql.DB) *GenreStore {
	return &GenreStore{db: db}
}

// GetByName matches the name exactly, case included.
func (s *GenreStore) GetByName(ctx context.Context, name string) (*models.Genre, error) {
	return s.getOne(ctx, "SELECT id, name FROM genres WHERE name = $1", name)
}

func (s *GenreStore) GetByID(ctx context.Context, id int64) (*models.Genre, error) {
	return s.getOne(ctx, "SELECT id, name FROM genres WHERE id = $1", id)
}

func (s *GenreStore) getOne(ctx context.Context, query string, arg any) (*models.Genre, error) {
	var g models.Genre
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load genre: %w", err)
	}
	return &g, nil
}

func (s *GenreStore) Add(ctx context.Context, genre *models.Genre) error {
	err := s.db.QueryRowContext(ctx, "INSERT INTO genres (name) VALUES ($1) RETURNING id", genre.Name).Scan(&genre.ID)
	return mapError(err, "failed to add genre")
}

func (s *GenreStore) List(ctx context.Context) ([]models.Genre, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM genres ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	genres := []models.Genre{}
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}
