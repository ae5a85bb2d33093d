package database

import (
	"context"
	"fmt"
)

var migrations = []struct {
	name string
	sql  string
}{
	{"users", `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`},
	{"titles", `
	CREATE TABLE IF NOT EXISTS titles (
		id UUID PRIMARY KEY,
		external_id INTEGER UNIQUE NOT NULL,
		type VARCHAR(16) NOT NULL,
		name TEXT NOT NULL,
		synopsis TEXT NOT NULL DEFAULT '',
		poster_url TEXT NOT NULL DEFAULT '',
		release_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_titles_type ON titles(type);`},
	{"genres", `
	CREATE TABLE IF NOT EXISTS genres (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) UNIQUE NOT NULL
	);
	CREATE TABLE IF NOT EXISTS title_genres (
		title_id UUID NOT NULL REFERENCES titles(id) ON DELETE CASCADE,
		genre_id BIGINT NOT NULL REFERENCES genres(id),
		position INTEGER NOT NULL,
		PRIMARY KEY (title_id, genre_id)
	);
	CREATE INDEX IF NOT EXISTS idx_title_genres_genre ON title_genres(genre_id);`},
	{"reviews", `
	CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY,
		title_id UUID NOT NULL REFERENCES titles(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id),
		rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 10),
		text TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (title_id, user_id)
	);`},
	{"profiles", `
	CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		user_id UUID UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS genre_preferences (
		profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		genre_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (profile_id, genre_id)
	);
	CREATE TABLE IF NOT EXISTS person_preferences (
		profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		person_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (profile_id, person_id)
	);`},
}

// RunMigrations creates any missing tables. Every statement is idempotent.
func RunMigrations(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := DB.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to run %s migration: %w", m.name, err)
		}
	}
	return nil
}
