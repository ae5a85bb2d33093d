package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Reco/models"

	"github.com/google/uuid"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = "id, email, password_hash, display_name, is_admin, created_at, updated_at"

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user  models.User
		email string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user.Email, err = models.NewEmail(email); err != nil {
		return nil, fmt.Errorf("stored user %s: %w", user.ID, err)
	}
	return &user, nil
}

// Add inserts user. A taken email is a Conflict error.
func (s *UserStore) Add(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		user.ID,
		user.Email.String(),
		user.PasswordHash,
		user.DisplayName,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapError(err, "failed to add user")
}
