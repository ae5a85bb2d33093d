package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"Reco/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// ErrInvalidCredentials is returned for any failed login so callers cannot
// tell unknown emails from wrong passwords.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	users UserStore
	cost  int
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users, cost: bcrypt.DefaultCost}
}

// Register creates a user. A taken email is a Conflict error.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	if len(password) < minPasswordLength {
		return nil, models.Errorf(models.KindValidation, "password must be at least %d characters", minPasswordLength)
	}
	addr, err := models.NewEmail(email)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, addr.String())
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing != nil {
		return nil, models.Errorf(models.KindConflict, "email %s is already registered", addr)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := models.NewUser(addr.String(), string(hash), displayName)
	if err != nil {
		return nil, err
	}
	if err := s.users.Add(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the admin account on first start. Without a password
// nothing is seeded; an existing account is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	if password == "" {
		return nil, nil
	}
	addr, err := models.NewEmail(email)
	if err != nil {
		return nil, fmt.Errorf("invalid admin email: %w", err)
	}

	existing, err := s.users.GetByEmail(ctx, addr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing admin user: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	admin, err := models.NewUser(addr.String(), string(hash), "admin")
	if err != nil {
		return nil, err
	}
	admin.IsAdmin = true
	if err := s.users.Add(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}
	return admin, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return nil, models.NotFound("user %s not found", id)
	}
	return user, nil
}
