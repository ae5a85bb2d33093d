package services

import (
	"context"
	"fmt"

	"Reco/models"

	"github.com/google/uuid"
)

type PreferenceService struct {
	profiles ProfileStore
	genres   GenreStore
}

func NewPreferenceService(profiles ProfileStore, genres GenreStore) *PreferenceService {
	return &PreferenceService{profiles: profiles, genres: genres}
}

// SaveGenrePreferences replaces the user's genre preferences with genreIDs.
// The profile is created on first save. Unknown ids are skipped and repeated
// ids count once.
func (s *PreferenceService) SaveGenrePreferences(ctx context.Context, userID uuid.UUID, genreIDs []int64) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		profile = models.NewProfile(userID)
	}

	prefs := make([]models.GenrePreference, 0, len(genreIDs))
	seen := make(map[int64]bool, len(genreIDs))
	for _, id := range genreIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		genre, err := s.genres.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load genre %d: %w", id, err)
		}
		if genre == nil {
			continue
		}
		prefs = append(prefs, models.GenrePreference{GenreID: genre.ID, Name: genre.Name})
	}
	profile.ReplaceGenrePreferences(prefs)

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil
}

// Profile returns the user's profile, or an empty one when none was saved yet.
func (s *PreferenceService) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return models.NewProfile(userID), nil
	}
	return profile, nil
}
