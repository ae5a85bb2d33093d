package models

import (
	"time"

	"github.com/google/uuid"
)

type GenrePreference struct {
	GenreID int64  `json:"genre_id"`
	Name    string `json:"name"`
}

type PersonPreference struct {
	PersonID int64  `json:"person_id"`
	Name     string `json:"name"`
}

// Profile holds a user's ranking preferences. There is at most one per user.
type Profile struct {
	ID                uuid.UUID          `json:"id"`
	UserID            uuid.UUID          `json:"user_id"`
	CreatedAt         time.Time          `json:"created_at"`
	GenrePreferences  []GenrePreference  `json:"genre_preferences"`
	PersonPreferences []PersonPreference `json:"person_preferences"`
}

func NewProfile(userID uuid.UUID) *Profile {
	return &Profile{
		ID:                uuid.New(),
		UserID:            userID,
		CreatedAt:         time.Now().UTC(),
		GenrePreferences:  []GenrePreference{},
		PersonPreferences: []PersonPreference{},
	}
}

func (p *Profile) AddGenrePreference(pref GenrePreference) {
	p.GenrePreferences = append(p.GenrePreferences, pref)
}

func (p *Profile) AddPersonPreference(pref PersonPreference) {
	p.PersonPreferences = append(p.PersonPreferences, pref)
}

// ReplaceGenrePreferences clears the genre preferences and rebuilds them from
// prefs. Preferences are never merged incrementally.
func (p *Profile) ReplaceGenrePreferences(prefs []GenrePreference) {
	p.GenrePreferences = make([]GenrePreference, 0, len(prefs))
	for _, pref := range prefs {
		p.AddGenrePreference(pref)
	}
}

// PreferredGenreIDs returns the set of preferred genre ids.
func (p *Profile) PreferredGenreIDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(p.GenrePreferences))
	for _, g := range p.GenrePreferences {
		ids[g.GenreID] = struct{}{}
	}
	return ids
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.GenrePreferences = append([]GenrePreference{}, p.GenrePreferences...)
	c.PersonPreferences = append([]PersonPreference{}, p.PersonPreferences...)
	return &c
}
