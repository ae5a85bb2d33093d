package models

import "strings"

// Genre names are unique across the store and matched case-sensitively.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewGenre returns an unsaved genre; the store assigns the id.
func NewGenre(name string) (Genre, error) {
	if strings.TrimSpace(name) == "" {
		return Genre{}, Errorf(KindValidation, "genre name cannot be empty")
	}
	return Genre{Name: name}, nil
}
