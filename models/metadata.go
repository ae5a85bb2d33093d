package models

import "time"

// Metadata is a title as described by the external metadata source.
type Metadata struct {
	ExternalID  int       `json:"id"`
	Name        string    `json:"title"`
	Overview    string    `json:"overview,omitempty"`
	PosterPath  string    `json:"poster_path,omitempty"`
	ReleaseDate time.Time `json:"release_date"`
	Genres      []string  `json:"genres"`
	MediaKind   string    `json:"media_type"`
}

// VideoRef points at a trailer or clip hosted by a third-party site.
type VideoRef struct {
	Key  string `json:"key"`
	Site string `json:"site"`
	Kind string `json:"type"`
	Name string `json:"name,omitempty"`
}
