package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID        uuid.UUID `json:"id"`
	TitleID   uuid.UUID `json:"title_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    Rating    `json:"rating"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewReview builds a review with a fresh id, stamped with the current time.
func NewReview(titleID, userID uuid.UUID, rating Rating, text string) (Review, error) {
	if rating.IsZero() {
		return Review{}, Errorf(KindValidation, "review requires a rating")
	}
	return Review{
		ID:        uuid.New(),
		TitleID:   titleID,
		UserID:    userID,
		Rating:    rating,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}
