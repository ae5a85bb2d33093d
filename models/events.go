package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewCreated is emitted once a new review has been persisted.
type ReviewCreated struct {
	ReviewID  uuid.UUID `json:"review_id"`
	TitleID   uuid.UUID `json:"title_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

func NewReviewCreated(r Review) ReviewCreated {
	return ReviewCreated{
		ReviewID:  r.ID,
		TitleID:   r.TitleID,
		UserID:    r.UserID,
		Rating:    r.Rating.Int(),
		CreatedAt: r.CreatedAt,
	}
}
