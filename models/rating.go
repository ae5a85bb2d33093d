package models

import (
	"strconv"

	"github.com/goccy/go-json"
)

const (
	MinRating = 1
	MaxRating = 10
)

// Rating is a review score in [MinRating, MaxRating]. The zero value means
// "no rating" and is never attached to a review.
type Rating struct {
	value int
}

// NewRating validates v and returns it as a Rating.
func NewRating(v int) (Rating, error) {
	if v < MinRating || v > MaxRating {
		return Rating{}, Errorf(KindRange, "rating must be between %d and %d, got %d", MinRating, MaxRating, v)
	}
	return Rating{value: v}, nil
}

func (r Rating) Int() int {
	return r.value
}

func (r Rating) IsZero() bool {
	return r.value == 0
}

func (r Rating) String() string {
	return strconv.Itoa(r.value)
}

func (r Rating) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}
