package models

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRatingBounds(t *testing.T) {
	for v := MinRating; v <= MaxRating; v++ {
		r, err := NewRating(v)
		require.NoError(t, err)
		assert.Equal(t, v, r.Int())
	}

	for _, v := range []int{-5, 0, 11, 100} {
		_, err := NewRating(v)
		require.Error(t, err, "rating %d", v)
		assert.True(t, errors.Is(err, ErrRange))
		assert.True(t, errors.Is(err, ErrValidation), "range errors are validation errors")
		assert.False(t, errors.Is(err, ErrConflict))
	}
}

func TestRatingMarshalsAsNumber(t *testing.T) {
	r, err := NewRating(8)
	require.NoError(t, err)

	out, err := json.Marshal(struct {
		Rating Rating `json:"rating"`
	}{r})
	require.NoError(t, err)
	assert.JSONEq(t, `{"rating":8}`, string(out))
}

func TestNewReviewRequiresRating(t *testing.T) {
	_, err := NewReview(uuid.New(), uuid.New(), Rating{}, "")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestNewEmail(t *testing.T) {
	e, err := NewEmail("  ana@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", e.String())

	for _, bad := range []string{"", "  ", "no-at-sign"} {
		_, err := NewEmail(bad)
		assert.True(t, errors.Is(err, ErrValidation), bad)
	}
}

func TestNewUserValidates(t *testing.T) {
	_, err := NewUser("", "hash", "")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = NewUser("ana@example.com", " ", "")
	assert.True(t, errors.Is(err, ErrValidation))

	u, err := NewUser("ana@example.com", "hash", " Ana ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.DisplayName)
	assert.False(t, u.IsAdmin)
}

func TestProfileReplaceGenrePreferences(t *testing.T) {
	p := NewProfile(uuid.New())
	p.AddGenrePreference(GenrePreference{GenreID: 1, Name: "Drama"})
	p.AddGenrePreference(GenrePreference{GenreID: 2, Name: "Crime"})

	p.ReplaceGenrePreferences([]GenrePreference{{GenreID: 3, Name: "Action"}})

	assert.Equal(t, []GenrePreference{{GenreID: 3, Name: "Action"}}, p.GenrePreferences)
	_, ok := p.PreferredGenreIDs()[3]
	assert.True(t, ok)
	_, ok = p.PreferredGenreIDs()[1]
	assert.False(t, ok)
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindNotFound, "title lookup", cause)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "title lookup: boom", err.Error())
	assert.Equal(t, "not_found", err.ErrorKind())
}

func TestNewReviewCreatedCopiesReview(t *testing.T) {
	r, err := NewRating(9)
	require.NoError(t, err)
	review, err := NewReview(uuid.New(), uuid.New(), r, "great")
	require.NoError(t, err)

	evt := NewReviewCreated(review)
	assert.Equal(t, review.ID, evt.ReviewID)
	assert.Equal(t, review.TitleID, evt.TitleID)
	assert.Equal(t, review.UserID, evt.UserID)
	assert.Equal(t, 9, evt.Rating)
	assert.Equal(t, review.CreatedAt, evt.CreatedAt)
}
