package handlers

import (
	"net/http"

	"Reco/middleware"
	"Reco/models"
)

func rankingParams(w http.ResponseWriter, r *http.Request) (models.TitleType, int, bool) {
	typ, err := typeQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return "", 0, false
	}
	top, err := topQuery(r)
	if err != nil {
		badRequest(w, err.Error())
		return "", 0, false
	}
	return typ, top, true
}

// TopRated ranks the catalog by average rating.
func (h *Handler) TopRated(w http.ResponseWriter, r *http.Request) {
	typ, top, ok := rankingParams(w, r)
	if !ok {
		return
	}
	titles, err := h.Recommender.TopRated(r.Context(), typ, top)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTitleList(titles))
}

// MyRecommendations ranks the catalog against the caller's genre preferences.
func (h *Handler) MyRecommendations(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	typ, top, ok := rankingParams(w, r)
	if !ok {
		return
	}
	titles, err := h.Recommender.ForUser(r.Context(), user.ID, typ, top)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTitleList(titles))
}

type preferencesRequest struct {
	GenreIDs []int64 `json:"genre_ids" validate:"max=50,dive,gt=0"`
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	profile, err := h.Preferences.Profile(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// SavePreferences replaces the caller's genre preferences.
func (h *Handler) SavePreferences(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	var req preferencesRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	profile, err := h.Preferences.SaveGenrePreferences(r.Context(), user.ID, req.GenreIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
