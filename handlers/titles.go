package handlers

import (
	"net/http"
	"strconv"

	"Reco/middleware"
	"Reco/models"
	"Reco/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultTop = 10
	maxTop     = 100
)

type titleResponse struct {
	*models.Title
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

func newTitleResponse(t *models.Title) titleResponse {
	return titleResponse{Title: t, AverageRating: t.AverageRating(), ReviewCount: len(t.Reviews)}
}

func newTitleList(titles []*models.Title) []titleResponse {
	out := make([]titleResponse, 0, len(titles))
	for _, t := range titles {
		out = append(out, newTitleResponse(t))
	}
	return out
}

func titleID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// typeQuery reads the optional ?type= filter. Empty means all types.
func typeQuery(r *http.Request) (models.TitleType, error) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		return "", nil
	}
	return models.ParseTitleType(raw)
}

func topQuery(r *http.Request) (int, error) {
	top, err := intQuery(r, "top", defaultTop)
	if err != nil {
		return 0, err
	}
	if top > maxTop {
		top = maxTop
	}
	return top, nil
}

// ListTitles lists the catalog, optionally filtered by ?type= or ?genre=.
func (h *Handler) ListTitles(w http.ResponseWriter, r *http.Request) {
	typ, err := typeQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var titles []*models.Title
	switch {
	case r.URL.Query().Get("genre") != "":
		genreID, perr := strconv.ParseInt(r.URL.Query().Get("genre"), 10, 64)
		if perr != nil {
			badRequest(w, "genre must be a numeric id")
			return
		}
		limit, perr := intQuery(r, "limit", 0)
		if perr != nil {
			badRequest(w, perr.Error())
			return
		}
		titles, err = h.Titles.SearchByGenre(r.Context(), genreID, limit)
	case typ != "":
		titles, err = h.Titles.ListByType(r.Context(), typ)
	default:
		titles, err = h.Titles.ListAll(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTitleList(titles))
}

func (h *Handler) loadTitle(w http.ResponseWriter, r *http.Request) (*models.Title, bool) {
	id, ok := titleID(r)
	if !ok {
		badRequest(w, "invalid title id")
		return nil, false
	}
	title, err := h.Titles.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if title == nil {
		h.writeError(w, r, models.NotFound("title %s not found", id))
		return nil, false
	}
	return title, true
}

func (h *Handler) GetTitle(w http.ResponseWriter, r *http.Request) {
	title, ok := h.loadTitle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newTitleResponse(title))
}

// TitleVideos proxies trailers and clips from the metadata source.
func (h *Handler) TitleVideos(w http.ResponseWriter, r *http.Request) {
	title, ok := h.loadTitle(w, r)
	if !ok {
		return
	}
	if h.Source == nil {
		writeJSON(w, http.StatusOK, []models.VideoRef{})
		return
	}
	videos, err := h.Source.GetVideos(r.Context(), title.ExternalID, title.Type.MediaKind())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

type createReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text" validate:"max=5000"`
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	id, ok := titleID(r)
	if !ok {
		badRequest(w, "invalid title id")
		return
	}

	var req createReviewRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	review, err := h.Reviews.Create(r.Context(), id, user.ID, req.Rating, req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *Handler) MyReviews(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	titles, err := h.Titles.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.ReviewHistory(titles, user.ID))
}

func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Genres.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}
