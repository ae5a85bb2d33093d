package handlers

import (
	"net/http"

	"Reco/services"

	"github.com/google/uuid"
)

type importRequest struct {
	Items []services.ImportRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

type trendingRequest struct {
	Page int `json:"page" validate:"gte=0,lte=500"`
}

type importResultResponse struct {
	ExternalID int       `json:"external_id"`
	MediaKind  string    `json:"media_kind,omitempty"`
	TitleID    uuid.UUID `json:"title_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Created    bool      `json:"created"`
	Error      string    `json:"error,omitempty"`
}

type importResponse struct {
	Imported int                    `json:"imported"`
	Failed   int                    `json:"failed"`
	Results  []importResultResponse `json:"results"`
}

func newImportResponse(results []services.ImportResult) importResponse {
	resp := importResponse{Results: make([]importResultResponse, 0, len(results))}
	for _, res := range results {
		item := importResultResponse{
			ExternalID: res.ExternalID,
			MediaKind:  res.MediaKind,
			TitleID:    res.TitleID,
			Name:       res.Name,
			Created:    res.Created,
		}
		if res.OK() {
			resp.Imported++
		} else {
			resp.Failed++
			item.Error = res.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	return resp
}

// Import pulls the requested titles from the metadata source. Per-item
// failures are reported in the body; the request itself still succeeds.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	results := h.Importer.ImportBatch(r.Context(), req.Items)
	writeJSON(w, http.StatusOK, newImportResponse(results))
}

func (h *Handler) ImportTrending(w http.ResponseWriter, r *http.Request) {
	req := trendingRequest{Page: 1}
	if r.ContentLength != 0 {
		if err := decode(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	results, err := h.Importer.ImportTrending(r.Context(), req.Page)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newImportResponse(results))
}
