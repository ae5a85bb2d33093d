package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"Reco/models"
	sharedhttp "Reco/shared/http"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultTMDBBaseURL  = "https://api.themoviedb.org/3"
	tmdbImageBaseURL    = "https://image.tmdb.org/t/p/w500"
	tmdbDateLayout      = "2006-01-02"
	defaultTMDBRate     = 20
	defaultTMDBFailures = 5
	tmdbGenreTTL        = 24 * time.Hour
)

// TMDBClient is the MetadataSource backed by The Movie Database API.
// Requests are paced by a token bucket and guarded by a circuit breaker.
type TMDBClient struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[struct{}]

	genreMu      sync.Mutex
	genreNames   map[int]string
	genreFetched time.Time
}

var _ MetadataSource = (*TMDBClient)(nil)

type TMDBOption func(*TMDBClient)

func WithHTTPClient(client *http.Client) TMDBOption {
	return func(c *TMDBClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRateLimit caps requests per second. Zero or less disables pacing.
func WithRateLimit(perSecond float64) TMDBOption {
	return func(c *TMDBClient) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBreaker opens the circuit after failures consecutive errors and keeps
// it open for timeout.
func WithBreaker(failures uint32, timeout time.Duration) TMDBOption {
	return func(c *TMDBClient) {
		c.breaker = newTMDBBreaker(failures, timeout)
	}
}

func NewTMDBClient(apiKey, baseURL, language string, opts ...TMDBOption) (*TMDBClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultTMDBBaseURL
	}
	c := &TMDBClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultTMDBRate), defaultTMDBRate),
		breaker:    newTMDBBreaker(defaultTMDBFailures, 30*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newTMDBBreaker(failures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[struct{}] {
	if failures == 0 {
		failures = defaultTMDBFailures
	}
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A missing title is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || isStatus(err, http.StatusNotFound)
		},
	})
}

func isStatus(err error, code int) bool {
	var se *sharedhttp.StatusError
	return errors.As(err, &se) && se.Code == code
}

type tmdbGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tmdbTitle struct {
	ID           int         `json:"id"`
	Title        string      `json:"title"`
	Name         string      `json:"name"`
	Overview     string      `json:"overview"`
	PosterPath   string      `json:"poster_path"`
	ReleaseDate  string      `json:"release_date"`
	FirstAirDate string      `json:"first_air_date"`
	MediaType    string      `json:"media_type"`
	Genres       []tmdbGenre `json:"genres"`
	GenreIDs     []int       `json:"genre_ids"`
}

type tmdbPage struct {
	Page    int         `json:"page"`
	Results []tmdbTitle `json:"results"`
}

type tmdbGenreList struct {
	Genres []tmdbGenre `json:"genres"`
}

type tmdbVideos struct {
	Results []struct {
		Key  string `json:"key"`
		Site string `json:"site"`
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"results"`
}

// GetDetails fetches one movie or tv show. An unknown id is a NotFound error.
func (c *TMDBClient) GetDetails(ctx context.Context, externalID int, mediaKind string) (*models.Metadata, error) {
	kind, err := tmdbKind(mediaKind)
	if err != nil {
		return nil, err
	}

	var payload tmdbTitle
	path := fmt.Sprintf("/%s/%d", kind, externalID)
	if err := c.get(ctx, "details", path, nil, &payload); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, models.NotFound("tmdb has no %s with id %d", kind, externalID)
		}
		return nil, err
	}

	md := toMetadata(payload, kind)
	for _, g := range payload.Genres {
		md.Genres = append(md.Genres, g.Name)
	}
	return &md, nil
}

// GetTrending returns the weekly trending movies and shows. People and other
// media types are dropped.
func (c *TMDBClient) GetTrending(ctx context.Context, page int) ([]models.Metadata, error) {
	if page < 1 {
		page = 1
	}
	var payload tmdbPage
	if err := c.get(ctx, "trending", "/trending/all/week", map[string]string{"page": strconv.Itoa(page)}, &payload); err != nil {
		return nil, err
	}

	names, err := c.genres(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Metadata, 0, len(payload.Results))
	for _, item := range payload.Results {
		if item.MediaType != "movie" && item.MediaType != "tv" {
			continue
		}
		md := toMetadata(item, item.MediaType)
		for _, id := range item.GenreIDs {
			if name, ok := names[id]; ok {
				md.Genres = append(md.Genres, name)
			}
		}
		out = append(out, md)
	}
	return out, nil
}

// genres maps TMDB genre ids to names across movies and tv. Trending
// results only carry ids. The map is cached for a day; failed fetches are
// retried on the next call.
func (c *TMDBClient) genres(ctx context.Context) (map[int]string, error) {
	c.genreMu.Lock()
	defer c.genreMu.Unlock()
	if c.genreNames != nil && time.Since(c.genreFetched) < tmdbGenreTTL {
		return c.genreNames, nil
	}

	names := make(map[int]string)
	for _, kind := range []string{"movie", "tv"} {
		var list tmdbGenreList
		if err := c.get(ctx, "genres", "/genre/"+kind+"/list", nil, &list); err != nil {
			return nil, err
		}
		for _, g := range list.Genres {
			names[g.ID] = g.Name
		}
	}
	c.genreNames = names
	c.genreFetched = time.Now()
	return names, nil
}

func (c *TMDBClient) GetVideos(ctx context.Context, externalID int, mediaKind string) ([]models.VideoRef, error) {
	kind, err := tmdbKind(mediaKind)
	if err != nil {
		return nil, err
	}

	var payload tmdbVideos
	path := fmt.Sprintf("/%s/%d/videos", kind, externalID)
	if err := c.get(ctx, "videos", path, nil, &payload); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, models.NotFound("tmdb has no %s with id %d", kind, externalID)
		}
		return nil, err
	}

	videos := make([]models.VideoRef, 0, len(payload.Results))
	for _, v := range payload.Results {
		videos = append(videos, models.VideoRef{Key: v.Key, Site: v.Site, Kind: v.Type, Name: v.Name})
	}
	return videos, nil
}

func (c *TMDBClient) get(ctx context.Context, endpoint, path string, params map[string]string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("tmdb rate limit wait: %w", err)
	}

	query := map[string]string{
		"api_key":  c.apiKey,
		"language": c.language,
	}
	for k, v := range params {
		query[k] = v
	}
	apiURL := sharedhttp.BuildQueryURL(c.baseURL+path, query)

	_, err := c.breaker.Execute(func() (struct{}, error) {
		resp, err := sharedhttp.MakeRequest(ctx, apiURL, c.httpClient)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, sharedhttp.DecodeJSONResponse(resp, target)
	})

	switch {
	case err == nil:
		tmdbRequests.WithLabelValues(endpoint, "ok").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		tmdbRequests.WithLabelValues(endpoint, "breaker_open").Inc()
		return fmt.Errorf("tmdb unavailable: %w", err)
	default:
		tmdbRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("tmdb %s request: %w", endpoint, err)
	}
	return nil
}

func tmdbKind(mediaKind string) (string, error) {
	if strings.TrimSpace(mediaKind) == "" {
		return "movie", nil
	}
	typ, err := models.ParseTitleType(mediaKind)
	if err != nil {
		return "", err
	}
	return typ.MediaKind(), nil
}

func toMetadata(t tmdbTitle, kind string) models.Metadata {
	name := t.Title
	if name == "" {
		name = t.Name
	}
	date := t.ReleaseDate
	if date == "" {
		date = t.FirstAirDate
	}

	md := models.Metadata{
		ExternalID: t.ID,
		Name:       name,
		Overview:   t.Overview,
		MediaKind:  kind,
		Genres:     []string{},
	}
	if t.PosterPath != "" {
		md.PosterPath = tmdbImageBaseURL + t.PosterPath
	}
	if parsed, err := time.Parse(tmdbDateLayout, date); err == nil {
		md.ReleaseDate = parsed.UTC()
	}
	return md
}
