package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"Reco/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTMDB(t *testing.T, handler http.HandlerFunc, opts ...TMDBOption) *TMDBClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]TMDBOption{WithRateLimit(0)}, opts...)
	client, err := NewTMDBClient("key", server.URL, "en-US", opts...)
	require.NoError(t, err)
	return client
}

func TestNewTMDBClientRequiresAPIKey(t *testing.T) {
	_, err := NewTMDBClient("  ", DefaultTMDBBaseURL, "en-US")
	assert.Error(t, err)
}

func TestTMDBGetDetailsMovie(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/949", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":949,"title":"Heat","overview":"Obsessive master thief","poster_path":"/heat.jpg","release_date":"1995-12-15","genres":[{"id":80,"name":"Crime"},{"id":18,"name":"Drama"}]}`))
	})

	md, err := client.GetDetails(context.Background(), 949, "movie")
	require.NoError(t, err)
	assert.Equal(t, 949, md.ExternalID)
	assert.Equal(t, "Heat", md.Name)
	assert.Equal(t, "movie", md.MediaKind)
	assert.Equal(t, tmdbImageBaseURL+"/heat.jpg", md.PosterPath)
	assert.Equal(t, time.Date(1995, 12, 15, 0, 0, 0, 0, time.UTC), md.ReleaseDate)
	assert.Equal(t, []string{"Crime", "Drama"}, md.Genres)
}

func TestTMDBGetDetailsSeriesUsesTVFields(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tv/1399", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":1399,"name":"Game of Thrones","first_air_date":"2011-04-17","genres":[]}`))
	})

	md, err := client.GetDetails(context.Background(), 1399, "series")
	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", md.Name)
	assert.Equal(t, "tv", md.MediaKind)
	assert.Equal(t, 2011, md.ReleaseDate.Year())
	assert.Empty(t, md.PosterPath)
}

func TestTMDBNotFoundDoesNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34}`))
	}, WithBreaker(2, time.Minute))

	for range 4 {
		_, err := client.GetDetails(context.Background(), 1, "movie")
		assert.ErrorIs(t, err, models.ErrNotFound)
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestTMDBBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithBreaker(2, time.Minute))

	for range 4 {
		_, err := client.GetDetails(context.Background(), 1, "movie")
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())

	_, err := client.GetDetails(context.Background(), 1, "movie")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tmdb unavailable")
}

func TestTMDBErrorsDoNotLeakAPIKey(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := client.GetDetails(context.Background(), 1, "movie")
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "key"), err.Error())
}

func TestTMDBTransportErrorsDoNotLeakAPIKey(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, err := NewTMDBClient("SECRETKEY123", server.URL, "en-US", WithRateLimit(0))
	require.NoError(t, err)

	_, err = client.GetDetails(context.Background(), 1, "movie")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRETKEY123")
	assert.NotContains(t, err.Error(), "api_key")
	assert.Contains(t, err.Error(), "/movie/1")
}

func TestTMDBGetTrendingCachesGenreLists(t *testing.T) {
	var genreCalls atomic.Int32
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trending/all/week":
			_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Film","media_type":"movie","genre_ids":[28]}]}`))
		case "/genre/movie/list":
			genreCalls.Add(1)
			_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"}]}`))
		case "/genre/tv/list":
			genreCalls.Add(1)
			_, _ = w.Write([]byte(`{"genres":[]}`))
		}
	})

	for page := 1; page <= 3; page++ {
		items, err := client.GetTrending(context.Background(), page)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, []string{"Action"}, items[0].Genres)
	}
	assert.Equal(t, int32(2), genreCalls.Load())
}

func TestTMDBGetTrendingKeepsMoviesAndShows(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trending/all/week":
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			_, _ = w.Write([]byte(`{"page":2,"results":[
				{"id":1,"title":"Film","media_type":"movie","genre_ids":[28]},
				{"id":2,"name":"Show","media_type":"tv","genre_ids":[18,999]},
				{"id":3,"name":"Somebody","media_type":"person"}]}`))
		case "/genre/movie/list":
			_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Action"}]}`))
		case "/genre/tv/list":
			_, _ = w.Write([]byte(`{"genres":[{"id":18,"name":"Drama"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	items, err := client.GetTrending(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Film", items[0].Name)
	assert.Equal(t, []string{"Action"}, items[0].Genres)
	assert.Equal(t, "tv", items[1].MediaKind)
	assert.Equal(t, []string{"Drama"}, items[1].Genres)
}

func TestTMDBGetVideos(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/949/videos", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":949,"results":[{"key":"abc","site":"YouTube","type":"Trailer","name":"Official Trailer"}]}`))
	})

	videos, err := client.GetVideos(context.Background(), 949, "movie")
	require.NoError(t, err)
	assert.Equal(t, []models.VideoRef{{Key: "abc", Site: "YouTube", Kind: "Trailer", Name: "Official Trailer"}}, videos)
}

func TestTMDBRejectsUnknownKind(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := client.GetDetails(context.Background(), 1, "podcast")
	assert.ErrorIs(t, err, models.ErrValidation)
}
